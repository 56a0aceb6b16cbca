package api

import "fmt"

// Kind classifies a failed operation.
type Kind int

const (
	// KindNetwork is a transport failure: unreachable backend or timeout.
	KindNetwork Kind = iota
	// KindUnauthorized is an action attempted without a valid session,
	// or rejected credentials.
	KindUnauthorized
	// KindValidation is malformed or missing input.
	KindValidation
	// KindConflict is a duplicate contact, chat or username.
	KindConflict
	// KindRemote is any other backend-reported business error.
	KindRemote
	// KindChannel is a realtime transport failure.
	KindChannel
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindRemote:
		return "remote"
	case KindChannel:
		return "channel"
	}
	return "unknown"
}

// Error is the failure type surfaced by every client operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf("%s: %v", kind, err), Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
