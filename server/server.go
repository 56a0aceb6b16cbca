package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"parley/db"
	"parley/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const sessionCookie = "parley_session"

type Server struct {
	db       *db.DB
	config   *ServerConfig
	hub      *Hub
	mu       sync.RWMutex
	sessions map[string]models.Session // token -> session
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func New(database *db.DB, config *ServerConfig) *Server {
	s := &Server{
		db:       database,
		config:   config,
		sessions: make(map[string]models.Session),
	}
	s.hub = newHub(database)
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	auth.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)
	auth.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	chat := r.PathPrefix("/chat").Subrouter()
	chat.HandleFunc("/contacts", s.handleContacts).Methods(http.MethodGet)
	chat.HandleFunc("/contacts/add", s.handleAddContact).Methods(http.MethodPost)
	chat.HandleFunc("/chats", s.handleChats).Methods(http.MethodGet)
	chat.HandleFunc("/chats/create", s.handleCreateChat).Methods(http.MethodPost)
	chat.HandleFunc("/chats/{id:[0-9]+}/messages", s.handleMessages).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.handleWS)

	return r
}

func (s *Server) Start() error {
	addr := ":" + strconv.Itoa(s.config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	log.Printf("parley server started on %s", addr)
	return srv.ListenAndServe()
}

// Session helpers

func (s *Server) createSession(w http.ResponseWriter, sess models.Session) {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
}

func (s *Server) dropSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// currentSession resolves the request's session cookie, if valid.
func (s *Server) currentSession(r *http.Request) (models.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return models.Session{}, false
	}
	s.mu.RLock()
	sess, ok := s.sessions[c.Value]
	s.mu.RUnlock()
	return sess, ok
}

// JSON helpers

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
