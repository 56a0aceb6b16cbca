// Package api is the REST side of the backend contract: request/response
// calls carrying a cookie-backed session. The realtime side lives in
// package realtime and shares this package's cookie jar.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"parley/models"
)

type Client struct {
	base string
	http *http.Client
}

func New(base string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}, nil
}

// Jar exposes the session cookies for the websocket dial.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// WebsocketURL derives the realtime endpoint from the base URL.
func (c *Client) WebsocketURL() string {
	u, err := url.Parse(c.base)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}

func (c *Client) Register(username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(http.MethodPost, "/auth/register", body, nil)
}

func (c *Client) Login(username, password string) (models.Session, error) {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.do(http.MethodPost, "/auth/login", body, &resp); err != nil {
		return models.Session{}, err
	}
	return models.Session{UserID: resp.UserID, Username: username}, nil
}

func (c *Client) Logout() error {
	return c.do(http.MethodGet, "/auth/logout", nil, nil)
}

func (c *Client) Status() (models.StatusResponse, error) {
	var resp models.StatusResponse
	err := c.do(http.MethodGet, "/auth/status", nil, &resp)
	return resp, err
}

func (c *Client) Contacts() ([]models.Contact, error) {
	var contacts []models.Contact
	err := c.do(http.MethodGet, "/chat/contacts", nil, &contacts)
	return contacts, err
}

func (c *Client) AddContact(username string) error {
	body := map[string]string{"username": username}
	return c.do(http.MethodPost, "/chat/contacts/add", body, nil)
}

func (c *Client) Chats() ([]models.Chat, error) {
	var chats []models.Chat
	err := c.do(http.MethodGet, "/chat/chats", nil, &chats)
	return chats, err
}

// CreateChat creates or looks up the one-on-one chat with the target user.
// The returned id is zero when the backend reported an existing chat
// without identifying it.
func (c *Client) CreateChat(targetUserID int64) (int64, error) {
	body := map[string]int64{"target_user_id": targetUserID}
	var resp struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := c.do(http.MethodPost, "/chat/chats/create", body, &resp); err != nil {
		return 0, err
	}
	return resp.ChatID, nil
}

func (c *Client) Messages(chatID int64) ([]models.Message, error) {
	var messages []models.Message
	err := c.do(http.MethodGet, fmt.Sprintf("/chat/chats/%d/messages", chatID), nil, &messages)
	return messages, err
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return wrapError(KindValidation, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return wrapError(KindValidation, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(KindNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeFailure(resp.StatusCode, resp.Body)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return wrapError(KindRemote, err)
		}
	}
	return nil
}

func decodeFailure(status int, body io.Reader) error {
	var payload struct {
		Error string `json:"error"`
	}
	message := fmt.Sprintf("request failed with status %d", status)
	if json.NewDecoder(body).Decode(&payload) == nil && payload.Error != "" {
		message = payload.Error
	}

	switch {
	case status == http.StatusUnauthorized:
		return newError(KindUnauthorized, message)
	case status == http.StatusConflict:
		return newError(KindConflict, message)
	case status == http.StatusBadRequest && strings.Contains(message, "already exists"):
		return newError(KindConflict, message)
	case status == http.StatusBadRequest:
		return newError(KindValidation, message)
	default:
		return newError(KindRemote, message)
	}
}
