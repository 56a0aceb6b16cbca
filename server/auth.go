package server

import (
	"errors"
	"log"
	"net/http"

	"parley/db"
	"parley/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	_, err := s.db.CreateUser(creds.Username, creds.Password)
	if errors.Is(err, db.ErrExists) {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	if err != nil {
		log.Printf("Error creating user %q: %v", creds.Username, err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	// Registration does not authenticate; the client logs in explicitly.
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := s.db.AuthenticateUser(creds.Username, creds.Password)
	if errors.Is(err, db.ErrNoRows) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Printf("Error authenticating %q: %v", creds.Username, err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	s.createSession(w, models.Session{UserID: user.ID, Username: user.Username})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user_id": user.ID,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.dropSession(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, models.StatusResponse{IsAuthenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{
		IsAuthenticated: true,
		UserID:          sess.UserID,
		Username:        sess.Username,
	})
}
