package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"parley/db"
	"parley/models"

	"github.com/gorilla/mux"
)

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	contacts, err := s.db.GetContacts(sess.UserID)
	if err != nil {
		log.Printf("Error listing contacts for user %d: %v", sess.UserID, err)
		writeError(w, http.StatusInternalServerError, "Could not list contacts")
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Username string `json:"username"`
		Alias    string `json:"alias"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username of contact is required")
		return
	}

	user, err := s.db.GetUserByName(req.Username)
	if errors.Is(err, db.ErrNoRows) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error looking up user %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "Could not add contact")
		return
	}
	if user.ID == sess.UserID {
		writeError(w, http.StatusBadRequest, "You cannot add yourself as a contact")
		return
	}

	err = s.db.AddContact(sess.UserID, user.ID, req.Alias)
	if errors.Is(err, db.ErrExists) {
		writeError(w, http.StatusBadRequest, "Contact already exists")
		return
	}
	if err != nil {
		log.Printf("Error adding contact for user %d: %v", sess.UserID, err)
		writeError(w, http.StatusInternalServerError, "Could not add contact")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Contact added successfully"})
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	chats, err := s.db.GetChats(sess.UserID)
	if err != nil {
		log.Printf("Error listing chats for user %d: %v", sess.UserID, err)
		writeError(w, http.StatusInternalServerError, "Could not list chats")
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		TargetUserID int64 `json:"target_user_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.TargetUserID == 0 {
		writeError(w, http.StatusBadRequest, "target_user_id is required")
		return
	}
	if req.TargetUserID == sess.UserID {
		writeError(w, http.StatusBadRequest, "Cannot create a chat with yourself")
		return
	}

	if _, err := s.db.GetUserByID(req.TargetUserID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Target user not found")
			return
		}
		log.Printf("Error looking up user %d: %v", req.TargetUserID, err)
		writeError(w, http.StatusInternalServerError, "Could not create chat")
		return
	}

	chatID, err := s.db.FindDirectChat(sess.UserID, req.TargetUserID)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Chat already exists",
			"chat_id": chatID,
		})
		return
	}
	if !errors.Is(err, db.ErrNoRows) {
		log.Printf("Error finding chat for users %d/%d: %v", sess.UserID, req.TargetUserID, err)
		writeError(w, http.StatusInternalServerError, "Could not create chat")
		return
	}

	chatID, err = s.db.CreateDirectChat(sess.UserID, req.TargetUserID)
	if err != nil {
		log.Printf("Error creating chat for users %d/%d: %v", sess.UserID, req.TargetUserID, err)
		writeError(w, http.StatusInternalServerError, "Could not create chat")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "One-on-one chat created",
		"chat_id": chatID,
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	chatID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid chat id")
		return
	}

	exists, err := s.db.ChatExists(chatID)
	if err != nil {
		log.Printf("Error checking chat %d: %v", chatID, err)
		writeError(w, http.StatusInternalServerError, "Could not load messages")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}

	participant, err := s.db.IsParticipant(chatID, sess.UserID)
	if err != nil {
		log.Printf("Error checking participant for chat %d: %v", chatID, err)
		writeError(w, http.StatusInternalServerError, "Could not load messages")
		return
	}
	if !participant {
		writeError(w, http.StatusForbidden, "You are not a participant of this chat")
		return
	}

	messages, err := s.db.GetMessages(chatID)
	if err != nil {
		log.Printf("Error loading messages for chat %d: %v", chatID, err)
		writeError(w, http.StatusInternalServerError, "Could not load messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}
