package db

import (
	"database/sql"
	"errors"
	"time"

	"parley/models"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoRows = errors.New("no rows found")
	ErrExists = errors.New("already exists")
)

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			contact_user_id INTEGER NOT NULL REFERENCES users(id),
			alias TEXT NOT NULL DEFAULT '',
			UNIQUE(owner_id, contact_user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			last_message_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_participants (
			chat_id INTEGER NOT NULL REFERENCES chats(id),
			user_id INTEGER NOT NULL REFERENCES users(id),
			UNIQUE(chat_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL REFERENCES chats(id),
			sender_id INTEGER NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_user ON chat_participants(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, timestamp)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// User methods

func (db *DB) CreateUser(username, password string) (int64, error) {
	exists, err := db.UserExists(username)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.conn.Exec(
		"INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)",
		username, string(hashed), now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AuthenticateUser verifies credentials and returns the user on success.
func (db *DB) AuthenticateUser(username, password string) (*models.User, error) {
	var u models.User
	err := db.conn.QueryRow(
		"SELECT id, username, password FROM users WHERE username = ?", username,
	).Scan(&u.ID, &u.Username, &u.Password)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrNoRows
	}
	return &u, nil
}

func (db *DB) UserExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) GetUserByName(username string) (*models.User, error) {
	var u models.User
	err := db.conn.QueryRow(
		"SELECT id, username FROM users WHERE username = ?", username,
	).Scan(&u.ID, &u.Username)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) GetUserByID(id int64) (*models.User, error) {
	var u models.User
	err := db.conn.QueryRow(
		"SELECT id, username FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Username)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Contact methods

func (db *DB) GetContacts(ownerID int64) ([]models.Contact, error) {
	rows, err := db.conn.Query(
		`SELECT u.id, u.username, c.alias
		 FROM contacts c JOIN users u ON u.id = c.contact_user_id
		 WHERE c.owner_id = ?
		 ORDER BY u.username`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.UserID, &c.Username, &c.Alias); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func (db *DB) AddContact(ownerID, contactUserID int64, alias string) error {
	exists, err := db.ContactExists(ownerID, contactUserID)
	if err != nil {
		return err
	}
	if exists {
		return ErrExists
	}
	_, err = db.conn.Exec(
		"INSERT INTO contacts (owner_id, contact_user_id, alias) VALUES (?, ?, ?)",
		ownerID, contactUserID, alias,
	)
	return err
}

func (db *DB) ContactExists(ownerID, contactUserID int64) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM contacts WHERE owner_id = ? AND contact_user_id = ?",
		ownerID, contactUserID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Chat methods

// GetChats lists the user's chats, most recently active first. A chat's
// display name is the other participant's username.
func (db *DB) GetChats(userID int64) ([]models.Chat, error) {
	rows, err := db.conn.Query(
		`SELECT ch.id, u.username
		 FROM chats ch
		 JOIN chat_participants own ON own.chat_id = ch.id AND own.user_id = ?
		 JOIN chat_participants other ON other.chat_id = ch.id AND other.user_id != ?
		 JOIN users u ON u.id = other.user_id
		 ORDER BY ch.last_message_at DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ChatID, &c.Name); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}

	return chats, rows.Err()
}

// FindDirectChat returns the id of the one-on-one chat between two users,
// or ErrNoRows when none exists.
func (db *DB) FindDirectChat(userA, userB int64) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		`SELECT a.chat_id
		 FROM chat_participants a
		 JOIN chat_participants b ON b.chat_id = a.chat_id
		 WHERE a.user_id = ? AND b.user_id = ?`, userA, userB,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNoRows
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (db *DB) CreateDirectChat(userA, userB int64) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.Exec("INSERT INTO chats (created_at, last_message_at) VALUES (?, ?)", now, now)
	if err != nil {
		return 0, err
	}
	chatID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, uid := range []int64{userA, userB} {
		if _, err := tx.Exec(
			"INSERT INTO chat_participants (chat_id, user_id) VALUES (?, ?)", chatID, uid,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return chatID, nil
}

func (db *DB) IsParticipant(chatID, userID int64) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM chat_participants WHERE chat_id = ? AND user_id = ?",
		chatID, userID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) ChatExists(chatID int64) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM chats WHERE id = ?", chatID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Message methods

// SaveMessage persists a message and bumps the chat's activity timestamp.
func (db *DB) SaveMessage(chatID, senderID int64, content string, timestamp time.Time) error {
	ts := timestamp.UTC().Format(time.RFC3339)
	if _, err := db.conn.Exec(
		"INSERT INTO messages (chat_id, sender_id, content, timestamp) VALUES (?, ?, ?, ?)",
		chatID, senderID, content, ts,
	); err != nil {
		return err
	}
	_, err := db.conn.Exec("UPDATE chats SET last_message_at = ? WHERE id = ?", ts, chatID)
	return err
}

func (db *DB) GetMessages(chatID int64) ([]models.Message, error) {
	rows, err := db.conn.Query(
		`SELECT m.chat_id, m.sender_id, u.username, m.content, m.timestamp
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.chat_id = ?
		 ORDER BY m.timestamp ASC, m.id ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var ts string
		if err := rows.Scan(&m.ChatID, &m.SenderID, &m.SenderUsername, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
