// Package db holds the per-process conversation store. The default DSN is
// ":memory:": transcripts live only as long as the server does.
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/reasonchat/reasonchat/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id TEXT,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);`

type Database struct {
	db *sql.DB
}

func New(dsn string) (*Database, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// The in-memory DSN opens a fresh database per connection; a single
	// connection keeps every query on the same one.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

func (db *Database) SaveMessage(msg *models.Message) error {
	query := `
        INSERT INTO messages (conversation_id, role, content, created_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        RETURNING id, created_at`

	return db.db.QueryRow(query, msg.ConvID, msg.Role, msg.Content).Scan(&msg.ID, &msg.CreatedAt)
}

func (db *Database) CreateConversation(title string) (*models.Conversation, error) {
	query := `
        INSERT INTO conversations (id, title, created_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        RETURNING created_at`

	conv := &models.Conversation{ID: uuid.NewString(), Title: title}
	err := db.db.QueryRow(query, conv.ID, title).Scan(&conv.CreatedAt)
	return conv, err
}

// GetConversationHistory returns the full transcript in chronological order.
// The whole history is resubmitted upstream on every turn, so there is no
// limit parameter.
func (db *Database) GetConversationHistory(conversationID string) ([]models.Message, error) {
	query := `
        SELECT id, conversation_id, role, content, created_at
        FROM messages
        WHERE conversation_id = ?
        ORDER BY id ASC`

	rows, err := db.db.Query(query, conversationID)
	if err != nil {
		return []models.Message{}, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.ConvID, &msg.Role, &msg.Content, &msg.CreatedAt)
		if err != nil {
			return []models.Message{}, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (db *Database) GetConversations() ([]models.Conversation, error) {
	query := `
        SELECT id, title, created_at
        FROM conversations
        ORDER BY created_at DESC`

	rows, err := db.db.Query(query)
	if err != nil {
		return []models.Conversation{}, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conv models.Conversation
		err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt)
		if err != nil {
			return []models.Conversation{}, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (db *Database) DeleteConversation(id string) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM conversations WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *Database) UpdateConversationTitle(id, title string) error {
	res, err := db.db.Exec("UPDATE conversations SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no conversation with id %q", id)
	}
	return nil
}
