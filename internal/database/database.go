package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

type Message struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Digest    string    `json:"digest"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	database := &Database{db: db}
	if err := database.createTables(); err != nil {
		return nil, err
	}

	return database, nil
}

func (d *Database) createTables() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			subject TEXT NOT NULL,
			digest TEXT NOT NULL,
			size INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Message operations
func (d *Database) SaveMessage(uid, sender, recipient, subject, digest string, size int64) (*Message, error) {
	result, err := d.db.Exec(`
		INSERT INTO messages (uid, sender, recipient, subject, digest, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, uid, sender, recipient, subject, digest, size)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		UID:       uid,
		Sender:    sender,
		Recipient: recipient,
		Subject:   subject,
		Digest:    digest,
		Size:      size,
		CreatedAt: time.Now(),
	}, nil
}

func (d *Database) GetMessage(uid string) (*Message, error) {
	var msg Message
	err := d.db.QueryRow(`
		SELECT id, uid, sender, recipient, subject, digest, size, created_at
		FROM messages WHERE uid = ?
	`, uid).Scan(&msg.ID, &msg.UID, &msg.Sender, &msg.Recipient, &msg.Subject, &msg.Digest, &msg.Size, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (d *Database) GetAllMessages() ([]*Message, error) {
	rows, err := d.db.Query(`
		SELECT id, uid, sender, recipient, subject, digest, size, created_at
		FROM messages ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		err := rows.Scan(&msg.ID, &msg.UID, &msg.Sender, &msg.Recipient, &msg.Subject, &msg.Digest, &msg.Size, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func (d *Database) DeleteMessage(uid string) error {
	_, err := d.db.Exec(`DELETE FROM messages WHERE uid = ?`, uid)
	return err
}

// Statistics
func (d *Database) GetStatistics() (int, int64, error) {
	var totalMessages int
	var totalSize int64

	err := d.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM messages`).Scan(&totalMessages, &totalSize)
	if err != nil {
		return 0, 0, err
	}

	return totalMessages, totalSize, nil
}
