package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/wanderchat/wanderchat/internal/logger"
)

// SQLStore persists sessions in SQLite. Messages are stored as a JSON array
// column so the row mirrors the hosted-store record shape one to one.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (creating if needed) the chats database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		messages TEXT NOT NULL,
		last_message TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		message_count INTEGER NOT NULL
	);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create chats table: %w", err)
	}
	logger.L.Info("sqlite chat store initialized", "path", path)
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) List(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, messages, last_message, timestamp, message_count
		 FROM chats WHERE user_id = ? ORDER BY timestamp DESC;`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var out []ChatSession
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *chat)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, userID, id string) (*ChatSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, messages, last_message, timestamp, message_count
		 FROM chats WHERE id = ? AND user_id = ?;`, id, userID)
	chat, err := scanChat(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return chat, err
}

// Upsert overwrites the full session record keyed by id.
func (s *SQLStore) Upsert(ctx context.Context, chat *ChatSession) error {
	messages, err := json.Marshal(chat.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, title, messages, last_message, timestamp, message_count)
		 VALUES (?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			messages = excluded.messages,
			last_message = excluded.last_message,
			timestamp = excluded.timestamp,
			message_count = excluded.message_count;`,
		chat.ID, chat.UserID, chat.Title, string(messages), chat.LastMessage, chat.Timestamp, chat.MessageCount)
	if err != nil {
		return fmt.Errorf("upsert chat %s: %w", chat.ID, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*ChatSession, error) {
	var chat ChatSession
	var messages string
	if err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &messages,
		&chat.LastMessage, &chat.Timestamp, &chat.MessageCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &chat.Messages); err != nil {
		return nil, fmt.Errorf("decode messages for chat %s: %w", chat.ID, err)
	}
	return &chat, nil
}
