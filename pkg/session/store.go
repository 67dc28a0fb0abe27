// Package session реализует хранилище сессий диалога поверх SQLite.
//
// Сессия — именованная последовательность сообщений с метаданными
// (теги, summary, родительская сессия). Поддерживается ветвление:
// новая сессия наследует сообщения родителя до точки ветвления.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpenko/echo-ai/pkg/llm"
)

// ErrNotFound — сессия или сообщение не существуют.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	created      TIMESTAMP NOT NULL,
	parent       TEXT,
	branch_point TEXT,
	tags         TEXT NOT NULL DEFAULT '[]',
	summary      TEXT
);

CREATE TABLE IF NOT EXISTS messages (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	created      TIMESTAMP NOT NULL,
	role         TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	tool_calls   TEXT,
	tool_call_id TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
`

// Meta — метаданные сессии без сообщений.
type Meta struct {
	ID          string
	Name        string
	Created     time.Time
	Parent      string
	BranchPoint string
	Tags        []string
	Summary     string
}

// StoredMessage — сообщение с идентификатором и временем записи.
type StoredMessage struct {
	ID      string
	Created time.Time
	Message llm.Message
}

// Store — CRUD и ветвление сессий.
type Store struct {
	db *sql.DB
}

// NewStore создает хранилище и применяет схему.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Create создает новую пустую сессию и возвращает её ID.
func (s *Store) Create(ctx context.Context, name string, tags []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("session name is required")
	}
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, name, created, tags) VALUES (?, ?, ?, ?)",
		id, name, time.Now().UTC(), string(tagsJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// List возвращает метаданные всех сессий, новые первыми.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created, COALESCE(parent, ''), COALESCE(branch_point, ''),
		        tags, COALESCE(summary, '')
		 FROM sessions ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var tagsJSON string
		if err := rows.Scan(&m.ID, &m.Name, &m.Created, &m.Parent,
			&m.BranchPoint, &tagsJSON, &m.Summary); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
			m.Tags = nil
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get возвращает метаданные одной сессии.
func (s *Store) Get(ctx context.Context, sessionID string) (Meta, error) {
	var m Meta
	var tagsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created, COALESCE(parent, ''), COALESCE(branch_point, ''),
		        tags, COALESCE(summary, '')
		 FROM sessions WHERE id = ?`, sessionID).
		Scan(&m.ID, &m.Name, &m.Created, &m.Parent, &m.BranchPoint, &tagsJSON, &m.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, fmt.Errorf("session '%s': %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return Meta{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
		m.Tags = nil
	}
	return m, nil
}

// Append добавляет сообщение в конец сессии и возвращает ID записи.
func (s *Store) Append(ctx context.Context, sessionID string, msg llm.Message) (string, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return "", err
	}

	var toolCallsJSON sql.NullString
	if len(msg.ToolCalls) > 0 {
		raw, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return "", err
		}
		toolCallsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, seq, created, role, content, tool_calls, tool_call_id, name)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?), ?, ?, ?, ?, ?, ?)`,
		id, sessionID, sessionID, time.Now().UTC(),
		string(msg.Role), msg.Content, toolCallsJSON, msg.ToolCallID, msg.Name)
	if err != nil {
		return "", fmt.Errorf("failed to append message: %w", err)
	}
	return id, nil
}

// Load возвращает сообщения сессии в порядке записи, готовые к
// восстановлению истории диалога.
func (s *Store) Load(ctx context.Context, sessionID string) ([]llm.Message, error) {
	stored, err := s.LoadFull(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]llm.Message, len(stored))
	for i, sm := range stored {
		out[i] = sm.Message
	}
	return out, nil
}

// LoadFull возвращает сообщения вместе с их идентификаторами.
func (s *Store) LoadFull(ctx context.Context, sessionID string) ([]StoredMessage, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created, role, content, COALESCE(tool_calls, ''), tool_call_id, name
		 FROM messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var out []StoredMessage
	for rows.Next() {
		var sm StoredMessage
		var role, toolCallsJSON string
		if err := rows.Scan(&sm.ID, &sm.Created, &role, &sm.Message.Content,
			&toolCallsJSON, &sm.Message.ToolCallID, &sm.Message.Name); err != nil {
			return nil, err
		}
		sm.Message.Role = llm.Role(role)
		if toolCallsJSON != "" {
			if err := json.Unmarshal([]byte(toolCallsJSON), &sm.Message.ToolCalls); err != nil {
				return nil, fmt.Errorf("corrupted tool_calls in message %s: %w", sm.ID, err)
			}
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// SetName переименовывает сессию.
func (s *Store) SetName(ctx context.Context, sessionID, name string) error {
	return s.updateField(ctx, sessionID, "name", name)
}

// SetSummary сохраняет краткое содержание сессии.
func (s *Store) SetSummary(ctx context.Context, sessionID, summary string) error {
	return s.updateField(ctx, sessionID, "summary", summary)
}

func (s *Store) updateField(ctx context.Context, sessionID, field, value string) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE sessions SET %s = ? WHERE id = ?", field), value, sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session '%s': %w", sessionID, ErrNotFound)
	}
	return nil
}

// UpdateMessage заменяет текст сообщения по его ID.
func (s *Store) UpdateMessage(ctx context.Context, messageID, newContent string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET content = ? WHERE id = ?", newContent, messageID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("message '%s': %w", messageID, ErrNotFound)
	}
	return nil
}

// DeleteMessage удаляет сообщение по ID.
func (s *Store) DeleteMessage(ctx context.Context, messageID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", messageID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("message '%s': %w", messageID, ErrNotFound)
	}
	return nil
}

// Delete удаляет сессию вместе с сообщениями.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session '%s': %w", sessionID, ErrNotFound)
	}
	return tx.Commit()
}

// Branch создает новую сессию из префикса существующей.
//
// Сообщения родителя до messageID включительно копируются в новую
// сессию; parent и branch_point указывают на источник.
func (s *Store) Branch(ctx context.Context, fromID, messageID, newName string) (string, error) {
	parent, err := s.Get(ctx, fromID)
	if err != nil {
		return "", err
	}
	stored, err := s.LoadFull(ctx, fromID)
	if err != nil {
		return "", err
	}

	cut := -1
	for i, sm := range stored {
		if sm.ID == messageID {
			cut = i
			break
		}
	}
	if cut < 0 {
		return "", fmt.Errorf("message '%s' in session '%s': %w", messageID, fromID, ErrNotFound)
	}

	tagsJSON, err := json.Marshal(parent.Tags)
	if err != nil {
		return "", err
	}

	newID := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, name, created, parent, branch_point, tags) VALUES (?, ?, ?, ?, ?, ?)",
		newID, newName, time.Now().UTC(), fromID, messageID, string(tagsJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create branch: %w", err)
	}

	for _, sm := range stored[:cut+1] {
		if _, err := s.Append(ctx, newID, sm.Message); err != nil {
			return "", err
		}
	}
	return newID, nil
}
