package store

import (
	"database/sql"
	"strings"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const summarySelectColumns = `
	c.id, c.source, c.title, c.url, c.saved_at, c.updated_at,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
	COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id ORDER BY m.idx LIMIT 1), '')
`

const previewLength = 120

func scanConversationHeader(scanner rowScanner) (Conversation, error) {
	var c Conversation
	var url sql.NullString
	var savedAt, updatedAt string
	if err := scanner.Scan(&c.ID, &c.Source, &c.Title, &url, &savedAt, &updatedAt); err != nil {
		return Conversation{}, err
	}
	c.URL = url.String
	if t, err := parseDBTime(savedAt); err == nil {
		c.SavedAt = t
	}
	if t, err := parseDBTime(updatedAt); err == nil {
		c.UpdatedAt = t
	}
	return c, nil
}

func scanSummary(scanner rowScanner) (ConversationSummary, error) {
	var c ConversationSummary
	var url sql.NullString
	var savedAt, updatedAt, preview string
	if err := scanner.Scan(
		&c.ID,
		&c.Source,
		&c.Title,
		&url,
		&savedAt,
		&updatedAt,
		&c.MessageCount,
		&preview,
	); err != nil {
		return ConversationSummary{}, err
	}
	c.URL = url.String
	c.Preview = truncate(strings.Join(strings.Fields(preview), " "), previewLength)
	if t, err := parseDBTime(savedAt); err == nil {
		c.SavedAt = t
	}
	if t, err := parseDBTime(updatedAt); err == nil {
		c.UpdatedAt = t
	}
	return c, nil
}

func scanSummaries(rows *sql.Rows) ([]ConversationSummary, error) {
	defer rows.Close()
	out := make([]ConversationSummary, 0)
	for rows.Next() {
		c, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
