package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultLimit = 50

// PutConversation inserts or replaces a conversation and its messages. An
// existing record keeps its SavedAt; UpdatedAt is always set to now. Message
// content is stored exactly as given and messages are re-indexed by position.
func (s *Store) PutConversation(ctx context.Context, c Conversation) (stored Conversation, err error) {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return Conversation{}, fmt.Errorf("%w: conversation id must not be empty", ErrInvalidInput)
	}
	for i, m := range c.Messages {
		if !m.Role.Valid() {
			return Conversation{}, fmt.Errorf("%w: message %d has invalid role %q", ErrInvalidInput, i, m.Role)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Conversation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var existing string
	err = tx.QueryRowContext(ctx, `SELECT saved_at FROM conversations WHERE id = ?`, c.ID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if c.SavedAt.IsZero() {
			c.SavedAt = now
		}
	case err != nil:
		return Conversation{}, err
	default:
		if t, perr := parseDBTime(existing); perr == nil {
			c.SavedAt = t
		}
	}
	c.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, source, title, url, saved_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			url = excluded.url,
			updated_at = excluded.updated_at
	`, c.ID, c.Source, c.Title, c.URL, timeToDBString(c.SavedAt), timeToDBString(c.UpdatedAt))
	if err != nil {
		return Conversation{}, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, c.ID); err != nil {
		return Conversation{}, err
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO messages (conversation_id, idx, role, content, content_html) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Conversation{}, err
	}
	defer ins.Close()

	c.Messages = append([]Message(nil), c.Messages...)
	bodies := make([]string, 0, len(c.Messages))
	for i := range c.Messages {
		c.Messages[i].Index = i
		m := c.Messages[i]
		if _, err = ins.ExecContext(ctx, c.ID, i, string(m.Role), m.Content, m.ContentHTML); err != nil {
			return Conversation{}, err
		}
		bodies = append(bodies, m.Content)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM conversations_fts WHERE conversation_id = ?`, c.ID); err != nil {
		return Conversation{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO conversations_fts (conversation_id, title, body) VALUES (?, ?, ?)`,
		c.ID, c.Title, strings.Join(bodies, "\n"),
	); err != nil {
		return Conversation{}, err
	}

	if err = tx.Commit(); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, title, url, saved_at, updated_at
		FROM conversations
		WHERE id = ?
	`, id)
	c, err := scanConversationHeader(row)
	if err != nil {
		return Conversation{}, wrapNotFound("conversation "+id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, role, content, content_html
		FROM messages
		WHERE conversation_id = ?
		ORDER BY idx
	`, id)
	if err != nil {
		return Conversation{}, err
	}
	defer rows.Close()

	c.Messages = make([]Message, 0)
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.Index, &role, &m.Content, &m.ContentHTML); err != nil {
			return Conversation{}, err
		}
		m.Role = Role(role)
		c.Messages = append(c.Messages, m)
	}
	return c, rows.Err()
}

func (s *Store) DeleteConversation(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("conversation %s: %w", id, ErrNotFound)
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM conversations_fts WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListConversations returns summaries ordered by most recently updated.
func (s *Store) ListConversations(ctx context.Context, opts ListOptions) ([]ConversationSummary, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	query := `SELECT ` + summarySelectColumns + ` FROM conversations c`
	args := make([]any, 0, 2)
	if src := strings.TrimSpace(opts.Source); src != "" {
		query += ` WHERE c.source = ?`
		args = append(args, src)
	}
	query += ` ORDER BY c.updated_at DESC, c.id LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (s *Store) SearchConversations(ctx context.Context, opts SearchOptions) ([]ConversationSummary, error) {
	match := ftsQuery(opts.Query)
	if match == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	where := []string{"conversations_fts MATCH ?"}
	args := []any{match}
	if src := strings.TrimSpace(opts.Source); src != "" {
		where = append(where, "c.source = ?")
		args = append(args, src)
	}

	query := `
		SELECT ` + summarySelectColumns + `
		FROM conversations_fts
		JOIN conversations c ON c.id = conversations_fts.conversation_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY bm25(conversations_fts), c.updated_at DESC
		LIMIT ?
	`
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: make(map[string]int)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&stats.Conversations); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.Messages); err != nil {
		return Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM conversations GROUP BY source`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return Stats{}, err
		}
		stats.BySource[source] = n
	}
	return stats, rows.Err()
}
