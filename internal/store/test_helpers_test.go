package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/odysseus0/chatvault/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "chatvault.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewStore(db)
}

func mustPut(t *testing.T, store *Store, c Conversation) Conversation {
	t.Helper()
	stored, err := store.PutConversation(context.Background(), c)
	if err != nil {
		t.Fatalf("put conversation %s: %v", c.ID, err)
	}
	return stored
}

func chat(id, source, title string, contents ...string) Conversation {
	c := Conversation{ID: id, Source: source, Title: title}
	for i, content := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		c.Messages = append(c.Messages, Message{Role: role, Content: content})
	}
	return c
}
