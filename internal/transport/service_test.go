package transport

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odysseus0/chatvault/internal/model"
	"github.com/odysseus0/chatvault/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "chatvault.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewService(store.NewStore(db), nil)
}

func sampleConversation(id string) *model.Conversation {
	return &model.Conversation{
		ID:     id,
		Source: "claude",
		Title:  "Channels",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "what is a channel?"},
			{Role: model.RoleAssistant, Content: "## Channels\n\nA typed conduit.", ContentHTML: `<h2 onclick="x()">Channels</h2><script>bad()</script><p>A typed conduit.</p>`},
		},
	}
}

func TestService_SaveGetDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp := svc.Handle(ctx, Request{Type: SaveConversation, Conversation: sampleConversation("c1")})
	if !resp.Success || resp.ID != "c1" {
		t.Fatalf("save = %+v", resp)
	}

	resp = svc.Handle(ctx, Request{Type: GetConversation, ID: "c1"})
	if !resp.Success || resp.Conversation == nil {
		t.Fatalf("get = %+v", resp)
	}
	html := resp.Conversation.Messages[1].ContentHTML
	if strings.Contains(html, "onclick") || strings.Contains(html, "<script") || !strings.Contains(html, "<h2>Channels</h2>") {
		t.Fatalf("content html not sanitized on save: %s", html)
	}
	if resp.Conversation.Messages[1].Content != "## Channels\n\nA typed conduit." {
		t.Fatalf("content changed: %q", resp.Conversation.Messages[1].Content)
	}

	resp = svc.Handle(ctx, Request{Type: DeleteConversation, ID: "c1"})
	if !resp.Success {
		t.Fatalf("delete = %+v", resp)
	}
	if _, err := svc.Do(ctx, Request{Type: GetConversation, ID: "c1"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
}

func TestService_SaveAssignsID(t *testing.T) {
	svc := newTestService(t)
	resp := svc.Handle(context.Background(), Request{Type: SaveConversation, Conversation: sampleConversation("")})
	if !resp.Success || len(resp.ID) != 36 {
		t.Fatalf("expected generated uuid, got %+v", resp)
	}
}

func TestService_ListSearchStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if resp := svc.Handle(ctx, Request{Type: SaveConversation, Conversation: sampleConversation(id)}); !resp.Success {
			t.Fatalf("save %s: %+v", id, resp)
		}
	}

	resp := svc.Handle(ctx, Request{Type: GetAllConversations})
	if !resp.Success || len(resp.Conversations) != 2 {
		t.Fatalf("list = %+v", resp)
	}
	resp = svc.Handle(ctx, Request{Type: SearchConversations, Query: "conduit", Limit: 1})
	if !resp.Success || len(resp.Conversations) != 1 {
		t.Fatalf("search = %+v", resp)
	}
	resp = svc.Handle(ctx, Request{Type: GetStats})
	if !resp.Success || resp.Stats == nil || resp.Stats.Conversations != 2 || resp.Stats.Messages != 4 || resp.Stats.BySource["claude"] != 2 {
		t.Fatalf("stats = %+v", resp)
	}
}

func TestService_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	badRole := sampleConversation("x")
	badRole.Messages[0].Role = "system"

	cases := map[string]Request{
		"missing type":        {},
		"unknown type":        {Type: "PING"},
		"get without id":      {Type: GetConversation},
		"delete without id":   {Type: DeleteConversation, ID: "  "},
		"search without term": {Type: SearchConversations, Query: " "},
		"save without body":   {Type: SaveConversation},
		"save with bad role":  {Type: SaveConversation, Conversation: badRole},
		"negative limit":      {Type: GetAllConversations, Limit: -1},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Do(ctx, req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if resp := svc.Handle(ctx, req); resp.Success || resp.Error == "" {
				t.Fatalf("Handle = %+v", resp)
			}
		})
	}
}
