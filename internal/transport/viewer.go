package transport

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odysseus0/chatvault/internal/convert"
	"github.com/odysseus0/chatvault/internal/model"
	"github.com/odysseus0/chatvault/internal/outline"
	"github.com/odysseus0/chatvault/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	indexTemplate        = template.Must(template.ParseFS(templateFS, "templates/index.html", "templates/layout.html"))
	conversationTemplate = template.Must(template.ParseFS(templateFS, "templates/conversation.html", "templates/layout.html"))
)

type messageView struct {
	Role   model.Role
	Anchor string
	HTML   template.HTML
}

type outlineEntry struct {
	Level  int
	Text   string
	Anchor string
}

type conversationView struct {
	Title    string
	Source   string
	URL      string
	SavedAt  time.Time
	Outline  []outlineEntry
	Messages []messageView
}

// newConversationView prepares c for display. Message HTML is the stored
// sanitized form or the markdown rendered on demand; the outline lists the
// headings of assistant messages and links to the message holding each one.
func newConversationView(c model.Conversation) conversationView {
	v := conversationView{
		Title:   c.Title,
		Source:  c.Source,
		URL:     c.URL,
		SavedAt: c.SavedAt,
	}
	for i, m := range c.Messages {
		anchor := fmt.Sprintf("m-%d", i)
		v.Messages = append(v.Messages, messageView{
			Role:   m.Role,
			Anchor: anchor,
			HTML:   template.HTML(convert.MessageHTML(m)),
		})
		if m.Role != model.RoleAssistant {
			continue
		}
		for _, h := range outline.Build(m.Content) {
			v.Outline = append(v.Outline, outlineEntry{Level: h.Level, Text: h.Text, Anchor: anchor})
		}
	}
	return v
}

// WriteConversationPage writes c as a standalone HTML page, the same one the
// viewer serves.
func WriteConversationPage(w io.Writer, c model.Conversation) error {
	return conversationTemplate.Execute(w, newConversationView(c))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.store.ListConversations(r.Context(), model.ListOptions{Source: r.URL.Query().Get("source")})
	if err != nil {
		s.log.Error("list conversations", "error", err)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, indexTemplate, list)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.svc.store.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error("get conversation", "id", id, "error", err)
		http.Error(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, conversationTemplate, newConversationView(c))
}

func (s *Server) renderPage(w http.ResponseWriter, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		s.log.Error("render page", "template", t.Name(), "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
