package model

import (
	"fmt"
	"strings"
	"time"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputWide  OutputFormat = "wide"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole accepts the role names used by the supported chat applications.
func ParseRole(v string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "user", "human":
		return RoleUser, nil
	case "assistant", "ai", "bot", "model":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown role %q", v)
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Message struct {
	Role        Role   `json:"role" yaml:"role" validate:"required,oneof=user assistant"`
	Content     string `json:"content" yaml:"content"`
	ContentHTML string `json:"contentHtml,omitempty" yaml:"contentHtml,omitempty"`
	Index       int    `json:"index" yaml:"index" validate:"gte=0"`
}

type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Source    string    `json:"source" yaml:"source"`
	Title     string    `json:"title" yaml:"title"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
	Messages  []Message `json:"messages" yaml:"messages" validate:"dive"`
	SavedAt   time.Time `json:"savedAt" yaml:"savedAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

type ConversationSummary struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Title        string    `json:"title"`
	URL          string    `json:"url,omitempty"`
	MessageCount int       `json:"messageCount"`
	Preview      string    `json:"preview,omitempty"`
	SavedAt      time.Time `json:"savedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Stats struct {
	Conversations int            `json:"conversations"`
	Messages      int            `json:"messages"`
	BySource      map[string]int `json:"bySource"`
}

type ListOptions struct {
	Source string
	Limit  int
}

type SearchOptions struct {
	Query  string
	Source string
	Limit  int
}
