package transport

import "github.com/odysseus0/chatvault/internal/model"

type RequestType string

const (
	SaveConversation    RequestType = "SAVE_CONVERSATION"
	GetStats            RequestType = "GET_STATS"
	GetAllConversations RequestType = "GET_ALL_CONVERSATIONS"
	GetConversation     RequestType = "GET_CONVERSATION"
	DeleteConversation  RequestType = "DELETE_CONVERSATION"
	SearchConversations RequestType = "SEARCH_CONVERSATIONS"
)

// Request is the message exchanged between a capturing client and the vault.
// Which optional fields are required depends on Type.
type Request struct {
	Type         RequestType         `json:"type" validate:"required,oneof=SAVE_CONVERSATION GET_STATS GET_ALL_CONVERSATIONS GET_CONVERSATION DELETE_CONVERSATION SEARCH_CONVERSATIONS"`
	ID           string              `json:"id,omitempty" validate:"omitempty,max=200"`
	Query        string              `json:"query,omitempty" validate:"omitempty,max=500"`
	Source       string              `json:"source,omitempty"`
	Limit        int                 `json:"limit,omitempty" validate:"gte=0,lte=1000"`
	Conversation *model.Conversation `json:"conversation,omitempty" validate:"omitempty"`
}

type Response struct {
	Success       bool                        `json:"success"`
	Error         string                      `json:"error,omitempty"`
	ID            string                      `json:"id,omitempty"`
	Conversation  *model.Conversation         `json:"conversation,omitempty"`
	Conversations []model.ConversationSummary `json:"conversations,omitempty"`
	Stats         *model.Stats                `json:"stats,omitempty"`
}
