package cli

import "github.com/odysseus0/chatvault/internal/outline"

type CaptureResponse struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
	Saved    bool   `json:"saved"`
}

type RemoveConversationResponse struct {
	RemovedConversationID string `json:"removedConversationId"`
}

type ImportReport struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}

// OutlineHeading is a heading of an assistant message.
type OutlineHeading struct {
	Message int `json:"message"`
	outline.Heading
}

type OutlineResponse struct {
	ID       string           `json:"id"`
	Headings []OutlineHeading `json:"headings"`
}
