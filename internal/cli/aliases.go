package cli

import "github.com/odysseus0/chatvault/internal/model"

type OutputFormat = model.OutputFormat
type Conversation = model.Conversation
type ConversationSummary = model.ConversationSummary
type Stats = model.Stats

const (
	OutputTable = model.OutputTable
	OutputJSON  = model.OutputJSON
	OutputWide  = model.OutputWide
)
