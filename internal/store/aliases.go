package store

import "github.com/odysseus0/chatvault/internal/model"

type Conversation = model.Conversation
type ConversationSummary = model.ConversationSummary
type Message = model.Message
type Stats = model.Stats
type ListOptions = model.ListOptions
type SearchOptions = model.SearchOptions
type Role = model.Role
