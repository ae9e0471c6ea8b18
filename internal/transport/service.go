package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odysseus0/chatvault/internal/convert"
	"github.com/odysseus0/chatvault/internal/model"
	"github.com/odysseus0/chatvault/internal/store"
)

var ErrInvalidRequest = errors.New("invalid request")

// Store is the record store the service reads and writes.
type Store interface {
	PutConversation(ctx context.Context, c model.Conversation) (model.Conversation, error)
	GetConversation(ctx context.Context, id string) (model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	ListConversations(ctx context.Context, opts model.ListOptions) ([]model.ConversationSummary, error)
	SearchConversations(ctx context.Context, opts model.SearchOptions) ([]model.ConversationSummary, error)
	GetStats(ctx context.Context) (model.Stats, error)
}

// Service answers typed requests against a Store. It does not depend on how
// requests arrive.
type Service struct {
	store    Store
	validate *validator.Validate
	log      *slog.Logger
}

func NewService(st Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:    st,
		validate: validator.New(),
		log:      log,
	}
}

// Handle runs req and reports failures in the response instead of an error.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	resp, err := s.Do(ctx, req)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return resp
}

// Do runs req. Errors wrap ErrInvalidRequest, store.ErrInvalidInput or
// store.ErrNotFound when the caller is at fault.
func (s *Service) Do(ctx context.Context, req Request) (Response, error) {
	if err := s.validate.Struct(req); err != nil {
		return Response{}, fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}

	switch req.Type {
	case SaveConversation:
		return s.save(ctx, req)
	case GetStats:
		stats, err := s.store.GetStats(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Stats: &stats}, nil
	case GetAllConversations:
		list, err := s.store.ListConversations(ctx, model.ListOptions{Source: req.Source, Limit: req.Limit})
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Conversations: list}, nil
	case GetConversation:
		if err := s.requireID(req); err != nil {
			return Response{}, err
		}
		c, err := s.store.GetConversation(ctx, req.ID)
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, ID: c.ID, Conversation: &c}, nil
	case DeleteConversation:
		if err := s.requireID(req); err != nil {
			return Response{}, err
		}
		if err := s.store.DeleteConversation(ctx, req.ID); err != nil {
			return Response{}, err
		}
		s.log.Info("conversation deleted", "id", req.ID)
		return Response{Success: true, ID: req.ID}, nil
	case SearchConversations:
		if err := s.validate.Var(strings.TrimSpace(req.Query), "required"); err != nil {
			return Response{}, fmt.Errorf("%w: query is required for %s", ErrInvalidRequest, req.Type)
		}
		list, err := s.store.SearchConversations(ctx, model.SearchOptions{Query: req.Query, Source: req.Source, Limit: req.Limit})
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Conversations: list}, nil
	default:
		return Response{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, req.Type)
	}
}

// save stores the conversation carried by req. Client supplied HTML is
// sanitized again before it is persisted.
func (s *Service) save(ctx context.Context, req Request) (Response, error) {
	if req.Conversation == nil {
		return Response{}, fmt.Errorf("%w: conversation is required for %s", ErrInvalidRequest, req.Type)
	}
	c := *req.Conversation
	if strings.TrimSpace(c.ID) == "" {
		c.ID = uuid.NewString()
	}
	c.Messages = append([]model.Message(nil), c.Messages...)
	for i := range c.Messages {
		if c.Messages[i].ContentHTML != "" {
			c.Messages[i].ContentHTML = convert.Sanitize(c.Messages[i].ContentHTML)
		}
	}

	stored, err := s.store.PutConversation(ctx, c)
	if err != nil {
		return Response{}, err
	}
	s.log.Info("conversation saved", "id", stored.ID, "source", stored.Source, "messages", len(stored.Messages))
	return Response{Success: true, ID: stored.ID}, nil
}

func (s *Service) requireID(req Request) error {
	if err := s.validate.Var(strings.TrimSpace(req.ID), "required"); err != nil {
		return fmt.Errorf("%w: id is required for %s", ErrInvalidRequest, req.Type)
	}
	return nil
}

// IsClientError reports whether err was caused by the request rather than the
// service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, store.ErrInvalidInput)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
