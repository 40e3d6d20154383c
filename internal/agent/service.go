package agent

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-rag/server/internal/agent/graph/nodes"
	"github.com/agentic-rag/server/internal/agent/graph/observers"
	"github.com/agentic-rag/server/internal/agent/model"
	errx "github.com/agentic-rag/server/internal/core/error"
	logx "github.com/agentic-rag/server/pkg/logger"
)

// Service runs the agent graph for a query and persists the resulting turn.
//
// Persistence is asymmetric on purpose: only knowledge-base search turns are
// appended to the conversation record. Booking turns return the caller's
// conversation id untouched and write nothing to the conversation store.
type Service struct {
	runner        compose.Runnable[model.QueryInput, *schema.Message]
	conversations model.ConversationStore

	mu    sync.Mutex
	locks map[string]*conversationLock
}

type conversationLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(runner compose.Runnable[model.QueryInput, *schema.Message], conversations model.ConversationStore) *Service {
	return &Service{
		runner:        runner,
		conversations: conversations,
		locks:         make(map[string]*conversationLock),
	}
}

// Run executes one query end to end. An empty conversationID starts a fresh
// conversation; for search turns a new record is created and its id returned.
func (s *Service) Run(ctx context.Context, query, conversationID string) (*model.RunResult, error) {
	if query == "" {
		return nil, &errx.AppError{Status: http.StatusBadRequest, Message: "query must not be empty"}
	}

	if conversationID != "" {
		unlock := s.lockConversation(conversationID)
		defer unlock()
	}

	input := model.QueryInput{ConversationID: conversationID, Query: query}
	message, err := s.runner.Invoke(ctx, input, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		var appErr *errx.AppError
		if !errors.As(err, &appErr) {
			err = &errx.AppError{Err: err, Status: http.StatusInternalServerError, Message: errx.SystemErrorMessage}
		}
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Agent run failed")
		return nil, err
	}

	response := message.Content
	toolName, _ := message.Extra[nodes.ExtraToolName].(string)

	resultID := conversationID
	if toolName == model.ToolSearchKnowledgeBase {
		resultID, err = s.persistTurn(ctx, conversationID, query, response)
		if err != nil {
			return nil, err
		}
	}

	return &model.RunResult{Response: response, ConversationID: resultID}, nil
}

func (s *Service) persistTurn(ctx context.Context, conversationID, query, response string) (string, error) {
	turn := model.BuildTurn(query, response)

	if conversationID == "" {
		record := model.BuildConversationRecord([]model.Turn{turn}, "")
		id, err := s.conversations.Create(ctx, record)
		if err != nil {
			return "", persistenceError(err)
		}
		return id, nil
	}

	if err := s.conversations.AppendTurn(ctx, conversationID, turn); err != nil {
		return "", persistenceError(err)
	}
	return conversationID, nil
}

func persistenceError(err error) error {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		return &errx.AppError{Err: err, Status: appErr.Status, Message: errx.PersistenceErrorMessage}
	}
	return &errx.AppError{Err: err, Status: http.StatusBadGateway, Message: errx.PersistenceErrorMessage}
}

// lockConversation serializes runs that share a conversation id so concurrent
// requests cannot interleave history loads and turn appends.
func (s *Service) lockConversation(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &conversationLock{}
		s.locks[id] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
