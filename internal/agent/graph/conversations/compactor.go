package conversations

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-rag/server/internal/agent/graph/prompts"
	"github.com/agentic-rag/server/internal/agent/model"
	logx "github.com/agentic-rag/server/pkg/logger"
)

const (
	DefaultMaxTurns         = 5
	DefaultSummaryThreshold = 20
)

// Compactor loads persisted conversation turns and returns a bounded context
// window: an optional single system summary of older turns followed by the
// most recent turns expanded into user/assistant messages in chronological
// order.
type Compactor struct {
	store            model.ConversationStore
	summarizer       einomodel.BaseChatModel
	maxTurns         int
	summaryThreshold int
}

func NewCompactor(store model.ConversationStore, summarizer einomodel.BaseChatModel, cfg model.ConversationConfig) *Compactor {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	threshold := cfg.SummaryThreshold
	if threshold <= 0 {
		threshold = DefaultSummaryThreshold
	}
	return &Compactor{
		store:            store,
		summarizer:       summarizer,
		maxTurns:         maxTurns,
		summaryThreshold: threshold,
	}
}

// LoadHistory returns the compacted context window for a conversation. An
// empty conversationID means a new conversation and yields no history.
func (c *Compactor) LoadHistory(ctx context.Context, conversationID string) ([]*schema.Message, error) {
	if conversationID == "" {
		return nil, nil
	}

	record, err := c.store.FindByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	if record == nil {
		return nil, nil
	}

	turns := record.Messages
	var messages []*schema.Message

	// The second condition keeps the summary slice in bounds when maxTurns
	// is configured larger than the threshold; the window alone covers the
	// whole history then.
	if len(turns) > c.summaryThreshold && len(turns) > c.maxTurns {
		summary, err := c.summarize(ctx, turns[:len(turns)-c.maxTurns])
		if err != nil {
			return nil, fmt.Errorf("summarize conversation %s: %w", conversationID, err)
		}
		messages = append(messages, schema.SystemMessage(summary))
		logx.Debug().
			Str("conversation_id", conversationID).
			Int("total_turns", len(turns)).
			Msg("Older turns compacted into summary")
	}

	for _, turn := range tailTurns(turns, c.maxTurns) {
		if turn.UserQuery != "" {
			messages = append(messages, schema.UserMessage(turn.UserQuery))
		}
		if turn.MessageResponse != "" {
			messages = append(messages, schema.AssistantMessage(turn.MessageResponse, nil))
		}
	}

	return messages, nil
}

func (c *Compactor) summarize(ctx context.Context, older []model.Turn) (string, error) {
	var transcript strings.Builder
	for i, turn := range older {
		if i > 0 {
			transcript.WriteString("\n")
		}
		transcript.WriteString("User: " + turn.UserQuery + "\nAssistant: " + turn.MessageResponse)
	}

	prompt, err := prompts.RenderSummaryPrompt(ctx, transcript.String())
	if err != nil {
		return "", err
	}

	out, err := c.summarizer.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Content), nil
}

// tailTurns returns a copy of the most recent maxTurns turns.
func tailTurns(turns []model.Turn, maxTurns int) []model.Turn {
	if len(turns) <= maxTurns {
		result := make([]model.Turn, len(turns))
		copy(result, turns)
		return result
	}
	source := turns[len(turns)-maxTurns:]
	result := make([]model.Turn, len(source))
	copy(result, source)
	return result
}
