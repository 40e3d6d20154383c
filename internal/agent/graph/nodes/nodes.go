package nodes

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-rag/server/internal/agent/graph/conversations"
	"github.com/agentic-rag/server/internal/agent/graph/parsers"
	"github.com/agentic-rag/server/internal/agent/graph/prompts"
	"github.com/agentic-rag/server/internal/agent/graph/tools"
	"github.com/agentic-rag/server/internal/agent/model"
	errx "github.com/agentic-rag/server/internal/core/error"
	logx "github.com/agentic-rag/server/pkg/logger"
)

// Graph node names.
const (
	NodeHistoryLoader = "history_loader"
	NodeClassifier    = "classifier"
	NodeToolExecutor  = "tool_executor"
	NodeSynthesizer   = "synthesizer"
	NodePostprocessor = "postprocessor"
)

// NoResultsMessage is returned for an empty retrieval without any model call.
const NoResultsMessage = "No relevant information found in the knowledge base."

// ExtraToolName keys the selected tool in the final message's Extra map, so
// the orchestrator can decide persistence without reaching into graph state.
const ExtraToolName = "tool_name"

// NewHistoryLoaderPreHandler seeds per-run state from the incoming query.
func NewHistoryLoaderPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.ConversationID = in.ConversationID
		s.UserInput = in.Query
		s.History = nil
		s.Decision = nil
		s.FallbackReason = ""
		return in, nil
	}
}

// NewHistoryLoaderNode creates the node that loads the compacted
// conversation history into state before classification.
func NewHistoryLoaderNode(compactor *conversations.Compactor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.QueryInput, error) {
		history, err := compactor.LoadHistory(ctx, in.ConversationID)
		if err != nil {
			return model.QueryInput{}, errx.New(err, http.StatusBadGateway, errx.MongoErrorMessage)
		}

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.History = history
			return nil
		}); err != nil {
			return model.QueryInput{}, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("conversation_id", in.ConversationID).
			Int("history_messages", len(history)).
			Msg("Conversation history loaded")
		return in, nil
	})
}

// NewClassifierNode creates the decision node. It prompts the decision model
// with the transcript and the latest query, parses the structured result,
// and persists a BookingRecord for booking decisions before returning. Every
// failure on that path, model, parse, validation, or booking persistence,
// degrades to the deterministic search fallback; the node itself never
// fails.
func NewClassifierNode(decisionModel einomodel.BaseChatModel, bookings model.BookingStore) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (*model.AgentDecision, error) {
		var history []*schema.Message
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			history = s.History
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		decision, reason := classify(ctx, decisionModel, bookings, in.Query, history)
		if reason != "" {
			logx.Warn().Str("reason", reason).Msg("Falling back to knowledge-base search")
		} else {
			logx.Debug().
				Str("tool", decision.ToolName).
				Str("reasoning", decision.Reasoning).
				Msg("Tool selected")
		}

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.Decision = decision
			s.FallbackReason = reason
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return decision, nil
	})
}

// classify runs the guarded classification path and returns the decision
// plus a non-empty fallback reason when the safe default was used.
func classify(ctx context.Context, decisionModel einomodel.BaseChatModel, bookings model.BookingStore, query string, history []*schema.Message) (*model.AgentDecision, string) {
	systemPrompt, err := prompts.RenderDecisionSystem(ctx)
	if err != nil {
		return model.FallbackDecision(query, err.Error()), err.Error()
	}

	out, err := decisionModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildDecisionContext(query, history)),
	})
	if err != nil {
		return model.FallbackDecision(query, err.Error()), err.Error()
	}

	decision, err := parsers.ParseDecision(out.Content)
	if err != nil {
		return model.FallbackDecision(query, err.Error()), err.Error()
	}

	// Booking intent is recorded here, before any email is attempted, so a
	// later delivery failure never loses the booking. A persistence failure
	// lands in the same guarded path as every other classification failure.
	if decision.ToolName == model.ToolBookInterview {
		record := model.BuildBookingRecord(
			decision.Booking.UserName,
			decision.Booking.ReceiverEmail,
			decision.Booking.AppointmentDate,
			decision.Booking.AppointmentTime,
		)
		if _, err := bookings.Save(ctx, record); err != nil {
			reason := fmt.Sprintf("save booking record: %v", err)
			return model.FallbackDecision(query, reason), reason
		}
		logx.Info().
			Str("booking_id", record.BookingID).
			Str("email", record.Email).
			Msg("Booking record saved")
	}

	return decision, ""
}

// buildDecisionContext renders the role-prefixed transcript followed by the
// query under analysis. An empty history yields an empty transcript.
func buildDecisionContext(query string, history []*schema.Message) string {
	var b strings.Builder
	b.WriteString("Here is the chat history so far (if any):\n\n")
	b.WriteString(renderTranscript(history))
	b.WriteString("\n\nNow analyze the latest query:\nUser Query: ")
	b.WriteString(query)
	return b.String()
}

func renderTranscript(history []*schema.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		if msg == nil || msg.Content == "" {
			continue
		}
		lines = append(lines, capitalizeRole(string(msg.Role))+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

func capitalizeRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

// NewToolExecutorNode creates the dispatch node over the fixed tool
// registry. Tool failures of every flavor, unknown tool, malformed
// arguments, backend errors, become marked strings in the result; the node
// never returns a non-nil error.
func NewToolExecutorNode(registry *tools.Registry) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, decision *model.AgentDecision) (model.ToolResult, error) {
		result := model.ToolResult{ToolName: decision.ToolName}
		logx.Debug().
			Str("tool", decision.ToolName).
			Interface("input", decision.ToolInput()).
			Msg("Running tool")

		switch decision.ToolName {
		case model.ToolSearchKnowledgeBase:
			if decision.Search == nil {
				result.Text = "Error executing tool: missing search arguments"
				return result, nil
			}
			docs, err := registry.Search.Search(ctx, decision.Search.Query)
			if err != nil {
				logx.Error().Err(err).Msg("Knowledge-base search failed")
				result.Text = fmt.Sprintf("Error executing tool: %v", err)
				return result, nil
			}
			result.Documents = docs

		case model.ToolBookInterview:
			if decision.Booking == nil {
				result.Text = "Error executing tool: missing booking arguments"
				return result, nil
			}
			result.Text = registry.Booking.Book(ctx, *decision.Booking)

		default:
			result.Text = fmt.Sprintf("Unknown tool: %s", decision.ToolName)
		}

		return result, nil
	})
}

// NewSynthesisCondition routes search results through the synthesizer and
// everything else straight to postprocessing.
func NewSynthesisCondition() func(context.Context, model.ToolResult) (string, error) {
	return func(ctx context.Context, result model.ToolResult) (string, error) {
		if result.ToolName == model.ToolSearchKnowledgeBase {
			return NodeSynthesizer, nil
		}
		return NodePostprocessor, nil
	}
}

// NewSynthesizerNode creates the node that condenses retrieved passages into
// a direct answer. Empty retrieval yields the fixed no-results message with
// no model call. A completion failure here has no safe textual default and
// propagates as a hard error.
func NewSynthesizerNode(synthModel einomodel.BaseChatModel) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, result model.ToolResult) (model.ToolResult, error) {
		// Executor-level failures arrive as marked text; pass them through
		// so the user sees the plain-text failure.
		if result.Text != "" {
			return result, nil
		}
		if len(result.Documents) == 0 {
			result.Text = NoResultsMessage
			return result, nil
		}

		var userInput string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			userInput = s.UserInput
			return nil
		}); err != nil {
			return model.ToolResult{}, fmt.Errorf("failed to access state: %w", err)
		}

		contents := make([]string, 0, len(result.Documents))
		for _, doc := range result.Documents {
			if doc == nil {
				continue
			}
			contents = append(contents, doc.Content)
		}

		prompt, err := prompts.RenderSynthesisPrompt(ctx, userInput, strings.Join(contents, "\n\n"))
		if err != nil {
			return model.ToolResult{}, errx.New(err, http.StatusInternalServerError, errx.SynthesisErrorMessage)
		}

		out, err := synthModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
		if err != nil {
			logx.Error().Err(err).Msg("Answer synthesis failed")
			return model.ToolResult{}, errx.New(err, http.StatusBadGateway, errx.SynthesisErrorMessage)
		}

		result.Text = strings.TrimSpace(out.Content)
		result.Documents = nil
		return result, nil
	})
}

// Postprocess applies tool-specific message shaping. Pure and synchronous:
// calling it twice over its own output for a non-matching marker state is
// safe, and unrecognized tools pass through untouched so the mapping can
// grow.
func Postprocess(toolName, raw string) string {
	if toolName == model.ToolBookInterview {
		if strings.Contains(raw, "Failed") || strings.Contains(raw, "Error") {
			return fmt.Sprintf("Sorry, we couldn't send the confirmation email. Details: %s", raw)
		}
		return fmt.Sprintf("Success! %s We look forward to your interview.", raw)
	}
	return raw
}

// NewPostprocessorNode wraps Postprocess as the terminal graph node. The
// selected tool travels out-of-band in the message Extra.
func NewPostprocessorNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, result model.ToolResult) (*schema.Message, error) {
		msg := schema.AssistantMessage(Postprocess(result.ToolName, result.Text), nil)
		msg.Extra = map[string]any{ExtraToolName: result.ToolName}
		return msg, nil
	})
}
