package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-run state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Do not access AppState directly from outside handlers. For persistence,
//     use the conversation/booking stores.
type AppState struct {
	ConversationID string
	UserInput      string            // immutable once set by the loader pre-handler
	History        []*schema.Message // compacted context window, read-only after loading
	Decision       *AgentDecision    // set once by the classifier post-handler
	FallbackReason string            // non-empty when the classifier fell back to search
}

// QueryInput is the public input of a single agent run.
type QueryInput struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Query          string `json:"query"`
}

// ToolResult carries a tool's raw output between graph nodes. Exactly one of
// Text or Documents is populated: search yields Documents until the
// synthesizer narrows them to Text, every other path is Text from the start.
type ToolResult struct {
	ToolName  string
	Text      string
	Documents []*schema.Document
}

// RunResult is what the orchestrator returns to the transport layer.
type RunResult struct {
	Response       string `json:"result"`
	ConversationID string `json:"conversation_id"`
}
