package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/synthesis_prompt.txt
var synthesisPrompt string

//go:embed template/summary_prompt.txt
var summaryPrompt string

// RenderSynthesisPrompt renders the grounding prompt for answer synthesis.
// documents is the double-newline-joined contents of the retrieved passages,
// in received order.
func RenderSynthesisPrompt(ctx context.Context, query, documents string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(synthesisPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Query":     query,
		"Documents": documents,
	})
	if err != nil {
		return "", fmt.Errorf("synthesis prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("synthesis prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderSummaryPrompt renders the history summarization prompt over a
// "User: ...\nAssistant: ..." transcript of the turns being compacted.
func RenderSummaryPrompt(ctx context.Context, transcript string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(summaryPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Transcript": transcript,
	})
	if err != nil {
		return "", fmt.Errorf("summary prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("summary prompt render: empty result")
	}
	return msgs[0].Content, nil
}
