package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/decision_prompt.txt
var decisionSystemPrompt string

// RenderDecisionSystem renders the classifier system prompt via the Eino
// prompt component. The template is static; routing through the component is
// what triggers Prompt callbacks. The messages placeholder keeps the JSON
// braces in the template out of the formatter's way.
func RenderDecisionSystem(ctx context.Context) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(decisionSystemPrompt)},
	})
	if err != nil {
		return "", fmt.Errorf("decision prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("decision prompt render: empty result")
	}
	return msgs[0].Content, nil
}
