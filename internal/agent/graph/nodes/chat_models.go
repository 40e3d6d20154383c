package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/agentic-rag/server/internal/agent/model"
	logx "github.com/agentic-rag/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation. The
// genai client is shared with the embedding path, so it is created once by
// the caller and passed in.
type ChatModelConfig struct {
	Client          *genai.Client
	DecisionConfig  *model.DecisionModelConfig
	SynthesisConfig *model.SynthesisModelConfig
}

// ChatModels holds the decision and synthesis chat models. The synthesis
// model doubles as the summarization capability for history compaction.
type ChatModels struct {
	Decision  einomodel.BaseChatModel
	Synthesis einomodel.BaseChatModel
}

// NewChatModels creates both chat models with the given configuration.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	decisionModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      config.Client,
		Model:       config.DecisionConfig.Model,
		Temperature: &config.DecisionConfig.Temperature,
		MaxTokens:   &config.DecisionConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating decision model")
		return nil, fmt.Errorf("error creating decision model: %w", err)
	}

	synthesisModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      config.Client,
		Model:       config.SynthesisConfig.Model,
		Temperature: &config.SynthesisConfig.Temperature,
		MaxTokens:   &config.SynthesisConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating synthesis model")
		return nil, fmt.Errorf("error creating synthesis model: %w", err)
	}

	return &ChatModels{
		Decision:  decisionModel,
		Synthesis: synthesisModel,
	}, nil
}
