package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-rag/server/internal/agent/graph/conversations"
	"github.com/agentic-rag/server/internal/agent/graph/nodes"
	"github.com/agentic-rag/server/internal/agent/graph/tools"
	"github.com/agentic-rag/server/internal/agent/model"
	logx "github.com/agentic-rag/server/pkg/logger"
)

// GraphConfig holds all configuration needed to build the agent graph.
type GraphConfig struct {
	ChatModels *nodes.ChatModels
	Compactor  *conversations.Compactor
	Tools      *tools.Registry
	Bookings   model.BookingStore
}

// GraphBuilder handles the construction of the agent pipeline graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

// BuildAgentGraph constructs and compiles the agent pipeline:
// history loading, classification, tool execution, synthesis for search
// runs, and postprocessing. Classification and tool execution never fail
// the graph; history loading and synthesis can.
func BuildAgentGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Decision == nil || config.ChatModels.Synthesis == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Compactor == nil {
		return nil, fmt.Errorf("history compactor is nil")
	}
	if config.Tools == nil || config.Tools.Search == nil || config.Tools.Booking == nil {
		return nil, fmt.Errorf("tool registry is not properly initialized")
	}
	if config.Bookings == nil {
		return nil, fmt.Errorf("booking store is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph.
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeHistoryLoader,
		nodes.NewHistoryLoaderNode(b.config.Compactor),
		compose.WithStatePreHandler(nodes.NewHistoryLoaderPreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeClassifier,
		nodes.NewClassifierNode(b.config.ChatModels.Decision, b.config.Bookings),
	)

	b.graph.AddLambdaNode(nodes.NodeToolExecutor,
		nodes.NewToolExecutorNode(b.config.Tools),
	)

	b.graph.AddLambdaNode(nodes.NodeSynthesizer,
		nodes.NewSynthesizerNode(b.config.ChatModels.Synthesis),
	)

	b.graph.AddLambdaNode(nodes.NodePostprocessor,
		nodes.NewPostprocessorNode(),
	)
}

// addEdges creates the main flow connections between nodes.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeHistoryLoader},
		{nodes.NodeHistoryLoader, nodes.NodeClassifier},
		{nodes.NodeClassifier, nodes.NodeToolExecutor},
		{nodes.NodeSynthesizer, nodes.NodePostprocessor},
		{nodes.NodePostprocessor, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches routes search results through the synthesizer; every other
// tool result goes straight to postprocessing.
func (b *GraphBuilder) addBranches() error {
	synthesisBranch := compose.NewGraphBranch(
		nodes.NewSynthesisCondition(),
		map[string]bool{
			nodes.NodeSynthesizer:   true,
			nodes.NodePostprocessor: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeToolExecutor, synthesisBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding synthesis branch")
		return fmt.Errorf("error adding synthesis branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// The pipeline is a single pass with one branch; a small cap guards
	// against wiring mistakes.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Agent graph compiled successfully")
	return runnable, nil
}
