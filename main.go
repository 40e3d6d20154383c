package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/agentic-rag/server/internal/agent"
	"github.com/agentic-rag/server/internal/agent/graph"
	"github.com/agentic-rag/server/internal/agent/graph/conversations"
	"github.com/agentic-rag/server/internal/agent/graph/nodes"
	"github.com/agentic-rag/server/internal/agent/graph/tools"
	"github.com/agentic-rag/server/internal/agent/model"
	"github.com/agentic-rag/server/internal/agent/repo"
	"github.com/agentic-rag/server/internal/api"
	"github.com/agentic-rag/server/internal/core"
	"github.com/agentic-rag/server/internal/retrieval"
	logx "github.com/agentic-rag/server/pkg/logger"
	pkgmail "github.com/agentic-rag/server/pkg/mail"
	pkgmongo "github.com/agentic-rag/server/pkg/mongo"
	pkgredis "github.com/agentic-rag/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8000"`

	// Infrastructure
	Redis  pkgredis.Config
	Mongo  pkgmongo.Config
	Mail   pkgmail.Config
	Qdrant retrieval.Config

	// LLM provider
	APIKey         string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL        string `envconfig:"GEMINI_BASE_URL"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`

	// Agent configs
	Decision     model.DecisionModelConfig
	Synthesis    model.SynthesisModelConfig
	Search       model.SearchConfig
	Booking      model.BookingConfig
	Conversation model.ConversationConfig

	// Collections
	ConversationCollection string `envconfig:"MONGODB_RAG_CONVERSATIONS" default:"rag_conversations"`
	BookingCollection      string `envconfig:"MONGODB_BOOKING_COLLECTION" default:"booking_interview"`
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	db, err := cfg.Mongo.New(ctx)
	if err != nil {
		log.Fatalf("Failed to initialise MongoDB client: %v", err)
	}
	defer db.Client().Disconnect(context.Background())

	qdrantClient, err := retrieval.New(cfg.Qdrant)
	if err != nil {
		log.Fatalf("Failed to initialise Qdrant client: %v", err)
	}
	defer qdrantClient.Close()

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		log.Fatalf("Failed to initialise genai client: %v", err)
	}

	sender, err := cfg.Mail.New()
	if err != nil {
		log.Fatalf("Failed to initialise SMTP client: %v", err)
	}

	chatModels, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		Client:          genaiClient,
		DecisionConfig:  &cfg.Decision,
		SynthesisConfig: &cfg.Synthesis,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	embedder := retrieval.NewGenAIEmbedder(genaiClient, cfg.EmbeddingModel)
	searchRetriever := retrieval.NewQdrantRetriever(qdrantClient, embedder, cfg.Search.Collection, cfg.Search.TopK)

	conversationStore := repo.NewMongoConversationStore(db, cfg.ConversationCollection)
	bookingStore := repo.NewMongoBookingStore(db, cfg.BookingCollection)

	runner, err := graph.BuildAgentGraph(ctx, &graph.GraphConfig{
		ChatModels: chatModels,
		Compactor:  conversations.NewCompactor(conversationStore, chatModels.Synthesis, cfg.Conversation),
		Tools: tools.NewRegistry(
			tools.NewSearchTool(searchRetriever, cfg.Search.TopK),
			tools.NewBookingTool(sender, cfg.Booking),
		),
		Bookings: bookingStore,
	})
	if err != nil {
		log.Fatalf("Failed to build agent graph: %v", err)
	}

	sessionTTL, err := time.ParseDuration(cfg.Conversation.SessionTTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_SESSION_TTL %q: %v", cfg.Conversation.SessionTTL, err)
	}

	service := agent.NewService(runner, conversationStore)
	handler := api.NewHandler(service, api.NewSessionStore(rdb, sessionTTL))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.ListenAddr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
