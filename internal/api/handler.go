package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agentic-rag/server/internal/agent/model"
	errx "github.com/agentic-rag/server/internal/core/error"
	logx "github.com/agentic-rag/server/pkg/logger"
)

const sessionHeader = "X-Session-ID"

// AgentRunner is implemented by the agent service.
type AgentRunner interface {
	Run(ctx context.Context, query, conversationID string) (*model.RunResult, error)
}

// SessionResolver maps client session ids to conversation ids.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (string, error)
	Bind(ctx context.Context, sessionID, conversationID string) error
}

type AgentRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type AgentResponse struct {
	Result         string `json:"result"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler exposes the agent over HTTP.
type Handler struct {
	agent    AgentRunner
	sessions SessionResolver
}

func NewHandler(agent AgentRunner, sessions SessionResolver) *Handler {
	return &Handler{agent: agent, sessions: sessions}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/agent_rag", h.handleAgentRAG)
	r.Get("/healthz", h.handleHealth)
	return r
}

func (h *Handler) handleAgentRAG(w http.ResponseWriter, r *http.Request) {
	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query must not be empty"})
		return
	}

	ctx := r.Context()
	sessionID := r.Header.Get(sessionHeader)

	conversationID := req.ConversationID
	if conversationID == "" && sessionID != "" && h.sessions != nil {
		resolved, err := h.sessions.Resolve(ctx, sessionID)
		if err != nil {
			// A dead session cache should not block the query; start fresh.
			logx.Warn().Err(err).Msg("Session lookup failed")
		} else {
			conversationID = resolved
		}
	}

	result, err := h.agent.Run(ctx, req.Query, conversationID)
	if err != nil {
		writeError(w, err)
		return
	}

	if sessionID != "" && result.ConversationID != "" && h.sessions != nil {
		if err := h.sessions.Bind(ctx, sessionID, result.ConversationID); err != nil {
			logx.Warn().Err(err).Msg("Session bind failed")
		}
	}

	writeJSON(w, http.StatusOK, AgentResponse{
		Result:         result.Response,
		ConversationID: result.ConversationID,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	message := errx.SystemErrorMessage
	var appErr *errx.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	writeJSON(w, errx.Status(err), errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Error().Err(err).Msg("Failed to encode response")
	}
}
