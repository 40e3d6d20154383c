package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-rag/server/internal/agent/model"
	errx "github.com/agentic-rag/server/internal/core/error"
)

type fakeAgent struct {
	result         *model.RunResult
	err            error
	query          string
	conversationID string
}

func (f *fakeAgent) Run(ctx context.Context, query, conversationID string) (*model.RunResult, error) {
	f.query = query
	f.conversationID = conversationID
	return f.result, f.err
}

type fakeSessions struct {
	mapping map[string]string
	bound   map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{mapping: map[string]string{}, bound: map[string]string{}}
}

func (f *fakeSessions) Resolve(ctx context.Context, sessionID string) (string, error) {
	return f.mapping[sessionID], nil
}

func (f *fakeSessions) Bind(ctx context.Context, sessionID, conversationID string) error {
	f.bound[sessionID] = conversationID
	return nil
}

func postAgentRAG(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/agent_rag", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleAgentRAG(t *testing.T) {
	agent := &fakeAgent{result: &model.RunResult{Response: "an answer", ConversationID: "conv-1"}}
	handler := NewHandler(agent, nil).Routes()

	rec := postAgentRAG(t, handler, AgentRequest{Query: "what do you do"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AgentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "an answer", resp.Result)
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, "what do you do", agent.query)
}

func TestHandleAgentRAGForwardsConversationID(t *testing.T) {
	agent := &fakeAgent{result: &model.RunResult{Response: "ok", ConversationID: "conv-1"}}
	handler := NewHandler(agent, nil).Routes()

	rec := postAgentRAG(t, handler, AgentRequest{Query: "follow up", ConversationID: "conv-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conv-1", agent.conversationID)
}

func postAgentRAGWithSession(t *testing.T, handler http.Handler, body any, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/agent_rag", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", sessionID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleAgentRAGResolvesSession(t *testing.T) {
	agent := &fakeAgent{result: &model.RunResult{Response: "ok", ConversationID: "conv-1"}}
	sessions := newFakeSessions()
	sessions.mapping["sess-1"] = "conv-1"
	handler := NewHandler(agent, sessions).Routes()

	rec := postAgentRAGWithSession(t, handler, AgentRequest{Query: "follow up"}, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conv-1", agent.conversationID)
	assert.Equal(t, "conv-1", sessions.bound["sess-1"])
}

func TestHandleAgentRAGExplicitConversationIDWinsOverSession(t *testing.T) {
	agent := &fakeAgent{result: &model.RunResult{Response: "ok", ConversationID: "conv-explicit"}}
	sessions := newFakeSessions()
	sessions.mapping["sess-1"] = "conv-from-session"
	handler := NewHandler(agent, sessions).Routes()

	rec := postAgentRAGWithSession(t, handler, AgentRequest{Query: "q", ConversationID: "conv-explicit"}, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conv-explicit", agent.conversationID)
	assert.Equal(t, "conv-explicit", sessions.bound["sess-1"])
}

func TestHandleAgentRAGNoBindWithoutConversation(t *testing.T) {
	agent := &fakeAgent{result: &model.RunResult{Response: "Success!", ConversationID: ""}}
	sessions := newFakeSessions()
	handler := NewHandler(agent, sessions).Routes()

	rec := postAgentRAGWithSession(t, handler, AgentRequest{Query: "book me an interview"}, "sess-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sessions.bound)
}

func TestHandleAgentRAGEmptyQuery(t *testing.T) {
	handler := NewHandler(&fakeAgent{}, nil).Routes()

	rec := postAgentRAG(t, handler, AgentRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgentRAGInvalidBody(t *testing.T) {
	handler := NewHandler(&fakeAgent{}, nil).Routes()

	req := httptest.NewRequest(http.MethodPost, "/agent_rag", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgentRAGAppError(t *testing.T) {
	agent := &fakeAgent{err: errx.New(errors.New("mongo down"), http.StatusBadGateway, errx.MongoErrorMessage)}
	handler := NewHandler(agent, nil).Routes()

	rec := postAgentRAG(t, handler, AgentRequest{Query: "q"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errx.MongoErrorMessage, resp["error"])
	// internal error details stay out of the response
	assert.NotContains(t, rec.Body.String(), "mongo down")
}

func TestHandleAgentRAGUnknownError(t *testing.T) {
	agent := &fakeAgent{err: errors.New("boom")}
	handler := NewHandler(agent, nil).Routes()

	rec := postAgentRAG(t, handler, AgentRequest{Query: "q"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandleHealth(t *testing.T) {
	handler := NewHandler(&fakeAgent{}, nil).Routes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
