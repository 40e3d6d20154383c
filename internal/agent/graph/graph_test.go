package graph

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-rag/server/internal/agent/graph/conversations"
	"github.com/agentic-rag/server/internal/agent/graph/nodes"
	"github.com/agentic-rag/server/internal/agent/graph/tools"
	"github.com/agentic-rag/server/internal/agent/model"
)

type fakeChatModel struct {
	response string
	err      error
	calls    int
	received []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.received = in
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.response, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

type fakeRetriever struct {
	docs  []*schema.Document
	err   error
	query string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	f.query = query
	return f.docs, f.err
}

type fakeSender struct {
	err error
	to  string
}

func (f *fakeSender) Send(ctx context.Context, from, to, subject, body string) error {
	f.to = to
	return f.err
}

type fakeConversationStore struct {
	record *model.ConversationRecord
}

func (f *fakeConversationStore) FindByID(ctx context.Context, conversationID string) (*model.ConversationRecord, error) {
	return f.record, nil
}

func (f *fakeConversationStore) Create(ctx context.Context, record *model.ConversationRecord) (string, error) {
	return record.ConversationID, nil
}

func (f *fakeConversationStore) AppendTurn(ctx context.Context, conversationID string, turn model.Turn) error {
	return nil
}

type fakeBookingStore struct {
	err   error
	saved []*model.BookingRecord
}

func (f *fakeBookingStore) Save(ctx context.Context, record *model.BookingRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, record)
	return record.BookingID, nil
}

type pipelineFixture struct {
	decision  *fakeChatModel
	synthesis *fakeChatModel
	retriever *fakeRetriever
	sender    *fakeSender
	store     *fakeConversationStore
	bookings  *fakeBookingStore
}

func buildRunner(t *testing.T, f *pipelineFixture) func(ctx context.Context, in model.QueryInput) (*schema.Message, error) {
	t.Helper()

	runner, err := BuildAgentGraph(context.Background(), &GraphConfig{
		ChatModels: &nodes.ChatModels{Decision: f.decision, Synthesis: f.synthesis},
		Compactor: conversations.NewCompactor(f.store, f.synthesis, model.ConversationConfig{
			MaxTurns:         5,
			SummaryThreshold: 20,
		}),
		Tools: tools.NewRegistry(
			tools.NewSearchTool(f.retriever, 5),
			tools.NewBookingTool(f.sender, model.BookingConfig{
				Subject:     "Interview Confirmation",
				FromAddress: "noreply@example.com",
			}),
		),
		Bookings: f.bookings,
	})
	require.NoError(t, err)

	return func(ctx context.Context, in model.QueryInput) (*schema.Message, error) {
		return runner.Invoke(ctx, in)
	}
}

const searchDecisionJSON = `{"tool_name": "search_knowledge_base", "reasoning": "r", "search": {"query": "company history"}}`

const bookingDecisionJSON = `{"tool_name": "book_interview", "reasoning": "r", "booking": {"receiver_email": "jane@example.com", "user_name": "Jane", "appointment_date": "2026-09-15", "appointment_time": "14:00"}}`

func newFixture() *pipelineFixture {
	return &pipelineFixture{
		decision:  &fakeChatModel{response: searchDecisionJSON},
		synthesis: &fakeChatModel{response: "synthesized answer"},
		retriever: &fakeRetriever{},
		sender:    &fakeSender{},
		store:     &fakeConversationStore{},
		bookings:  &fakeBookingStore{},
	}
}

func TestPipelineSearchFlow(t *testing.T) {
	f := newFixture()
	f.retriever.docs = []*schema.Document{
		{ID: "1", Content: "passage one"},
		{ID: "2", Content: "passage two"},
	}
	run := buildRunner(t, f)

	out, err := run(context.Background(), model.QueryInput{Query: "tell me about the company"})
	require.NoError(t, err)

	assert.Equal(t, "synthesized answer", out.Content)
	assert.Equal(t, model.ToolSearchKnowledgeBase, out.Extra[nodes.ExtraToolName])
	assert.Equal(t, "company history", f.retriever.query)
	assert.Equal(t, 1, f.synthesis.calls)

	prompt := f.synthesis.received[len(f.synthesis.received)-1].Content
	assert.Contains(t, prompt, "passage one")
	assert.Contains(t, prompt, "passage two")
	assert.Contains(t, prompt, "tell me about the company")
}

func TestPipelineSearchNoResults(t *testing.T) {
	f := newFixture()
	f.retriever.docs = nil
	run := buildRunner(t, f)

	out, err := run(context.Background(), model.QueryInput{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, nodes.NoResultsMessage, out.Content)
	assert.Zero(t, f.synthesis.calls)
}

func TestPipelineSearchBackendFailureSurfacesAsText(t *testing.T) {
	f := newFixture()
	f.retriever.err = errors.New("qdrant unavailable")
	run := buildRunner(t, f)

	out, err := run(context.Background(), model.QueryInput{Query: "anything"})
	require.NoError(t, err)

	assert.Contains(t, out.Content, "Error executing tool")
	assert.Contains(t, out.Content, "qdrant unavailable")
	assert.Zero(t, f.synthesis.calls)
}

func TestPipelineBookingFlow(t *testing.T) {
	f := newFixture()
	f.decision.response = bookingDecisionJSON
	run := buildRunner(t, f)

	out, err := run(context.Background(), model.QueryInput{Query: "book me an interview"})
	require.NoError(t, err)

	assert.Equal(t, "Success! Confirmation email sent to jane@example.com We look forward to your interview.", out.Content)
	assert.Equal(t, model.ToolBookInterview, out.Extra[nodes.ExtraToolName])
	assert.Equal(t, "jane@example.com", f.sender.to)
	require.Len(t, f.bookings.saved, 1)
	assert.Equal(t, "Jane", f.bookings.saved[0].Username)
	assert.Zero(t, f.synthesis.calls)
}

func TestPipelineBookingMailFailure(t *testing.T) {
	f := newFixture()
	f.decision.response = bookingDecisionJSON
	f.sender.err = errors.New("dial tcp: timeout")
	run := buildRunner(t, f)

	out, err := run(context.Background(), model.QueryInput{Query: "book me an interview"})
	require.NoError(t, err)

	assert.Contains(t, out.Content, "Sorry, we couldn't send the confirmation email.")
	assert.Contains(t, out.Content, "dial tcp: timeout")
	// the booking record survives a delivery failure
	require.Len(t, f.bookings.saved, 1)
}

func TestPipelineClassifierFallback(t *testing.T) {
	f := newFixture()
	f.decision.err = errors.New("model unavailable")
	f.retriever.docs = []*schema.Document{{ID: "1", Content: "passage"}}
	run := buildRunner(t, f)

	out, err := run(context.Background(), model.QueryInput{Query: "raw user words"})
	require.NoError(t, err)

	// fallback searches with the raw user input
	assert.Equal(t, "raw user words", f.retriever.query)
	assert.Equal(t, model.ToolSearchKnowledgeBase, out.Extra[nodes.ExtraToolName])
}

func TestPipelineLoadsHistoryIntoDecisionContext(t *testing.T) {
	f := newFixture()
	f.store.record = &model.ConversationRecord{
		ConversationID: "conv-1",
		Messages: []model.Turn{
			{MessageID: "m1", UserQuery: "what is the pricing", MessageResponse: "starts at ten dollars"},
		},
	}
	f.retriever.docs = []*schema.Document{{ID: "1", Content: "passage"}}
	run := buildRunner(t, f)

	_, err := run(context.Background(), model.QueryInput{ConversationID: "conv-1", Query: "cheapest plan?"})
	require.NoError(t, err)

	require.NotEmpty(t, f.decision.received)
	decisionContext := f.decision.received[len(f.decision.received)-1].Content
	assert.Contains(t, decisionContext, "what is the pricing")
	assert.Contains(t, decisionContext, "starts at ten dollars")
	assert.Contains(t, decisionContext, "cheapest plan?")
}
