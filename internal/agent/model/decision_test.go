package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackDecision(t *testing.T) {
	d := FallbackDecision("what does the company do", "model timeout")

	assert.Equal(t, ToolSearchKnowledgeBase, d.ToolName)
	require.NotNil(t, d.Search)
	assert.Equal(t, "what does the company do", d.Search.Query)
	assert.Nil(t, d.Booking)
	assert.Contains(t, d.Reasoning, "model timeout")
}

func TestToolInput(t *testing.T) {
	search := &AgentDecision{
		ToolName: ToolSearchKnowledgeBase,
		Search:   &SearchAction{Query: "q"},
	}
	assert.Equal(t, map[string]any{"query": "q"}, search.ToolInput())

	booking := &AgentDecision{
		ToolName: ToolBookInterview,
		Booking: &BookingAction{
			ReceiverEmail:   "a@b.c",
			UserName:        "A",
			AppointmentDate: "2026-09-15",
		},
	}
	input := booking.ToolInput()
	assert.Equal(t, "a@b.c", input["receiver_email"])
	assert.Equal(t, "2026-09-15", input["appointment_date"])
}
