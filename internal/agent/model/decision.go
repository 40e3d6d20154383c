package model

// Tool names form the fixed registry the executor dispatches over.
const (
	ToolSearchKnowledgeBase = "search_knowledge_base"
	ToolBookInterview       = "book_interview"
)

// SearchAction is the payload of a search_knowledge_base decision.
type SearchAction struct {
	Query string `json:"query"`
}

// BookingAction is the payload of a book_interview decision.
type BookingAction struct {
	ReceiverEmail   string `json:"receiver_email"`
	UserName        string `json:"user_name"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time,omitempty"`
}

// AgentDecision is the classifier's output: which tool to run and with what
// arguments. Exactly one of Search/Booking is set, and it must agree with
// ToolName; the decision parser enforces that invariant.
type AgentDecision struct {
	ToolName  string         `json:"tool_name"`
	Reasoning string         `json:"reasoning"`
	Search    *SearchAction  `json:"search,omitempty"`
	Booking   *BookingAction `json:"booking,omitempty"`
}

// ToolInput flattens the action into the generic argument mapping the
// executor consumes.
func (d *AgentDecision) ToolInput() map[string]any {
	in := map[string]any{}
	switch {
	case d.Search != nil:
		in["query"] = d.Search.Query
	case d.Booking != nil:
		in["receiver_email"] = d.Booking.ReceiverEmail
		in["user_name"] = d.Booking.UserName
		in["appointment_date"] = d.Booking.AppointmentDate
		in["appointment_time"] = d.Booking.AppointmentTime
	}
	return in
}

// FallbackDecision is the safe default used whenever structured decision
// making fails: route the raw user input to knowledge-base search. The
// pipeline relies on this never failing, so it is a pure function of the
// inputs.
func FallbackDecision(userInput, reason string) *AgentDecision {
	return &AgentDecision{
		ToolName:  ToolSearchKnowledgeBase,
		Reasoning: "fallback to search: " + reason,
		Search:    &SearchAction{Query: userInput},
	}
}
