package model

// ================ Config ================
type ConversationConfig struct {
	MaxTurns         int    `envconfig:"CONVERSATION_MAX_TURNS" default:"5"`
	SummaryThreshold int    `envconfig:"CONVERSATION_SUMMARY_THRESHOLD" default:"20"`
	SessionTTL       string `envconfig:"CONVERSATION_SESSION_TTL" default:"30m"`
}

type DecisionModelConfig struct {
	Model       string  `envconfig:"DECISION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"DECISION_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"DECISION_TEMPERATURE" default:"0"`
}

type SynthesisModelConfig struct {
	Model       string  `envconfig:"SYNTHESIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SYNTHESIS_MAX_TOKENS" default:"2048"`
	Temperature float32 `envconfig:"SYNTHESIS_TEMPERATURE" default:"0"`
}

type SearchConfig struct {
	Collection string `envconfig:"SEARCH_COLLECTION" default:"uploaded_documents"`
	TopK       int    `envconfig:"SEARCH_TOP_K" default:"5"`
}

type BookingConfig struct {
	Subject     string `envconfig:"BOOKING_EMAIL_SUBJECT" default:"Interview Confirmation"`
	FromAddress string `envconfig:"BOOKING_EMAIL_FROM" required:"true"`
}
