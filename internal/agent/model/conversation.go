package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Turn is one user query and its final response, persisted under a
// conversation.
type Turn struct {
	MessageID       string    `bson:"message_id" json:"message_id"`
	UserQuery       string    `bson:"user_query" json:"user_query"`
	MessageResponse string    `bson:"message_response" json:"message_response"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// ConversationRecord is the persisted conversation document. Messages are in
// chronological append order. Records are created on the first turn of a
// session and appended to afterwards; this layer never deletes them.
type ConversationRecord struct {
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	Messages       []Turn    `bson:"messages" json:"messages"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// BookingRecord is persisted once per booking classification, independently
// of whether the confirmation email later succeeds.
type BookingRecord struct {
	BookingID   string    `bson:"booking_id" json:"booking_id"`
	Username    string    `bson:"username" json:"username"`
	Email       string    `bson:"email" json:"email"`
	BookingDate string    `bson:"booking_date" json:"booking_date"`
	BookingTime string    `bson:"booking_time,omitempty" json:"booking_time,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// ConversationStore persists conversation records.
type ConversationStore interface {
	// FindByID returns the conversation, or nil when no record exists.
	FindByID(ctx context.Context, conversationID string) (*ConversationRecord, error)

	// Create inserts a new conversation record and returns its id.
	Create(ctx context.Context, record *ConversationRecord) (string, error)

	// AppendTurn appends a turn to an existing conversation.
	AppendTurn(ctx context.Context, conversationID string, turn Turn) error
}

// BookingStore persists booking records.
type BookingStore interface {
	Save(ctx context.Context, record *BookingRecord) (string, error)
}

// BuildTurn assembles a persistable turn with a fresh message id.
func BuildTurn(userQuery, messageResponse string) Turn {
	return Turn{
		MessageID:       uuid.NewString(),
		UserQuery:       userQuery,
		MessageResponse: messageResponse,
		CreatedAt:       time.Now().UTC(),
	}
}

// BuildConversationRecord assembles a conversation record. An empty
// conversationID allocates a new one.
func BuildConversationRecord(turns []Turn, conversationID string) *ConversationRecord {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	return &ConversationRecord{
		ConversationID: conversationID,
		Messages:       turns,
		CreatedAt:      time.Now().UTC(),
	}
}

// BuildBookingRecord assembles a booking record. bookingTime may be empty
// when the user did not specify one.
func BuildBookingRecord(username, email, bookingDate, bookingTime string) *BookingRecord {
	return &BookingRecord{
		BookingID:   uuid.NewString(),
		Username:    username,
		Email:       email,
		BookingDate: bookingDate,
		BookingTime: bookingTime,
		CreatedAt:   time.Now().UTC(),
	}
}
