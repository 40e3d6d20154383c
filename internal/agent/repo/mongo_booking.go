package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentic-rag/server/internal/agent/model"
	errx "github.com/agentic-rag/server/internal/core/error"
	logx "github.com/agentic-rag/server/pkg/logger"
)

// MongoBookingStore persists booking records, one document per booking.
type MongoBookingStore struct {
	col *mongo.Collection
}

func NewMongoBookingStore(db *mongo.Database, collection string) *MongoBookingStore {
	return &MongoBookingStore{col: db.Collection(collection)}
}

func (s *MongoBookingStore) Save(ctx context.Context, record *model.BookingRecord) (string, error) {
	if _, err := s.col.InsertOne(ctx, record); err != nil {
		logx.Error().Err(err).Str("booking_id", record.BookingID).Msg("Failed to save booking")
		return "", errx.WrapMongo(err)
	}
	logx.Info().Str("booking_id", record.BookingID).Msg("Booking saved")
	return record.BookingID, nil
}

var _ model.BookingStore = (*MongoBookingStore)(nil)
