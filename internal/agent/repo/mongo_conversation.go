package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentic-rag/server/internal/agent/model"
	errx "github.com/agentic-rag/server/internal/core/error"
	logx "github.com/agentic-rag/server/pkg/logger"
)

// MongoConversationStore persists conversation records in a MongoDB
// collection, one document per conversation with an embedded messages array.
type MongoConversationStore struct {
	col *mongo.Collection
}

func NewMongoConversationStore(db *mongo.Database, collection string) *MongoConversationStore {
	return &MongoConversationStore{col: db.Collection(collection)}
}

// conversationDoc is the raw persisted shape. Messages stays untyped so
// legacy nested entries survive decoding; flattenTurns normalizes them.
type conversationDoc struct {
	ConversationID string    `bson:"conversation_id"`
	Messages       bson.A    `bson:"messages"`
	CreatedAt      time.Time `bson:"created_at"`
}

func (s *MongoConversationStore) FindByID(ctx context.Context, conversationID string) (*model.ConversationRecord, error) {
	var doc conversationDoc
	err := s.col.FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to load conversation")
		return nil, errx.WrapMongo(err)
	}

	return &model.ConversationRecord{
		ConversationID: doc.ConversationID,
		Messages:       flattenTurns(doc.Messages),
		CreatedAt:      doc.CreatedAt,
	}, nil
}

func (s *MongoConversationStore) Create(ctx context.Context, record *model.ConversationRecord) (string, error) {
	if _, err := s.col.InsertOne(ctx, record); err != nil {
		logx.Error().Err(err).Str("conversation_id", record.ConversationID).Msg("Failed to create conversation")
		return "", errx.WrapMongo(err)
	}
	logx.Info().Str("conversation_id", record.ConversationID).Msg("New conversation created")
	return record.ConversationID, nil
}

func (s *MongoConversationStore) AppendTurn(ctx context.Context, conversationID string, turn model.Turn) error {
	result, err := s.col.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{"$push": bson.M{"messages": turn}},
	)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to append turn")
		return errx.WrapMongo(err)
	}
	if result.MatchedCount == 0 {
		return errx.WrapMongo(fmt.Errorf("conversation %s: %w", conversationID, mongo.ErrNoDocuments))
	}
	logx.Debug().Str("conversation_id", conversationID).Str("message_id", turn.MessageID).Msg("Turn appended")
	return nil
}

// parseLegacyTime handles RFC3339 strings from records written before
// timestamps were stored as BSON dates.
func parseLegacyTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

var _ model.ConversationStore = (*MongoConversationStore)(nil)
