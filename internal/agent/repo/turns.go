package repo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agentic-rag/server/internal/agent/model"
	logx "github.com/agentic-rag/server/pkg/logger"
)

// flattenTurns decodes a stored messages array into turns. Historical data
// contains entries that are themselves arrays of turn documents (an append
// that pushed a whole batch instead of a single turn); those are flattened
// one level. Entries that are neither a turn document nor an array of them
// are dropped silently.
// TODO: migrate legacy nested entries in place and drop the flattening here.
func flattenTurns(entries bson.A) []model.Turn {
	turns := make([]model.Turn, 0, len(entries))
	dropped := 0
	for _, entry := range entries {
		switch v := entry.(type) {
		case bson.D:
			if turn, ok := turnFromDoc(v); ok {
				turns = append(turns, turn)
			} else {
				dropped++
			}
		case bson.A:
			for _, inner := range v {
				if d, ok := inner.(bson.D); ok {
					if turn, ok := turnFromDoc(d); ok {
						turns = append(turns, turn)
						continue
					}
				}
				dropped++
			}
		default:
			dropped++
		}
	}
	if dropped > 0 {
		logx.Warn().Int("dropped", dropped).Msg("Dropped non-turn entries while decoding conversation messages")
	}
	return turns
}

// turnFromDoc converts a raw message document into a Turn. A document
// without any of the turn fields is not a turn record.
func turnFromDoc(doc bson.D) (model.Turn, bool) {
	var turn model.Turn
	found := false
	for _, elem := range doc {
		switch elem.Key {
		case "message_id":
			if s, ok := elem.Value.(string); ok {
				turn.MessageID = s
				found = true
			}
		case "user_query":
			if s, ok := elem.Value.(string); ok {
				turn.UserQuery = s
				found = true
			}
		case "message_response":
			if s, ok := elem.Value.(string); ok {
				turn.MessageResponse = s
				found = true
			}
		case "created_at":
			switch t := elem.Value.(type) {
			case primitive.DateTime:
				turn.CreatedAt = t.Time().UTC()
			case string:
				// legacy records stored RFC3339 strings
				if parsed, err := parseLegacyTime(t); err == nil {
					turn.CreatedAt = parsed
				}
			}
		}
	}
	return turn, found
}
