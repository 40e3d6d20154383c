package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/agentic-rag/server/internal/core/error"
)

const sessionKeyFormat = "session:%s:conversation"

// SessionStore maps client session ids to conversation ids in Redis, so a
// client that only carries a session header can keep a conversation going
// without tracking the conversation id itself.
type SessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSessionStore(rdb redis.Cmdable, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Resolve returns the conversation id bound to the session, or "" when the
// session is unknown or expired.
func (s *SessionStore) Resolve(ctx context.Context, sessionID string) (string, error) {
	conversationID, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errx.WrapRedis(err)
	}
	return conversationID, nil
}

// Bind records the conversation id for the session, refreshing the TTL.
func (s *SessionStore) Bind(ctx context.Context, sessionID, conversationID string) error {
	if err := s.rdb.Set(ctx, sessionKey(sessionID), conversationID, s.ttl).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf(sessionKeyFormat, sessionID)
}

var _ SessionResolver = (*SessionStore)(nil)
