package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "oauth:state:"

// SessionStore keeps pending OAuth handshakes in Redis until the callback consumes them
type SessionStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionStore creates a new Redis backed session store
func NewSessionStore(client *redis.Client) ports.SessionRepository {
	return &SessionStore{
		client: client,
		now:    time.Now,
	}
}

func sessionKey(state string) string {
	return sessionKeyPrefix + state
}

// CreateSession stores the session until its ExpiresAt, or OAuthStateTTL when unset
func (s *SessionStore) CreateSession(ctx context.Context, session *domain.Session) error {
	if session.State == "" {
		return fmt.Errorf("failed to create session: empty state")
	}

	ttl := domain.OAuthStateTTL
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return fmt.Errorf("failed to create session: already expired")
		}
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.State), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// ConsumeSession atomically reads and deletes the session
func (s *SessionStore) ConsumeSession(ctx context.Context, state string) (*domain.Session, error) {
	if state == "" {
		return nil, nil
	}

	data, err := s.client.GetDel(ctx, sessionKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
