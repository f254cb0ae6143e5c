package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepository records signed-out session ids until their tokens expire.
type SessionRepository struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewSessionRepository(client redis.Cmdable) *SessionRepository {
	return &SessionRepository{client: client, now: time.Now}
}

func (r *SessionRepository) revokedKey(sessionID string) string {
	return fmt.Sprintf("session:revoked:%s", sessionID)
}

// Revoke keeps the marker until the token would have expired anyway.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.revokedKey(sessionID), "1", ttl).Err()
}

func (r *SessionRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.revokedKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
