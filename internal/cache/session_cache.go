package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quoteflow/internal/model"
)

// SessionCache holds live wizard sessions and the verification guard keys
type SessionCache interface {
	Set(ctx context.Context, session *model.WizardSession) error
	Get(ctx context.Context, id string) (*model.WizardSession, error)
	Delete(ctx context.Context, id string) error

	// AcquireVerification takes the per-session in-flight guard. Returns
	// false when a check is already running; callers must no-op, not queue.
	AcquireVerification(ctx context.Context, sessionID string) (bool, error)
	ReleaseVerification(ctx context.Context, sessionID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    2 * time.Hour,
	}
}

func (c *sessionCache) sessionKey(id string) string {
	return "session:" + id
}

func (c *sessionCache) guardKey(id string) string {
	return "session:" + id + ":verifying"
}

func (c *sessionCache) Set(ctx context.Context, session *model.WizardSession) error {
	session.UpdatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.sessionKey(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.WizardSession, error) {
	data, err := c.client.Get(ctx, c.sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.WizardSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.sessionKey(id)).Err()
}

func (c *sessionCache) AcquireVerification(ctx context.Context, sessionID string) (bool, error) {
	// TTL bounds how long a crashed check can wedge the session
	return c.client.SetNX(ctx, c.guardKey(sessionID), "1", 30*time.Second).Result()
}

func (c *sessionCache) ReleaseVerification(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.guardKey(sessionID)).Err()
}
