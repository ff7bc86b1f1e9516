package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/redis"
)

// SessionWindow is an open trust window. Whether it is still live is
// always recomputed from ExpiresAt against the caller's clock.
type SessionWindow struct {
	VerifiedAt time.Time
	ExpiresAt  time.Time
}

// Remaining reports how much of the window is left at the given instant.
func (w *SessionWindow) Remaining(now time.Time) time.Duration {
	if w == nil {
		return 0
	}
	rem := w.ExpiresAt.Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}

// Active reports whether the window covers the given instant. A window
// is dead the moment it reaches ExpiresAt.
func (w *SessionWindow) Active(now time.Time) bool {
	return w != nil && now.Before(w.ExpiresAt)
}

type SessionRepository interface {
	Open(ctx context.Context, userID int64, window SessionWindow) error
	Get(ctx context.Context, userID int64) (*SessionWindow, error)
	Clear(ctx context.Context, userID int64) error
}

type RedisSessionRepository struct {
	redis *redis.Redis
}

func NewSessionRepository(redisClient *redis.Redis) SessionRepository {
	return &RedisSessionRepository{redis: redisClient}
}

func (r *RedisSessionRepository) Open(ctx context.Context, userID int64, window SessionWindow) error {
	if r.redis == nil {
		return errors.New("cache is nil")
	}
	value := fmt.Sprintf("%d:%d", window.VerifiedAt.Unix(), window.ExpiresAt.Unix())
	// Keep the key past expiry so status can report an expired window
	// instead of pretending the user was never verified.
	ttl := int(time.Until(window.ExpiresAt)/time.Second) + 3600
	if ttl <= 0 {
		ttl = 3600
	}
	return r.redis.SetexCtx(ctx, sessionKey(userID), value, ttl)
}

func (r *RedisSessionRepository) Get(ctx context.Context, userID int64) (*SessionWindow, error) {
	if r.redis == nil {
		return nil, errors.New("cache is nil")
	}
	value, err := r.redis.GetCtx(ctx, sessionKey(userID))
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	sep := strings.Index(value, ":")
	if sep < 0 {
		return nil, fmt.Errorf("malformed session value")
	}
	verifiedUnix, err := strconv.ParseInt(value[:sep], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed session verified ts: %w", err)
	}
	expiresUnix, err := strconv.ParseInt(value[sep+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed session expiry ts: %w", err)
	}
	return &SessionWindow{
		VerifiedAt: time.Unix(verifiedUnix, 0),
		ExpiresAt:  time.Unix(expiresUnix, 0),
	}, nil
}

func (r *RedisSessionRepository) Clear(ctx context.Context, userID int64) error {
	if r.redis == nil {
		return errors.New("cache is nil")
	}
	_, err := r.redis.DelCtx(ctx, sessionKey(userID))
	return err
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, userID)
}
