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

// OTPConsumeResult is the outcome of an atomic challenge consume.
type OTPConsumeResult string

const (
	OTPConsumeOK       OTPConsumeResult = "ok"
	OTPConsumeNone     OTPConsumeResult = "none"
	OTPConsumeExpired  OTPConsumeResult = "expired"
	OTPConsumeMismatch OTPConsumeResult = "mismatch"
)

// OTPChallenge is the pending code for a user.
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
}

// OTPRepository stores one pending challenge per user. Issuing a new
// challenge silently supersedes the previous one.
type OTPRepository interface {
	Issue(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	// Consume validates and deletes the challenge in one atomic step so a
	// code can never be redeemed twice.
	Consume(ctx context.Context, userID int64, code string, now time.Time) (OTPConsumeResult, error)
	Get(ctx context.Context, userID int64) (*OTPChallenge, error)
}

// consumeScript checks existence, expiry and code match, and deletes the
// key on success, all server-side. Expiry is judged against the caller's
// clock, not the key TTL.
const consumeScript = `local v = redis.call("GET", KEYS[1])
if not v then return "none" end
local sep = string.find(v, ":")
local code = string.sub(v, 1, sep - 1)
local exp = tonumber(string.sub(v, sep + 1))
local now = tonumber(ARGV[2])
if now > exp then
	redis.call("DEL", KEYS[1])
	return "expired"
end
if code ~= ARGV[1] then return "mismatch" end
redis.call("DEL", KEYS[1])
return "ok"`

type RedisOTPRepository struct {
	redis *redis.Redis
}

func NewOTPRepository(redisClient *redis.Redis) OTPRepository {
	return &RedisOTPRepository{redis: redisClient}
}

func (r *RedisOTPRepository) Issue(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	if r.redis == nil {
		return errors.New("cache is nil")
	}
	value := fmt.Sprintf("%s:%d", normalizeOTPCode(code), expiresAt.Unix())
	// TTL is only garbage collection; validity is decided by the stored
	// timestamp. Keep the key around a bit past expiry so consume can
	// distinguish expired from never-issued.
	ttl := int(time.Until(expiresAt)/time.Second) + 300
	if ttl <= 0 {
		ttl = 300
	}
	return r.redis.SetexCtx(ctx, otpKey(userID), value, ttl)
}

func (r *RedisOTPRepository) Consume(ctx context.Context, userID int64, code string, now time.Time) (OTPConsumeResult, error) {
	if r.redis == nil {
		return "", errors.New("cache is nil")
	}
	raw, err := r.redis.EvalCtx(ctx, consumeScript, []string{otpKey(userID)},
		normalizeOTPCode(code), strconv.FormatInt(now.Unix(), 10))
	if err != nil {
		return "", err
	}
	status, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("unexpected consume script reply: %v", raw)
	}
	switch OTPConsumeResult(status) {
	case OTPConsumeOK, OTPConsumeNone, OTPConsumeExpired, OTPConsumeMismatch:
		return OTPConsumeResult(status), nil
	default:
		return "", fmt.Errorf("unexpected consume status: %s", status)
	}
}

func (r *RedisOTPRepository) Get(ctx context.Context, userID int64) (*OTPChallenge, error) {
	if r.redis == nil {
		return nil, errors.New("cache is nil")
	}
	value, err := r.redis.GetCtx(ctx, otpKey(userID))
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	sep := strings.Index(value, ":")
	if sep < 0 {
		return nil, fmt.Errorf("malformed challenge value")
	}
	expUnix, err := strconv.ParseInt(value[sep+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed challenge expiry: %w", err)
	}
	return &OTPChallenge{
		Code:      value[:sep],
		ExpiresAt: time.Unix(expUnix, 0),
	}, nil
}

func normalizeOTPCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func otpKey(userID int64) string {
	return fmt.Sprintf("%s%d", otpKeyPrefix, userID)
}
