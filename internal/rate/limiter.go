package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scope names an attempt budget. Each scope keeps its own counters.
type Scope string

const (
	ScopeLogin Scope = "login"
	ScopeOTP   Scope = "otp"
)

// Config holds limiter tuning parameters.
type Config struct {
	Prefix           string
	MaxAttempts      int
	Window           time.Duration
	EnableIPThrottle bool
}

// DefaultConfig allows five failures per subject and IP in a 15 minute
// window.
func DefaultConfig() Config {
	return Config{
		Prefix:           "lfr",
		MaxAttempts:      5,
		Window:           15 * time.Minute,
		EnableIPThrottle: true,
	}
}

// Limiter counts failed attempts per subject and per IP using Redis
// counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "lfr"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check returns ErrRateLimited when subject or ip already used up the
// budget of scope. It does not count an attempt.
func (l *Limiter) Check(ctx context.Context, scope Scope, subject, ip string) error {
	for _, key := range l.keys(scope, subject, ip) {
		if err := l.checkCounter(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Fail records a failed attempt. It returns ErrRateLimited when this
// attempt exhausted the budget.
func (l *Limiter) Fail(ctx context.Context, scope Scope, subject, ip string) error {
	limited := false
	for _, key := range l.keys(scope, subject, ip) {
		count, err := l.incrementWithTTL(ctx, key)
		if err != nil {
			return err
		}
		if count >= int64(l.config.MaxAttempts) {
			limited = true
		}
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the counters of subject and ip. Called after a successful
// attempt.
func (l *Limiter) Reset(ctx context.Context, scope Scope, subject, ip string) error {
	keys := l.keys(scope, subject, ip)
	if len(keys) == 0 {
		return nil
	}
	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failures counted for subject in the current window.
// Missing keys return zero.
func (l *Limiter) Attempts(ctx context.Context, scope Scope, subject string) (int, error) {
	count, err := l.redis.Get(ctx, l.subjectKey(scope, subject)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) keys(scope Scope, subject, ip string) []string {
	keys := make([]string, 0, 2)
	if subject != "" {
		keys = append(keys, l.subjectKey(scope, subject))
	}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.config.Prefix+":"+string(scope)+":ip:"+ip)
	}
	return keys
}

func (l *Limiter) subjectKey(scope Scope, subject string) string {
	return l.config.Prefix + ":" + string(scope) + ":u:" + strings.ToLower(subject)
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
