package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"nexus-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter caps requests per key over a rolling window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a sliding window log kept in one sorted set per key.
// Entries are scored by their unix nano timestamp.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: "ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	redisKey := l.prefix + key
	floor := strconv.FormatInt(now.Add(-l.window).UnixNano(), 10)

	var card *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "0", floor)
		card = pipe.ZCard(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit window read: %w", err)
	}
	if card.Val() >= int64(l.limit) {
		return false, nil
	}

	_, err = l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit window write: %w", err)
	}
	return true, nil
}

// LocalLimiter keeps one token bucket per key in process. The bucket refills
// limit tokens per window and holds at most limit tokens.
type LocalLimiter struct {
	mu     sync.Mutex
	m      map[string]*rate.Limiter
	limit  int
	window time.Duration
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LocalLimiter{m: make(map[string]*rate.Limiter), limit: limit, window: window}
}

func (l *LocalLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.m[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)
	l.m[key] = lim
	return lim
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.get(key).Allow(), nil
}

// FallbackLimiter prefers the shared Redis window and falls back to the
// local bucket whenever Redis errors.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	logger   logger.ILogger
}

func NewFallbackLimiter(primary, fallback Limiter, log logger.ILogger) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, fallback: fallback, logger: log}
}

func (l *FallbackLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.primary != nil {
		ok, err := l.primary.Allow(ctx, key)
		if err == nil {
			return ok, nil
		}
		l.logger.Warn("RATELIMIT", "Primary limiter failed, using local", map[string]interface{}{"error": err.Error()})
	}
	return l.fallback.Allow(ctx, key)
}
