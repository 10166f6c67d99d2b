package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/response"
)

// WindowCounter increments a fixed-window counter and returns its new value.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisWindowCounter counts with INCR + EXPIRE, shared by every server instance.
type RedisWindowCounter struct {
	rdb *redis.Client
}

// NewRedisWindowCounter creates a RedisWindowCounter.
func NewRedisWindowCounter(rdb *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{rdb: rdb}
}

func (r *RedisWindowCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// MemoryWindowCounter is a single-process WindowCounter for running without Redis.
type MemoryWindowCounter struct {
	mu     sync.Mutex
	counts map[string]*windowCount
}

type windowCount struct {
	n       int64
	expires time.Time
}

// NewMemoryWindowCounter creates a MemoryWindowCounter.
func NewMemoryWindowCounter() *MemoryWindowCounter {
	return &MemoryWindowCounter{counts: make(map[string]*windowCount)}
}

func (m *MemoryWindowCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for k, wc := range m.counts {
		if now.After(wc.expires) {
			delete(m.counts, k)
		}
	}

	wc, ok := m.counts[key]
	if !ok {
		wc = &windowCount{expires: now.Add(window)}
		m.counts[key] = wc
	}
	wc.n++
	return wc.n, nil
}

// RateLimiter caps requests per student (or per IP when unauthenticated) in
// fixed windows.
type RateLimiter struct {
	counter WindowCounter
	limit   int
	window  time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
func NewRateLimiter(counter WindowCounter, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
		log:     log.With().Str("component", "rate_limiter").Logger(),
		now:     time.Now,
	}
}

// Middleware returns a Gin middleware enforcing the limit. Counter failures
// let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		windowSeconds := int64(rl.window / time.Second)
		if windowSeconds < 1 {
			windowSeconds = 1
		}
		slot := rl.now().Unix() / windowSeconds

		var key string
		if claims := GetClaims(c); claims != nil {
			key = config.CacheKey.StudentAnswerRateKey(claims.UserID, slot)
		} else {
			key = "ip:" + c.ClientIP() + ":" + strconv.FormatInt(slot, 10)
		}

		n, err := rl.counter.Incr(c.Request.Context(), key, rl.window)
		if err != nil {
			rl.log.Warn().Err(err).Msg("rate limit counter unavailable")
			c.Next()
			return
		}

		if n > int64(rl.limit) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
