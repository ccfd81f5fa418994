package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/dustin/movie-recommender/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const idleTTL = time.Hour

// RateLimiter is a token bucket per caller. Authenticated callers are keyed by user id,
// anonymous ones by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
	logger   *logger.Logger
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter parses the rate limit config section. Defaults to 10 requests per second
// with a burst of 20.
func NewRateLimiter(cfg *config.RateLimitConfig, log *logger.Logger) (*RateLimiter, error) {
	rps := 10.0
	burst := 20

	if cfg != nil {
		if cfg.RequestsPerSecond != "" {
			v, err := strconv.ParseFloat(cfg.RequestsPerSecond, 64)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("invalid rate limit requests per second '%s'", cfg.RequestsPerSecond)
			}
			rps = v
		}
		if cfg.Burst != "" {
			v, err := strconv.Atoi(cfg.Burst)
			if err != nil || v < 1 {
				return nil, fmt.Errorf("invalid rate limit burst '%s'", cfg.Burst)
			}
			burst = v
		}
	}

	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		logger:   log.WithComponent("rate-limiter"),
	}, nil
}

// Allow takes one token from key's bucket
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	now := rl.now()
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Middleware rejects callers over their budget with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(callerKey(c)) {
			metrics.RateLimitRejections.Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// Cleanup drops buckets idle for more than an hour and returns how many were removed
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-idleTTL)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, key)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("Removed " + strconv.Itoa(removed) + " idle rate limiters")
	}
	return removed
}

// Len returns the number of tracked callers
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func callerKey(c *gin.Context) string {
	if v, ok := c.Get(utils.UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return "user:" + id.String()
		}
	}
	return "ip:" + c.ClientIP()
}
