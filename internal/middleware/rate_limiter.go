package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures per-client token buckets
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleExpiry forgets a client's bucket after this long without requests
	IdleExpiry time.Duration
	// Key picks the bucket for a request; the client IP by default
	Key func(c *gin.Context) string
}

// RateLimiter hands out one token bucket per client key
type RateLimiter struct {
	buckets *cache.Cache
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.IdleExpiry <= 0 {
		config.IdleExpiry = 10 * time.Minute
	}
	return &RateLimiter{
		buckets: cache.New(config.IdleExpiry, 2*config.IdleExpiry),
		limit:   rate.Limit(config.RequestsPerSecond),
		burst:   config.Burst,
	}
}

// Reserve takes a token for key. It returns zero when the request may
// proceed and otherwise how long the client should wait.
func (rl *RateLimiter) Reserve(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var limiter *rate.Limiter
	if v, found := rl.buckets.Get(key); found {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
	}
	// refresh expiry on use
	rl.buckets.SetDefault(key, limiter)

	now := time.Now()
	if limiter.AllowN(now, 1) {
		return 0
	}
	r := limiter.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return time.Second
	}
	return r.DelayFrom(now)
}

// RateLimiterMiddleware rejects clients that exceed their bucket with 429
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	limiter := NewRateLimiter(config)
	key := config.Key
	if key == nil {
		key = func(c *gin.Context) string { return c.ClientIP() }
	}

	return func(c *gin.Context) {
		wait := limiter.Reserve(key(c))
		if wait == 0 {
			c.Next()
			return
		}
		retryAfter := int(math.Ceil(wait.Seconds()))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": retryAfter,
		})
	}
}
