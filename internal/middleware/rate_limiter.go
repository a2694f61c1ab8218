package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/handler"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// IdleTTL drops a client's bucket after this long without requests
	IdleTTL time.Duration
}

// RateLimiter keeps one token bucket per client IP. Buckets live in a
// go-cache whose expiry is pushed back on every hit.
type RateLimiter struct {
	config  RateLimiterConfig
	clients *cache.Cache
	now     func() time.Time
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		config:  config,
		clients: cache.New(config.IdleTTL, config.IdleTTL),
		now:     time.Now,
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	return rl.limiter(key).AllowN(rl.now(), 1)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, found := rl.clients.Get(key); found {
		lim := v.(*rate.Limiter)
		rl.clients.Set(key, lim, cache.DefaultExpiration)
		return lim
	}

	lim := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	if err := rl.clients.Add(key, lim, cache.DefaultExpiration); err != nil {
		// another request for the same client won the race
		if v, found := rl.clients.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return lim
}
