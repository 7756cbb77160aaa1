package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"sahayak/internal/utils"
	"sahayak/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// WindowCounter increments key and returns the count inside the current
// window plus the time left in it.
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimiter caps requests per caller. It counts in Redis when a counter is
// configured and falls back to in-process token buckets when Redis is absent
// or failing.
type RateLimiter struct {
	counter WindowCounter
	limit   int
	window  time.Duration
	logger  *logger.Logger
	daily   bool
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewRateLimiter(counter WindowCounter, limit int, window time.Duration, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		counter:  counter,
		limit:    limit,
		window:   window,
		logger:   log,
		now:      utils.NowUTC,
		limiters: make(map[string]*rate.Limiter),
	}
}

// NewDailyRateLimiter allows limit requests per UTC calendar day. Redis
// counters are keyed by date and expire at midnight.
func NewDailyRateLimiter(counter WindowCounter, limit int, log *logger.Logger) *RateLimiter {
	rl := NewRateLimiter(counter, limit, utils.SubmitRateWindow, log)
	rl.daily = true
	return rl
}

// Limit returns middleware keyed on scope and the authenticated user, or the
// client IP for anonymous requests. A non-positive limit disables it.
func (rl *RateLimiter) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			subject = userID.Hex()
		}
		key := utils.CacheRateLimitPrefix + scope + ":" + subject

		allowed, retryAfter := rl.allow(c.Request.Context(), key)
		if !allowed {
			rl.logger.WithFields(logger.Fields{
				"scope":   scope,
				"subject": subject,
				"path":    c.Request.URL.Path,
			}).Warn("Rate limit exceeded")
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			}
			utils.TooManyRequestsResponse(c, "too many requests, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, time.Duration) {
	if rl.counter != nil {
		windowKey, window := key, rl.window
		if rl.daily {
			now := rl.now()
			windowKey += ":" + utils.StartOfDay(now).Format("20060102")
			window = utils.UntilEndOfDay(now)
		}
		count, ttl, err := rl.counter.IncrementWindow(ctx, windowKey, window)
		if err == nil {
			return count <= int64(rl.limit), ttl
		}
		rl.logger.WithError(err).Warn("Rate limit counter unavailable, using local limiter")
	}

	limiter := rl.localLimiter(key)
	if limiter.Allow() {
		return true, 0
	}
	return false, time.Duration(float64(time.Second) / float64(limiter.Limit()))
}

func (rl *RateLimiter) localLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		every := rl.window / time.Duration(rl.limit)
		limiter = rate.NewLimiter(rate.Every(every), rl.limit)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Cleanup drops idle local limiters that have refilled completely.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(limiter.Burst()) {
			delete(rl.limiters, key)
		}
	}
}
