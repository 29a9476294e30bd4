package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/countaustin1990/responsive-travel-website/config"
	"github.com/countaustin1990/responsive-travel-website/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type RateLimitRule struct {
	Scope   string
	Limit   int
	Window  time.Duration
	Message string
}

func GeneralRule(cfg config.LimitRule) RateLimitRule {
	return RateLimitRule{
		Scope:   "api",
		Limit:   cfg.Limit,
		Window:  cfg.Window,
		Message: "Too many requests from this IP, please try again later.",
	}
}

func BookingRule(cfg config.LimitRule) RateLimitRule {
	return RateLimitRule{
		Scope:   "book",
		Limit:   cfg.Limit,
		Window:  cfg.Window,
		Message: "Too many booking attempts, please try again later.",
	}
}

// RateLimit allows rule.Limit requests per client IP per window. Without a
// counter it is a no-op; counter errors let the request through.
func RateLimit(counter Counter, prefix string, rule RateLimitRule, logger logrus.FieldLogger) gin.HandlerFunc {
	if counter == nil || rule.Limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := cache.RateKey(prefix, rule.Scope, ip)

		count, resetIn, err := counter.Hit(c.Request.Context(), key, rule.Window)
		if err != nil {
			logger.WithError(err).WithField("key", key).Warn("rate limit counter unavailable")
			c.Next()
			return
		}

		remaining := int64(rule.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rule.Limit) {
			secs := int(math.Ceil(resetIn.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			logger.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Info("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": rule.Message,
			})
			return
		}
		c.Next()
	}
}
