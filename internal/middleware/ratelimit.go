package middleware

import (
	"math"
	"strconv"

	"gatekeeper_backend/internal/logger"
	"gatekeeper_backend/internal/metrics"
	"gatekeeper_backend/internal/ratelimit"
	"gatekeeper_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// RateLimiter - middleware лимитов по уровням
type RateLimiter struct {
	limiter ratelimit.Limiter
	metrics *metrics.Metrics
	enabled bool
}

func NewRateLimiter(limiter ratelimit.Limiter, m *metrics.Metrics, enabled bool) *RateLimiter {
	return &RateLimiter{limiter: limiter, metrics: m, enabled: enabled}
}

// Limit - ключ user:<id> для аутентифицированных, иначе ip:<addr>.
// Ошибка хранилища не блокирует запрос.
func (rl *RateLimiter) Limit(tier ratelimit.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || !rl.enabled || rl.limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if userID := GetUserID(c); userID != "" {
			key = "user:" + userID
		}

		res, err := rl.limiter.Allow(c.Request.Context(), tier, key)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Rate limiter unavailable, allowing request",
				"tier", tier.Name,
				"error", err.Error(),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			if rl.metrics != nil {
				rl.metrics.RateLimitedTotal.WithLabelValues(tier.Name).Inc()
			}
			seconds := int(math.Ceil(res.RetryAfter.Seconds()))
			apperrors.HandleError(c, apperrors.NewRateLimitedError(seconds))
			return
		}

		c.Next()
	}
}
