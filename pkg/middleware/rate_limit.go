package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/ypb/phonebook/pkg/metrics"
	"golang.org/x/time/rate"
)

// limiterKey prefers the caller's phone number (NAT-friendly) and falls back
// to the client IP.
func limiterKey(c *gin.Context, prefix string) string {
	if caller := CallerFrom(c); caller.Authenticated() && caller.Phone != "" {
		return prefix + "phone:" + caller.Phone
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return prefix + "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket.
// Run it after Authenticate so residents are keyed by phone.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	// per-key limiter store (simple in-memory token-bucket)
	var limiters sync.Map // map[string]*rate.Limiter
	get := func(key string) *rate.Limiter {
		if v, ok := limiters.Load(key); ok {
			return v.(*rate.Limiter)
		}
		v, _ := limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
		return v.(*rate.Limiter)
	}
	return func(c *gin.Context) {
		if !get(limiterKey(c, "")).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
