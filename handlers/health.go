package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// RegisterHealth mounts /health (liveness) and /ready. /ready runs every
// check and returns 503 when any of them fails.
func RegisterHealth(r gin.IRouter, checks map[string]ReadinessCheck) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		ready := true
		deps := map[string]bool{}
		errs := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = false
				errs[name] = err.Error()
				ready = false
				continue
			}
			deps[name] = true
		}
		body := gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			body["status"] = "not_ready"
			body["errors"] = errs
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	})
}
