// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/allisson/tenantcrypto/internal/httputil"
)

// CustomLoggerMiddleware logs HTTP requests with the request id attached.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", c.ClientIP()),
			slog.String("request_id", requestid.Get(c)),
		)
	}
}

// RecoveryMiddleware recovers from handler panics and returns a generic 500.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("panic recovered",
			slog.Any("error", err),
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
		)
		c.AbortWithStatusJSON(
			http.StatusInternalServerError,
			gin.H{"error": "internal server error"},
		)
	})
}

// HealthHandler returns a simple health check handler.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.MakeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
}

// ReadinessHandler returns a readiness check handler.
func ReadinessHandler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if context is cancelled (application is shutting down)
		select {
		case <-ctx.Done():
			httputil.MakeJSONResponse(
				w,
				http.StatusServiceUnavailable,
				map[string]string{"status": "not ready"},
			)
			return
		default:
		}

		httputil.MakeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}
