// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	cryptoHTTP "github.com/allisson/tenantcrypto/internal/crypto/http"
	recoveryHTTP "github.com/allisson/tenantcrypto/internal/recovery/http"
	telemetryHTTP "github.com/allisson/tenantcrypto/internal/telemetry/http"
)

// Handlers groups the API route handlers the server mounts.
type Handlers struct {
	Key      *cryptoHTTP.KeyHandler
	Envelope *cryptoHTTP.EnvelopeHandler
	SelfTest *cryptoHTTP.SelfTestHandler
	Stats    *telemetryHTTP.StatsHandler
	Recovery *recoveryHTTP.RecoveryHandler
}

// Options configures the optional server middleware.
type Options struct {
	CORSEnabled             bool
	CORSAllowOrigins        string
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	// MetricsMiddleware records per-request metrics when non-nil.
	MetricsMiddleware gin.HandlerFunc
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all API routes mounted.
func NewServer(
	host string,
	port int,
	logger *slog.Logger,
	handlers Handlers,
	opts Options,
) *Server {
	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if opts.MetricsMiddleware != nil {
		router.Use(opts.MetricsMiddleware)
	}

	if corsMiddleware := createCORSMiddleware(opts.CORSEnabled, opts.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if opts.RateLimitEnabled {
		router.Use(RateLimitMiddleware(opts.RateLimitRequestsPerSec, opts.RateLimitBurst, logger))
	}

	registerRoutes(router, handlers)

	return &Server{
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// registerRoutes mounts the health endpoints and the v1 API surface.
func registerRoutes(router *gin.Engine, handlers Handlers) {
	router.GET("/health", gin.WrapH(HealthHandler()))
	router.GET("/ready", gin.WrapH(ReadinessHandler(context.Background())))

	v1 := router.Group("/v1")
	tenants := v1.Group("/tenants/:tenant_id")

	if handlers.Key != nil {
		tenants.POST("/keys", handlers.Key.CreateTenantKeysHandler)
		tenants.GET("/keys", handlers.Key.ListKeyInfoHandler)
		tenants.PATCH("/keys/:key_id/status", handlers.Key.UpdateKeyStatusHandler)
		tenants.POST("/keys/rotate", handlers.Key.RotateKeyHandler)
		tenants.POST("/keys/rotate-master", handlers.Key.RotateMasterKeyHandler)
	}

	if handlers.Envelope != nil {
		tenants.POST("/encrypt", handlers.Envelope.EncryptHandler)
		tenants.POST("/decrypt", handlers.Envelope.DecryptHandler)
	}

	if handlers.SelfTest != nil {
		tenants.POST("/selftest", handlers.SelfTest.SelfTestHandler)
	}

	if handlers.Stats != nil {
		tenants.GET("/stats", handlers.Stats.GetCryptoStatsHandler)
	}

	if handlers.Recovery != nil {
		tenants.POST("/recovery-bundle", handlers.Recovery.GenerateRecoveryBundleHandler)
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
