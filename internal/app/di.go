// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/tenantcrypto/internal/config"
	cryptoCache "github.com/allisson/tenantcrypto/internal/crypto/cache"
	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoService "github.com/allisson/tenantcrypto/internal/crypto/service"
	cryptoUseCase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
	"github.com/allisson/tenantcrypto/internal/database"
	"github.com/allisson/tenantcrypto/internal/facade"
	"github.com/allisson/tenantcrypto/internal/http"
	"github.com/allisson/tenantcrypto/internal/metrics"
	recoveryUseCase "github.com/allisson/tenantcrypto/internal/recovery/usecase"
	telemetryUseCase "github.com/allisson/tenantcrypto/internal/telemetry/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers and services
	txManager      database.TxManager
	aeadManager    cryptoService.AEADManager
	keyManager     cryptoService.KeyManager
	kmsService     cryptoService.KMSService
	masterKeyChain *cryptoDomain.MasterKeyChain
	keyCache       *cryptoCache.KeyCache

	// Repositories
	tenantKeyRepo cryptoUseCase.TenantKeyRepository
	usageRepo     telemetryUseCase.UsageRepository

	// Use Cases
	tenantKeyUseCase cryptoUseCase.TenantKeyUseCase
	envelopeUseCase  cryptoUseCase.EnvelopeUseCase
	rotationUseCase  cryptoUseCase.RotationUseCase
	usageUseCase     telemetryUseCase.UsageUseCase
	recoveryUseCase  recoveryUseCase.RecoveryUseCase

	// Facade
	client *facade.Client

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	txManagerInit        sync.Once
	aeadManagerInit      sync.Once
	keyManagerInit       sync.Once
	kmsServiceInit       sync.Once
	masterKeyChainInit   sync.Once
	keyCacheInit         sync.Once
	tenantKeyRepoInit    sync.Once
	usageRepoInit        sync.Once
	tenantKeyUseCaseInit sync.Once
	envelopeUseCaseInit  sync.Once
	rotationUseCaseInit  sync.Once
	usageUseCaseInit     sync.Once
	recoveryUseCaseInit  sync.Once
	clientInit           sync.Once
	httpServerInit       sync.Once
	metricsServerInit    sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// Returns a no-op implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Client returns the embedded-use facade over the assembled engine.
func (c *Container) Client() (*facade.Client, error) {
	var err error
	c.clientInit.Do(func() {
		c.client, err = c.initClient()
		if err != nil {
			c.initErrors["client"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["client"]; exists {
		return nil, storedErr
	}
	return c.client, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server and provider if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	keyHandler, err := c.KeyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get key handler for http server: %w", err)
	}

	envelopeHandler, err := c.EnvelopeHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope handler for http server: %w", err)
	}

	selfTestHandler, err := c.SelfTestHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get self-test handler for http server: %w", err)
	}

	statsHandler, err := c.StatsHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats handler for http server: %w", err)
	}

	handlers := http.Handlers{
		Key:      keyHandler,
		Envelope: envelopeHandler,
		SelfTest: selfTestHandler,
		Stats:    statsHandler,
	}

	// Recovery escrow is only mounted when a KMS key URI is configured.
	if c.config.KMSKeyURI != "" {
		recoveryHandler, err := c.RecoveryHandler()
		if err != nil {
			return nil, fmt.Errorf("failed to get recovery handler for http server: %w", err)
		}
		handlers.Recovery = recoveryHandler
	}

	opts := http.Options{
		CORSEnabled:             c.config.CORSEnabled,
		CORSAllowOrigins:        c.config.CORSAllowOrigins,
		RateLimitEnabled:        c.config.RateLimitEnabled,
		RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
		RateLimitBurst:          c.config.RateLimitBurst,
	}

	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		opts.MetricsMiddleware = metrics.HTTPMetricsMiddleware(
			provider.MeterProvider(), c.config.MetricsNamespace,
		)
	}

	server := http.NewServer(
		c.config.ServerHost,
		c.config.ServerPort,
		logger,
		handlers,
		opts,
	)

	return server, nil
}

// initMetricsServer creates the metrics server with its provider.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	logger := c.Logger()

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, logger, provider), nil
}

// initClient creates the facade client over the assembled use cases.
func (c *Container) initClient() (*facade.Client, error) {
	tenantKeyUseCase, err := c.TenantKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant key use case for client: %w", err)
	}

	envelopeUseCase, err := c.EnvelopeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope use case for client: %w", err)
	}

	rotationUseCase, err := c.RotationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation use case for client: %w", err)
	}

	usageUseCase, err := c.UsageUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage use case for client: %w", err)
	}

	// Recovery stays nil without a configured KMS key URI; the facade only
	// reaches it from GenerateRecoveryBundle.
	var recovery recoveryUseCase.RecoveryUseCase
	if c.config.KMSKeyURI != "" {
		recovery, err = c.RecoveryUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get recovery use case for client: %w", err)
		}
	}

	keyCache, err := c.KeyCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get key cache for client: %w", err)
	}

	return facade.New(
		tenantKeyUseCase,
		envelopeUseCase,
		rotationUseCase,
		usageUseCase,
		recovery,
		keyCache,
	), nil
}
