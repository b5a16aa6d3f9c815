package app

import (
	"fmt"

	cryptoCache "github.com/allisson/tenantcrypto/internal/crypto/cache"
	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoHTTP "github.com/allisson/tenantcrypto/internal/crypto/http"
	cryptoRepository "github.com/allisson/tenantcrypto/internal/crypto/repository"
	cryptoService "github.com/allisson/tenantcrypto/internal/crypto/service"
	cryptoUseCase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
)

// MasterKeyChain returns the operator master key chain loaded from environment variables.
func (c *Container) MasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	var err error
	c.masterKeyChainInit.Do(func() {
		c.masterKeyChain, err = cryptoDomain.LoadMasterKeyChainFromEnv()
		if err != nil {
			c.initErrors["masterKeyChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKeyChain"]; exists {
		return nil, storedErr
	}
	return c.masterKeyChain, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyManager returns the key manager service.
func (c *Container) KeyManager() cryptoService.KeyManager {
	c.keyManagerInit.Do(func() {
		c.keyManager = cryptoService.NewKeyManager(c.AEADManager(), c.config.RotationInterval)
	})
	return c.keyManager
}

// KMSService returns the KMS service for recovery escrow.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KeyCache returns the in-memory unwrapped key cache.
func (c *Container) KeyCache() (*cryptoCache.KeyCache, error) {
	c.keyCacheInit.Do(func() {
		c.keyCache = cryptoCache.New(c.config.CacheTTL, c.config.CacheEnabled)
	})
	return c.keyCache, nil
}

// TenantKeyRepository returns the tenant key repository.
func (c *Container) TenantKeyRepository() (cryptoUseCase.TenantKeyRepository, error) {
	var err error
	c.tenantKeyRepoInit.Do(func() {
		c.tenantKeyRepo, err = c.initTenantKeyRepository()
		if err != nil {
			c.initErrors["tenantKeyRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantKeyRepo"]; exists {
		return nil, storedErr
	}
	return c.tenantKeyRepo, nil
}

// TenantKeyUseCase returns the tenant key lifecycle use case.
func (c *Container) TenantKeyUseCase() (cryptoUseCase.TenantKeyUseCase, error) {
	var err error
	c.tenantKeyUseCaseInit.Do(func() {
		c.tenantKeyUseCase, err = c.initTenantKeyUseCase()
		if err != nil {
			c.initErrors["tenantKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.tenantKeyUseCase, nil
}

// EnvelopeUseCase returns the envelope encryption engine.
func (c *Container) EnvelopeUseCase() (cryptoUseCase.EnvelopeUseCase, error) {
	var err error
	c.envelopeUseCaseInit.Do(func() {
		c.envelopeUseCase, err = c.initEnvelopeUseCase()
		if err != nil {
			c.initErrors["envelopeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeUseCase"]; exists {
		return nil, storedErr
	}
	return c.envelopeUseCase, nil
}

// RotationUseCase returns the key rotation use case.
func (c *Container) RotationUseCase() (cryptoUseCase.RotationUseCase, error) {
	var err error
	c.rotationUseCaseInit.Do(func() {
		c.rotationUseCase, err = c.initRotationUseCase()
		if err != nil {
			c.initErrors["rotationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rotationUseCase"]; exists {
		return nil, storedErr
	}
	return c.rotationUseCase, nil
}

// KeyHandler creates the tenant key HTTP handler with all its dependencies.
func (c *Container) KeyHandler() (*cryptoHTTP.KeyHandler, error) {
	tenantKeyUseCase, err := c.TenantKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant key use case for key handler: %w", err)
	}

	rotationUseCase, err := c.RotationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation use case for key handler: %w", err)
	}

	return cryptoHTTP.NewKeyHandler(tenantKeyUseCase, rotationUseCase, c.Logger()), nil
}

// EnvelopeHandler creates the envelope HTTP handler with all its dependencies.
func (c *Container) EnvelopeHandler() (*cryptoHTTP.EnvelopeHandler, error) {
	envelopeUseCase, err := c.EnvelopeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope use case for envelope handler: %w", err)
	}

	return cryptoHTTP.NewEnvelopeHandler(envelopeUseCase, c.Logger()), nil
}

// SelfTestHandler creates the self-test HTTP handler backed by the facade client.
func (c *Container) SelfTestHandler() (*cryptoHTTP.SelfTestHandler, error) {
	client, err := c.Client()
	if err != nil {
		return nil, fmt.Errorf("failed to get client for self-test handler: %w", err)
	}

	return cryptoHTTP.NewSelfTestHandler(client, c.Logger()), nil
}

// initTenantKeyRepository creates the tenant key repository based on the database driver.
func (c *Container) initTenantKeyRepository() (cryptoUseCase.TenantKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tenant key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cryptoRepository.NewPostgreSQLTenantKeyRepository(db), nil
	case "mysql":
		return cryptoRepository.NewMySQLTenantKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAlgorithm parses the configured encryption algorithm for new key versions.
func (c *Container) initAlgorithm() (cryptoDomain.Algorithm, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
	if err != nil {
		return "", fmt.Errorf("invalid encryption algorithm %q: %w", c.config.EncryptionAlgorithm, err)
	}
	return algorithm, nil
}

// initTenantKeyUseCase creates the tenant key use case with all its dependencies.
func (c *Container) initTenantKeyUseCase() (cryptoUseCase.TenantKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for tenant key use case: %w", err)
	}

	tenantKeyRepo, err := c.TenantKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant key repository for tenant key use case: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain for tenant key use case: %w", err)
	}

	algorithm, err := c.initAlgorithm()
	if err != nil {
		return nil, err
	}

	baseUseCase := cryptoUseCase.NewTenantKeyUseCase(
		txManager,
		tenantKeyRepo,
		c.KeyManager(),
		masterKeyChain,
		algorithm,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for tenant key use case: %w", err)
		}
		return cryptoUseCase.NewTenantKeyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initEnvelopeUseCase creates the envelope encryption engine with all its dependencies.
func (c *Container) initEnvelopeUseCase() (cryptoUseCase.EnvelopeUseCase, error) {
	tenantKeyRepo, err := c.TenantKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant key repository for envelope use case: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain for envelope use case: %w", err)
	}

	keyCache, err := c.KeyCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get key cache for envelope use case: %w", err)
	}

	usageUseCase, err := c.UsageUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage use case for envelope use case: %w", err)
	}

	baseUseCase := cryptoUseCase.NewEnvelopeUseCase(
		tenantKeyRepo,
		c.KeyManager(),
		c.AEADManager(),
		masterKeyChain,
		keyCache,
		usageUseCase,
		c.Logger(),
		c.config.StoreTimeout,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for envelope use case: %w", err)
		}
		return cryptoUseCase.NewEnvelopeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRotationUseCase creates the rotation use case with all its dependencies.
func (c *Container) initRotationUseCase() (cryptoUseCase.RotationUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for rotation use case: %w", err)
	}

	tenantKeyRepo, err := c.TenantKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant key repository for rotation use case: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain for rotation use case: %w", err)
	}

	keyCache, err := c.KeyCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get key cache for rotation use case: %w", err)
	}

	algorithm, err := c.initAlgorithm()
	if err != nil {
		return nil, err
	}

	baseUseCase := cryptoUseCase.NewRotationUseCase(
		txManager,
		tenantKeyRepo,
		c.KeyManager(),
		masterKeyChain,
		keyCache,
		c.Logger(),
		algorithm,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for rotation use case: %w", err)
		}
		return cryptoUseCase.NewRotationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
