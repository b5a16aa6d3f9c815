package app

import (
	"context"
	"fmt"

	recoveryHTTP "github.com/allisson/tenantcrypto/internal/recovery/http"
	recoveryUseCasePkg "github.com/allisson/tenantcrypto/internal/recovery/usecase"
)

// RecoveryUseCase returns the recovery escrow use case.
// Requires a configured KMS key URI.
func (c *Container) RecoveryUseCase() (recoveryUseCasePkg.RecoveryUseCase, error) {
	var err error
	c.recoveryUseCaseInit.Do(func() {
		c.recoveryUseCase, err = c.initRecoveryUseCase()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recoveryUseCase"]; exists {
		return nil, storedErr
	}
	return c.recoveryUseCase, nil
}

// RecoveryHandler creates the recovery bundle HTTP handler with all its dependencies.
func (c *Container) RecoveryHandler() (*recoveryHTTP.RecoveryHandler, error) {
	useCase, err := c.RecoveryUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get recovery use case for recovery handler: %w", err)
	}

	return recoveryHTTP.NewRecoveryHandler(useCase, c.Logger()), nil
}

// initRecoveryUseCase creates the recovery use case with all its dependencies.
func (c *Container) initRecoveryUseCase() (recoveryUseCasePkg.RecoveryUseCase, error) {
	if c.config.KMSKeyURI == "" {
		return nil, fmt.Errorf("recovery escrow requires KMS_KEY_URI to be configured")
	}

	tenantKeyRepo, err := c.TenantKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant key repository for recovery use case: %w", err)
	}

	keeper, err := c.KMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper for recovery use case: %w", err)
	}

	algorithm, err := c.initAlgorithm()
	if err != nil {
		return nil, err
	}

	return recoveryUseCasePkg.NewRecoveryUseCase(
		tenantKeyRepo,
		keeper,
		c.Logger(),
		c.config.KMSKeyURI,
		algorithm,
	), nil
}
