package app

import (
	"fmt"

	telemetryHTTP "github.com/allisson/tenantcrypto/internal/telemetry/http"
	telemetryRepository "github.com/allisson/tenantcrypto/internal/telemetry/repository"
	telemetryUseCase "github.com/allisson/tenantcrypto/internal/telemetry/usecase"
)

// UsageRepository returns the usage telemetry repository.
func (c *Container) UsageRepository() (telemetryUseCase.UsageRepository, error) {
	var err error
	c.usageRepoInit.Do(func() {
		c.usageRepo, err = c.initUsageRepository()
		if err != nil {
			c.initErrors["usageRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["usageRepo"]; exists {
		return nil, storedErr
	}
	return c.usageRepo, nil
}

// UsageUseCase returns the usage telemetry use case.
func (c *Container) UsageUseCase() (telemetryUseCase.UsageUseCase, error) {
	var err error
	c.usageUseCaseInit.Do(func() {
		c.usageUseCase, err = c.initUsageUseCase()
		if err != nil {
			c.initErrors["usageUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["usageUseCase"]; exists {
		return nil, storedErr
	}
	return c.usageUseCase, nil
}

// StatsHandler creates the usage stats HTTP handler with all its dependencies.
func (c *Container) StatsHandler() (*telemetryHTTP.StatsHandler, error) {
	usageUseCase, err := c.UsageUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage use case for stats handler: %w", err)
	}

	return telemetryHTTP.NewStatsHandler(usageUseCase, c.Logger()), nil
}

// initUsageRepository creates the usage repository based on the database driver.
func (c *Container) initUsageRepository() (telemetryUseCase.UsageRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for usage repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return telemetryRepository.NewPostgreSQLUsageRepository(db), nil
	case "mysql":
		return telemetryRepository.NewMySQLUsageRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initUsageUseCase creates the usage use case with all its dependencies.
func (c *Container) initUsageUseCase() (telemetryUseCase.UsageUseCase, error) {
	usageRepo, err := c.UsageRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage repository for usage use case: %w", err)
	}

	return telemetryUseCase.NewUsageUseCase(usageRepo), nil
}
