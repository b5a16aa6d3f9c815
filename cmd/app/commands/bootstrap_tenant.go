package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
)

// RunBootstrapTenant provisions the key hierarchy for a tenant: one tenant master
// key plus one data key per purpose, created atomically. The operation is
// idempotent, so re-running it for a provisioned tenant is a no-op.
//
// Requirements: Database must be migrated and MASTER_KEYS must be set.
func RunBootstrapTenant(
	ctx context.Context,
	tenantKeyUseCase cryptoUsecase.TenantKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID string,
) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant-id is required")
	}

	logger.Info("bootstrapping tenant", slog.String("tenant_id", tenantID))

	if err := tenantKeyUseCase.CreateTenantKeys(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to bootstrap tenant: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Tenant %s provisioned\n", tenantID)

	logger.Info("tenant bootstrap completed", slog.String("tenant_id", tenantID))
	return nil
}
