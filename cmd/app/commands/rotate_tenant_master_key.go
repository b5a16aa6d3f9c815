package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
)

// RunRotateTenantMasterKey rotates a tenant's master key and rewraps every
// non-archived data key under the new version in the same transaction. Data
// key material is unchanged, so existing envelopes stay decryptable.
//
// Requirements: The tenant must have an active master key.
func RunRotateTenantMasterKey(
	ctx context.Context,
	rotationUseCase cryptoUsecase.RotationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID, reason string,
) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant-id is required")
	}
	if reason == "" {
		return fmt.Errorf("--reason is required")
	}

	logger.Info("rotating tenant master key",
		slog.String("tenant_id", tenantID),
		slog.String("reason", reason),
	)

	newKey, err := rotationUseCase.RotateMasterKey(ctx, tenantID, reason)
	if err != nil {
		return fmt.Errorf("failed to rotate tenant master key: %w", err)
	}

	_, _ = fmt.Fprintf(
		writer,
		"Rotated master key for tenant %s: version=%d fingerprint=%s\n",
		tenantID,
		newKey.Version,
		newKey.Fingerprint,
	)

	logger.Info("tenant master key rotation completed",
		slog.String("tenant_id", tenantID),
		slog.Uint64("version", uint64(newKey.Version)),
	)
	return nil
}
