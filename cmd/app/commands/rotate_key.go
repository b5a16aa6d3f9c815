package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
)

// RunRotateKey rotates the active data key for a (tenant, purpose) pair.
// Creates a new key version and archives the previous active one. Envelopes
// sealed under the old version remain decryptable.
//
// Requirements: The tenant must have an active data key for the purpose.
func RunRotateKey(
	ctx context.Context,
	rotationUseCase cryptoUsecase.RotationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID, purposeStr, reason string,
) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant-id is required")
	}
	if reason == "" {
		return fmt.Errorf("--reason is required")
	}

	purpose, err := cryptoDomain.ParsePurpose(purposeStr)
	if err != nil {
		return fmt.Errorf(
			"invalid purpose: %s (valid options: general, pii, financial, audit, compliance)",
			purposeStr,
		)
	}

	logger.Info("rotating data key",
		slog.String("tenant_id", tenantID),
		slog.String("purpose", string(purpose)),
		slog.String("reason", reason),
	)

	newKey, err := rotationUseCase.RotateKey(ctx, tenantID, purpose, reason)
	if err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}

	_, _ = fmt.Fprintf(
		writer,
		"Rotated %s key for tenant %s: version=%d fingerprint=%s\n",
		purpose,
		tenantID,
		newKey.Version,
		newKey.Fingerprint,
	)

	logger.Info("data key rotation completed",
		slog.String("tenant_id", tenantID),
		slog.String("purpose", string(purpose)),
		slog.Uint64("version", uint64(newKey.Version)),
	)
	return nil
}
