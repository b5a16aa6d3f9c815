package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	recoveryUsecase "github.com/allisson/tenantcrypto/internal/recovery/usecase"
)

// RunRecoveryBundle generates a recovery bundle for a tenant. The plaintext
// secret is printed exactly once and zeroed afterwards; only its KMS-wrapped
// form is persisted, so losing the output means generating a new bundle.
//
// Requirements: KMS_KEY_URI must be configured.
func RunRecoveryBundle(
	ctx context.Context,
	recoveryUseCase recoveryUsecase.RecoveryUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID string,
) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant-id is required")
	}

	logger.Info("generating recovery bundle", slog.String("tenant_id", tenantID))

	bundle, err := recoveryUseCase.GenerateRecoveryBundle(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to generate recovery bundle: %w", err)
	}
	defer cryptoDomain.Zero(bundle.Secret)

	_, _ = fmt.Fprintln(writer, "# Recovery Bundle")
	_, _ = fmt.Fprintln(writer, "# The secret below is shown exactly once. Store it in a secure escrow location.")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "Label:       %s\n", bundle.Label)
	_, _ = fmt.Fprintf(writer, "Tenant:      %s\n", bundle.TenantID)
	_, _ = fmt.Fprintf(writer, "Fingerprint: %s\n", bundle.Fingerprint)
	_, _ = fmt.Fprintf(writer, "Issued at:   %s\n", bundle.IssuedAt.Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintf(writer, "Secret:      %s\n", base64.StdEncoding.EncodeToString(bundle.Secret))

	logger.Info("recovery bundle generated",
		slog.String("tenant_id", tenantID),
		slog.String("fingerprint", bundle.Fingerprint),
	)
	return nil
}
