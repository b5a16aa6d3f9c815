package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
)

// RunKeyInfo lists every key version for a tenant, newest first, with key
// material stripped. Supports text and JSON output formats.
func RunKeyInfo(
	ctx context.Context,
	tenantKeyUseCase cryptoUsecase.TenantKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID, format string,
) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant-id is required")
	}

	logger.Info("listing key info", slog.String("tenant_id", tenantID))

	infos, err := tenantKeyUseCase.GetKeyInfo(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list key info: %w", err)
	}

	if format == "json" {
		return outputKeyInfoJSON(writer, infos)
	}

	outputKeyInfoText(writer, tenantID, infos)
	return nil
}

// outputKeyInfoText outputs key versions in human-readable text format.
func outputKeyInfoText(writer io.Writer, tenantID string, infos []cryptoDomain.Info) {
	if len(infos) == 0 {
		_, _ = fmt.Fprintf(writer, "No keys found for tenant %s\n", tenantID)
		return
	}

	_, _ = fmt.Fprintf(writer, "Keys for tenant %s:\n", tenantID)
	for _, info := range infos {
		_, _ = fmt.Fprintf(
			writer,
			"  %s type=%s purpose=%s version=%d status=%s algorithm=%s fingerprint=%s created=%s\n",
			info.ID,
			info.KeyType,
			info.Purpose,
			info.Version,
			info.Status,
			info.Algorithm,
			info.Fingerprint,
			info.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
}

// outputKeyInfoJSON outputs key versions in JSON format for machine consumption.
func outputKeyInfoJSON(writer io.Writer, infos []cryptoDomain.Info) error {
	jsonBytes, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
