package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	telemetryUsecase "github.com/allisson/tenantcrypto/internal/telemetry/usecase"
)

// RunPruneUsage deletes usage records older than the retention window and
// reports how many rows were removed. Supports text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunPruneUsage(
	ctx context.Context,
	usageUseCase telemetryUsecase.UsageUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	format string,
) error {
	if days < 1 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("pruning usage records", slog.Int("days", days))

	retention := time.Duration(days) * 24 * time.Hour
	count, err := usageUseCase.Prune(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to prune usage records: %w", err)
	}

	if format == "json" {
		outputPruneJSON(writer, count, days)
	} else {
		outputPruneText(writer, count, days)
	}

	logger.Info("usage prune completed",
		slog.Int64("count", count),
		slog.Int("days", days),
	)
	return nil
}

// outputPruneText outputs the result in human-readable text format.
func outputPruneText(writer io.Writer, count int64, days int) {
	_, _ = fmt.Fprintf(writer, "Successfully deleted %d usage record(s) older than %d day(s)\n", count, days)
}

// outputPruneJSON outputs the result in JSON format for machine consumption.
func outputPruneJSON(writer io.Writer, count int64, days int) {
	result := map[string]interface{}{
		"count": count,
		"days":  days,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(writer, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
