package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
	telemetryUsecase "github.com/allisson/tenantcrypto/internal/telemetry/usecase"
)

// RunCryptoStats prints cryptographic usage aggregates for a tenant over the
// trailing window of days, grouped by operation and day. Supports text and JSON
// output formats.
func RunCryptoStats(
	ctx context.Context,
	usageUseCase telemetryUsecase.UsageUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tenantID string,
	days int,
	format string,
) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant-id is required")
	}
	if days < 1 || days > 365 {
		return fmt.Errorf("days must be between 1 and 365, got: %d", days)
	}

	logger.Info("fetching crypto stats",
		slog.String("tenant_id", tenantID),
		slog.Int("days", days),
	)

	aggregates, err := usageUseCase.GetCryptoStats(ctx, tenantID, days)
	if err != nil {
		return fmt.Errorf("failed to fetch crypto stats: %w", err)
	}

	if format == "json" {
		return outputCryptoStatsJSON(writer, aggregates)
	}

	outputCryptoStatsText(writer, tenantID, days, aggregates)
	return nil
}

// outputCryptoStatsText outputs aggregates in human-readable text format.
func outputCryptoStatsText(
	writer io.Writer,
	tenantID string,
	days int,
	aggregates []*telemetryDomain.UsageAggregate,
) {
	if len(aggregates) == 0 {
		_, _ = fmt.Fprintf(writer, "No usage recorded for tenant %s in the last %d day(s)\n", tenantID, days)
		return
	}

	_, _ = fmt.Fprintf(writer, "Usage for tenant %s over the last %d day(s):\n", tenantID, days)
	for _, agg := range aggregates {
		_, _ = fmt.Fprintf(
			writer,
			"  %s %s count=%d success=%d errors=%d avg_latency_ms=%.2f max_latency_ms=%d\n",
			agg.Day.Format("2006-01-02"),
			agg.Operation,
			agg.Count,
			agg.SuccessCount,
			agg.ErrorCount,
			agg.AvgLatencyMS,
			agg.MaxLatencyMS,
		)
	}
}

// outputCryptoStatsJSON outputs aggregates in JSON format for machine consumption.
func outputCryptoStatsJSON(writer io.Writer, aggregates []*telemetryDomain.UsageAggregate) error {
	jsonBytes, err := json.MarshalIndent(aggregates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
