package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

func TestRunCryptoStats(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	aggregates := []*telemetryDomain.UsageAggregate{
		{
			Operation:    telemetryDomain.OperationEncrypt,
			Day:          time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
			Count:        120,
			SuccessCount: 118,
			ErrorCount:   2,
			AvgLatencyMS: 3.5,
			MaxLatencyMS: 42,
		},
		{
			Operation:    telemetryDomain.OperationDecrypt,
			Day:          time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
			Count:        80,
			SuccessCount: 80,
			ErrorCount:   0,
			AvgLatencyMS: 2.1,
			MaxLatencyMS: 15,
		},
	}

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &mockUsageUseCase{}
		mockUseCase.On("GetCryptoStats", ctx, "acme-corp", 7).Return(aggregates, nil)

		var out bytes.Buffer
		err := RunCryptoStats(ctx, mockUseCase, logger, &out, "acme-corp", 7, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Usage for tenant acme-corp over the last 7 day(s)")
		require.Contains(t, out.String(), "encrypt count=120 success=118 errors=2")
		require.Contains(t, out.String(), "decrypt count=80")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &mockUsageUseCase{}
		mockUseCase.On("GetCryptoStats", ctx, "acme-corp", 30).Return(aggregates, nil)

		var out bytes.Buffer
		err := RunCryptoStats(ctx, mockUseCase, logger, &out, "acme-corp", 30, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"operation": "encrypt"`)
		require.Contains(t, out.String(), `"count": 120`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("no-usage", func(t *testing.T) {
		mockUseCase := &mockUsageUseCase{}
		mockUseCase.On("GetCryptoStats", ctx, "quiet-tenant", 7).
			Return([]*telemetryDomain.UsageAggregate{}, nil)

		var out bytes.Buffer
		err := RunCryptoStats(ctx, mockUseCase, logger, &out, "quiet-tenant", 7, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "No usage recorded for tenant quiet-tenant")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("missing-tenant-id", func(t *testing.T) {
		mockUseCase := &mockUsageUseCase{}
		err := RunCryptoStats(ctx, mockUseCase, logger, &bytes.Buffer{}, "", 7, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "--tenant-id is required")
	})

	t.Run("invalid-days", func(t *testing.T) {
		mockUseCase := &mockUsageUseCase{}

		for _, days := range []int{0, -1, 366} {
			err := RunCryptoStats(ctx, mockUseCase, logger, &bytes.Buffer{}, "acme-corp", days, "text")
			require.Error(t, err)
			require.Contains(t, err.Error(), "days must be between 1 and 365")
		}
		mockUseCase.AssertNotCalled(t, "GetCryptoStats")
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &mockUsageUseCase{}
		mockUseCase.On("GetCryptoStats", ctx, "acme-corp", 7).
			Return(nil, cryptoDomain.ErrStoreUnavailable)

		err := RunCryptoStats(ctx, mockUseCase, logger, &bytes.Buffer{}, "acme-corp", 7, "text")

		require.Error(t, err)
		require.ErrorIs(t, err, cryptoDomain.ErrStoreUnavailable)
		mockUseCase.AssertExpectations(t)
	})
}
