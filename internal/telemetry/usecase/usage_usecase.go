package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	apperrors "github.com/allisson/tenantcrypto/internal/errors"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

// defaultStatsWindowDays bounds GetCryptoStats when the caller passes no window.
const defaultStatsWindowDays = 7

// usageUseCase implements UsageUseCase backed by a usage repository.
type usageUseCase struct {
	usageRepo UsageRepository
}

// Record appends one usage record. Generates a UUIDv7 identifier and timestamp;
// latencies are stored as whole milliseconds.
func (u *usageUseCase) Record(
	ctx context.Context,
	tenantID string,
	operation telemetryDomain.Operation,
	purpose cryptoDomain.Purpose,
	success bool,
	latency time.Duration,
) error {
	record := &telemetryDomain.UsageRecord{
		ID:        uuid.Must(uuid.NewV7()),
		TenantID:  tenantID,
		Operation: operation,
		Purpose:   purpose,
		Success:   success,
		LatencyMS: latency.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}

	if err := u.usageRepo.Create(ctx, record); err != nil {
		return apperrors.Wrap(err, "failed to record usage")
	}

	return nil
}

// GetCryptoStats aggregates usage by (operation, day) over the trailing window.
// A non-positive days value falls back to the default window. Returns
// ErrTenantInvalid for an empty tenant identifier.
func (u *usageUseCase) GetCryptoStats(
	ctx context.Context, tenantID string, days int,
) ([]*telemetryDomain.UsageAggregate, error) {
	if tenantID == "" {
		return nil, cryptoDomain.ErrTenantInvalid
	}
	if days <= 0 {
		days = defaultStatsWindowDays
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	aggregates, err := u.usageRepo.Aggregate(ctx, tenantID, since)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to aggregate usage")
	}

	return aggregates, nil
}

// Prune deletes records older than the retention window and reports how many.
func (u *usageUseCase) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "retention must be positive")
	}

	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := u.usageRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to prune usage records")
	}

	return deleted, nil
}

// NewUsageUseCase creates a new UsageUseCase with the provided dependencies.
func NewUsageUseCase(usageRepo UsageRepository) UsageUseCase {
	return &usageUseCase{
		usageRepo: usageRepo,
	}
}
