// Package usecase defines business logic interfaces for usage telemetry.
package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

// UsageRepository defines persistence operations for usage records.
// Implementations must support transaction-aware operations via context propagation.
type UsageRepository interface {
	// Create stores a new usage record.
	Create(ctx context.Context, record *telemetryDomain.UsageRecord) error

	// Aggregate rolls records up by (operation, day) for one tenant since the given instant.
	Aggregate(ctx context.Context, tenantID string, since time.Time) ([]*telemetryDomain.UsageAggregate, error)

	// DeleteOlderThan removes records created before the cutoff and reports how many.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UsageUseCase defines business logic operations for cryptographic usage telemetry.
type UsageUseCase interface {
	// Record appends one usage record for an encrypt or decrypt attempt.
	Record(
		ctx context.Context,
		tenantID string,
		operation telemetryDomain.Operation,
		purpose cryptoDomain.Purpose,
		success bool,
		latency time.Duration,
	) error

	// GetCryptoStats aggregates usage by (operation, day) over the trailing window.
	GetCryptoStats(ctx context.Context, tenantID string, days int) ([]*telemetryDomain.UsageAggregate, error)

	// Prune deletes records older than the retention window and reports how many.
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}
