package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/tenantcrypto/internal/database"
	apperrors "github.com/allisson/tenantcrypto/internal/errors"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

// MySQLUsageRepository implements usage record persistence for MySQL.
// Identifiers are stored as BINARY(16).
type MySQLUsageRepository struct {
	db *sql.DB
}

// NewMySQLUsageRepository creates a repository bound to the given database.
func NewMySQLUsageRepository(db *sql.DB) *MySQLUsageRepository {
	return &MySQLUsageRepository{db: db}
}

// Create inserts one usage record.
func (m *MySQLUsageRepository) Create(ctx context.Context, record *telemetryDomain.UsageRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO usage_records (id, tenant_id, operation, purpose, success, latency_ms, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal usage record id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		record.TenantID,
		record.Operation,
		record.Purpose,
		record.Success,
		record.LatencyMS,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create usage record")
	}
	return nil
}

// Aggregate rolls usage records up by (operation, day) for one tenant since the
// given instant, newest day first.
func (m *MySQLUsageRepository) Aggregate(
	ctx context.Context, tenantID string, since time.Time,
) ([]*telemetryDomain.UsageAggregate, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT operation,
				DATE(created_at) AS day,
				COUNT(*),
				SUM(success = 1),
				SUM(success = 0),
				AVG(latency_ms),
				MAX(latency_ms)
			  FROM usage_records
			  WHERE tenant_id = ? AND created_at >= ?
			  GROUP BY operation, day
			  ORDER BY day DESC, operation`

	rows, err := querier.QueryContext(ctx, query, tenantID, since)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to aggregate usage records")
	}
	defer func() {
		_ = rows.Close()
	}()

	aggregates := make([]*telemetryDomain.UsageAggregate, 0)
	for rows.Next() {
		var agg telemetryDomain.UsageAggregate
		err := rows.Scan(
			&agg.Operation,
			&agg.Day,
			&agg.Count,
			&agg.SuccessCount,
			&agg.ErrorCount,
			&agg.AvgLatencyMS,
			&agg.MaxLatencyMS,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan usage aggregate")
		}
		aggregates = append(aggregates, &agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return aggregates, nil
}

// DeleteOlderThan removes records created before the cutoff and reports how many.
func (m *MySQLUsageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM usage_records WHERE created_at < ?`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete usage records")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted usage records")
	}
	return deleted, nil
}
