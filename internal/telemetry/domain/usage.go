// Package domain defines the entities for cryptographic usage telemetry.
//
// Every encrypt and decrypt attempt produces a UsageRecord, successful or not.
// Records are append-only and pruned after a retention window; reads aggregate
// them into per-operation, per-day statistics.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// Operation identifies the cryptographic operation a usage record describes.
type Operation string

const (
	OperationEncrypt Operation = "encrypt"
	OperationDecrypt Operation = "decrypt"
)

// UsageRecord is one observed cryptographic operation attempt.
type UsageRecord struct {
	ID        uuid.UUID            `json:"id"`
	TenantID  string               `json:"tenant_id"`
	Operation Operation            `json:"operation"`
	Purpose   cryptoDomain.Purpose `json:"purpose"`
	Success   bool                 `json:"success"`
	LatencyMS int64                `json:"latency_ms"`
	CreatedAt time.Time            `json:"created_at"`
}

// UsageAggregate is the per-(operation, day) rollup returned by stats queries.
type UsageAggregate struct {
	Operation    Operation `json:"operation"`
	Day          time.Time `json:"day"`
	Count        int64     `json:"count"`
	SuccessCount int64     `json:"success_count"`
	ErrorCount   int64     `json:"error_count"`
	AvgLatencyMS float64   `json:"avg_latency_ms"`
	MaxLatencyMS int64     `json:"max_latency_ms"`
}
