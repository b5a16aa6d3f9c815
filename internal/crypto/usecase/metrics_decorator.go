package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	"github.com/allisson/tenantcrypto/internal/metrics"
)

const metricsDomain = "crypto"

func operationStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// envelopeUseCaseWithMetrics decorates EnvelopeUseCase with metrics instrumentation.
type envelopeUseCaseWithMetrics struct {
	next    EnvelopeUseCase
	metrics metrics.BusinessMetrics
}

// NewEnvelopeUseCaseWithMetrics wraps an EnvelopeUseCase with metrics recording.
func NewEnvelopeUseCaseWithMetrics(useCase EnvelopeUseCase, m metrics.BusinessMetrics) EnvelopeUseCase {
	return &envelopeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Encrypt records metrics for envelope encryption operations.
func (e *envelopeUseCaseWithMetrics) Encrypt(
	ctx context.Context,
	tenantID string,
	plaintext []byte,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	start := time.Now()
	envelope, err := e.next.Encrypt(ctx, tenantID, plaintext, purpose, encCtx)

	status := operationStatus(err)
	e.metrics.RecordOperation(ctx, metricsDomain, "envelope_encrypt", status)
	e.metrics.RecordDuration(ctx, metricsDomain, "envelope_encrypt", time.Since(start), status)

	return envelope, err
}

// Decrypt records metrics for envelope decryption operations.
func (e *envelopeUseCaseWithMetrics) Decrypt(
	ctx context.Context,
	tenantID string,
	envelope string,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := e.next.Decrypt(ctx, tenantID, envelope, purpose, encCtx)

	status := operationStatus(err)
	e.metrics.RecordOperation(ctx, metricsDomain, "envelope_decrypt", status)
	e.metrics.RecordDuration(ctx, metricsDomain, "envelope_decrypt", time.Since(start), status)

	return plaintext, err
}

// rotationUseCaseWithMetrics decorates RotationUseCase with metrics instrumentation.
type rotationUseCaseWithMetrics struct {
	next    RotationUseCase
	metrics metrics.BusinessMetrics
}

// NewRotationUseCaseWithMetrics wraps a RotationUseCase with metrics recording.
func NewRotationUseCaseWithMetrics(useCase RotationUseCase, m metrics.BusinessMetrics) RotationUseCase {
	return &rotationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// RotateKey records metrics for data key rotation operations.
func (r *rotationUseCaseWithMetrics) RotateKey(
	ctx context.Context,
	tenantID string,
	purpose cryptoDomain.Purpose,
	reason string,
) (*cryptoDomain.TenantKey, error) {
	start := time.Now()
	key, err := r.next.RotateKey(ctx, tenantID, purpose, reason)

	status := operationStatus(err)
	r.metrics.RecordOperation(ctx, metricsDomain, "key_rotate", status)
	r.metrics.RecordDuration(ctx, metricsDomain, "key_rotate", time.Since(start), status)

	return key, err
}

// RotateMasterKey records metrics for tenant master key rotation operations.
func (r *rotationUseCaseWithMetrics) RotateMasterKey(
	ctx context.Context,
	tenantID, reason string,
) (*cryptoDomain.TenantKey, error) {
	start := time.Now()
	key, err := r.next.RotateMasterKey(ctx, tenantID, reason)

	status := operationStatus(err)
	r.metrics.RecordOperation(ctx, metricsDomain, "master_key_rotate", status)
	r.metrics.RecordDuration(ctx, metricsDomain, "master_key_rotate", time.Since(start), status)

	return key, err
}

// tenantKeyUseCaseWithMetrics decorates TenantKeyUseCase with metrics instrumentation.
type tenantKeyUseCaseWithMetrics struct {
	next    TenantKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewTenantKeyUseCaseWithMetrics wraps a TenantKeyUseCase with metrics recording.
func NewTenantKeyUseCaseWithMetrics(useCase TenantKeyUseCase, m metrics.BusinessMetrics) TenantKeyUseCase {
	return &tenantKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CreateTenantKeys records metrics for tenant bootstrap operations.
func (t *tenantKeyUseCaseWithMetrics) CreateTenantKeys(ctx context.Context, tenantID string) error {
	start := time.Now()
	err := t.next.CreateTenantKeys(ctx, tenantID)

	status := operationStatus(err)
	t.metrics.RecordOperation(ctx, metricsDomain, "tenant_bootstrap", status)
	t.metrics.RecordDuration(ctx, metricsDomain, "tenant_bootstrap", time.Since(start), status)

	return err
}

// GetKeyInfo records metrics for key info lookups.
func (t *tenantKeyUseCaseWithMetrics) GetKeyInfo(
	ctx context.Context, tenantID string,
) ([]cryptoDomain.Info, error) {
	start := time.Now()
	infos, err := t.next.GetKeyInfo(ctx, tenantID)

	status := operationStatus(err)
	t.metrics.RecordOperation(ctx, metricsDomain, "key_info", status)
	t.metrics.RecordDuration(ctx, metricsDomain, "key_info", time.Since(start), status)

	return infos, err
}

// UpdateStatus records metrics for key status transitions.
func (t *tenantKeyUseCaseWithMetrics) UpdateStatus(
	ctx context.Context,
	keyID uuid.UUID,
	status cryptoDomain.KeyStatus,
) error {
	start := time.Now()
	err := t.next.UpdateStatus(ctx, keyID, status)

	opStatus := operationStatus(err)
	t.metrics.RecordOperation(ctx, metricsDomain, "key_status_update", opStatus)
	t.metrics.RecordDuration(ctx, metricsDomain, "key_status_update", time.Since(start), opStatus)

	return err
}
