package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/allisson/tenantcrypto/internal/crypto/cache"
	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoService "github.com/allisson/tenantcrypto/internal/crypto/service"
	apperrors "github.com/allisson/tenantcrypto/internal/errors"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

// envelopeUseCase implements EnvelopeUseCase: field-level envelope encryption
// under the tenant's per-purpose data keys.
type envelopeUseCase struct {
	tenantKeyRepo  TenantKeyRepository
	keyManager     cryptoService.KeyManager
	aeadManager    cryptoService.AEADManager
	masterKeyChain *cryptoDomain.MasterKeyChain
	keyCache       *cache.KeyCache
	usage          UsageRecorder
	logger         *slog.Logger
	storeTimeout   time.Duration
}

// Encrypt protects plaintext under the tenant's active data key for the purpose.
// Every attempt is recorded to usage telemetry, successful or not, before the
// result is returned.
func (e *envelopeUseCase) Encrypt(
	ctx context.Context,
	tenantID string,
	plaintext []byte,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	start := time.Now()
	envelope, err := e.encrypt(ctx, tenantID, plaintext, purpose, encCtx)
	e.recordUsage(ctx, tenantID, telemetryDomain.OperationEncrypt, purpose, err == nil, time.Since(start))
	return envelope, err
}

func (e *envelopeUseCase) encrypt(
	ctx context.Context,
	tenantID string,
	plaintext []byte,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	if tenantID == "" {
		return "", cryptoDomain.ErrTenantInvalid
	}

	entry, err := e.activeDataKey(ctx, tenantID, purpose)
	if err != nil {
		return "", err
	}
	defer cryptoDomain.Zero(entry.Key)

	cipher, err := e.aeadManager.CreateCipher(entry.Key, entry.Algorithm)
	if err != nil {
		return "", err
	}

	aad := encCtx.AssociatedData(tenantID, purpose)
	ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encrypt")
	}

	envelope := cryptoDomain.EncryptionEnvelope{
		Algorithm:   entry.Algorithm,
		Fingerprint: entry.Fingerprint,
		Nonce:       nonce,
		Ciphertext:  ciphertext,
	}

	return envelope.String(), nil
}

// Decrypt recovers plaintext from a serialized envelope. The key version is
// located by the envelope's fingerprint, any status, so archived keys keep
// old ciphertext readable. Any tenant, context or integrity mismatch fails
// closed with ErrDecryptionFailed.
func (e *envelopeUseCase) Decrypt(
	ctx context.Context,
	tenantID string,
	envelope string,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := e.decrypt(ctx, tenantID, envelope, purpose, encCtx)
	e.recordUsage(ctx, tenantID, telemetryDomain.OperationDecrypt, purpose, err == nil, time.Since(start))
	return plaintext, err
}

func (e *envelopeUseCase) decrypt(
	ctx context.Context,
	tenantID string,
	envelope string,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	if tenantID == "" {
		return nil, cryptoDomain.ErrTenantInvalid
	}

	env, err := cryptoDomain.ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	entry, err := e.dataKeyByFingerprint(ctx, tenantID, purpose, env.Fingerprint)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(entry.Key)

	cipher, err := e.aeadManager.CreateCipher(entry.Key, env.Algorithm)
	if err != nil {
		return nil, err
	}

	aad := encCtx.AssociatedData(tenantID, purpose)
	plaintext, err := cipher.Decrypt(env.Ciphertext, env.Nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}

// activeDataKey resolves the active data key for (tenant, purpose), consulting
// the cache before the store. Store round-trips run under the configured
// timeout; a deadline hit surfaces as ErrStoreUnavailable.
func (e *envelopeUseCase) activeDataKey(
	ctx context.Context, tenantID string, purpose cryptoDomain.Purpose,
) (cache.Entry, error) {
	if entry, ok := e.keyCache.GetActive(tenantID, purpose); ok {
		return entry, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	row, err := e.tenantKeyRepo.GetActive(storeCtx, tenantID, purpose, cryptoDomain.KeyTypeData)
	if err != nil {
		return cache.Entry{}, storeError(err)
	}

	plainKey, err := e.unwrapDataKey(storeCtx, row)
	if err != nil {
		return cache.Entry{}, err
	}

	entry := cache.Entry{Key: plainKey, Fingerprint: row.Fingerprint, Algorithm: row.Algorithm}
	e.keyCache.SetActive(tenantID, purpose, entry)
	e.keyCache.SetByFingerprint(tenantID, purpose, row.Fingerprint, entry)

	return entry, nil
}

// dataKeyByFingerprint resolves the key version an envelope references,
// regardless of status. An unknown fingerprint fails closed as
// ErrDecryptionFailed rather than disclosing key existence.
func (e *envelopeUseCase) dataKeyByFingerprint(
	ctx context.Context, tenantID string, purpose cryptoDomain.Purpose, fingerprint string,
) (cache.Entry, error) {
	if entry, ok := e.keyCache.GetByFingerprint(tenantID, purpose, fingerprint); ok {
		return entry, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	row, err := e.tenantKeyRepo.GetByFingerprint(storeCtx, tenantID, fingerprint)
	if err != nil {
		if apperrors.Is(err, cryptoDomain.ErrKeyNotFound) {
			return cache.Entry{}, cryptoDomain.ErrDecryptionFailed
		}
		return cache.Entry{}, storeError(err)
	}

	plainKey, err := e.unwrapDataKey(storeCtx, row)
	if err != nil {
		return cache.Entry{}, err
	}

	entry := cache.Entry{Key: plainKey, Fingerprint: row.Fingerprint, Algorithm: row.Algorithm}
	e.keyCache.SetByFingerprint(tenantID, purpose, fingerprint, entry)

	return entry, nil
}

// unwrapDataKey walks the hierarchy down: operator master key unwraps the
// tenant master key, which unwraps the data key. Intermediate plaintext is
// zeroed before returning.
func (e *envelopeUseCase) unwrapDataKey(
	ctx context.Context, row *cryptoDomain.TenantKey,
) ([]byte, error) {
	if row.WrappedBy == nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "data key has no wrapping key reference")
	}

	tenantMaster, err := e.tenantKeyRepo.GetByID(ctx, *row.WrappedBy)
	if err != nil {
		return nil, storeError(err)
	}

	masterKey, found := e.masterKeyChain.Get(tenantMaster.MasterKeyID)
	if !found {
		return nil, cryptoDomain.ErrMasterKeyNotFound
	}

	masterPlain, err := e.keyManager.UnwrapTenantMasterKey(tenantMaster, masterKey)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(masterPlain)
	tenantMaster.Key = masterPlain

	return e.keyManager.UnwrapDataKey(row, tenantMaster)
}

// recordUsage appends one telemetry record. Telemetry failures are logged and
// swallowed: observability must never break the crypto path.
func (e *envelopeUseCase) recordUsage(
	ctx context.Context,
	tenantID string,
	operation telemetryDomain.Operation,
	purpose cryptoDomain.Purpose,
	success bool,
	latency time.Duration,
) {
	if err := e.usage.Record(ctx, tenantID, operation, purpose, success, latency); err != nil {
		e.logger.WarnContext(ctx, "failed to record usage",
			"tenant_id", tenantID,
			"operation", string(operation),
			"error", err,
		)
	}
}

// storeError maps store deadline hits to the retryable ErrStoreUnavailable.
func storeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return cryptoDomain.ErrStoreUnavailable
	}
	return err
}

// NewEnvelopeUseCase creates a new EnvelopeUseCase with the provided dependencies.
func NewEnvelopeUseCase(
	tenantKeyRepo TenantKeyRepository,
	keyManager cryptoService.KeyManager,
	aeadManager cryptoService.AEADManager,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	keyCache *cache.KeyCache,
	usage UsageRecorder,
	logger *slog.Logger,
	storeTimeout time.Duration,
) EnvelopeUseCase {
	return &envelopeUseCase{
		tenantKeyRepo:  tenantKeyRepo,
		keyManager:     keyManager,
		aeadManager:    aeadManager,
		masterKeyChain: masterKeyChain,
		keyCache:       keyCache,
		usage:          usage,
		logger:         logger,
		storeTimeout:   storeTimeout,
	}
}
