// Package facade exposes the tenant encryption service as one explicit client
// object for embedding callers. It validates purposes at the boundary, binds
// the purpose-specific helpers and fans the self-test out across purposes.
package facade

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/tenantcrypto/internal/crypto/cache"
	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
	recoveryUsecase "github.com/allisson/tenantcrypto/internal/recovery/usecase"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
	telemetryUsecase "github.com/allisson/tenantcrypto/internal/telemetry/usecase"
)

// PurposeResult is the outcome of one purpose's round trip in TestEncryption.
type PurposeResult struct {
	Purpose cryptoDomain.Purpose `json:"purpose"`
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Latency time.Duration        `json:"latency"`
}

// Client is the embedding-facing surface of the tenant encryption service.
// Construct one with New and share it; all methods are safe for concurrent use.
type Client struct {
	tenantKeys cryptoUsecase.TenantKeyUseCase
	envelopes  cryptoUsecase.EnvelopeUseCase
	rotation   cryptoUsecase.RotationUseCase
	usage      telemetryUsecase.UsageUseCase
	recovery   recoveryUsecase.RecoveryUseCase
	keyCache   *cache.KeyCache
}

// New creates a Client from explicitly injected use cases.
func New(
	tenantKeys cryptoUsecase.TenantKeyUseCase,
	envelopes cryptoUsecase.EnvelopeUseCase,
	rotation cryptoUsecase.RotationUseCase,
	usage telemetryUsecase.UsageUseCase,
	recovery recoveryUsecase.RecoveryUseCase,
	keyCache *cache.KeyCache,
) *Client {
	return &Client{
		tenantKeys: tenantKeys,
		envelopes:  envelopes,
		rotation:   rotation,
		usage:      usage,
		recovery:   recovery,
		keyCache:   keyCache,
	}
}

// Encrypt protects plaintext for the named purpose. The purpose string is
// validated against the closed purpose set before any key work happens.
func (c *Client) Encrypt(
	ctx context.Context,
	tenantID string,
	plaintext []byte,
	purpose string,
	encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	p, err := cryptoDomain.ParsePurpose(purpose)
	if err != nil {
		return "", err
	}
	return c.envelopes.Encrypt(ctx, tenantID, plaintext, p, encCtx)
}

// Decrypt recovers plaintext from a serialized envelope.
func (c *Client) Decrypt(
	ctx context.Context,
	tenantID string,
	envelope string,
	purpose string,
	encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	p, err := cryptoDomain.ParsePurpose(purpose)
	if err != nil {
		return nil, err
	}
	return c.envelopes.Decrypt(ctx, tenantID, envelope, p, encCtx)
}

// EncryptPII encrypts under the tenant's pii data key.
func (c *Client) EncryptPII(
	ctx context.Context, tenantID string, plaintext []byte, encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	return c.envelopes.Encrypt(ctx, tenantID, plaintext, cryptoDomain.PurposePII, encCtx)
}

// DecryptPII decrypts an envelope produced under the tenant's pii keys.
func (c *Client) DecryptPII(
	ctx context.Context, tenantID string, envelope string, encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	return c.envelopes.Decrypt(ctx, tenantID, envelope, cryptoDomain.PurposePII, encCtx)
}

// EncryptFinancial encrypts under the tenant's financial data key.
func (c *Client) EncryptFinancial(
	ctx context.Context, tenantID string, plaintext []byte, encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	return c.envelopes.Encrypt(ctx, tenantID, plaintext, cryptoDomain.PurposeFinancial, encCtx)
}

// DecryptFinancial decrypts an envelope produced under the tenant's financial keys.
func (c *Client) DecryptFinancial(
	ctx context.Context, tenantID string, envelope string, encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	return c.envelopes.Decrypt(ctx, tenantID, envelope, cryptoDomain.PurposeFinancial, encCtx)
}

// EncryptAudit encrypts under the tenant's audit data key.
func (c *Client) EncryptAudit(
	ctx context.Context, tenantID string, plaintext []byte, encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	return c.envelopes.Encrypt(ctx, tenantID, plaintext, cryptoDomain.PurposeAudit, encCtx)
}

// DecryptAudit decrypts an envelope produced under the tenant's audit keys.
func (c *Client) DecryptAudit(
	ctx context.Context, tenantID string, envelope string, encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	return c.envelopes.Decrypt(ctx, tenantID, envelope, cryptoDomain.PurposeAudit, encCtx)
}

// EncryptCompliance encrypts under the tenant's compliance data key.
func (c *Client) EncryptCompliance(
	ctx context.Context, tenantID string, plaintext []byte, encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	return c.envelopes.Encrypt(ctx, tenantID, plaintext, cryptoDomain.PurposeCompliance, encCtx)
}

// DecryptCompliance decrypts an envelope produced under the tenant's compliance keys.
func (c *Client) DecryptCompliance(
	ctx context.Context, tenantID string, envelope string, encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	return c.envelopes.Decrypt(ctx, tenantID, envelope, cryptoDomain.PurposeCompliance, encCtx)
}

// EncryptGeneral encrypts under the tenant's general data key.
func (c *Client) EncryptGeneral(
	ctx context.Context, tenantID string, plaintext []byte, encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	return c.envelopes.Encrypt(ctx, tenantID, plaintext, cryptoDomain.PurposeGeneral, encCtx)
}

// DecryptGeneral decrypts an envelope produced under the tenant's general keys.
func (c *Client) DecryptGeneral(
	ctx context.Context, tenantID string, envelope string, encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	return c.envelopes.Decrypt(ctx, tenantID, envelope, cryptoDomain.PurposeGeneral, encCtx)
}

// CreateTenantKeys bootstraps the tenant's key hierarchy. Idempotent.
func (c *Client) CreateTenantKeys(ctx context.Context, tenantID string) error {
	return c.tenantKeys.CreateTenantKeys(ctx, tenantID)
}

// GetKeyInfo returns every key version for the tenant with material stripped.
func (c *Client) GetKeyInfo(ctx context.Context, tenantID string) ([]cryptoDomain.Info, error) {
	return c.tenantKeys.GetKeyInfo(ctx, tenantID)
}

// RotateKey rotates the tenant's data key for the named purpose.
func (c *Client) RotateKey(
	ctx context.Context, tenantID, purpose, reason string,
) (*cryptoDomain.TenantKey, error) {
	p, err := cryptoDomain.ParsePurpose(purpose)
	if err != nil {
		return nil, err
	}
	return c.rotation.RotateKey(ctx, tenantID, p, reason)
}

// RotateMasterKey rotates the tenant master key, rewrapping active data keys.
func (c *Client) RotateMasterKey(
	ctx context.Context, tenantID, reason string,
) (*cryptoDomain.TenantKey, error) {
	return c.rotation.RotateMasterKey(ctx, tenantID, reason)
}

// GetCryptoStats aggregates the tenant's usage by (operation, day).
func (c *Client) GetCryptoStats(
	ctx context.Context, tenantID string, days int,
) ([]*telemetryDomain.UsageAggregate, error) {
	return c.usage.GetCryptoStats(ctx, tenantID, days)
}

// GenerateRecoveryBundle creates and escrows a recovery secret for the tenant.
func (c *Client) GenerateRecoveryBundle(
	ctx context.Context, tenantID string,
) (*recoveryUsecase.RecoveryBundle, error) {
	return c.recovery.GenerateRecoveryBundle(ctx, tenantID)
}

// ClearCache drops the tenant's cached key material. With a purpose it drops
// that purpose only; with an empty purpose it drops everything the tenant owns.
func (c *Client) ClearCache(tenantID string, purpose string) error {
	if purpose == "" {
		c.keyCache.Invalidate(tenantID, nil)
		return nil
	}

	p, err := cryptoDomain.ParsePurpose(purpose)
	if err != nil {
		return err
	}
	c.keyCache.Invalidate(tenantID, &p)
	return nil
}

// IsEncrypted reports whether data looks like a serialized envelope.
func (c *Client) IsEncrypted(data string) bool {
	return cryptoDomain.IsEncrypted(data)
}

// EstimateEncryptedSize returns the upper bound on the serialized envelope
// length for a plaintext of the given size.
func (c *Client) EstimateEncryptedSize(plaintextLen int) int {
	return cryptoDomain.EstimateEncryptedSize(plaintextLen)
}

// TestEncryption round-trips a sample value through every requested purpose
// concurrently and reports the per-purpose outcome. With no purposes given it
// exercises the full purpose set. An individual purpose failing is reported in
// its result, not as an error from this method; only an invalid purpose name
// fails the call itself.
func (c *Client) TestEncryption(
	ctx context.Context,
	tenantID string,
	sample []byte,
	purposes []string,
) ([]PurposeResult, error) {
	targets := make([]cryptoDomain.Purpose, 0, len(purposes))
	if len(purposes) == 0 {
		targets = append(targets, cryptoDomain.Purposes...)
	} else {
		for _, raw := range purposes {
			p, err := cryptoDomain.ParsePurpose(raw)
			if err != nil {
				return nil, err
			}
			targets = append(targets, p)
		}
	}

	results := make([]PurposeResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)

	for i, purpose := range targets {
		g.Go(func() error {
			start := time.Now()
			err := c.roundTrip(gctx, tenantID, sample, purpose)

			result := PurposeResult{
				Purpose: purpose,
				Success: err == nil,
				Latency: time.Since(start),
			}
			if err != nil {
				result.Error = err.Error()
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (c *Client) roundTrip(
	ctx context.Context, tenantID string, sample []byte, purpose cryptoDomain.Purpose,
) error {
	encCtx := &cryptoDomain.EncryptionContext{TableName: "selftest", FieldName: string(purpose)}

	envelope, err := c.envelopes.Encrypt(ctx, tenantID, sample, purpose, encCtx)
	if err != nil {
		return err
	}

	decrypted, err := c.envelopes.Decrypt(ctx, tenantID, envelope, purpose, encCtx)
	if err != nil {
		return err
	}

	if string(decrypted) != string(sample) {
		return cryptoDomain.ErrDecryptionFailed
	}

	return nil
}
