// Package service provides cryptographic services for tenant-scoped envelope
// encryption. Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), the
// tenant key manager, and the KMS keeper used for recovery escrow.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager defines the interface for creating and unwrapping tenant keys in the
// envelope hierarchy: operator master key → tenant master key → per-purpose data key.
type KeyManager interface {
	// CreateTenantMasterKey generates a tenant master key wrapped by the active
	// operator master key.
	CreateTenantMasterKey(
		masterKey *cryptoDomain.MasterKey,
		tenantID string,
		alg cryptoDomain.Algorithm,
	) (cryptoDomain.TenantKey, error)

	// UnwrapTenantMasterKey recovers the plaintext tenant master key using the
	// operator master key that wrapped it.
	UnwrapTenantMasterKey(key *cryptoDomain.TenantKey, masterKey *cryptoDomain.MasterKey) ([]byte, error)

	// CreateDataKey generates a per-purpose data key wrapped by the tenant master key.
	// The tenant master key must have its plaintext Key field populated.
	CreateDataKey(
		tenantMaster *cryptoDomain.TenantKey,
		purpose cryptoDomain.Purpose,
		alg cryptoDomain.Algorithm,
	) (cryptoDomain.TenantKey, error)

	// UnwrapDataKey recovers the plaintext data key using the tenant master key
	// that wrapped it.
	UnwrapDataKey(key *cryptoDomain.TenantKey, tenantMaster *cryptoDomain.TenantKey) ([]byte, error)

	// RewrapDataKey re-encrypts an existing data key under a new tenant master key
	// version without changing the data key material or fingerprint.
	RewrapDataKey(key *cryptoDomain.TenantKey, plainKey []byte, newMaster *cryptoDomain.TenantKey) error
}

// KMSKeeper is the narrow wrap/unwrap surface of a gocloud.dev secrets keeper.
// The operator-scope keeper protects recovery escrow material outside tenant scope.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}
