package domain

import (
	"github.com/allisson/tenantcrypto/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for key lifecycle and envelope encryption failures.
// All errors are mapped to appropriate HTTP status codes by the error
// handling layer.
var (
	// ErrTenantInvalid indicates the tenant identifier is empty or malformed.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrTenantInvalid = errors.Wrap(errors.ErrInvalidInput, "invalid tenant")

	// ErrInvalidPurpose indicates the purpose is outside the closed purpose set.
	//
	// Valid purposes: general, pii, financial, audit, compliance.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidPurpose = errors.Wrap(errors.ErrInvalidInput, "invalid purpose")

	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	//
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// All keys (operator master keys, tenant master keys, and data keys) must be
	// exactly 32 bytes (256 bits).
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrNoActiveKey indicates no active key exists for the (tenant, purpose).
	//
	// Returned when encryption is attempted for a tenant that was never
	// bootstrapped. Encryption fails rather than silently storing plaintext.
	//
	// HTTP Status: 404 Not Found
	ErrNoActiveKey = errors.Wrap(errors.ErrNotFound, "no active key")

	// ErrKeyNotFound indicates the referenced key version does not exist.
	//
	// HTTP Status: 404 Not Found
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This error can occur due to:
	//   - Wrong tenant's key used (cross-tenant access attempt)
	//   - Ciphertext has been tampered with (authentication failure)
	//   - Encryption context mismatch (wrong table/field binding)
	//   - Corrupted envelope data
	//
	// For security reasons, the specific cause is not disclosed to prevent
	// information leakage that could aid attackers. Decryption always fails
	// closed: no partial plaintext is ever returned.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrInvalidEnvelopeFormat indicates the serialized envelope is malformed.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidEnvelopeFormat = errors.Wrap(errors.ErrInvalidInput, "invalid envelope format")

	// ErrIllegalTransition indicates a key status change outside the legal
	// active → rotating → archived lifecycle.
	//
	// HTTP Status: 409 Conflict
	ErrIllegalTransition = errors.Wrap(errors.ErrConflict, "illegal status transition")

	// ErrRotationInProgress indicates another rotation is in flight for the same
	// (tenant, purpose). The caller may retry after the current rotation commits.
	//
	// HTTP Status: 409 Conflict
	ErrRotationInProgress = errors.Wrap(errors.ErrConflict, "rotation in progress")

	// ErrRotationFailed indicates a rotation aborted before its commit point.
	// The previous key version remains active; no dual-active state is observable.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrRotationFailed = errors.Wrap(errors.ErrInvalidInput, "rotation failed")

	// ErrStoreUnavailable indicates the key store could not be reached within the
	// configured timeout. The operation is retryable.
	//
	// HTTP Status: 503 Service Unavailable
	ErrStoreUnavailable = errors.Wrap(errors.ErrUnavailable, "key store unavailable")

	// ErrRecoveryGenerationFailed indicates a recovery bundle could not be
	// generated or escrowed. No partial escrow row is left behind.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrRecoveryGenerationFailed = errors.Wrap(errors.ErrInvalidInput, "recovery generation failed")

	// ErrMasterKeysNotSet indicates the MASTER_KEYS environment variable is not configured.
	ErrMasterKeysNotSet = errors.New("MASTER_KEYS environment variable not set")

	// ErrActiveMasterKeyIDNotSet indicates ACTIVE_MASTER_KEY_ID is not configured.
	ErrActiveMasterKeyIDNotSet = errors.New("ACTIVE_MASTER_KEY_ID environment variable not set")

	// ErrInvalidMasterKeysFormat indicates MASTER_KEYS is not in "id:base64key" format.
	ErrInvalidMasterKeysFormat = errors.New("invalid master keys format")

	// ErrInvalidMasterKeyBase64 indicates a master key is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.New("invalid master key base64")

	// ErrActiveMasterKeyNotFound indicates ACTIVE_MASTER_KEY_ID references a key
	// that is not present in MASTER_KEYS.
	ErrActiveMasterKeyNotFound = errors.New("active master key not found")

	// ErrMasterKeyNotFound indicates a master key ID is not present in the keychain.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrNotFound, "master key not found")
)
