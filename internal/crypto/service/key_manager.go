package service

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// KeyManagerService implements the KeyManager interface for tenant envelope encryption.
//
// The service manages the lifecycle of tenant keys in a three-tier hierarchy:
//   - tenant master keys are wrapped with an operator master key
//   - per-purpose data keys are wrapped with the tenant master key
//   - field plaintext is encrypted with data keys
//
// This separation lets a tenant's data keys rotate without touching the operator
// keychain, and lets the tenant master key rotate by rewrapping data keys without
// re-encrypting any stored ciphertext.
type KeyManagerService struct {
	aeadManager      AEADManager
	rotationInterval time.Duration
}

// NewKeyManager creates a new KeyManagerService.
//
// rotationInterval sets the advisory next-rotation deadline stamped on every key
// version it creates; the deadline only advises, rotation requires an explicit
// trigger.
func NewKeyManager(aeadManager AEADManager, rotationInterval time.Duration) *KeyManagerService {
	return &KeyManagerService{
		aeadManager:      aeadManager,
		rotationInterval: rotationInterval,
	}
}

// CreateTenantMasterKey generates a tenant master key wrapped by the operator master key.
//
// The key is generated as a random 32-byte (256-bit) value and encrypted under
// the operator master key with the specified algorithm. The operator master key's
// ID is recorded so the correct chain entry can unwrap it after operator keychain
// rotation.
func (km *KeyManagerService) CreateTenantMasterKey(
	masterKey *cryptoDomain.MasterKey,
	tenantID string,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.TenantKey, error) {
	plainKey := make([]byte, 32)
	if _, err := rand.Read(plainKey); err != nil {
		return cryptoDomain.TenantKey{}, fmt.Errorf("failed to generate tenant master key: %w", err)
	}

	aead, err := km.aeadManager.CreateCipher(masterKey.Key, alg)
	if err != nil {
		return cryptoDomain.TenantKey{}, err
	}

	wrappedKey, nonce, err := aead.Encrypt(plainKey, nil)
	if err != nil {
		return cryptoDomain.TenantKey{}, fmt.Errorf("failed to wrap tenant master key: %w", err)
	}

	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	return cryptoDomain.TenantKey{
		ID:           id,
		TenantID:     tenantID,
		Purpose:      cryptoDomain.PurposeGeneral,
		KeyType:      cryptoDomain.KeyTypeMaster,
		Algorithm:    alg,
		MasterKeyID:  masterKey.ID,
		WrappedKey:   wrappedKey,
		Key:          plainKey,
		Nonce:        nonce,
		Fingerprint:  Fingerprint(tenantID, cryptoDomain.PurposeGeneral, cryptoDomain.KeyTypeMaster, id),
		Version:      1,
		Status:       cryptoDomain.KeyStatusActive,
		CreatedAt:    now,
		NextRotation: now.Add(km.rotationInterval),
	}, nil
}

// UnwrapTenantMasterKey recovers the plaintext tenant master key.
//
// The returned bytes must be kept in memory only and zeroed after use.
// Any authentication failure is reported as ErrDecryptionFailed without detail.
func (km *KeyManagerService) UnwrapTenantMasterKey(
	key *cryptoDomain.TenantKey,
	masterKey *cryptoDomain.MasterKey,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(masterKey.Key, key.Algorithm)
	if err != nil {
		return nil, err
	}

	plainKey, err := aead.Decrypt(key.WrappedKey, key.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plainKey, nil
}

// CreateDataKey generates a per-purpose data key wrapped by the tenant master key.
// The tenant master key must have its plaintext Key field populated.
func (km *KeyManagerService) CreateDataKey(
	tenantMaster *cryptoDomain.TenantKey,
	purpose cryptoDomain.Purpose,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.TenantKey, error) {
	plainKey := make([]byte, 32)
	if _, err := rand.Read(plainKey); err != nil {
		return cryptoDomain.TenantKey{}, fmt.Errorf("failed to generate data key: %w", err)
	}

	aead, err := km.aeadManager.CreateCipher(tenantMaster.Key, tenantMaster.Algorithm)
	if err != nil {
		return cryptoDomain.TenantKey{}, err
	}

	wrappedKey, nonce, err := aead.Encrypt(plainKey, nil)
	if err != nil {
		return cryptoDomain.TenantKey{}, fmt.Errorf("failed to wrap data key: %w", err)
	}

	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()
	wrappedBy := tenantMaster.ID

	return cryptoDomain.TenantKey{
		ID:           id,
		TenantID:     tenantMaster.TenantID,
		Purpose:      purpose,
		KeyType:      cryptoDomain.KeyTypeData,
		Algorithm:    alg,
		WrappedBy:    &wrappedBy,
		WrappedKey:   wrappedKey,
		Key:          plainKey,
		Nonce:        nonce,
		Fingerprint:  Fingerprint(tenantMaster.TenantID, purpose, cryptoDomain.KeyTypeData, id),
		Version:      1,
		Status:       cryptoDomain.KeyStatusActive,
		CreatedAt:    now,
		NextRotation: now.Add(km.rotationInterval),
	}, nil
}

// UnwrapDataKey recovers the plaintext data key using the tenant master key
// version that wrapped it. The tenant master key must have its plaintext Key
// field populated.
func (km *KeyManagerService) UnwrapDataKey(
	key *cryptoDomain.TenantKey,
	tenantMaster *cryptoDomain.TenantKey,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(tenantMaster.Key, tenantMaster.Algorithm)
	if err != nil {
		return nil, err
	}

	plainKey, err := aead.Decrypt(key.WrappedKey, key.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plainKey, nil
}

// RewrapDataKey re-encrypts an existing data key under a new tenant master key
// version. The data key material, fingerprint and version are unchanged, so
// ciphertext produced under the key stays decryptable with no re-encryption.
func (km *KeyManagerService) RewrapDataKey(
	key *cryptoDomain.TenantKey,
	plainKey []byte,
	newMaster *cryptoDomain.TenantKey,
) error {
	aead, err := km.aeadManager.CreateCipher(newMaster.Key, newMaster.Algorithm)
	if err != nil {
		return err
	}

	wrappedKey, nonce, err := aead.Encrypt(plainKey, nil)
	if err != nil {
		return fmt.Errorf("failed to rewrap data key: %w", err)
	}

	wrappedBy := newMaster.ID
	key.WrappedKey = wrappedKey
	key.Nonce = nonce
	key.WrappedBy = &wrappedBy

	return nil
}
