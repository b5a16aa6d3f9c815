// Package domain defines the core cryptographic domain models for tenant-scoped
// envelope encryption.
//
// It implements a three-tier key hierarchy: operator master key → tenant master
// key → per-purpose data key → data. Tenant master keys wrap data keys, enabling
// efficient key rotation without re-encrypting all data. Supports AESGCM and
// ChaCha20 algorithms with 256-bit keys.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantKey represents one version of a tenant key. A tenant holds one master key
// plus one data key per purpose, and every rotation adds a new version instead of
// replacing the old one.
//
// The plaintext Key field is populated only after unwrapping and is never persisted.
// For a given (tenant, purpose, key type) at most one version has status active.
type TenantKey struct {
	ID             uuid.UUID  // Unique identifier (UUIDv7)
	TenantID       string     // Owning tenant; key material never crosses tenants
	Purpose        Purpose    // Data class the key protects
	KeyType        KeyType    // master, data or backup
	Algorithm      Algorithm  // Encryption algorithm (AESGCM or ChaCha20)
	MasterKeyID    string     // Operator master key that wrapped this key (master/backup rows)
	WrappedBy      *uuid.UUID // Tenant master key version that wrapped this key (data rows)
	WrappedKey     []byte     // The key encrypted by its wrapping key
	Key            []byte     // Plaintext key (populated after unwrap, never persisted)
	Nonce          []byte     // Unique nonce used to wrap the key
	Fingerprint    string     // Derived non-secret identifier, used for envelopes and audit
	Version        uint       // Version number for rotation tracking
	Status         KeyStatus  // active, rotating or archived
	RotationReason string     // Why this version was created (set on rotated versions)
	CreatedAt      time.Time
	RotatedAt      *time.Time // When this version left active status
	NextRotation   time.Time  // Advisory re-rotation deadline; never auto-executed
}

// RotationDue reports whether the advisory rotation deadline has passed at now.
// The deadline only advises: rotation still requires an explicit trigger.
func (k *TenantKey) RotationDue(now time.Time) bool {
	return k.Status == KeyStatusActive && now.After(k.NextRotation)
}

// Info is the audit-facing view of a key version. It carries fingerprints,
// statuses and timestamps but never key material, wrapped or otherwise.
type Info struct {
	ID             uuid.UUID
	TenantID       string
	Purpose        Purpose
	KeyType        KeyType
	Algorithm      Algorithm
	Fingerprint    string
	Version        uint
	Status         KeyStatus
	RotationReason string
	CreatedAt      time.Time
	RotatedAt      *time.Time
	NextRotation   time.Time
}

// Info strips key material from the version for audit display.
func (k *TenantKey) Info() Info {
	return Info{
		ID:             k.ID,
		TenantID:       k.TenantID,
		Purpose:        k.Purpose,
		KeyType:        k.KeyType,
		Algorithm:      k.Algorithm,
		Fingerprint:    k.Fingerprint,
		Version:        k.Version,
		Status:         k.Status,
		RotationReason: k.RotationReason,
		CreatedAt:      k.CreatedAt,
		RotatedAt:      k.RotatedAt,
		NextRotation:   k.NextRotation,
	}
}
