package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// Fingerprint derives the short non-secret identifier for a key version.
//
// The fingerprint is computed over the key version's identity (tenant, purpose,
// key type, version ID), never over key material, so it is safe to display in
// audit screens and to embed in envelopes. Sixteen hex characters (64 bits) keep
// collisions negligible within a tenant's key history.
func Fingerprint(tenantID string, purpose cryptoDomain.Purpose, keyType cryptoDomain.KeyType, id uuid.UUID) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s/%s/%s/%s", tenantID, purpose, keyType, id))
	return hex.EncodeToString(sum[:])[:cryptoDomain.FingerprintLength]
}
