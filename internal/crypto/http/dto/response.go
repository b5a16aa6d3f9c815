// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// EncryptResponse contains the result of an encryption operation.
type EncryptResponse struct {
	Envelope string `json:"envelope"`
}

// DecryptResponse contains the result of a decryption operation.
// SECURITY: The Plaintext field contains sensitive data and should be transmitted over HTTPS.
type DecryptResponse struct {
	Plaintext []byte `json:"plaintext"` // Base64-encoded by JSON marshaling
}

// KeyInfoResponse represents one tenant key version in API responses.
// Key material is never present.
type KeyInfoResponse struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	Purpose        string     `json:"purpose"`
	KeyType        string     `json:"key_type"`
	Algorithm      string     `json:"algorithm"`
	Fingerprint    string     `json:"fingerprint"`
	Version        uint       `json:"version"`
	Status         string     `json:"status"`
	RotationReason string     `json:"rotation_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	RotatedAt      *time.Time `json:"rotated_at,omitempty"`
	NextRotation   time.Time  `json:"next_rotation"`
}

// MapKeyInfoToResponse converts a domain key info view to an API response.
func MapKeyInfoToResponse(info cryptoDomain.Info) KeyInfoResponse {
	return KeyInfoResponse{
		ID:             info.ID.String(),
		TenantID:       info.TenantID,
		Purpose:        string(info.Purpose),
		KeyType:        string(info.KeyType),
		Algorithm:      string(info.Algorithm),
		Fingerprint:    info.Fingerprint,
		Version:        info.Version,
		Status:         string(info.Status),
		RotationReason: info.RotationReason,
		CreatedAt:      info.CreatedAt,
		RotatedAt:      info.RotatedAt,
		NextRotation:   info.NextRotation,
	}
}

// ListKeyInfoResponse wraps the tenant's key versions.
type ListKeyInfoResponse struct {
	Keys []KeyInfoResponse `json:"keys"`
}

// MapListKeyInfoToResponse converts domain key info views to an API response.
func MapListKeyInfoToResponse(infos []cryptoDomain.Info) ListKeyInfoResponse {
	keys := make([]KeyInfoResponse, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, MapKeyInfoToResponse(info))
	}
	return ListKeyInfoResponse{Keys: keys}
}

// RotateKeyResponse contains the result of a key rotation.
type RotateKeyResponse struct {
	Key KeyInfoResponse `json:"key"`
}

// MapRotateKeyToResponse converts the new key version to an API response.
func MapRotateKeyToResponse(key *cryptoDomain.TenantKey) RotateKeyResponse {
	return RotateKeyResponse{Key: MapKeyInfoToResponse(key.Info())}
}

// SelfTestResultResponse represents one purpose's round trip outcome.
type SelfTestResultResponse struct {
	Purpose   string `json:"purpose"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// SelfTestResponse wraps the per-purpose self-test results.
type SelfTestResponse struct {
	Results []SelfTestResultResponse `json:"results"`
}
