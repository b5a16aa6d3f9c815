package domain

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// envelopePrefix is the structural magic every serialized envelope starts with.
	envelopePrefix = "tce"

	// envelopeVersion is the serialization format version.
	envelopeVersion = "1"

	// envelopeParts is the number of colon-separated fields in a serialized envelope.
	envelopeParts = 6

	// FingerprintLength is the length in hex characters of a key fingerprint.
	FingerprintLength = 16

	// NonceSize is the AEAD nonce size in bytes shared by both supported algorithms.
	NonceSize = 12

	// TagSize is the AEAD authentication tag size in bytes shared by both
	// supported algorithms.
	TagSize = 16
)

// EncryptionContext carries the non-secret metadata bound to a ciphertext as
// associated data. Binding the table and field names prevents relocation attacks:
// an envelope copied to a different column fails authentication on decryption.
//
// The same context passed to encryption must be passed to decryption; a mismatch
// is indistinguishable from tampering and fails closed.
type EncryptionContext struct {
	TableName string
	FieldName string
}

// AssociatedData produces the canonical associated-data bytes for an envelope.
// The tenant and purpose are always bound, even with an empty context, so a
// ciphertext can never authenticate under another tenant's key or purpose.
func (c *EncryptionContext) AssociatedData(tenantID string, purpose Purpose) []byte {
	var table, field string
	if c != nil {
		table = c.TableName
		field = c.FieldName
	}
	return fmt.Appendf(nil, "tenant=%s;purpose=%s;table=%s;field=%s", tenantID, purpose, table, field)
}

// EncryptionEnvelope is the self-describing wire and storage form of a ciphertext.
//
// It records everything needed to locate the key version that produced it: the
// algorithm, the key fingerprint, and the nonce. The ciphertext carries the AEAD
// authentication tag appended. Envelopes are immutable once produced.
//
// Serialized form: "tce:1:<algorithm>:<fingerprint>:<nonce-base64>:<ciphertext-base64>"
type EncryptionEnvelope struct {
	Algorithm   Algorithm
	Fingerprint string
	Nonce       []byte
	Ciphertext  []byte
}

// ParseEnvelope deserializes an envelope from its string representation.
//
// Returns ErrInvalidEnvelopeFormat when the input does not match the expected
// structure: wrong prefix or version, wrong part count, unknown algorithm,
// malformed fingerprint, or invalid base64.
func ParseEnvelope(content string) (EncryptionEnvelope, error) {
	parts := strings.Split(content, ":")
	if len(parts) != envelopeParts {
		return EncryptionEnvelope{}, fmt.Errorf(
			"%w: expected %d parts, got %d", ErrInvalidEnvelopeFormat, envelopeParts, len(parts),
		)
	}
	if parts[0] != envelopePrefix || parts[1] != envelopeVersion {
		return EncryptionEnvelope{}, fmt.Errorf("%w: unknown header", ErrInvalidEnvelopeFormat)
	}

	alg := Algorithm(parts[2])
	if alg != AESGCM && alg != ChaCha20 {
		return EncryptionEnvelope{}, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidEnvelopeFormat, parts[2])
	}

	fingerprint := parts[3]
	if !validFingerprint(fingerprint) {
		return EncryptionEnvelope{}, fmt.Errorf("%w: malformed fingerprint", ErrInvalidEnvelopeFormat)
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return EncryptionEnvelope{}, fmt.Errorf("%w: invalid nonce base64", ErrInvalidEnvelopeFormat)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return EncryptionEnvelope{}, fmt.Errorf("%w: invalid ciphertext base64", ErrInvalidEnvelopeFormat)
	}

	return EncryptionEnvelope{
		Algorithm:   alg,
		Fingerprint: fingerprint,
		Nonce:       nonce,
		Ciphertext:  ciphertext,
	}, nil
}

// String serializes the envelope. Round-trips with ParseEnvelope.
func (e EncryptionEnvelope) String() string {
	return fmt.Sprintf(
		"%s:%s:%s:%s:%s:%s",
		envelopePrefix,
		envelopeVersion,
		e.Algorithm,
		e.Fingerprint,
		base64.StdEncoding.EncodeToString(e.Nonce),
		base64.StdEncoding.EncodeToString(e.Ciphertext),
	)
}

// IsEncrypted performs a cheap structural sniff for the envelope format without
// attempting decryption. Callers use it to decide whether a stored value needs
// decryption or is legacy plaintext.
func IsEncrypted(data string) bool {
	if !strings.HasPrefix(data, envelopePrefix+":"+envelopeVersion+":") {
		return false
	}
	_, err := ParseEnvelope(data)
	return err == nil
}

// EstimateEncryptedSize returns a deterministic upper bound on the serialized
// envelope length for a plaintext of plaintextLen bytes. Callers use it to
// pre-size storage columns; the actual envelope is never larger.
func EstimateEncryptedSize(plaintextLen int) int {
	// Longest algorithm identifier wins the bound.
	algLen := len(ChaCha20)
	headerLen := len(envelopePrefix) + 1 + len(envelopeVersion) + 1 + algLen + 1 + FingerprintLength + 1
	nonceLen := base64Len(NonceSize)
	ciphertextLen := base64Len(plaintextLen + TagSize)
	return headerLen + nonceLen + 1 + ciphertextLen
}

// base64Len returns the standard-encoding length for n input bytes.
func base64Len(n int) int {
	return (n + 2) / 3 * 4
}

// validFingerprint checks the fingerprint is exactly FingerprintLength hex chars.
func validFingerprint(fp string) bool {
	if len(fp) != FingerprintLength {
		return false
	}
	_, err := hex.DecodeString(fp)
	return err == nil
}
