package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data (AEAD),
// ensuring both confidentiality and authenticity of encrypted data.
//
// Algorithm selection guidelines:
//   - Use AESGCM on modern CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on mobile devices or systems without AES-NI
//   - Both provide equivalent 256-bit security when used correctly
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// Uses a 256-bit key, a 12-byte nonce and a 16-byte authentication tag.
	// Hardware-accelerated on most modern Intel, AMD, and ARM processors.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// Uses a 256-bit key, a 12-byte nonce and a 16-byte authentication tag.
	// Constant-time software implementation, recommended where AES-NI is absent.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm validates a raw algorithm string against the supported set.
// Returns ErrUnsupportedAlgorithm for anything else, including the empty string.
func ParseAlgorithm(raw string) (Algorithm, error) {
	a := Algorithm(raw)
	switch a {
	case AESGCM, ChaCha20:
		return a, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// Purpose is a closed category that scopes a tenant key to a class of sensitive data.
//
// Every encryption and decryption operation is bound to exactly one purpose, and
// each tenant holds an independent data key per purpose. Purposes are validated at
// every boundary; free-text purposes from callers are rejected.
type Purpose string

const (
	// PurposeGeneral covers sensitive fields that do not fall into a stricter category.
	PurposeGeneral Purpose = "general"

	// PurposePII covers personally identifiable information (names, documents, contacts).
	PurposePII Purpose = "pii"

	// PurposeFinancial covers financial data (account numbers, card numbers, amounts).
	PurposeFinancial Purpose = "financial"

	// PurposeAudit covers audit trail payloads.
	PurposeAudit Purpose = "audit"

	// PurposeCompliance covers compliance and regulatory records.
	PurposeCompliance Purpose = "compliance"
)

// Purposes lists every valid purpose in a stable order.
// Used by the tenant bootstrap and by the facade self-test.
var Purposes = []Purpose{
	PurposeGeneral,
	PurposePII,
	PurposeFinancial,
	PurposeAudit,
	PurposeCompliance,
}

// ParsePurpose validates a raw purpose string against the closed purpose set.
// Returns ErrInvalidPurpose for anything outside the set, including the empty string.
func ParsePurpose(raw string) (Purpose, error) {
	p := Purpose(raw)
	switch p {
	case PurposeGeneral, PurposePII, PurposeFinancial, PurposeAudit, PurposeCompliance:
		return p, nil
	default:
		return "", ErrInvalidPurpose
	}
}

// KeyType identifies the role of a tenant key in the key hierarchy.
type KeyType string

const (
	// KeyTypeMaster is the per-tenant key-encryption key. It is wrapped by the
	// operator master keychain and wraps the tenant's data keys.
	KeyTypeMaster KeyType = "master"

	// KeyTypeData is a per-(tenant, purpose) data-encryption key. It is wrapped by
	// the tenant master key and encrypts field plaintext directly.
	KeyTypeData KeyType = "data"

	// KeyTypeBackup holds recovery escrow material wrapped by the operator-scope
	// KMS keeper. Backup keys never encrypt application data.
	KeyTypeBackup KeyType = "backup"
)

// KeyStatus represents the lifecycle state of a tenant key version.
//
// The lifecycle is strictly active → rotating → archived. Rotating exists to make
// the cutover observably atomic to callers that poll status; archived is terminal.
// A key version is never deleted, so ciphertext produced under any historical
// version remains decryptable.
type KeyStatus string

const (
	// KeyStatusActive marks the single version used for new encryptions.
	KeyStatusActive KeyStatus = "active"

	// KeyStatusRotating marks a version that is being replaced by a new active version.
	KeyStatusRotating KeyStatus = "rotating"

	// KeyStatusArchived marks a retired version retained for historical decryption.
	KeyStatusArchived KeyStatus = "archived"
)

// CanTransitionTo reports whether s may legally move to next.
// Only active→rotating and rotating→archived are permitted.
func (s KeyStatus) CanTransitionTo(next KeyStatus) bool {
	switch s {
	case KeyStatusActive:
		return next == KeyStatusRotating
	case KeyStatusRotating:
		return next == KeyStatusArchived
	default:
		return false
	}
}
