// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	customValidation "github.com/allisson/tenantcrypto/internal/validation"
)

// EncryptionContextRequest carries the optional storage location bound to a ciphertext.
type EncryptionContextRequest struct {
	TableName string `json:"table_name"`
	FieldName string `json:"field_name"`
}

// ToDomain converts the request context to the domain form. Returns nil when
// both fields are empty so the engine binds only tenant and purpose.
func (r *EncryptionContextRequest) ToDomain() *cryptoDomain.EncryptionContext {
	if r == nil || (r.TableName == "" && r.FieldName == "") {
		return nil
	}
	return &cryptoDomain.EncryptionContext{
		TableName: r.TableName,
		FieldName: r.FieldName,
	}
}

// EncryptRequest contains the parameters for encrypting data.
type EncryptRequest struct {
	Plaintext string                    `json:"plaintext"` // Base64-encoded plaintext
	Purpose   string                    `json:"purpose"`
	Context   *EncryptionContextRequest `json:"context,omitempty"`
}

// Validate checks if the encrypt request is valid.
func (r *EncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.Purpose,
			validation.Required,
			customValidation.Purpose,
		),
	)
}

// DecryptRequest contains the parameters for decrypting data.
type DecryptRequest struct {
	Envelope string                    `json:"envelope"`
	Purpose  string                    `json:"purpose"`
	Context  *EncryptionContextRequest `json:"context,omitempty"`
}

// Validate checks if the decrypt request is valid.
func (r *DecryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Envelope,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Purpose,
			validation.Required,
			customValidation.Purpose,
		),
	)
}

// RotateKeyRequest contains the parameters for rotating a tenant data key.
type RotateKeyRequest struct {
	Purpose string `json:"purpose"`
	Reason  string `json:"reason"`
}

// Validate checks if the rotate key request is valid.
func (r *RotateKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Purpose,
			validation.Required,
			customValidation.Purpose,
		),
		validation.Field(&r.Reason,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// RotateMasterKeyRequest contains the parameters for rotating a tenant master key.
type RotateMasterKeyRequest struct {
	Reason string `json:"reason"`
}

// Validate checks if the rotate master key request is valid.
func (r *RotateMasterKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// UpdateKeyStatusRequest contains the parameters for a key lifecycle transition.
type UpdateKeyStatusRequest struct {
	Status string `json:"status"`
}

// Validate checks if the update key status request is valid.
func (r *UpdateKeyStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status,
			validation.Required,
			customValidation.KeyStatus,
		),
	)
}

// SelfTestRequest contains the parameters for the encryption self-test.
type SelfTestRequest struct {
	Sample   string   `json:"sample,omitempty"` // Base64-encoded sample, optional
	Purposes []string `json:"purposes,omitempty"`
}

// Validate checks if the self-test request is valid.
func (r *SelfTestRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Sample,
			customValidation.Base64,
		),
		validation.Field(&r.Purposes,
			validation.Each(customValidation.Purpose),
		),
	)
}
