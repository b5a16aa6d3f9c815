// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	apperrors "github.com/allisson/tenantcrypto/internal/errors"
)

const (
	// tenantIDMaxLength bounds tenant identifiers to fit indexed columns comfortably.
	tenantIDMaxLength = 128
)

var (
	// tenantIDRegex restricts tenant identifiers to a URL- and key-safe alphabet.
	tenantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// TenantID validates a tenant identifier: non-empty, bounded length, and a
// restricted alphabet starting with an alphanumeric character. Tenant IDs are
// embedded in cache keys and associated data, so the separator characters used
// there ("|", ";", "=") are excluded by the alphabet.
var TenantID = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_tenant_id_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if len(s) > tenantIDMaxLength {
		return validation.NewError("validation_tenant_id_length", "must be at most 128 characters")
	}
	if !tenantIDRegex.MatchString(s) {
		return validation.NewError(
			"validation_tenant_id_format",
			"must contain only letters, digits, dots, underscores and hyphens",
		)
	}
	return nil
})

// Purpose validates a value against the closed purpose set.
var Purpose = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_purpose_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := cryptoDomain.ParsePurpose(s); err != nil {
		return validation.NewError("validation_purpose", "must be one of: general, pii, financial, audit, compliance")
	}
	return nil
})

// KeyStatus validates a value against the key lifecycle states.
var KeyStatus = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_key_status_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	switch cryptoDomain.KeyStatus(s) {
	case cryptoDomain.KeyStatusActive, cryptoDomain.KeyStatusRotating, cryptoDomain.KeyStatusArchived:
		return nil
	default:
		return validation.NewError("validation_key_status", "must be one of: active, rotating, archived")
	}
})

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
