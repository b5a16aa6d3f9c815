package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte operator master key.
// The key wraps every tenant master key created while it is active. Key material is
// zeroed from memory after encoding. If keyID is empty, generates a default ID in
// format "master-key-YYYY-MM-DD".
//
// Output format:
//   - MASTER_KEYS="<keyID>:<base64-encoded-key>"
//   - ACTIVE_MASTER_KEY_ID="<keyID>"
//
// Security: store the output in a secrets manager, never in source control.
func RunCreateMasterKey(writer io.Writer, keyID string) error {
	// Generate default key ID if not provided
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	// Generate a cryptographically secure 32-byte master key
	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	encodedKey := base64.StdEncoding.EncodeToString(masterKey)

	_, _ = fmt.Fprintln(writer, "# Operator Master Key Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# For multiple master keys (key rotation), append new entries:")
	_, _ = fmt.Fprintf(writer, "# MASTER_KEYS=\"%s:%s,new-key:base64-encoded-key\"\n", keyID, encodedKey)
	_, _ = fmt.Fprintln(writer, "# ACTIVE_MASTER_KEY_ID=\"new-key\"")

	return nil
}
