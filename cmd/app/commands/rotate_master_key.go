package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// RunRotateMasterKey rotates the operator master key chain: generates a fresh
// 32-byte key, appends it to the existing chain and marks it active. Old entries
// stay in the chain so historical tenant master key versions remain unwrappable
// until every tenant has been rewrapped under the new key.
func RunRotateMasterKey(
	writer io.Writer,
	keyID, existingMasterKeys, existingActiveKeyID string,
) error {
	// Validate existing configuration
	if existingMasterKeys == "" {
		return fmt.Errorf("MASTER_KEYS is not set - cannot rotate without existing keys")
	}
	if existingActiveKeyID == "" {
		return fmt.Errorf("ACTIVE_MASTER_KEY_ID is not set")
	}

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

	// Combine with existing keys (new key last, will be set as active)
	newMasterKeys := fmt.Sprintf("%s,%s:%s", existingMasterKeys, keyID, encodedKey)

	_, _ = fmt.Fprintln(writer, "# Operator Master Key Rotation")
	_, _ = fmt.Fprintln(writer, "# Update these environment variables in your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s\"\n", newMasterKeys)
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# Rotation Workflow:")
	_, _ = fmt.Fprintln(writer, "# 1. Update the above environment variables")
	_, _ = fmt.Fprintln(writer, "# 2. Restart the application")
	_, _ = fmt.Fprintln(writer, "# 3. Rotate tenant master keys: app rotate-tenant-master-key --tenant-id <id> --reason scheduled")
	_, _ = fmt.Fprintf(writer,
		"# 4. After all tenants rotated, remove old entries: MASTER_KEYS=\"%s:%s\"\n",
		keyID,
		encodedKey,
	)

	return nil
}
