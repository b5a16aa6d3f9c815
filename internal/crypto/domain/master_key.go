package domain

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MasterKey represents an operator master key used to wrap tenant master keys.
//
// Master keys are the root of the envelope encryption hierarchy and should be
// stored securely in a KMS or HSM, or loaded from environment variables in
// development and test environments. Keys must be 32 bytes (256 bits).
type MasterKey struct {
	ID  string
	Key []byte
}

// MasterKeyChain manages a collection of operator master keys with one
// designated as active.
//
// The keychain supports master key rotation by holding multiple keys
// simultaneously: new tenant master keys are wrapped with the active key while
// old keys remain available to unwrap historical tenant master key versions.
//
// Thread safety: the keychain uses sync.Map internally for concurrent access.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// ActiveMasterKeyID returns the ID of the currently active master key.
// The active master key wraps newly created tenant master keys.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Get retrieves a master key from the keychain by its ID. Used to unwrap tenant
// master keys that were wrapped under previous operator master keys.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// Close clears all master keys from the keychain. Call during shutdown or when
// reloading configuration so key material does not outlive its use.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(key, value any) bool {
		if masterKey, ok := value.(*MasterKey); ok {
			Zero(masterKey.Key)
		}
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

// LoadMasterKeyChainFromEnv loads operator master keys from environment variables.
//
// Configuration:
//   - MASTER_KEYS: comma-separated entries in format "id:base64key"
//   - ACTIVE_MASTER_KEY_ID: ID of the key that wraps new tenant master keys
//
// Each key must decode to exactly 32 bytes. Temporary decoded bytes are zeroed
// after being copied into the keychain; on error the keychain is closed to
// prevent partial initialization.
func LoadMasterKeyChainFromEnv() (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := &MasterKeyChain{activeID: active}

	parts := strings.SplitSeq(raw, ",")
	for part := range parts {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}
		if len(key) != 32 {
			Zero(key)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be 32 bytes, got %d",
				ErrInvalidKeySize,
				id,
				len(key),
			)
		}
		stored := make([]byte, 32)
		copy(stored, key)
		mkc.keys.Store(id, &MasterKey{ID: id, Key: stored})
		Zero(key)
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}

// NewMasterKeyChain builds a keychain from in-memory keys with the given active ID.
// Intended for tests and embedded use; production loads from the environment.
func NewMasterKeyChain(activeID string, keys ...*MasterKey) (*MasterKeyChain, error) {
	mkc := &MasterKeyChain{activeID: activeID}
	for _, k := range keys {
		if len(k.Key) != 32 {
			return nil, fmt.Errorf("%w: master key %s must be 32 bytes", ErrInvalidKeySize, k.ID)
		}
		mkc.keys.Store(k.ID, k)
	}
	if _, ok := mkc.Get(activeID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrActiveMasterKeyNotFound, activeID)
	}
	return mkc, nil
}
