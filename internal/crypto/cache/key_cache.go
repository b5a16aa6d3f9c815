// Package cache provides the in-memory key material cache for the envelope
// encryption engine.
//
// The cache is purely an optimization: correctness holds with the cache disabled
// entirely, only latency changes. Entries are scoped per (tenant, purpose) and
// are dropped by TTL expiry or by explicit invalidation from the rotation
// manager. The rotation manager is the only writer that invalidates; callers
// never reason about refresh timing.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// Entry holds unwrapped key material for one key version. Never persisted.
type Entry struct {
	Key         []byte
	Fingerprint string
	Algorithm   cryptoDomain.Algorithm
}

// KeyCache caches unwrapped tenant key material with a bounded TTL.
//
// Two index forms share one store:
//   - "<tenant>|<purpose>|active" for the encrypt fast path
//   - "<tenant>|<purpose>|fp|<fingerprint>" for the decrypt-by-fingerprint path
//
// Reads are safe for unlimited concurrent readers; writes are exclusive per
// entry (both provided by the underlying store's RWMutex). There is no
// cross-tenant state, so a slow operation for one tenant never delays another.
type KeyCache struct {
	store   *gocache.Cache
	enabled bool
}

// New creates a KeyCache with the given TTL. When enabled is false every read
// misses and every write is a no-op, forcing all lookups through the key store.
func New(ttl time.Duration, enabled bool) *KeyCache {
	if !enabled {
		return &KeyCache{enabled: false}
	}

	store := gocache.New(ttl, 2*ttl)
	store.OnEvicted(func(_ string, value any) {
		if entry, ok := value.(Entry); ok {
			cryptoDomain.Zero(entry.Key)
		}
	})

	return &KeyCache{store: store, enabled: true}
}

// Enabled reports whether the cache is serving entries.
func (kc *KeyCache) Enabled() bool {
	return kc.enabled
}

// GetActive returns the cached active key entry for (tenant, purpose).
func (kc *KeyCache) GetActive(tenantID string, purpose cryptoDomain.Purpose) (Entry, bool) {
	return kc.get(activeKey(tenantID, purpose))
}

// SetActive caches the active key entry for (tenant, purpose).
func (kc *KeyCache) SetActive(tenantID string, purpose cryptoDomain.Purpose, entry Entry) {
	kc.set(activeKey(tenantID, purpose), entry)
}

// GetByFingerprint returns the cached entry for a specific key version.
func (kc *KeyCache) GetByFingerprint(
	tenantID string, purpose cryptoDomain.Purpose, fingerprint string,
) (Entry, bool) {
	return kc.get(fingerprintKey(tenantID, purpose, fingerprint))
}

// SetByFingerprint caches the entry for a specific key version.
func (kc *KeyCache) SetByFingerprint(
	tenantID string, purpose cryptoDomain.Purpose, fingerprint string, entry Entry,
) {
	kc.set(fingerprintKey(tenantID, purpose, fingerprint), entry)
}

// Invalidate drops cached entries for a tenant. With a purpose it drops that
// purpose's entries only; with nil it drops every entry the tenant owns.
// The rotation manager calls this after committing a new active version,
// independent of TTL, so stale key material is never served after rotation.
func (kc *KeyCache) Invalidate(tenantID string, purpose *cryptoDomain.Purpose) {
	if !kc.enabled {
		return
	}

	prefix := tenantID + "|"
	if purpose != nil {
		prefix = tenantID + "|" + string(*purpose) + "|"
	}

	for key := range kc.store.Items() {
		if strings.HasPrefix(key, prefix) {
			kc.store.Delete(key)
		}
	}
}

func (kc *KeyCache) get(key string) (Entry, bool) {
	if !kc.enabled {
		return Entry{}, false
	}

	value, ok := kc.store.Get(key)
	if !ok {
		return Entry{}, false
	}

	entry := value.(Entry)

	// Hand out a copy so eviction-time zeroing cannot race a reader.
	keyCopy := make([]byte, len(entry.Key))
	copy(keyCopy, entry.Key)
	entry.Key = keyCopy

	return entry, true
}

func (kc *KeyCache) set(key string, entry Entry) {
	if !kc.enabled {
		return
	}

	stored := make([]byte, len(entry.Key))
	copy(stored, entry.Key)
	entry.Key = stored

	kc.store.SetDefault(key, entry)
}

func activeKey(tenantID string, purpose cryptoDomain.Purpose) string {
	return tenantID + "|" + string(purpose) + "|active"
}

func fingerprintKey(tenantID string, purpose cryptoDomain.Purpose, fingerprint string) string {
	return tenantID + "|" + string(purpose) + "|fp|" + fingerprint
}
