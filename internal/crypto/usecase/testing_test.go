package usecase

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoService "github.com/allisson/tenantcrypto/internal/crypto/service"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

const testRotationInterval = 90 * 24 * time.Hour

// mockTenantKeyRepository is a mock implementation of TenantKeyRepository for testing.
type mockTenantKeyRepository struct {
	mock.Mock
}

func (m *mockTenantKeyRepository) Create(ctx context.Context, key *cryptoDomain.TenantKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockTenantKeyRepository) ListByTenant(
	ctx context.Context, tenantID string,
) ([]*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.TenantKey), args.Error(1)
}

func (m *mockTenantKeyRepository) GetActive(
	ctx context.Context,
	tenantID string,
	purpose cryptoDomain.Purpose,
	keyType cryptoDomain.KeyType,
) (*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, tenantID, purpose, keyType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.TenantKey), args.Error(1)
}

func (m *mockTenantKeyRepository) GetByFingerprint(
	ctx context.Context, tenantID, fingerprint string,
) (*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, tenantID, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.TenantKey), args.Error(1)
}

func (m *mockTenantKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.TenantKey), args.Error(1)
}

func (m *mockTenantKeyRepository) HasActiveKeys(ctx context.Context, tenantID string) (bool, error) {
	args := m.Called(ctx, tenantID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTenantKeyRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status cryptoDomain.KeyStatus,
	rotatedAt *time.Time,
) error {
	args := m.Called(ctx, id, status, rotatedAt)
	return args.Error(0)
}

func (m *mockTenantKeyRepository) UpdateWrapping(ctx context.Context, key *cryptoDomain.TenantKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// mockUsageRecorder is a mock implementation of UsageRecorder for testing.
type mockUsageRecorder struct {
	mock.Mock
}

func (m *mockUsageRecorder) Record(
	ctx context.Context,
	tenantID string,
	operation telemetryDomain.Operation,
	purpose cryptoDomain.Purpose,
	success bool,
	latency time.Duration,
) error {
	args := m.Called(ctx, tenantID, operation, purpose, success, latency)
	return args.Error(0)
}

// noopUsageRecorder swallows telemetry for tests that don't assert on it.
type noopUsageRecorder struct{}

func (noopUsageRecorder) Record(
	context.Context, string, telemetryDomain.Operation, cryptoDomain.Purpose, bool, time.Duration,
) error {
	return nil
}

// stubTxManager runs the function directly without a database transaction.
type stubTxManager struct{}

func (stubTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

// testHierarchy is a fully unwrapped key hierarchy for one tenant, backed by
// real cryptography so tests exercise genuine wrap/unwrap round trips.
type testHierarchy struct {
	chain       *cryptoDomain.MasterKeyChain
	aeadManager *cryptoService.AEADManagerService
	keyManager  *cryptoService.KeyManagerService
	master      cryptoDomain.TenantKey
	dataKeys    map[cryptoDomain.Purpose]cryptoDomain.TenantKey
}

func newTestHierarchy(t *testing.T, tenantID string) *testHierarchy {
	t.Helper()

	chain, err := cryptoDomain.NewMasterKeyChain(
		"mk-test",
		&cryptoDomain.MasterKey{ID: "mk-test", Key: randomBytes(t, 32)},
	)
	require.NoError(t, err)

	aeadManager := cryptoService.NewAEADManager()
	keyManager := cryptoService.NewKeyManager(aeadManager, testRotationInterval)

	masterKey, found := chain.Get("mk-test")
	require.True(t, found)

	master, err := keyManager.CreateTenantMasterKey(masterKey, tenantID, cryptoDomain.AESGCM)
	require.NoError(t, err)

	dataKeys := make(map[cryptoDomain.Purpose]cryptoDomain.TenantKey, len(cryptoDomain.Purposes))
	for _, purpose := range cryptoDomain.Purposes {
		dataKey, err := keyManager.CreateDataKey(&master, purpose, cryptoDomain.AESGCM)
		require.NoError(t, err)
		dataKeys[purpose] = dataKey
	}

	return &testHierarchy{
		chain:       chain,
		aeadManager: aeadManager,
		keyManager:  keyManager,
		master:      master,
		dataKeys:    dataKeys,
	}
}

// masterRow returns the master key as the store would: wrapped material only.
func (h *testHierarchy) masterRow() *cryptoDomain.TenantKey {
	row := h.master
	row.Key = nil
	return &row
}

// dataRow returns a data key as the store would: wrapped material only.
func (h *testHierarchy) dataRow(purpose cryptoDomain.Purpose) *cryptoDomain.TenantKey {
	row := h.dataKeys[purpose]
	row.Key = nil
	return &row
}
