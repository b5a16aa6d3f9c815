package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

func mysqlTenantKeyRow(key *cryptoDomain.TenantKey) *sqlmock.Rows {
	return sqlmock.NewRows(tenantKeyTestColumns).AddRow(mysqlTenantKeyValues(key)...)
}

// mysqlTenantKeyValues renders a key the way the mysql driver would return it:
// uuids as BINARY(16) byte slices, optional columns as nil.
func mysqlTenantKeyValues(key *cryptoDomain.TenantKey) []driver.Value {
	var wrappedBy driver.Value
	if key.WrappedBy != nil {
		b := *key.WrappedBy
		wrappedBy = b[:]
	}
	var rotatedAt driver.Value
	if key.RotatedAt != nil {
		rotatedAt = *key.RotatedAt
	}
	return []driver.Value{
		key.ID[:], key.TenantID, string(key.Purpose), string(key.KeyType),
		string(key.Algorithm), key.MasterKeyID, wrappedBy, key.WrappedKey, key.Nonce,
		key.Fingerprint, int64(key.Version), string(key.Status), key.RotationReason,
		key.CreatedAt, rotatedAt, key.NextRotation,
	}
}

func TestMySQLTenantKeyRepository(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*MySQLTenantKeyRepository, sqlmock.Sqlmock) {
		t.Helper()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Close()
		})
		return NewMySQLTenantKeyRepository(db), mock
	}

	t.Run("Success_Create", func(t *testing.T) {
		repo, mock := setup(t)
		key := makeTenantKey(t)

		mock.ExpectExec("INSERT INTO tenant_keys").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, key)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_CreateFails", func(t *testing.T) {
		repo, mock := setup(t)
		key := makeTenantKey(t)

		mock.ExpectExec("INSERT INTO tenant_keys").
			WillReturnError(assert.AnError)

		err := repo.Create(ctx, key)
		assert.Error(t, err)
	})

	t.Run("Success_GetActive", func(t *testing.T) {
		repo, mock := setup(t)
		key := makeTenantKey(t)

		mock.ExpectQuery("SELECT (.+) FROM tenant_keys").
			WithArgs(key.TenantID, key.Purpose, key.KeyType, cryptoDomain.KeyStatusActive).
			WillReturnRows(mysqlTenantKeyRow(key))

		got, err := repo.GetActive(ctx, key.TenantID, key.Purpose, key.KeyType)
		require.NoError(t, err)
		assert.Equal(t, key.ID, got.ID)
		require.NotNil(t, got.WrappedBy)
		assert.Equal(t, *key.WrappedBy, *got.WrappedBy)
		assert.Nil(t, got.RotatedAt)
	})

	t.Run("Error_GetActiveNoRows", func(t *testing.T) {
		repo, mock := setup(t)

		mock.ExpectQuery("SELECT (.+) FROM tenant_keys").
			WillReturnRows(sqlmock.NewRows(tenantKeyTestColumns))

		_, err := repo.GetActive(ctx, "acme-corp", cryptoDomain.PurposePII, cryptoDomain.KeyTypeData)
		assert.ErrorIs(t, err, cryptoDomain.ErrNoActiveKey)
	})

	t.Run("Success_GetByFingerprint", func(t *testing.T) {
		repo, mock := setup(t)
		key := makeTenantKey(t)

		mock.ExpectQuery("SELECT (.+) FROM tenant_keys").
			WithArgs(key.TenantID, key.Fingerprint).
			WillReturnRows(mysqlTenantKeyRow(key))

		got, err := repo.GetByFingerprint(ctx, key.TenantID, key.Fingerprint)
		require.NoError(t, err)
		assert.Equal(t, key.ID, got.ID)
	})

	t.Run("Error_GetByFingerprintNotFound", func(t *testing.T) {
		repo, mock := setup(t)

		mock.ExpectQuery("SELECT (.+) FROM tenant_keys").
			WillReturnRows(sqlmock.NewRows(tenantKeyTestColumns))

		_, err := repo.GetByFingerprint(ctx, "acme-corp", "deadbeefdeadbeef")
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)
	})

	t.Run("Success_GetByID", func(t *testing.T) {
		repo, mock := setup(t)
		key := makeTenantKey(t)

		idBytes, err := key.ID.MarshalBinary()
		require.NoError(t, err)

		mock.ExpectQuery("SELECT (.+) FROM tenant_keys").
			WithArgs(idBytes).
			WillReturnRows(mysqlTenantKeyRow(key))

		got, err := repo.GetByID(ctx, key.ID)
		require.NoError(t, err)
		assert.Equal(t, key.Fingerprint, got.Fingerprint)
	})

	t.Run("Success_ListByTenant", func(t *testing.T) {
		repo, mock := setup(t)
		key1 := makeTenantKey(t)
		key2 := makeTenantKey(t)
		key2.Purpose = cryptoDomain.PurposeAudit

		rows := mysqlTenantKeyRow(key2).AddRow(mysqlTenantKeyValues(key1)...)
		mock.ExpectQuery("SELECT (.+) FROM tenant_keys").
			WithArgs(key1.TenantID).
			WillReturnRows(rows)

		keys, err := repo.ListByTenant(ctx, key1.TenantID)
		require.NoError(t, err)
		require.Len(t, keys, 2)
		assert.Equal(t, cryptoDomain.PurposeAudit, keys[0].Purpose)
	})

	t.Run("Success_HasActiveKeys", func(t *testing.T) {
		repo, mock := setup(t)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("acme-corp", cryptoDomain.KeyStatusActive, cryptoDomain.KeyTypeMaster, cryptoDomain.KeyTypeData).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.HasActiveKeys(ctx, "acme-corp")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Success_HasActiveKeysExcludesBackupRows", func(t *testing.T) {
		repo, mock := setup(t)

		// The check is scoped to master and data rows, so a tenant holding only
		// recovery escrow still bootstraps.
		mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM tenant_keys WHERE tenant_id = \? AND status = \? AND key_type IN \(\?, \?\)\)`).
			WithArgs("escrow-only", cryptoDomain.KeyStatusActive, cryptoDomain.KeyTypeMaster, cryptoDomain.KeyTypeData).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.HasActiveKeys(ctx, "escrow-only")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_UpdateStatus", func(t *testing.T) {
		repo, mock := setup(t)
		key := makeTenantKey(t)
		rotatedAt := time.Now().UTC()

		mock.ExpectExec("UPDATE tenant_keys SET status").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, key.ID, cryptoDomain.KeyStatusArchived, &rotatedAt)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_UpdateWrapping", func(t *testing.T) {
		repo, mock := setup(t)
		key := makeTenantKey(t)

		mock.ExpectExec("UPDATE tenant_keys SET wrapped_key").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateWrapping(ctx, key)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
