package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	"github.com/allisson/tenantcrypto/internal/database"
	apperrors "github.com/allisson/tenantcrypto/internal/errors"
)

// MySQLTenantKeyRepository implements tenant key persistence for MySQL.
// Identifiers are stored as BINARY(16) and wrapped key material as BLOB.
type MySQLTenantKeyRepository struct {
	db *sql.DB
}

// NewMySQLTenantKeyRepository creates a repository bound to the given database.
func NewMySQLTenantKeyRepository(db *sql.DB) *MySQLTenantKeyRepository {
	return &MySQLTenantKeyRepository{db: db}
}

// Create inserts a new tenant key version.
func (m *MySQLTenantKeyRepository) Create(ctx context.Context, key *cryptoDomain.TenantKey) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO tenant_keys (id, tenant_id, purpose, key_type, algorithm, master_key_id, wrapped_by,
			  wrapped_key, nonce, fingerprint, version, status, rotation_reason, created_at, rotated_at, next_rotation)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant key id")
	}

	wrappedBy, err := uuidPtrToBytes(key.WrappedBy)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal wrapping key id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		key.TenantID,
		key.Purpose,
		key.KeyType,
		key.Algorithm,
		key.MasterKeyID,
		wrappedBy,
		key.WrappedKey,
		key.Nonce,
		key.Fingerprint,
		key.Version,
		key.Status,
		key.RotationReason,
		key.CreatedAt,
		timePtrToNull(key.RotatedAt),
		key.NextRotation,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create tenant key")
	}
	return nil
}

// ListByTenant returns every key version for the tenant, newest first.
func (m *MySQLTenantKeyRepository) ListByTenant(
	ctx context.Context, tenantID string,
) ([]*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE tenant_id = ?
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tenant keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []*cryptoDomain.TenantKey
	for rows.Next() {
		key, err := scanMySQLTenantKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// GetActive returns the single active key version for (tenant, purpose, key type).
func (m *MySQLTenantKeyRepository) GetActive(
	ctx context.Context,
	tenantID string,
	purpose cryptoDomain.Purpose,
	keyType cryptoDomain.KeyType,
) (*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE tenant_id = ? AND purpose = ? AND key_type = ? AND status = ?`

	row := querier.QueryRowContext(ctx, query, tenantID, purpose, keyType, cryptoDomain.KeyStatusActive)
	key, err := scanMySQLTenantKeyRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrNoActiveKey
		}
		return nil, apperrors.Wrap(err, "failed to get active tenant key")
	}
	return key, nil
}

// GetByFingerprint returns the key version tagged in an envelope, any status.
func (m *MySQLTenantKeyRepository) GetByFingerprint(
	ctx context.Context, tenantID, fingerprint string,
) (*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE tenant_id = ? AND fingerprint = ?`

	row := querier.QueryRowContext(ctx, query, tenantID, fingerprint)
	key, err := scanMySQLTenantKeyRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tenant key by fingerprint")
	}
	return key, nil
}

// GetByID returns one key version by its identifier.
func (m *MySQLTenantKeyRepository) GetByID(
	ctx context.Context, id uuid.UUID,
) (*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal tenant key id")
	}

	row := querier.QueryRowContext(ctx, query, idBytes)
	key, err := scanMySQLTenantKeyRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tenant key")
	}
	return key, nil
}

// HasActiveKeys reports whether the tenant has any active hierarchy key
// (master or data). Backup escrow rows must not count, a tenant holding
// only recovery bundles is unprovisioned.
func (m *MySQLTenantKeyRepository) HasActiveKeys(ctx context.Context, tenantID string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT EXISTS (SELECT 1 FROM tenant_keys WHERE tenant_id = ? AND status = ? AND key_type IN (?, ?))`

	var exists bool
	err := querier.QueryRowContext(ctx, query,
		tenantID, cryptoDomain.KeyStatusActive, cryptoDomain.KeyTypeMaster, cryptoDomain.KeyTypeData,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check tenant keys")
	}
	return exists, nil
}

// UpdateStatus sets the status of one key version, stamping rotated_at when provided.
func (m *MySQLTenantKeyRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status cryptoDomain.KeyStatus,
	rotatedAt *time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant key id")
	}

	if rotatedAt != nil {
		query := `UPDATE tenant_keys SET status = ?, rotated_at = ? WHERE id = ?`
		if _, err := querier.ExecContext(ctx, query, status, *rotatedAt, idBytes); err != nil {
			return apperrors.Wrap(err, "failed to update tenant key status")
		}
		return nil
	}

	query := `UPDATE tenant_keys SET status = ? WHERE id = ?`
	if _, err := querier.ExecContext(ctx, query, status, idBytes); err != nil {
		return apperrors.Wrap(err, "failed to update tenant key status")
	}
	return nil
}

// UpdateWrapping rewrites the wrapped material of a key version after a rewrap.
func (m *MySQLTenantKeyRepository) UpdateWrapping(ctx context.Context, key *cryptoDomain.TenantKey) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal tenant key id")
	}

	wrappedBy, err := uuidPtrToBytes(key.WrappedBy)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal wrapping key id")
	}

	query := `UPDATE tenant_keys SET wrapped_key = ?, nonce = ?, wrapped_by = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, key.WrappedKey, key.Nonce, wrappedBy, idBytes); err != nil {
		return apperrors.Wrap(err, "failed to update tenant key wrapping")
	}
	return nil
}

func scanMySQLTenantKey(rows *sql.Rows) (*cryptoDomain.TenantKey, error) {
	return scanMySQLTenantKeyRow(rows)
}

func scanMySQLTenantKeyRow(scanner rowScanner) (*cryptoDomain.TenantKey, error) {
	var key cryptoDomain.TenantKey
	var idBytes, wrappedByBytes []byte
	var rotatedAt sql.NullTime

	err := scanner.Scan(
		&idBytes,
		&key.TenantID,
		&key.Purpose,
		&key.KeyType,
		&key.Algorithm,
		&key.MasterKeyID,
		&wrappedByBytes,
		&key.WrappedKey,
		&key.Nonce,
		&key.Fingerprint,
		&key.Version,
		&key.Status,
		&key.RotationReason,
		&key.CreatedAt,
		&rotatedAt,
		&key.NextRotation,
	)
	if err != nil {
		return nil, err
	}

	if key.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal tenant key id")
	}
	if len(wrappedByBytes) > 0 {
		wrappedBy, err := uuid.FromBytes(wrappedByBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal wrapping key id")
		}
		key.WrappedBy = &wrappedBy
	}
	if rotatedAt.Valid {
		t := rotatedAt.Time
		key.RotatedAt = &t
	}

	return &key, nil
}

// uuidPtrToBytes marshals an optional UUID to BINARY(16) bytes, nil for NULL.
func uuidPtrToBytes(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}
