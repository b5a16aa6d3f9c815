// Package repository implements data persistence for tenant key management.
//
// It provides repository implementations for storing and retrieving tenant key
// versions in PostgreSQL and MySQL databases. Key rows are append-mostly: new
// versions are inserted and statuses updated, but a version is never deleted,
// preserving the ability to decrypt historical ciphertext.
//
// All repositories support transaction-aware operations via database.GetTx(),
// enabling atomic multi-step operations such as key rotation. When called within
// a transaction context, repositories automatically use the transaction
// connection.
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

// tenantKeyColumns is the canonical column list shared by every read query.
const tenantKeyColumns = `id, tenant_id, purpose, key_type, algorithm, master_key_id, wrapped_by,
	   wrapped_key, nonce, fingerprint, version, status, rotation_reason, created_at, rotated_at, next_rotation`

// PostgreSQLTenantKeyRepository implements tenant key persistence for PostgreSQL.
//
// Uses the native UUID type for identifiers and BYTEA for wrapped key material.
// Plaintext key material never reaches this layer: rows carry only wrapped bytes.
type PostgreSQLTenantKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLTenantKeyRepository creates a repository bound to the given database.
func NewPostgreSQLTenantKeyRepository(db *sql.DB) *PostgreSQLTenantKeyRepository {
	return &PostgreSQLTenantKeyRepository{db: db}
}

// Create inserts a new tenant key version.
func (p *PostgreSQLTenantKeyRepository) Create(ctx context.Context, key *cryptoDomain.TenantKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO tenant_keys (id, tenant_id, purpose, key_type, algorithm, master_key_id, wrapped_by,
			  wrapped_key, nonce, fingerprint, version, status, rotation_reason, created_at, rotated_at, next_rotation)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID,
		key.TenantID,
		key.Purpose,
		key.KeyType,
		key.Algorithm,
		key.MasterKeyID,
		uuidPtrToNull(key.WrappedBy),
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
// Used for audit display; all statuses are included.
func (p *PostgreSQLTenantKeyRepository) ListByTenant(
	ctx context.Context, tenantID string,
) ([]*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE tenant_id = $1
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
		key, err := scanTenantKey(rows)
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
// Returns ErrNoActiveKey when the tenant was never bootstrapped for the purpose.
func (p *PostgreSQLTenantKeyRepository) GetActive(
	ctx context.Context,
	tenantID string,
	purpose cryptoDomain.Purpose,
	keyType cryptoDomain.KeyType,
) (*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE tenant_id = $1 AND purpose = $2 AND key_type = $3 AND status = $4`

	row := querier.QueryRowContext(ctx, query, tenantID, purpose, keyType, cryptoDomain.KeyStatusActive)
	key, err := scanTenantKeyRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrNoActiveKey
		}
		return nil, apperrors.Wrap(err, "failed to get active tenant key")
	}
	return key, nil
}

// GetByFingerprint returns the key version tagged in an envelope, any status.
// Lookup is always tenant-scoped: another tenant's fingerprint is not found.
func (p *PostgreSQLTenantKeyRepository) GetByFingerprint(
	ctx context.Context, tenantID, fingerprint string,
) (*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE tenant_id = $1 AND fingerprint = $2`

	row := querier.QueryRowContext(ctx, query, tenantID, fingerprint)
	key, err := scanTenantKeyRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tenant key by fingerprint")
	}
	return key, nil
}

// GetByID returns one key version by its identifier.
func (p *PostgreSQLTenantKeyRepository) GetByID(
	ctx context.Context, id uuid.UUID,
) (*cryptoDomain.TenantKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + tenantKeyColumns + `
			  FROM tenant_keys
			  WHERE id = $1`

	row := querier.QueryRowContext(ctx, query, id)
	key, err := scanTenantKeyRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, cryptoDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tenant key")
	}
	return key, nil
}

// HasActiveKeys reports whether the tenant has any active hierarchy key
// (master or data). Used by the idempotent bootstrap; backup escrow rows
// must not count, a tenant holding only recovery bundles is unprovisioned.
func (p *PostgreSQLTenantKeyRepository) HasActiveKeys(ctx context.Context, tenantID string) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS (SELECT 1 FROM tenant_keys WHERE tenant_id = $1 AND status = $2 AND key_type IN ($3, $4))`

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
// Lifecycle legality is enforced by the use case before calling.
func (p *PostgreSQLTenantKeyRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status cryptoDomain.KeyStatus,
	rotatedAt *time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	if rotatedAt != nil {
		query := `UPDATE tenant_keys SET status = $1, rotated_at = $2 WHERE id = $3`
		if _, err := querier.ExecContext(ctx, query, status, *rotatedAt, id); err != nil {
			return apperrors.Wrap(err, "failed to update tenant key status")
		}
		return nil
	}

	query := `UPDATE tenant_keys SET status = $1 WHERE id = $2`
	if _, err := querier.ExecContext(ctx, query, status, id); err != nil {
		return apperrors.Wrap(err, "failed to update tenant key status")
	}
	return nil
}

// UpdateWrapping rewrites the wrapped material of a key version after a rewrap:
// wrapped_key, nonce and wrapped_by change, identity columns do not.
func (p *PostgreSQLTenantKeyRepository) UpdateWrapping(ctx context.Context, key *cryptoDomain.TenantKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE tenant_keys SET wrapped_key = $1, nonce = $2, wrapped_by = $3 WHERE id = $4`

	_, err := querier.ExecContext(ctx, query, key.WrappedKey, key.Nonce, uuidPtrToNull(key.WrappedBy), key.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update tenant key wrapping")
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenantKey(rows *sql.Rows) (*cryptoDomain.TenantKey, error) {
	return scanTenantKeyRow(rows)
}

func scanTenantKeyRow(scanner rowScanner) (*cryptoDomain.TenantKey, error) {
	var key cryptoDomain.TenantKey
	var wrappedBy uuid.NullUUID
	var rotatedAt sql.NullTime

	err := scanner.Scan(
		&key.ID,
		&key.TenantID,
		&key.Purpose,
		&key.KeyType,
		&key.Algorithm,
		&key.MasterKeyID,
		&wrappedBy,
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

	if wrappedBy.Valid {
		id := wrappedBy.UUID
		key.WrappedBy = &id
	}
	if rotatedAt.Valid {
		t := rotatedAt.Time
		key.RotatedAt = &t
	}

	return &key, nil
}

func uuidPtrToNull(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
