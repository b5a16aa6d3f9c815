package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoService "github.com/allisson/tenantcrypto/internal/crypto/service"
	"github.com/allisson/tenantcrypto/internal/database"
	apperrors "github.com/allisson/tenantcrypto/internal/errors"
)

// tenantKeyUseCase implements TenantKeyUseCase for the key hierarchy store.
type tenantKeyUseCase struct {
	txManager      database.TxManager
	tenantKeyRepo  TenantKeyRepository
	keyManager     cryptoService.KeyManager
	masterKeyChain *cryptoDomain.MasterKeyChain
	algorithm      cryptoDomain.Algorithm
}

// CreateTenantKeys bootstraps the key hierarchy for a tenant: one master key
// wrapped by the active operator master key, plus one data key per purpose
// wrapped by the tenant master key. All six rows are inserted in a single
// transaction; a failure leaves no partial hierarchy behind.
//
// Bootstrap is idempotent. A tenant that already has active keys keeps them,
// so calling this on every deploy is safe.
func (t *tenantKeyUseCase) CreateTenantKeys(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return cryptoDomain.ErrTenantInvalid
	}

	hasKeys, err := t.tenantKeyRepo.HasActiveKeys(ctx, tenantID)
	if err != nil {
		return apperrors.Wrap(err, "failed to check tenant keys")
	}
	if hasKeys {
		return nil
	}

	masterKey, found := t.masterKeyChain.Get(t.masterKeyChain.ActiveMasterKeyID())
	if !found {
		return cryptoDomain.ErrActiveMasterKeyNotFound
	}

	return t.txManager.WithTx(ctx, func(txCtx context.Context) error {
		tenantMaster, err := t.keyManager.CreateTenantMasterKey(masterKey, tenantID, t.algorithm)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(tenantMaster.Key)

		if err := t.tenantKeyRepo.Create(txCtx, &tenantMaster); err != nil {
			return err
		}

		for _, purpose := range cryptoDomain.Purposes {
			dataKey, err := t.keyManager.CreateDataKey(&tenantMaster, purpose, t.algorithm)
			if err != nil {
				return err
			}
			cryptoDomain.Zero(dataKey.Key)

			if err := t.tenantKeyRepo.Create(txCtx, &dataKey); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetKeyInfo returns the audit view of every key version for the tenant,
// newest first. Key material, wrapped or plaintext, never leaves this call.
func (t *tenantKeyUseCase) GetKeyInfo(ctx context.Context, tenantID string) ([]cryptoDomain.Info, error) {
	if tenantID == "" {
		return nil, cryptoDomain.ErrTenantInvalid
	}

	keys, err := t.tenantKeyRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tenant keys")
	}

	infos := make([]cryptoDomain.Info, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, key.Info())
	}

	return infos, nil
}

// UpdateStatus moves one key version through the lifecycle, enforcing the
// active → rotating → archived order. rotated_at is stamped when a version
// leaves active status.
func (t *tenantKeyUseCase) UpdateStatus(
	ctx context.Context,
	keyID uuid.UUID,
	status cryptoDomain.KeyStatus,
) error {
	key, err := t.tenantKeyRepo.GetByID(ctx, keyID)
	if err != nil {
		return err
	}

	if !key.Status.CanTransitionTo(status) {
		return cryptoDomain.ErrIllegalTransition
	}

	var rotatedAt *time.Time
	if key.Status == cryptoDomain.KeyStatusActive {
		now := time.Now().UTC()
		rotatedAt = &now
	}

	if err := t.tenantKeyRepo.UpdateStatus(ctx, keyID, status, rotatedAt); err != nil {
		return apperrors.Wrap(err, "failed to update key status")
	}

	return nil
}

// NewTenantKeyUseCase creates a new TenantKeyUseCase with the provided dependencies.
func NewTenantKeyUseCase(
	txManager database.TxManager,
	tenantKeyRepo TenantKeyRepository,
	keyManager cryptoService.KeyManager,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	algorithm cryptoDomain.Algorithm,
) TenantKeyUseCase {
	return &tenantKeyUseCase{
		txManager:      txManager,
		tenantKeyRepo:  tenantKeyRepo,
		keyManager:     keyManager,
		masterKeyChain: masterKeyChain,
		algorithm:      algorithm,
	}
}
