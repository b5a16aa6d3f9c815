package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allisson/tenantcrypto/internal/crypto/cache"
	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoService "github.com/allisson/tenantcrypto/internal/crypto/service"
	"github.com/allisson/tenantcrypto/internal/database"
	apperrors "github.com/allisson/tenantcrypto/internal/errors"
)

// keyedMutex hands out one mutex per key, so rotations for different
// (tenant, purpose) pairs never contend with each other.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	return lock
}

// rotationUseCase implements RotationUseCase.
type rotationUseCase struct {
	txManager      database.TxManager
	tenantKeyRepo  TenantKeyRepository
	keyManager     cryptoService.KeyManager
	masterKeyChain *cryptoDomain.MasterKeyChain
	keyCache       *cache.KeyCache
	logger         *slog.Logger
	algorithm      cryptoDomain.Algorithm
	locks          *keyedMutex
}

// RotateKey replaces the active data key for (tenant, purpose).
//
// At most one rotation per (tenant, purpose) runs at a time; a second caller
// gets ErrRotationInProgress immediately instead of queueing. Inside one
// transaction the old version moves active → rotating, the replacement is
// inserted as active with a bumped version, and the old version moves
// rotating → archived. Readers in other transactions therefore never observe
// two active versions. Once the transaction commits the rotation is done:
// cache invalidation always follows, even if the caller's context is gone.
func (r *rotationUseCase) RotateKey(
	ctx context.Context,
	tenantID string,
	purpose cryptoDomain.Purpose,
	reason string,
) (*cryptoDomain.TenantKey, error) {
	if tenantID == "" {
		return nil, cryptoDomain.ErrTenantInvalid
	}

	lock := r.locks.get(tenantID + "|" + string(purpose))
	if !lock.TryLock() {
		return nil, cryptoDomain.ErrRotationInProgress
	}
	defer lock.Unlock()

	var newKey *cryptoDomain.TenantKey
	err := r.txManager.WithTx(ctx, func(txCtx context.Context) error {
		oldKey, err := r.tenantKeyRepo.GetActive(txCtx, tenantID, purpose, cryptoDomain.KeyTypeData)
		if err != nil {
			return err
		}

		tenantMaster, err := r.activeTenantMaster(txCtx, tenantID)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(tenantMaster.Key)

		if err := r.tenantKeyRepo.UpdateStatus(txCtx, oldKey.ID, cryptoDomain.KeyStatusRotating, nil); err != nil {
			return err
		}

		created, err := r.keyManager.CreateDataKey(tenantMaster, purpose, r.algorithm)
		if err != nil {
			return err
		}
		cryptoDomain.Zero(created.Key)
		created.Version = oldKey.Version + 1
		created.RotationReason = reason

		if err := r.tenantKeyRepo.Create(txCtx, &created); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := r.tenantKeyRepo.UpdateStatus(txCtx, oldKey.ID, cryptoDomain.KeyStatusArchived, &now); err != nil {
			return err
		}

		newKey = &created
		return nil
	})
	if err != nil {
		return nil, r.rotationError(ctx, tenantID, string(purpose), err)
	}

	r.keyCache.Invalidate(tenantID, &purpose)

	return newKey, nil
}

// RotateMasterKey replaces the tenant master key and rewraps every
// non-archived data key under the new version in the same transaction.
// Archived data keys stay wrapped by the master version that wrapped them,
// which is retained, so historical ciphertext remains decryptable. Data key
// material and fingerprints never change, so no field ciphertext is touched.
func (r *rotationUseCase) RotateMasterKey(
	ctx context.Context,
	tenantID, reason string,
) (*cryptoDomain.TenantKey, error) {
	if tenantID == "" {
		return nil, cryptoDomain.ErrTenantInvalid
	}

	lock := r.locks.get(tenantID + "|" + string(cryptoDomain.KeyTypeMaster))
	if !lock.TryLock() {
		return nil, cryptoDomain.ErrRotationInProgress
	}
	defer lock.Unlock()

	masterKey, found := r.masterKeyChain.Get(r.masterKeyChain.ActiveMasterKeyID())
	if !found {
		return nil, cryptoDomain.ErrActiveMasterKeyNotFound
	}

	var newMaster *cryptoDomain.TenantKey
	err := r.txManager.WithTx(ctx, func(txCtx context.Context) error {
		oldMaster, err := r.tenantKeyRepo.GetActive(
			txCtx, tenantID, cryptoDomain.PurposeGeneral, cryptoDomain.KeyTypeMaster)
		if err != nil {
			return err
		}

		oldPlain, err := r.unwrapTenantMaster(oldMaster)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(oldPlain)
		oldMaster.Key = oldPlain

		if err := r.tenantKeyRepo.UpdateStatus(txCtx, oldMaster.ID, cryptoDomain.KeyStatusRotating, nil); err != nil {
			return err
		}

		created, err := r.keyManager.CreateTenantMasterKey(masterKey, tenantID, r.algorithm)
		if err != nil {
			return err
		}
		defer cryptoDomain.Zero(created.Key)
		created.Version = oldMaster.Version + 1
		created.RotationReason = reason

		if err := r.tenantKeyRepo.Create(txCtx, &created); err != nil {
			return err
		}

		if err := r.rewrapDataKeys(txCtx, tenantID, oldMaster, &created); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := r.tenantKeyRepo.UpdateStatus(txCtx, oldMaster.ID, cryptoDomain.KeyStatusArchived, &now); err != nil {
			return err
		}

		copied := created
		copied.Key = nil
		newMaster = &copied
		return nil
	})
	if err != nil {
		return nil, r.rotationError(ctx, tenantID, string(cryptoDomain.KeyTypeMaster), err)
	}

	r.keyCache.Invalidate(tenantID, nil)

	return newMaster, nil
}

// rewrapDataKeys re-encrypts every non-archived data key under the new tenant
// master version. Keys wrapped by a master version other than oldMaster are
// unwrapped through their recorded wrapping version instead.
func (r *rotationUseCase) rewrapDataKeys(
	ctx context.Context,
	tenantID string,
	oldMaster *cryptoDomain.TenantKey,
	newMaster *cryptoDomain.TenantKey,
) error {
	keys, err := r.tenantKeyRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if key.KeyType != cryptoDomain.KeyTypeData || key.Status == cryptoDomain.KeyStatusArchived {
			continue
		}

		wrappingMaster := oldMaster
		if key.WrappedBy == nil {
			return apperrors.Wrap(apperrors.ErrInternal, "data key has no wrapping key reference")
		}
		if *key.WrappedBy != oldMaster.ID {
			other, err := r.tenantKeyRepo.GetByID(ctx, *key.WrappedBy)
			if err != nil {
				return err
			}
			otherPlain, err := r.unwrapTenantMaster(other)
			if err != nil {
				return err
			}
			other.Key = otherPlain
			wrappingMaster = other
		}

		plainKey, err := r.keyManager.UnwrapDataKey(key, wrappingMaster)
		if wrappingMaster != oldMaster {
			cryptoDomain.Zero(wrappingMaster.Key)
		}
		if err != nil {
			return err
		}

		err = r.keyManager.RewrapDataKey(key, plainKey, newMaster)
		cryptoDomain.Zero(plainKey)
		if err != nil {
			return err
		}

		if err := r.tenantKeyRepo.UpdateWrapping(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// activeTenantMaster loads and unwraps the tenant's active master key.
func (r *rotationUseCase) activeTenantMaster(
	ctx context.Context, tenantID string,
) (*cryptoDomain.TenantKey, error) {
	tenantMaster, err := r.tenantKeyRepo.GetActive(
		ctx, tenantID, cryptoDomain.PurposeGeneral, cryptoDomain.KeyTypeMaster)
	if err != nil {
		return nil, err
	}

	plain, err := r.unwrapTenantMaster(tenantMaster)
	if err != nil {
		return nil, err
	}
	tenantMaster.Key = plain

	return tenantMaster, nil
}

func (r *rotationUseCase) unwrapTenantMaster(tenantMaster *cryptoDomain.TenantKey) ([]byte, error) {
	masterKey, found := r.masterKeyChain.Get(tenantMaster.MasterKeyID)
	if !found {
		return nil, cryptoDomain.ErrMasterKeyNotFound
	}
	return r.keyManager.UnwrapTenantMasterKey(tenantMaster, masterKey)
}

// rotationError keeps pre-commit failures observable without leaking their
// detail to callers: missing-key conditions pass through, everything else
// is logged and collapsed into ErrRotationFailed.
func (r *rotationUseCase) rotationError(ctx context.Context, tenantID, scope string, err error) error {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	r.logger.ErrorContext(ctx, "rotation failed",
		"tenant_id", tenantID,
		"scope", scope,
		"error", err,
	)
	return cryptoDomain.ErrRotationFailed
}

// NewRotationUseCase creates a new RotationUseCase with the provided dependencies.
func NewRotationUseCase(
	txManager database.TxManager,
	tenantKeyRepo TenantKeyRepository,
	keyManager cryptoService.KeyManager,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	keyCache *cache.KeyCache,
	logger *slog.Logger,
	algorithm cryptoDomain.Algorithm,
) RotationUseCase {
	return &rotationUseCase{
		txManager:      txManager,
		tenantKeyRepo:  tenantKeyRepo,
		keyManager:     keyManager,
		masterKeyChain: masterKeyChain,
		keyCache:       keyCache,
		logger:         logger,
		algorithm:      algorithm,
		locks:          newKeyedMutex(),
	}
}
