package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	recoveryUsecase "github.com/allisson/tenantcrypto/internal/recovery/usecase"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

type mockTenantKeyUseCase struct {
	mock.Mock
}

func (m *mockTenantKeyUseCase) CreateTenantKeys(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *mockTenantKeyUseCase) GetKeyInfo(ctx context.Context, tenantID string) ([]cryptoDomain.Info, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cryptoDomain.Info), args.Error(1)
}

func (m *mockTenantKeyUseCase) UpdateStatus(
	ctx context.Context,
	keyID uuid.UUID,
	status cryptoDomain.KeyStatus,
) error {
	args := m.Called(ctx, keyID, status)
	return args.Error(0)
}

type mockRotationUseCase struct {
	mock.Mock
}

func (m *mockRotationUseCase) RotateKey(
	ctx context.Context,
	tenantID string,
	purpose cryptoDomain.Purpose,
	reason string,
) (*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, tenantID, purpose, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.TenantKey), args.Error(1)
}

func (m *mockRotationUseCase) RotateMasterKey(
	ctx context.Context,
	tenantID, reason string,
) (*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, tenantID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.TenantKey), args.Error(1)
}

type mockUsageUseCase struct {
	mock.Mock
}

func (m *mockUsageUseCase) Record(
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

func (m *mockUsageUseCase) GetCryptoStats(
	ctx context.Context,
	tenantID string,
	days int,
) ([]*telemetryDomain.UsageAggregate, error) {
	args := m.Called(ctx, tenantID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*telemetryDomain.UsageAggregate), args.Error(1)
}

func (m *mockUsageUseCase) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type mockRecoveryUseCase struct {
	mock.Mock
}

func (m *mockRecoveryUseCase) GenerateRecoveryBundle(
	ctx context.Context,
	tenantID string,
) (*recoveryUsecase.RecoveryBundle, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recoveryUsecase.RecoveryBundle), args.Error(1)
}
