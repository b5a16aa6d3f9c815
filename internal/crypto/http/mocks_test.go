package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
)

// mockTenantKeyUseCase is a testify mock for the tenant key use case.
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
	ctx context.Context, keyID uuid.UUID, status cryptoDomain.KeyStatus,
) error {
	args := m.Called(ctx, keyID, status)
	return args.Error(0)
}

// mockRotationUseCase is a testify mock for the rotation use case.
type mockRotationUseCase struct {
	mock.Mock
}

func (m *mockRotationUseCase) RotateKey(
	ctx context.Context, tenantID string, purpose cryptoDomain.Purpose, reason string,
) (*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, tenantID, purpose, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.TenantKey), args.Error(1)
}

func (m *mockRotationUseCase) RotateMasterKey(
	ctx context.Context, tenantID, reason string,
) (*cryptoDomain.TenantKey, error) {
	args := m.Called(ctx, tenantID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.TenantKey), args.Error(1)
}

// mockEnvelopeUseCase is a testify mock for the envelope encryption engine.
type mockEnvelopeUseCase struct {
	mock.Mock
}

func (m *mockEnvelopeUseCase) Encrypt(
	ctx context.Context,
	tenantID string,
	plaintext []byte,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) (string, error) {
	args := m.Called(ctx, tenantID, plaintext, purpose, encCtx)
	return args.String(0), args.Error(1)
}

func (m *mockEnvelopeUseCase) Decrypt(
	ctx context.Context,
	tenantID string,
	envelope string,
	purpose cryptoDomain.Purpose,
	encCtx *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	args := m.Called(ctx, tenantID, envelope, purpose, encCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
