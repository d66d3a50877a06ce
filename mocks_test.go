package identity_test

import (
	"context"

	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements identity.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) Create(ctx context.Context, user *identity.User, password string) (bool, error) {
	args := m.Called(ctx, user, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) Authenticate(ctx context.Context, email, password string) (bool, error) {
	args := m.Called(ctx, email, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) ValidatePassword(ctx context.Context, password string) (identity.ValidationResult, error) {
	args := m.Called(ctx, password)
	return args.Get(0).(identity.ValidationResult), args.Error(1)
}

func (m *MockCredentialStore) GenerateResetToken(ctx context.Context, userID uuid.UUID) (*identity.ResetToken, error) {
	args := m.Called(ctx, userID)
	token, _ := args.Get(0).(*identity.ResetToken)
	return token, args.Error(1)
}

func (m *MockCredentialStore) ConsumeResetToken(ctx context.Context, userID uuid.UUID, token, newPassword string) (bool, error) {
	args := m.Called(ctx, userID, token, newPassword)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) AddRole(ctx context.Context, userID uuid.UUID, role identity.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockCredentialStore) RemoveRole(ctx context.Context, userID uuid.UUID, role identity.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockCredentialStore) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockRoleStore implements identity.RoleStore
type MockRoleStore struct {
	mock.Mock
}

func (m *MockRoleStore) ListAll(ctx context.Context) ([]identity.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]identity.Role)
	return roles, args.Error(1)
}

func (m *MockRoleStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]identity.Role, error) {
	args := m.Called(ctx, userID)
	roles, _ := args.Get(0).([]identity.Role)
	return roles, args.Error(1)
}

func (m *MockRoleStore) Exists(ctx context.Context, role identity.Role) (bool, error) {
	args := m.Called(ctx, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleStore) Create(ctx context.Context, role identity.Role) (bool, error) {
	args := m.Called(ctx, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleStore) Delete(ctx context.Context, role identity.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

// MockNotifier implements identity.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPasswordResetMessage(ctx context.Context, address string, token identity.ResetToken) error {
	args := m.Called(ctx, address, token)
	return args.Error(0)
}
