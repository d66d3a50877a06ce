package identity

import (
	"context"

	"github.com/google/uuid"
)

// CredentialStore persists user records, password hashes, role membership,
// and reset tokens. Lookups return (nil, nil) when no record exists; an
// error means the store itself failed.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Create persists the user with the given password. False means the
	// record was not created, e.g. a uniqueness conflict.
	Create(ctx context.Context, user *User, password string) (bool, error)

	// Authenticate checks the password against the stored hash. False for
	// unknown email or mismatched password alike.
	Authenticate(ctx context.Context, email, password string) (bool, error)

	// ValidatePassword runs the store's password strength policy.
	ValidatePassword(ctx context.Context, password string) (ValidationResult, error)

	// GenerateResetToken issues a fresh reset token for the user, replacing
	// any prior active token. Nil when the user does not exist.
	GenerateResetToken(ctx context.Context, userID uuid.UUID) (*ResetToken, error)

	// ConsumeResetToken sets the password when token matches the stored
	// active token and is within its expiry window, deleting it on success.
	// False for any mismatch or expiry.
	ConsumeResetToken(ctx context.Context, userID uuid.UUID, token, newPassword string) (bool, error)

	// AddRole and RemoveRole are idempotent membership writes.
	AddRole(ctx context.Context, userID uuid.UUID, role Role) error
	RemoveRole(ctx context.Context, userID uuid.UUID, role Role) error

	Delete(ctx context.Context, userID uuid.UUID) error
}

// RoleStore persists the set of known roles and membership queries.
type RoleStore interface {
	ListAll(ctx context.Context) ([]Role, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Role, error)
	Exists(ctx context.Context, role Role) (bool, error)

	// Create returns false when the role already exists.
	Create(ctx context.Context, role Role) (bool, error)
	Delete(ctx context.Context, role Role) error
}

// Notifier delivers a password reset message to an address.
type Notifier interface {
	SendPasswordResetMessage(ctx context.Context, address string, token ResetToken) error
}
