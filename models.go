package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is the domain user. Password material never lives here; it stays
// behind the CredentialStore.
type User struct {
	ID        uuid.UUID `json:"id,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone_number,omitempty"`
	Roles     []Role    `json:"roles,omitempty"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the user's role names in assignment order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// Role is a globally unique role name. Default, management, and predefined
// role sets are policy configuration, not role attributes.
type Role struct {
	Name string `json:"name"`
}

// NewRole creates a role with the given name.
func NewRole(name string) Role {
	return Role{Name: name}
}

// Claims is the (email, roles) pair embedded in a token at issuance.
type Claims struct {
	Email string
	Roles []Role
}

// ClaimsForUser builds token claims from a user record.
func ClaimsForUser(user *User) Claims {
	if user == nil {
		return Claims{}
	}
	return Claims{
		Email: user.Email,
		Roles: user.Roles,
	}
}

// ResetToken is a single use secret bound to one user with a creation
// timestamp. At most one active token exists per user; issuing a new one
// replaces the prior one.
type ResetToken struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// SignInRequest carries sign in credentials.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest carries the registration payload. RegistrationKey is only
// consulted when the configured registration mode is key based. Phone is
// optional; when present it must be a parseable phone number.
type SignUpRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone_number,omitempty"`
	Password             string `json:"password"`
	ConfirmationPassword string `json:"confirmation_password"`
	RegistrationKey      string `json:"registration_key,omitempty"`
}

// ValidationResult is the outcome of password strength validation. Errors
// keeps the violations in check order.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}
