package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Authorizer manages role definitions and enforces the configured role
// policy: predefined roles exist after startup, default roles are granted at
// sign up and cannot be reclaimed, management roles gate role administration.
type Authorizer struct {
	creds    CredentialStore
	roles    RoleStore
	settings AuthorizationSettings
	logger   Logger
}

// NewAuthorizer returns a new Authorizer.
func NewAuthorizer(creds CredentialStore, roles RoleStore, settings AuthorizationSettings) *Authorizer {
	return &Authorizer{
		creds:    creds,
		roles:    roles,
		settings: settings,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the authorizer.
func (a *Authorizer) WithLogger(logger Logger) *Authorizer {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// EnsurePredefinedRoles creates each configured predefined role that does
// not exist yet. Idempotent; invoked once at process start.
func (a *Authorizer) EnsurePredefinedRoles(ctx context.Context) error {
	for _, name := range a.settings.PredefinedRoles {
		role := NewRole(name)

		exists, err := a.roles.Exists(ctx, role)
		if err != nil {
			return WrapUnknown(err, "could not check predefined role")
		}

		if exists {
			continue
		}

		if _, err := a.roles.Create(ctx, role); err != nil {
			return WrapUnknown(err, "could not create predefined role")
		}

		a.logger.Info("created predefined role", "role", name)
	}

	return nil
}

// AssignDefaultRoles grants every configured default role to the user. The
// user and each default role must already exist.
func (a *Authorizer) AssignDefaultRoles(ctx context.Context, userID uuid.UUID) error {
	if err := a.ensureUserExists(ctx, userID); err != nil {
		return err
	}

	for _, name := range a.settings.DefaultRoles {
		role := NewRole(name)

		if err := a.ensureRoleExists(ctx, role); err != nil {
			return err
		}

		if err := a.creds.AddRole(ctx, userID, role); err != nil {
			return WrapUnknown(err, "could not assign default role")
		}
	}

	return nil
}

// DefineRole creates a new role, failing when creation did not succeed,
// e.g. on a duplicate name.
func (a *Authorizer) DefineRole(ctx context.Context, role Role) (bool, error) {
	created, err := a.roles.Create(ctx, role)
	if err != nil {
		return false, WrapUnknown(err, "could not create role")
	}

	if !created {
		return false, NewIncorrectData(fmt.Sprintf("cannot create new role %q", role.Name))
	}

	return created, nil
}

// CanManageRoles reports whether the user exists and holds at least one
// configured management role. A missing user is false, not an error.
func (a *Authorizer) CanManageRoles(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := a.creds.GetByID(ctx, userID)
	if err != nil {
		return false, WrapUnknown(err, "could not load user for management check")
	}

	if user == nil {
		return false, nil
	}

	for _, role := range user.Roles {
		if a.settings.IsManagementRole(role.Name) {
			return true, nil
		}
	}

	return false, nil
}

// AssignRole grants the role to the user. Both must exist; assigning an
// already held role is a no-op.
func (a *Authorizer) AssignRole(ctx context.Context, role Role, userID uuid.UUID) error {
	if err := a.ensureUserExists(ctx, userID); err != nil {
		return err
	}

	if err := a.ensureRoleExists(ctx, role); err != nil {
		return err
	}

	if err := a.creds.AddRole(ctx, userID, role); err != nil {
		return WrapUnknown(err, "could not assign role")
	}

	return nil
}

// ReclaimRole removes the role from the user. Default roles cannot be
// reclaimed, regardless of the caller's rights.
func (a *Authorizer) ReclaimRole(ctx context.Context, role Role, userID uuid.UUID) error {
	if err := a.ensureUserExists(ctx, userID); err != nil {
		return err
	}

	if err := a.ensureRoleExists(ctx, role); err != nil {
		return err
	}

	if a.settings.IsDefaultRole(role.Name) {
		return NewIncorrectData(fmt.Sprintf("cannot reclaim role %q: it is a default role", role.Name))
	}

	if err := a.creds.RemoveRole(ctx, userID, role); err != nil {
		return WrapUnknown(err, "could not reclaim role")
	}

	return nil
}

// ListRoles returns every known role.
func (a *Authorizer) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := a.roles.ListAll(ctx)
	if err != nil {
		return nil, WrapUnknown(err, "could not list roles")
	}
	return roles, nil
}

func (a *Authorizer) ensureRoleExists(ctx context.Context, role Role) error {
	exists, err := a.roles.Exists(ctx, role)
	if err != nil {
		return WrapUnknown(err, "could not check role")
	}

	if !exists {
		return NewIncorrectData(fmt.Sprintf("no role %q available", role.Name))
	}

	return nil
}

func (a *Authorizer) ensureUserExists(ctx context.Context, userID uuid.UUID) error {
	exists, err := a.creds.Exists(ctx, userID)
	if err != nil {
		return WrapUnknown(err, "could not check user")
	}

	if !exists {
		return NewIncorrectData(fmt.Sprintf("no user with id %q found", userID))
	}

	return nil
}
