// Package identity is an identity backend core: it authenticates users,
// issues and validates bearer tokens, enforces registration policy, manages
// password reset tokens, and enforces role based authorization.
//
// The engines own no durable state. Users, password hashes, role membership,
// and reset tokens live behind the CredentialStore and RoleStore contracts;
// outbound reset messages go through the Notifier. Two store backends ship
// with the module: bunstore (relational, bun ORM) and memstore (in process
// key value tables).
//
// Typical wiring:
//
//	authn, authz, _ := identity.SettingsFromEnv()
//	tokens := identity.NewTokenService(authn, nil)
//	authorizer := identity.NewAuthorizer(store, roleStore, authz)
//	auther := identity.NewAuthenticator(store, authorizer, tokens, authn)
//	accounts := identity.NewAccountManager(store, identity.NewLogNotifier(nil))
//
//	_ = authorizer.EnsurePredefinedRoles(ctx)
package identity
