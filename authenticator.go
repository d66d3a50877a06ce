package identity

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// Authenticator orchestrates sign in and sign up against the credential
// store and the token service, enforcing the configured registration policy.
type Authenticator struct {
	creds      CredentialStore
	authorizer *Authorizer
	tokens     *TokenService
	settings   AuthenticationSettings
	logger     Logger
	useHashids bool
}

// NewAuthenticator returns a new Authenticator.
func NewAuthenticator(creds CredentialStore, authorizer *Authorizer, tokens *TokenService, settings AuthenticationSettings) *Authenticator {
	return &Authenticator{
		creds:      creds,
		authorizer: authorizer,
		tokens:     tokens,
		settings:   settings,
		logger:     defLogger{},
	}
}

// WithLogger overrides the logger used by the authenticator.
func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithHashidIdentities derives new user identities from the email instead
// of minting random UUIDs, so repeated imports stay stable.
func (a *Authenticator) WithHashidIdentities() *Authenticator {
	a.useHashids = true
	return a
}

// SignIn validates the credentials and issues a token carrying the user's
// email and current roles.
func (a *Authenticator) SignIn(ctx context.Context, signIn SignInRequest) (string, error) {
	authenticated, err := a.creds.Authenticate(ctx, signIn.Email, signIn.Password)
	if err != nil {
		a.logger.Error("sign in credential check failed", "error", err)
		return "", WrapUnknown(err, "could not verify credentials")
	}

	if !authenticated {
		return "", ErrInvalidCredentials
	}

	user, err := a.creds.GetByEmail(ctx, signIn.Email)
	if err != nil {
		return "", WrapUnknown(err, "could not load user after credential check")
	}

	if user == nil {
		// The store validated a password for an email it cannot resolve.
		a.logger.Warn("sign in found credentials without a user record", "email", signIn.Email)
		return "", ErrInvalidCredentials
	}

	return a.tokens.Issue(ClaimsForUser(user))
}

// SignUp registers a new user. The policy gate runs before any data
// validation so a blocked registration never leaks whether an email is
// taken. Validation then runs in a fixed order: email syntax, uniqueness,
// confirmation match, password strength.
func (a *Authenticator) SignUp(ctx context.Context, signUp SignUpRequest) (*User, error) {
	if !a.registrationAllowed(signUp.RegistrationKey) {
		return nil, NewSystemConfiguration("registration is not open, check the registration mode and key")
	}

	if err := validation.Validate(signUp.Email, validation.Required, is.Email); err != nil {
		return nil, NewIncorrectData(fmt.Sprintf("cannot register new user: %q is not a valid email address", signUp.Email))
	}

	if err := validatePhone(signUp.Phone); err != nil {
		return nil, err
	}

	existing, err := a.creds.GetByEmail(ctx, signUp.Email)
	if err != nil {
		return nil, WrapUnknown(err, "could not check email availability")
	}

	if existing != nil {
		return nil, NewIncorrectData(fmt.Sprintf("cannot register new user: email %q is already used", signUp.Email))
	}

	if signUp.Password != signUp.ConfirmationPassword {
		return nil, NewIncorrectData("cannot register new user: password and confirmation password do not match")
	}

	result, err := a.creds.ValidatePassword(ctx, signUp.Password)
	if err != nil {
		return nil, WrapUnknown(err, "could not validate password strength")
	}

	if !result.IsValid {
		return nil, NewIncorrectDataWithDetails(
			"cannot register new user: the password is not valid, check details",
			result.Errors,
		)
	}

	user := &User{
		ID:        a.newUserID(signUp.Email),
		FirstName: signUp.FirstName,
		LastName:  signUp.LastName,
		Email:     signUp.Email,
		Phone:     signUp.Phone,
	}

	created, err := a.creds.Create(ctx, user, signUp.Password)
	if err != nil {
		return nil, WrapUnknown(err, "user registration failed")
	}

	if !created {
		return nil, errors.New("user registration failed unexpectedly", errors.CategoryInternal).
			WithTextCode(TextCodeUnknown)
	}

	if err := a.authorizer.AssignDefaultRoles(ctx, user.ID); err != nil {
		return nil, err
	}

	// Re-fetch so the caller sees server assigned fields and roles.
	persisted, err := a.creds.GetByEmail(ctx, signUp.Email)
	if err != nil {
		return nil, WrapUnknown(err, "could not load user after registration")
	}

	if persisted == nil {
		return nil, errors.New("registered user could not be loaded", errors.CategoryInternal).
			WithTextCode(TextCodeUnknown)
	}

	return persisted, nil
}

// GetIdentity looks up a user by email, returning (nil, nil) when there is
// no match.
func (a *Authenticator) GetIdentity(ctx context.Context, email string) (*User, error) {
	return a.creds.GetByEmail(ctx, email)
}

func (a *Authenticator) registrationAllowed(key string) bool {
	switch a.settings.RegistrationMode {
	case RegistrationPublic:
		return true
	case RegistrationKeyBased:
		return a.settings.RegistrationKey != "" && key == a.settings.RegistrationKey
	default:
		// Blocked, or an unknown mode, rejects every sign up.
		return false
	}
}

func (a *Authenticator) newUserID(email string) uuid.UUID {
	if a.useHashids {
		if id, err := hashid.NewUUID(email); err == nil {
			return id
		}
	}
	return uuid.New()
}

func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}

	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return NewIncorrectData(fmt.Sprintf("cannot register new user: %q is not a valid phone number", phone))
	}

	return nil
}
