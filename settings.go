package identity

import (
	"strings"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
)

// RegistrationMode controls the sign up policy gate.
type RegistrationMode string

const (
	// RegistrationPublic lets any sign up proceed.
	RegistrationPublic RegistrationMode = "public"
	// RegistrationKeyBased lets a sign up proceed only when the caller
	// supplied key equals the configured registration key.
	RegistrationKeyBased RegistrationMode = "key-based"
	// RegistrationBlocked rejects every sign up.
	RegistrationBlocked RegistrationMode = "blocked"
)

// IsValid reports whether the mode is one of the known modes.
func (m RegistrationMode) IsValid() bool {
	switch m {
	case RegistrationPublic, RegistrationKeyBased, RegistrationBlocked:
		return true
	default:
		return false
	}
}

// ParseRegistrationMode parses a string into a RegistrationMode.
func ParseRegistrationMode(raw string) (RegistrationMode, bool) {
	mode := RegistrationMode(strings.ToLower(strings.TrimSpace(raw)))
	return mode, mode.IsValid()
}

// AuthenticationSettings configures registration policy and token minting.
// Immutable after construction; passed by value into engine constructors.
type AuthenticationSettings struct {
	RegistrationMode RegistrationMode `env:"IDENTITY_REGISTRATION_MODE" envDefault:"public"`
	RegistrationKey  string           `env:"IDENTITY_REGISTRATION_KEY"`
	Issuer           string           `env:"IDENTITY_TOKEN_ISSUER"`
	Audience         string           `env:"IDENTITY_TOKEN_AUDIENCE"`
	Secret           string           `env:"IDENTITY_TOKEN_SECRET"`
	ExpirationHours  int              `env:"IDENTITY_TOKEN_EXPIRATION_HOURS" envDefault:"1"`
}

// Validate checks the settings are usable for minting tokens.
func (s AuthenticationSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Secret, validation.Required, validation.Length(16, 0)),
		validation.Field(&s.Issuer, validation.Required),
		validation.Field(&s.Audience, validation.Required),
		validation.Field(&s.ExpirationHours, validation.Required, validation.Min(1)),
		validation.Field(&s.RegistrationMode, validation.Required, validation.In(
			RegistrationPublic,
			RegistrationKeyBased,
			RegistrationBlocked,
		)),
	)
}

// AuthorizationSettings configures the role policy sets. Predefined roles
// are created at process start if absent; default roles are granted at sign
// up and protected from reclaim; management roles grant role administration.
type AuthorizationSettings struct {
	ManagementRoles []string `env:"IDENTITY_MANAGEMENT_ROLES" envSeparator:"," envDefault:"Administrator"`
	DefaultRoles    []string `env:"IDENTITY_DEFAULT_ROLES" envSeparator:"," envDefault:"User"`
	PredefinedRoles []string `env:"IDENTITY_PREDEFINED_ROLES" envSeparator:"," envDefault:"User,Administrator"`
}

// IsManagementRole reports whether the name is in the management role set.
func (s AuthorizationSettings) IsManagementRole(name string) bool {
	return containsName(s.ManagementRoles, name)
}

// IsDefaultRole reports whether the name is in the default role set.
func (s AuthorizationSettings) IsDefaultRole(name string) bool {
	return containsName(s.DefaultRoles, name)
}

// SettingsFromEnv loads both settings structs from environment variables.
func SettingsFromEnv() (AuthenticationSettings, AuthorizationSettings, error) {
	var authn AuthenticationSettings
	var authz AuthorizationSettings

	if err := env.Parse(&authn); err != nil {
		return authn, authz, WrapUnknown(err, "failed to parse authentication settings")
	}

	mode, ok := ParseRegistrationMode(string(authn.RegistrationMode))
	if !ok {
		return authn, authz, NewSystemConfiguration("unknown registration mode: " + string(authn.RegistrationMode))
	}
	authn.RegistrationMode = mode

	if err := env.Parse(&authz); err != nil {
		return authn, authz, WrapUnknown(err, "failed to parse authorization settings")
	}

	return authn, authz, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
