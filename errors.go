package identity

import (
	"github.com/goliatone/go-errors"
)

// Failure cause tags. Callers branch on these rather than on message text.
const (
	// TextCodeIncorrectData marks failures the caller can fix by correcting
	// input: bad credentials, duplicate email, weak password, missing user
	// or role, reclaiming a default role.
	TextCodeIncorrectData = "INCORRECT_DATA"
	// TextCodeSystemConfiguration marks failures raised by an administrative
	// policy gate, e.g. registration blocked or a wrong registration key.
	TextCodeSystemConfiguration = "SYSTEM_CONFIGURATION"
	// TextCodeUnknown marks wrapped unexpected failures from a store or
	// notifier. Safe to surface only as a generic failure indicator.
	TextCodeUnknown = "UNKNOWN"
)

// detailsMetadataKey holds the ordered violation list on an error.
const detailsMetadataKey = "details"

// ErrInvalidCredentials is returned when sign in credentials do not match.
var ErrInvalidCredentials = errors.New("the email or password is incorrect", errors.CategoryAuth).
	WithTextCode(TextCodeIncorrectData)

// NewIncorrectData creates an IncorrectData failure.
func NewIncorrectData(message string) *errors.Error {
	return errors.New(message, errors.CategoryValidation).
		WithTextCode(TextCodeIncorrectData)
}

// NewIncorrectDataWithDetails creates an IncorrectData failure carrying an
// ordered list of detail strings, e.g. password validation violations.
func NewIncorrectDataWithDetails(message string, details []string) *errors.Error {
	return NewIncorrectData(message).
		WithMetadata(map[string]any{detailsMetadataKey: details})
}

// NewSystemConfiguration creates a SystemConfiguration failure.
func NewSystemConfiguration(message string) *errors.Error {
	return errors.New(message, errors.CategoryAuthz).
		WithTextCode(TextCodeSystemConfiguration)
}

// WrapUnknown wraps an unexpected underlying failure, preserving it as a
// cause for diagnostics but not for caller visible branching.
func WrapUnknown(err error, message string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, message).
		WithTextCode(TextCodeUnknown)
}

// IsIncorrectData reports whether err is an IncorrectData failure.
func IsIncorrectData(err error) bool {
	return hasTextCode(err, TextCodeIncorrectData)
}

// IsSystemConfiguration reports whether err is a SystemConfiguration failure.
func IsSystemConfiguration(err error) bool {
	return hasTextCode(err, TextCodeSystemConfiguration)
}

// IsUnknown reports whether err wraps an unexpected underlying failure.
func IsUnknown(err error) bool {
	return hasTextCode(err, TextCodeUnknown)
}

// IsDomainFailure reports whether err already carries one of the domain
// failure tags, meaning it should propagate without rewrapping.
func IsDomainFailure(err error) bool {
	return IsIncorrectData(err) || IsSystemConfiguration(err) || IsUnknown(err)
}

// FailureDetails extracts the ordered detail strings attached to a failure,
// or nil when none are present.
func FailureDetails(err error) []string {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return nil
	}

	raw, ok := richErr.Metadata[detailsMetadataKey]
	if !ok {
		return nil
	}

	if details, ok := raw.([]string); ok {
		return details
	}

	return nil
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
