package identity

import (
	"fmt"
	"unicode"
)

// PasswordPolicy is the password strength policy both store backends answer
// ValidatePassword through. Checks run in declaration order and every
// violation is reported.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSymbol    bool
}

// DefaultPasswordPolicy mirrors the stock identity provider rules: at least
// eight characters with upper case, lower case, and a digit.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
	}
}

// Validate runs the policy checks in order and collects every violation.
func (p PasswordPolicy) Validate(password string) ValidationResult {
	result := ValidationResult{IsValid: true}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		result.fail(fmt.Sprintf("Passwords must be at least %d characters.", p.MinLength))
	}

	if p.RequireUppercase && !hasUpper {
		result.fail("Passwords must have at least one uppercase letter ('A'-'Z').")
	}

	if p.RequireLowercase && !hasLower {
		result.fail("Passwords must have at least one lowercase letter ('a'-'z').")
	}

	if p.RequireDigit && !hasDigit {
		result.fail("Passwords must have at least one digit ('0'-'9').")
	}

	if p.RequireSymbol && !hasSymbol {
		result.fail("Passwords must have at least one non alphanumeric character.")
	}

	return result
}

func (r *ValidationResult) fail(message string) {
	r.IsValid = false
	r.Errors = append(r.Errors, message)
}
