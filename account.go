package identity

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// AccountManager orchestrates the password reset lifecycle and account
// deletion. Reset token generation is owned by the credential store and
// delivery by the notifier; a failure in either surfaces as is, with no
// compensation between the two steps.
type AccountManager struct {
	creds    CredentialStore
	notifier Notifier
	logger   Logger
}

// NewAccountManager returns a new AccountManager.
func NewAccountManager(creds CredentialStore, notifier Notifier) *AccountManager {
	return &AccountManager{
		creds:    creds,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the account manager.
func (m *AccountManager) WithLogger(logger Logger) *AccountManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// RequestPasswordReset issues a fresh reset token for the user, replacing
// any prior one, and delivers it to the user's email. Concurrent requests
// race last-writer-wins on the single active token.
func (m *AccountManager) RequestPasswordReset(ctx context.Context, userID uuid.UUID) error {
	user, err := m.creds.GetByID(ctx, userID)
	if err != nil {
		return m.wrapAccountError(err, "could not load user for password reset")
	}

	if user == nil {
		return NewIncorrectData(fmt.Sprintf("cannot request password reset: no user with id %q found", userID))
	}

	token, err := m.creds.GenerateResetToken(ctx, userID)
	if err != nil {
		return m.wrapAccountError(err, "could not generate reset token")
	}

	if token == nil {
		return errors.New("reset token generation produced no token", errors.CategoryInternal).
			WithTextCode(TextCodeUnknown)
	}

	if err := m.notifier.SendPasswordResetMessage(ctx, user.Email, *token); err != nil {
		// The token stays issued; delivery is not compensated.
		return m.wrapAccountError(err, "could not deliver reset message")
	}

	return nil
}

// ResetPassword sets a new password when the submitted token matches the
// stored active token and is within its expiry window. Wrong and expired
// tokens fail identically so callers cannot probe reset state.
func (m *AccountManager) ResetPassword(ctx context.Context, userID uuid.UUID, token, newPassword string) error {
	exists, err := m.creds.Exists(ctx, userID)
	if err != nil {
		return m.wrapAccountError(err, "could not check user for password reset")
	}

	if !exists {
		return NewIncorrectData(fmt.Sprintf("cannot reset password: no user with id %q found", userID))
	}

	result, err := m.creds.ValidatePassword(ctx, newPassword)
	if err != nil {
		return m.wrapAccountError(err, "could not validate new password")
	}

	if !result.IsValid {
		return NewIncorrectDataWithDetails("cannot reset password: the new password is weak", result.Errors)
	}

	ok, err := m.creds.ConsumeResetToken(ctx, userID, token, newPassword)
	if err != nil {
		return m.wrapAccountError(err, "could not reset password")
	}

	if !ok {
		return NewIncorrectData("cannot reset password: reset token is not valid")
	}

	return nil
}

// DeleteAccount deletes the user record unconditionally.
func (m *AccountManager) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := m.creds.Delete(ctx, userID); err != nil {
		return m.wrapAccountError(err, "could not delete account")
	}
	return nil
}

// wrapAccountError rewraps unexpected store or notifier failures as Unknown,
// keeping domain failures untouched.
func (m *AccountManager) wrapAccountError(err error, message string) error {
	if IsDomainFailure(err) {
		return err
	}

	wrapped := WrapUnknown(err, message)

	var richErr *errors.Error
	if errors.As(err, &richErr) && len(richErr.Metadata) > 0 {
		m.logger.Error("account operation failed",
			"error", richErr.Message,
			"metadata", print.MaybePrettyJSON(richErr.Metadata),
		)
	} else {
		m.logger.Error("account operation failed", "error", err)
	}

	return wrapped
}
