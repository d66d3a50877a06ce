// Package bunstore implements the identity store contracts on top of the
// bun ORM, the relational counterpart to memstore.
package bunstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetPurpose keys the single active reset token per user.
const ResetPurpose = "RESET_PASSWORD"

// DefaultResetTokenTTL bounds reset token age when none is configured.
const DefaultResetTokenTTL = 24 * time.Hour

// Store implements identity.CredentialStore over a bun database.
type Store struct {
	db       *bun.DB
	users    repository.Repository[*UserRecord]
	roles    *Roles
	policy   identity.PasswordPolicy
	resetTTL time.Duration
}

var _ identity.CredentialStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPasswordPolicy overrides the password strength policy.
func WithPasswordPolicy(policy identity.PasswordPolicy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

// WithResetTokenTTL overrides how long a reset token stays consumable.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// NewStore creates a credential store backed by the given database.
func NewStore(db *bun.DB, opts ...Option) *Store {
	users := repository.NewRepository[*UserRecord](db, repository.ModelHandlers[*UserRecord]{
		NewRecord: func() *UserRecord { return &UserRecord{} },
		GetID: func(r *UserRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *UserRecord, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	store := &Store{
		db:       db,
		users:    users,
		roles:    NewRoles(db),
		policy:   identity.DefaultPasswordPolicy(),
		resetTTL: DefaultResetTokenTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// RoleStore returns the role store sharing this database.
func (s *Store) RoleStore() *Roles {
	return s.roles
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	record := &UserRecord{}

	err := s.db.NewSelect().Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return s.toDomainUser(ctx, record)
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	record := &UserRecord{}

	err := s.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return s.toDomainUser(ctx, record)
}

func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.db.NewSelect().Model((*UserRecord)(nil)).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
}

func (s *Store) Create(ctx context.Context, user *identity.User, password string) (bool, error) {
	if user == nil || user.ID == uuid.Nil {
		return false, errors.New("user record requires an identity", errors.CategoryBadInput)
	}

	taken, err := s.db.NewSelect().Model((*UserRecord)(nil)).
		Where("?TableAlias.email = ?", user.Email).
		Exists(ctx)
	if err != nil {
		return false, err
	}

	if taken {
		return false, nil
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		return false, err
	}

	record := &UserRecord{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		Phone:        user.Phone,
		PasswordHash: hash,
	}

	if _, err := s.users.Create(ctx, record); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Store) Authenticate(ctx context.Context, email, password string) (bool, error) {
	record := &UserRecord{}

	err := s.db.NewSelect().Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if err := identity.ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		return false, nil
	}

	return true, nil
}

func (s *Store) ValidatePassword(ctx context.Context, password string) (identity.ValidationResult, error) {
	return s.policy.Validate(password), nil
}

func (s *Store) GenerateResetToken(ctx context.Context, userID uuid.UUID) (*identity.ResetToken, error) {
	exists, err := s.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, nil
	}

	record := &ResetTokenRecord{
		UserID:    userID,
		Purpose:   ResetPurpose,
		Token:     newResetSecret(),
		CreatedAt: time.Now(),
	}

	// Replace the prior active token, if any. Last writer wins.
	_, err = s.db.NewInsert().Model(record).
		On("CONFLICT (user_id, purpose) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return &identity.ResetToken{
		Value:     record.Token,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (s *Store) ConsumeResetToken(ctx context.Context, userID uuid.UUID, token, newPassword string) (bool, error) {
	matched := false

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &ResetTokenRecord{}

		err := tx.NewSelect().Model(record).
			Where("?TableAlias.user_id = ?", userID).
			Where("?TableAlias.purpose = ?", ResetPurpose).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		// Wrong token and expired token are indistinguishable to callers.
		if record.Token != token {
			return nil
		}

		if time.Since(record.CreatedAt) > s.resetTTL {
			return nil
		}

		hash, err := identity.HashPassword(newPassword)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().Model((*UserRecord)(nil)).
			Set("password_hash = ?", hash).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewDelete().Model((*ResetTokenRecord)(nil)).
			Where("user_id = ?", userID).
			Where("purpose = ?", ResetPurpose).
			Exec(ctx)
		if err != nil {
			return err
		}

		matched = true
		return nil
	})

	if err != nil {
		return false, err
	}

	return matched, nil
}

func (s *Store) AddRole(ctx context.Context, userID uuid.UUID, role identity.Role) error {
	membership := &UserRoleRecord{
		UserID:   userID,
		RoleName: role.Name,
	}

	_, err := s.db.NewInsert().Model(membership).
		On("CONFLICT (user_id, role_name) DO NOTHING").
		Exec(ctx)

	return err
}

func (s *Store) RemoveRole(ctx context.Context, userID uuid.UUID, role identity.Role) error {
	_, err := s.db.NewDelete().Model((*UserRoleRecord)(nil)).
		Where("user_id = ?", userID).
		Where("role_name = ?", role.Name).
		Exec(ctx)

	return err
}

func (s *Store) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*UserRoleRecord)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model((*ResetTokenRecord)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewDelete().Model((*UserRecord)(nil)).
			Where("id = ?", userID).
			Exec(ctx)
		return err
	})
}

func (s *Store) toDomainUser(ctx context.Context, record *UserRecord) (*identity.User, error) {
	roles, err := s.roles.ListForUser(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	return &identity.User{
		ID:        record.ID,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Email:     record.Email,
		Phone:     record.Phone,
		Roles:     roles,
	}, nil
}

func newResetSecret() string {
	return uuid.NewString() + uuid.NewString()
}
