// Package memstore implements the identity store contracts as in process
// key value tables, mirroring the shape of a partitioned table storage
// backend: rows keyed by user, a single reset token row per (user, purpose).
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
)

// ResetPurpose keys the single active reset token per user.
const ResetPurpose = "RESET_PASSWORD"

// DefaultResetTokenTTL bounds reset token age when none is configured.
const DefaultResetTokenTTL = 24 * time.Hour

type userRow struct {
	id           uuid.UUID
	firstName    string
	lastName     string
	email        string
	phone        string
	passwordHash string
}

type tokenRow struct {
	token     string
	createdAt time.Time
}

// Store implements identity.CredentialStore and identity.RoleStore over
// mutex guarded maps.
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]*userRow
	emails      map[string]uuid.UUID
	roles       []string
	roleSet     map[string]struct{}
	memberships map[uuid.UUID][]string
	tokens      map[string]tokenRow // key: userID:purpose
	policy      identity.PasswordPolicy
	resetTTL    time.Duration
	now         func() time.Time
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

// WithClock overrides the time source, letting tests age reset tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty in memory store.
func NewStore(opts ...Option) *Store {
	store := &Store{
		users:       map[uuid.UUID]*userRow{},
		emails:      map[string]uuid.UUID{},
		roleSet:     map[string]struct{}{},
		memberships: map[uuid.UUID][]string{},
		tokens:      map[string]tokenRow{},
		policy:      identity.DefaultPasswordPolicy(),
		resetTTL:    DefaultResetTokenTTL,
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, nil
	}

	return s.toDomainUser(s.users[id]), nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users[id]
	if !ok {
		return nil, nil
	}

	return s.toDomainUser(row), nil
}

func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

func (s *Store) Create(ctx context.Context, user *identity.User, password string) (bool, error) {
	if user == nil || user.ID == uuid.Nil {
		return false, nil
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return false, nil
	}

	if _, taken := s.users[user.ID]; taken {
		return false, nil
	}

	s.users[user.ID] = &userRow{
		id:           user.ID,
		firstName:    user.FirstName,
		lastName:     user.LastName,
		email:        user.Email,
		phone:        user.Phone,
		passwordHash: hash,
	}
	s.emails[user.Email] = user.ID

	return true, nil
}

func (s *Store) Authenticate(ctx context.Context, email, password string) (bool, error) {
	s.mu.RLock()
	id, ok := s.emails[email]
	if !ok {
		s.mu.RUnlock()
		return false, nil
	}
	hash := s.users[id].passwordHash
	s.mu.RUnlock()

	if err := identity.ComparePasswordAndHash(password, hash); err != nil {
		return false, nil
	}

	return true, nil
}

func (s *Store) ValidatePassword(ctx context.Context, password string) (identity.ValidationResult, error) {
	return s.policy.Validate(password), nil
}

func (s *Store) GenerateResetToken(ctx context.Context, userID uuid.UUID) (*identity.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, nil
	}

	row := tokenRow{
		token:     uuid.NewString() + uuid.NewString(),
		createdAt: s.now(),
	}

	// Replaces any prior active token. Last writer wins.
	s.tokens[tokenKey(userID)] = row

	return &identity.ResetToken{
		Value:     row.token,
		CreatedAt: row.createdAt,
	}, nil
}

func (s *Store) ConsumeResetToken(ctx context.Context, userID uuid.UUID, token, newPassword string) (bool, error) {
	hash, err := identity.HashPassword(newPassword)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return false, nil
	}

	row, ok := s.tokens[tokenKey(userID)]
	if !ok {
		return false, nil
	}

	// Wrong token and expired token are indistinguishable to callers.
	if row.token != token {
		return false, nil
	}

	if s.now().Sub(row.createdAt) > s.resetTTL {
		return false, nil
	}

	user.passwordHash = hash
	delete(s.tokens, tokenKey(userID))

	return true, nil
}

func (s *Store) AddRole(ctx context.Context, userID uuid.UUID, role identity.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.memberships[userID] {
		if name == role.Name {
			return nil
		}
	}

	s.memberships[userID] = append(s.memberships[userID], role.Name)
	return nil
}

func (s *Store) RemoveRole(ctx context.Context, userID uuid.UUID, role identity.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assigned := s.memberships[userID]
	for i, name := range assigned {
		if name == role.Name {
			s.memberships[userID] = append(assigned[:i], assigned[i+1:]...)
			return nil
		}
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.users[userID]; ok {
		delete(s.emails, row.email)
	}

	delete(s.users, userID)
	delete(s.memberships, userID)
	delete(s.tokens, tokenKey(userID))

	return nil
}

// Roles is the role table view of the store, implementing
// identity.RoleStore over the same shared state.
type Roles struct {
	store *Store
}

var _ identity.RoleStore = (*Roles)(nil)

// RoleStore returns the role table view of this store.
func (s *Store) RoleStore() *Roles {
	return &Roles{store: s}
}

// ListAll returns every known role in creation order.
func (r *Roles) ListAll(ctx context.Context) ([]identity.Role, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	roles := make([]identity.Role, 0, len(r.store.roles))
	for _, name := range r.store.roles {
		roles = append(roles, identity.NewRole(name))
	}

	return roles, nil
}

// ListForUser returns the user's roles in assignment order.
func (r *Roles) ListForUser(ctx context.Context, userID uuid.UUID) ([]identity.Role, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.rolesForUser(userID), nil
}

// Exists reports whether the role is known.
func (r *Roles) Exists(ctx context.Context, role identity.Role) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.roleSet[role.Name]
	return ok, nil
}

// Create registers a role, returning false when it already exists.
func (r *Roles) Create(ctx context.Context, role identity.Role) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.roleSet[role.Name]; ok {
		return false, nil
	}

	r.store.roleSet[role.Name] = struct{}{}
	r.store.roles = append(r.store.roles, role.Name)

	return true, nil
}

// Delete removes a role definition.
func (r *Roles) Delete(ctx context.Context, role identity.Role) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.roleSet[role.Name]; !ok {
		return nil
	}

	delete(r.store.roleSet, role.Name)
	for i, name := range r.store.roles {
		if name == role.Name {
			r.store.roles = append(r.store.roles[:i], r.store.roles[i+1:]...)
			break
		}
	}

	return nil
}

func (s *Store) rolesForUser(userID uuid.UUID) []identity.Role {
	assigned := s.memberships[userID]
	roles := make([]identity.Role, 0, len(assigned))
	for _, name := range assigned {
		roles = append(roles, identity.NewRole(name))
	}
	return roles
}

func (s *Store) toDomainUser(row *userRow) *identity.User {
	return &identity.User{
		ID:        row.id,
		FirstName: row.firstName,
		LastName:  row.lastName,
		Email:     row.email,
		Phone:     row.phone,
		Roles:     s.rolesForUser(row.id),
	}
}

func tokenKey(userID uuid.UUID) string {
	return userID.String() + ":" + ResetPurpose
}
