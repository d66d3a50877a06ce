package bunstore

import (
	"context"

	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles implements identity.RoleStore over a bun database.
type Roles struct {
	db *bun.DB
}

var _ identity.RoleStore = (*Roles)(nil)

// NewRoles creates a role store backed by the given database.
func NewRoles(db *bun.DB) *Roles {
	return &Roles{db: db}
}

func (r *Roles) ListAll(ctx context.Context) ([]identity.Role, error) {
	var records []RoleRecord

	err := r.db.NewSelect().Model(&records).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	roles := make([]identity.Role, 0, len(records))
	for _, record := range records {
		roles = append(roles, identity.NewRole(record.Name))
	}

	return roles, nil
}

func (r *Roles) ListForUser(ctx context.Context, userID uuid.UUID) ([]identity.Role, error) {
	var memberships []UserRoleRecord

	err := r.db.NewSelect().Model(&memberships).
		Where("?TableAlias.user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	roles := make([]identity.Role, 0, len(memberships))
	for _, membership := range memberships {
		roles = append(roles, identity.NewRole(membership.RoleName))
	}

	return roles, nil
}

func (r *Roles) Exists(ctx context.Context, role identity.Role) (bool, error) {
	return r.db.NewSelect().Model((*RoleRecord)(nil)).
		Where("?TableAlias.name = ?", role.Name).
		Exists(ctx)
}

func (r *Roles) Create(ctx context.Context, role identity.Role) (bool, error) {
	record := &RoleRecord{Name: role.Name}

	res, err := r.db.NewInsert().Model(record).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *Roles) Delete(ctx context.Context, role identity.Role) error {
	_, err := r.db.NewDelete().Model((*RoleRecord)(nil)).
		Where("name = ?", role.Name).
		Exec(ctx)

	return err
}
