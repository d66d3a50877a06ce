package bunstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRecord is the relational user row. The domain user never carries the
// password hash; it stays here.
type UserRecord struct {
	bun.BaseModel `bun:"table:identity_users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	FirstName     string     `bun:"first_name,notnull"`
	LastName      string     `bun:"last_name,notnull"`
	Email         string     `bun:"email,notnull,unique"`
	Phone         string     `bun:"phone_number"`
	PasswordHash  string     `bun:"password_hash,notnull"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// RoleRecord is a known role.
type RoleRecord struct {
	bun.BaseModel `bun:"table:identity_roles,alias:rol"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name,notnull,unique"`
}

// UserRoleRecord is a role membership row.
type UserRoleRecord struct {
	bun.BaseModel `bun:"table:identity_user_roles,alias:usrrol"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid,unique:membership"`
	RoleName      string    `bun:"role_name,notnull,unique:membership"`
}

// ResetTokenRecord is the single active reset token for a (user, purpose)
// pair. Re-issuing replaces the row.
type ResetTokenRecord struct {
	bun.BaseModel `bun:"table:identity_reset_tokens,alias:rst"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid,unique:active_token"`
	Purpose       string    `bun:"purpose,notnull,unique:active_token"`
	Token         string    `bun:"token,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// CreateTables creates the backing tables if they do not exist. Intended
// for tests and small deployments; larger ones run their own migrations.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*UserRecord)(nil),
		(*RoleRecord)(nil),
		(*UserRoleRecord)(nil),
		(*ResetTokenRecord)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
