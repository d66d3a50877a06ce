package bunstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/bunstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, bunstore.CreateTables(context.Background(), db))

	return db
}

func seedUser(t *testing.T, store *bunstore.Store, email, password string) *identity.User {
	t.Helper()

	user := &identity.User{
		ID:        uuid.New(),
		FirstName: "Pepe",
		LastName:  "Rone",
		Email:     email,
	}

	created, err := store.Create(context.Background(), user, password)
	require.NoError(t, err)
	require.True(t, created)

	return user
}

func TestStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store := bunstore.NewStore(newTestDB(t))

	user := seedUser(t, store, "pepe.rone@example.com", "Abcdef12")

	t.Run("finds the user by email", func(t *testing.T) {
		found, err := store.GetByEmail(ctx, "pepe.rone@example.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "Pepe", found.FirstName)
	})

	t.Run("finds the user by id", func(t *testing.T) {
		found, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "pepe.rone@example.com", found.Email)

		exists, err := store.Exists(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("absent lookups return nil without an error", func(t *testing.T) {
		found, err := store.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, found)

		found, err = store.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("refuses a duplicate email", func(t *testing.T) {
		created, err := store.Create(ctx, &identity.User{
			ID:    uuid.New(),
			Email: "pepe.rone@example.com",
		}, "Abcdef12")
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("rejects a user without an id", func(t *testing.T) {
		_, err := store.Create(ctx, &identity.User{Email: "no-id@example.com"}, "Abcdef12")
		require.Error(t, err)
	})
}

func TestStore_Authenticate(t *testing.T) {
	ctx := context.Background()
	store := bunstore.NewStore(newTestDB(t))
	seedUser(t, store, "pepe.rone@example.com", "Abcdef12")

	ok, err := store.Authenticate(ctx, "pepe.rone@example.com", "Abcdef12")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Authenticate(ctx, "pepe.rone@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Authenticate(ctx, "nobody@example.com", "Abcdef12")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ResetTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("no token for an unknown user", func(t *testing.T) {
		store := bunstore.NewStore(newTestDB(t))

		token, err := store.GenerateResetToken(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("a new token replaces the previous one", func(t *testing.T) {
		store := bunstore.NewStore(newTestDB(t))
		user := seedUser(t, store, "a@b.com", "Abcdef12")

		first, err := store.GenerateResetToken(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := store.GenerateResetToken(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, second)
		require.NotEqual(t, first.Value, second.Value)

		ok, err := store.ConsumeResetToken(ctx, user.ID, first.Value, "Newpass12")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.ConsumeResetToken(ctx, user.ID, second.Value, "Newpass12")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("consuming updates the password and deletes the token", func(t *testing.T) {
		store := bunstore.NewStore(newTestDB(t))
		user := seedUser(t, store, "a@b.com", "Abcdef12")

		token, err := store.GenerateResetToken(ctx, user.ID)
		require.NoError(t, err)

		ok, err := store.ConsumeResetToken(ctx, user.ID, token.Value, "Newpass12")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.Authenticate(ctx, "a@b.com", "Newpass12")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.ConsumeResetToken(ctx, user.ID, token.Value, "Another12")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("an aged token is dead", func(t *testing.T) {
		db := newTestDB(t)
		store := bunstore.NewStore(db, bunstore.WithResetTokenTTL(time.Hour))
		user := seedUser(t, store, "a@b.com", "Abcdef12")

		token, err := store.GenerateResetToken(ctx, user.ID)
		require.NoError(t, err)

		// Backdate the stored row past the TTL.
		_, err = db.NewUpdate().Model((*bunstore.ResetTokenRecord)(nil)).
			Set("created_at = ?", time.Now().Add(-2*time.Hour)).
			Where("user_id = ?", user.ID).
			Exec(ctx)
		require.NoError(t, err)

		ok, err := store.ConsumeResetToken(ctx, user.ID, token.Value, "Newpass12")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_Roles(t *testing.T) {
	ctx := context.Background()
	store := bunstore.NewStore(newTestDB(t))
	roles := store.RoleStore()

	t.Run("creates and lists in creation order", func(t *testing.T) {
		created, err := roles.Create(ctx, identity.NewRole("User"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = roles.Create(ctx, identity.NewRole("Administrator"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = roles.Create(ctx, identity.NewRole("User"))
		require.NoError(t, err)
		assert.False(t, created)

		all, err := roles.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []identity.Role{
			identity.NewRole("User"),
			identity.NewRole("Administrator"),
		}, all)
	})

	t.Run("memberships surface on the loaded user", func(t *testing.T) {
		user := seedUser(t, store, "a@b.com", "Abcdef12")

		require.NoError(t, store.AddRole(ctx, user.ID, identity.NewRole("User")))
		require.NoError(t, store.AddRole(ctx, user.ID, identity.NewRole("User")))
		require.NoError(t, store.AddRole(ctx, user.ID, identity.NewRole("Administrator")))

		found, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, []string{"User", "Administrator"}, found.RoleNames())

		require.NoError(t, store.RemoveRole(ctx, user.ID, identity.NewRole("Administrator")))

		assigned, err := roles.ListForUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []identity.Role{identity.NewRole("User")}, assigned)
	})

	t.Run("deleting a role definition", func(t *testing.T) {
		created, err := roles.Create(ctx, identity.NewRole("Temp"))
		require.NoError(t, err)
		require.True(t, created)

		require.NoError(t, roles.Delete(ctx, identity.NewRole("Temp")))

		exists, err := roles.Exists(ctx, identity.NewRole("Temp"))
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := bunstore.NewStore(newTestDB(t))
	user := seedUser(t, store, "a@b.com", "Abcdef12")

	_, err := store.RoleStore().Create(ctx, identity.NewRole("User"))
	require.NoError(t, err)
	require.NoError(t, store.AddRole(ctx, user.ID, identity.NewRole("User")))

	_, err = store.GenerateResetToken(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, user.ID))

	found, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	// The email is free again.
	created, err := store.Create(ctx, &identity.User{ID: uuid.New(), Email: "a@b.com"}, "Abcdef12")
	require.NoError(t, err)
	assert.True(t, created)
}
