package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userhub/internal/models"
	"userhub/internal/roles"
)

func newTestRepo(t *testing.T) *UserRepo {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return NewUserRepo(db)
}

func seedUser(t *testing.T, r *UserRepo, email string, rs ...roles.Role) *models.User {
	u := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hash",
		Roles:        rs,
	}
	require.NoError(t, r.Create(context.Background(), u))
	return u
}

func TestCreate_DuplicateEmail(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "a@x.com")

	dup := &models.User{FirstName: "Other", LastName: "User", Email: "a@x.com", PasswordHash: "hash2"}
	err := r.Create(ctx, dup)
	require.ErrorIs(t, err, ErrDuplicateEmail)

	var count int64
	r.DB.Model(&models.User{}).Where("email = ?", "a@x.com").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreate_DefaultsRole(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r, "a@x.com")

	got, err := r.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, roles.Default(), got.Roles)
}

func TestFind_Unknown(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByID(ctx, "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByRefreshToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@x.com")

	require.NoError(t, r.SetRefreshToken(ctx, u.ID, "first"))

	require.NoError(t, r.RotateRefreshToken(ctx, u.ID, "first", "second"))

	// The replaced token no longer rotates.
	err := r.RotateRefreshToken(ctx, u.ID, "first", "third")
	assert.ErrorIs(t, err, ErrTokenMismatch)

	got, err := r.FindByRefreshToken(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestClearRefreshToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@x.com")

	require.NoError(t, r.SetRefreshToken(ctx, u.ID, "session"))
	require.NoError(t, r.ClearRefreshToken(ctx, "session"))

	// Second clear with the same token finds no record.
	err := r.ClearRefreshToken(ctx, "session")
	assert.ErrorIs(t, err, ErrTokenMismatch)
}

func TestDeleteByID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@x.com")

	require.NoError(t, r.DeleteByID(ctx, u.ID))
	assert.ErrorIs(t, r.DeleteByID(ctx, u.ID), ErrNotFound)
}

func TestList_FiltersAndPagination(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "alice@x.com", roles.Admin)
	seedUser(t, r, "bob@x.com", roles.User)
	seedUser(t, r, "carol@y.com", roles.Moderator, roles.User)

	users, total, err := r.List(ctx, ListFilter{Email: "x.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)

	users, total, err = r.List(ctx, ListFilter{Role: "ROLE_MODERATOR"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "carol@y.com", users[0].Email)

	users, total, err = r.List(ctx, ListFilter{Page: 2, Size: 2, SortBy: "email", Order: "asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "carol@y.com", users[0].Email)

	_, _, err = r.List(ctx, ListFilter{Role: "ROLE_GHOST"})
	assert.Error(t, err)
}
