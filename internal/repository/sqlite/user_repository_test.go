package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-accounts/internal/domain"
	"user-accounts/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUserRepository(t *testing.T) *UserRepository {
	t.Helper()
	repo := NewUserRepository(openTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepository(t)

	user := &domain.User{Username: "alice", PasswordHash: "hash-1"}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "hash-1", byID.PasswordHash)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestUserRepository_CreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepository(t)

	_, err := repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h2"})
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepository(t)

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepository(t)

	user := &domain.User{Username: "alice", PasswordHash: "old-hash"}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)

	repo.now = func() time.Time { return user.CreatedAt.Add(time.Minute) }

	name := "alicia"
	updated, err := repo.Update(ctx, id, domain.UserPatch{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "old-hash", updated.PasswordHash)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	hash := "new-hash"
	updated, err = repo.Update(ctx, id, domain.UserPatch{PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "new-hash", updated.PasswordHash)

	unchanged, err := repo.Update(ctx, id, domain.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "alicia", unchanged.Username)
}

func TestUserRepository_UpdateMissingAndDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepository(t)

	name := "ghost"
	_, err := repo.Update(ctx, "missing", domain.UserPatch{Username: &name})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Update(ctx, "missing", domain.UserPatch{})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	bobID, err := repo.Create(ctx, &domain.User{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)

	taken := "alice"
	_, err = repo.Update(ctx, bobID, domain.UserPatch{Username: &taken})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepository(t)

	id, err := repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, id), repository.ErrNotFound)
}

func TestArchiveRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	archive := NewArchiveRepository(openTestDB(t))
	require.NoError(t, archive.Init(ctx))

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := domain.RemovedUser{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    created,
		UpdatedAt:    created.Add(time.Hour),
		RemovedAt:    created.Add(2 * time.Hour),
	}
	require.NoError(t, archive.Save(ctx, entry))

	got, err := archive.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(entry.CreatedAt))
	assert.True(t, got.RemovedAt.Equal(entry.RemovedAt))

	again := entry
	again.RemovedAt = entry.RemovedAt.Add(time.Minute)
	require.NoError(t, archive.Save(ctx, again))

	got, err = archive.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, got.RemovedAt.Equal(again.RemovedAt))

	_, err = archive.Get(ctx, "u-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
