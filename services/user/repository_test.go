package main

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteRepo(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestCreateAndGetUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := &User{Username: "alice", Password: "hashed", FirstName: "A", LastName: "L"}
	require.NoError(t, repo.Create(ctx, u))
	assert.WithinDuration(t, time.Now().UTC(), u.CreatedAt, 5*time.Second)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "hashed", got.Password)
	assert.Equal(t, "A", got.FirstName)
}

func TestGetUnknownUserReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &User{Username: "alice", Password: "hash1", FirstName: "A", LastName: "L"}
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, &User{Username: "alice", Password: "hash2", FirstName: "B", LastName: "M"})
	assert.ErrorIs(t, err, ErrUserExists)

	// The original record is unaffected.
	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash1", got.Password)
	assert.Equal(t, "A", got.FirstName)
}

func TestListUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, repo.Create(ctx, &User{Username: "alice", Password: "h", FirstName: "A", LastName: "L"}))
	require.NoError(t, repo.Create(ctx, &User{Username: "bob", Password: "h", FirstName: "B", LastName: "M"}))

	users, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
