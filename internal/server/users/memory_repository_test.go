package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilepins/userauth/internal/shared"
)

func TestInMemoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{
		Username:     "alice",
		PasswordHash: "hash",
		Salt:         "salt",
		Email:        "alice@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exists, err := repo.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInMemoryUniqueness(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &User{Username: "alice"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = repo.Create(ctx, &User{Username: "bob", Email: "alice@example.com"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// empty emails never collide
	_, err = repo.Create(ctx, &User{Username: "bob"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &User{Username: "carol"})
	require.NoError(t, err)
}

func TestInMemoryUpdate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{Username: "alice", PasswordHash: "h1", Salt: "s1"})
	require.NoError(t, err)

	email := "alice@example.com"
	hash := "h2"
	salt := "s2"
	require.NoError(t, repo.Update(ctx, created.ID, Update{Email: &email, PasswordHash: &hash, Salt: &salt}))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Equal(t, "s2", got.Salt)
	assert.NotNil(t, got.UpdatedAt)

	err = repo.Update(ctx, "missing-id", Update{Email: &email})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// taking another user's email is a conflict
	_, err = repo.Create(ctx, &User{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)
	taken := "bob@example.com"
	err = repo.Update(ctx, created.ID, Update{Email: &taken})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestInMemoryDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{Username: "alice"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), shared.ErrNotFound)

	_, err = repo.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInMemoryLoginBookkeeping(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{Username: "alice"})
	require.NoError(t, err)

	attempts, err := repo.RecordLoginFailure(ctx, created.ID, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	attempts, err = repo.RecordLoginFailure(ctx, created.ID, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AccountLockedUntil)

	attempts, err = repo.RecordLoginFailure(ctx, created.ID, 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AccountLockedUntil)
	assert.True(t, got.AccountLockedUntil.After(time.Now().UTC()))

	require.NoError(t, repo.RecordLoginSuccess(ctx, created.ID))

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts)
	assert.Nil(t, got.AccountLockedUntil)
	assert.NotNil(t, got.LastLogin)

	_, err = repo.RecordLoginFailure(ctx, "missing-id", 3, time.Minute)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.RecordLoginSuccess(ctx, "missing-id"), shared.ErrNotFound)
}

func TestInMemoryClonesDoNotAlias(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{Username: "alice", PasswordHash: "h1"})
	require.NoError(t, err)

	// mutating a returned record must not touch the stored one
	created.PasswordHash = "tampered"

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.PasswordHash)
}

func TestInMemoryConcurrentFailures(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{Username: "alice"})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = repo.RecordLoginFailure(ctx, created.ID, n+1, time.Minute)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.FailedLoginAttempts)
}
