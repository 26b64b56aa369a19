package users

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilepins/userauth/internal/logging"
	"github.com/ilepins/userauth/internal/server/config"
	"github.com/ilepins/userauth/internal/shared"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestService(t *testing.T) (*Service, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	cfg := &config.Config{MaxLoginAttempts: 3, LockoutDuration: time.Minute}
	return NewService(repo, testLogger(), cfg), repo
}

// failingRepository simulates an unreachable store: every call errors.
type failingRepository struct{}

var errStoreDown = errors.New("connection refused")

func (failingRepository) Create(ctx context.Context, user *User) (*User, error) {
	return nil, errStoreDown
}
func (failingRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return nil, errStoreDown
}
func (failingRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return nil, errStoreDown
}
func (failingRepository) Exists(ctx context.Context, username string) (bool, error) {
	return false, errStoreDown
}
func (failingRepository) Update(ctx context.Context, id string, upd Update) error {
	return errStoreDown
}
func (failingRepository) Delete(ctx context.Context, id string) error {
	return errStoreDown
}
func (failingRepository) List(ctx context.Context, limit, offset int) ([]PublicUser, error) {
	return nil, errStoreDown
}
func (failingRepository) Count(ctx context.Context) (int64, error) {
	return 0, errStoreDown
}
func (failingRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockFor time.Duration) (int, error) {
	return 0, errStoreDown
}
func (failingRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	return errStoreDown
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "Secure123", "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	logged, err := svc.Login(ctx, "alice", "Secure123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, logged.ID)

	record, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, record.LastLogin)
	assert.Equal(t, 0, record.FailedLoginAttempts)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "Other456x", "")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		email    string
		wantErr  error
		wantMsg  string
	}{
		{name: "username too short", username: "ab", password: "Secure123", wantErr: shared.ErrInvalidUsername},
		{name: "username bad characters", username: "al ice", password: "Secure123", wantErr: shared.ErrInvalidUsername},
		{name: "underscores only username is valid", username: "___", password: "Secure123"},
		{name: "password too short", username: "alice", password: "Ab1", wantErr: shared.ErrWeakPassword,
			wantMsg: "password must be at least 8 characters long"},
		{name: "password missing uppercase", username: "alice", password: "abc12345", wantErr: shared.ErrWeakPassword,
			wantMsg: "password must contain at least one uppercase letter"},
		{name: "password missing lowercase", username: "alice", password: "ABC12345", wantErr: shared.ErrWeakPassword,
			wantMsg: "password must contain at least one lowercase letter"},
		{name: "password missing digit", username: "alice", password: "Abcdefgh", wantErr: shared.ErrWeakPassword,
			wantMsg: "password must contain at least one number"},
		{name: "minimal compliant password", username: "alice", password: "Abcdefg1"},
		{name: "bad email", username: "alice", password: "Secure123", email: "not-an-email", wantErr: shared.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.Register(context.Background(), tt.username, tt.password, tt.email)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRegisterIdenticalPasswordsGetDistinctSalts(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "Secure123", "")
	require.NoError(t, err)

	alice, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	bob, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)

	assert.NotEqual(t, alice.Salt, bob.Salt)
	assert.NotEqual(t, alice.PasswordHash, bob.PasswordHash)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "Wrong1234")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	record, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, record.FailedLoginAttempts)
	assert.Nil(t, record.AccountLockedUntil)
}

func TestLoginUnknownUserAndEmptyInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "nobody", "Secure123")
	assert.ErrorIs(t, err, shared.ErrUserNotFound)

	_, err = svc.Login(ctx, "", "Secure123")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Login(ctx, "alice", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	require.NoError(t, err)

	// threshold is 3 in the test config
	for i := 0; i < 3; i++ {
		_, err = svc.Login(ctx, "alice", "Wrong1234")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}

	record, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, record.AccountLockedUntil)

	// correct password is rejected without evaluation while locked
	_, err = svc.Login(ctx, "alice", "Secure123")
	assert.ErrorIs(t, err, shared.ErrAccountLocked)

	record, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, record.FailedLoginAttempts)
}

func TestLockoutExpiry(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _ = svc.Login(ctx, "alice", "Wrong1234")
	}

	// simulate the lock window elapsing
	repo.mu.Lock()
	expired := time.Now().UTC().Add(-time.Second)
	repo.users["alice"].AccountLockedUntil = &expired
	repo.mu.Unlock()

	logged, err := svc.Login(ctx, "alice", "Secure123")
	require.NoError(t, err)
	assert.Equal(t, "alice", logged.Username)

	record, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, record.FailedLoginAttempts)
	assert.Nil(t, record.AccountLockedUntil)
}

func TestPublicProjectionOmitsSecrets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "alice@example.com")
	require.NoError(t, err)

	profile, err := svc.GetPublicProfile(ctx, "alice")
	require.NoError(t, err)

	raw, err := json.Marshal(profile)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.NotContains(t, fields, "password_hash")
	assert.NotContains(t, fields, "salt")
	assert.NotContains(t, fields, "failed_login_attempts")
	assert.NotContains(t, fields, "account_locked_until")
}

func TestChangePassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	require.NoError(t, err)

	before, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "alice", "Wrong1234", "Another99x")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, "alice", "Secure123", "weak")
	assert.ErrorIs(t, err, shared.ErrWeakPassword)

	require.NoError(t, svc.ChangePassword(ctx, "alice", "Secure123", "Another99x"))

	after, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, before.Salt, after.Salt)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)

	_, err = svc.Login(ctx, "alice", "Secure123")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "alice", "Another99x")
	assert.NoError(t, err)
}

func TestUpdateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "alice@example.com")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "Secure123", "bob@example.com")
	require.NoError(t, err)

	updated, err := svc.UpdateEmail(ctx, "alice", "alice@new.example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", updated.Email)

	_, err = svc.UpdateEmail(ctx, "alice", "bob@example.com")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = svc.UpdateEmail(ctx, "alice", "not-an-email")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.UpdateEmail(ctx, "ghost", "ghost@example.com")
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, "alice"))

	_, err = svc.GetPublicProfile(ctx, "alice")
	assert.ErrorIs(t, err, shared.ErrUserNotFound)

	err = svc.DeleteUser(ctx, "alice")
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestListUsersOrderAndPagination(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := svc.Register(ctx, name, "Secure123", "")
		require.NoError(t, err)

		// pin creation times so the expected order is deterministic
		repo.mu.Lock()
		repo.users[name].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		repo.mu.Unlock()
	}

	list, err := svc.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "carol", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)
	assert.Equal(t, "alice", list[2].Username)

	page, err := svc.ListUsers(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bob", page[0].Username)

	total, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestStorageFaultsSurfaceAsUnavailable(t *testing.T) {
	svc := NewService(failingRepository{}, testLogger(),
		&config.Config{MaxLoginAttempts: 3, LockoutDuration: time.Minute})
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Secure123", "")
	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)

	_, err = svc.Login(ctx, "alice", "Secure123")
	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)

	_, err = svc.GetPublicProfile(ctx, "alice")
	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)

	_, err = svc.ListUsers(ctx, 10, 0)
	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)

	_, err = svc.CountUsers(ctx)
	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)
}
