package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ilepins/userauth/internal/shared"
)

// InMemoryRepository is a non-persistent Repository backed by a map. It is
// intended for tests and the "memory" DSN; data is lost on restart. All
// methods are safe for concurrent use.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User // keyed by username
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

func clone(u *User) *User {
	c := *u
	return &c
}

func (r *InMemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return nil, shared.ErrAlreadyExists
	}
	if user.Email != "" {
		for _, existing := range r.users {
			if existing.Email == user.Email {
				return nil, shared.ErrAlreadyExists
			}
		}
	}

	c := clone(user)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	r.users[c.Username] = c

	return clone(c), nil
}

func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clone(u), nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u := r.findByID(id); u != nil {
		return clone(u), nil
	}
	return nil, shared.ErrNotFound
}

// findByID must be called with the lock held.
func (r *InMemoryRepository) findByID(id string) *User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *InMemoryRepository) Exists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[username]
	return ok, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, upd Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(id)
	if u == nil {
		return shared.ErrNotFound
	}

	if upd.Email != nil && *upd.Email != "" && *upd.Email != u.Email {
		for _, existing := range r.users {
			if existing.ID != id && existing.Email == *upd.Email {
				return shared.ErrAlreadyExists
			}
		}
	}

	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Salt != nil {
		u.Salt = *upd.Salt
	}

	now := time.Now().UTC()
	u.UpdatedAt = &now
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(id)
	if u == nil {
		return shared.ErrNotFound
	}
	delete(r.users, u.Username)
	return nil
}

func (r *InMemoryRepository) List(ctx context.Context, limit, offset int) ([]PublicUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Username < all[j].Username
	})

	result := make([]PublicUser, 0, limit)
	for i := offset; i < len(all) && len(result) < limit; i++ {
		result = append(result, *all[i].Public())
	}
	return result, nil
}

func (r *InMemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}

func (r *InMemoryRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockFor time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(id)
	if u == nil {
		return 0, shared.ErrNotFound
	}

	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= threshold {
		until := time.Now().UTC().Add(lockFor)
		u.AccountLockedUntil = &until
	}
	return u.FailedLoginAttempts, nil
}

func (r *InMemoryRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(id)
	if u == nil {
		return shared.ErrNotFound
	}

	now := time.Now().UTC()
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil
	u.LastLogin = &now
	return nil
}
