package users

import (
	"context"
	"time"
)

// Repository is the storage-agnostic credential store contract. Every
// implementation (in-memory, SQLite, PostgreSQL) satisfies identical
// semantics, so the Service is indifferent to the backing medium.
//
// Error conventions: shared.ErrAlreadyExists on username/email collisions,
// shared.ErrNotFound for missing records; anything else is a storage fault.
type Repository interface {
	// Create inserts a new record, assigning ID and CreatedAt. Uniqueness is
	// enforced here: a colliding insert fails with shared.ErrAlreadyExists
	// even when two registrations race.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByUsername returns the full record, shared.ErrNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns the full record, shared.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*User, error)

	// Exists reports whether a username is taken.
	Exists(ctx context.Context, username string) (bool, error)

	// Update applies the non-nil fields of upd and stamps updated_at.
	Update(ctx context.Context, id string, upd Update) error

	// Delete removes the record unconditionally and irreversibly.
	Delete(ctx context.Context, id string) error

	// List returns public projections ordered by created_at descending.
	// Pure pagination: no cursor state is retained between calls.
	List(ctx context.Context, limit, offset int) ([]PublicUser, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// RecordLoginFailure increments the failure counter and, once it reaches
	// threshold, stamps account_locked_until = now + lockFor. The whole
	// sequence executes as one indivisible unit. Returns the new counter.
	RecordLoginFailure(ctx context.Context, id string, threshold int, lockFor time.Duration) (int, error)

	// RecordLoginSuccess resets the failure counter, clears any lock, and
	// stamps last_login, as a single statement.
	RecordLoginSuccess(ctx context.Context, id string) error
}
