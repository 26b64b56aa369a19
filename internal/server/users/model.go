// Package users implements the credential store contract and the
// authentication service that sits on top of it.
package users

import "time"

// User is the persistent credential record. PasswordHash and Salt never leave
// this package; external callers only ever see the PublicUser projection.
type User struct {
	ID                  string
	Username            string
	PasswordHash        string
	Salt                string
	Email               string
	CreatedAt           time.Time
	UpdatedAt           *time.Time
	LastLogin           *time.Time
	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
}

// PublicUser is the subset of a user record safe to return to external
// callers. It deliberately has no hash, salt, or lockout bookkeeping fields.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the caller-facing projection of the record.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Locked reports whether the account is locked at the given instant.
func (u *User) Locked(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}

// Update is a partial update applied by Repository.Update. Nil fields are
// left untouched; updated_at is stamped whenever any field changes.
type Update struct {
	Email        *string
	PasswordHash *string
	Salt         *string
}
