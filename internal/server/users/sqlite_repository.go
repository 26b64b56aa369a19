package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ilepins/userauth/internal/dbx"
	"github.com/ilepins/userauth/internal/shared"
)

// SQLiteRepository implements Repository against a SQLite database. Each
// operation executes one statement, or a short transaction for compound
// login bookkeeping, and releases the connection before returning.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// isUniqueViolation detects a UNIQUE constraint failure reported by the
// sqlite driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const userColumns = `id, username, password_hash, salt, email, created_at, updated_at, last_login, failed_login_attempts, account_locked_until`

func scanUser(row *sql.Row) (*User, error) {
	var (
		u         User
		email     sql.NullString
		updatedAt sql.NullTime
		lastLogin sql.NullTime
		lockedTil sql.NullTime
	)

	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &email,
		&u.CreatedAt, &updatedAt, &lastLogin, &u.FailedLoginAttempts, &lockedTil)
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	if lockedTil.Valid {
		u.AccountLockedUntil = &lockedTil.Time
	}
	return &u, nil
}

// nullableString maps "" to NULL so the partial unique index on email only
// applies to present addresses.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *SQLiteRepository) Create(ctx context.Context, user *User) (*User, error) {

	created := *user
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now().UTC()

	query := `INSERT INTO users (id, username, password_hash, salt, email, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		created.ID, created.Username, created.PasswordHash, created.Salt,
		nullableString(created.Email), created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return &created, nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username = ?`, username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, upd Update) error {

	fields := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if upd.Email != nil {
		fields = append(fields, "email = ?")
		args = append(args, nullableString(*upd.Email))
	}
	if upd.PasswordHash != nil {
		fields = append(fields, "password_hash = ?")
		args = append(args, *upd.PasswordHash)
	}
	if upd.Salt != nil {
		fields = append(fields, "salt = ?")
		args = append(args, *upd.Salt)
	}
	if len(fields) == 0 {
		return nil
	}

	fields = append(fields, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := `UPDATE users SET ` + strings.Join(fields, ", ") + ` WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit, offset int) ([]PublicUser, error) {
	query := `SELECT id, username, email, created_at FROM users
	          ORDER BY created_at DESC, username ASC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []PublicUser
	for rows.Next() {
		var (
			p     PublicUser
			email sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Username, &email, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Email = email.String
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return n, nil
}

// RecordLoginFailure runs increment + conditional lock stamping inside one
// transaction so concurrent failures cannot lose updates.
func (r *SQLiteRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockFor time.Duration) (int, error) {

	var attempts int

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET failed_login_attempts = failed_login_attempts + 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if ra == 0 {
			return shared.ErrNotFound
		}

		err = tx.QueryRowContext(ctx,
			`SELECT failed_login_attempts FROM users WHERE id = ?`, id).Scan(&attempts)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}

		if attempts >= threshold {
			until := time.Now().UTC().Add(lockFor)
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET account_locked_until = ? WHERE id = ?`, until, id)
			if err != nil {
				return fmt.Errorf("error performing sql request: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return attempts, nil
}

func (r *SQLiteRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	query := `UPDATE users
	          SET failed_login_attempts = 0, account_locked_until = NULL, last_login = ?
	          WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return shared.ErrNotFound
	}
	return nil
}
