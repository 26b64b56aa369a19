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
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements Repository against PostgreSQL through the pgx
// stdlib driver. Semantics are identical to the SQLite implementation.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// unique_violation
const pgUniqueViolation = "23505"

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {

	created := *user
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now().UTC()

	query := `INSERT INTO users (id, username, password_hash, salt, email, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		created.ID, created.Username, created.PasswordHash, created.Salt,
		nullableString(created.Email), created.CreatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return &created, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, upd Update) error {

	fields := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if upd.Email != nil {
		args = append(args, nullableString(*upd.Email))
		fields = append(fields, fmt.Sprintf("email = $%d", len(args)))
	}
	if upd.PasswordHash != nil {
		args = append(args, *upd.PasswordHash)
		fields = append(fields, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if upd.Salt != nil {
		args = append(args, *upd.Salt)
		fields = append(fields, fmt.Sprintf("salt = $%d", len(args)))
	}
	if len(fields) == 0 {
		return nil
	}

	args = append(args, time.Now().UTC())
	fields = append(fields, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`,
		strings.Join(fields, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isPgUniqueViolation(err) {
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]PublicUser, error) {
	query := `SELECT id, username, email, created_at FROM users
	          ORDER BY created_at DESC, username ASC
	          LIMIT $1 OFFSET $2`

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

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockFor time.Duration) (int, error) {

	var attempts int

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`UPDATE users SET failed_login_attempts = failed_login_attempts + 1
			 WHERE id = $1
			 RETURNING failed_login_attempts`, id).Scan(&attempts)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return shared.ErrNotFound
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		if attempts >= threshold {
			until := time.Now().UTC().Add(lockFor)
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET account_locked_until = $1 WHERE id = $2`, until, id)
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

func (r *PostgresRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	query := `UPDATE users
	          SET failed_login_attempts = 0, account_locked_until = NULL, last_login = $1
	          WHERE id = $2`

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
