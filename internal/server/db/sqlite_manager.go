package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ilepins/userauth/internal/server/migrations"
	"github.com/ilepins/userauth/internal/server/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type SQLiteRepositoryManager struct {
	db    *sql.DB
	users users.Repository
}

func (m *SQLiteRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *SQLiteRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *SQLiteRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, m.db, ".")
}

func NewSQLiteRepositoryManager(dsn string) (RepositoryManager, error) {

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// single writer at a time; sqlite serializes writes anyway and this
	// avoids SQLITE_BUSY under concurrent logins
	db.SetMaxOpenConns(1)

	m := &SQLiteRepositoryManager{
		db:    db,
		users: users.NewSQLiteRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
