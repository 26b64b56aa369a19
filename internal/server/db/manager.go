// Package db selects and initializes the credential-store backend. The DSN
// decides the implementation: "memory" gives the in-process store, a
// postgres:// URL gives PostgreSQL, anything else is treated as a SQLite
// file path (including ":memory:").
package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ilepins/userauth/internal/server/users"
)

// RepositoryManager owns the storage backend and hands out repositories
// bound to it.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Close() error
}

// NewRepositoryManager dispatches on the DSN and returns a fully migrated
// manager.
func NewRepositoryManager(dsn string) (RepositoryManager, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewInMemoryRepositoryManager(), nil
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresRepositoryManager(dsn)
	default:
		return NewSQLiteRepositoryManager(dsn)
	}
}
