package db

import (
	"context"
	"database/sql"

	"github.com/ilepins/userauth/internal/server/users"
)

// InMemoryRepositoryManager backs the store with a process-local map.
// Intended for tests and demos; nothing survives a restart.
type InMemoryRepositoryManager struct {
	users users.Repository
}

func (m *InMemoryRepositoryManager) Conn() *sql.DB {
	return nil
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewInMemoryRepository()}
}
