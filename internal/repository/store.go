package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore is a Store over a *gorm.DB, which is either the shared pool or
// an open transaction.
type GormStore struct {
	db *gorm.DB
}

// NewStore wraps the connection pool.
func NewStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Tasks() TaskRepository {
	return NewTaskRepository(s.db)
}

func (s *GormStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

// Transaction begins a transaction bound to ctx. Nested calls use savepoints.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
