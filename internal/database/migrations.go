package database

import (
	"fmt"

	"github.com/yukikurage/todo-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations...")
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := ensureUsernameCollation(db); err != nil {
		return fmt.Errorf("failed to set username collation: %w", err)
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}

// ensureUsernameCollation makes usernames compare byte for byte on MySQL,
// whose default collation folds case in lookups and in the unique index.
// SQLite and PostgreSQL already compare text exactly.
func ensureUsernameCollation(db *gorm.DB) error {
	if db.Dialector.Name() != "mysql" {
		return nil
	}
	return db.Exec("ALTER TABLE users MODIFY username varchar(255) COLLATE utf8mb4_bin NULL").Error
}

// AddIndexes creates the indexes declared on the models that are missing,
// e.g. on tables created before the index existed
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		model any
		name  string
	}{
		// listing: WHERE author_id = ? ORDER BY created_at
		{&models.Task{}, "idx_tasks_author_created"},
		{&models.User{}, "idx_users_deleted_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}
		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Info("Created index", zap.String("index", idx.name))
	}

	return nil
}
