package database

import (
	"fmt"
	"time"

	"github.com/inkwell/backend/internal/config"
	"github.com/inkwell/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection and configures the pool. The returned
// handle is passed explicitly into every component that needs it; this package
// keeps no global state.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	gormLogger := logger.Default
	if cfg.Environment == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate runs auto-migration for all models
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Publication{},
		&models.Post{},
		&models.Subscription{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return createIndexes(db)
}

// createIndexes creates performance indexes for common query patterns
func createIndexes(db *gorm.DB) error {
	// Case-insensitive lookup paths for login and uniqueness checks
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")

	// Ownership-scoped queries on publications
	db.Exec("CREATE INDEX IF NOT EXISTS idx_publications_owner ON publications (owner_id, created_at DESC)")

	// Published-post listing per publication
	db.Exec("CREATE INDEX IF NOT EXISTS idx_posts_publication_status ON posts (publication_id, status, created_at DESC)")

	// One non-canceled subscription per reader per publication
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_reader_publication ON subscriptions (reader_id, publication_id) WHERE status <> 'CANCELED'")

	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
