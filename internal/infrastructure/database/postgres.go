package database

import (
	"fmt"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/assembly-floor/pkg/config"
)

// NewPostgresDB creates a new PostgreSQL database connection using GORM
func NewPostgresDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	return Open(cfg.GetDatabaseDSN(), cfg, log)
}

// Open connects to dsn with the pool settings from cfg
func Open(dsn string, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
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
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database.connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))
	return db, nil
}

// Migrate applies (or rolls back) the SQL migrations found in dir.
// limit caps how many migrations run; 0 means all.
func Migrate(db *gorm.DB, dir string, direction migrate.MigrationDirection, limit int, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate: %w", err)
	}

	source := &migrate.FileMigrationSource{Dir: dir}
	n, err := migrate.ExecMax(sqlDB, "postgres", source, direction, limit)
	if err != nil {
		return n, fmt.Errorf("failed to apply migrations from %s: %w", dir, err)
	}

	log.Info("database.migrated", zap.String("dir", dir), zap.Int("applied", n))
	return n, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
