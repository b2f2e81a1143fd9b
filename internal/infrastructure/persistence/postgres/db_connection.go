// Package postgres implements the domain repositories on PostgreSQL through
// gorm. All repositories are transaction-aware: when a transaction handle is
// carried in the context they join it, otherwise they run on the shared pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openbaseline/compliance/internal/config"
	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/pkg/logger"
)

// NewDBConnection opens the PostgreSQL connection pool and verifies it with a
// ping. TranslateError is enabled so unique constraint violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	log.Info(ctx, "Initializing PostgreSQL connection pool",
		logger.Fields{
			"host":     cfg.Host,
			"port":     cfg.Port,
			"database": cfg.Database,
		})

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error(ctx, "Failed to open database connection", err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		log.Error(ctx, "Database ping failed", err)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info(ctx, "PostgreSQL connection pool initialized")
	return db, nil
}

// AutoMigrate creates or updates the schema for all domain entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Benchmark{},
		&models.Rule{},
		&models.BusinessObjective{},
		&models.Policy{},
		&models.Profile{},
		&models.TestResult{},
		&models.RuleResult{},
		&models.AuditEvent{},
	)
}
