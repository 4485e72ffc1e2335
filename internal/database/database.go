package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"msc-cert/portal-backend/internal/auth"
	"msc-cert/portal-backend/internal/certificates"
	"msc-cert/portal-backend/internal/config"
)

const retryDelay = 2 * time.Second

// Open connects to the configured database, retrying while it comes up.
// Unique violations are translated to gorm.ErrDuplicatedKey.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	dialector := postgres.Open(cfg.GetDatabaseURL())
	if cfg.Driver == "sqlite" {
		dialector = sqlite.Open(cfg.GetDatabaseURL())
	}

	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}

	var db *gorm.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		log.Warn("Retrying database connection", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	if err := Ping(context.Background(), db); err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	log.Info("Connected to database", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	models := append(certificates.Models(), auth.Models()...)
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// Ping checks connectivity.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
