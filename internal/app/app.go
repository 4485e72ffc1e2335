// Package app wires configuration into the components shared by the API
// server and the status worker.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"msc-cert/portal-backend/internal/certificates"
	"msc-cert/portal-backend/internal/certificates/export"
	"msc-cert/portal-backend/internal/config"
	"msc-cert/portal-backend/pkg/qr"
	"msc-cert/portal-backend/pkg/storage"
)

// NewLogger builds a zap logger from the logging section.
func NewLogger(cfg config.LoggingConfig) *zap.Logger {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("Invalid logging configuration, using defaults", zap.Error(err))
	}
	return logger
}

// NewObjectStore opens the configured QR object store.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			UsePathStyle:    cfg.S3PathStyle,
			PresignTTL:      cfg.PresignTTL,
		})
	case "local":
		return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// NewCertificateService assembles the certificate pipeline.
func NewCertificateService(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *zap.Logger) (certificates.Service, error) {
	store, err := NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open object store: %w", err)
	}

	assets := export.NewAssetLoader(cfg.Certificates.AssetsDir, logger)
	return certificates.NewService(
		certificates.NewRepository(db),
		store,
		qr.NewGenerator(qr.DefaultOptions()),
		export.NewPDFGenerator(assets, cfg.Certificates.Language, logger),
		export.NewExcelExporter(export.DefaultExcelOptions()),
		certificates.ServiceConfig{
			FrontendURL:      cfg.Certificates.FrontendURL,
			PublicBaseURL:    cfg.Certificates.PublicBaseURL,
			ExpiringSoonDays: cfg.Certificates.ExpiringSoonDays,
			Location:         cfg.Certificates.Location(),
		},
		logger,
	), nil
}
