package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"msc-cert/portal-backend/internal/app"
	"msc-cert/portal-backend/internal/config"
	"msc-cert/portal-backend/internal/database"
	"msc-cert/portal-backend/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger := app.NewLogger(cfg.Logging)
	defer logger.Sync()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	certService, err := app.NewCertificateService(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize certificates", zap.Error(err))
	}

	refresher, err := worker.NewStatusRefresher(certService, cfg.Worker.StatusRefreshCron, cfg.Certificates.Location(), logger)
	if err != nil {
		logger.Fatal("Failed to create status refresher", zap.Error(err))
	}

	if *once || cfg.Worker.RunOnStart {
		if _, err := refresher.RunOnce(ctx); err != nil {
			logger.Error("Initial status sweep failed", zap.Error(err))
		}
		if *once {
			return
		}
	}

	if err := refresher.Start(ctx); err != nil {
		logger.Fatal("Failed to start status refresher", zap.Error(err))
	}
	logger.Info("Status worker started", zap.Time("next_run", refresher.Next()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down status worker...")
	cancel()
	refresher.Stop()
	logger.Info("Status worker exiting")
}
