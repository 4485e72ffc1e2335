package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"msc-cert/portal-backend/internal/app"
	"msc-cert/portal-backend/internal/auth"
	"msc-cert/portal-backend/internal/config"
	"msc-cert/portal-backend/internal/database"
	"msc-cert/portal-backend/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
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

	secret := cfg.Security.JWTSecret
	if secret == "" {
		if cfg.Server.Mode == gin.ReleaseMode {
			logger.Fatal("security.jwt_secret is required in release mode")
		}
		secret = randomSecret()
		logger.Warn("No JWT secret configured, using a random one; tokens will not survive a restart")
	}
	authService, err := auth.NewService(db, auth.Config{
		JWTSecret:       secret,
		TokenTTL:        cfg.Security.TokenTTL,
		FailureLimit:    cfg.Security.LoginFailureLimit,
		LockoutDuration: cfg.Security.LockoutDuration,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize auth", zap.Error(err))
	}
	if _, err := authService.EnsureAdmin(context.Background(),
		cfg.Security.AdminUsername, cfg.Security.AdminEmail, cfg.Security.AdminPassword); err != nil {
		logger.Fatal("Failed to create bootstrap admin", zap.Error(err))
	}

	certService, err := app.NewCertificateService(context.Background(), cfg, db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize certificates", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)
	deps := server.Dependencies{
		DB:             db,
		Auth:           authService,
		Certificates:   certService,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if cfg.Storage.Backend == "local" {
		deps.MediaRoot = cfg.Storage.MediaRoot
		deps.MediaPath = cfg.Storage.MediaURL
	}
	router := server.NewRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
