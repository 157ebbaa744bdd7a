package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"equipment-lifecycle/config"
	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/api"
	"equipment-lifecycle/internal/auth"
	"equipment-lifecycle/internal/db"
	"equipment-lifecycle/internal/lifecycle"
	"equipment-lifecycle/internal/logger"
	"equipment-lifecycle/internal/metrics"
	"equipment-lifecycle/internal/store"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("no configuration at %s, using defaults", configPath)
		cfg = config.Default()
	} else if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format, "equipd")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	rec, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		zl.Fatal("failed to register metrics", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The tracker keeps working on the in-memory data set when the database
	// cannot be opened.
	var durable store.Store
	if cfg.Database.DSN == "" {
		zl.Info("no database configured")
	} else if gormDB, err := db.Init(&cfg.Database, zl); err != nil {
		zl.Warn("failed to initialize database, continuing in memory", zap.Error(err))
	} else {
		durable = store.NewGormStore(gormDB)
		zl.Info("database initialized", zap.String("driver", cfg.Database.Driver))
	}

	session := access.NewSession()
	coord := lifecycle.New(ctx, durable, session, zl.Named("lifecycle"), lifecycle.WithMetrics(rec))
	authn := auth.New(coord, cfg.Auth.MaxLoginAttempts, cfg.Auth.Lockout, zl.Named("auth"), rec)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.NewServer(coord, session, authn, zl.Named("api"))
	router := api.NewRouter(srv, &cfg.Server, prometheus.DefaultGatherer)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	mode := coord.Mode()
	go func() {
		zl.Info("HTTP server starting", zap.String("addr", server.Addr), zap.String("mode", string(mode)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	zl.Info("shutdown signal received, stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server Shutdown", zap.Error(err))
	}
	zl.Info("server gracefully stopped")
}
