package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/auth"
	"github.com/resiliencetracker/internal/config"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/handler"
	"github.com/resiliencetracker/internal/logging"
	"github.com/resiliencetracker/internal/metrics"
	"github.com/resiliencetracker/internal/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	seedOnly := flag.Bool("seed-only", false, "run migrations, seed demo data and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger, *migrateOnly, *seedOnly); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.AppConfig, logger *zap.Logger, migrateOnly, seedOnly bool) error {
	// 初始化数据库
	logger.Info("opening database",
		zap.String("url", logging.RedactDSN(cfg.DatabaseURL)),
		zap.String("path", cfg.DatabasePath),
	)
	gdb, err := db.Open(db.Options{
		DatabaseURL:  cfg.DatabaseURL,
		DatabasePath: cfg.DatabasePath,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	if migrateOnly {
		logger.Info("migrations applied")
		return nil
	}

	if seedOnly || cfg.SeedDemoData {
		if err := db.Seed(gdb); err != nil {
			return err
		}
		logger.Info("demo data seeded")
		if seedOnly {
			return nil
		}
	}

	if err := db.EnsureCounsellor(gdb, cfg.BootstrapCounsellorEmail, cfg.BootstrapCounsellorPassword); err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	m := metrics.New()
	api := handler.NewAPI(gdb, auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL), logger, m)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
