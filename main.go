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

	"github.com/Madhav-Gupta-28/shopfront-backend-go/config"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/handlers"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/jobs"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/mailer"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/metrics"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/middleware"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/realtime"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/routes"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	// Load environment variables
	config.LoadEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config: ", err)
	}

	logr, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logr.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logr.Errorw("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	logr.Infow("store ready", "driver", cfg.StoreDriver)

	mail, err := mailer.New(cfg.Mail, logr)
	if err != nil {
		logr.Errorw("failed to build mailer", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	hub := realtime.NewHub(logr, cfg.CORSOrigins)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	sweep := jobs.NewEmailSweep(store, mail, logr, m, jobs.SweepOptions{
		Interval:      cfg.Sweep.Interval,
		Batch:         cfg.Sweep.Batch,
		PromoInterval: cfg.Sweep.PromoInterval,
	})
	sweepDone := make(chan struct{})
	go func() {
		sweep.Run(ctx)
		close(sweepDone)
	}()

	h := handlers.New(handlers.Deps{
		Store:        store,
		Tokens:       tokens,
		Feed:         hub,
		Metrics:      m,
		Log:          logr,
		Sweep:        sweep,
		CookieSecure: cfg.CookieSecure,
		DBTimeout:    cfg.DBTimeout,
	})
	e := routes.NewServer(routes.Options{
		Handler:     h,
		Auth:        middleware.NewAuth(store, tokens, logr),
		Audit:       middleware.Audit(store, logr, cfg.DBTimeout),
		Metrics:     m,
		Log:         logr,
		CORSOrigins: cfg.CORSOrigins,
	})

	go func() {
		logr.Infow("server starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Errorw("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	hub.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logr.Errorw("http shutdown", "error", err)
	}
	<-sweepDone
	if err := store.Close(shutdownCtx); err != nil {
		logr.Errorw("store close", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (database.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		return database.NewMemoryStore(), nil
	}
	return database.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDB, cfg.DBTimeout)
}
