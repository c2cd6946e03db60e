package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/config"
	"github.com/carelane/carelane/internal/handler/v1"
	"github.com/carelane/carelane/internal/repository/postgres"
	"github.com/carelane/carelane/internal/service"
	"github.com/carelane/carelane/pkg/auth"
	"github.com/carelane/carelane/pkg/database"
	"github.com/carelane/carelane/pkg/logger"
	"github.com/carelane/carelane/pkg/metrics"
	"github.com/carelane/carelane/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("loading config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		zap.L().Fatal("building logger", zap.Error(err))
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		log.Fatal("initializing tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("connecting to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("running migrations", zap.Error(err))
	}

	uow := postgres.NewUnitOfWork(db)
	stores := postgres.NewStores(db)
	users := postgres.NewUserRepo(db)

	m := metrics.NewCollector("carelane")
	jwtManager := auth.NewJWTManager(cfg.JWT)

	router := v1.NewRouter(v1.Services{
		Patients:   service.NewPatientService(uow, stores, m, log),
		Records:    service.NewRecordLedger(uow, stores, m, log),
		Admissions: service.NewAdmissionLedger(uow, stores, m, log),
		Status:     service.NewStatusMachine(uow, stores, m, log),
		Timeline:   service.NewTimeline(stores, log),
		Auth:       service.NewAuthService(users, jwtManager, log),
	}, jwtManager, m, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	statsDone := make(chan struct{})
	if sqlDB, err := db.DB(); err == nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					m.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
				case <-statsDone:
					return
				}
			}
		}()
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	close(statsDone)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close() //nolint:errcheck
	}

	log.Info("stopped")
}
