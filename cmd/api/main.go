package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"clinical-records-service/internal/config"
	v1 "clinical-records-service/internal/handler/v1"
	"clinical-records-service/internal/repository"
	"clinical-records-service/internal/service"
	"clinical-records-service/pkg/database"
	"clinical-records-service/pkg/logger"
	"clinical-records-service/pkg/metrics"
	"clinical-records-service/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	collector := metrics.NewCollector("clinical", prometheus.DefaultRegisterer)

	patientRepo := repository.NewPatientRepository(db)
	examRepo := repository.NewExamRepository(db)

	patientSvc := service.NewPatientService(db, patientRepo, log)
	examSvc := service.NewExamService(db, examRepo, patientRepo, log)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:   log,
		Metrics:  collector,
		CORS:     cfg.CORS,
		Patients: v1.NewPatientHandler(patientSvc, collector),
		Exams:    v1.NewExamHandler(examSvc, collector),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Keep the pool gauge fresh without instrumenting every query.
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("address", cfg.Server.Address()),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
