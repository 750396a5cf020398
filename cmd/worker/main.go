package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mpetrakis/repair-api/internal/repository/postgres"
	"github.com/mpetrakis/repair-api/pkg/logger"
	messagingredis "github.com/mpetrakis/repair-api/pkg/messaging/redis"
	"github.com/mpetrakis/repair-api/pkg/metrics"
	"github.com/mpetrakis/repair-api/pkg/worker"
)

// Config is populated from REPAIR_WORKER_* environment variables.
type Config struct {
	PostgresHost     string `default:"localhost" split_words:"true"`
	PostgresPort     int    `default:"5432" split_words:"true"`
	PostgresUser     string `required:"true" split_words:"true"`
	PostgresPassword string `required:"true" split_words:"true"`
	PostgresDatabase string `required:"true" split_words:"true"`
	PostgresSSLMode  string `default:"disable" envconfig:"POSTGRES_SSLMODE"`

	RedisURL string `required:"true" split_words:"true"`

	BatchSize     int           `default:"100" split_words:"true"`
	PollInterval  time.Duration `default:"5s" split_words:"true"`
	RetryAttempts int           `default:"3" split_words:"true"`
	RetryDelay    time.Duration `default:"5s" split_words:"true"`
	RetentionDays int           `default:"7" split_words:"true"`
	HealthPort    int           `default:"8081" split_words:"true"`
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}

func main() {
	var cfg Config
	if err := envconfig.Process("repair_worker", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDatabase,
		cfg.PostgresSSLMode,
	)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := messagingredis.NewRedisBroker(messagingredis.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:       cfg.BatchSize,
			PollInterval:    cfg.PollInterval,
			RetryAttempts:   cfg.RetryAttempts,
			RetryDelay:      cfg.RetryDelay,
			RetentionPeriod: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		},
		appLogger,
		metrics.NewMetrics("repair_api", "worker"),
	)

	setupHealthCheck(cfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}
