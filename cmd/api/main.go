package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mpetrakis/repair-api/internal/config"
	"github.com/mpetrakis/repair-api/internal/handler"
	authHandler "github.com/mpetrakis/repair-api/internal/handler/auth"
	deviceHandler "github.com/mpetrakis/repair-api/internal/handler/device"
	settingsHandler "github.com/mpetrakis/repair-api/internal/handler/settings"
	staffHandler "github.com/mpetrakis/repair-api/internal/handler/staff"
	trackHandler "github.com/mpetrakis/repair-api/internal/handler/track"
	"github.com/mpetrakis/repair-api/internal/middleware"
	"github.com/mpetrakis/repair-api/internal/repository/postgres"
	"github.com/mpetrakis/repair-api/internal/router"
	authService "github.com/mpetrakis/repair-api/internal/service/auth"
	deviceService "github.com/mpetrakis/repair-api/internal/service/device"
	"github.com/mpetrakis/repair-api/internal/service/notifier"
	settingsService "github.com/mpetrakis/repair-api/internal/service/settings"
	staffService "github.com/mpetrakis/repair-api/internal/service/staff"
	"github.com/mpetrakis/repair-api/pkg/auth"
	"github.com/mpetrakis/repair-api/pkg/logger"
	"github.com/mpetrakis/repair-api/pkg/metrics"
	"github.com/mpetrakis/repair-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	if err := validator.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	deviceRepo := postgres.NewDeviceRepository(baseRepo)
	timelineRepo := postgres.NewTimelineLogRepository(baseRepo)
	notificationRepo := postgres.NewNotificationLogRepository(baseRepo)
	settingsRepo := postgres.NewSettingsRepository(baseRepo)
	userRepo := postgres.NewUserRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	appMetrics := metrics.NewMetrics("repair_api", "api")

	// Services
	settingsSvc := settingsService.NewService(settingsRepo)

	notifierTimeout := time.Duration(cfg.Notifier.TimeoutSeconds) * time.Second
	dispatcher := notifier.NewService(
		settingsSvc,
		customerRepo,
		notificationRepo,
		[]notifier.Channel{
			notifier.NewSMSChannel(notifierTimeout),
			notifier.NewWhatsAppChannel(notifierTimeout),
			notifier.NewViberChannel(notifierTimeout),
		},
		appLogger,
		appMetrics,
	)

	deviceSvc := deviceService.NewService(
		deviceRepo,
		customerRepo,
		timelineRepo,
		notificationRepo,
		userRepo,
		dispatcher,
		appLogger,
		appMetrics,
	)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(userRepo, jwtSvc)
	staffSvc := staffService.NewService(userRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	// Handlers
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	trackH := trackHandler.NewHandler(deviceSvc)
	deviceH := deviceHandler.NewHandler(deviceSvc, outboxRepo)
	settingsH := settingsHandler.NewHandler(settingsSvc)
	staffH := staffHandler.NewHandler(staffSvc)

	r := router.NewRouter(
		authMiddleware,
		authH,
		trackH,
		deviceH,
		settingsH,
		staffH,
		h,
		router.Config{
			RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:     cfg.Server.RateLimitBurst,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "repair_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
