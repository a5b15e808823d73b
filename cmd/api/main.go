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

	"github.com/dentalize/scheduler-api/internal/cache"
	"github.com/dentalize/scheduler-api/internal/config"
	"github.com/dentalize/scheduler-api/internal/email"
	"github.com/dentalize/scheduler-api/internal/handler"
	authHandler "github.com/dentalize/scheduler-api/internal/handler/auth"
	catalogHandler "github.com/dentalize/scheduler-api/internal/handler/catalog"
	clientHandler "github.com/dentalize/scheduler-api/internal/handler/client"
	taskHandler "github.com/dentalize/scheduler-api/internal/handler/task"
	"github.com/dentalize/scheduler-api/internal/middleware"
	"github.com/dentalize/scheduler-api/internal/repository/postgres"
	"github.com/dentalize/scheduler-api/internal/router"
	authService "github.com/dentalize/scheduler-api/internal/service/auth"
	catalogService "github.com/dentalize/scheduler-api/internal/service/catalog"
	clientService "github.com/dentalize/scheduler-api/internal/service/client"
	"github.com/dentalize/scheduler-api/internal/service/scheduling"
	"github.com/dentalize/scheduler-api/pkg/auth"
	"github.com/dentalize/scheduler-api/pkg/logger"
	"github.com/dentalize/scheduler-api/pkg/metrics"
	"github.com/dentalize/scheduler-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.New("scheduler")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	taskRepo := postgres.NewTaskRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)

	// Schedule cache is optional: without Redis the API serves from the
	// database alone.
	var scheduleCache scheduling.ScheduleCache
	if cfg.Redis.URL != "" {
		sc, err := cache.NewScheduleCache(cfg.Redis.URL, cfg.Redis.ScheduleTTL, appLogger, appMetrics)
		if err != nil {
			appLogger.Error(err, "failed to connect schedule cache, continuing without it")
		} else {
			scheduleCache = sc
			defer sc.Close()
		}
	}

	// Services
	jwtService := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewHasher(0)
	mailer := email.NewSMTPSender(cfg.SMTP, appLogger)

	catalogSvc := catalogService.NewService(serviceRepo)
	clientSvc := clientService.NewService(clientRepo)
	schedulingSvc := scheduling.NewService(taskRepo, catalogSvc, scheduleCache, appLogger, appMetrics)
	authSvc := authService.NewService(userRepo, tokenRepo, jwtService, hasher, mailer,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour, appLogger)

	// HTTP surface
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		taskHandler.NewHandler(schedulingSvc),
		clientHandler.NewHandler(clientSvc),
		catalogHandler.NewHandler(catalogSvc),
		handler.NewHandler(db),
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.RequestTimeout,
			CORSConfig:       middleware.DefaultCORSConfig(),
			MetricsPrefix:    "scheduler_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	appLogger.Info("server stopped")
}
