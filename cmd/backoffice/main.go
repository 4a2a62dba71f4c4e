package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hromada-tools/backoffice/internal/application/services"
	"github.com/hromada-tools/backoffice/internal/config"
	"github.com/hromada-tools/backoffice/internal/infrastructure/broker"
	"github.com/hromada-tools/backoffice/internal/infrastructure/cache"
	"github.com/hromada-tools/backoffice/internal/infrastructure/persistence/postgres"
	"github.com/hromada-tools/backoffice/internal/infrastructure/telegram"
	"github.com/hromada-tools/backoffice/internal/interfaces/rest"
	"github.com/hromada-tools/backoffice/internal/interfaces/rest/handlers"
	"github.com/hromada-tools/backoffice/internal/interfaces/rest/middleware"
)

const cacheJanitorInterval = time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting backoffice service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"default_community", cfg.Community.DefaultName,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	debtorRepo := postgres.NewDebtorRepository(db.Pool)
	communityRepo := postgres.NewCommunityRepository(db.Pool)
	accountRepo := postgres.NewAccountRepository(db.Pool)
	smsTemplateRepo := postgres.NewSmsTemplateRepository(db.Pool)

	taskBroker := broker.NewClient(cfg.Broker, logger)
	defer taskBroker.Close()

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	var cacheStore cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		defer redisClient.Close()
		cacheStore = cache.NewRedis(redisClient, "backoffice:")
		logger.Info("using redis cache", "addr", cfg.Cache.Redis.Addr)
	default:
		memory := cache.NewMemory()
		go memory.StartJanitor(backgroundCtx, cacheJanitorInterval, logger)
		cacheStore = memory
	}

	validator := services.NewCommunityValidator(communityRepo, cacheStore, cfg.Cache.ValidationTTL, logger)

	var notifier *telegram.Session
	if cfg.Telegram.BotToken != "" {
		botClient := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIBaseURL, cfg.Telegram.SendTimeout)
		notifier = telegram.NewSession(botClient, accountRepo, int(cfg.Telegram.SendConcurrency), logger)
	} else {
		logger.Warn("telegram bot token not set, notifications disabled")
	}

	tasksService := newTasksService(taskBroker, debtorRepo, validator, notifier, logger)
	smsService := services.NewSmsService(smsTemplateRepo, taskBroker, validator, cfg.Community.DefaultName, logger)

	h := handlers.NewHandlers(
		tasksService,
		smsService,
		validator,
		cfg.Community.DefaultName,
		logger,
	)

	router := rest.NewRouter(h,
		middleware.Timeout(cfg.Server.ReadTimeout),
		middleware.Logging(logger),
		middleware.Recovery(logger),
	)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// newTasksService keeps the nil-notifier wiring out of main's flow: a typed
// nil *telegram.Session must become a nil interface.
func newTasksService(
	taskBroker *broker.Client,
	debtorRepo *postgres.DebtorRepository,
	validator *services.CommunityValidator,
	notifier *telegram.Session,
	logger *slog.Logger,
) *services.TasksService {
	if notifier == nil {
		return services.NewTasksService(taskBroker, debtorRepo, validator, nil, logger)
	}
	return services.NewTasksService(taskBroker, debtorRepo, validator, notifier, logger)
}
