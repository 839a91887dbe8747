package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/config"
	"github.com/xavierca1/buyer-leads/internal/infra/auth"
	"github.com/xavierca1/buyer-leads/internal/infra/database"
	"github.com/xavierca1/buyer-leads/internal/infra/http/handlers"
	"github.com/xavierca1/buyer-leads/internal/infra/http/middleware"
	"github.com/xavierca1/buyer-leads/internal/infra/mail"
	"github.com/xavierca1/buyer-leads/internal/infra/queue"
	"github.com/xavierca1/buyer-leads/internal/infra/ratelimit"
	"github.com/xavierca1/buyer-leads/internal/infra/worker"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database
	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed connecting to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		logger.Fatal("Failed running migrations", zap.Error(err))
	}
	store := database.NewStore(db)

	// 2. Optional infrastructure
	var (
		events   usecase.EventPublisher
		rabbitMQ handlers.ConnectionChecker
		rabbit   *queue.RabbitMQ
	)
	if cfg.RabbitMQURL != "" {
		rabbit, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("Failed connecting to RabbitMQ", zap.Error(err))
		}
		defer rabbit.Close()
		events = queue.NewProducer(rabbit.Ch)
		rabbitMQ = rabbit
	}

	var (
		limiter usecase.RateLimiter
		redisDB handlers.Pinger
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer client.Close()
		rl := ratelimit.NewRedisLimiter(client, cfg.CreateRateLimit, cfg.CreateRateWindow)
		limiter, redisDB = rl, rl
	} else {
		ml := ratelimit.NewMemoryLimiter(cfg.CreateRateLimit, cfg.CreateRateWindow)
		go ml.Run(ctx, 10*time.Minute)
		limiter = ml
	}

	var mailer usecase.EmailService
	if cfg.SMTPHost != "" {
		mailer = mail.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		logger.Warn("SMTP not configured, magic links are logged instead of sent")
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)

	// 3. Use cases
	createUC := usecase.NewCreateBuyerUseCase(store, limiter, events, logger)
	updateUC := usecase.NewUpdateBuyerUseCase(store, events, logger)
	deleteUC := usecase.NewDeleteBuyerUseCase(store, events, logger)
	queryUC := usecase.NewQueryBuyersUseCase(store, logger)
	importUC := usecase.NewImportCsvUseCase(store, events, logger)
	exportUC := usecase.NewExportCsvUseCase(store, logger)
	authUC := usecase.NewAuthUseCase(store.Users(), store.Tokens(), sessions, mailer, cfg.BaseURL, logger)

	// 4. Workers
	go worker.NewTokenSweeper(store.Tokens(), cfg.TokenSweepInterval, logger).Start(ctx)

	if rabbit != nil && mailer != nil {
		ch, err := rabbit.Consumer()
		if err != nil {
			logger.Fatal("Failed opening consumer channel", zap.Error(err))
		}
		notifyUC := usecase.NewNotifyStatusChangeUseCase(store.Users(), mailer, logger)
		go func() {
			if err := queue.NewWorker(ch, notifyUC, logger).Start(ctx, queue.QueueName); err != nil {
				logger.Error("Buyer event worker stopped", zap.Error(err))
			}
		}()
	}

	// 5. Router
	router := newRouter(routes{
		Buyers:         handlers.NewBuyerHandler(createUC, updateUC, deleteUC, queryUC, logger),
		CSV:            handlers.NewCSVHandler(importUC, exportUC, logger),
		Auth:           handlers.NewAuthHandler(authUC, cfg.SessionTTL, cfg.SecureCookies(), cfg.DemoLoginEnabled, logger),
		Health:         handlers.NewHealthHandler(store, rabbitMQ, redisDB, version),
		Session:        middleware.Session(sessions, authUC, logger),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
