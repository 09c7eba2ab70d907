package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nexvent/nexvent/internal/auth"
	"github.com/nexvent/nexvent/internal/config"
	"github.com/nexvent/nexvent/internal/postgres"
	"github.com/nexvent/nexvent/internal/redis"
	postgresrepo "github.com/nexvent/nexvent/internal/repository/postgres"
	redisrepo "github.com/nexvent/nexvent/internal/repository/redis"
	"github.com/nexvent/nexvent/internal/service"
	"github.com/nexvent/nexvent/internal/service/payment"
	httpgin "github.com/nexvent/nexvent/internal/transport/http/gin"
	"github.com/nexvent/nexvent/internal/worker"
	"github.com/nexvent/nexvent/migrations"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	settlement *worker.Settlement
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if err := migrations.Apply(context.Background(), pgxPool); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.NewCache(rdb)
	queue := redisrepo.NewSettlementQueue(rdb)

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	// Initialize services
	services := service.NewServices(store, cache, queue, tokens, service.Config{
		Payment: payment.Config{SettleDelay: cfg.Settlement.Delay},
	})

	settlement := worker.NewSettlement(queue, services.Payment, logger, worker.Config{
		PollInterval: cfg.Settlement.PollInterval,
		MaxAttempts:  cfg.Settlement.MaxAttempts,
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, tokens, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		settlement: settlement,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Start settlement worker
	g.Go(func() error {
		if err := a.settlement.Run(gCtx); err != nil && err != context.Canceled {
			return fmt.Errorf("settlement worker: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
