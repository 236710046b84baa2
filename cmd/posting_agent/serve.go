package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/config"
	"github.com/jonathan/posting-assistant/internal/db"
	"github.com/jonathan/posting-assistant/internal/server"
	"github.com/jonathan/posting-assistant/internal/server/ratelimit"
	"github.com/jonathan/posting-assistant/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server that runs posting dialogues as sessions.

Sessions live in Redis when REDIS_URL is set and in memory otherwise.
Finalized postings are saved to PostgreSQL when DATABASE_URL is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config and ADDR)")
	rootCmd.AddCommand(serveCmd)
}

// redisPinger adapts a Redis client to server.HealthChecker.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, client, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	health := make(map[string]server.HealthChecker)
	var managerOpts []session.ManagerOption

	store, closeStore, err := openStore(ctx, cfg, logger, health)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
		health["postgres"] = database
		managerOpts = append(managerOpts, session.WithRepository(database))
	} else {
		logger.Info("DATABASE_URL not set; finalized postings are not persisted")
	}

	jwtConfig, err := config.JWTConfigFromEnv(os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to load JWT config: %w", err)
	}
	if jwtConfig == nil {
		logger.Warn("JWT_SECRET not set; session routes are unauthenticated")
	}

	manager := session.NewManager(store, engine, logger.Named("session"), managerOpts...)
	if mem, ok := store.(*session.MemoryStore); ok {
		sweeper := session.NewSweeper(mem, manager.Busy, cfg.SessionTTL(), cfg.SweepInterval(), logger.Named("sweeper"))
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("failed to start session sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	srv, err := server.New(server.Config{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
		Manager:        manager,
		RateLimit:      ratelimit.LoadConfig(os.Getenv),
		Logger:         logger.Named("http"),
		JWT:            jwtConfig,
		Health:         health,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// openStore picks the session store. Redis expires idle sessions itself;
// the in-memory store is swept once the manager exists.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, health map[string]server.HealthChecker) (session.Store, func(), error) {
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		health["redis"] = redisPinger{client: client}
		logger.Info("using redis session store", zap.Duration("ttl", cfg.SessionTTL()))
		return session.NewRedisStore(client, cfg.SessionTTL()), func() { _ = client.Close() }, nil
	}

	logger.Info("using in-memory session store",
		zap.Duration("idle_ttl", cfg.SessionTTL()),
		zap.Duration("sweep_interval", cfg.SweepInterval()),
	)
	return session.NewMemoryStore(), func() {}, nil
}
