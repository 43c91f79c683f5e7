package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/config"
	"quiz-duel-service/internal/infra/memory"
	"quiz-duel-service/internal/infra/postgres"
	infraredis "quiz-duel-service/internal/infra/redis"
	"quiz-duel-service/internal/infra/sqlite"
	"quiz-duel-service/internal/questions"
	"quiz-duel-service/internal/telemetry"
	transport "quiz-duel-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz duel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if *port != "" {
				cfg.Server.Port = *port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, newLogger(os.Stdout, cfg.Log))
		},
	}
}

// components are the adapters chosen from configuration, plus whatever must be closed on exit.
type components struct {
	quizzes  questions.QuizSource
	stats    app.StatsRecorder
	sessions app.SessionRepository
	live     transport.LiveCounter
	closers  []io.Closer
}

func (c *components) close(logger *slog.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			logger.Warn("close failed", "err", err)
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func buildComponents(ctx context.Context, cfg config.Config, logger *slog.Logger) (*components, error) {
	c := &components{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, redisClient)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing with best-effort caching", "addr", cfg.Redis.Addr, "err", err)
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(questions.SampleBank())
	if cfg.Postgres.URL != "" {
		db := postgres.OpenBun(cfg.Postgres.URL)
		c.closers = append(c.closers, db)
		if _, err := postgres.Migrate(ctx, db); err != nil {
			c.close(logger)
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			c.close(logger)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, closerFunc(func() error { pool.Close(); return nil }))
		loader = postgres.NewQuizLoader(pool)
		c.stats = postgres.NewStatsStore(db)
		logger.Info("using postgres quiz bank and statistics")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		c.quizzes = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		c.quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	if c.stats == nil && cfg.SQLite.Path != "" {
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			c.close(logger)
			return nil, err
		}
		c.closers = append(c.closers, store)
		c.stats = store
		logger.Info("using sqlite statistics", "path", cfg.SQLite.Path)
	}
	if c.stats == nil {
		c.stats = memory.NewStatsRecorder(logger)
	}

	sessionTTL := config.TTLDuration(cfg.Game.SessionTTL, 30*time.Minute)
	if redisClient != nil {
		store := infraredis.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, sessionTTL), logger)
		c.sessions = store
		c.live = store
	} else {
		c.sessions = memory.NewSessionStore()
	}
	return c, nil
}

func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, "quiz-duel-service", cfg.Otel.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "err", err)
		}
	}()

	defaults, err := cfg.Game.Defaults()
	if err != nil {
		return fmt.Errorf("game defaults: %w", err)
	}

	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.close(logger)

	registry := app.NewRegistry(c.sessions, app.RegistryConfig{
		TTL:           config.TTLDuration(cfg.Game.SessionTTL, 30*time.Minute),
		SweepInterval: config.TTLDuration(cfg.Game.SweepInterval, 5*time.Minute),
		Defaults:      defaults,
		Logger:        logger,
	})
	hub := transport.NewHub(logger)
	game := app.NewGameService(registry, questions.NewPicker(c.quizzes, nil), c.stats, hub, app.GameConfig{
		Limits:       cfg.Game.Limits(),
		StatsTimeout: config.TTLDuration(cfg.Game.StatsTimeout, 5*time.Second),
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           transport.NewRouter(transport.NewWSHandler(game, hub, logger), c.live),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz duel service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
