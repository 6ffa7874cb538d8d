// Package cli wires configuration, storage and the HTTP API into the brasa
// command line.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brasa/backend/internal/cache"
	"brasa/backend/internal/config"
	"brasa/backend/internal/logger"
	"brasa/backend/internal/service"
	"brasa/backend/internal/store"
	"brasa/backend/internal/store/memory"
	pgstore "brasa/backend/internal/store/postgres"
	sqlitestore "brasa/backend/internal/store/sqlite"
)

// app is shared by every subcommand once the root pre-run has loaded it.
type app struct {
	cfg config.Config
	log *zap.Logger
}

// NewRootCommand builds the command tree. Each call returns a fresh tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "brasa",
		Short:         "Single-till grill stand register",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newResetCommand(a))
	root.AddCommand(newCatalogCommand(a))
	root.AddCommand(newSummariesCommand(a))
	return root
}

// Execute runs the command line with ctx as the root context.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type runtime struct {
	service *service.Service
	closers []func() error
	log     *zap.Logger
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("close failed", zap.Error(err))
		}
	}
}

// openRuntime connects the configured repository and summary cache. Redis is
// optional: when it cannot be reached the service runs without a cache.
func (a *app) openRuntime(ctx context.Context) (*runtime, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rt := &runtime{log: a.log}
	var repo store.Repository

	switch a.cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err := pgstore.New(connectCtx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable and STORE_DRIVER=postgres; refusing to start: %w", err)
		}
		repo = pg
		rt.closers = append(rt.closers, pg.Close)
	case config.DriverSQLite:
		db, err := sqlitestore.Open(connectCtx, a.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", a.cfg.SQLitePath, err)
		}
		repo = db
		rt.closers = append(rt.closers, db.Close)
	default:
		repo = memory.NewSeeded()
	}
	a.log.Info("repository ready", zap.String("driver", a.cfg.StoreDriver))

	summaries := cache.SummaryCache(cache.NoopSummaryCache{})
	if a.cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSummaryCache(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err := redisCache.Ping(connectCtx); err != nil {
			a.log.Warn("redis unavailable, using noop cache", zap.Error(err))
			_ = redisCache.Close()
		} else {
			summaries = redisCache
			rt.closers = append(rt.closers, redisCache.Close)
			a.log.Info("summary cache ready", zap.String("backend", "redis"))
		}
	}

	rt.service = service.New(repo, summaries, a.log,
		service.WithSummaryCacheTTL(a.cfg.SummaryCacheTTL()),
		service.WithLowStockThreshold(a.cfg.LowStockThreshold),
	)
	return rt, nil
}
