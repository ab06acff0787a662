package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/radialtree/pkg/buildinfo"
	"github.com/matzehuels/radialtree/pkg/cache"
	"github.com/matzehuels/radialtree/pkg/config"
	"github.com/matzehuels/radialtree/pkg/observability"
	"github.com/matzehuels/radialtree/pkg/pipeline"
	"github.com/matzehuels/radialtree/pkg/server"
	"github.com/matzehuels/radialtree/pkg/session"
)

// sessionCleanupInterval is how often expired sessions are swept.
const sessionCleanupInterval = 10 * time.Minute

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Configuration comes from --config and RADIALTREE_* environment variables
(PORT, API_KEY and GLOBAL_PREFIX are also read without the prefix). Requests
to /api need the X-API-Key header; without a configured key all of them are
rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	logger := newServiceLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if c.Logger.GetLevel() == log.DebugLevel {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.Server.APIKey == "" {
		logger.Warn("no API key configured, all API requests will be rejected")
	}

	reg := prometheus.NewRegistry()
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	layoutCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	// Layouts from another engine version must not be served from a shared cache.
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	runner := pipeline.NewRunner(layoutCache, keyer, logger)
	runner.LayoutTTL = cfg.Cache.TTL
	defer runner.Close()

	store, err := openSessionStore(ctx, cfg.Sessions)
	if err != nil {
		return err
	}
	defer store.Close()
	go cleanupSessions(ctx, store, logger)

	logger.Info("starting server",
		"port", cfg.Server.Port,
		"datasets", len(cfg.Datasets),
		"cache", cfg.Cache.Backend,
		"sessions", cfg.Sessions.Backend)

	srv := server.New(cfg, runner, store, logger, server.WithGatherer(reg))
	return srv.ListenAndServe(ctx)
}

// openCache builds the layout cache selected by cfg.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   appName + ":",
		})
	case config.CacheFile:
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cache.DefaultDir(); err != nil {
				return nil, err
			}
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}

// openSessionStore builds the session store selected by cfg.
func openSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case config.SessionFile:
		return session.NewFileStore(cfg.Dir)
	case config.SessionRedis:
		return session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	case config.SessionMongo:
		return session.NewMongoStore(ctx, session.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
	case config.SessionMemory:
		return session.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

// cleanupSessions sweeps expired sessions until ctx ends.
func cleanupSessions(ctx context.Context, store session.Store, logger *log.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}
