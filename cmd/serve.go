package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dhabedank/learnstack/internal/cache"
	"github.com/dhabedank/learnstack/internal/core"
	"github.com/dhabedank/learnstack/internal/llm"
	"github.com/dhabedank/learnstack/internal/metrics"
	"github.com/dhabedank/learnstack/internal/server"
)

var (
	serveAddr     string
	serveRedisURL string
	serveLLM      llmFlags
)

// ServeCmd runs the HTTP API.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the planner over HTTP.

Endpoints:
- POST /api/generate-tasks   tech stack and task plan for a project idea
- POST /api/enhance-idea     expand a rough idea into a project brief
- POST /api/generate-prompts coding-assistant prompts for a task list
- GET  /api/health           liveness probe
- GET  /metrics              Prometheus metrics

Plans are cached in Redis when cache.redis_url or REDIS_URL is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8000, or :$PORT)")
	ServeCmd.Flags().StringVar(&serveRedisURL, "redis-url", "", "Redis URL for the plan cache")
	serveLLM.register(ServeCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("redis-url") {
		cfg.Cache.RedisURL = serveRedisURL
	}
	serveLLM.apply(cmd, &cfg.LLM)

	adapter, err := llm.DetectBestAdapter(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create LLM adapter: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, m := metrics.NewRegistry()
	planner := core.NewPlanner(adapter, cfg.PlannerConfig(), m, logger)

	var planCache *cache.PlanCache
	if cfg.Cache.RedisURL != "" {
		planCache, err = cache.Connect(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			logger.WithError(err).Warn("plan cache disabled")
			planCache = nil
		} else {
			logger.WithField("ttl", cfg.Cache.TTL).Info("plan cache enabled")
		}
	}
	defer planCache.Close()

	e := server.New(planner, cfg.Server, server.Deps{
		Cache:    planCache,
		Metrics:  m,
		Gatherer: registry,
		Logger:   logger,
	})

	return server.Run(ctx, e, cfg.Server.Addr, logger.WithFields(log.Fields{
		"provider": adapter.Name(),
		"timeout":  cfg.Server.RequestTimeout,
	}))
}
