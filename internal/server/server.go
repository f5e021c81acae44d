// Package server exposes the planner over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/dhabedank/learnstack/internal/cache"
	"github.com/dhabedank/learnstack/internal/config"
	"github.com/dhabedank/learnstack/internal/core"
	"github.com/dhabedank/learnstack/internal/metrics"
)

// Planner is what the HTTP handlers need from core.
type Planner interface {
	Plan(ctx context.Context, req core.PlanRequest) (*core.Plan, error)
	EnhanceIdea(ctx context.Context, idea string) (*core.IdeaEnhancement, error)
	TaskPrompts(ctx context.Context, tasks []core.Task, techStack []string) (*core.TaskPromptSet, error)
}

// Deps are the optional collaborators of the HTTP layer.
type Deps struct {
	Cache    *cache.PlanCache    // nil disables caching
	Metrics  *metrics.Metrics    // nil disables Prometheus counters
	Gatherer prometheus.Gatherer // nil hides /metrics
	Logger   *log.Logger
}

// New builds an Echo instance with middleware and every route registered.
func New(planner Planner, cfg config.ServerConfig, deps Deps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.HTTPErrorHandler = errorHandler(e)

	Register(e, planner, cfg, deps)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, planner Planner, cfg config.ServerConfig, deps Deps) {
	h := &handlers{
		planner:      planner,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		maxBodyBytes: cfg.MaxBodyBytes,
		timeout:      cfg.RequestTimeout,
	}

	e.POST("/api/generate-tasks", h.generateTasks)
	e.POST("/api/enhance-idea", h.enhanceIdea)
	e.POST("/api/generate-prompts", h.generatePrompts)
	e.GET("/api/health", health)
	if deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.HandlerFor(deps.Gatherer)))
	}
}

// Run starts e on addr and shuts it down gracefully when ctx ends.
func Run(ctx context.Context, e *echo.Echo, addr string, logger log.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// errorHandler renders Echo's own errors (404, 405, panics) as {"detail": ...}.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		detail := "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				detail = msg
			} else {
				detail = http.StatusText(status)
			}
		}
		if status >= http.StatusInternalServerError {
			e.Logger.Error(err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Detail: detail})
	}
}
