package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/dhabedank/learnstack/internal/cache"
	"github.com/dhabedank/learnstack/internal/core"
	"github.com/dhabedank/learnstack/internal/metrics"
)

const serviceName = "learnstack"

type handlers struct {
	planner      Planner
	cache        *cache.PlanCache
	metrics      *metrics.Metrics
	logger       *log.Logger
	maxBodyBytes int64
	timeout      time.Duration
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type generateResponse struct {
	Success         bool                 `json:"success"`
	Data            []core.Task          `json:"data"`
	TechStack       core.TechStack       `json:"tech_stack"`
	ProjectType     core.ProjectType     `json:"project_type"`
	Priority        string               `json:"priority"`
	ExperienceLevel core.ExperienceLevel `json:"experience_level"`
	Warnings        []string             `json:"warnings,omitempty"`
}

type enhanceRequest struct {
	Description string `json:"description"`
}

type enhanceResponse struct {
	Success      bool             `json:"success"`
	ProjectType  core.ProjectType `json:"project_type"`
	Description  string           `json:"description"`
	Features     []string         `json:"features"`
	ProcessingMs float64          `json:"processing_ms"`
}

type promptsRequest struct {
	Tasks     []core.Task `json:"tasks"`
	TechStack []string    `json:"tech_stack"`
}

type promptsResponse struct {
	Success     bool              `json:"success"`
	TaskPrompts []core.TaskPrompt `json:"taskPrompts"`
	Error       string            `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) generateTasks(c echo.Context) (err error) {
	m, ctx := newGenerateRequestMetrics(c.Request().Context(), h.logger, c.Response().Header().Get(echo.HeaderXRequestID))
	defer func() {
		m.Log(c.Response().Status, err)
		if h.metrics != nil {
			h.metrics.ObserveGeneration(m.Outcome(), time.Since(m.start))
		}
	}()

	var req core.PlanRequest
	decodeStart := time.Now()
	if derr := h.decode(c, &req); derr != nil {
		m.ObserveDecode(time.Since(decodeStart))
		m.SetErrorStage("decode")
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
	}
	m.ObserveDecode(time.Since(decodeStart))

	if verr := req.Validate(); verr != nil {
		m.SetErrorStage("validate")
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: verr.Error()})
	}

	ctx, cancel := h.withDeadline(ctx)
	defer cancel()

	cacheStart := time.Now()
	plan, hit := h.cache.Get(ctx, req)
	if h.cache != nil {
		m.ObserveCache(time.Since(cacheStart), hit)
		if h.metrics != nil {
			h.metrics.ObserveCacheLookup(hit)
		}
	}

	if hit {
		// Requests sharing a key may spell the priority differently.
		cached := *plan
		cached.Priority = req.Priority
		plan = &cached
	} else {
		planStart := time.Now()
		var perr error
		plan, perr = h.planner.Plan(ctx, req)
		m.ObservePlan(time.Since(planStart))
		if perr != nil {
			return h.planError(c, m, perr)
		}
		if h.cache.Put(ctx, req, plan) {
			m.SetCacheStored(true)
		}
	}

	m.SetPlan(plan)
	encodeStart := time.Now()
	err = c.JSON(http.StatusOK, generateResponse{
		Success:         true,
		Data:            plan.Tasks,
		TechStack:       plan.TechStack,
		ProjectType:     plan.ProjectType,
		Priority:        plan.Priority,
		ExperienceLevel: plan.ExperienceLevel,
		Warnings:        plan.Warnings,
	})
	m.ObserveEncode(time.Since(encodeStart))
	if err != nil {
		m.SetErrorStage("encode_response")
	}
	return err
}

func (h *handlers) planError(c echo.Context, m *generateRequestMetrics, err error) error {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		m.SetErrorStage("validate")
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: verr.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		m.SetErrorStage("timeout")
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Detail: "generation timed out"})
	default:
		m.SetErrorStage("plan")
		return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}
}

func (h *handlers) enhanceIdea(c echo.Context) error {
	start := time.Now()
	logger := h.logger.WithField("route", "/api/enhance-idea")

	var req enhanceRequest
	if err := h.decode(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "Project description is required"})
	}

	ctx, cancel := h.withDeadline(c.Request().Context())
	defer cancel()

	idea, err := h.planner.EnhanceIdea(ctx, req.Description)
	if err != nil {
		logger.WithError(err).Warn("enhance idea failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}

	elapsed := durationToMillis(time.Since(start))
	logger.WithFields(log.Fields{
		"project_type": idea.ProjectType,
		"features":     len(idea.Features),
		"total_ms":     elapsed,
	}).Info("enhance.request.metrics")

	return c.JSON(http.StatusOK, enhanceResponse{
		Success:      true,
		ProjectType:  idea.ProjectType,
		Description:  idea.Description,
		Features:     idea.Features,
		ProcessingMs: elapsed,
	})
}

func (h *handlers) generatePrompts(c echo.Context) error {
	logger := h.logger.WithField("route", "/api/generate-prompts")

	var req promptsRequest
	if err := h.decode(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
	}
	if len(req.Tasks) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "at least one task required"})
	}

	ctx, cancel := h.withDeadline(c.Request().Context())
	defer cancel()

	set, err := h.planner.TaskPrompts(ctx, req.Tasks, req.TechStack)
	if err != nil {
		logger.WithError(err).Warn("prompt generation failed")
		return c.JSON(http.StatusInternalServerError, promptsResponse{
			Success:     false,
			TaskPrompts: []core.TaskPrompt{},
			Error:       err.Error(),
		})
	}

	logger.WithField("prompts", len(set.TaskPrompts)).Info("prompts.request.metrics")
	return c.JSON(http.StatusOK, promptsResponse{Success: true, TaskPrompts: set.TaskPrompts})
}

func (h *handlers) decode(c echo.Context, v any) error {
	limit := h.maxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	lr := io.LimitReader(c.Request().Body, limit)
	dec := sonic.ConfigStd.NewDecoder(lr)
	return dec.Decode(v)
}

func (h *handlers) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}
