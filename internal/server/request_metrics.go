package server

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dhabedank/learnstack/internal/core"
	"github.com/dhabedank/learnstack/internal/metrics"
)

const tracerName = "github.com/dhabedank/learnstack/internal/server"

type generateRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	requestID      string
	decodeDuration time.Duration
	cacheDuration  time.Duration
	planDuration   time.Duration
	encodeDuration time.Duration
	cacheUsed      bool
	cacheHit       bool
	cacheStored    bool
	tasksReturned  int
	warnings       int
	projectType    core.ProjectType
	errorStage     string
}

// newGenerateRequestMetrics starts the request span; stage spans nest under it.
func newGenerateRequestMetrics(ctx context.Context, logger *log.Logger, requestID string) (*generateRequestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "POST /api/generate-tasks",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	return &generateRequestMetrics{
		logger:    logger,
		span:      span,
		start:     time.Now(),
		requestID: requestID,
	}, ctx
}

func (m *generateRequestMetrics) ObserveDecode(d time.Duration) { m.decodeDuration = d }

func (m *generateRequestMetrics) ObservePlan(d time.Duration) { m.planDuration = d }

func (m *generateRequestMetrics) ObserveEncode(d time.Duration) { m.encodeDuration = d }

func (m *generateRequestMetrics) ObserveCache(d time.Duration, hit bool) {
	m.cacheUsed = true
	m.cacheDuration = d
	m.cacheHit = hit
}

func (m *generateRequestMetrics) SetCacheStored(stored bool) { m.cacheStored = stored }

func (m *generateRequestMetrics) SetPlan(plan *core.Plan) {
	if plan == nil {
		return
	}
	m.tasksReturned = len(plan.Tasks)
	m.warnings = len(plan.Warnings)
	m.projectType = plan.ProjectType
}

func (m *generateRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Outcome classifies the request for the generations counter.
func (m *generateRequestMetrics) Outcome() string {
	switch m.errorStage {
	case "":
		if m.warnings > 0 {
			return metrics.OutcomeDegraded
		}
		return metrics.OutcomeSuccess
	case "decode", "validate":
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func (m *generateRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	m.span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.Int("plan.tasks", m.tasksReturned),
		attribute.Bool("cache.hit", m.cacheHit),
	)
	if m.errorStage != "" {
		m.span.SetStatus(codes.Error, m.errorStage)
	}
	m.span.End()

	if m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":          "/api/generate-tasks",
		"status":         status,
		"total_ms":       durationToMillis(time.Since(m.start)),
		"tasks_returned": m.tasksReturned,
		"warnings":       m.warnings,
		"outcome":        m.Outcome(),
	}
	if m.requestID != "" {
		fields["request_id"] = m.requestID
	}
	if m.projectType != "" {
		fields["project_type"] = m.projectType
	}
	if m.decodeDuration > 0 {
		fields["decode_ms"] = durationToMillis(m.decodeDuration)
	}
	if m.cacheUsed {
		fields["cache_hit"] = m.cacheHit
		fields["cache_stored"] = m.cacheStored
		fields["cache_ms"] = durationToMillis(m.cacheDuration)
	}
	if m.planDuration > 0 {
		fields["plan_ms"] = durationToMillis(m.planDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("generate.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
