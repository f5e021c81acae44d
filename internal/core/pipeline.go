package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dhabedank/learnstack/internal/core"

// Call is a single prompt sent to an LLM.
type Call struct {
	Stage        string // Stage name, used for per-stage model selection
	SystemPrompt string
	UserPrompt   string
}

// LLM is the interface core needs from a language model provider.
// Implementations return raw text; parsing happens here.
type LLM interface {
	Name() string
	Generate(ctx context.Context, call Call) (string, error)
}

// StageObserver is notified as pipeline stages run.
// Implementations must be safe for concurrent use when shared between requests.
type StageObserver interface {
	StageStarted(pipeline, stage string, inputChars int)
	StageFinished(pipeline, stage string, outputChars int, elapsed time.Duration, err error)
}

// Stage is one persona-driven LLM call in a pipeline.
type Stage struct {
	Name    string
	Persona Persona
	// Prompt builds the user prompt from the results of every earlier stage.
	Prompt func(prior []StageResult) string
}

// StageResult is the outcome of a single stage.
type StageResult struct {
	Stage  string
	Output string
	Err    error
}

// Pipeline runs stages strictly in order; later stages see earlier output.
type Pipeline struct {
	Name   string
	Stages []Stage
	// ContinueOnError records a failed stage and moves on instead of aborting.
	ContinueOnError bool
	Observer        StageObserver
}

// StageError reports which stage of which pipeline failed.
type StageError struct {
	Pipeline string
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s: stage %s failed: %v", e.Pipeline, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Run executes every stage in sequence. It returns all results produced so
// far; the error is non-nil when a stage failed and ContinueOnError is off,
// or when the context ended.
func (p *Pipeline) Run(ctx context.Context, llm LLM) ([]StageResult, error) {
	tracer := otel.Tracer(tracerName)
	results := make([]StageResult, 0, len(p.Stages))

	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		call := Call{
			Stage:        stage.Name,
			SystemPrompt: stage.Persona.SystemPrompt(),
			UserPrompt:   stage.Prompt(results),
		}
		output, err := p.runStage(ctx, tracer, llm, call)

		result := StageResult{Stage: stage.Name, Output: output, Err: err}
		results = append(results, result)

		if err != nil && !p.ContinueOnError {
			return results, &StageError{Pipeline: p.Name, Stage: stage.Name, Err: err}
		}
	}
	return results, nil
}

func (p *Pipeline) runStage(ctx context.Context, tracer trace.Tracer, llm LLM, call Call) (string, error) {
	ctx, span := tracer.Start(ctx, "pipeline."+p.Name+"/"+call.Stage, trace.WithAttributes(
		attribute.String("pipeline.name", p.Name),
		attribute.String("pipeline.stage", call.Stage),
		attribute.String("llm.provider", llm.Name()),
	))
	defer span.End()

	inputChars := len(call.SystemPrompt) + len(call.UserPrompt)
	if p.Observer != nil {
		p.Observer.StageStarted(p.Name, call.Stage, inputChars)
	}

	start := time.Now()
	output, err := llm.Generate(ctx, call)
	if err == nil && strings.TrimSpace(output) == "" {
		err = fmt.Errorf("empty response from %s", llm.Name())
	}

	if p.Observer != nil {
		p.Observer.StageFinished(p.Name, call.Stage, len(output), time.Since(start), err)
	}

	span.SetAttributes(
		attribute.Int("llm.input_chars", inputChars),
		attribute.Int("llm.output_chars", len(output)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return output, err
}

// LastOutput returns the output of the final successful stage.
func LastOutput(results []StageResult) string {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Err == nil {
			return results[i].Output
		}
	}
	return ""
}

// OutputOf returns the output of the named stage, if it succeeded.
func OutputOf(results []StageResult, stage string) (string, bool) {
	for _, r := range results {
		if r.Stage == stage && r.Err == nil {
			return r.Output, true
		}
	}
	return "", false
}

// Observers fans stage events out to several observers. Nil entries are skipped.
func Observers(observers ...StageObserver) StageObserver {
	var kept multiObserver
	for _, o := range observers {
		if o != nil {
			kept = append(kept, o)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return kept
}

type multiObserver []StageObserver

func (m multiObserver) StageStarted(pipeline, stage string, inputChars int) {
	for _, o := range m {
		o.StageStarted(pipeline, stage, inputChars)
	}
}

func (m multiObserver) StageFinished(pipeline, stage string, outputChars int, elapsed time.Duration, err error) {
	for _, o := range m {
		o.StageFinished(pipeline, stage, outputChars, elapsed, err)
	}
}
