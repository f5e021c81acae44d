package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func threeStagePipeline(seen *[]int) *Pipeline {
	stage := func(name string) Stage {
		return Stage{
			Name:    name,
			Persona: Persona{Role: name + " expert"},
			Prompt: func(prior []StageResult) string {
				*seen = append(*seen, len(prior))
				var sb strings.Builder
				sb.WriteString("stage " + name)
				for _, r := range prior {
					sb.WriteString("\nprior " + r.Stage + ": " + r.Output)
				}
				return sb.String()
			},
		}
	}
	return &Pipeline{Name: "test", Stages: []Stage{stage("a"), stage("b"), stage("c")}}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	llm := newScriptedLLM().on("a", "alpha").on("b", "beta").on("c", "gamma")
	var seen []int
	p := threeStagePipeline(&seen)

	results, err := p.Run(context.Background(), llm)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Join(llm.stages(), ","); got != "a,b,c" {
		t.Errorf("stage order = %s, want a,b,c", got)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, n := range seen {
		if n != i {
			t.Errorf("stage %d saw %d prior results, want %d", i, n, i)
		}
	}

	// Later stages receive earlier output verbatim in their prompt.
	cCall := llm.callsFor("c")[0]
	for _, want := range []string{"prior a: alpha", "prior b: beta"} {
		if !strings.Contains(cCall.UserPrompt, want) {
			t.Errorf("stage c prompt missing %q:\n%s", want, cCall.UserPrompt)
		}
	}
	if !strings.Contains(cCall.SystemPrompt, "c expert") {
		t.Errorf("stage c system prompt = %q, want persona role", cCall.SystemPrompt)
	}
	if got := LastOutput(results); got != "gamma" {
		t.Errorf("LastOutput() = %q, want gamma", got)
	}
	if got, ok := OutputOf(results, "b"); !ok || got != "beta" {
		t.Errorf("OutputOf(b) = %q, %v", got, ok)
	}
}

func TestPipelineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	llm := newScriptedLLM().on("a", "alpha").fail("b", boom).on("c", "gamma")
	var seen []int
	p := threeStagePipeline(&seen)

	results, err := p.Run(context.Background(), llm)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "b" || stageErr.Pipeline != "test" {
		t.Errorf("error = %#v, want StageError for test/b", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
	if len(llm.callsFor("c")) != 0 {
		t.Error("stage c ran after b failed")
	}
}

func TestPipelineContinueOnError(t *testing.T) {
	llm := newScriptedLLM().on("a", "alpha").fail("b", errors.New("boom")).on("c", "gamma")
	var seen []int
	p := threeStagePipeline(&seen)
	p.ContinueOnError = true
	obs := &recordingObserver{}
	p.Observer = obs

	results, err := p.Run(context.Background(), llm)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 3 || results[1].Err == nil {
		t.Fatalf("results = %+v, want stage b failed", results)
	}
	if _, ok := OutputOf(results, "b"); ok {
		t.Error("OutputOf(b) reported success for a failed stage")
	}
	if len(obs.started) != 3 || len(obs.finished) != 3 {
		t.Errorf("observer saw %d starts, %d finishes, want 3 each", len(obs.started), len(obs.finished))
	}
	if len(obs.failed) != 1 || obs.failed[0] != "test/b" {
		t.Errorf("observer failures = %v, want [test/b]", obs.failed)
	}
}

func TestPipelineEmptyOutputIsError(t *testing.T) {
	llm := newScriptedLLM().on("a", "  \n ")
	p := &Pipeline{Name: "test", Stages: []Stage{{
		Name:   "a",
		Prompt: func([]StageResult) string { return "go" },
	}}}

	if _, err := p.Run(context.Background(), llm); err == nil {
		t.Error("Run() error = nil, want error for blank output")
	}
}

func TestPipelineHonoursCancelledContext(t *testing.T) {
	llm := newScriptedLLM().on("a", "alpha")
	var seen []int
	p := threeStagePipeline(&seen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := p.Run(ctx, llm)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if len(results) != 0 || len(llm.stages()) != 0 {
		t.Errorf("ran %d stages on a cancelled context", len(llm.stages()))
	}
}

func TestPipelineSpans(t *testing.T) {
	exporter := setupTestTracer(t)
	llm := newScriptedLLM().on("a", "alpha").fail("b", errors.New("boom"))
	var seen []int
	p := threeStagePipeline(&seen)
	p.Stages = p.Stages[:2]
	p.ContinueOnError = true

	if _, err := p.Run(context.Background(), llm); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name != "pipeline.test/a" || spans[1].Name != "pipeline.test/b" {
		t.Errorf("span names = %q, %q", spans[0].Name, spans[1].Name)
	}
	if spans[0].Status.Code == codes.Error {
		t.Error("successful stage span has error status")
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("failed stage span status = %v, want Error", spans[1].Status.Code)
	}

	attrs := make(map[string]string)
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["llm.provider"] != "scripted" || attrs["pipeline.stage"] != "a" {
		t.Errorf("span attributes = %v", attrs)
	}
	if attrs["llm.output_chars"] != "5" {
		t.Errorf("llm.output_chars = %s, want 5", attrs["llm.output_chars"])
	}
}

func TestObservers(t *testing.T) {
	if Observers(nil, nil) != nil {
		t.Error("Observers(nil, nil) != nil")
	}
	single := &recordingObserver{}
	if Observers(nil, single) != StageObserver(single) {
		t.Error("Observers with one observer should return it unchanged")
	}

	a, b := &recordingObserver{}, &recordingObserver{}
	fan := Observers(a, nil, b)
	fan.StageStarted("p", "s", 1)
	fan.StageFinished("p", "s", 1, 0, errors.New("x"))
	for i, o := range []*recordingObserver{a, b} {
		if len(o.started) != 1 || len(o.failed) != 1 {
			t.Errorf("observer %d saw %v / %v", i, o.started, o.failed)
		}
	}
}
