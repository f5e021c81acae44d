package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StageInfo holds information about one LLM stage of a generation run.
type StageInfo struct {
	Pipeline    string
	Name        string
	Model       string
	InputChars  int
	OutputChars int
	StartTime   time.Time
	EndTime     time.Time
	IsComplete  bool
	Err         error
}

// Reporter prints a line per stage as the planner runs. It implements core.StageObserver.
type Reporter struct {
	mu       sync.Mutex
	out      io.Writer
	modelFor func(stage string) string
	stages   []StageInfo
}

// NewReporter creates a reporter writing to out. modelFor resolves the model used
// for a stage and may be nil.
func NewReporter(out io.Writer, modelFor func(stage string) string) *Reporter {
	if modelFor == nil {
		modelFor = func(string) string { return "default" }
	}
	return &Reporter{out: out, modelFor: modelFor}
}

func (r *Reporter) StageStarted(pipeline, stage string, inputChars int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := StageInfo{
		Pipeline:   pipeline,
		Name:       stage,
		Model:      r.modelFor(stage),
		InputChars: inputChars,
		StartTime:  time.Now(),
	}
	r.stages = append(r.stages, info)
	fmt.Fprintln(r.out, RenderStageStart(info.Name, info.Model, inputChars))
}

func (r *Reporter) StageFinished(pipeline, stage string, outputChars int, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.find(pipeline, stage)
	if idx < 0 {
		r.stages = append(r.stages, StageInfo{Pipeline: pipeline, Name: stage, Model: r.modelFor(stage), StartTime: time.Now().Add(-elapsed)})
		idx = len(r.stages) - 1
	}
	s := &r.stages[idx]
	s.EndTime = s.StartTime.Add(elapsed)
	s.OutputChars = outputChars
	s.Err = err
	s.IsComplete = err == nil

	if err != nil {
		fmt.Fprintln(r.out, RenderStageFailed(s.Name, elapsed, err))
		return
	}
	fmt.Fprintln(r.out, RenderStageComplete(s.Name, elapsed, s.InputChars, outputChars, s.Model))
}

// find returns the most recent unfinished entry for a stage.
func (r *Reporter) find(pipeline, stage string) int {
	for i := len(r.stages) - 1; i >= 0; i-- {
		s := r.stages[i]
		if s.Pipeline == pipeline && s.Name == stage && s.EndTime.IsZero() {
			return i
		}
	}
	return -1
}

// Stages returns a copy of everything recorded so far.
func (r *Reporter) Stages() []StageInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StageInfo, len(r.stages))
	copy(out, r.stages)
	return out
}

// Summary renders totals for the run.
func (r *Reporter) Summary() string {
	return RenderSummary(r.Stages())
}

// RenderStageStart returns a string for stage start.
func RenderStageStart(name, model string, inputChars int) string {
	inputTokens := EstimateTokens(inputChars)
	return fmt.Sprintf("%s %s  %s  ~%s input tokens",
		PendingStyle.Render("→"),
		StageLabel(name),
		ModelStyle.Render(model),
		FormatTokens(inputTokens),
	)
}

// RenderStageComplete returns a string for stage completion.
func RenderStageComplete(name string, duration time.Duration, inputChars, outputChars int, model string) string {
	inputTokens := EstimateTokens(inputChars)
	outputTokens := EstimateTokens(outputChars)
	cost := EstimateCost(model, inputTokens, outputTokens)

	return fmt.Sprintf("%s %s  %s  ~%s tokens  %s",
		SuccessStyle.Render("✓"),
		StageLabel(name),
		HelpStyle.Render(duration.Truncate(time.Second).String()),
		FormatTokens(inputTokens+outputTokens),
		CostStyle.Render(FormatCost(cost)),
	)
}

// RenderStageFailed returns a string for a failed stage.
func RenderStageFailed(name string, duration time.Duration, err error) string {
	return fmt.Sprintf("%s %s  %s  %s",
		ErrorStyle.Render("✗"),
		StageLabel(name),
		HelpStyle.Render(duration.Truncate(time.Second).String()),
		ErrorStyle.Render(err.Error()),
	)
}

// RenderSummary returns a summary string.
func RenderSummary(stages []StageInfo) string {
	var totalInputTokens, totalOutputTokens, failed int
	var totalCost float64
	var totalDuration time.Duration

	for _, stage := range stages {
		inputTokens := EstimateTokens(stage.InputChars)
		outputTokens := EstimateTokens(stage.OutputChars)
		totalInputTokens += inputTokens
		totalOutputTokens += outputTokens
		totalCost += EstimateCost(stage.Model, inputTokens, outputTokens)
		if !stage.EndTime.IsZero() {
			totalDuration += stage.EndTime.Sub(stage.StartTime)
		}
		if stage.Err != nil {
			failed++
		}
	}

	failedNote := ""
	if failed > 0 {
		failedNote = "  " + WarningStyle.Render(fmt.Sprintf("Failed: %d", failed))
	}

	return fmt.Sprintf("\n%s\n  Stages: %d%s  Tokens: ~%s in / ~%s out  Est. cost: %s  Time: %s\n",
		TitleStyle.Render("Generation Complete"),
		len(stages),
		failedNote,
		FormatTokens(totalInputTokens),
		FormatTokens(totalOutputTokens),
		CostStyle.Render(FormatCost(totalCost)),
		totalDuration.Truncate(time.Second).String(),
	)
}
