package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// PlannerConfig tunes a Planner.
type PlannerConfig struct {
	MaxAttempts      int           // Tech stack pipeline attempts
	RetryDelay       time.Duration // Fixed pause between attempts
	PlaceholderTasks bool          // Fill uncovered categories with a placeholder task
}

// DefaultPlannerConfig returns sensible defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MaxAttempts:      DefaultCurationAttempts,
		RetryDelay:       DefaultRetryDelay,
		PlaceholderTasks: true,
	}
}

// Planner turns a project request into a tech stack and a task list.
// It holds no per-request state and is safe for concurrent use.
type Planner struct {
	llm      LLM
	config   PlannerConfig
	observer StageObserver
	logger   log.FieldLogger
}

// NewPlanner creates a planner. observer and logger may be nil.
func NewPlanner(llm LLM, config PlannerConfig, observer StageObserver, logger log.FieldLogger) *Planner {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Planner{llm: llm, config: config, observer: observer, logger: logger}
}

// Plan runs classification, tech stack curation, and task curation in order.
// Upstream failures degrade into warnings; only invalid input and context
// cancellation are returned as errors.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bg := req.Background
	priority := ParsePriority(req.Priority)
	projectType := ClassifyProjectType(req.Description, bg.KnownTech, bg.StarredTech)
	experience := ClassifyExperience(bg.KnownTech, bg.StarredTech)

	logger := p.logger.WithFields(log.Fields{
		"project_type": projectType,
		"priority":     priority,
		"experience":   experience,
	})
	logger.Debug("planning project")

	curator := &TechStackCurator{
		LLM:         p.llm,
		MaxAttempts: p.config.MaxAttempts,
		RetryDelay:  p.config.RetryDelay,
		Observer:    p.observer,
		Logger:      p.logger,
	}
	stackResult := curator.Curate(ctx, TechStackInput{
		ProjectType:     projectType,
		Priority:        priority,
		ExperienceLevel: experience,
		Description:     req.Description,
		KnownTech:       bg.KnownTech,
		DislikedTech:    bg.DislikedTech,
		StarredTech:     bg.StarredTech,
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planning cancelled: %w", err)
	}

	plan := &Plan{
		TechStack:       stackResult.Stack,
		ProjectType:     projectType,
		ExperienceLevel: experience,
		Priority:        req.Priority,
	}
	if stackResult.Failed() {
		plan.Warnings = append(plan.Warnings, stackResult.Err.Error())
	}

	tasker := &TaskCurator{LLM: p.llm, Observer: p.observer, Logger: p.logger}
	taskResult := tasker.Curate(ctx, TaskInput{
		Description: req.Description,
		Priority:    priority,
		TechStack:   stackResult.Stack,
		ProjectType: projectType,
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planning cancelled: %w", err)
	}
	for _, stage := range taskResult.FailedStages {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("task stage %s produced no tasks", stage))
	}

	plan.Tasks = taskResult.Tasks
	if p.config.PlaceholderTasks {
		plan.Tasks = EnsureCoverage(plan.Tasks, stackResult.Stack)
	}

	tasks, subtasks := plan.Stats()
	logger.WithFields(log.Fields{
		"tasks":    tasks,
		"subtasks": subtasks,
		"warnings": len(plan.Warnings),
	}).Info("plan generated")
	return plan, nil
}

// EnsureCoverage inserts a placeholder task for every work category that has
// none, at the position where that category's block would be, then renumbers.
func EnsureCoverage(tasks []Task, stack TechStack) []Task {
	covered := make(map[Category]bool)
	for _, t := range tasks {
		covered[t.Category] = true
	}

	out := append([]Task(nil), tasks...)
	for idx, c := range WorkCategories {
		if covered[c] {
			continue
		}
		// Right after the last task from an earlier work category.
		pos := 0
		for i, t := range out {
			if order, ok := categoryOrder(t.Category); ok && order < idx {
				pos = i + 1
			}
		}
		out = append(out[:pos], append([]Task{placeholderTask(c, stack)}, out[pos:]...)...)
	}
	return Renumber(out)
}

func categoryOrder(c Category) (int, bool) {
	for i, w := range WorkCategories {
		if w == c {
			return i, true
		}
	}
	return 0, false
}

func placeholderTask(c Category, stack TechStack) Task {
	texts := map[Category]string{
		CategorySetup:    "Set up the development environment",
		CategoryFrontend: "Build the main user interface screens",
		CategoryBackend:  "Build the core server-side logic",
		CategoryTesting:  "Write tests for the core features",
		CategoryDeploy:   "Deploy the application to production",
		CategoryMaintain: "Monitor and maintain the live application",
	}
	var names []string
	for _, item := range stack.Get(c) {
		if item != PlaceholderItem(c) {
			names = append(names, item.Name)
		}
	}
	sub := fmt.Sprintf("Review the documentation for the recommended %s tools", strings.ToLower(c.Label()))
	if len(names) > 0 {
		sub = fmt.Sprintf("Review the documentation for %s", strings.Join(names, ", "))
	}
	return Task{
		Text:     texts[c],
		Category: c,
		Subtasks: []Subtask{{Text: sub}},
	}
}

// IdeaEnhancement is a rough idea rewritten into a clearer concept.
type IdeaEnhancement struct {
	ProjectType ProjectType `json:"project_type"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
}

// EnhanceIdea asks the model to classify and expand a rough project idea.
func (p *Planner) EnhanceIdea(ctx context.Context, idea string) (*IdeaEnhancement, error) {
	if strings.TrimSpace(idea) == "" {
		return nil, &ValidationError{Field: "description", Message: "Project description is required"}
	}

	pipe := &Pipeline{
		Name:     "enhance",
		Observer: p.observer,
		Stages: []Stage{{
			Name:    "enhance",
			Persona: IdeaEnhancerPersona(),
			Prompt:  func([]StageResult) string { return BuildEnhanceIdeaPrompt(idea) },
		}},
	}
	results, err := pipe.Run(ctx, p.llm)
	if err != nil {
		return nil, err
	}
	return ParseIdeaEnhancement(LastOutput(results), idea), nil
}

// ParseIdeaEnhancement reads the "Project Type:/Description:/Features:" layout.
// An unknown project type falls back to the keyword classifier.
func ParseIdeaEnhancement(text, idea string) *IdeaEnhancement {
	out := &IdeaEnhancement{Features: []string{}}
	inFeatures := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*"))
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "project type:"):
			inFeatures = false
			value := strings.TrimSpace(trimmed[len("project type:"):])
			if pt, ok := LookupProjectType(strings.Trim(value, "* ")); ok {
				out.ProjectType = pt
			}
		case strings.HasPrefix(lower, "description:"):
			inFeatures = false
			out.Description = strings.TrimSpace(strings.TrimLeft(trimmed[len("description:"):], "* "))
		case strings.HasPrefix(lower, "features:"):
			inFeatures = true
		case inFeatures && (strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "•")):
			feature := strings.TrimSpace(strings.TrimLeft(trimmed, "-• "))
			if feature != "" {
				out.Features = append(out.Features, feature)
			}
		case out.Description != "" && !inFeatures:
			out.Description += " " + trimmed
		}
	}

	if out.ProjectType == "" {
		out.ProjectType = ClassifyProjectType(idea, nil, nil)
	}
	if out.Description == "" {
		out.Description = strings.TrimSpace(idea)
	}
	return out
}

// SubtaskPrompt is the implementation prompt for one subtask.
type SubtaskPrompt struct {
	SubtaskID string `json:"subtaskId"`
	Prompt    string `json:"prompt"`
}

// TaskPrompt is the implementation prompt for one task and its subtasks.
type TaskPrompt struct {
	TaskID         string          `json:"taskId"`
	Prompt         string          `json:"prompt"`
	SubtaskPrompts []SubtaskPrompt `json:"subtaskPrompts"`
}

// TaskPromptSet is the prompt engineer's output.
type TaskPromptSet struct {
	TaskPrompts []TaskPrompt `json:"taskPrompts"`
}

// TaskPrompts writes an implementation prompt for every task.
// Unknown task IDs in the model output are dropped.
func (p *Planner) TaskPrompts(ctx context.Context, tasks []Task, techStack []string) (*TaskPromptSet, error) {
	if len(tasks) == 0 {
		return nil, &ValidationError{Field: "tasks", Message: "at least one task required"}
	}

	pipe := &Pipeline{
		Name:     "prompts",
		Observer: p.observer,
		Stages: []Stage{{
			Name:    "prompts",
			Persona: PromptEngineerPersona(),
			Prompt:  func([]StageResult) string { return BuildTaskPromptsPrompt(tasks, techStack) },
		}},
	}
	results, err := pipe.Run(ctx, p.llm)
	if err != nil {
		return nil, err
	}

	var set TaskPromptSet
	if err := DecodeJSON(LastOutput(results), &set); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	kept := make([]TaskPrompt, 0, len(set.TaskPrompts))
	for _, tp := range set.TaskPrompts {
		if !known[tp.TaskID] || strings.TrimSpace(tp.Prompt) == "" {
			continue
		}
		if tp.SubtaskPrompts == nil {
			tp.SubtaskPrompts = []SubtaskPrompt{}
		}
		kept = append(kept, tp)
	}
	set.TaskPrompts = kept
	return &set, nil
}
