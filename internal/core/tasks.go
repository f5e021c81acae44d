package core

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// TaskStagePrefix namespaces the per-category task stages ("tasks/setup", ...).
const TaskStagePrefix = "tasks/"

// TaskResult is the outcome of task curation.
type TaskResult struct {
	Tasks []Task
	// FailedStages lists category stages that errored or returned no usable JSON.
	FailedStages []string
}

// TaskCurator runs one persona per work category, in order, and merges the results.
type TaskCurator struct {
	LLM      LLM
	Observer StageObserver
	Logger   log.FieldLogger
}

// NewTaskCurator creates a task curator.
func NewTaskCurator(llm LLM) *TaskCurator {
	return &TaskCurator{LLM: llm, Logger: log.StandardLogger()}
}

// Curate generates tasks for every work category. A failed category is
// skipped; if every category fails the result is an empty list.
func (c *TaskCurator) Curate(ctx context.Context, in TaskInput) TaskResult {
	logger := c.logger().WithField("pipeline", "tasks")
	coordinator := CoordinatorPersona(in.Priority)

	stages := make([]Stage, 0, len(WorkCategories))
	for _, cat := range WorkCategories {
		stages = append(stages, Stage{
			Name:    TaskStagePrefix + string(cat),
			Persona: CategoryPersona(cat).WithDirection(coordinator),
			Prompt: func(prior []StageResult) string {
				return BuildCategoryTaskPrompt(in, cat, tasksFromResults(prior))
			},
		})
	}

	p := &Pipeline{Name: "tasks", Stages: stages, ContinueOnError: true, Observer: c.Observer}
	results, err := p.Run(ctx, c.LLM)
	if err != nil {
		logger.WithError(err).Warn("task pipeline stopped early")
	}

	var out TaskResult
	for _, r := range results {
		if r.Err != nil {
			logger.WithField("stage", r.Stage).WithError(r.Err).Warn("task stage failed")
			out.FailedStages = append(out.FailedStages, r.Stage)
			continue
		}
		tasks, perr := ParseTasks(r.Output, stageCategory(r.Stage))
		if perr != nil {
			logger.WithField("stage", r.Stage).WithError(perr).Warn("task stage returned unusable output")
			out.FailedStages = append(out.FailedStages, r.Stage)
			continue
		}
		out.Tasks = append(out.Tasks, tasks...)
	}
	// Stages that never ran because the context ended count as failed too.
	for _, s := range stages[len(results):] {
		out.FailedStages = append(out.FailedStages, s.Name)
	}

	out.Tasks = Renumber(out.Tasks)
	if out.Tasks == nil {
		out.Tasks = []Task{}
	}
	return out
}

func (c *TaskCurator) logger() log.FieldLogger {
	if c.Logger == nil {
		return log.StandardLogger()
	}
	return c.Logger
}

func stageCategory(stage string) Category {
	return Category(strings.TrimPrefix(stage, TaskStagePrefix))
}

// tasksFromResults parses the tasks produced by earlier stages, for prompt context.
func tasksFromResults(results []StageResult) []Task {
	var tasks []Task
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		parsed, err := ParseTasks(r.Output, stageCategory(r.Stage))
		if err != nil {
			continue
		}
		tasks = append(tasks, parsed...)
	}
	return tasks
}

// ParseTasks extracts the "tasks" array from model output. stageCat is the
// category the producing stage was asked for; it replaces invented categories.
func ParseTasks(output string, stageCat Category) ([]Task, error) {
	obj, err := ExtractObject(output)
	if err != nil {
		return nil, err
	}
	rawTasks, ok := obj["tasks"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing tasks array", ErrNoJSON)
	}

	tasks := make([]Task, 0, len(rawTasks))
	for _, raw := range rawTasks {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		text := firstString(m, "text", "title")
		if text == "" {
			continue
		}
		task := Task{
			Text:     text,
			Category: NormalizeCategory(m["category"], stageCat),
			Subtasks: []Subtask{},
		}
		if subs, ok := m["subtasks"].([]any); ok {
			for _, rs := range subs {
				var stText string
				switch v := rs.(type) {
				case map[string]any:
					stText = firstString(v, "text", "title")
				case string:
					stText = strings.TrimSpace(v)
				}
				if stText != "" {
					task.Subtasks = append(task.Subtasks, Subtask{Text: stText})
				}
			}
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

var categoryAliases = map[string]Category{
	"plan":            CategoryPlan,
	"planning":        CategoryPlan,
	"plan & design":   CategoryPlan,
	"plan and design": CategoryPlan,
	"design":          CategoryPlan,
	"setup":           CategorySetup,
	"set up":          CategorySetup,
	"set-up":          CategorySetup,
	"configuration":   CategorySetup,
	"frontend":        CategoryFrontend,
	"front-end":       CategoryFrontend,
	"front end":       CategoryFrontend,
	"ui":              CategoryFrontend,
	"client":          CategoryFrontend,
	"backend":         CategoryBackend,
	"back-end":        CategoryBackend,
	"back end":        CategoryBackend,
	"server":          CategoryBackend,
	"api":             CategoryBackend,
	"database":        CategoryBackend,
	"testing":         CategoryTesting,
	"test":            CategoryTesting,
	"tests":           CategoryTesting,
	"qa":              CategoryTesting,
	"deploy":          CategoryDeploy,
	"deployment":      CategoryDeploy,
	"release":         CategoryDeploy,
	"infrastructure":  CategoryDeploy,
	"maintain":        CategoryMaintain,
	"maintenance":     CategoryMaintain,
	"monitoring":      CategoryMaintain,
}

// NormalizeCategory maps a model-supplied category onto a known one.
// A missing category becomes "unknown"; an unrecognised one falls back to
// fallback (the category the producing stage was asked for).
func NormalizeCategory(raw any, fallback Category) Category {
	s, ok := raw.(string)
	if !ok {
		return CategoryUnknown
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryUnknown
	}
	if c, ok := categoryAliases[s]; ok {
		return c
	}
	if fallback == "" {
		return CategoryUnknown
	}
	return fallback
}

// Renumber assigns task-{i} and subtask-{i}-{j} identifiers (1-based) in list
// order, overwriting whatever IDs were there. Completion flags are reset.
func Renumber(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		t.ID = fmt.Sprintf("task-%d", i+1)
		t.Completed = false
		subs := make([]Subtask, len(t.Subtasks))
		for j, st := range t.Subtasks {
			st.ID = fmt.Sprintf("subtask-%d-%d", i+1, j+1)
			st.Completed = false
			subs[j] = st
		}
		t.Subtasks = subs
		out[i] = t
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
