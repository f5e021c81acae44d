package output

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/dhabedank/learnstack/internal/core"
)

// JSONAdapter outputs the plan as JSON.
type JSONAdapter struct {
	outputPath string
	dryRun     bool
}

// NewJSONAdapter creates a JSON adapter.
func NewJSONAdapter(config Config, outputPath string) *JSONAdapter {
	return &JSONAdapter{
		outputPath: outputPath,
		dryRun:     config.DryRun,
	}
}

func (a *JSONAdapter) Name() string {
	return "json"
}

func (a *JSONAdapter) IsAvailable() (bool, error) {
	return true, nil // Always available
}

func (a *JSONAdapter) CreateItems(plan *core.Plan, config Config) (*CreateResult, error) {
	output, err := MarshalPlan(plan)
	if err != nil {
		return nil, err
	}

	w := config.out()
	if a.dryRun {
		fmt.Fprintln(w, "[dry-run] Would write:")
		fmt.Fprintln(w, string(output))
	} else if a.outputPath != "" {
		if err := os.WriteFile(a.outputPath, output, 0644); err != nil {
			return nil, fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Fprintf(w, "Plan written to %s\n", a.outputPath)
	} else {
		fmt.Fprintln(w, string(output))
	}

	result := &CreateResult{
		Created:      []CreatedItem{},
		Failed:       []FailedItem{},
		Dependencies: []Dependency{},
	}

	// Every item counts as created; IDs are the plan's own.
	for _, ph := range phases(plan) {
		epicID := ph.localID()
		result.Created = append(result.Created, CreatedItem{
			ExternalID: epicID,
			LocalID:    epicID,
			Type:       "epic",
			Title:      ph.title(),
		})
		result.Stats.Epics++

		for _, task := range ph.Tasks {
			result.Created = append(result.Created, CreatedItem{
				ExternalID:       task.ID,
				LocalID:          task.ID,
				Type:             "task",
				Title:            task.Text,
				ParentExternalID: epicID,
			})
			result.Dependencies = append(result.Dependencies, Dependency{From: epicID, To: task.ID, Type: "parent-child"})
			result.Stats.Tasks++
			result.Stats.Dependencies++

			for _, sub := range task.Subtasks {
				result.Created = append(result.Created, CreatedItem{
					ExternalID:       sub.ID,
					LocalID:          sub.ID,
					Type:             "subtask",
					Title:            sub.Text,
					ParentExternalID: task.ID,
				})
				result.Dependencies = append(result.Dependencies, Dependency{From: task.ID, To: sub.ID, Type: "parent-child"})
				result.Stats.Subtasks++
				result.Stats.Dependencies++
			}
		}
	}

	return result, nil
}

// MarshalPlan renders a plan as indented JSON.
func MarshalPlan(plan *core.Plan) ([]byte, error) {
	output, err := sonic.ConfigStd.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return output, nil
}

// LoadPlan reads a plan previously written by the JSON adapter.
func LoadPlan(path string) (*core.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	var plan core.Plan
	if err := sonic.ConfigStd.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}
	if len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("plan %s has no tasks", path)
	}
	return &plan, nil
}
