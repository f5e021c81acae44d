package output

import (
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"github.com/dhabedank/learnstack/internal/core"
)

// issueIDPattern matches beads IDs of the form <prefix>-<hash>, e.g. "myproject-x7f2".
var issueIDPattern = regexp.MustCompile(`\b[\w-]+-[a-z0-9]{2,}\b`)

// BeadsAdapter creates issues in beads using the bd CLI.
type BeadsAdapter struct {
	binary       string
	workingDir   string
	dryRun       bool
	includeTools bool
}

// NewBeadsAdapter creates a Beads adapter.
func NewBeadsAdapter(config Config) *BeadsAdapter {
	return &BeadsAdapter{
		binary:       "bd",
		workingDir:   config.WorkingDir,
		dryRun:       config.DryRun,
		includeTools: config.IncludeTools,
	}
}

func (a *BeadsAdapter) Name() string {
	return "beads"
}

func (a *BeadsAdapter) IsAvailable() (bool, error) {
	cmd := exec.Command(a.binary, "--version")
	cmd.Dir = a.workingDir
	if err := cmd.Run(); err != nil {
		return false, nil
	}
	return true, nil
}

// CreateItems creates one epic per phase, then tasks and subtasks as children,
// then chains the epics so each phase blocks the next.
func (a *BeadsAdapter) CreateItems(plan *core.Plan, config Config) (*CreateResult, error) {
	w := config.out()
	result := &CreateResult{
		Created:      []CreatedItem{},
		Failed:       []FailedItem{},
		Dependencies: []Dependency{},
	}
	groups := phases(plan)
	epicIDs := make([]string, len(groups))

	// Phase 1: Create all epics
	for i, ph := range groups {
		id, err := a.runBdCreate(w, ph.localID(), ph.title(), a.epicDescription(plan, ph), "epic", 1)
		if err != nil {
			result.Failed = append(result.Failed, FailedItem{
				Item:  WorkItem{Type: "epic", LocalID: ph.localID(), Title: ph.title()},
				Error: err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, CreatedItem{
			ExternalID: id,
			LocalID:    ph.localID(),
			Type:       "epic",
			Title:      ph.title(),
		})
		epicIDs[i] = id
		result.Stats.Epics++
	}

	// Phase 2: Create tasks and their subtasks under each epic
	for i, ph := range groups {
		epicID := epicIDs[i]
		if epicID == "" {
			continue
		}

		for _, task := range ph.Tasks {
			taskID, ok := a.createChild(w, result, WorkItem{
				Type: "task", LocalID: task.ID, Title: task.Text, ParentLocalID: ph.localID(),
			}, taskDescription(task, ph.Category), mapPriority(ph.Category), epicID)
			if !ok {
				continue
			}
			result.Stats.Tasks++

			for _, sub := range task.Subtasks {
				if _, ok := a.createChild(w, result, WorkItem{
					Type: "subtask", LocalID: sub.ID, Title: sub.Text, ParentLocalID: task.ID,
				}, fmt.Sprintf("Part of %s: %s", task.ID, task.Text), mapPriority(ph.Category)+1, taskID); ok {
					result.Stats.Subtasks++
				}
			}
		}
	}

	// Phase 3: Each phase blocks the next one that was created
	prev := ""
	for _, id := range epicIDs {
		if id == "" {
			continue
		}
		if prev != "" {
			if err := a.addDependency(w, prev, id, "blocks"); err == nil {
				result.Dependencies = append(result.Dependencies, Dependency{From: prev, To: id, Type: "blocks"})
				result.Stats.Dependencies++
			}
		}
		prev = id
	}

	return result, nil
}

// createChild creates an item and links it to its parent. Beads uses "task" for subtasks too.
func (a *BeadsAdapter) createChild(w io.Writer, result *CreateResult, item WorkItem, desc string, priority int, parentID string) (string, bool) {
	id, err := a.runBdCreate(w, item.LocalID, item.Title, desc, "task", priority)
	if err != nil {
		result.Failed = append(result.Failed, FailedItem{Item: item, Error: err.Error()})
		return "", false
	}
	result.Created = append(result.Created, CreatedItem{
		ExternalID:       id,
		LocalID:          item.LocalID,
		Type:             item.Type,
		Title:            item.Title,
		ParentExternalID: parentID,
	})

	if err := a.addDependency(w, parentID, id, "parent-child"); err == nil {
		result.Dependencies = append(result.Dependencies, Dependency{From: parentID, To: id, Type: "parent-child"})
		result.Stats.Dependencies++
	}
	return id, true
}

func (a *BeadsAdapter) epicDescription(plan *core.Plan, ph phase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s phase of a %s.", ph.title(), projectLabel(plan.ProjectType))

	if a.includeTools && len(ph.Tools) > 0 {
		b.WriteString("\n\n**Recommended tools:**")
		for _, tool := range ph.Tools {
			fmt.Fprintf(&b, "\n- **%s**", tool.Name)
			if tool.Description != "" {
				fmt.Fprintf(&b, ": %s", tool.Description)
			}
			if tool.DocLink != "" {
				fmt.Fprintf(&b, " (%s)", tool.DocLink)
			}
		}
	}
	return b.String()
}

func taskDescription(task core.Task, c core.Category) string {
	if len(task.Subtasks) == 0 {
		return fmt.Sprintf("%s task.", c.Label())
	}
	parts := make([]string, 0, len(task.Subtasks))
	for _, sub := range task.Subtasks {
		parts = append(parts, "- "+sub.Text)
	}
	return fmt.Sprintf("%s task.\n\n**Steps:**\n%s", c.Label(), strings.Join(parts, "\n"))
}

func projectLabel(pt core.ProjectType) string {
	if pt == "" {
		return string(core.ProjectWeb)
	}
	return string(pt)
}

func (a *BeadsAdapter) runBdCreate(w io.Writer, localID, title, description, itemType string, priority int) (string, error) {
	args := []string{
		"create",
		title,
		"--description", description,
		"--priority", fmt.Sprintf("%d", priority),
		"--type", itemType,
	}

	if a.dryRun {
		fmt.Fprintf(w, "[dry-run] %s %s\n", a.binary, strings.Join(args, " "))
		return "dry-" + localID, nil
	}

	cmd := exec.Command(a.binary, args...)
	cmd.Dir = a.workingDir
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("bd create failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("bd create failed: %w", err)
	}

	match := issueIDPattern.FindString(string(output))
	if match == "" {
		return "", fmt.Errorf("could not extract issue ID from: %s", string(output))
	}

	return match, nil
}

func (a *BeadsAdapter) addDependency(w io.Writer, fromID, toID, depType string) error {
	if a.dryRun {
		fmt.Fprintf(w, "[dry-run] %s dep add %s %s %s\n", a.binary, fromID, depType, toID)
		return nil
	}

	cmd := exec.Command(a.binary, "dep", "add", fromID, depType, toID)
	cmd.Dir = a.workingDir
	return cmd.Run()
}

// mapPriority maps a phase to a beads priority (0 = highest). Earlier phases come first.
func mapPriority(c core.Category) int {
	switch c {
	case core.CategoryPlan, core.CategorySetup:
		return 0
	case core.CategoryFrontend, core.CategoryBackend:
		return 1
	case core.CategoryTesting, core.CategoryDeploy:
		return 2
	default:
		return 3
	}
}
