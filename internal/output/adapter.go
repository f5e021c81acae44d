package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhabedank/learnstack/internal/core"
)

// WorkItem represents any work item in the hierarchy.
type WorkItem struct {
	Type          string // "epic", "task", or "subtask"
	LocalID       string // plan ID ("task-3") or "epic-<category>"
	Title         string
	ParentLocalID string // empty if no parent
}

// CreatedItem represents a successfully created item in the target system.
type CreatedItem struct {
	ExternalID       string // ID assigned by target system (e.g., bd-a3f8)
	LocalID          string
	Type             string
	Title            string
	ParentExternalID string // empty if no parent
}

// CreateResult is the result of creating all items.
type CreateResult struct {
	Created      []CreatedItem
	Failed       []FailedItem
	Dependencies []Dependency
	Stats        Stats
}

// FailedItem represents an item that failed to create.
type FailedItem struct {
	Item  WorkItem
	Error string
}

// Dependency represents a relationship between items.
type Dependency struct {
	From string // external ID
	To   string // external ID
	Type string // "blocks" or "parent-child"
}

// Stats provides summary statistics.
type Stats struct {
	Epics        int
	Tasks        int
	Subtasks     int
	Dependencies int
}

// Adapter is the interface all output adapters must implement.
type Adapter interface {
	// Name returns the adapter identifier for logging.
	Name() string

	// IsAvailable checks if the adapter can be used (e.g., CLI installed).
	IsAvailable() (bool, error)

	// CreateItems writes the plan to the target system.
	CreateItems(plan *core.Plan, config Config) (*CreateResult, error)
}

// Config configures output adapter behavior.
type Config struct {
	// WorkingDir for CLI-based adapters.
	WorkingDir string

	// DryRun previews without creating items.
	DryRun bool

	// IncludeTools lists the recommended tools in each phase epic.
	IncludeTools bool

	// Out receives human-readable output. Defaults to stdout.
	Out io.Writer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkingDir:   ".",
		DryRun:       false,
		IncludeTools: true,
		Out:          os.Stdout,
	}
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// New returns the adapter registered under name.
func New(name string, config Config, outputPath string) (Adapter, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return NewJSONAdapter(config, outputPath), nil
	case "beads", "bd":
		return NewBeadsAdapter(config), nil
	default:
		return nil, fmt.Errorf("unknown output adapter: %s (use json or beads)", name)
	}
}

// phase is one category of the plan with its tasks, in execution order.
type phase struct {
	Category core.Category
	Tasks    []core.Task
	Tools    []core.TechItem
}

func (p phase) localID() string { return "epic-" + string(p.Category) }

func (p phase) title() string { return p.Category.Label() }

// phases groups plan tasks by category. Work categories come first in their
// fixed order; planning and unknown tasks keep their relative position at the end.
func phases(plan *core.Plan) []phase {
	byCat := make(map[core.Category][]core.Task)
	var extra []core.Category
	for _, t := range plan.Tasks {
		if _, seen := byCat[t.Category]; !seen && !isWork(t.Category) {
			extra = append(extra, t.Category)
		}
		byCat[t.Category] = append(byCat[t.Category], t)
	}

	var out []phase
	add := func(c core.Category) {
		tasks, ok := byCat[c]
		if !ok {
			return
		}
		out = append(out, phase{Category: c, Tasks: tasks, Tools: plan.TechStack.Get(c)})
	}
	if _, ok := byCat[core.CategoryPlan]; ok {
		add(core.CategoryPlan)
	}
	for _, c := range core.WorkCategories {
		add(c)
	}
	for _, c := range extra {
		if c != core.CategoryPlan {
			add(c)
		}
	}
	return out
}

func isWork(c core.Category) bool {
	for _, w := range core.WorkCategories {
		if w == c {
			return true
		}
	}
	return false
}
