package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Subtask is the atomic unit of work inside a task.
type Subtask struct {
	ID        string `json:"id"`        // "subtask-{task}-{n}", assigned after generation
	Text      string `json:"text"`      // One actionable sentence
	Completed bool   `json:"completed"` // Always false on creation
}

// Task is a unit of work in one development phase.
type Task struct {
	ID        string    `json:"id"`        // "task-{n}", assigned after generation
	Text      string    `json:"text"`      // Short imperative title
	Completed bool      `json:"completed"` // Always false on creation
	Category  Category  `json:"category"`  // Phase the task belongs to
	Subtasks  []Subtask `json:"subtasks"`
}

// TechItem is one recommended tool or framework.
type TechItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DocLink     string `json:"docLink"`
}

// Category is a development phase. Tasks and tech stack entries are grouped by it.
type Category string

const (
	CategoryPlan     Category = "plan"
	CategorySetup    Category = "setup"
	CategoryFrontend Category = "frontend"
	CategoryBackend  Category = "backend"
	CategoryTesting  Category = "testing"
	CategoryDeploy   Category = "deploy"
	CategoryMaintain Category = "maintain"
	CategoryUnknown  Category = "unknown"

	// CategoryPlanning is the optional tech stack key for planning tools.
	CategoryPlanning Category = "planning"
)

// WorkCategories are the phases every plan must cover, in execution order.
var WorkCategories = []Category{
	CategorySetup,
	CategoryFrontend,
	CategoryBackend,
	CategoryTesting,
	CategoryDeploy,
	CategoryMaintain,
}

// Label returns the human-readable phase name.
func (c Category) Label() string {
	switch c {
	case CategoryPlan, CategoryPlanning:
		return "Plan & Design"
	case CategorySetup:
		return "Setup"
	case CategoryFrontend:
		return "Frontend"
	case CategoryBackend:
		return "Backend"
	case CategoryTesting:
		return "Testing"
	case CategoryDeploy:
		return "Deploy"
	case CategoryMaintain:
		return "Maintain"
	}
	return "Unknown"
}

// Priority is the user's stated optimisation goal.
type Priority string

const (
	PrioritySpeed       Priority = "Speed"
	PriorityScalability Priority = "Scalability"
	PriorityLearning    Priority = "Learning"
)

// ParsePriority maps a free-form priority string onto a Priority.
// Anything that mentions neither speed nor scalability is treated as Learning.
func ParsePriority(raw string) Priority {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "speed"):
		return PrioritySpeed
	case strings.Contains(lower, "scalab"):
		return PriorityScalability
	default:
		return PriorityLearning
	}
}

// ProjectType is one of a closed set of project labels.
type ProjectType string

const (
	ProjectWeb         ProjectType = "Web Application"
	ProjectMobile      ProjectType = "Mobile App"
	ProjectExtension   ProjectType = "Browser Extension"
	ProjectCLI         ProjectType = "CLI Tool"
	ProjectAPI         ProjectType = "API/Backend Service"
	ProjectDataML      ProjectType = "Data Analysis/ML Project"
	ProjectGame        ProjectType = "Game"
	ProjectDesktop     ProjectType = "Desktop Application"
	ProjectDevOps      ProjectType = "DevOps/Infrastructure Tool"
	ProjectEducational ProjectType = "Educational/Tutorial Project"
)

// ProjectTypes lists every valid label.
var ProjectTypes = []ProjectType{
	ProjectWeb, ProjectMobile, ProjectExtension, ProjectCLI, ProjectAPI,
	ProjectDataML, ProjectGame, ProjectDesktop, ProjectDevOps, ProjectEducational,
}

// LookupProjectType matches a label case-insensitively.
func LookupProjectType(s string) (ProjectType, bool) {
	s = strings.TrimSpace(s)
	for _, pt := range ProjectTypes {
		if strings.EqualFold(string(pt), s) {
			return pt, true
		}
	}
	return "", false
}

// ExperienceLevel is the coarse skill bucket inferred from the user's technologies.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "Beginner"
	ExperienceIntermediate ExperienceLevel = "Intermediate"
	ExperienceAdvanced     ExperienceLevel = "Advanced"
)

// UserBackground is what the user told us about their technology preferences.
type UserBackground struct {
	KnownTech    []string `json:"known_tech"`
	DislikedTech []string `json:"disliked_tech"`
	StarredTech  []string `json:"starred_tech"`
}

// PlanRequest is the input to a full generation run.
type PlanRequest struct {
	Description string         `json:"description"`
	Priority    string         `json:"priority"`
	Background  UserBackground `json:"background"`
}

// Validate checks the request for required fields.
func (r PlanRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return &ValidationError{Field: "description", Message: "Project description is required"}
	}
	return nil
}

// CacheKeyMaterial returns a canonical form of the request: trimmed description,
// normalised priority, and sorted, de-duplicated technology lists.
func (r PlanRequest) CacheKeyMaterial() string {
	norm := func(in []string) []string {
		seen := make(map[string]bool, len(in))
		out := make([]string, 0, len(in))
		for _, s := range in {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
		sort.Strings(out)
		return out
	}
	return strings.Join([]string{
		strings.TrimSpace(r.Description),
		string(ParsePriority(r.Priority)),
		strings.Join(norm(r.Background.KnownTech), ","),
		strings.Join(norm(r.Background.DislikedTech), ","),
		strings.Join(norm(r.Background.StarredTech), ","),
	}, "\x1f")
}

// Plan is the full output of a generation run.
type Plan struct {
	Tasks           []Task          `json:"tasks"`
	TechStack       TechStack       `json:"tech_stack"`
	ProjectType     ProjectType     `json:"project_type"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	Priority        string          `json:"priority"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// Stats counts tasks and subtasks.
func (p *Plan) Stats() (tasks, subtasks int) {
	for _, t := range p.Tasks {
		tasks++
		subtasks += len(t.Subtasks)
	}
	return tasks, subtasks
}

// TechStack maps categories to recommended tools.
//
// On the wire it is a flat object: {"type": ..., "setup": [...], ..., "error": ...}.
// Every work category is always present, possibly as an empty list.
type TechStack struct {
	Type  ProjectType
	Items map[Category][]TechItem
	Error string // set only on the degraded fallback
}

// Get returns the items for a category.
func (s TechStack) Get(c Category) []TechItem {
	if s.Items == nil {
		return nil
	}
	return s.Items[c]
}

// Names returns every tool name in category order.
func (s TechStack) Names() []string {
	var names []string
	for _, c := range s.categories() {
		for _, item := range s.Items[c] {
			names = append(names, item.Name)
		}
	}
	return names
}

// categories returns any extra categories (sorted) followed by the work categories.
func (s TechStack) categories() []Category {
	var extra []Category
	for c := range s.Items {
		if !isWorkCategory(c) {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(extra, WorkCategories...)
}

func (s TechStack) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Items)+2)
	out["type"] = s.Type
	for _, c := range s.categories() {
		items := s.Items[c]
		if items == nil {
			items = []TechItem{}
		}
		out[string(c)] = items
	}
	if s.Error != "" {
		out["error"] = s.Error
	}
	return json.Marshal(out)
}

func (s *TechStack) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Items = make(map[Category][]TechItem)
	for key, val := range raw {
		switch key {
		case "type":
			var t string
			if err := json.Unmarshal(val, &t); err != nil {
				return fmt.Errorf("tech_stack.type: %w", err)
			}
			s.Type = ProjectType(t)
		case "error":
			if err := json.Unmarshal(val, &s.Error); err != nil {
				return fmt.Errorf("tech_stack.error: %w", err)
			}
		default:
			var items []TechItem
			if err := json.Unmarshal(val, &items); err != nil {
				return fmt.Errorf("tech_stack.%s: %w", key, err)
			}
			s.Items[Category(key)] = items
		}
	}
	return nil
}

func isWorkCategory(c Category) bool {
	for _, w := range WorkCategories {
		if w == c {
			return true
		}
	}
	return false
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
