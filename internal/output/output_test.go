package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhabedank/learnstack/internal/core"
)

func testPlan() *core.Plan {
	stack := core.NormalizeTechStack(map[string]any{
		"setup":    []any{map[string]any{"name": "Vite", "description": "Build tool", "docLink": "https://vitejs.dev"}},
		"frontend": []any{map[string]any{"name": "React", "description": "UI library", "docLink": "https://react.dev"}},
	}, core.TechStackInput{ProjectType: core.ProjectWeb})

	return &core.Plan{
		Tasks: core.Renumber([]core.Task{
			{Text: "Scaffold the project", Category: core.CategorySetup, Subtasks: []core.Subtask{
				{Text: "Run npm create vite"}, {Text: "Commit the skeleton"},
			}},
			{Text: "Build the recipe list", Category: core.CategoryFrontend, Subtasks: []core.Subtask{}},
			{Text: "Write component tests", Category: core.CategoryTesting, Subtasks: []core.Subtask{
				{Text: "Install Vitest"},
			}},
		}),
		TechStack:       stack,
		ProjectType:     core.ProjectWeb,
		ExperienceLevel: core.ExperienceBeginner,
		Priority:        "Speed",
	}
}

func TestDefaultOutputConfig(t *testing.T) {
	config := DefaultConfig()

	if config.WorkingDir != "." {
		t.Errorf("WorkingDir = %s, want .", config.WorkingDir)
	}
	if config.DryRun {
		t.Error("DryRun should be false by default")
	}
	if !config.IncludeTools {
		t.Error("IncludeTools should be true by default")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"json", "json", false},
		{"", "json", false},
		{"beads", "beads", false},
		{"BD", "beads", false},
		{"linear", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := New(tt.name, DefaultConfig(), "")
			if tt.wantErr {
				if err == nil {
					t.Errorf("New(%q) should fail", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.name, err)
			}
			if adapter.Name() != tt.want {
				t.Errorf("Name() = %s, want %s", adapter.Name(), tt.want)
			}
		})
	}
}

func TestPhases(t *testing.T) {
	plan := &core.Plan{Tasks: []core.Task{
		{ID: "task-1", Category: core.CategoryUnknown},
		{ID: "task-2", Category: core.CategoryBackend},
		{ID: "task-3", Category: core.CategorySetup},
		{ID: "task-4", Category: core.CategoryPlan},
		{ID: "task-5", Category: core.CategoryBackend},
	}}

	got := phases(plan)
	want := []core.Category{core.CategoryPlan, core.CategorySetup, core.CategoryBackend, core.CategoryUnknown}
	if len(got) != len(want) {
		t.Fatalf("phases = %d, want %d", len(got), len(want))
	}
	for i, c := range want {
		if got[i].Category != c {
			t.Errorf("phases[%d] = %s, want %s", i, got[i].Category, c)
		}
	}
	if len(got[2].Tasks) != 2 || got[2].Tasks[1].ID != "task-5" {
		t.Errorf("backend tasks = %+v, want task-2 then task-5", got[2].Tasks)
	}
}

func TestJSONAdapterWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	var out bytes.Buffer
	config := Config{Out: &out}
	adapter := NewJSONAdapter(config, path)

	result, err := adapter.CreateItems(testPlan(), config)
	if err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}

	want := Stats{Epics: 3, Tasks: 3, Subtasks: 3, Dependencies: 6}
	if result.Stats != want {
		t.Errorf("Stats = %+v, want %+v", result.Stats, want)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("output %q should mention %s", out.String(), path)
	}

	loaded, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan() error = %v", err)
	}
	if len(loaded.Tasks) != 3 || loaded.Tasks[0].Subtasks[1].ID != "subtask-1-2" {
		t.Errorf("loaded tasks = %+v", loaded.Tasks)
	}
	if got := loaded.TechStack.Get(core.CategoryFrontend); len(got) != 1 || got[0].Name != "React" {
		t.Errorf("loaded frontend stack = %+v", got)
	}
}

func TestJSONAdapterDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	var out bytes.Buffer
	config := Config{DryRun: true, Out: &out}

	if _, err := NewJSONAdapter(config, path).CreateItems(testPlan(), config); err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("dry run should not write the file")
	}
	if !strings.Contains(out.String(), `"tech_stack"`) {
		t.Errorf("dry run output missing plan JSON: %s", out.String())
	}
}

func TestLoadPlanErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"tasks": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"tasks": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{empty, broken, filepath.Join(dir, "missing.json")} {
		if _, err := LoadPlan(path); err == nil {
			t.Errorf("LoadPlan(%s) should fail", filepath.Base(path))
		}
	}
}

// fakeBd writes a bd stand-in that logs its arguments and hands out sequential IDs.
func fakeBd(t *testing.T, failTitle string) (binary, logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	counter := filepath.Join(dir, "count")
	script := fmt.Sprintf(`#!/bin/sh
echo "$@" >> %q
case "$1" in
  create)
    if [ "$2" = %q ]; then echo "boom" >&2; exit 1; fi
    n=$(cat %q 2>/dev/null || echo 0)
    n=$((n+1))
    echo $n > %q
    echo "Created issue: learn-a$n"
    ;;
esac
`, logPath, failTitle, counter, counter)

	binary = filepath.Join(dir, "bd")
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return binary, logPath
}

func depLines(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var deps []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.HasPrefix(line, "dep add ") {
			deps = append(deps, strings.TrimPrefix(line, "dep add "))
		}
	}
	return deps
}

func TestBeadsAdapterCreatesHierarchy(t *testing.T) {
	binary, logPath := fakeBd(t, "")
	config := Config{WorkingDir: t.TempDir(), IncludeTools: true, Out: &bytes.Buffer{}}
	adapter := NewBeadsAdapter(config)
	adapter.binary = binary

	if ok, err := adapter.IsAvailable(); err != nil || !ok {
		t.Fatalf("IsAvailable() = %v, %v; want true", ok, err)
	}

	result, err := adapter.CreateItems(testPlan(), config)
	if err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}

	want := Stats{Epics: 3, Tasks: 3, Subtasks: 3, Dependencies: 8}
	if result.Stats != want {
		t.Errorf("Stats = %+v, want %+v", result.Stats, want)
	}
	if len(result.Failed) != 0 {
		t.Errorf("Failed = %+v, want none", result.Failed)
	}

	// Epics are a1..a3, task-1 is a4 with subtasks a5 and a6.
	deps := depLines(t, logPath)
	wantDeps := []string{
		"learn-a1 parent-child learn-a4",
		"learn-a4 parent-child learn-a5",
		"learn-a4 parent-child learn-a6",
		"learn-a2 parent-child learn-a7",
		"learn-a3 parent-child learn-a8",
		"learn-a8 parent-child learn-a9",
		"learn-a1 blocks learn-a2",
		"learn-a2 blocks learn-a3",
	}
	if strings.Join(deps, "\n") != strings.Join(wantDeps, "\n") {
		t.Errorf("deps =\n%s\nwant\n%s", strings.Join(deps, "\n"), strings.Join(wantDeps, "\n"))
	}

	first := result.Created[0]
	if first.Type != "epic" || first.Title != "Setup" || first.ExternalID != "learn-a1" {
		t.Errorf("first created = %+v, want Setup epic learn-a1", first)
	}
}

func TestBeadsAdapterSkipsChildrenOfFailedEpic(t *testing.T) {
	binary, logPath := fakeBd(t, "Frontend")
	config := Config{WorkingDir: t.TempDir(), Out: &bytes.Buffer{}}
	adapter := NewBeadsAdapter(config)
	adapter.binary = binary

	result, err := adapter.CreateItems(testPlan(), config)
	if err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}

	if len(result.Failed) != 1 || result.Failed[0].Item.LocalID != "epic-frontend" {
		t.Fatalf("Failed = %+v, want the frontend epic", result.Failed)
	}
	if !strings.Contains(result.Failed[0].Error, "boom") {
		t.Errorf("error = %q, want stderr included", result.Failed[0].Error)
	}
	if result.Stats.Epics != 2 || result.Stats.Tasks != 2 {
		t.Errorf("Stats = %+v, want 2 epics and 2 tasks", result.Stats)
	}

	// Setup (a1) now blocks testing (a2) directly.
	deps := depLines(t, logPath)
	if last := deps[len(deps)-1]; last != "learn-a1 blocks learn-a2" {
		t.Errorf("last dep = %q, want learn-a1 blocks learn-a2", last)
	}
}

func TestBeadsAdapterDryRun(t *testing.T) {
	var out bytes.Buffer
	config := Config{DryRun: true, IncludeTools: true, Out: &out}
	adapter := NewBeadsAdapter(config)
	adapter.binary = filepath.Join(t.TempDir(), "missing-bd")

	result, err := adapter.CreateItems(testPlan(), config)
	if err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}
	if result.Stats.Epics != 3 {
		t.Errorf("Epics = %d, want 3", result.Stats.Epics)
	}

	text := out.String()
	for _, want := range []string{
		"create Setup --description Setup phase of a Web Application.",
		"**Vite**: Build tool (https://vitejs.dev)",
		"dep add dry-epic-setup blocks dry-epic-frontend",
		"dep add dry-task-1 parent-child dry-subtask-1-1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("dry run output missing %q", want)
		}
	}
}

func TestBeadsAdapterUnavailable(t *testing.T) {
	adapter := NewBeadsAdapter(Config{})
	adapter.binary = filepath.Join(t.TempDir(), "missing-bd")

	available, err := adapter.IsAvailable()
	if err != nil {
		t.Errorf("IsAvailable() error = %v", err)
	}
	if available {
		t.Error("missing binary should not be available")
	}
}

func TestMapPriority(t *testing.T) {
	tests := []struct {
		category core.Category
		want     int
	}{
		{core.CategorySetup, 0},
		{core.CategoryBackend, 1},
		{core.CategoryDeploy, 2},
		{core.CategoryMaintain, 3},
		{core.CategoryUnknown, 3},
	}

	for _, tt := range tests {
		if got := mapPriority(tt.category); got != tt.want {
			t.Errorf("mapPriority(%s) = %d, want %d", tt.category, got, tt.want)
		}
	}
}
