package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func taskInput() TaskInput {
	return TaskInput{
		Description: "a recipe-sharing web app",
		Priority:    PrioritySpeed,
		TechStack:   NormalizeTechStack(map[string]any{}, webInput()),
		ProjectType: ProjectWeb,
	}
}

func TestTaskCuratorRunsCategoriesInOrder(t *testing.T) {
	llm := newScriptedLLM()
	scriptFullRun(llm)

	res := (&TaskCurator{LLM: llm}).Curate(context.Background(), taskInput())
	if len(res.FailedStages) != 0 {
		t.Errorf("FailedStages = %v, want none", res.FailedStages)
	}

	var want []string
	for _, c := range WorkCategories {
		want = append(want, TaskStagePrefix+string(c))
	}
	if got := llm.stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}

	if len(res.Tasks) != len(WorkCategories) {
		t.Fatalf("len(Tasks) = %d, want %d", len(res.Tasks), len(WorkCategories))
	}
	for i, task := range res.Tasks {
		if task.Category != WorkCategories[i] {
			t.Errorf("task %d category = %s, want %s", i, task.Category, WorkCategories[i])
		}
		if task.ID != fmt.Sprintf("task-%d", i+1) {
			t.Errorf("task %d ID = %s", i, task.ID)
		}
		if len(task.Subtasks) != 2 || task.Subtasks[1].ID != fmt.Sprintf("subtask-%d-2", i+1) {
			t.Errorf("task %d subtasks = %+v", i, task.Subtasks)
		}
	}

	// Later category stages see earlier tasks in their prompt.
	deploy := llm.callsFor(TaskStagePrefix + string(CategoryDeploy))[0]
	if !strings.Contains(deploy.UserPrompt, "Handle the setup work") {
		t.Error("deploy prompt does not include earlier setup task")
	}
	if !strings.Contains(deploy.SystemPrompt, "Speed-Oriented Task Planner") {
		t.Error("deploy system prompt does not carry coordinator direction")
	}
}

func TestTaskCuratorPartialFailure(t *testing.T) {
	llm := newScriptedLLM()
	scriptFullRun(llm)
	llm.replies[TaskStagePrefix+string(CategoryBackend)] = []reply{{err: errors.New("timeout")}}
	llm.replies[TaskStagePrefix+string(CategoryTesting)] = []reply{{text: "no json here"}}

	res := (&TaskCurator{LLM: llm}).Curate(context.Background(), taskInput())
	want := []string{TaskStagePrefix + "backend", TaskStagePrefix + "testing"}
	if !reflect.DeepEqual(res.FailedStages, want) {
		t.Errorf("FailedStages = %v, want %v", res.FailedStages, want)
	}
	if len(res.Tasks) != 4 {
		t.Fatalf("len(Tasks) = %d, want 4", len(res.Tasks))
	}
	for i, task := range res.Tasks {
		if task.ID != fmt.Sprintf("task-%d", i+1) {
			t.Errorf("task %d ID = %s, want contiguous numbering", i, task.ID)
		}
	}
}

func TestTaskCuratorAllFail(t *testing.T) {
	llm := newScriptedLLM()
	for _, c := range WorkCategories {
		llm.fail(TaskStagePrefix+string(c), errors.New("down"))
	}

	res := (&TaskCurator{LLM: llm}).Curate(context.Background(), taskInput())
	if res.Tasks == nil || len(res.Tasks) != 0 {
		t.Errorf("Tasks = %#v, want empty non-nil slice", res.Tasks)
	}
	if len(res.FailedStages) != len(WorkCategories) {
		t.Errorf("FailedStages = %v", res.FailedStages)
	}
}

func TestParseTasks(t *testing.T) {
	output := "```json\n" + `{"tasks": [
		{"id": "t1", "title": "Create the database schema", "category": "Back-End", "subtasks": ["Design tables", {"text": "Write migrations"}, {"text": ""}]},
		{"text": "Write unit tests", "category": "QA"},
		{"text": "Polish the UI", "category": "Astrology"},
		{"text": "Mystery work"},
		{"text": "", "category": "setup"},
		"not an object"
	]}` + "\n```"

	tasks, err := ParseTasks(output, CategoryFrontend)
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}

	want := []struct {
		text     string
		category Category
		subtasks int
	}{
		{"Create the database schema", CategoryBackend, 2},
		{"Write unit tests", CategoryTesting, 0},
		{"Polish the UI", CategoryFrontend, 0},
		{"Mystery work", CategoryUnknown, 0},
	}
	if len(tasks) != len(want) {
		t.Fatalf("len(tasks) = %d, want %d: %+v", len(tasks), len(want), tasks)
	}
	for i, w := range want {
		if tasks[i].Text != w.text || tasks[i].Category != w.category || len(tasks[i].Subtasks) != w.subtasks {
			t.Errorf("task %d = %+v, want %+v", i, tasks[i], w)
		}
		if tasks[i].Subtasks == nil {
			t.Errorf("task %d has nil subtasks", i)
		}
	}

	if _, err := ParseTasks(`{"items": []}`, CategorySetup); !errors.Is(err, ErrNoJSON) {
		t.Errorf("ParseTasks(missing tasks) error = %v, want ErrNoJSON", err)
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw      any
		fallback Category
		want     Category
	}{
		{"setup", CategoryBackend, CategorySetup},
		{"  Front End ", CategoryBackend, CategoryFrontend},
		{"Deployment", CategorySetup, CategoryDeploy},
		{"Plan & Design", CategorySetup, CategoryPlan},
		{"monitoring", CategorySetup, CategoryMaintain},
		{"astrology", CategoryTesting, CategoryTesting},
		{"astrology", "", CategoryUnknown},
		{"", CategorySetup, CategoryUnknown},
		{nil, CategorySetup, CategoryUnknown},
		{42, CategorySetup, CategoryUnknown},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.raw, tt.fallback); got != tt.want {
			t.Errorf("NormalizeCategory(%v, %q) = %q, want %q", tt.raw, tt.fallback, got, tt.want)
		}
	}
}

func TestRenumber(t *testing.T) {
	tasks := []Task{
		{ID: "zz", Text: "a", Completed: true, Subtasks: []Subtask{{ID: "q", Text: "a1", Completed: true}}},
		{ID: "zz", Text: "b", Subtasks: []Subtask{{Text: "b1"}, {Text: "b2"}}},
		{Text: "c"},
	}

	once := Renumber(tasks)
	twice := Renumber(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Renumber is not idempotent:\n%+v\n%+v", once, twice)
	}

	if tasks[0].ID != "zz" || !tasks[0].Completed {
		t.Error("Renumber modified its input")
	}

	seen := make(map[string]bool)
	for i, task := range once {
		if task.ID != fmt.Sprintf("task-%d", i+1) || task.Completed {
			t.Errorf("task %d = %+v", i, task)
		}
		for j, st := range task.Subtasks {
			if st.ID != fmt.Sprintf("subtask-%d-%d", i+1, j+1) || st.Completed {
				t.Errorf("subtask %d.%d = %+v", i, j, st)
			}
			if seen[st.ID] {
				t.Errorf("duplicate id %s", st.ID)
			}
			seen[st.ID] = true
		}
	}

	if Renumber(nil) != nil {
		t.Error("Renumber(nil) != nil")
	}
}
