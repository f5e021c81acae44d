package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func webInput() TechStackInput {
	return TechStackInput{
		ProjectType:     ProjectWeb,
		Priority:        PrioritySpeed,
		ExperienceLevel: ExperienceBeginner,
		Description:     "a recipe-sharing web app",
		KnownTech:       []string{"React"},
	}
}

func TestTechStackCuratorSuccess(t *testing.T) {
	llm := newScriptedLLM().
		on(StageResearch, "Research notes: React, Express.").
		on(StageCuration, "Here you go:\n```json\n"+validStackJSON+"\n```")
	curator := &TechStackCurator{LLM: llm, MaxAttempts: 3}

	res := curator.Curate(context.Background(), webInput())
	if res.Failed() {
		t.Fatalf("Curate() failed: %v", res.Err)
	}
	if res.Stack.Type != ProjectWeb {
		t.Errorf("Type = %q, want %q", res.Stack.Type, ProjectWeb)
	}
	if got := res.Stack.Get(CategoryFrontend); len(got) != 1 || got[0].Name != "React" {
		t.Errorf("frontend = %+v", got)
	}
	if res.Stack.Error != "" {
		t.Errorf("Error = %q, want empty", res.Stack.Error)
	}

	// Research output is handed to the curation stage.
	curation := llm.callsFor(StageCuration)
	if len(curation) != 1 || !strings.Contains(curation[0].UserPrompt, "Research notes: React, Express.") {
		t.Errorf("curation prompt does not embed research output")
	}
	if got := strings.Join(llm.stages(), ","); got != "research,curation" {
		t.Errorf("stages = %s", got)
	}
}

func TestTechStackCuratorRetriesThenSucceeds(t *testing.T) {
	llm := newScriptedLLM().
		on(StageResearch, "notes").
		on(StageCuration, "I cannot answer in JSON, sorry.").
		on(StageCuration, validStackJSON)
	curator := &TechStackCurator{LLM: llm, MaxAttempts: 3}

	res := curator.Curate(context.Background(), webInput())
	if res.Failed() {
		t.Fatalf("Curate() failed: %v", res.Err)
	}
	if n := len(llm.callsFor(StageResearch)); n != 2 {
		t.Errorf("research ran %d times, want 2 (whole pipeline retried)", n)
	}
}

func TestTechStackCuratorFallsBackToDefault(t *testing.T) {
	boom := errors.New("provider down")
	llm := newScriptedLLM().fail(StageResearch, boom)
	curator := &TechStackCurator{LLM: llm, MaxAttempts: 3}

	res := curator.Curate(context.Background(), TechStackInput{ProjectType: ProjectCLI, Description: "x"})
	if !res.Failed() {
		t.Fatal("Curate() succeeded, want failure")
	}
	if n := len(llm.callsFor(StageResearch)); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
	var cerr *CurationError
	if !errors.As(res.Err, &cerr) || cerr.Attempts != 3 || !errors.Is(res.Err, boom) {
		t.Errorf("Err = %v, want CurationError wrapping provider error", res.Err)
	}

	if res.Stack.Type != ProjectCLI {
		t.Errorf("Type = %q, want %q", res.Stack.Type, ProjectCLI)
	}
	if res.Stack.Error == "" {
		t.Error("default stack has no error message")
	}
	for _, c := range WorkCategories {
		items, ok := res.Stack.Items[c]
		if !ok || len(items) != 0 {
			t.Errorf("category %s = %v, want present and empty", c, items)
		}
	}
}

func TestTechStackCuratorStopsOnCancel(t *testing.T) {
	llm := newScriptedLLM().fail(StageResearch, errors.New("boom"))
	curator := &TechStackCurator{LLM: llm, MaxAttempts: 3}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := curator.Curate(ctx, webInput())
	if !res.Failed() {
		t.Fatal("Curate() succeeded on cancelled context")
	}
	if len(llm.stages()) != 0 {
		t.Errorf("ran %d stages on cancelled context", len(llm.stages()))
	}
	var cerr *CurationError
	if !errors.As(res.Err, &cerr) || cerr.Attempts != 1 {
		t.Errorf("Err = %v, want CurationError after 1 attempt", res.Err)
	}
}

// cancelOnCall cancels the request the first time it is called.
type cancelOnCall struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancelOnCall) Name() string { return "cancelling" }

func (c *cancelOnCall) Generate(ctx context.Context, call Call) (string, error) {
	c.calls++
	c.cancel()
	return "", ctx.Err()
}

func TestTechStackCuratorCountsAttemptsMade(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	llm := &cancelOnCall{cancel: cancel}
	curator := &TechStackCurator{LLM: llm, MaxAttempts: 5}

	res := curator.Curate(ctx, webInput())
	var cerr *CurationError
	if !errors.As(res.Err, &cerr) {
		t.Fatalf("Err = %v, want CurationError", res.Err)
	}
	if cerr.Attempts != 1 || llm.calls != 1 {
		t.Errorf("Attempts = %d after %d calls, want 1", cerr.Attempts, llm.calls)
	}
	if !strings.Contains(res.Stack.Error, "after 1 attempt(s)") {
		t.Errorf("Stack.Error = %q", res.Stack.Error)
	}
}

func TestNormalizeTechStack(t *testing.T) {
	obj := map[string]any{
		"type": "Something Else",
		"frontend": []any{
			map[string]any{"name": "React", "description": "UI", "docLink": "https://react.dev"},
			map[string]any{"name": "", "description": "nameless", "docLink": "x"},
			map[string]any{"name": "Vue", "description": "UI"},
			map[string]any{"name": "Svelte", "description": 3, "docLink": "x"},
			"not an object",
		},
		"backend":  []any{map[string]any{"name": "Express.js", "description": "Server", "docLink": "https://expressjs.com"}},
		"Database": []any{map[string]any{"name": "PostgreSQL", "description": "DB", "docLink": "https://postgresql.org"}},
		"empty":    []any{},
		"testing":  "not a list",
		"error":    "ignored",
	}

	stack := NormalizeTechStack(obj, webInput())

	if stack.Type != ProjectWeb {
		t.Errorf("Type = %q, want input project type", stack.Type)
	}
	if got := stack.Get(CategoryFrontend); len(got) != 1 || got[0].Name != "React" {
		t.Errorf("frontend = %+v, want only React", got)
	}
	if got := stack.Get("database"); len(got) != 1 {
		t.Errorf("database = %+v, want extra category kept", got)
	}
	if _, ok := stack.Items["empty"]; ok {
		t.Error("empty extra category kept")
	}
	if stack.Error != "" {
		t.Errorf("Error = %q, want empty", stack.Error)
	}
	for _, c := range []Category{CategorySetup, CategoryTesting, CategoryDeploy, CategoryMaintain} {
		got := stack.Get(c)
		if len(got) != 1 || got[0] != PlaceholderItem(c) {
			t.Errorf("%s = %+v, want placeholder", c, got)
		}
	}
}

func TestNormalizeTechStackRemovesDisliked(t *testing.T) {
	obj := map[string]any{
		"frontend": []any{
			map[string]any{"name": "Angular", "description": "d", "docLink": "l"},
			map[string]any{"name": "AngularJS Material", "description": "d", "docLink": "l"},
			map[string]any{"name": "Svelte", "description": "d", "docLink": "l"},
		},
		"backend": []any{
			map[string]any{"name": "Express.js", "description": "d", "docLink": "l"},
			map[string]any{"name": "Expressive Tea", "description": "d", "docLink": "l"},
		},
	}
	in := webInput()
	in.DislikedTech = []string{"angular", "Express"}

	stack := NormalizeTechStack(obj, in)
	for _, name := range stack.Names() {
		if mentionsTech(name, in.DislikedTech) {
			t.Errorf("disliked technology %q still present", name)
		}
	}
	if got := stack.Get(CategoryFrontend); len(got) != 1 || got[0].Name != "Svelte" {
		t.Errorf("frontend = %+v, want Svelte only", got)
	}
	if got := stack.Get(CategoryBackend); len(got) != 1 || got[0].Name != "Expressive Tea" {
		t.Errorf("backend = %+v, want whole-word matching", got)
	}
}

func TestNormalizeTechStackMobile(t *testing.T) {
	tests := []struct {
		name         string
		obj          map[string]any
		disliked     []string
		wantFrontend []string
		wantDeploy   []string
	}{
		{
			name: "web deploy swapped and react native added",
			obj: map[string]any{
				"frontend": []any{map[string]any{"name": "Tailwind CSS", "description": "d", "docLink": "l"}},
				"deploy": []any{
					map[string]any{"name": "Vercel", "description": "d", "docLink": "l"},
					map[string]any{"name": "Netlify", "description": "d", "docLink": "l"},
				},
			},
			wantFrontend: []string{"React Native", "Tailwind CSS"},
			wantDeploy:   []string{"Expo"},
		},
		{
			name: "existing mobile framework kept",
			obj: map[string]any{
				"frontend": []any{map[string]any{"name": "Flutter", "description": "d", "docLink": "l"}},
				"deploy":   []any{map[string]any{"name": "Fastlane", "description": "d", "docLink": "l"}},
			},
			wantFrontend: []string{"Flutter"},
			wantDeploy:   []string{"Fastlane"},
		},
		{
			name: "disliked react native not forced",
			obj: map[string]any{
				"frontend": []any{map[string]any{"name": "Tailwind CSS", "description": "d", "docLink": "l"}},
			},
			disliked:     []string{"React Native"},
			wantFrontend: []string{"Tailwind CSS"},
			wantDeploy:   []string{"Default deploy tool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := TechStackInput{ProjectType: ProjectMobile, DislikedTech: tt.disliked}
			stack := NormalizeTechStack(tt.obj, in)
			if got := itemNames(stack.Get(CategoryFrontend)); strings.Join(got, ",") != strings.Join(tt.wantFrontend, ",") {
				t.Errorf("frontend = %v, want %v", got, tt.wantFrontend)
			}
			if got := itemNames(stack.Get(CategoryDeploy)); strings.Join(got, ",") != strings.Join(tt.wantDeploy, ",") {
				t.Errorf("deploy = %v, want %v", got, tt.wantDeploy)
			}
		})
	}
}

func TestTechStackJSONShape(t *testing.T) {
	stack := DefaultTechStack(ProjectAPI, "model unavailable")
	stack.Items["database"] = []TechItem{{Name: "SQLite", Description: "d", DocLink: "l"}}

	data, err := json.Marshal(stack)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"type", "setup", "frontend", "backend", "testing", "deploy", "maintain", "database", "error"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if string(raw["setup"]) != "[]" {
		t.Errorf("setup = %s, want []", raw["setup"])
	}

	var back TechStack
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal(TechStack) error = %v", err)
	}
	if back.Type != ProjectAPI || back.Error != "model unavailable" || len(back.Get("database")) != 1 {
		t.Errorf("round trip = %+v", back)
	}

	clean, _ := json.Marshal(TechStack{Type: ProjectWeb})
	if strings.Contains(string(clean), `"error"`) {
		t.Errorf("clean stack serialised an error key: %s", clean)
	}
}

func itemNames(items []TechItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

func TestMentionsTech(t *testing.T) {
	tests := []struct {
		name  string
		techs []string
		want  bool
	}{
		{"Angular", []string{"angular"}, true},
		{"AngularJS Material", []string{"Angular"}, true},
		{"Angular.js", []string{"angular"}, true},
		{"Vue3", []string{"vue"}, true},
		{"Expressive Tea", []string{"express"}, false},
		{"Google Cloud Run", []string{"go"}, false},
		{"React Native", []string{"react native"}, true},
		{"React", []string{"react native"}, false},
		{"AWS Amplify Hosting", []string{"aws amplify"}, true},
		{"Svelte", []string{"", "  "}, false},
	}
	for _, tt := range tests {
		if got := mentionsTech(tt.name, tt.techs); got != tt.want {
			t.Errorf("mentionsTech(%q, %v) = %v, want %v", tt.name, tt.techs, got, tt.want)
		}
	}
}
