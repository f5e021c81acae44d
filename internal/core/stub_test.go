package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// scriptedLLM answers calls by stage name. Each stage has a queue of replies;
// the last reply repeats once the queue is drained.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []Call
}

type reply struct {
	text string
	err  error
}

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{replies: make(map[string][]reply)}
}

func (s *scriptedLLM) on(stage string, text string) *scriptedLLM {
	s.replies[stage] = append(s.replies[stage], reply{text: text})
	return s
}

func (s *scriptedLLM) fail(stage string, err error) *scriptedLLM {
	s.replies[stage] = append(s.replies[stage], reply{err: err})
	return s
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Generate(ctx context.Context, call Call) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)

	queue, ok := s.replies[call.Stage]
	if !ok || len(queue) == 0 {
		return "", errors.New("no reply scripted for stage " + call.Stage)
	}
	r := queue[0]
	if len(queue) > 1 {
		s.replies[call.Stage] = queue[1:]
	}
	return r.text, r.err
}

func (s *scriptedLLM) stages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Stage
	}
	return out
}

func (s *scriptedLLM) callsFor(stage string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out
}

// recordingObserver captures stage events.
type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	finished []string
	failed   []string
}

func (o *recordingObserver) StageStarted(pipeline, stage string, inputChars int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, pipeline+"/"+stage)
}

func (o *recordingObserver) StageFinished(pipeline, stage string, outputChars int, elapsed time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, pipeline+"/"+stage)
	if err != nil {
		o.failed = append(o.failed, pipeline+"/"+stage)
	}
}

const validStackJSON = `{
  "type": "Web Application",
  "setup": [{"name": "Vite", "description": "Fast build tool.", "docLink": "https://vitejs.dev"}],
  "frontend": [{"name": "React", "description": "UI library.", "docLink": "https://react.dev"}],
  "backend": [{"name": "Express", "description": "Node web framework.", "docLink": "https://expressjs.com"}],
  "testing": [{"name": "Vitest", "description": "Test runner.", "docLink": "https://vitest.dev"}],
  "deploy": [{"name": "Vercel", "description": "Hosting platform.", "docLink": "https://vercel.com/docs"}],
  "maintain": [{"name": "Sentry", "description": "Error monitoring.", "docLink": "https://docs.sentry.io"}]
}`

func tasksJSON(category string, texts ...string) string {
	var parts []string
	for _, t := range texts {
		parts = append(parts, `{"id":"x","text":"`+t+`","category":"`+category+`","subtasks":[{"id":"y","text":"Do the first step"},{"text":"Do the second step"}]}`)
	}
	return `{"tasks":[` + strings.Join(parts, ",") + `]}`
}

// scriptFullRun scripts every stage of a successful plan.
func scriptFullRun(s *scriptedLLM) *scriptedLLM {
	s.on(StageResearch, "React, Express and Vitest fit well.")
	s.on(StageCuration, "```json\n"+validStackJSON+"\n```")
	for _, c := range WorkCategories {
		s.on(TaskStagePrefix+string(c), tasksJSON(string(c), "Handle the "+string(c)+" work"))
	}
	return s
}
