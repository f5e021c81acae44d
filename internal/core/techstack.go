package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	StageResearch = "research"
	StageCuration = "curation"

	// DefaultCurationAttempts is how many times the whole stack pipeline is tried.
	DefaultCurationAttempts = 3
	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 2 * time.Second

	placeholderDocLink = "https://example.com"
)

// CurationError means every curation attempt failed.
type CurationError struct {
	Attempts int
	Err      error
}

func (e *CurationError) Error() string {
	return fmt.Sprintf("tech stack curation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CurationError) Unwrap() error { return e.Err }

// TechStackResult is either a curated stack or the degraded default plus the reason.
// Stack is always usable; Err tells the caller whether it is real.
type TechStackResult struct {
	Stack TechStack
	Err   error
}

// Failed reports whether the stack is the degraded default.
func (r TechStackResult) Failed() bool { return r.Err != nil }

// TechStackCurator runs the research and curation stages.
type TechStackCurator struct {
	LLM         LLM
	MaxAttempts int
	RetryDelay  time.Duration
	Observer    StageObserver
	Logger      log.FieldLogger
}

// NewTechStackCurator creates a curator with default retry settings.
func NewTechStackCurator(llm LLM) *TechStackCurator {
	return &TechStackCurator{
		LLM:         llm,
		MaxAttempts: DefaultCurationAttempts,
		RetryDelay:  DefaultRetryDelay,
		Logger:      log.StandardLogger(),
	}
}

// Curate produces a tech stack. It never returns a Go error: on total failure
// the result carries the default stack and a *CurationError.
func (c *TechStackCurator) Curate(ctx context.Context, in TechStackInput) TechStackResult {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	logger := c.logger().WithField("pipeline", "techstack")

	var lastErr error
	made := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}

		made++
		stack, err := c.attempt(ctx, in)
		if err == nil {
			return TechStackResult{Stack: stack}
		}
		lastErr = err
		logger.WithFields(log.Fields{"attempt": attempt, "max_attempts": attempts}).
			WithError(err).Warn("tech stack attempt failed")

		if ctx.Err() != nil {
			break
		}
	}

	cerr := &CurationError{Attempts: made, Err: lastErr}
	return TechStackResult{Stack: DefaultTechStack(in.ProjectType, cerr.Error()), Err: cerr}
}

func (c *TechStackCurator) attempt(ctx context.Context, in TechStackInput) (TechStack, error) {
	p := c.pipeline(in)
	results, err := p.Run(ctx, c.LLM)
	if err != nil {
		return TechStack{}, err
	}

	output, ok := OutputOf(results, StageCuration)
	if !ok {
		return TechStack{}, errors.New("curation stage produced no output")
	}
	obj, err := ExtractObject(output)
	if err != nil {
		return TechStack{}, err
	}
	return NormalizeTechStack(obj, in), nil
}

func (c *TechStackCurator) pipeline(in TechStackInput) *Pipeline {
	return &Pipeline{
		Name:     "techstack",
		Observer: c.Observer,
		Stages: []Stage{
			{
				Name:    StageResearch,
				Persona: ResearchPersona(),
				Prompt:  func([]StageResult) string { return BuildResearchPrompt(in) },
			},
			{
				Name:    StageCuration,
				Persona: CuratorPersona(),
				Prompt: func(prior []StageResult) string {
					research, _ := OutputOf(prior, StageResearch)
					return BuildCurationPrompt(in, research)
				},
			},
		},
	}
}

func (c *TechStackCurator) logger() log.FieldLogger {
	if c.Logger == nil {
		return log.StandardLogger()
	}
	return c.Logger
}

// DefaultTechStack is the degraded stack: every work category empty, error set.
func DefaultTechStack(pt ProjectType, reason string) TechStack {
	if pt == "" {
		pt = ProjectWeb
	}
	items := make(map[Category][]TechItem, len(WorkCategories))
	for _, c := range WorkCategories {
		items[c] = []TechItem{}
	}
	return TechStack{Type: pt, Items: items, Error: reason}
}

// PlaceholderItem stands in for a category the model left empty.
func PlaceholderItem(c Category) TechItem {
	return TechItem{
		Name:        fmt.Sprintf("Default %s tool", c),
		Description: fmt.Sprintf("Basic tool for %s phase", c),
		DocLink:     placeholderDocLink,
	}
}

// NormalizeTechStack turns a decoded model response into a TechStack:
// invalid items are dropped, disliked technologies removed, mobile projects
// fixed up, and empty work categories filled with a placeholder.
func NormalizeTechStack(obj map[string]any, in TechStackInput) TechStack {
	stack := TechStack{Type: in.ProjectType, Items: make(map[Category][]TechItem)}
	if stack.Type == "" {
		stack.Type = ProjectWeb
	}

	for key, val := range obj {
		cat := Category(strings.ToLower(strings.TrimSpace(key)))
		if cat == "type" || cat == "error" {
			continue
		}
		list, ok := val.([]any)
		if !ok {
			continue
		}
		stack.Items[cat] = append(stack.Items[cat], validItems(list)...)
	}

	for cat, items := range stack.Items {
		stack.Items[cat] = withoutDisliked(items, in.DislikedTech)
	}

	if in.ProjectType == ProjectMobile {
		fixMobileStack(&stack, in.DislikedTech)
	}

	for _, c := range WorkCategories {
		if len(stack.Items[c]) == 0 {
			stack.Items[c] = []TechItem{PlaceholderItem(c)}
		}
	}
	for cat, items := range stack.Items {
		if !isWorkCategory(cat) && len(items) == 0 {
			delete(stack.Items, cat)
		}
	}
	return stack
}

func validItems(list []any) []TechItem {
	items := make([]TechItem, 0, len(list))
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, okName := m["name"].(string)
		desc, okDesc := m["description"].(string)
		link, okLink := m["docLink"].(string)
		if !okName || !okDesc || !okLink || strings.TrimSpace(name) == "" {
			continue
		}
		items = append(items, TechItem{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(desc),
			DocLink:     strings.TrimSpace(link),
		})
	}
	return items
}

func withoutDisliked(items []TechItem, disliked []string) []TechItem {
	if len(disliked) == 0 {
		return items
	}
	kept := items[:0:0]
	for _, item := range items {
		if !mentionsTech(item.Name, disliked) {
			kept = append(kept, item)
		}
	}
	return kept
}

// mentionsTech reports whether name mentions any of techs as a word, allowing
// a "js" or version-number suffix ("angular" matches "AngularJS" and "Vue3").
func mentionsTech(name string, techs []string) bool {
	words := strings.Fields(normalizeText(name))
	for _, d := range techs {
		needle := strings.Fields(normalizeText(d))
		if len(needle) == 0 {
			continue
		}
		for i := 0; i+len(needle) <= len(words); i++ {
			if matchesWords(words[i:i+len(needle)], needle) {
				return true
			}
		}
	}
	return false
}

// matchesWords compares word runs; only the last word may carry a suffix.
func matchesWords(words, needle []string) bool {
	last := len(needle) - 1
	for i := 0; i < last; i++ {
		if words[i] != needle[i] {
			return false
		}
	}
	rest, ok := strings.CutPrefix(words[last], needle[last])
	if !ok {
		return false
	}
	return rest == "" || rest == "js" || strings.Trim(rest, "0123456789") == ""
}

var webDeployPlatforms = []string{"vercel", "netlify", "heroku", "aws amplify"}

var mobileFrameworks = []string{"react native", "flutter", "swift", "kotlin", "ionic", "expo"}

// fixMobileStack swaps web hosting for Expo and makes sure a mobile framework is present.
func fixMobileStack(stack *TechStack, disliked []string) {
	expo := TechItem{
		Name:        "Expo",
		Description: "Expo is a framework and platform for universal React applications. It provides tools for building, deploying, and quickly iterating on iOS, Android, and web apps from the same JavaScript codebase, including over-the-air updates and managed app store builds through EAS.",
		DocLink:     "https://docs.expo.dev/",
	}
	reactNative := TechItem{
		Name:        "React Native",
		Description: "React Native is a framework for building native mobile applications using JavaScript and React. It lets you write one codebase that renders real native components on both iOS and Android, with fast refresh during development and a large ecosystem of community libraries.",
		DocLink:     "https://reactnative.dev/docs/getting-started",
	}

	deploy := stack.Items[CategoryDeploy]
	replaced := false
	kept := make([]TechItem, 0, len(deploy))
	for _, item := range deploy {
		if mentionsTech(item.Name, webDeployPlatforms) {
			replaced = true
			continue
		}
		kept = append(kept, item)
	}
	if replaced && !mentionsTech(expo.Name, disliked) && !containsTech(kept, "expo") {
		kept = append(kept, expo)
	}
	stack.Items[CategoryDeploy] = kept

	frontend := stack.Items[CategoryFrontend]
	hasMobile := false
	for _, item := range frontend {
		if mentionsTech(item.Name, mobileFrameworks) {
			hasMobile = true
			break
		}
	}
	if !hasMobile && !mentionsTech(reactNative.Name, disliked) {
		stack.Items[CategoryFrontend] = append([]TechItem{reactNative}, frontend...)
	}
}

func containsTech(items []TechItem, tech string) bool {
	for _, item := range items {
		if mentionsTech(item.Name, []string{tech}) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
