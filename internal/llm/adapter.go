package llm

import (
	"strings"

	"github.com/dhabedank/learnstack/internal/core"
)

// Adapter is a core.LLM that can report whether it is usable on this machine.
type Adapter interface {
	core.LLM

	// IsAvailable checks if this adapter can be used (CLI installed, API key set, etc.)
	IsAvailable() bool
}

// Config holds configuration for LLM adapters.
type Config struct {
	// Provider forces a specific adapter: anthropic-api, gemini-api, claude-cli or codex-cli.
	// Empty means auto-detect.
	Provider string `yaml:"provider"`

	// Model specifies which model to use (optional, adapter chooses default).
	Model string `yaml:"model"`

	// Per-stage models. These override Model when set.
	ResearchModel string `yaml:"research_model"`
	CurationModel string `yaml:"curation_model"`
	TaskModel     string `yaml:"task_model"`

	// API keys. Usually taken from the environment.
	APIKey       string `yaml:"-"`
	GeminiAPIKey string `yaml:"-"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is passed to API providers. Nil leaves the provider default.
	Temperature *float64 `yaml:"temperature"`

	AnthropicBaseURL string `yaml:"anthropic_base_url"`
	GeminiBaseURL    string `yaml:"gemini_base_url"`
}

// ModelForStage returns the model to use for a given pipeline stage.
// Falls back to the default Model if no stage-specific model is set.
func (c Config) ModelForStage(stage string) string {
	switch {
	case stage == core.StageResearch:
		if c.ResearchModel != "" {
			return c.ResearchModel
		}
	case stage == core.StageCuration:
		if c.CurationModel != "" {
			return c.CurationModel
		}
	case strings.HasPrefix(stage, core.TaskStagePrefix), stage == "prompts":
		if c.TaskModel != "" {
			return c.TaskModel
		}
	}
	return c.Model
}

// Temperature returns a pointer for Config.Temperature.
func Temperature(v float64) *float64 { return &v }

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   8192,
		Temperature: Temperature(0.7),
	}
}

func (c Config) modelOr(stage, fallback string) string {
	if m := c.ModelForStage(stage); m != "" {
		return m
	}
	return fallback
}

func (c Config) maxTokensOr(fallback int) int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return fallback
}
