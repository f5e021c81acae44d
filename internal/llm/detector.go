package llm

import (
	"fmt"
	"os"
	"os/exec"
)

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string // Model identifier (e.g., "claude-opus-4-5-20251101")
	Name        string // Human-readable name (e.g., "Claude Opus 4.5")
	Description string // Brief description
	Provider    string // Provider name (e.g., "anthropic", "google", "openai")
}

// claudeModels lists Claude models usable via the API or the CLI.
var claudeModels = []ModelInfo{
	{ID: "claude-opus-4-5-20251101", Name: "Claude Opus 4.5", Description: "Premium model, maximum intelligence ($5/$25 per MTok)", Provider: "anthropic"},
	{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", Description: "Best balance of speed and capability ($3/$15 per MTok)", Provider: "anthropic"},
	{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5", Description: "Fastest, most cost-effective ($1/$5 per MTok)", Provider: "anthropic"},
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", Description: "Previous balanced model ($3/$15 per MTok)", Provider: "anthropic"},
	{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Description: "Legacy budget model ($0.25/$1.25 per MTok)", Provider: "anthropic"},
}

// geminiModels lists Gemini models usable via the API.
var geminiModels = []ModelInfo{
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Most capable Gemini model ($1.25/$10 per MTok)", Provider: "google"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Fast with thinking ($0.30/$2.50 per MTok)", Provider: "google"},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Description: "Fast and cheap, the default ($0.10/$0.40 per MTok)", Provider: "google"},
}

// codexModels lists Codex/OpenAI models available via CLI.
var codexModels = []ModelInfo{
	{ID: "o3", Name: "O3", Description: "Most capable reasoning model", Provider: "openai"},
	{ID: "o3-mini", Name: "O3 Mini", Description: "Fast reasoning model", Provider: "openai"},
	{ID: "gpt-4o", Name: "GPT-4o", Description: "Fast multimodal model", Provider: "openai"},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Most cost-effective", Provider: "openai"},
}

// AvailableModels returns models grouped by provider based on configured keys and installed CLIs.
func AvailableModels(config Config) map[string][]ModelInfo {
	result := make(map[string][]ModelInfo)

	if hasAnthropicKey(config) || hasBinary("claude") {
		result["anthropic"] = claudeModels
	}
	if hasGeminiKey(config) {
		result["google"] = geminiModels
	}
	if hasBinary("codex") {
		result["openai"] = codexModels
	}
	return result
}

// AllModels returns a flat list of all available models, Claude first.
func AllModels(config Config) []ModelInfo {
	available := AvailableModels(config)
	var result []ModelInfo
	for _, provider := range []string{"anthropic", "google", "openai"} {
		result = append(result, available[provider]...)
	}
	return result
}

// NewAdapter builds the named adapter.
func NewAdapter(name string, config Config) (Adapter, error) {
	switch name {
	case "anthropic-api", "anthropic", "api":
		return NewAnthropicAPIAdapter(config)
	case "gemini-api", "gemini":
		return NewGeminiAPIAdapter(config)
	case "claude-cli", "claude":
		return NewClaudeCLIAdapter(config), nil
	case "codex-cli", "codex":
		return NewCodexCLIAdapter(config), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (use anthropic-api, gemini-api, claude-cli, or codex-cli)", name)
	}
}

// DetectBestAdapter finds the best available LLM adapter.
// An explicit Provider wins; otherwise: Anthropic API > Gemini API > Claude CLI > Codex CLI.
func DetectBestAdapter(config Config) (Adapter, error) {
	if config.Provider != "" {
		adapter, err := NewAdapter(config.Provider, config)
		if err != nil {
			return nil, err
		}
		if !adapter.IsAvailable() {
			return nil, fmt.Errorf("provider %s is not available", adapter.Name())
		}
		return adapter, nil
	}

	for _, name := range ListAvailableAdapters(config) {
		if adapter, err := NewAdapter(name, config); err == nil {
			return adapter, nil
		}
	}

	return nil, fmt.Errorf("no LLM adapter available - set ANTHROPIC_API_KEY or GEMINI_API_KEY, or install Claude Code or Codex")
}

// ListAvailableAdapters returns all adapters that could be used, in preference order.
func ListAvailableAdapters(config Config) []string {
	available := []string{}

	if hasAnthropicKey(config) {
		available = append(available, "anthropic-api")
	}
	if hasGeminiKey(config) {
		available = append(available, "gemini-api")
	}
	if hasBinary("claude") {
		available = append(available, "claude-cli")
	}
	if hasBinary("codex") {
		available = append(available, "codex-cli")
	}
	return available
}

func hasAnthropicKey(config Config) bool {
	return config.APIKey != "" || os.Getenv("ANTHROPIC_API_KEY") != ""
}

func hasGeminiKey(config Config) bool {
	return config.GeminiAPIKey != "" || os.Getenv("GEMINI_API_KEY") != ""
}

func hasBinary(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
