package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dhabedank/learnstack/internal/core"
)

// ClaudeCLIAdapter uses the Claude Code CLI for generation.
// Handy locally because the CLI is already authenticated.
type ClaudeCLIAdapter struct {
	binary string
	config Config
}

// NewClaudeCLIAdapter creates a Claude CLI adapter.
func NewClaudeCLIAdapter(config Config) *ClaudeCLIAdapter {
	return &ClaudeCLIAdapter{binary: "claude", config: config}
}

func (a *ClaudeCLIAdapter) Name() string {
	return "claude-cli"
}

// IsAvailable checks if the claude CLI is installed.
func (a *ClaudeCLIAdapter) IsAvailable() bool {
	_, err := exec.LookPath(a.binary)
	return err == nil
}

func (a *ClaudeCLIAdapter) Generate(ctx context.Context, call core.Call) (string, error) {
	// The system prompt goes through a file; long prompts on argv hit size limits.
	systemFile, err := os.CreateTemp("", "learnstack-system-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create system prompt file: %w", err)
	}
	defer os.Remove(systemFile.Name())

	if _, err := systemFile.WriteString(call.SystemPrompt); err != nil {
		systemFile.Close()
		return "", fmt.Errorf("failed to write system prompt: %w", err)
	}
	systemFile.Close()

	cmd := exec.CommandContext(ctx, a.binary,
		"--model", a.config.modelOr(call.Stage, defaultAnthropicModel),
		"--system-prompt-file", systemFile.Name(),
		"--print",
		"--output-format", "text",
	)
	cmd.Stdin = strings.NewReader(call.UserPrompt)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("claude CLI failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("claude CLI failed: %w", err)
	}

	return unwrapCLIResult(string(output)), nil
}

// unwrapCLIResult returns the "result" field when the CLI printed its JSON
// envelope instead of plain text.
func unwrapCLIResult(output string) string {
	trimmed := strings.TrimSpace(output)
	if !strings.HasPrefix(trimmed, "{") {
		return output
	}
	var envelope struct {
		Type   string `json:"type"`
		Result string `json:"result"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return output
	}
	if envelope.Type == "result" && envelope.Result != "" {
		return envelope.Result
	}
	return output
}
