package llm

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dhabedank/learnstack/internal/core"
)

// CodexCLIAdapter uses the Codex CLI for generation.
type CodexCLIAdapter struct {
	binary string
	config Config
}

// NewCodexCLIAdapter creates a Codex CLI adapter.
func NewCodexCLIAdapter(config Config) *CodexCLIAdapter {
	return &CodexCLIAdapter{binary: "codex", config: config}
}

func (a *CodexCLIAdapter) Name() string {
	return "codex-cli"
}

// IsAvailable checks if the codex CLI is installed.
func (a *CodexCLIAdapter) IsAvailable() bool {
	_, err := exec.LookPath(a.binary)
	return err == nil
}

func (a *CodexCLIAdapter) Generate(ctx context.Context, call core.Call) (string, error) {
	// Codex has no system prompt flag; combine both prompts.
	combinedPrompt := fmt.Sprintf("SYSTEM INSTRUCTIONS:\n%s\n\nUSER REQUEST:\n%s", call.SystemPrompt, call.UserPrompt)

	cmd := exec.CommandContext(ctx, a.binary,
		"--model", a.config.modelOr(call.Stage, "o3"),
		"--quiet",
	)
	cmd.Stdin = strings.NewReader(combinedPrompt)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("codex CLI failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("codex CLI failed: %w", err)
	}

	return unwrapCLIResult(string(output)), nil
}
