package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dhabedank/learnstack/internal/config"
	"github.com/dhabedank/learnstack/internal/llm"
	"github.com/dhabedank/learnstack/internal/version"
)

// ConfigFile is the --config flag shared by every command.
var ConfigFile string

// llmFlags are the provider overrides accepted by commands that call a model.
type llmFlags struct {
	provider string
	model    string
}

func (f *llmFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.provider, "llm", "l", "", "LLM provider (anthropic-api/gemini-api/claude-cli/codex-cli, default auto)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model to use for every stage (provider-specific)")
}

// apply overrides config values only for flags the user set explicitly.
func (f *llmFlags) apply(cmd *cobra.Command, cfg *llm.Config) {
	if cmd.Flags().Changed("llm") && f.provider != "auto" {
		cfg.Provider = f.provider
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = f.model
		cfg.ResearchModel = ""
		cfg.CurationModel = ""
		cfg.TaskModel = ""
	}
}

// loadConfig loads settings and builds a logger that writes to stderr.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	if err := cfg.Log.ConfigureLogger(logger); err != nil {
		return nil, nil, err
	}
	if cfg.Path != "" {
		logger.WithField("path", cfg.Path).Debug("loaded config")
	}
	return cfg, logger, nil
}

// modelLabel names the model a stage runs on, for progress output.
func modelLabel(cfg llm.Config, adapter llm.Adapter) func(stage string) string {
	return func(stage string) string {
		if m := cfg.ModelForStage(stage); m != "" {
			return m
		}
		return adapter.Name()
	}
}

// Welcome prints the first-run notice once per machine.
func Welcome(w io.Writer) {
	path, err := config.DefaultPath()
	if err != nil {
		return
	}
	if version.IsFirstRun(path, version.StateDir()) {
		version.PrintFirstRunNotice(w, version.StateDir())
	}
}
