package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhabedank/learnstack/internal/core"
	"github.com/dhabedank/learnstack/internal/llm"
	"github.com/dhabedank/learnstack/internal/output"
	"github.com/dhabedank/learnstack/internal/tui"
)

var (
	genPriority     string
	genKnown        []string
	genDisliked     []string
	genStarred      []string
	genFile         string
	genOutput       string
	genOutputPath   string
	genDryRun       bool
	genFromJSON     string // Resume from checkpoint
	genSaveJSON     string // Save checkpoint
	genPlaceholders bool
	genLLM          llmFlags
)

// GenerateCmd plans a project from the command line.
var GenerateCmd = &cobra.Command{
	Use:   "generate [description]",
	Short: "Generate a tech stack and task plan for a project idea",
	Long: `Generate a learning plan for a project idea.

The planner asks the model to:
- Research and curate a tech stack for each development phase
- Write tasks and subtasks for setup, frontend, backend, testing, deploy and maintain

The plan is printed as JSON or written to beads as one epic per phase.`,
	Example: `  learnstack generate "a recipe-sharing web app" --priority speed --known react
  learnstack generate --file idea.txt --output beads --dry-run
  learnstack generate --from-json plan.json --output beads`,
	RunE: runGenerate,
}

func init() {
	// Request options
	GenerateCmd.Flags().StringVarP(&genPriority, "priority", "p", "Learning", "What to optimise for (speed/scalability/learning)")
	GenerateCmd.Flags().StringSliceVar(&genKnown, "known", nil, "Technologies you already know")
	GenerateCmd.Flags().StringSliceVar(&genDisliked, "disliked", nil, "Technologies to avoid")
	GenerateCmd.Flags().StringSliceVar(&genStarred, "starred", nil, "Technologies you want to use")
	GenerateCmd.Flags().StringVarP(&genFile, "file", "f", "", "Read the project description from a file")
	GenerateCmd.Flags().BoolVar(&genPlaceholders, "placeholders", true, "Add a placeholder task for phases without tasks")

	// LLM options
	genLLM.register(GenerateCmd)

	// Output options
	GenerateCmd.Flags().StringVarP(&genOutput, "output", "o", "json", "Output adapter (json/beads)")
	GenerateCmd.Flags().StringVar(&genOutputPath, "output-path", "", "Output path for JSON adapter")
	GenerateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Preview without creating items")

	// Checkpoint/resume options
	GenerateCmd.Flags().StringVar(&genFromJSON, "from-json", "", "Resume from saved JSON plan (skip LLM)")
	GenerateCmd.Flags().StringVar(&genSaveJSON, "save-json", "", "Save generated plan to file (for resume)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var plan *core.Plan
	if genFromJSON != "" {
		fmt.Fprintf(out, "Resuming from checkpoint: %s\n", genFromJSON)
		loaded, err := output.LoadPlan(genFromJSON)
		if err != nil {
			return err
		}
		tasks, subtasks := loaded.Stats()
		fmt.Fprintf(out, "Loaded %d tasks and %d subtasks from checkpoint\n", tasks, subtasks)
		plan = loaded
	} else {
		description, err := readDescription(args, genFile)
		if err != nil {
			return err
		}
		plan, err = generatePlan(cmd, out, description)
		if err != nil {
			return err
		}

		if genSaveJSON != "" {
			if err := savePlan(genSaveJSON, plan); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved checkpoint to: %s\n", genSaveJSON)
		}
	}

	return writePlan(out, plan)
}

// readDescription takes the description from the arguments or from a file, not both.
func readDescription(args []string, file string) (string, error) {
	if file != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("pass a description or --file, not both")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read description: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	description := strings.TrimSpace(strings.Join(args, " "))
	if description == "" {
		return "", fmt.Errorf("a project description is required (argument or --file)")
	}
	return description, nil
}

func generatePlan(cmd *cobra.Command, out io.Writer, description string) (*core.Plan, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	genLLM.apply(cmd, &cfg.LLM)

	adapter, err := llm.DetectBestAdapter(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM adapter: %w", err)
	}
	fmt.Fprintf(out, "Using LLM: %s\n", tui.ModelStyle.Render(adapter.Name()))

	plannerConfig := cfg.PlannerConfig()
	if cmd.Flags().Changed("placeholders") {
		plannerConfig.PlaceholderTasks = genPlaceholders
	}

	reporter := tui.NewReporter(out, modelLabel(cfg.LLM, adapter))
	planner := core.NewPlanner(adapter, plannerConfig, reporter, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.RequestTimeout)
	defer cancel()

	plan, err := planner.Plan(ctx, core.PlanRequest{
		Description: description,
		Priority:    genPriority,
		Background: core.UserBackground{
			KnownTech:    genKnown,
			DislikedTech: genDisliked,
			StarredTech:  genStarred,
		},
	})
	fmt.Fprint(out, reporter.Summary())
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	fmt.Fprintf(out, "Project: %s  Level: %s  Priority: %s\n",
		tui.StageStyle.Render(string(plan.ProjectType)), plan.ExperienceLevel, plan.Priority)
	printWarnings(out, plan.Warnings)
	return plan, nil
}

func printWarnings(out io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(out, tui.WarningStyle.Render("⚠ Plan is incomplete:"))
	for _, w := range warnings {
		fmt.Fprintf(out, "  • %s\n", w)
	}
}

func savePlan(path string, plan *core.Plan) error {
	data, err := output.MarshalPlan(plan)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func writePlan(out io.Writer, plan *core.Plan) error {
	outConfig := output.DefaultConfig()
	outConfig.DryRun = genDryRun
	outConfig.Out = out

	adapter, err := output.New(genOutput, outConfig, genOutputPath)
	if err != nil {
		return err
	}
	if !genDryRun {
		if available, _ := adapter.IsAvailable(); !available {
			return fmt.Errorf("%s not available - run 'bd init' first", adapter.Name())
		}
	}

	result, err := adapter.CreateItems(plan, outConfig)
	if err != nil {
		// Auto-save checkpoint on failure for retry
		checkpointPath := filepath.Join(os.TempDir(), "learnstack-checkpoint.json")
		_ = savePlan(checkpointPath, plan)
		return fmt.Errorf("writing plan failed: %w\n\nCheckpoint saved to: %s\nRetry with: learnstack generate --from-json %s --output %s",
			err, checkpointPath, checkpointPath, adapter.Name())
	}

	if adapter.Name() == "json" && genOutputPath == "" && !genDryRun {
		return nil
	}

	fmt.Fprintln(out, "\n--- Summary ---")
	fmt.Fprintf(out, "Phases: %d\n", result.Stats.Epics)
	fmt.Fprintf(out, "Tasks: %d\n", result.Stats.Tasks)
	fmt.Fprintf(out, "Subtasks: %d\n", result.Stats.Subtasks)
	fmt.Fprintf(out, "Dependencies: %d\n", result.Stats.Dependencies)

	if len(result.Failed) > 0 {
		fmt.Fprintf(out, "\nFailed to create %d items:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(out, "  - %s %s: %s\n", f.Item.Type, f.Item.LocalID, f.Error)
		}
	}
	return nil
}
