package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dhabedank/learnstack/internal/config"
	"github.com/dhabedank/learnstack/internal/llm"
	"github.com/dhabedank/learnstack/internal/tui"
)

var resetConfig bool

// SetupCmd represents the setup command.
var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Long: `Configure learnstack with an interactive wizard.

This wizard helps you select models for each planning stage:
- Research model: surveys candidate technologies for the project
- Curation model: turns the research into a JSON tech stack
- Task model: writes the tasks for each development phase

Configuration is saved to ~/.learnstack.yaml (or the --config path)`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	SetupCmd.Flags().BoolVar(&resetConfig, "reset", false, "Reset configuration to defaults")
}

// setupSteps are the stages the wizard asks about, in order.
var setupSteps = []string{"Research", "Curation", "Task"}

func runSetup(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configPath, err := setupPath()
	if err != nil {
		return err
	}

	if resetConfig {
		if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove config: %w", err)
		}
		fmt.Fprintln(out, tui.SuccessStyle.Render("✓")+" Configuration reset to defaults")
		fmt.Fprintf(out, "  Removed: %s\n", configPath)
		return nil
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	models := llm.AllModels(cfg.LLM)
	if len(models) == 0 {
		return fmt.Errorf("no LLM providers detected. Set ANTHROPIC_API_KEY or GEMINI_API_KEY, or install Claude Code or Codex CLI")
	}

	p := tea.NewProgram(newSetupModel(models))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	final := m.(setupModel)
	if final.cancelled {
		fmt.Fprintln(out, "Setup cancelled")
		return nil
	}

	research, curation, task := final.selectedModels[0], final.selectedModels[1], final.selectedModels[2]
	if err := config.SaveModels(configPath, research, curation, task); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.SuccessStyle.Render("✓")+" Configuration saved to "+configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Selected models:")
	fmt.Fprintf(out, "  Research: %s\n", tui.ModelStyle.Render(research))
	fmt.Fprintf(out, "  Curation: %s\n", tui.ModelStyle.Render(curation))
	fmt.Fprintf(out, "  Task:     %s\n", tui.ModelStyle.Render(task))
	return nil
}

func setupPath() (string, error) {
	if ConfigFile != "" {
		return ConfigFile, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return config.FileName, nil
	}
	return path, nil
}

// Bubble Tea model for the setup wizard

type setupModel struct {
	step           int // index into setupSteps
	lists          []list.Model
	selectedModels []string
	cancelled      bool
	width          int
	height         int
}

type modelItem struct {
	info llm.ModelInfo
}

func (m modelItem) Title() string       { return m.info.Name }
func (m modelItem) Description() string { return m.info.Description }
func (m modelItem) FilterValue() string { return m.info.Name }

func newSetupModel(models []llm.ModelInfo) setupModel {
	items := make([]list.Item, len(models))
	for i, m := range models {
		items[i] = modelItem{info: m}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(tui.ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(tui.ColorMuted)

	lists := make([]list.Model, len(setupSteps))
	for i, step := range setupSteps {
		l := list.New(items, delegate, 60, 14)
		l.Title = fmt.Sprintf("Select %s Model (Stage %d)", step, i+1)
		l.SetShowStatusBar(false)
		l.SetFilteringEnabled(false)
		l.Styles.Title = tui.TitleStyle
		lists[i] = l
	}

	return setupModel{
		lists:          lists,
		selectedModels: make([]string, len(setupSteps)),
	}
}

func (m setupModel) Init() tea.Cmd {
	return nil
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetWidth(msg.Width)
			m.lists[i].SetHeight(msg.Height - 4)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if item, ok := m.lists[m.step].SelectedItem().(modelItem); ok {
				m.selectedModels[m.step] = item.info.ID
			}
			if m.step == len(setupSteps)-1 {
				return m, tea.Quit
			}
			m.step++
			return m, nil

		case "left", "h":
			if m.step > 0 {
				m.step--
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.lists[m.step], cmd = m.lists[m.step].Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	if m.cancelled {
		return ""
	}

	progress := "\n  "
	for i, s := range setupSteps {
		switch {
		case i == m.step:
			progress += tui.SelectedStyle.Render(fmt.Sprintf("[%s]", s))
		case i < m.step:
			progress += tui.SuccessStyle.Render(fmt.Sprintf("✓ %s", s))
		default:
			progress += tui.UnselectedStyle.Render(fmt.Sprintf("○ %s", s))
		}
		if i < len(setupSteps)-1 {
			progress += " → "
		}
	}
	progress += "\n\n"

	help := tui.HelpStyle.Render("\n  ↑/↓: navigate • enter: select • ←: back • q: quit")

	return progress + m.lists[m.step].View() + help
}
