package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dhabedank/learnstack/internal/tui"
)

// IsFirstRun reports whether neither a config file at configPath nor the
// initialized marker in stateDir exists.
func IsFirstRun(configPath, stateDir string) bool {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return false
		}
	}
	if stateDir == "" {
		return false
	}
	if _, err := os.Stat(filepath.Join(stateDir, ".initialized")); err == nil {
		return false
	}
	return true
}

// MarkInitialized creates the first-run marker.
func MarkInitialized(stateDir string) {
	if stateDir == "" {
		return
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(stateDir, ".initialized"), []byte{}, 0644)
}

// PrintFirstRunNotice prints a welcome message and marks the state dir initialized.
func PrintFirstRunNotice(w io.Writer, stateDir string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s Welcome to learnstack!\n", tui.TitleStyle.Render("*"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Quick start:")
	fmt.Fprintf(w, "    1. Set %s or %s, or run %s to pick models\n",
		tui.ModelStyle.Render("ANTHROPIC_API_KEY"),
		tui.ModelStyle.Render("GEMINI_API_KEY"),
		tui.ModelStyle.Render("learnstack setup"))
	fmt.Fprintf(w, "    2. Plan a project: %s\n", tui.ModelStyle.Render(`learnstack generate "a recipe-sharing web app"`))
	fmt.Fprintf(w, "    3. Or serve the API: %s\n", tui.ModelStyle.Render("learnstack serve"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", tui.HelpStyle.Render("Run 'learnstack --help' for all options"))
	fmt.Fprintln(w)

	MarkInitialized(stateDir)
}
