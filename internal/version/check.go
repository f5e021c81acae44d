package version

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/dhabedank/learnstack/internal/tui"
)

const (
	// GitHubRepo is the repository for version checks.
	GitHubRepo = "dhabedank/learnstack"

	// CheckInterval is how often to check for updates (24 hours).
	CheckInterval = 24 * time.Hour

	defaultAPIBase = "https://api.github.com"
)

// GitHubRelease represents a GitHub release.
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckResult holds the result of a version check.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	ReleaseURL      string
}

// Checker looks up the latest release, at most once per CheckInterval unless forced.
type Checker struct {
	APIBase   string
	StateDir  string // holds the last-check marker; empty disables throttling
	Client    *http.Client
	Throttled bool
}

// NewChecker returns a checker against GitHub with its marker under ~/.learnstack.
func NewChecker() *Checker {
	return &Checker{
		APIBase:   defaultAPIBase,
		StateDir:  StateDir(),
		Client:    &http.Client{Timeout: 5 * time.Second},
		Throttled: true,
	}
}

// StateDir returns ~/.learnstack, or "" when the home directory is unknown.
func StateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".learnstack")
}

// Check reports whether a newer version than currentVersion exists.
// It returns nil, nil for dev builds and throttled checks.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*CheckResult, error) {
	if currentVersion == "dev" || currentVersion == "" {
		return nil, nil
	}
	if c.Throttled && c.checkedRecently() {
		return nil, nil
	}
	c.markChecked()

	latest, err := c.fetchLatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		CurrentVersion: currentVersion,
		LatestVersion:  latest.TagName,
		ReleaseURL:     latest.HTMLURL,
	}
	result.UpdateAvailable = isNewerVersion(
		strings.TrimPrefix(latest.TagName, "v"),
		strings.TrimPrefix(currentVersion, "v"),
	)
	return result, nil
}

// PrintUpdateNotice prints a notice if an update is available.
func PrintUpdateNotice(w io.Writer, result *CheckResult) {
	if result == nil || !result.UpdateAvailable {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s A new version of learnstack is available: %s (you have %s)\n",
		tui.WarningStyle.Render("!"),
		tui.SuccessStyle.Render(result.LatestVersion),
		result.CurrentVersion,
	)
	fmt.Fprintf(w, "  Update: %s\n", tui.HelpStyle.Render("go install github.com/"+GitHubRepo+"@latest"))
	if result.ReleaseURL != "" {
		fmt.Fprintf(w, "  Notes: %s\n", tui.HelpStyle.Render(result.ReleaseURL))
	}
	fmt.Fprintln(w)
}

func (c *Checker) fetchLatestRelease(ctx context.Context) (*GitHubRelease, error) {
	base := strings.TrimRight(c.APIBase, "/")
	if base == "" {
		base = defaultAPIBase
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", base, GitHubRepo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}
	return &release, nil
}

func (c *Checker) markerPath() string {
	if c.StateDir == "" {
		return ""
	}
	return filepath.Join(c.StateDir, ".last-update-check")
}

func (c *Checker) checkedRecently() bool {
	path := c.markerPath()
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < CheckInterval
}

func (c *Checker) markChecked() {
	path := c.markerPath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(c.StateDir, 0755); err != nil {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.WriteFile(path, []byte{}, 0644)
	} else {
		now := time.Now()
		_ = os.Chtimes(path, now, now)
	}
}

// isNewerVersion returns true if latest is newer than current.
// Simple comparison: splits by dots and compares numerically.
func isNewerVersion(latest, current string) bool {
	latestParts := strings.Split(latest, ".")
	currentParts := strings.Split(current, ".")

	for i := 0; i < len(latestParts) && i < len(currentParts); i++ {
		l := parseVersionPart(latestParts[i])
		c := parseVersionPart(currentParts[i])

		if l > c {
			return true
		}
		if l < c {
			return false
		}
	}

	// If all compared parts are equal, longer version is newer
	return len(latestParts) > len(currentParts)
}

// parseVersionPart extracts a number from a version part (e.g., "1" from "1-beta").
func parseVersionPart(s string) int {
	var n int
	_, _ = fmt.Sscanf(s, "%d", &n)
	return n
}
