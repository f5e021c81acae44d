package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhabedank/learnstack/internal/version"
)

// NewVersionCmd prints the build version and optionally checks for a newer release.
func NewVersionCmd(current string) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and check for updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "learnstack %s\n", current)
			if !check {
				return nil
			}

			checker := version.NewChecker()
			checker.Throttled = false
			result, err := checker.Check(cmd.Context(), current)
			if err != nil {
				return fmt.Errorf("update check failed: %w", err)
			}
			if result == nil || !result.UpdateAvailable {
				fmt.Fprintln(out, "You are on the latest version")
				return nil
			}
			version.PrintUpdateNotice(out, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}
