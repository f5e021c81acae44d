package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhabedank/learnstack/cmd"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "learnstack",
		Short:         "Plan a learning project: curated tech stack plus phased tasks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			if c.Name() == "generate" || c.Name() == "setup" {
				cmd.Welcome(c.ErrOrStderr())
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&cmd.ConfigFile, "config", "", "Config file (default: .learnstack.yaml or ~/.learnstack.yaml)")

	rootCmd.AddCommand(
		cmd.GenerateCmd,
		cmd.ServeCmd,
		cmd.SetupCmd,
		cmd.NewVersionCmd(version),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
