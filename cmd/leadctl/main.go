package main

import (
	"os"

	"github.com/spf13/cobra"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "leadctl",
		Short:        "Smoke tests for the lead relay integrations",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to .env file")

	rootCmd.AddCommand(
		scoreCmd(),
		sendCmd(),
		relayCmd(),
		statusCmd(),
		simulateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
