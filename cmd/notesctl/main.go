package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notes-backend/internal/shared/telemetry"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "notesctl",
	Short: "Operator tooling for the notes service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			os.Setenv("CONFIG_FILE", cfgFile)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default config.yaml)")
	rootCmd.AddCommand(migrateCmd, tokenCmd, extractCmd)
}

func main() {
	defer telemetry.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
