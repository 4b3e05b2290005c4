package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "forme",
	Short:         "Personal ingredient compatibility scoring",
	Long:          "forme scores product ingredient lists against your personal profile:\nallergies, sensitivities, and goals. Runs entirely on your machine.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(reactionCmd)
	rootCmd.AddCommand(analysesCmd)
	rootCmd.AddCommand(dictionaryCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
