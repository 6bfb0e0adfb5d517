package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/content-quality/logging"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contentaudit",
		Short: "Evaluate the quality of web content",
		Long: `contentaudit scores HTML or plain-text documents for SEO, readability,
content depth and technical quality, and prints prioritized recommendations.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewEvaluateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// setupLogger logs to stderr so reports on stdout stay parseable.
func setupLogger(verbose bool) (logging.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{Level: level, OutputPaths: []string{"stderr"}})
}
