// Command zebrasim runs Zebra-puzzle awareness simulations, serves them over
// HTTP, and summarizes their outputs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	_ = config.Load()

	rootCmd := &cobra.Command{
		Use:   "zebrasim",
		Short: "Zebra-puzzle situational awareness simulator",
		Long: `zebrasim simulates agents travelling a ring of houses, learning who lives
where and exchanging pets and houses, and records how much of the puzzle
each agent knows day by day.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logging.Setup(level, os.Stderr)
		},
	}

	rootCmd.PersistentFlags().String("log-level", config.LogLevel(), "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newBenchCmd(),
		newSummarizeCmd(),
	)
	return rootCmd
}
