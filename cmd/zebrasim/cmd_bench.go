package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/zebra-sa/internal/bench"
	"github.com/talgya/zebra-sa/internal/config"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time runs across population sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bench.DefaultOptions()
			flags := cmd.Flags()
			opts.MaxAgents, _ = flags.GetInt("max-agents")
			opts.Step, _ = flags.GetInt("step")
			opts.Days, _ = flags.GetInt("days")
			opts.Runs, _ = flags.GetInt("runs")
			opts.Seed, _ = flags.GetInt64("seed")
			opts.Houses, _ = flags.GetInt("houses")
			share, _ := flags.GetString("share")
			opts.Share = config.ShareMode(share)
			opts.InitPath, _ = flags.GetString("init")
			opts.StrategyPath, _ = flags.GetString("strategies")
			out, _ := flags.GetString("out")

			rows, err := bench.Run(opts)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := bench.WriteCSV(f, rows); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", out)
			return f.Close()
		},
	}

	def := bench.DefaultOptions()
	cmd.Flags().Int("max-agents", def.MaxAgents, "Largest population")
	cmd.Flags().Int("step", def.Step, "Population step")
	cmd.Flags().Int("days", def.Days, "Days per run")
	cmd.Flags().Int("runs", def.Runs, "Runs per population size")
	cmd.Flags().Int64("seed", def.Seed, "Seed of the first run")
	cmd.Flags().Int("houses", def.Houses, "Number of houses")
	cmd.Flags().String("share", string(def.Share), "Belief sharing: none or meet")
	cmd.Flags().String("init", "", "Puzzle instance CSV")
	cmd.Flags().String("strategies", "", "Strategy table CSV")
	cmd.Flags().String("out", filepath.Join(config.DataDir(), "bench.csv"), "Output CSV")
	return cmd
}
