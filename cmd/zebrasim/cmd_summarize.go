package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/zebra-sa/internal/report"
)

func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Export per-agent awareness series and an event summary",
		Long: `Read a metrics table and export awareness-NN.csv and awareness-NN.yaml for
each agent, keeping days up to --t. With --events, also count the event log
by kind into events_summary.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			metricsPath, _ := flags.GetString("metrics")
			eventsPath, _ := flags.GetString("events")
			maxDay, _ := flags.GetInt("t")
			onlyFirst, _ := flags.GetInt("only-first")
			outDir, _ := flags.GetString("out-dir")
			w := cmd.OutOrStdout()

			table, err := readTable(metricsPath)
			if err != nil {
				return err
			}
			series, err := report.AgentSeries(table, maxDay, onlyFirst)
			if err != nil {
				return fmt.Errorf("%s: %w", metricsPath, err)
			}
			paths, err := report.ExportAwareness(outDir, series)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "exported %d agents (%d files) to %s\n", len(series), len(paths), outDir)

			if eventsPath == "" {
				return nil
			}
			f, err := os.Open(eventsPath)
			if err != nil {
				return err
			}
			defer f.Close()
			events, err := report.ReadEvents(f)
			if err != nil {
				return fmt.Errorf("%s: %w", eventsPath, err)
			}
			summary := report.SummarizeEvents(events)

			out, err := os.Create(filepath.Join(outDir, "events_summary.yaml"))
			if err != nil {
				return err
			}
			defer out.Close()
			if err := report.WriteEventsSummary(out, summary); err != nil {
				return err
			}
			fmt.Fprintf(w, "events: %d over %d days -> %s\n", len(events), summary.DaysMax, out.Name())
			return out.Close()
		},
	}
	cmd.Flags().String("metrics", "", "Metrics table (required)")
	cmd.Flags().String("events", "", "Event log CSV")
	cmd.Flags().Int("t", 500, "Last day to keep (0 = all)")
	cmd.Flags().Int("only-first", 0, "Keep only the first N agents (0 = all)")
	cmd.Flags().String("out-dir", ".", "Output directory")
	_ = cmd.MarkFlagRequired("metrics")
	return cmd
}

func readTable(path string) (*report.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := report.ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
