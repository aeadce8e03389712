package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/zebra-sa/internal/api"
	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/engine"
	"github.com/talgya/zebra-sa/internal/report"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and write its event log, XML and metrics",
		Long: `Run one simulation. Settings come from --config (a YAML run file) and
are overridden by any flag given explicitly.

Writes game_<id>.csv, game_<id>.xml and metrics_<id>.csv into --out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runConfig(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				id = cfg.SessionID
			}
			if id == "" {
				id = api.NewSessionID()
			}
			cfg.SessionID = id

			res, err := engine.Run(cfg)
			if err != nil {
				return err
			}
			files, err := report.WriteRun(out, id, res)
			if err != nil {
				return err
			}

			slog.Info("run finished", "id", id, "seed", res.Seed, "source", res.Source, "events", len(res.Events))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "seed:    %d\n", res.Seed)
			if n := len(res.Metrics); n > 0 {
				last := res.Metrics[n-1]
				fmt.Fprintf(w, "day %d:  avg_sa_any=%.4f avg_sa_m1=%.4f\n", last.Day, last.AvgSAAny, last.AvgSAM1)
			}
			fmt.Fprintf(w, "events:  %s\n", files.CSV)
			fmt.Fprintf(w, "xml:     %s\n", files.XML)
			fmt.Fprintf(w, "metrics: %s\n", files.Metrics)
			return nil
		},
	}

	def := config.Default()
	cmd.Flags().String("config", "", "YAML run file")
	cmd.Flags().String("out", config.DataDir(), "Output directory")
	cmd.Flags().String("id", "", "Run id used in output names (random when empty)")
	cmd.Flags().Int("agents", def.Agents, "Number of agents")
	cmd.Flags().Int("houses", def.Houses, "Number of houses on the ring")
	cmd.Flags().Int("days", def.Days, "Days to simulate")
	cmd.Flags().String("share", string(def.Share), "Belief sharing on meetings: none or meet")
	cmd.Flags().Float64("noise", def.Noise, "Probability a learned fact is corrupted")
	cmd.Flags().Int64("seed", 0, "Random seed (derived from the run id when unset)")
	cmd.Flags().Int("sa-sample", def.SASample, "Agents sampled per day for avg_sa_m1 (0 = all)")
	cmd.Flags().StringSlice("track", nil, "Agents whose own series are recorded")
	cmd.Flags().Bool("track-all", false, "Record the series of every agent")
	cmd.Flags().String("init", "", "Puzzle instance CSV")
	cmd.Flags().String("strategies", "", "Strategy table CSV")
	return cmd
}

// runConfig builds the run configuration from --config and explicit flags.
func runConfig(cmd *cobra.Command) (config.Run, error) {
	cfg := config.Default()
	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = config.LoadRunFile(path); err != nil {
			return config.Run{}, err
		}
	}

	if flags.Changed("agents") {
		cfg.Agents, _ = flags.GetInt("agents")
	}
	if flags.Changed("houses") {
		cfg.Houses, _ = flags.GetInt("houses")
	}
	if flags.Changed("days") {
		cfg.Days, _ = flags.GetInt("days")
	}
	if flags.Changed("share") {
		share, _ := flags.GetString("share")
		cfg.Share = config.ShareMode(share)
	}
	if flags.Changed("noise") {
		cfg.Noise, _ = flags.GetFloat64("noise")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Seed = &seed
	}
	if flags.Changed("sa-sample") {
		cfg.SASample, _ = flags.GetInt("sa-sample")
	}
	if flags.Changed("track") {
		cfg.Track, _ = flags.GetStringSlice("track")
	}
	if flags.Changed("track-all") {
		cfg.TrackAll, _ = flags.GetBool("track-all")
	}
	if flags.Changed("init") {
		cfg.InitPath, _ = flags.GetString("init")
	}
	if flags.Changed("strategies") {
		cfg.StrategyPath, _ = flags.GetString("strategies")
	}
	return cfg, cfg.Validate()
}
