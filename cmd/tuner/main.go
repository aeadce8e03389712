// Command tuner searches for a strategy that maximizes one agent's situational
// awareness, running sessions through the zebrasim HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/logging"
	"github.com/talgya/zebra-sa/internal/tuner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	_ = config.Load()
	def := tuner.DefaultOptions()

	cmd := &cobra.Command{
		Use:          "tuner",
		Short:        "Random search over one agent's strategy",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			level, _ := flags.GetString("log-level")
			logging.Setup(level, os.Stderr)

			opts := def
			opts.Agents, _ = flags.GetInt("agents")
			opts.Houses, _ = flags.GetInt("houses")
			opts.Days, _ = flags.GetInt("days")
			opts.Share, _ = flags.GetString("share")
			opts.Noise, _ = flags.GetFloat64("noise")
			opts.Who, _ = flags.GetString("who")
			opts.Iters, _ = flags.GetInt("iters")
			opts.Seeds, _ = flags.GetInt64Slice("seeds")
			opts.Tail, _ = flags.GetInt("tail")
			opts.RNGSeed, _ = flags.GetInt64("rng-seed")
			opts.Parallel, _ = flags.GetInt("parallel")
			mode, _ := flags.GetString("score")
			var err error
			if opts.Mode, err = tuner.ParseScoreMode(mode); err != nil {
				return err
			}
			apiURL, _ := flags.GetString("api")
			wait, _ := flags.GetDuration("wait")
			outDir, _ := flags.GetString("out-dir")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := tuner.NewClient(apiURL, config.AdminKey())
			readyCtx, cancel := context.WithTimeout(ctx, wait)
			defer cancel()
			slog.Info("waiting for API", "api_url", apiURL)
			if err := client.WaitReady(readyCtx); err != nil {
				return err
			}

			slog.Info("tuner starting", "who", opts.Who, "iters", opts.Iters, "seeds", opts.Seeds, "score", opts.Mode)
			out, err := tuner.New(client, opts).Search(ctx)
			if err != nil {
				return err
			}
			trials, best, err := tuner.WriteOutcome(outDir, out)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "baseline %.4f  best %.4f  %s\n", out.Baseline.Score, out.Best.Score, out.Best.Strategy)
			fmt.Fprintf(w, "saved %s\nsaved %s\n", best, trials)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("api", config.APIURL(), "Session API base URL")
	f.Int("agents", def.Agents, "Number of agents")
	f.Int("houses", def.Houses, "Number of houses")
	f.Int("days", def.Days, "Days per run")
	f.String("share", def.Share, "Belief sharing: none or meet")
	f.Float64("noise", def.Noise, "Learning noise")
	f.String("who", def.Who, "Agent whose strategy is tuned")
	f.Int("iters", def.Iters, "Random candidates after the initial one")
	f.Int64Slice("seeds", def.Seeds, "Seeds each candidate is evaluated on")
	f.String("score", string(def.Mode), "Score: final or mean_tail")
	f.Int("tail", def.Tail, "Days averaged by mean_tail")
	f.Int64("rng-seed", def.RNGSeed, "Seed of the candidate sampler")
	f.Int("parallel", 0, "Concurrent sessions per candidate (0 = one per seed)")
	f.Duration("wait", 5*time.Minute, "How long to wait for the API to come up")
	f.String("out-dir", config.DataDir(), "Where mt_trials.csv and mt_best.yaml go")
	f.String("log-level", config.LogLevel(), "Log level")
	return cmd
}
