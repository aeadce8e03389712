// Package bench times simulation runs across population sizes.
package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/engine"
)

// Header is the first row of the benchmark CSV.
var Header = []string{"n_agents", "t_ms_avg", "t_ms_std"}

// Options configures a benchmark sweep.
type Options struct {
	MaxAgents    int
	Step         int
	Days         int
	Runs         int
	Seed         int64
	Houses       int
	Share        config.ShareMode
	InitPath     string
	StrategyPath string
}

// DefaultOptions returns the sweep defaults: 50..1000 agents in steps of 50,
// 200 days, 5 runs each.
func DefaultOptions() Options {
	return Options{
		MaxAgents: 1000,
		Step:      50,
		Days:      200,
		Runs:      5,
		Seed:      1,
		Houses:    6,
		Share:     config.ShareNone,
	}
}

// Row is the timing of one population size.
type Row struct {
	Agents int
	AvgMS  float64
	StdMS  float64
}

// Run times Runs simulations for every size from Step to MaxAgents. Run r of
// each size uses seed Seed+r. Only the simulated days are timed, not
// population setup.
func Run(opts Options) ([]Row, error) {
	if opts.Step <= 0 || opts.Runs <= 0 || opts.MaxAgents < opts.Step {
		return nil, errors.New("bench: need step > 0, runs > 0 and max agents >= step")
	}

	var rows []Row
	for n := opts.Step; n <= opts.MaxAgents; n += opts.Step {
		times := make([]float64, 0, opts.Runs)
		for r := 0; r < opts.Runs; r++ {
			ms, err := timeOne(opts, n, opts.Seed+int64(r))
			if err != nil {
				return nil, fmt.Errorf("bench n=%d run=%d: %w", n, r, err)
			}
			times = append(times, ms)
		}
		row := Row{Agents: n, AvgMS: mean(times), StdMS: stddev(times)}
		slog.Info("bench size done", "agents", n, "avg_ms", fmt.Sprintf("%.1f", row.AvgMS), "std_ms", fmt.Sprintf("%.1f", row.StdMS))
		rows = append(rows, row)
	}
	return rows, nil
}

func timeOne(opts Options, agents int, seed int64) (float64, error) {
	cfg := config.Default()
	cfg.Agents = agents
	cfg.Houses = opts.Houses
	cfg.Days = opts.Days
	cfg.Share = opts.Share
	cfg.Seed = &seed
	cfg.InitPath = opts.InitPath
	cfg.StrategyPath = opts.StrategyPath

	sim, err := engine.Build(cfg)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	sim.RunDays(cfg.Days)
	return float64(time.Since(start).Microseconds()) / 1000, nil
}

// WriteCSV writes rows as a ';'-separated table under Header.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Agents),
			strconv.FormatFloat(r.AvgMS, 'f', -1, 64),
			strconv.FormatFloat(r.StdMS, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation; fewer than two values give 0.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	v := 0.0
	for _, x := range xs {
		v += (x - m) * (x - m)
	}
	return math.Sqrt(v / float64(len(xs)-1))
}
