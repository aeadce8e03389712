package tuner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/zebra-sa/internal/entropy"
)

// Trial kinds as written to the trials file.
const (
	KindBaseline = "baseline"
	KindInitial  = "trial0"
	KindTrial    = "trial"
)

// Options configures a search. Every evaluation runs the same population
// setup once per seed.
type Options struct {
	Agents   int
	Houses   int
	Days     int
	Share    string
	Noise    float64
	Who      string
	Iters    int
	Seeds    []int64
	Mode     ScoreMode
	Tail     int
	RNGSeed  int64
	Parallel int // Concurrent sessions per evaluation; 0 means one per seed
}

// DefaultOptions returns the search defaults.
func DefaultOptions() Options {
	return Options{
		Agents:  1000,
		Houses:  6,
		Days:    200,
		Share:   "meet",
		Noise:   0.2,
		Who:     "a0",
		Iters:   10,
		Seeds:   []int64{1, 2, 3},
		Mode:    ScoreFinal,
		Tail:    20,
		RNGSeed: 42,
	}
}

func (o Options) validate() error {
	var errs []error
	if o.Who == "" {
		errs = append(errs, errors.New("who is required"))
	}
	if len(o.Seeds) == 0 {
		errs = append(errs, errors.New("at least one seed is required"))
	}
	if o.Iters < 0 {
		errs = append(errs, fmt.Errorf("iters must be >= 0, got %d", o.Iters))
	}
	if _, err := ParseScoreMode(string(o.Mode)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Trial is one evaluated candidate. Strategy is nil for the baseline.
type Trial struct {
	Kind     string
	Score    float64
	Sessions []string
	Metrics  []string
	Strategy *Strategy
}

// Outcome is the result of a search.
type Outcome struct {
	Who      string
	Baseline Trial
	Best     Trial
	Trials   []Trial // In evaluation order, baseline first
}

// Tuner runs a random search against the session API.
type Tuner struct {
	Client *Client
	Opts   Options

	// OnTrial, when set, is called after each evaluation.
	OnTrial func(Trial)
}

// New creates a Tuner.
func New(client *Client, opts Options) *Tuner {
	return &Tuner{Client: client, Opts: opts}
}

// Search evaluates the baseline, an initial random candidate and Iters more
// candidates, keeping the best. A candidate replaces the best only when it
// scores strictly higher.
func (t *Tuner) Search(ctx context.Context) (*Outcome, error) {
	if err := t.Opts.validate(); err != nil {
		return nil, fmt.Errorf("tuner options: %w", err)
	}
	rng := entropy.NewSource(t.Opts.RNGSeed)
	out := &Outcome{Who: t.Opts.Who}

	baseline, err := t.evaluate(ctx, KindBaseline, nil)
	if err != nil {
		return nil, err
	}
	out.Baseline = baseline
	out.Trials = append(out.Trials, baseline)
	slog.Info("baseline evaluated", "who", t.Opts.Who, "score", baseline.Score)

	first := SampleStrategy(rng)
	best, err := t.evaluate(ctx, KindInitial, &first)
	if err != nil {
		return nil, err
	}
	out.Trials = append(out.Trials, best)

	for i := 0; i < t.Opts.Iters; i++ {
		cand := SampleStrategy(rng)
		trial, err := t.evaluate(ctx, KindTrial, &cand)
		if err != nil {
			return nil, err
		}
		out.Trials = append(out.Trials, trial)
		if trial.Score > best.Score {
			best = trial
			slog.Info("new best strategy", "iter", i+1, "score", best.Score, "strategy", cand.String())
		}
	}
	out.Best = best
	return out, nil
}

// evaluate runs one session per seed concurrently and averages their scores.
func (t *Tuner) evaluate(ctx context.Context, kind string, strat *Strategy) (Trial, error) {
	n := len(t.Opts.Seeds)
	scores := make([]float64, n)
	sids := make([]string, n)
	metrics := make([]string, n)

	g, gctx := errgroup.WithContext(ctx)
	limit := t.Opts.Parallel
	if limit <= 0 {
		limit = n
	}
	g.SetLimit(limit)
	for i, seed := range t.Opts.Seeds {
		g.Go(func() error {
			sid, res, vals, err := t.runOne(gctx, seed, strat)
			if err != nil {
				return err
			}
			sids[i] = sid
			metrics[i] = res.Metrics
			scores[i] = Score(vals, t.Opts.Mode, t.Opts.Tail)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Trial{}, fmt.Errorf("evaluate %s: %w", kind, err)
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	trial := Trial{
		Kind:     kind,
		Score:    sum / float64(n),
		Sessions: sids,
		Metrics:  metrics,
		Strategy: strat,
	}
	slog.Debug("trial evaluated", "kind", kind, "score", trial.Score, "sessions", sids)
	if t.OnTrial != nil {
		t.OnTrial(trial)
	}
	return trial, nil
}

func (t *Tuner) runOne(ctx context.Context, seed int64, strat *Strategy) (string, *RunResult, []float64, error) {
	req := SessionRequest{
		Agents: t.Opts.Agents,
		Houses: t.Opts.Houses,
		Days:   t.Opts.Days,
		Share:  t.Opts.Share,
		Noise:  t.Opts.Noise,
		Seed:   &seed,
	}
	if strat != nil {
		req.MTWho = t.Opts.Who
		req.MTStrategy = strat
	} else {
		req.Track = []string{t.Opts.Who}
	}

	sid, err := t.Client.CreateSession(ctx, req)
	if err != nil {
		return "", nil, nil, err
	}
	res, err := t.Client.Run(ctx, sid)
	if err != nil {
		return "", nil, nil, err
	}
	vals, err := t.Client.Series(ctx, sid, t.Opts.Who)
	if err != nil {
		return "", nil, nil, err
	}
	return sid, res, vals, nil
}
