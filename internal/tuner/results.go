package tuner

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output file names inside the output directory.
const (
	TrialsFile = "mt_trials.csv"
	BestFile   = "mt_best.yaml"
)

var trialsHeader = []string{"kind", "score", "sids", "metrics", "p_left", "p_right", "p_home", "p_house_exch", "p_pet_exch"}

// BestSummary is the content of the best-strategy file.
type BestSummary struct {
	Who           string   `yaml:"who"`
	BaselineScore float64  `yaml:"baseline_score"`
	BestScore     float64  `yaml:"best_score"`
	BestStrategy  Strategy `yaml:"best_strategy"`
	BaselineSIDs  []string `yaml:"baseline_sids"`
	BestSIDs      []string `yaml:"best_sids"`
}

// Summary returns the best-strategy summary of an outcome. Best always holds a
// strategy since the initial trial is never the baseline.
func (o *Outcome) Summary() BestSummary {
	s := BestSummary{
		Who:           o.Who,
		BaselineScore: o.Baseline.Score,
		BestScore:     o.Best.Score,
		BaselineSIDs:  o.Baseline.Sessions,
		BestSIDs:      o.Best.Sessions,
	}
	if o.Best.Strategy != nil {
		s.BestStrategy = *o.Best.Strategy
	}
	return s
}

// WriteOutcome writes the trials table and the best-strategy summary into dir
// and returns their paths.
func WriteOutcome(dir string, o *Outcome) (trials, best string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create %s: %w", dir, err)
	}
	trials = filepath.Join(dir, TrialsFile)
	if err := writeTrials(trials, o.Trials); err != nil {
		return "", "", err
	}

	best = filepath.Join(dir, BestFile)
	data, err := yaml.Marshal(o.Summary())
	if err != nil {
		return "", "", fmt.Errorf("marshal best: %w", err)
	}
	if err := os.WriteFile(best, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", best, err)
	}
	return trials, best, nil
}

func writeTrials(path string, trials []Trial) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(trialsHeader); err != nil {
		return err
	}
	for _, t := range trials {
		row := []string{
			t.Kind,
			strconv.FormatFloat(t.Score, 'f', -1, 64),
			strings.Join(t.Sessions, "|"),
			strings.Join(t.Metrics, "|"),
			"", "", "", "", "",
		}
		if s := t.Strategy; s != nil {
			for i, v := range []int{s.Left, s.Right, s.Home, s.HouseExch, s.PetExch} {
				row[4+i] = strconv.Itoa(v)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
