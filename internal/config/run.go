// Package config holds the validated run configuration and the environment
// settings read by the server and tuner.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid run configuration")

// ShareMode selects what interacting agents exchange beyond direct observation.
type ShareMode string

const (
	ShareNone ShareMode = "none" // Only direct observation
	ShareMeet ShareMode = "meet" // Full bidirectional belief merge
)

// DefaultSASample is how many agents sa_m1_true is averaged over each day.
const DefaultSASample = 50

// Run is one simulation request.
type Run struct {
	SessionID string    `json:"session_id,omitempty" yaml:"session_id"`
	Agents    int       `json:"agents" yaml:"agents"`
	Houses    int       `json:"houses" yaml:"houses"`
	Days      int       `json:"days" yaml:"days"`
	Share     ShareMode `json:"share" yaml:"share"`
	Noise     float64   `json:"noise" yaml:"noise"`
	Seed      *int64    `json:"seed,omitempty" yaml:"seed"`

	// SASample <= 0 or >= Agents averages over everyone.
	SASample int `json:"sa_sample" yaml:"sa_sample"`

	Override *StrategyOverride `json:"override,omitempty" yaml:"override"`

	// Agents whose own sa_any/sa_m1_true series are recorded.
	Track    []string `json:"track,omitempty" yaml:"track"`
	TrackAll bool     `json:"track_all,omitempty" yaml:"track_all"`

	// Fixed puzzle instance. Used only when it matches Agents and Houses.
	InitPath     string `json:"init_path,omitempty" yaml:"init_path"`
	StrategyPath string `json:"strategy_path,omitempty" yaml:"strategy_path"`
}

// StrategyOverride replaces one agent's strategy for a run.
type StrategyOverride struct {
	Who      string       `json:"who" yaml:"who"`
	Strategy StrategySpec `json:"strategy" yaml:"strategy"`
}

// StrategySpec carries raw strategy probabilities, either as fractions or as
// percentages. They are normalized when the override is applied.
type StrategySpec struct {
	Left      float64 `json:"p_left" yaml:"p_left"`
	Right     float64 `json:"p_right" yaml:"p_right"`
	Home      float64 `json:"p_home" yaml:"p_home"`
	HouseExch float64 `json:"p_house_exch" yaml:"p_house_exch"`
	PetExch   float64 `json:"p_pet_exch" yaml:"p_pet_exch"`
}

// Default returns the canonical six-house puzzle setup.
func Default() Run {
	return Run{
		Agents:   6,
		Houses:   6,
		Days:     100,
		Share:    ShareNone,
		SASample: DefaultSASample,
	}
}

// Validate reports every problem with the configuration at once.
func (r Run) Validate() error {
	var errs []error
	if r.Agents < 1 {
		errs = append(errs, fmt.Errorf("agents must be at least 1, got %d", r.Agents))
	}
	if r.Houses < 2 {
		errs = append(errs, fmt.Errorf("houses must be at least 2, got %d", r.Houses))
	}
	if r.Days < 0 {
		errs = append(errs, fmt.Errorf("days must not be negative, got %d", r.Days))
	}
	if r.Share != ShareNone && r.Share != ShareMeet {
		errs = append(errs, fmt.Errorf("share must be %q or %q, got %q", ShareNone, ShareMeet, r.Share))
	}
	if math.IsNaN(r.Noise) || r.Noise < 0 || r.Noise > 1 {
		errs = append(errs, fmt.Errorf("noise must be within [0, 1], got %v", r.Noise))
	}
	if r.SASample < 0 {
		errs = append(errs, fmt.Errorf("sa_sample must not be negative, got %d", r.SASample))
	}
	if r.Override != nil && r.Override.Who == "" {
		errs = append(errs, errors.New("override needs an agent name"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// LoadRunFile reads a YAML run configuration. Keys missing from the file keep
// their Default values; unknown keys are an error.
func LoadRunFile(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("reading run config: %w", err)
	}
	cfg, err := DecodeRun(bytes.NewReader(data))
	if err != nil {
		return Run{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeRun decodes and validates a YAML run configuration from r.
func DecodeRun(r io.Reader) (Run, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Run{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Run{}, err
	}
	return cfg, nil
}
