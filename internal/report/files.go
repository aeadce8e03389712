package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/talgya/zebra-sa/internal/engine"
)

// RunFiles are the paths of a finished run's outputs.
type RunFiles struct {
	CSV     string `json:"csv"`
	XML     string `json:"xml"`
	Metrics string `json:"metrics"`
}

// WriteRun writes game_<id>.csv, game_<id>.xml and metrics_<id>.csv into dir.
func WriteRun(dir, id string, res *engine.Result) (RunFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return RunFiles{}, fmt.Errorf("creating %s: %w", dir, err)
	}
	files := RunFiles{
		CSV:     filepath.Join(dir, fmt.Sprintf("game_%s.csv", id)),
		XML:     filepath.Join(dir, fmt.Sprintf("game_%s.xml", id)),
		Metrics: filepath.Join(dir, fmt.Sprintf("metrics_%s.csv", id)),
	}
	if err := writeFile(files.CSV, func(w io.Writer) error { return WriteEvents(w, res.Events) }); err != nil {
		return RunFiles{}, err
	}
	if err := writeFile(files.XML, func(w io.Writer) error { return WriteGameXML(w, id, res.Events) }); err != nil {
		return RunFiles{}, err
	}
	if err := writeFile(files.Metrics, func(w io.Writer) error { return WriteMetrics(w, res.Tracked, res.Metrics) }); err != nil {
		return RunFiles{}, err
	}
	return files, nil
}
