package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AwarenessStem names an agent's export files: a<N> becomes awareness-NN with
// N+1 zero-padded to two digits; any other name maps to awareness-00.
func AwarenessStem(agent string) string {
	n, ok := agentNumber(agent)
	if !ok {
		return "awareness-00"
	}
	return fmt.Sprintf("awareness-%02d", n+1)
}

// WriteAwarenessCSV writes a day;m1 table. Missing values are empty cells.
func WriteAwarenessCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := cw.Write([]string{"day", "m1"}); err != nil {
		return err
	}
	for _, p := range points {
		v := ""
		if p.M1 != nil {
			v = strconv.FormatFloat(*p.M1, 'g', 6, 64)
		}
		if err := cw.Write([]string{strconv.Itoa(p.Day), v}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAwarenessYAML writes the series as YAML with the agent name.
func WriteAwarenessYAML(w io.Writer, agent string, points []Point) error {
	rounded := make([]Point, len(points))
	for i, p := range points {
		rounded[i] = Point{Day: p.Day}
		if p.M1 != nil {
			v, _ := strconv.ParseFloat(strconv.FormatFloat(*p.M1, 'g', 6, 64), 64)
			rounded[i].M1 = &v
		}
	}
	doc := struct {
		Agent  string  `yaml:"agent"`
		Series []Point `yaml:"series"`
	}{agent, rounded}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding awareness for %s: %w", agent, err)
	}
	return enc.Close()
}

// ExportAwareness writes awareness-NN.csv and awareness-NN.yaml for every
// series into dir and returns the paths written.
func ExportAwareness(dir string, series []Series) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var paths []string
	for _, s := range series {
		stem := filepath.Join(dir, AwarenessStem(s.Agent))

		csvPath := stem + ".csv"
		if err := writeFile(csvPath, func(w io.Writer) error { return WriteAwarenessCSV(w, s.Points) }); err != nil {
			return paths, err
		}
		yamlPath := stem + ".yaml"
		if err := writeFile(yamlPath, func(w io.Writer) error { return WriteAwarenessYAML(w, s.Agent, s.Points) }); err != nil {
			return paths, err
		}
		paths = append(paths, csvPath, yamlPath)
	}
	return paths, nil
}

// writeFile creates path and hands it to fn, closing it afterwards.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
