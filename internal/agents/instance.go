package agents

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/talgya/zebra-sa/internal/world"
)

// InstanceRow is one house of the puzzle instance file (columns H;I;D;S;P).
type InstanceRow struct {
	House  world.HouseID
	Name   string
	Drink  string
	Smokes string
	Pet    string
}

// ReadInstance loads a ';'-delimited puzzle instance, sorted by house.
func ReadInstance(path string) ([]InstanceRow, error) {
	records, err := readTable(path, "H", "I", "D", "S", "P")
	if err != nil {
		return nil, err
	}
	rows := make([]InstanceRow, 0, len(records))
	for i, rec := range records {
		h, err := strconv.Atoi(rec["H"])
		if err != nil {
			return nil, fmt.Errorf("row %d: house %q: %w", i+1, rec["H"], err)
		}
		if rec["I"] == "" {
			return nil, fmt.Errorf("row %d: empty agent id", i+1)
		}
		rows = append(rows, InstanceRow{
			House:  world.HouseID(h),
			Name:   rec["I"],
			Drink:  rec["D"],
			Smokes: rec["S"],
			Pet:    rec["P"],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].House < rows[j].House })
	return rows, nil
}

// ReadStrategies loads a ';'-delimited strategy file keyed by agent id
// (columns I;PLeft;PRight;PHome;PHouseExch;PPetExch). Values are normalized
// with NormalizeStrategy, so percentages are accepted.
func ReadStrategies(path string) (map[string]Strategy, error) {
	records, err := readTable(path, "I", "PLeft", "PRight", "PHome", "PHouseExch", "PPetExch")
	if err != nil {
		return nil, err
	}
	out := make(map[string]Strategy, len(records))
	for i, rec := range records {
		var p [5]float64
		for k, col := range []string{"PLeft", "PRight", "PHome", "PHouseExch", "PPetExch"} {
			v, err := strconv.ParseFloat(strings.ReplaceAll(rec[col], ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %s %q: %w", i+1, col, rec[col], err)
			}
			p[k] = v
		}
		out[rec["I"]] = NormalizeStrategy(p[0], p[1], p[2], p[3], p[4])
	}
	return out, nil
}

// domainsFromRows collects the sorted distinct attribute values of an instance.
func domainsFromRows(rows []InstanceRow) Domains {
	drinks := make(map[string]bool)
	smokes := make(map[string]bool)
	pets := make(map[string]bool)
	for _, r := range rows {
		drinks[r.Drink] = true
		smokes[r.Smokes] = true
		pets[r.Pet] = true
	}
	return Domains{
		Drinks: sortedKeys(drinks),
		Smokes: sortedKeys(smokes),
		Pets:   sortedKeys(pets),
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// readTable reads a ';'-delimited file with a header row and returns each
// data row as a column-name → value map. Every required column must exist.
func readTable(path string, required ...string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	var out []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		row := make(map[string]string, len(required))
		for _, name := range required {
			row[name] = strings.TrimSpace(rec[cols[name]])
		}
		out = append(out, row)
	}
	return out, nil
}
