package ipsae

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ScoreMetric is the column used to rank designs.
const ScoreMetric = "ipSAE"

// pairPriority is the order chain pairs are checked in when picking a score.
var pairPriority = []string{"A-B", "B-A", "A-C", "C-A"}

// ChainPair holds the metrics of one ordered pair of chains.
type ChainPair struct {
	// Max is the metrics of the pair's "max" row
	Max map[string]float64

	// Min is the column-wise minimum over the pair's other rows
	Min map[string]float64
}

// ScoreTable is the scorer's output, summarized per chain pair.
type ScoreTable struct {
	// Pairs is keyed by "{Chn1}-{Chn2}"
	Pairs map[string]*ChainPair

	// order of the pairs' first max rows in the file
	order []string
}

// ReadScoreTable reads the table the scorer writes (see ResultsPath).
func ReadScoreTable(path string) (*ScoreTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}

	rows, err := splitRows(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", path, err)
	}

	return newScoreTable(rows)
}

// splitRows splits the table into fields. Tables are comma separated, but
// whitespace separated tables (when the header has no commas) are accepted.
func splitRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}

	var rows [][]string
	if bytes.IndexByte(firstLine, ',') >= 0 {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		records, err := reader.ReadAll()
		if err != nil {
			return nil, err
		}
		rows = records
	} else {
		for _, line := range strings.Split(string(data), "\n") {
			if fields := strings.Fields(line); len(fields) > 0 {
				rows = append(rows, fields)
			}
		}
	}

	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

// newScoreTable groups rows into chain pairs. The metric columns are
// everything after the fifth column except the last.
func newScoreTable(rows [][]string) (*ScoreTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}

	header := rows[0]
	cols := columns(header)
	typeCol, ok1 := cols["Type"]
	chn1Col, ok2 := cols["Chn1"]
	chn2Col, ok3 := cols["Chn2"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("table is missing a Type, Chn1 or Chn2 column")
	}

	var metrics []int
	for i := 5; i < len(header)-1; i++ {
		metrics = append(metrics, i)
	}

	t := &ScoreTable{Pairs: make(map[string]*ChainPair)}
	mins := make(map[string]map[string]float64)

	for _, row := range rows[1:] {
		if typeCol >= len(row) || chn1Col >= len(row) || chn2Col >= len(row) {
			continue
		}
		key := row[chn1Col] + "-" + row[chn2Col]

		values := make(map[string]float64, len(metrics))
		for _, i := range metrics {
			if i >= len(row) {
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil || math.IsNaN(v) {
				continue
			}
			values[header[i]] = v
		}

		if row[typeCol] == "max" {
			if _, seen := t.Pairs[key]; !seen {
				t.order = append(t.order, key)
				t.Pairs[key] = &ChainPair{}
			}
			t.Pairs[key].Max = values
			continue
		}

		lo, ok := mins[key]
		if !ok {
			lo = make(map[string]float64, len(values))
			mins[key] = lo
		}
		for col, v := range values {
			if cur, ok := lo[col]; !ok || v < cur {
				lo[col] = v
			}
		}
	}

	for key, pair := range t.Pairs {
		pair.Min = mins[key]
		if pair.Min == nil {
			pair.Min = map[string]float64{}
		}
	}

	return t, nil
}

// Select returns the minimum ipSAE of the first of A-B, B-A, A-C, C-A in
// the table, or of the table's first chain pair if none of those are in it.
func (t *ScoreTable) Select() (float64, error) {
	if len(t.order) == 0 {
		return 0, fmt.Errorf("no max rows in table")
	}

	key := t.order[0]
	for _, p := range pairPriority {
		if _, ok := t.Pairs[p]; ok {
			key = p
			break
		}
	}

	score, ok := t.Pairs[key].Min[ScoreMetric]
	if !ok {
		return 0, fmt.Errorf("no %s values for chain pair %s", ScoreMetric, key)
	}
	return score, nil
}

// Keys returns the chain pair keys in the order they appear in the table.
func (t *ScoreTable) Keys() []string {
	return append([]string(nil), t.order...)
}
