package ipsae

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sequences are the sequences of a design in the metrics table.
type Sequences struct {
	// Designed is the designed_sequence column
	Designed string

	// Chain is the designed_chain_sequence column
	Chain string
}

// Metrics maps a structure file name (without rank prefix) to its sequences.
type Metrics map[string]Sequences

// ReadMetrics reads the design pipeline's metrics table. Only the
// file_name, designed_sequence and designed_chain_sequence columns are used.
func ReadMetrics(path string) (Metrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics table %s: %v", path, err)
	}
	defer f.Close()

	return parseMetrics(f)
}

// parseMetrics builds a Metrics from a CSV with a header row.
func parseMetrics(r io.Reader) (Metrics, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics header: %v", err)
	}

	cols := columns(header)
	name, ok := cols["file_name"]
	if !ok {
		return nil, fmt.Errorf("metrics table has no file_name column")
	}
	designed, hasDesigned := cols["designed_sequence"]
	chain, hasChain := cols["designed_chain_sequence"]
	if !hasDesigned && !hasChain {
		return nil, fmt.Errorf("metrics table has no designed_sequence or designed_chain_sequence column")
	}

	field := func(row []string, i int, ok bool) string {
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	m := make(Metrics)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read metrics row: %v", err)
		}

		key := field(row, name, true)
		if key == "" {
			continue
		}
		// later rows overwrite earlier ones for the same file
		m[key] = Sequences{
			Designed: field(row, designed, hasDesigned),
			Chain:    field(row, chain, hasChain),
		}
	}

	return m, nil
}

// columns maps header names to their index.
func columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	return cols
}
