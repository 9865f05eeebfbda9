package ipsae

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// summaryHeader is the header row of the summary CSV.
var summaryHeader = []string{"ipsae_rank", "id", "original_name", "ipsae", "designed_sequence", "chain_sequence"}

// header is the FASTA header of a ranked design, eg
// rank01_x|ipSAE=2.0000|rank=1
func header(d *Design) string {
	return fmt.Sprintf("%s|ipSAE=%s|rank=%d", d.ID, formatScore(d.Score, 4), d.Rank)
}

// WriteFasta writes the designs, in the order given, to a FASTA file with
// sequences wrapped at width residues per line.
func WriteFasta(filename string, designs []*Design, width int) error {
	var buf bytes.Buffer
	if err := writeFasta(&buf, designs, width); err != nil {
		return err
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write FASTA to %s: %v", filename, err)
	}
	return nil
}

// writeFasta writes the FASTA records to w, each ending with a newline.
func writeFasta(w io.Writer, designs []*Design, width int) error {
	var out, rec bytes.Buffer
	for _, d := range designs {
		rec.Reset()
		s := linear.NewSeq(header(d), alphabet.BytesToLetters([]byte(d.Sequence)), alphabet.Protein)
		if _, err := fasta.NewWriter(&rec, width).Write(s); err != nil {
			return fmt.Errorf("failed to write FASTA record %s: %v", d.ID, err)
		}
		out.Write(bytes.TrimRight(rec.Bytes(), "\n"))
		out.WriteByte('\n')
	}

	_, err := w.Write(out.Bytes())
	return err
}

// SummaryPath returns the summary CSV path for a FASTA output path:
// designs.fasta -> designs_summary.csv
func SummaryPath(fastaPath string) string {
	return strings.TrimSuffix(fastaPath, ".fasta") + "_summary.csv"
}

// WriteSummary writes one CSV row per design, in the order given.
func WriteSummary(filename string, designs []*Design) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create summary %s: %v", filename, err)
	}
	defer f.Close()

	if err := writeSummary(f, designs); err != nil {
		return fmt.Errorf("failed to write summary %s: %v", filename, err)
	}
	return f.Close()
}

// writeSummary writes the summary CSV to w.
func writeSummary(w io.Writer, designs []*Design) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}

	for _, d := range designs {
		row := []string{
			strconv.Itoa(d.Rank),
			d.ID,
			d.OriginalName,
			formatScore(d.Score, -1),
			d.DesignedSequence,
			d.Sequence,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// PrintSummary writes a fixed-width table of the top designs to w, noting
// how many more there are.
func PrintSummary(w io.Writer, designs []*Design, top int) {
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "ipSAE Ranking Summary (lower is better)")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-6s %-40s %-12s\n", "Rank", "ID", "ipSAE")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for i, d := range designs {
		if i >= top {
			break
		}
		fmt.Fprintf(w, "%-6d %-40s %-12s\n", d.Rank, d.ID, formatScore(d.Score, 4))
	}
	if len(designs) > top {
		fmt.Fprintf(w, "... and %d more designs\n", len(designs)-top)
	}
	fmt.Fprintln(w, rule)
}
