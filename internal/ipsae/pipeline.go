// Package ipsae ranks the designs in a results tree by their ipSAE, an
// interface confidence score calculated by an external ipsae.py script.
//
// For each structure in the final_<N>_designs directory that has a PAE file
// and an entry in the metrics table, the scorer is run, its table read, and
// the chosen chain pair's minimum ipSAE recorded. Designs are then ranked,
// lowest first, and written to a FASTA file and a summary CSV.
package ipsae

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lhallee/ipsae/config"
)

// Pipeline scores and ranks the designs of a results tree.
type Pipeline struct {
	conf *config.Config

	scorer *Scorer

	// progress is written here
	stdout io.Writer

	// warnings and per-design failures are logged here
	log *log.Logger
}

// NewPipeline creates a Pipeline that reports progress to stdout and
// problems to logger.
func NewPipeline(conf *config.Config, stdout io.Writer, logger *log.Logger) *Pipeline {
	return &Pipeline{
		conf:   conf,
		scorer: NewScorer(conf, logger),
		stdout: stdout,
		log:    logger,
	}
}

// Run scores every design under root, writes the ranked FASTA and summary
// CSV, prints the ranking summary and returns the ranked designs.
//
// Errors are only returned for failures that stop the whole run: a
// malformed results tree, no structures, or no designs that could be
// processed. Problems with single designs are logged and the design is
// skipped (no PAE file or sequence) or ranked last (scoring failed).
func (p *Pipeline) Run(ctx context.Context, root string) ([]*Design, error) {
	results, err := ResolveResults(root)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.stdout, "Processing designs from: %s\n", results.Designs)

	fmt.Fprintf(p.stdout, "Loading metrics from: %s\n", results.Metrics)
	metrics, err := ReadMetrics(results.Metrics)
	if err != nil {
		return nil, err
	}

	structures, err := results.Structures()
	if err != nil {
		return nil, fmt.Errorf("failed to list structures in %s: %v", results.Designs, err)
	}
	if len(structures) == 0 {
		return nil, fmt.Errorf("no CIF files found in %s", results.Designs)
	}
	fmt.Fprintf(p.stdout, "Found %d CIF files\n", len(structures))
	fmt.Fprintln(p.stdout, "Calculating ipSAE scores...")

	designs := p.score(ctx, results, metrics, structures)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(designs) == 0 {
		return nil, fmt.Errorf("no designs were processed successfully")
	}

	Rank(designs)

	if err := p.write(root, designs); err != nil {
		return nil, err
	}

	return designs, nil
}

// score builds a Design for each structure that has a PAE file and
// sequences, in the order the structures are given.
func (p *Pipeline) score(ctx context.Context, results *Results, metrics Metrics, structures []string) []*Design {
	var designs []*Design
	for _, structure := range structures {
		if ctx.Err() != nil {
			break
		}

		name := filepath.Base(structure)
		original := originalName(name)

		pae := results.PAEPath(structure)
		if _, err := os.Stat(pae); err != nil {
			p.log.Printf("warning: PAE file not found for %s, skipping...", name)
			continue
		}

		seqs := metrics[original]
		if seqs.Designed == "" && seqs.Chain == "" {
			p.log.Printf("warning: sequence not found for %s, skipping...", original)
			continue
		}

		sequence := seqs.Chain
		if sequence == "" {
			sequence = seqs.Designed
		}

		fmt.Fprintf(p.stdout, "  Processing %s...\n", name)
		score := p.scorer.Score(ctx, pae, structure, p.conf.PAECutoff, p.conf.DistCutoff)

		designs = append(designs, &Design{
			ID:               stem(structure),
			OriginalName:     strings.TrimSuffix(original, ".cif"),
			Sequence:         sequence,
			DesignedSequence: seqs.Designed,
			Score:            score,
		})
	}
	return designs
}

// write saves the ranked FASTA and summary CSV and prints the summary table.
func (p *Pipeline) write(root string, designs []*Design) error {
	output := p.conf.Output
	if output == "" {
		output = filepath.Join(root, config.DefaultOutputName)
	}

	if err := WriteFasta(output, designs, p.conf.Fasta.Width); err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "\nFASTA file written to: %s\n", output)

	summary := SummaryPath(output)
	if err := WriteSummary(summary, designs); err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "Summary CSV written to: %s\n", summary)

	PrintSummary(p.stdout, designs, p.conf.Summary.Top)
	return nil
}

// originalName strips the rank prefix from a structure's file name:
// rank01_design_3.cif -> design_3.cif
func originalName(name string) string {
	if parts := strings.SplitN(name, "_", 2); len(parts) == 2 {
		return parts[1]
	}
	return name
}
