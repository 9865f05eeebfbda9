package ipsae

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var (
	// designsDirRegex matches the designs subdirectory, eg final_30_designs
	designsDirRegex = regexp.MustCompile(`^final_.+_designs$`)

	// metricsGlobs are tried in order, the first with a match wins
	metricsGlobs = []string{"final_designs_metrics_*.csv", "all_designs_metrics.csv"}
)

// Results is the layout of a results tree.
type Results struct {
	// Root is the results directory, eg output/final_ranked_designs
	Root string

	// Designs is the final_<N>_designs subdirectory holding the structures
	Designs string

	// Metrics is the path to the metrics table
	Metrics string

	// PAE is the directory of per-structure PAE files
	PAE string
}

// ResolveResults finds the designs subdirectory, the metrics table and
// the PAE directory in a results tree.
//
// If more than one final_*_designs subdirectory exists, the first in
// lexical order is used.
func ResolveResults(root string) (*Results, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory %s: %v", root, err)
	}

	r := &Results{Root: root}
	for _, e := range entries {
		if !designsDirRegex.MatchString(e.Name()) {
			continue
		}
		// stat rather than e.IsDir() so symlinked directories are followed
		dir := filepath.Join(root, e.Name())
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Designs = dir
			break
		}
	}
	if r.Designs == "" {
		return nil, fmt.Errorf("could not find final_*_designs subdirectory in %s", root)
	}

	for _, pattern := range metricsGlobs {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s: %v", pattern, err)
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			r.Metrics = matches[0]
			break
		}
	}
	if r.Metrics == "" {
		return nil, fmt.Errorf("could not find metrics CSV in %s", root)
	}

	r.PAE = filepath.Join(r.Designs, "pae")
	if info, err := os.Stat(r.PAE); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("PAE directory not found at %s\nmake sure you've run the pipeline with PAE output enabled", r.PAE)
	}

	return r, nil
}

// Structures returns the structure files in the designs directory in
// lexical order.
func (r *Results) Structures() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.Designs, "*.cif"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// PAEPath returns the PAE file for a structure, eg
// final_2_designs/rank01_x.cif -> final_2_designs/pae/rank01_x.npz
func (r *Results) PAEPath(structure string) string {
	return filepath.Join(r.PAE, stem(structure)+".npz")
}

// DetectResults returns the first candidate directory that exists.
func DetectResults(candidates []string) (string, error) {
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("please specify the final_ranked_designs directory")
}

// stem is a file's base name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
