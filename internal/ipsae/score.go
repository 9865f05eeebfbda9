package ipsae

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lhallee/ipsae/config"
)

// runFunc executes a command and returns what it wrote to stderr.
type runFunc func(ctx context.Context, name string, args ...string) (stderr []byte, err error)

// invocation is one interpreter and script pairing the scorer can be run with.
type invocation struct {
	interpreter string
	script      string
}

// Scorer calls the external ipsae.py script on a structure and its PAE
// file, then reads the table the script writes next to the structure.
type Scorer struct {
	// script file name, eg "ipsae.py"
	script string

	// interpreters tried in order
	interpreters []string

	// directories searched for the script, in order
	dirs []string

	// whether to log each command before it's run
	verbose bool

	// where failures are logged
	log *log.Logger

	// executes the scorer, swapped in tests
	run runFunc
}

// NewScorer creates a Scorer from the scorer settings.
func NewScorer(conf *config.Config, logger *log.Logger) *Scorer {
	return &Scorer{
		script:       conf.Scorer.Script,
		interpreters: conf.Scorer.Interpreters,
		dirs:         conf.Scorer.Dirs,
		verbose:      conf.Verbose,
		log:          logger,
		run:          runCommand,
	}
}

// candidates returns every interpreter/script pairing whose script exists,
// interpreter-major: python+/workdir, python+., py+/workdir, py+.
func (s *Scorer) candidates() []invocation {
	var invs []invocation
	for _, interpreter := range s.interpreters {
		for _, dir := range s.dirs {
			script := filepath.Join(dir, s.script)
			if _, err := os.Stat(script); err != nil {
				if s.verbose {
					s.log.Printf("no %s in %s, skipping", s.script, dir)
				}
				continue
			}
			invs = append(invs, invocation{interpreter: interpreter, script: script})
		}
	}
	return invs
}

// Score returns the ipSAE of a structure. It is +Inf if the scorer
// couldn't be run or its results couldn't be read, so unscorable
// structures sort last.
func (s *Scorer) Score(ctx context.Context, pae, structure string, paeCutoff, distCutoff float64) float64 {
	if !s.invoke(ctx, pae, structure, paeCutoff, distCutoff) {
		s.log.Printf("failed to run %s for %s", s.script, structure)
		return math.Inf(1)
	}

	table, err := ReadScoreTable(ResultsPath(structure, paeCutoff, distCutoff))
	if err != nil {
		s.log.Printf("error reading results for %s: %v", structure, err)
		return math.Inf(1)
	}

	score, err := table.Select()
	if err != nil {
		s.log.Printf("error reading results for %s: %v", structure, err)
		return math.Inf(1)
	}

	return score
}

// invoke runs the candidates in order until one exits zero. It reports
// whether any did.
func (s *Scorer) invoke(ctx context.Context, pae, structure string, paeCutoff, distCutoff float64) bool {
	for _, inv := range s.candidates() {
		args := []string{
			inv.script,
			pae,
			structure,
			pyFloat(paeCutoff),
			pyFloat(distCutoff),
		}
		if s.verbose {
			s.log.Printf("running: %s %s", inv.interpreter, strings.Join(args, " "))
		}

		stderr, err := s.run(ctx, inv.interpreter, args...)
		if err == nil {
			return true
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			s.log.Printf("%s failed with: %s", s.script, stderr)
		} else {
			s.log.Printf("error running %s with command: %s %s: %v", s.script, inv.interpreter, strings.Join(args, " "), err)
		}

		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// runCommand runs a command to completion, capturing its output.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.Bytes(), err
}

// ResultsPath returns where the scorer writes its table for a structure:
// the structure's extension is replaced by _{pae}_{dist}.txt, both cutoffs
// truncated to integers. eg x.cif, 15.0, 12.7 -> x_15_12.txt
func ResultsPath(structure string, paeCutoff, distCutoff float64) string {
	base := strings.TrimSuffix(structure, filepath.Ext(structure))
	return fmt.Sprintf("%s_%d_%d.txt", base, int(paeCutoff), int(distCutoff))
}

// pyFloat formats a float the way the scorer expects its cutoffs, always
// with a decimal point: 15 -> "15.0", 12.5 -> "12.5".
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}
