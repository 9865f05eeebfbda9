package ipsae

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeScript is an ipsae.py stand-in run with sh. It copies
// <structure>.fixture to where the real scorer writes its table.
const fakeScript = `#!/bin/sh
base="${2%.cif}"
[ -f "$base.fixture" ] || { echo "no fixture for $2" >&2; exit 1; }
cp "$base.fixture" "${base}_${3%.*}_${4%.*}.txt"
`

// tableWithScore returns a score table whose A-B minimum ipSAE is score.
func tableWithScore(score string) string {
	return tableHeader +
		"asym,A,B,15,15," + score + ",0.8,0.3,x\n" +
		"asym,B,A,15,15,0.99,0.8,0.3,x\n" +
		"max,A,B,15,15,0.99,0.8,0.3,x\n" +
		"max,B,A,15,15,0.99,0.8,0.3,x\n"
}

// call is a recorded scorer invocation.
type call struct {
	name string
	args []string
}

func TestResultsPath(t *testing.T) {
	tests := []struct {
		structure string
		pae, dist float64
		want      string
	}{
		{"out/final_2_designs/rank01_x.cif", 15, 15, "out/final_2_designs/rank01_x_15_15.txt"},
		{"rank01_x.cif", 12.9, 10.2, "rank01_x_12_10.txt"},
		{"rank01_x.cif", 0.5, 7.999, "rank01_x_0_7.txt"},
		{"a.cif.cif", 15, 15, "a.cif_15_15.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ResultsPath(tt.structure, tt.pae, tt.dist); got != tt.want {
				t.Errorf("ResultsPath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func Test_pyFloat(t *testing.T) {
	tests := map[float64]string{
		15:    "15.0",
		12.5:  "12.5",
		0:     "0.0",
		7.125: "7.125",
	}
	for in, want := range tests {
		if got := pyFloat(in); got != want {
			t.Errorf("pyFloat(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestScorer_candidates(t *testing.T) {
	withScript := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(withScript, "ipsae.py"), nil, 0644))
	without := t.TempDir()

	s := &Scorer{
		script:       "ipsae.py",
		interpreters: []string{"python", "py"},
		dirs:         []string{without, withScript},
		log:          log.New(&bytes.Buffer{}, "", 0),
	}

	want := []invocation{
		{"python", filepath.Join(withScript, "ipsae.py")},
		{"py", filepath.Join(withScript, "ipsae.py")},
	}
	require.Equal(t, want, s.candidates())
}

func TestScorer_invokeFallback(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	for _, d := range []string{dirA, dirB} {
		require.NoError(t, os.WriteFile(filepath.Join(d, "ipsae.py"), nil, 0644))
	}

	var logs bytes.Buffer
	var calls []call
	s := &Scorer{
		script:       "ipsae.py",
		interpreters: []string{"python", "py"},
		dirs:         []string{dirA, dirB},
		log:          log.New(&logs, "", 0),
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			calls = append(calls, call{name, args})
			if len(calls) < 3 {
				return []byte("Traceback"), errors.New("exec: not found")
			}
			return nil, nil
		},
	}

	ok := s.invoke(context.Background(), "x.npz", "x.cif", 15, 12.5)
	require.True(t, ok)

	require.Len(t, calls, 3)
	require.Equal(t, call{"python", []string{filepath.Join(dirA, "ipsae.py"), "x.npz", "x.cif", "15.0", "12.5"}}, calls[0])
	require.Equal(t, "python", calls[1].name)
	require.Equal(t, filepath.Join(dirB, "ipsae.py"), calls[1].args[0])
	require.Equal(t, "py", calls[2].name)
	require.Equal(t, filepath.Join(dirA, "ipsae.py"), calls[2].args[0])

	require.Equal(t, 2, strings.Count(logs.String(), "error running ipsae.py"))
}

func TestScorer_Score(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "ipsae.py"), []byte(fakeScript), 0755))

	designs := t.TempDir()
	scored := filepath.Join(designs, "rank01_x.cif")
	require.NoError(t, os.WriteFile(filepath.Join(designs, "rank01_x.fixture"), []byte(tableWithScore("0.4321")), 0644))
	unparseable := filepath.Join(designs, "rank02_y.cif")
	require.NoError(t, os.WriteFile(filepath.Join(designs, "rank02_y.fixture"), []byte(tableHeader), 0644))
	failing := filepath.Join(designs, "rank03_z.cif")

	var logs bytes.Buffer
	s := &Scorer{
		script:       "ipsae.py",
		interpreters: []string{"no-such-interpreter", "sh"},
		dirs:         []string{filepath.Join(scripts, "missing"), scripts},
		log:          log.New(&logs, "", 0),
		run:          runCommand,
	}
	ctx := context.Background()

	require.Equal(t, 0.4321, s.Score(ctx, "x.npz", scored, 15, 15))
	require.FileExists(t, filepath.Join(designs, "rank01_x_15_15.txt"))
	require.Contains(t, logs.String(), "error running ipsae.py with command: no-such-interpreter")

	require.True(t, math.IsInf(s.Score(ctx, "y.npz", unparseable, 15, 15), 1))
	require.Contains(t, logs.String(), "error reading results for "+unparseable)

	logs.Reset()
	require.True(t, math.IsInf(s.Score(ctx, "z.npz", failing, 15, 15), 1))
	require.Contains(t, logs.String(), "ipsae.py failed with: no fixture for "+failing)
	require.Contains(t, logs.String(), "failed to run ipsae.py for "+failing)
}

func TestScorer_Score_noScript(t *testing.T) {
	var logs bytes.Buffer
	s := &Scorer{
		script:       "ipsae.py",
		interpreters: []string{"python"},
		dirs:         []string{t.TempDir()},
		log:          log.New(&logs, "", 0),
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			t.Fatal("nothing should run without a script")
			return nil, nil
		},
	}

	require.True(t, math.IsInf(s.Score(context.Background(), "x.npz", "x.cif", 15, 15), 1))
	require.Contains(t, logs.String(), "failed to run ipsae.py for x.cif")
}
