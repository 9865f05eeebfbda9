// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultOutputName is the FASTA written into the results directory
	// when no output path is given
	DefaultOutputName = "designs_ranked_by_ipsae.fasta"

	// EnvPrefix is prepended to settings read from the environment,
	// eg IPSAE_PAE_CUTOFF
	EnvPrefix = "IPSAE"
)

// ScorerConfig is for settings about the external ipSAE scorer
type ScorerConfig struct {
	// the file name of the scoring script
	Script string `mapstructure:"script"`

	// interpreters tried in order, eg "python" then "py"
	Interpreters []string `mapstructure:"interpreters"`

	// directories searched for the script, in order
	Dirs []string `mapstructure:"dirs"`
}

// FastaConfig is for settings about the ranked FASTA output
type FastaConfig struct {
	// the number of residues per sequence line
	Width int `mapstructure:"width"`
}

// SummaryConfig is for settings about the console summary
type SummaryConfig struct {
	// the number of designs printed in the ranking table
	Top int `mapstructure:"top"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a settings file, the environment
// and those available from the command line
type Config struct {
	// PAE cutoff passed to the scorer
	PAECutoff float64 `mapstructure:"pae_cutoff"`

	// distance cutoff passed to the scorer
	DistCutoff float64 `mapstructure:"dist_cutoff"`

	// path to the output FASTA, empty to derive it from the results dir
	Output string `mapstructure:"output"`

	// whether to log every scorer invocation
	Verbose bool `mapstructure:"verbose"`

	// results directories tried when none is passed
	Candidates []string `mapstructure:"candidates"`

	// Scorer settings
	Scorer ScorerConfig `mapstructure:"scorer"`

	// Fasta settings
	Fasta FastaConfig `mapstructure:"fasta"`

	// Summary settings
	Summary SummaryConfig `mapstructure:"summary"`
}

// SetDefaults registers the built in settings with viper. Settings files,
// the environment and flags all override these.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("pae_cutoff", 15.0)
	v.SetDefault("dist_cutoff", 15.0)
	v.SetDefault("output", "")
	v.SetDefault("verbose", false)
	v.SetDefault("candidates", []string{
		"output/final_ranked_designs",
		"test/final_ranked_designs",
		"final_ranked_designs",
	})
	v.SetDefault("scorer.script", "ipsae.py")
	v.SetDefault("scorer.interpreters", []string{"python", "py"})
	v.SetDefault("scorer.dirs", []string{"/workdir", "."})
	v.SetDefault("fasta.width", 80)
	v.SetDefault("summary.top", 10)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadSettings merges a YAML/TOML/JSON settings file into v. An empty
// path is a no-op.
func ReadSettings(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read settings file %s: %v", path, err)
	}
	return nil
}

// New returns a new Config struct populated by Viper settings
// (defaults, a settings file, the environment and command line arguments)
func New(v *viper.Viper) (*Config, error) {
	c := &Config{}

	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %v", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate checks the settings that would otherwise fail far from
// where they were set
func (c *Config) validate() error {
	if !validCutoff(c.PAECutoff) {
		return fmt.Errorf("pae_cutoff must be a finite, non-negative number: %v", c.PAECutoff)
	}
	if !validCutoff(c.DistCutoff) {
		return fmt.Errorf("dist_cutoff must be a finite, non-negative number: %v", c.DistCutoff)
	}
	if c.Scorer.Script == "" {
		return fmt.Errorf("no scorer script name set")
	}
	if len(c.Scorer.Interpreters) == 0 || len(c.Scorer.Dirs) == 0 {
		return fmt.Errorf("at least one scorer interpreter and directory is needed")
	}
	if c.Fasta.Width < 1 {
		c.Fasta.Width = 80
	}
	if c.Summary.Top < 0 {
		c.Summary.Top = 0
	}
	return nil
}

// validCutoff is false for negative, NaN and infinite cutoffs, which can't be
// truncated into the scorer's output file name
func validCutoff(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
