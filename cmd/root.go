// Package cmd is for command line interactions with the ipsae application
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lhallee/ipsae/config"
	"github.com/lhallee/ipsae/internal/ipsae"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "ipsae-rank [final_ranked_designs]",
	Short: "Calculate ipSAE scores for final ranked designs and output a ranked FASTA",
	Long: `Calculate ipSAE scores for the final ranked designs of a design run and
write the designs, ranked by ipSAE (lower is better), to a FASTA file.

The results directory must hold a final_<N>_designs directory of CIF
structures, with their PAE files in final_<N>_designs/pae, and a
final_designs_metrics_*.csv (or all_designs_metrics.csv) table.

ipsae.py is looked for in /workdir and the current directory and is run
with "python", then "py". A summary CSV is written next to the FASTA.`,
	Example: `  ipsae-rank
  ipsae-rank output/final_ranked_designs
  ipsae-rank output/final_ranked_designs --pae_cutoff 12 --dist_cutoff 12
  ipsae-rank output/final_ranked_designs -o my_ranked_designs.fasta`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          rankExec,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       "0.1.0",

	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Fatalf("error: %v", err)
	}
}

// set flags
func init() {
	config.SetDefaults(viper.GetViper())

	RootCmd.Flags().StringP("final_designs_dir", "d", "", "path to the final_ranked_designs directory")
	RootCmd.Flags().Float64("pae_cutoff", 15.0, "PAE cutoff for ipSAE calculation")
	RootCmd.Flags().Float64("dist_cutoff", 15.0, "distance cutoff for ipSAE calculation")
	RootCmd.Flags().StringP("output", "o", "", "output FASTA file path (default <final_designs_dir>/"+config.DefaultOutputName+")")
	RootCmd.Flags().StringP("settings", "s", "", "settings file (YAML, TOML or JSON)")
	RootCmd.Flags().BoolP("verbose", "v", false, "log every ipsae.py invocation")

	viper.BindPFlag("pae_cutoff", RootCmd.Flags().Lookup("pae_cutoff"))
	viper.BindPFlag("dist_cutoff", RootCmd.Flags().Lookup("dist_cutoff"))
	viper.BindPFlag("output", RootCmd.Flags().Lookup("output"))
	viper.BindPFlag("settings", RootCmd.Flags().Lookup("settings"))
	viper.BindPFlag("verbose", RootCmd.Flags().Lookup("verbose"))
}

// rankExec resolves the settings and results directory then runs the
// ranking pipeline.
func rankExec(cmd *cobra.Command, args []string) error {
	stderr := log.New(cmd.ErrOrStderr(), "", 0)

	v := viper.GetViper()
	if err := config.ReadSettings(v, v.GetString("settings")); err != nil {
		return err
	}

	conf, err := config.New(v)
	if err != nil {
		return err
	}

	root, _ := cmd.Flags().GetString("final_designs_dir")
	if len(args) > 0 {
		root = args[0]
	}

	if root == "" {
		if root, err = ipsae.DetectResults(conf.Candidates); err != nil {
			cmd.Help()
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Auto-detected final designs directory: %s\n", root)
	}

	_, err = ipsae.NewPipeline(conf, cmd.OutOrStdout(), stderr).Run(cmd.Context(), root)
	return err
}
