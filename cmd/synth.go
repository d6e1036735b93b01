package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dramsweep/dramsweep/stim"
)

var (
	synthOut    string
	synthOps    int
	synthSeed   int64
	synthFormat string
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Generate a synthetic AI-workload stimulus trace",
	Long:  "Generate a synthetic AI-inference-style memory trace (sequential weight reads, random activation reads, output writes) as a profiler-free alternative to converting a captured trace.",
	Run: func(cmd *cobra.Command, args []string) {
		format, err := stim.ParseFormat(synthFormat)
		if err != nil {
			logrus.Fatalf("Trace generation failed: %v", err)
		}

		stats, err := stim.SynthFile(synthOut, stim.SynthOptions{
			Ops:    synthOps,
			Seed:   synthSeed,
			Format: format,
		})
		if err != nil {
			logrus.Fatalf("Trace generation failed: %v", err)
		}
		logrus.Infof("Generated %d operations (total cycles %d) to %s", stats.Ops, stats.FinalTimestamp, synthOut)
	},
}

func init() {
	synthCmd.Flags().StringVar(&synthOut, "out", "", "Path for the generated stimulus file")
	synthCmd.Flags().IntVar(&synthOps, "ops", 50000, "Number of operations to generate")
	synthCmd.Flags().Int64Var(&synthSeed, "seed", 42, "Seed for random address generation")
	synthCmd.Flags().StringVar(&synthFormat, "format", "stl", "Stimulus format (stl, plain)")
	_ = synthCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(synthCmd)
}
