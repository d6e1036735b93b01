package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dramsweep/dramsweep/dramsys"
	"github.com/dramsweep/dramsweep/optimize"
)

var (
	sweepConfigPath string
	sweepTrace      string
	sweepOut        string
	sweepTimeout    time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run and rank a fixed list of simulator configurations",
	Long:  "Run every configuration named in a sweep YAML file against one stimulus trace, rank them by total simulated time, and compare the best against the baseline configuration.",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := optimize.LoadSweepSpec(sweepConfigPath)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		runner, err := dramsys.NewRunnerFromEnv()
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		runner.Timeout = sweepTimeout

		eval := &optimize.SimEvaluator{Runner: runner, TraceFile: sweepTrace}
		outcome := optimize.RunSweep(context.Background(), eval, spec.Configs)

		if outcome.Best != nil {
			logrus.Infof("Best configuration: %s (%d ps)", outcome.Best.Name, *outcome.Best.TotalTimePs)
		} else {
			logrus.Warn("No configuration produced a complete report")
		}
		if err := outcome.Save(sweepOut); err != nil {
			logrus.Fatalf("Saving sweep results failed: %v", err)
		}
		logrus.Infof("Sweep results saved to %s", sweepOut)
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepConfigPath, "config", "sweep.yaml", "Path to the sweep configuration YAML")
	sweepCmd.Flags().StringVar(&sweepTrace, "trace", "", "Path to the stimulus trace to replay")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "config_comparison.json", "Path for the sweep results JSON")
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", dramsys.DefaultTimeout, "Per-simulation timeout")
	_ = sweepCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(sweepCmd)
}
