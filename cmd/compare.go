package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dramsweep/dramsweep/report"
)

var (
	compareBaselineLog   string
	compareCandidateLog  string
	compareBaselineName  string
	compareCandidateName string
	compareOut           string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two simulation reports",
	Long:  "Extract total time and average bandwidth from a baseline and a candidate simulation report, compute time reduction, bandwidth change and speedup, and persist the structured comparison.",
	Run: func(cmd *cobra.Command, args []string) {
		baseline := report.ExtractSide(compareBaselineName, compareBaselineLog)
		candidate := report.ExtractSide(compareCandidateName, compareCandidateLog)

		comparison, err := report.Compare(baseline, candidate)
		if err != nil {
			// Zero-denominator failures still yield a persistable result.
			logrus.Errorf("Derived statistics unavailable: %v", err)
		} else if comparison.Derived == nil {
			logrus.Warnf("Derived statistics unavailable: %s", comparison.DerivedErr)
		}

		if compareOut != "" {
			if err := comparison.Save(compareOut); err != nil {
				logrus.Fatalf("Saving comparison failed: %v", err)
			}
			logrus.Infof("Comparison saved to %s", compareOut)
		}

		data, err := json.MarshalIndent(comparison, "", "  ")
		if err != nil {
			logrus.Fatalf("JSON marshal failed: %v", err)
		}
		fmt.Println(string(data))
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareBaselineLog, "baseline-log", "", "Path to the baseline simulation report")
	compareCmd.Flags().StringVar(&compareCandidateLog, "candidate-log", "", "Path to the candidate simulation report")
	compareCmd.Flags().StringVar(&compareBaselineName, "baseline-label", "baseline", "Label for the baseline configuration")
	compareCmd.Flags().StringVar(&compareCandidateName, "candidate-label", "candidate", "Label for the candidate configuration")
	compareCmd.Flags().StringVar(&compareOut, "out", "", "Path for the comparison JSON (stdout only when empty)")
	_ = compareCmd.MarkFlagRequired("baseline-log")
	_ = compareCmd.MarkFlagRequired("candidate-log")

	rootCmd.AddCommand(compareCmd)
}
