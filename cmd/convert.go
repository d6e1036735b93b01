package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dramsweep/dramsweep/stim"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert raw profiler traces to simulator stimulus files",
	Long:  "Convert raw memory-access traces (load/store/modify records from an instruction-level profiler) into timestamped read/write stimulus files the simulator replays.",
}

var (
	convertIn        string
	convertOut       string
	convertFormat    string
	convertIncrement int64
	convertMaxOps    int
)

var convertLackeyCmd = &cobra.Command{
	Use:   "lackey",
	Short: "Convert a lackey-style memory-access log to a stimulus file",
	Run: func(cmd *cobra.Command, args []string) {
		format, err := stim.ParseFormat(convertFormat)
		if err != nil {
			logrus.Fatalf("Conversion failed: %v", err)
		}

		stats, err := stim.ConvertFile(convertIn, convertOut, stim.Options{
			Format:    format,
			Increment: convertIncrement,
			MaxOps:    convertMaxOps,
		})
		if err != nil {
			logrus.Fatalf("Conversion failed: %v", err)
		}

		if stats.Ops == 0 {
			logrus.Warnf("No memory-access records found in %s (%d lines read); stimulus file is empty", convertIn, stats.LinesRead)
			return
		}
		logrus.Infof("Converted %d operations (final timestamp %d, %d lines skipped) to %s",
			stats.Ops, stats.FinalTimestamp, stats.LinesSkipped, convertOut)
	},
}

func init() {
	convertLackeyCmd.Flags().StringVar(&convertIn, "in", "", "Path to the raw memory-access log")
	convertLackeyCmd.Flags().StringVar(&convertOut, "out", "", "Path for the stimulus file")
	convertLackeyCmd.Flags().StringVar(&convertFormat, "format", "stl", "Stimulus format (stl, plain)")
	convertLackeyCmd.Flags().Int64Var(&convertIncrement, "increment", 0, "Per-event timestamp increment (0 = format default)")
	convertLackeyCmd.Flags().IntVar(&convertMaxOps, "max-ops", stim.DefaultMaxOps, "Maximum number of stimulus events to emit")
	_ = convertLackeyCmd.MarkFlagRequired("in")
	_ = convertLackeyCmd.MarkFlagRequired("out")

	convertCmd.AddCommand(convertLackeyCmd)
	rootCmd.AddCommand(convertCmd)
}
