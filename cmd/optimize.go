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
	optConfigPath   string
	optTrace        string
	optOut          string
	optDB           string
	optPopulation   int
	optGenerations  int
	optSeed         int64
	optMutationRate float64
	optTimeout      time.Duration
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search simulator configurations with a genetic algorithm",
	Long:  "Evolve simulator configurations (and optionally traffic-generator workload parameters) over a YAML-defined search space, minimizing total simulated time.",
	Run: func(cmd *cobra.Command, args []string) {
		space, err := optimize.LoadSpace(optConfigPath)
		if err != nil {
			logrus.Fatalf("Optimization failed: %v", err)
		}
		if !space.HasWorkloadGenes() && optTrace == "" {
			logrus.Fatalf("A hardware-only search space needs --trace to drive the simulations")
		}

		runner, err := dramsys.NewRunnerFromEnv()
		if err != nil {
			logrus.Fatalf("Optimization failed: %v", err)
		}
		runner.Timeout = optTimeout

		ga := &optimize.GA{
			Config: optimize.Config{
				PopulationSize: optPopulation,
				Generations:    optGenerations,
				MutationRate:   optMutationRate,
				Seed:           optSeed,
			},
			Space:     space,
			Evaluator: &optimize.SimEvaluator{Runner: runner, TraceFile: optTrace},
		}

		if optDB != "" {
			rec, err := optimize.OpenRecorder(optDB)
			if err != nil {
				logrus.Fatalf("Optimization failed: %v", err)
			}
			defer func() {
				if err := rec.Close(); err != nil {
					logrus.Errorf("Closing evaluation database: %v", err)
				}
			}()
			ga.Recorder = rec
		}

		outcome, err := ga.Optimize(context.Background())
		if err != nil {
			logrus.Fatalf("Optimization failed: %v", err)
		}

		logrus.Infof("Best configuration: %s / %s / %s (%d ps, %d evaluations)",
			outcome.Best.MemSpec, outcome.Best.AddressMapping, outcome.Best.MCConfig,
			*outcome.Best.TotalTimePs, outcome.Evaluated)
		if err := outcome.Save(optOut); err != nil {
			logrus.Fatalf("Saving optimization results failed: %v", err)
		}
		logrus.Infof("Optimization results saved to %s", optOut)
	},
}

func init() {
	optimizeCmd.Flags().StringVar(&optConfigPath, "config", "search.yaml", "Path to the search-space YAML")
	optimizeCmd.Flags().StringVar(&optTrace, "trace", "", "Path to the stimulus trace for hardware-only searches")
	optimizeCmd.Flags().StringVar(&optOut, "out", "optimization_results.json", "Path for the optimization results JSON")
	optimizeCmd.Flags().StringVar(&optDB, "db", "", "Path to a SQLite database recording every evaluation (disabled when empty)")
	optimizeCmd.Flags().IntVar(&optPopulation, "population", 12, "Population size")
	optimizeCmd.Flags().IntVar(&optGenerations, "generations", 6, "Number of generations")
	optimizeCmd.Flags().Int64Var(&optSeed, "seed", 42, "Seed for the evolutionary search")
	optimizeCmd.Flags().Float64Var(&optMutationRate, "mutation-rate", 0.25, "Per-gene mutation probability")
	optimizeCmd.Flags().DurationVar(&optTimeout, "timeout", 2*time.Minute, "Per-simulation timeout")

	rootCmd.AddCommand(optimizeCmd)
}
