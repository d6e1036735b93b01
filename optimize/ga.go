package optimize

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/dramsweep/dramsweep/report"
)

// Config holds the genetic-algorithm parameters.
type Config struct {
	PopulationSize int
	Generations    int
	EliteCount     int     // 0 selects max(2, PopulationSize/5)
	MutationRate   float64 // 0 selects 0.25
	TournamentK    int     // 0 selects 3
	Seed           int64
}

func (c Config) withDefaults() Config {
	if c.PopulationSize == 0 {
		c.PopulationSize = 12
	}
	if c.Generations == 0 {
		c.Generations = 6
	}
	if c.EliteCount == 0 {
		c.EliteCount = c.PopulationSize / 5
		if c.EliteCount < 2 {
			c.EliteCount = 2
		}
	}
	if c.MutationRate == 0 {
		c.MutationRate = 0.25
	}
	if c.TournamentK == 0 {
		c.TournamentK = 3
	}
	return c
}

// Individual is one evaluated genome. OK mirrors metric completeness; an
// individual without a total time loses every fitness comparison.
type Individual struct {
	Genome `json:"genome"`
	report.Metrics
	OK bool `json:"success"`
}

func (ind Individual) fitness() (int64, bool) {
	if !ind.OK || ind.TotalTimePs == nil {
		return 0, false
	}
	return *ind.TotalTimePs, true
}

// Outcome is the persisted result of one optimization run.
type Outcome struct {
	Best      Individual `json:"best_configuration"`
	Progress  []int64    `json:"progress"` // best fitness after each generation
	Evaluated int        `json:"total_tested"`
}

// Save writes the outcome as indented JSON.
func (o Outcome) Save(path string) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling optimization outcome: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing optimization outcome %s: %w", path, err)
	}
	return nil
}

// GA runs an evolutionary search over a Space: uniform crossover, per-gene
// mutation, tournament selection, and elitism, minimizing total simulated
// time.
type GA struct {
	Config    Config
	Space     Space
	Evaluator Evaluator
	Recorder  *Recorder // optional; records every evaluation when set
}

// Optimize runs the search. Every individual is evaluated at most once;
// elites carry their fitness into the next generation unevaluated. The
// returned error is non-nil only when the space is invalid, the context is
// cancelled, or no individual ever produced a complete metric set.
func (ga *GA) Optimize(ctx context.Context) (Outcome, error) {
	if ga.Evaluator == nil {
		return Outcome{}, fmt.Errorf("optimizer needs an evaluator")
	}
	if err := ga.Space.Validate(); err != nil {
		return Outcome{}, err
	}
	cfg := ga.Config.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	logrus.Infof("starting optimization: population=%d generations=%d search_size=%d",
		cfg.PopulationSize, cfg.Generations, ga.Space.SearchSize())

	population := ga.seedPopulation(rng, cfg.PopulationSize)

	var outcome Outcome
	haveBest := false

	for gen := 0; gen < cfg.Generations; gen++ {
		logrus.Infof("generation %d/%d", gen+1, cfg.Generations)

		for i := range population {
			if population[i].evaluated {
				continue
			}
			if err := ctx.Err(); err != nil {
				return outcome, fmt.Errorf("optimization cancelled in generation %d: %w", gen+1, err)
			}

			runID := fmt.Sprintf("g%d_i%d", gen, i)
			m := ga.Evaluator.Evaluate(ctx, population[i].Genome, runID)
			population[i].Metrics = m
			population[i].OK = m.Complete()
			population[i].evaluated = true
			outcome.Evaluated++

			if ga.Recorder != nil {
				if err := ga.Recorder.Record(runID, gen, population[i].Individual); err != nil {
					return outcome, fmt.Errorf("recording evaluation %s: %w", runID, err)
				}
			}

			if population[i].OK {
				logrus.Infof("  [%d/%d] time=%dps bw=%.2fGB/s", i+1, len(population),
					*m.TotalTimePs, *m.BandwidthGBps)
			} else {
				logrus.Warnf("  [%d/%d] evaluation failed: %s", i+1, len(population), m.Err)
			}
		}

		valid := validSorted(population)
		if len(valid) == 0 {
			logrus.Warnf("generation %d produced no valid individuals", gen+1)
			if haveBest {
				outcome.Progress = append(outcome.Progress, mustFitness(outcome.Best))
			}
			continue
		}

		genBest := valid[0].Individual
		if f, _ := genBest.fitness(); !haveBest || f < mustFitness(outcome.Best) {
			outcome.Best = genBest
			haveBest = true
		}
		outcome.Progress = append(outcome.Progress, mustFitness(outcome.Best))
		logrus.Infof("best so far: %dps (%s, %s, %s)", mustFitness(outcome.Best),
			outcome.Best.MemSpec, outcome.Best.AddressMapping, outcome.Best.MCConfig)

		if gen < cfg.Generations-1 {
			population = ga.nextGeneration(rng, cfg, valid)
		}
	}

	if !haveBest {
		return outcome, fmt.Errorf("no valid configuration found after %d generations", cfg.Generations)
	}
	return outcome, nil
}

// individual wraps Individual with the evaluation flag the loop uses to keep
// elites from being re-run.
type individual struct {
	Individual
	evaluated bool
}

func (ga *GA) seedPopulation(rng *rand.Rand, size int) []individual {
	population := make([]individual, 0, size)
	seen := make(map[string]bool)
	for len(population) < size {
		g := ga.Space.Random(rng)
		// Resample duplicates, but only while the space still has room.
		if seen[g.Key()] && len(seen) < ga.Space.SearchSize() {
			continue
		}
		seen[g.Key()] = true
		population = append(population, individual{Individual: Individual{Genome: g}})
	}
	return population
}

func (ga *GA) nextGeneration(rng *rand.Rand, cfg Config, valid []individual) []individual {
	next := make([]individual, 0, cfg.PopulationSize)

	elite := cfg.EliteCount
	if elite > len(valid) {
		elite = len(valid)
	}
	next = append(next, valid[:elite]...)

	for len(next) < cfg.PopulationSize {
		p1 := tournament(rng, valid, cfg.TournamentK)
		p2 := tournament(rng, valid, cfg.TournamentK)
		child := Crossover(rng, p1.Genome, p2.Genome)
		ga.Space.Mutate(rng, &child, cfg.MutationRate)
		next = append(next, individual{Individual: Individual{Genome: child}})
	}
	return next
}

// tournament picks the fittest of k random contenders.
func tournament(rng *rand.Rand, valid []individual, k int) individual {
	best := valid[rng.Intn(len(valid))]
	for i := 1; i < k; i++ {
		challenger := valid[rng.Intn(len(valid))]
		bf, _ := best.fitness()
		cf, _ := challenger.fitness()
		if cf < bf {
			best = challenger
		}
	}
	return best
}

// validSorted returns the successfully evaluated individuals ordered by
// ascending total time. The sort is stable so equal-fitness individuals keep
// their generation order.
func validSorted(population []individual) []individual {
	var valid []individual
	for _, ind := range population {
		if ind.OK {
			valid = append(valid, ind)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		fi, _ := valid[i].fitness()
		fj, _ := valid[j].fitness()
		return fi < fj
	})
	return valid
}

func mustFitness(ind Individual) int64 {
	f, _ := ind.fitness()
	return f
}
