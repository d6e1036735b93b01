package optimize

import (
	"context"
	"strings"

	"github.com/dramsweep/dramsweep/dramsys"
	"github.com/dramsweep/dramsweep/report"
)

// Evaluator runs one genome through a simulation and scrapes its metrics.
// Failures are folded into the returned Metrics as explicit absence so a
// broken individual never aborts the surrounding search.
type Evaluator interface {
	Evaluate(ctx context.Context, g Genome, runID string) report.Metrics
}

// playerClkMhz is the replay clock used when a genome carries no workload
// genes and the stimulus file drives the simulation.
const playerClkMhz = 1000

// SimEvaluator evaluates genomes against the real simulator binary.
type SimEvaluator struct {
	Runner *dramsys.Runner

	// TraceFile is the stimulus file replayed for hardware-only genomes.
	TraceFile string
}

// Evaluate builds the simulator configuration for g, runs it, and extracts
// the report metrics.
func (e *SimEvaluator) Evaluate(ctx context.Context, g Genome, runID string) report.Metrics {
	var setup dramsys.TraceSetup
	if g.HasWorkloadGenes() {
		setup = dramsys.GeneratorSetup("tgen_"+runID, g.ClkMhz, g.NumRequests, g.RWRatio, g.AddressDistribution)
	} else {
		setup = dramsys.PlayerSetup(playerClkMhz, e.TraceFile)
	}

	cfg := dramsys.NewSimConfig(runID, g.MemSpec, g.AddressMapping, g.MCConfig, setup)
	out, err := e.Runner.Run(ctx, cfg)
	if err != nil {
		return report.Metrics{Err: err.Error()}
	}
	return report.Extract(strings.NewReader(out))
}
