// Package optimize searches simulator configurations with a genetic
// algorithm and compares fixed configuration lists, using total simulated
// time as the fitness signal.
package optimize

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Genome is one point in the search space: the hardware genes always, plus
// the traffic-generator workload genes when the space defines them.
type Genome struct {
	MemSpec        string `json:"memspec" yaml:"memspec"`
	AddressMapping string `json:"addressmapping" yaml:"addressmapping"`
	MCConfig       string `json:"mcconfig" yaml:"mcconfig"`

	ClkMhz              int     `json:"clk_mhz,omitempty" yaml:"clk_mhz,omitempty"`
	NumRequests         int     `json:"num_requests,omitempty" yaml:"num_requests,omitempty"`
	RWRatio             float64 `json:"rw_ratio,omitempty" yaml:"rw_ratio,omitempty"`
	AddressDistribution string  `json:"address_distribution,omitempty" yaml:"address_distribution,omitempty"`
}

// HasWorkloadGenes reports whether this genome parameterizes the built-in
// traffic generator instead of replaying a stimulus file.
func (g Genome) HasWorkloadGenes() bool {
	return g.ClkMhz != 0
}

// Key returns a stable identity string, used for duplicate suppression.
func (g Genome) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%g|%s",
		g.MemSpec, g.AddressMapping, g.MCConfig,
		g.ClkMhz, g.NumRequests, g.RWRatio, g.AddressDistribution)
}

// Space defines the allowed values per gene. The hardware lists are
// mandatory; the workload lists are all-or-none.
type Space struct {
	MemSpecs        []string `yaml:"memspecs"`
	AddressMappings []string `yaml:"addressmappings"`
	MCConfigs       []string `yaml:"mcconfigs"`

	ClkMhz               []int     `yaml:"clk_mhz"`
	NumRequests          []int     `yaml:"num_requests"`
	RWRatios             []float64 `yaml:"rw_ratios"`
	AddressDistributions []string  `yaml:"address_distributions"`
}

// LoadSpace parses a search-space YAML file with strict field checking, so a
// misspelled gene list fails loudly instead of silently shrinking the search.
func LoadSpace(path string) (Space, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Space{}, fmt.Errorf("reading search space %s: %w", path, err)
	}
	var s Space
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return Space{}, fmt.Errorf("parsing search space %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Space{}, fmt.Errorf("search space %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the hardware lists are present and the workload lists are
// consistent.
func (s Space) Validate() error {
	if len(s.MemSpecs) == 0 || len(s.AddressMappings) == 0 || len(s.MCConfigs) == 0 {
		return fmt.Errorf("memspecs, addressmappings and mcconfigs must all be non-empty")
	}
	workload := []int{len(s.ClkMhz), len(s.NumRequests), len(s.RWRatios), len(s.AddressDistributions)}
	any, all := false, true
	for _, n := range workload {
		if n > 0 {
			any = true
		} else {
			all = false
		}
	}
	if any && !all {
		return fmt.Errorf("workload gene lists must be given all together or not at all")
	}
	return nil
}

// HasWorkloadGenes reports whether the space searches traffic-generator
// parameters.
func (s Space) HasWorkloadGenes() bool {
	return len(s.ClkMhz) > 0
}

// SearchSize returns the number of distinct genomes in the space.
func (s Space) SearchSize() int {
	size := len(s.MemSpecs) * len(s.AddressMappings) * len(s.MCConfigs)
	if s.HasWorkloadGenes() {
		size *= len(s.ClkMhz) * len(s.NumRequests) * len(s.RWRatios) * len(s.AddressDistributions)
	}
	return size
}

// Random samples a uniform genome from the space.
func (s Space) Random(rng *rand.Rand) Genome {
	g := Genome{
		MemSpec:        s.MemSpecs[rng.Intn(len(s.MemSpecs))],
		AddressMapping: s.AddressMappings[rng.Intn(len(s.AddressMappings))],
		MCConfig:       s.MCConfigs[rng.Intn(len(s.MCConfigs))],
	}
	if s.HasWorkloadGenes() {
		g.ClkMhz = s.ClkMhz[rng.Intn(len(s.ClkMhz))]
		g.NumRequests = s.NumRequests[rng.Intn(len(s.NumRequests))]
		g.RWRatio = s.RWRatios[rng.Intn(len(s.RWRatios))]
		g.AddressDistribution = s.AddressDistributions[rng.Intn(len(s.AddressDistributions))]
	}
	return g
}

// Crossover mixes two parents gene-by-gene (uniform crossover).
func Crossover(rng *rand.Rand, a, b Genome) Genome {
	pick := func(x, y string) string {
		if rng.Float64() < 0.5 {
			return x
		}
		return y
	}
	child := Genome{
		MemSpec:        pick(a.MemSpec, b.MemSpec),
		AddressMapping: pick(a.AddressMapping, b.AddressMapping),
		MCConfig:       pick(a.MCConfig, b.MCConfig),
	}
	if a.HasWorkloadGenes() && b.HasWorkloadGenes() {
		if rng.Float64() < 0.5 {
			child.ClkMhz = a.ClkMhz
		} else {
			child.ClkMhz = b.ClkMhz
		}
		if rng.Float64() < 0.5 {
			child.NumRequests = a.NumRequests
		} else {
			child.NumRequests = b.NumRequests
		}
		if rng.Float64() < 0.5 {
			child.RWRatio = a.RWRatio
		} else {
			child.RWRatio = b.RWRatio
		}
		if rng.Float64() < 0.5 {
			child.AddressDistribution = a.AddressDistribution
		} else {
			child.AddressDistribution = b.AddressDistribution
		}
	}
	return child
}

// Mutate resamples each gene independently with the given probability.
func (s Space) Mutate(rng *rand.Rand, g *Genome, rate float64) {
	if rng.Float64() < rate {
		g.MemSpec = s.MemSpecs[rng.Intn(len(s.MemSpecs))]
	}
	if rng.Float64() < rate {
		g.AddressMapping = s.AddressMappings[rng.Intn(len(s.AddressMappings))]
	}
	if rng.Float64() < rate {
		g.MCConfig = s.MCConfigs[rng.Intn(len(s.MCConfigs))]
	}
	if !s.HasWorkloadGenes() {
		return
	}
	if rng.Float64() < rate {
		g.ClkMhz = s.ClkMhz[rng.Intn(len(s.ClkMhz))]
	}
	if rng.Float64() < rate {
		g.NumRequests = s.NumRequests[rng.Intn(len(s.NumRequests))]
	}
	if rng.Float64() < rate {
		g.RWRatio = s.RWRatios[rng.Intn(len(s.RWRatios))]
	}
	if rng.Float64() < rate {
		g.AddressDistribution = s.AddressDistributions[rng.Intn(len(s.AddressDistributions))]
	}
}
