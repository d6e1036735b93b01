package optimize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dramsweep/dramsweep/report"
)

// NamedConfig is one labeled hardware configuration in a sweep list.
type NamedConfig struct {
	Name           string `yaml:"name" json:"config_name"`
	MemSpec        string `yaml:"memspec" json:"memspec"`
	AddressMapping string `yaml:"addressmapping" json:"addressmapping"`
	MCConfig       string `yaml:"mcconfig" json:"mcconfig"`
}

// Genome returns the hardware-only genome for this configuration.
func (c NamedConfig) Genome() Genome {
	return Genome{MemSpec: c.MemSpec, AddressMapping: c.AddressMapping, MCConfig: c.MCConfig}
}

// SweepSpec is the YAML document listing the configurations to compare.
type SweepSpec struct {
	Configs []NamedConfig `yaml:"configs"`
}

// LoadSweepSpec parses a sweep YAML file with strict field checking.
func LoadSweepSpec(path string) (SweepSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SweepSpec{}, fmt.Errorf("reading sweep spec %s: %w", path, err)
	}
	var spec SweepSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return SweepSpec{}, fmt.Errorf("parsing sweep spec %s: %w", path, err)
	}
	if len(spec.Configs) == 0 {
		return SweepSpec{}, fmt.Errorf("sweep spec %s lists no configurations", path)
	}
	for i, c := range spec.Configs {
		if c.Name == "" {
			return SweepSpec{}, fmt.Errorf("sweep spec %s: config %d has no name", path, i)
		}
	}
	return spec, nil
}

// SweepEntry is one configuration's result within a sweep.
type SweepEntry struct {
	NamedConfig
	report.Metrics
	OK bool `json:"success"`
}

// SweepOutcome aggregates a full comparison sweep: every entry, the ranking
// of the successful ones, and a baseline-vs-best comparison when a baseline
// configuration is present.
type SweepOutcome struct {
	Entries            []SweepEntry       `json:"results"`
	Ranked             []string           `json:"ranked,omitempty"` // config names, fastest first
	Best               *SweepEntry        `json:"best,omitempty"`
	BaselineComparison *report.Comparison `json:"baseline_comparison,omitempty"`
}

// RunSweep evaluates every named configuration in order. A failing
// configuration yields an entry with absent metrics; it never aborts the
// remaining configurations.
func RunSweep(ctx context.Context, eval Evaluator, configs []NamedConfig) SweepOutcome {
	var outcome SweepOutcome

	for _, cfg := range configs {
		logrus.Infof("testing configuration %s (memspec=%s)", cfg.Name, cfg.MemSpec)
		m := eval.Evaluate(ctx, cfg.Genome(), cfg.Name)
		entry := SweepEntry{NamedConfig: cfg, Metrics: m, OK: m.Complete()}
		if entry.OK {
			logrus.Infof("  total time: %d ps, bandwidth: %.2f GB/s", *m.TotalTimePs, *m.BandwidthGBps)
		} else {
			logrus.Warnf("  simulation failed: %s", m.Err)
		}
		outcome.Entries = append(outcome.Entries, entry)
	}

	successful := make([]SweepEntry, 0, len(outcome.Entries))
	for _, e := range outcome.Entries {
		if e.OK {
			successful = append(successful, e)
		}
	}
	if len(successful) == 0 {
		return outcome
	}

	sort.SliceStable(successful, func(i, j int) bool {
		return *successful[i].TotalTimePs < *successful[j].TotalTimePs
	})
	for _, e := range successful {
		outcome.Ranked = append(outcome.Ranked, e.Name)
	}
	best := successful[0]
	outcome.Best = &best

	if baseline, ok := findBaseline(outcome.Entries); ok && baseline.Name != best.Name {
		cmp, err := report.Compare(baseline.side(), best.side())
		if err != nil {
			logrus.Warnf("baseline comparison: %v", err)
		}
		outcome.BaselineComparison = &cmp
	}
	return outcome
}

// findBaseline locates the entry whose name marks it as the baseline
// configuration.
func findBaseline(entries []SweepEntry) (SweepEntry, bool) {
	for _, e := range entries {
		if strings.Contains(e.Name, "baseline") {
			return e, true
		}
	}
	return SweepEntry{}, false
}

func (e SweepEntry) side() report.SideResult {
	return report.SideResult{Label: e.Name, Metrics: e.Metrics}
}

// Save writes the sweep outcome as indented JSON.
func (o SweepOutcome) Save(path string) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sweep outcome: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing sweep outcome %s: %w", path, err)
	}
	return nil
}
