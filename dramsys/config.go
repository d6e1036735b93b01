// Package dramsys is the boundary to the external DRAMSys simulator: it
// synthesizes the JSON configuration documents the binary accepts and runs
// the binary, capturing its report text. The simulator's internal timing
// model is entirely opaque to this package.
package dramsys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TraceSetup is one entry of the simulation's tracesetup list. Two kinds
// exist: a player replaying a stimulus file, and a built-in traffic
// generator parameterized by request count and read/write ratio.
type TraceSetup struct {
	Type                string  `json:"type"`
	ClkMhz              int     `json:"clkMhz"`
	Name                string  `json:"name"`
	NumRequests         int     `json:"numRequests,omitempty"`
	RWRatio             float64 `json:"rwRatio,omitempty"`
	AddressDistribution string  `json:"addressDistribution,omitempty"`
	MinAddress          *uint64 `json:"minAddress,omitempty"`
	MaxAddress          *uint64 `json:"maxAddress,omitempty"`
}

// PlayerSetup returns a tracesetup entry replaying the stimulus file at
// tracePath.
func PlayerSetup(clkMhz int, tracePath string) TraceSetup {
	return TraceSetup{Type: "player", ClkMhz: clkMhz, Name: tracePath}
}

// GeneratorSetup returns a tracesetup entry for the built-in traffic
// generator over the full 32-bit address range.
func GeneratorSetup(name string, clkMhz, numRequests int, rwRatio float64, addrDist string) TraceSetup {
	minAddr := uint64(0)
	maxAddr := uint64(4294967295)
	return TraceSetup{
		Type:                "generator",
		ClkMhz:              clkMhz,
		Name:                name,
		NumRequests:         numRequests,
		RWRatio:             rwRatio,
		AddressDistribution: addrDist,
		MinAddress:          &minAddr,
		MaxAddress:          &maxAddr,
	}
}

// Simulation mirrors the simulator's top-level configuration block. The
// memspec, addressmapping and mcconfig fields are paths relative to the
// simulator's configs directory.
type Simulation struct {
	AddressMapping string       `json:"addressmapping"`
	MCConfig       string       `json:"mcconfig"`
	MemSpec        string       `json:"memspec"`
	SimConfig      string       `json:"simconfig"`
	SimulationID   string       `json:"simulationid"`
	TraceSetup     []TraceSetup `json:"tracesetup"`
}

// SimConfig is the document the simulator binary takes as its argument.
type SimConfig struct {
	Simulation Simulation `json:"simulation"`
}

// defaultSimConfig is the simulator-side base configuration every run reuses.
const defaultSimConfig = "simconfig/example.json"

// NewSimConfig assembles a full simulator configuration for one run.
func NewSimConfig(simulationID, memSpec, addressMapping, mcConfig string, setup TraceSetup) SimConfig {
	return SimConfig{Simulation: Simulation{
		AddressMapping: addressMapping,
		MCConfig:       mcConfig,
		MemSpec:        memSpec,
		SimConfig:      defaultSimConfig,
		SimulationID:   simulationID,
		TraceSetup:     []TraceSetup{setup},
	}}
}

// WriteConfig serializes cfg as indented JSON into dir, named after the
// simulation ID, and returns the written path.
func WriteConfig(dir string, cfg SimConfig) (string, error) {
	if cfg.Simulation.SimulationID == "" {
		return "", fmt.Errorf("sim config has empty simulation ID")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling sim config: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("dramsys_%s.json", cfg.Simulation.SimulationID))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing sim config %s: %w", path, err)
	}
	return path, nil
}

// Discover enumerates the configuration files of one kind (memspec,
// addressmapping, mcconfig) under the simulator root, returned as
// "<kind>/<file>.json" paths the way SimConfig references them.
func Discover(root, kind string) ([]string, error) {
	dir := filepath.Join(root, "configs", kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("discovering %s configs in %s: %w", kind, dir, err)
	}
	var configs []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		configs = append(configs, kind+"/"+e.Name())
	}
	return configs, nil
}
