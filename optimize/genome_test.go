package optimize

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func hardwareSpace() Space {
	return Space{
		MemSpecs: []string{
			"memspec/JEDEC_4Gb_DDR4-2400_8bit_A.json",
			"memspec/JEDEC_4Gb_DDR4-3200_8bit_A.json",
		},
		AddressMappings: []string{"addressmapping/am_ddr4_brc.json", "addressmapping/am_ddr4_rbc.json"},
		MCConfigs:       []string{"mcconfig/fifo.json", "mcconfig/fr_fcfs.json"},
	}
}

func workloadSpace() Space {
	s := hardwareSpace()
	s.ClkMhz = []int{800, 1000, 1600}
	s.NumRequests = []int{10000, 50000}
	s.RWRatios = []float64{0.7, 0.9}
	s.AddressDistributions = []string{"random", "sequential"}
	return s
}

func TestSpace_Validate_RequiresHardwareLists(t *testing.T) {
	s := hardwareSpace()
	s.MCConfigs = nil
	if err := s.Validate(); err == nil {
		t.Error("expected error for empty mcconfigs")
	}
}

func TestSpace_Validate_WorkloadListsAllOrNone(t *testing.T) {
	// GIVEN a space with only some workload gene lists
	s := hardwareSpace()
	s.ClkMhz = []int{1000}

	// THEN validation rejects the partial workload definition
	if err := s.Validate(); err == nil {
		t.Error("expected error for partial workload genes")
	}
	if err := workloadSpace().Validate(); err != nil {
		t.Errorf("full workload space should validate: %v", err)
	}
}

func TestSpace_SearchSize(t *testing.T) {
	if got := hardwareSpace().SearchSize(); got != 8 {
		t.Errorf("hardware search size = %d, want 8", got)
	}
	if got := workloadSpace().SearchSize(); got != 8*3*2*2*2 {
		t.Errorf("workload search size = %d, want %d", got, 8*3*2*2*2)
	}
}

func TestSpace_Random_StaysWithinSpace(t *testing.T) {
	// GIVEN a workload space
	s := workloadSpace()
	rng := rand.New(rand.NewSource(1))

	allowed := func(list []string, v string) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	}

	// THEN every sampled genome draws each gene from its list
	for i := 0; i < 100; i++ {
		g := s.Random(rng)
		if !allowed(s.MemSpecs, g.MemSpec) || !allowed(s.AddressMappings, g.AddressMapping) ||
			!allowed(s.MCConfigs, g.MCConfig) || !allowed(s.AddressDistributions, g.AddressDistribution) {
			t.Fatalf("sampled genome outside space: %+v", g)
		}
		if !g.HasWorkloadGenes() {
			t.Fatal("workload space must sample workload genes")
		}
	}
}

func TestCrossover_ChildGenesComeFromParents(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := Genome{MemSpec: "m1", AddressMapping: "a1", MCConfig: "c1"}
	b := Genome{MemSpec: "m2", AddressMapping: "a2", MCConfig: "c2"}

	for i := 0; i < 50; i++ {
		child := Crossover(rng, a, b)
		if child.MemSpec != "m1" && child.MemSpec != "m2" {
			t.Fatalf("memspec %q not from either parent", child.MemSpec)
		}
		if child.AddressMapping != "a1" && child.AddressMapping != "a2" {
			t.Fatalf("addressmapping %q not from either parent", child.AddressMapping)
		}
		if child.MCConfig != "c1" && child.MCConfig != "c2" {
			t.Fatalf("mcconfig %q not from either parent", child.MCConfig)
		}
	}
}

func TestMutate_RateOne_ResamplesFromSpace(t *testing.T) {
	s := hardwareSpace()
	rng := rand.New(rand.NewSource(3))
	g := s.Random(rng)
	s.Mutate(rng, &g, 1.0)

	found := false
	for _, m := range s.MemSpecs {
		if g.MemSpec == m {
			found = true
		}
	}
	if !found {
		t.Errorf("mutated memspec %q left the space", g.MemSpec)
	}
}

func TestMutate_RateZero_LeavesGenomeUntouched(t *testing.T) {
	s := hardwareSpace()
	rng := rand.New(rand.NewSource(4))
	g := s.Random(rng)
	orig := g
	s.Mutate(rng, &g, 0.0)
	if g != orig {
		t.Errorf("zero-rate mutation changed genome: %+v -> %+v", orig, g)
	}
}

func TestGenome_Key_DistinguishesGenomes(t *testing.T) {
	a := Genome{MemSpec: "m1", AddressMapping: "a1", MCConfig: "c1"}
	b := a
	b.MCConfig = "c2"
	if a.Key() == b.Key() {
		t.Error("distinct genomes must have distinct keys")
	}
	if a.Key() != a.Key() {
		t.Error("key must be stable")
	}
}

func TestLoadSpace_StrictFields_RejectsTypos(t *testing.T) {
	// GIVEN a search space file with a misspelled key
	dir := t.TempDir()
	path := filepath.Join(dir, "search.yaml")
	content := "memspecs: [memspec/a.json]\naddressmappings: [addressmapping/b.json]\nmcconfigs: [mcconfig/c.json]\nmemspcs: [oops]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// THEN loading fails instead of silently dropping the list
	if _, err := LoadSpace(path); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadSpace_ValidFile_ParsesLists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search.yaml")
	content := `memspecs:
  - memspec/JEDEC_4Gb_DDR4-2400_8bit_A.json
  - memspec/JEDEC_8Gb_DDR4-2400_8bit_A.json
addressmappings:
  - addressmapping/am_ddr4_brc.json
mcconfigs:
  - mcconfig/fr_fcfs.json
clk_mhz: [800, 1000]
num_requests: [10000]
rw_ratios: [0.9]
address_distributions: [random, sequential]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSpace(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.MemSpecs) != 2 || !s.HasWorkloadGenes() {
		t.Errorf("parsed space incomplete: %+v", s)
	}
}
