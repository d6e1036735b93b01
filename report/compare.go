package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrZeroDenominator signals that a metric dividing a derived statistic is
// zero and the statistics cannot be computed. Surfaced explicitly rather than
// letting an infinity or NaN leak into the persisted result.
var ErrZeroDenominator = errors.New("denominator metric is zero")

// SideResult is one configuration's half of a comparison.
type SideResult struct {
	Label      string `json:"config_name"`
	ReportPath string `json:"report,omitempty"`
	Metrics
}

// ExtractSide builds a SideResult by scraping the report at path.
func ExtractSide(label, path string) SideResult {
	return SideResult{Label: label, ReportPath: path, Metrics: ExtractFile(path)}
}

// Derived holds the statistics computed from two complete metric sets.
type Derived struct {
	TimeReductionPct     float64 `json:"time_reduction_percent"`
	BandwidthIncreasePct float64 `json:"bandwidth_increase_percent"`
	SpeedupFactor        float64 `json:"speedup_factor"`
}

// Comparison is the persisted verdict of one baseline-vs-candidate run.
// Derived is nil whenever either side is incomplete or a denominator metric
// is zero; DerivedErr then says why.
type Comparison struct {
	Baseline   SideResult `json:"baseline"`
	Candidate  SideResult `json:"candidate"`
	Derived    *Derived   `json:"derived,omitempty"`
	DerivedErr string     `json:"derived_error,omitempty"`
}

// Compare computes derived statistics from two extracted sides. The returned
// Comparison is always populated, even on failure, so a sweep over many
// configurations never loses a result. The error is non-nil only for the
// zero-denominator case.
func Compare(baseline, candidate SideResult) (Comparison, error) {
	c := Comparison{Baseline: baseline, Candidate: candidate}

	var incomplete []string
	if !baseline.Complete() {
		incomplete = append(incomplete, fmt.Sprintf("baseline %q: %s", baseline.Label, baseline.Err))
	}
	if !candidate.Complete() {
		incomplete = append(incomplete, fmt.Sprintf("candidate %q: %s", candidate.Label, candidate.Err))
	}
	if len(incomplete) > 0 {
		c.DerivedErr = "metrics missing: " + strings.Join(incomplete, "; ")
		return c, nil
	}

	bTime := *baseline.TotalTimePs
	cTime := *candidate.TotalTimePs
	bBW := *baseline.BandwidthGBps
	cBW := *candidate.BandwidthGBps

	// cTime divides the speedup factor, so a zero candidate time is just as
	// fatal as a zero baseline.
	if bTime == 0 || bBW == 0 || cTime == 0 {
		err := fmt.Errorf("comparing %q against %q: %w", candidate.Label, baseline.Label, ErrZeroDenominator)
		c.DerivedErr = err.Error()
		return c, err
	}

	c.Derived = &Derived{
		TimeReductionPct:     float64(bTime-cTime) / float64(bTime) * 100,
		BandwidthIncreasePct: (cBW - bBW) / bBW * 100,
		SpeedupFactor:        float64(bTime) / float64(cTime),
	}
	return c, nil
}

// Save persists the comparison as indented JSON. encoding/json emits the
// shortest float representation that round-trips, so reloading reproduces
// identical numeric fields.
func (c Comparison) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling comparison: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing comparison %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved comparison.
func Load(path string) (Comparison, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Comparison{}, fmt.Errorf("reading comparison %s: %w", path, err)
	}
	var c Comparison
	if err := json.Unmarshal(data, &c); err != nil {
		return Comparison{}, fmt.Errorf("parsing comparison %s: %w", path, err)
	}
	return c, nil
}
