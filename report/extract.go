// Package report scrapes performance metrics out of free-text simulation
// reports and compares a baseline run against a candidate run.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Markers the simulator prints its summary metrics under. The bandwidth line
// appears twice per report: once for active traffic and once tagged IDLE; the
// idle variant must never shadow the real figure.
const (
	markerTotalTime = "Total Time:"
	markerBandwidth = "AVG BW:"
	markerIdle      = "IDLE"
)

// Extractor locates one named metric: the first line containing Marker and
// not containing Exclude wins, later occurrences are ignored. Keeping the
// exclusion as data, not inline conditionals, keeps the policy auditable.
type Extractor struct {
	Name    string
	Marker  string
	Exclude string
}

// Match reports whether line carries this metric and, if so, returns the text
// following the marker.
func (e Extractor) Match(line string) (string, bool) {
	if e.Exclude != "" && strings.Contains(line, e.Exclude) {
		return "", false
	}
	idx := strings.Index(line, e.Marker)
	if idx < 0 {
		return "", false
	}
	return line[idx+len(e.Marker):], true
}

// Metrics holds the two figures scraped from one simulation report. A nil
// pointer is an explicit absence; Err carries the human-readable cause. A
// missing metric is never defaulted to zero.
type Metrics struct {
	TotalTimePs   *int64   `json:"total_time_ps"`
	BandwidthGBps *float64 `json:"avg_bandwidth_gbps"`
	Err           string   `json:"error,omitempty"`
}

// Complete reports whether both metrics were extracted.
func (m Metrics) Complete() bool {
	return m.TotalTimePs != nil && m.BandwidthGBps != nil
}

// Extract scans a simulation report for the total elapsed time and the
// non-idle average bandwidth. First occurrence of each marker is
// authoritative.
func Extract(r io.Reader) Metrics {
	timeExt := Extractor{Name: "total time", Marker: markerTotalTime}
	bwExt := Extractor{Name: "average bandwidth", Marker: markerBandwidth, Exclude: markerIdle}

	var m Metrics
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m.TotalTimePs == nil {
			if rest, ok := timeExt.Match(line); ok {
				if v, ok := scanInt(rest); ok {
					m.TotalTimePs = &v
				}
			}
		}
		if m.BandwidthGBps == nil {
			if rest, ok := bwExt.Match(line); ok {
				if v, ok := scanFloat(rest); ok {
					m.BandwidthGBps = &v
				}
			}
		}
		if m.Complete() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		m.Err = fmt.Sprintf("reading report: %v", err)
		return m
	}

	var missing []string
	if m.TotalTimePs == nil {
		missing = append(missing, timeExt.Name)
	}
	if m.BandwidthGBps == nil {
		missing = append(missing, bwExt.Name)
	}
	if len(missing) > 0 {
		m.Err = fmt.Sprintf("marker not found: %s", strings.Join(missing, ", "))
	}
	return m
}

// ExtractFile extracts metrics from the report at path. An unopenable file
// yields an explicit absence, not an error: the comparison stage must still
// produce a structured result.
func ExtractFile(path string) Metrics {
	f, err := os.Open(path)
	if err != nil {
		return Metrics{Err: fmt.Sprintf("opening report %s: %v", path, err)}
	}
	defer f.Close() //nolint:errcheck // read-only file

	return Extract(f)
}

// scanInt extracts the first run of decimal digits in s as an int64.
func scanInt(s string) (int64, bool) {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.ParseInt(s[start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// scanFloat extracts the first run of digits with an optional fractional part.
// A leading decimal point belongs to the number, so ".5" reads as 0.5.
func scanFloat(s string) (float64, bool) {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	seenDot := false
	if start > 0 && s[start-1] == '.' {
		start--
		seenDot = true
	}
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot && end+1 < len(s) && s[end+1] >= '0' && s[end+1] <= '9' {
			seenDot = true
			end++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
