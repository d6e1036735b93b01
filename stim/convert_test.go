package stim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConvert_MixedRecords_EmitsOrderedTimestampedEvents(t *testing.T) {
	// GIVEN a raw trace with a load, a store, a non-matching line, and a modify
	input := "  L 7fff0001,8\n" +
		"  S 7fff0008,4\n" +
		"  I 400000,4\n" +
		"  M 7fff0010,8\n"

	// WHEN converting with increment=5 and cap=10
	var out strings.Builder
	stats, err := Convert(strings.NewReader(input), &out, Options{
		Format:    FormatSTL,
		Increment: 5,
		MaxOps:    10,
	})

	// THEN four events appear at timestamps 0, 5, 10, 15 in source order
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0:\tread\t0x7fff0001\n" +
		"5:\twrite\t0x7fff0008\n" +
		"10:\tread\t0x7fff0010\n" +
		"15:\twrite\t0x7fff0010\n"
	if out.String() != want {
		t.Errorf("output:\n%swant:\n%s", out.String(), want)
	}
	if stats.Ops != 4 {
		t.Errorf("ops = %d, want 4", stats.Ops)
	}
	if stats.FinalTimestamp != 20 {
		t.Errorf("final timestamp = %d, want 20", stats.FinalTimestamp)
	}
	if stats.LinesSkipped != 1 {
		t.Errorf("lines skipped = %d, want 1", stats.LinesSkipped)
	}
}

func TestConvert_ModifyRecord_ReadPrecedesWrite(t *testing.T) {
	// GIVEN a single modify record
	var out strings.Builder
	stats, err := Convert(strings.NewReader("  M cafe,8\n"), &out, Options{Increment: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN exactly two events are emitted, read then write, two ticks apart
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("event count = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "read") || !strings.Contains(lines[1], "write") {
		t.Errorf("modify must emit read before write, got %v", lines)
	}
	if stats.FinalTimestamp != 10 {
		t.Errorf("final timestamp = %d, want 10 (two increments)", stats.FinalTimestamp)
	}
}

func TestConvert_PlainFormat_DecimalAddresses(t *testing.T) {
	// GIVEN a load at a known address
	var out strings.Builder
	_, err := Convert(strings.NewReader("  L ff,4\n"), &out, Options{
		Format:    FormatPlain,
		Increment: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN the event is space-delimited with a decimal address
	if out.String() != "0 read 255\n" {
		t.Errorf("output = %q, want %q", out.String(), "0 read 255\n")
	}
}

func TestConvert_OperationCap_HaltsWithoutError(t *testing.T) {
	// GIVEN more records than the cap allows
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("  L 1000,4\n")
	}

	// WHEN converting with a cap of 7
	var out strings.Builder
	stats, err := Convert(strings.NewReader(sb.String()), &out, Options{Increment: 5, MaxOps: 7})

	// THEN conversion halts at the cap with no error
	if err != nil {
		t.Fatalf("cap must not be an error, got: %v", err)
	}
	if stats.Ops != 7 {
		t.Errorf("ops = %d, want 7", stats.Ops)
	}
	if got := strings.Count(out.String(), "\n"); got != 7 {
		t.Errorf("emitted %d events, want 7", got)
	}
}

func TestConvert_CapMidModify_EmitsReadOnly(t *testing.T) {
	// GIVEN a load followed by a modify, with a cap of 2
	input := "  L 1000,4\n  M 2000,8\n"
	var out strings.Builder
	stats, err := Convert(strings.NewReader(input), &out, Options{Increment: 5, MaxOps: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN the modify's read lands but its write is cut off by the cap
	if stats.Ops != 2 {
		t.Errorf("ops = %d, want 2", stats.Ops)
	}
	if strings.Contains(out.String(), "write") {
		t.Errorf("write must not be emitted past the cap, got:\n%s", out.String())
	}
}

func TestConvert_NoMatchingLines_SucceedsWithZeroOps(t *testing.T) {
	// GIVEN a trace with no memory-access records
	input := "==1== startup\nI 400000,4\nsome banner\n"
	var out strings.Builder
	stats, err := Convert(strings.NewReader(input), &out, Options{})

	// THEN the run succeeds and the zero count signals an incompatible trace
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Ops != 0 {
		t.Errorf("ops = %d, want 0", stats.Ops)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output events, got %q", out.String())
	}
	if stats.LinesSkipped != 3 {
		t.Errorf("lines skipped = %d, want 3", stats.LinesSkipped)
	}
}

func TestConvert_DefaultIncrements_PerFormat(t *testing.T) {
	// GIVEN one load converted under each format's defaults
	var stl, plain strings.Builder
	stlStats, err := Convert(strings.NewReader("  L 10,4\n"), &stl, Options{Format: FormatSTL})
	if err != nil {
		t.Fatal(err)
	}
	plainStats, err := Convert(strings.NewReader("  L 10,4\n"), &plain, Options{Format: FormatPlain})
	if err != nil {
		t.Fatal(err)
	}

	// THEN each format keeps its historical increment
	if stlStats.FinalTimestamp != 5 {
		t.Errorf("stl default increment: final timestamp = %d, want 5", stlStats.FinalTimestamp)
	}
	if plainStats.FinalTimestamp != 10 {
		t.Errorf("plain default increment: final timestamp = %d, want 10", plainStats.FinalTimestamp)
	}
}

func TestConvertFile_MissingInput_ReturnsError(t *testing.T) {
	_, err := ConvertFile(filepath.Join(t.TempDir(), "nope.log"), filepath.Join(t.TempDir(), "out.stl"), Options{})
	if err == nil {
		t.Fatal("expected error for unreadable input")
	}
}

func TestConvertFile_RoundTrip_WritesParseableEvents(t *testing.T) {
	// GIVEN a raw trace on disk
	dir := t.TempDir()
	inPath := filepath.Join(dir, "raw.log")
	outPath := filepath.Join(dir, "out.stl")
	raw := "  L 7fff0001,8\n  M 7fff0010,8\n"
	if err := os.WriteFile(inPath, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	// WHEN converting to a file
	stats, err := ConvertFile(inPath, outPath, Options{Increment: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Ops != 3 {
		t.Errorf("ops = %d, want 3", stats.Ops)
	}

	// THEN every emitted line has the timestamp:direction:address shape
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			t.Errorf("line %q is not 3 tab-separated fields", line)
			continue
		}
		if !strings.HasSuffix(parts[0], ":") {
			t.Errorf("timestamp field %q missing colon", parts[0])
		}
		if parts[1] != "read" && parts[1] != "write" {
			t.Errorf("direction field %q invalid", parts[1])
		}
		if !strings.HasPrefix(parts[2], "0x") {
			t.Errorf("address field %q missing 0x prefix", parts[2])
		}
	}
}

func TestParseFormat_RejectsUnknown(t *testing.T) {
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("expected error for unknown format")
	}
	if f, err := ParseFormat(""); err != nil || f != FormatSTL {
		t.Errorf("empty format: got (%v, %v), want (%v, nil)", f, err, FormatSTL)
	}
}
