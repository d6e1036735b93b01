package stim

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Format selects the stimulus-file serialization. Different downstream
// consumers expect different encodings, so this is configuration, not a
// computed property.
type Format string

const (
	// FormatSTL emits "<timestamp>:\t<read|write>\t0x<hex-address>" lines,
	// the trace-player format.
	FormatSTL Format = "stl"
	// FormatPlain emits "<timestamp> <read|write> <decimal-address>" lines.
	FormatPlain Format = "plain"
)

// ParseFormat validates a format string from a CLI flag or config file.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSTL, FormatPlain:
		return Format(s), nil
	case "":
		return FormatSTL, nil
	default:
		return "", fmt.Errorf("unknown stimulus format %q (want %q or %q)", s, FormatSTL, FormatPlain)
	}
}

const (
	// DefaultMaxOps bounds how many stimulus events one conversion emits.
	DefaultMaxOps = 100000

	// Each format historically shipped with its own per-event timestamp
	// increment. Both are kept as defaults rather than unified; the consumer
	// decides which it wants.
	defaultIncrementSTL   = 5
	defaultIncrementPlain = 10

	progressInterval = 10000
)

// Options configures a conversion run.
type Options struct {
	Format    Format
	Increment int64 // per-event timestamp advance; 0 selects the format default
	MaxOps    int   // event cap; 0 selects DefaultMaxOps
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatSTL
	}
	if o.Increment == 0 {
		if o.Format == FormatPlain {
			o.Increment = defaultIncrementPlain
		} else {
			o.Increment = defaultIncrementSTL
		}
	}
	if o.MaxOps == 0 {
		o.MaxOps = DefaultMaxOps
	}
	return o
}

// Cursor is the conversion accumulator: the running timestamp and the number
// of events emitted so far. It is threaded through the loop explicitly so a
// caller can convert several traces concurrently without shared state.
type Cursor struct {
	Timestamp int64
	Ops       int
}

// Stats reports the outcome of a conversion. Ops == 0 signals an empty or
// incompatible trace; it is not an error.
type Stats struct {
	Ops            int
	FinalTimestamp int64
	LinesRead      int
	LinesSkipped   int
}

// Convert performs one pass over the raw trace in r, writing stimulus events
// to w. Load records emit a read, Store records a write, and Modify records a
// read followed by a write, each event advancing the timestamp by the fixed
// increment. Conversion halts normally once the operation cap is reached.
func Convert(r io.Reader, w io.Writer, opts Options) (Stats, error) {
	opts = opts.withDefaults()

	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur Cursor
	var stats Stats

	emit := func(dir string, addr uint64) error {
		var err error
		switch opts.Format {
		case FormatPlain:
			_, err = fmt.Fprintf(bw, "%d %s %d\n", cur.Timestamp, dir, addr)
		default:
			_, err = fmt.Fprintf(bw, "%d:\t%s\t0x%x\n", cur.Timestamp, dir, addr)
		}
		if err != nil {
			return fmt.Errorf("writing stimulus event: %w", err)
		}
		cur.Timestamp += opts.Increment
		cur.Ops++
		if cur.Ops%progressInterval == 0 {
			logrus.Infof("converted %d operations (timestamp=%d)", cur.Ops, cur.Timestamp)
		}
		return nil
	}

	for cur.Ops < opts.MaxOps && scanner.Scan() {
		stats.LinesRead++
		rec := ClassifyLine(scanner.Text())
		if rec.Kind == OpUnrecognized {
			stats.LinesSkipped++
			continue
		}

		if rec.Kind == OpLoad || rec.Kind == OpModify {
			if err := emit("read", rec.Addr); err != nil {
				return stats, err
			}
		}
		if (rec.Kind == OpStore || rec.Kind == OpModify) && cur.Ops < opts.MaxOps {
			if err := emit("write", rec.Addr); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading raw trace: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing stimulus output: %w", err)
	}

	stats.Ops = cur.Ops
	stats.FinalTimestamp = cur.Timestamp
	return stats, nil
}

// ConvertFile converts the raw trace at inPath into a stimulus file at outPath.
func ConvertFile(inPath, outPath string, opts Options) (Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("opening raw trace %s: %w", inPath, err)
	}
	defer in.Close() //nolint:errcheck // read-only file

	out, err := os.Create(outPath)
	if err != nil {
		return Stats{}, fmt.Errorf("creating stimulus file %s: %w", outPath, err)
	}

	stats, convErr := Convert(in, out, opts)
	if closeErr := out.Close(); convErr == nil && closeErr != nil {
		return stats, fmt.Errorf("closing stimulus file %s: %w", outPath, closeErr)
	}
	return stats, convErr
}
