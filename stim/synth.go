package stim

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
)

// Memory-region layout for the synthetic AI-inference trace: model weights,
// activations, and output buffers, placed above a 4 GiB base.
const (
	synthBaseAddr       uint64 = 0x100000000
	synthWeightSize     uint64 = 100 * 1024 * 1024
	synthActivationSize uint64 = 200 * 1024 * 1024
	synthOutputSize     uint64 = 50 * 1024 * 1024

	synthLineBytes uint64 = 64
)

// SynthOptions configures synthetic trace generation.
type SynthOptions struct {
	Ops    int    // number of events to generate; 0 selects 50000
	Seed   int64  // RNG seed; the same seed reproduces the same trace
	Format Format // stimulus serialization, as for Convert
}

func (o SynthOptions) withDefaults() SynthOptions {
	if o.Ops == 0 {
		o.Ops = 50000
	}
	if o.Format == "" {
		o.Format = FormatSTL
	}
	return o
}

// Synth writes a synthetic AI-inference-style stimulus trace to w:
// 70% sequential weight reads, 20% random activation reads, 10% random
// output writes, with region-specific timestamp increments. It is a
// profiler-free alternative to converting a captured trace.
func Synth(w io.Writer, opts SynthOptions) (Stats, error) {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	weightBase := synthBaseAddr
	activationBase := weightBase + synthWeightSize
	outputBase := activationBase + synthActivationSize

	bw := bufio.NewWriter(w)
	var cur Cursor

	writeEvent := func(dir string, addr uint64) error {
		var err error
		switch opts.Format {
		case FormatPlain:
			_, err = fmt.Fprintf(bw, "%d %s %d\n", cur.Timestamp, dir, addr)
		default:
			_, err = fmt.Fprintf(bw, "%d:\t%s\t0x%x\n", cur.Timestamp, dir, addr)
		}
		if err != nil {
			return fmt.Errorf("writing synthetic event: %w", err)
		}
		return nil
	}

	for i := 0; i < opts.Ops; i++ {
		var err error
		switch p := rng.Float64(); {
		case p < 0.70: // sequential weight reads
			addr := weightBase + (uint64(i)*synthLineBytes)%synthWeightSize
			err = writeEvent("read", addr)
			cur.Timestamp += 5
		case p < 0.90: // random activation reads
			addr := activationBase + uint64(rng.Int63n(int64(synthActivationSize/synthLineBytes)))*synthLineBytes
			err = writeEvent("read", addr)
			cur.Timestamp += 10
		default: // output writes
			addr := outputBase + uint64(rng.Int63n(int64(synthOutputSize/synthLineBytes)))*synthLineBytes
			err = writeEvent("write", addr)
			cur.Timestamp += 15
		}
		if err != nil {
			return Stats{Ops: cur.Ops, FinalTimestamp: cur.Timestamp}, err
		}
		cur.Ops++
		if cur.Ops%progressInterval == 0 {
			logrus.Infof("generated %d/%d operations", cur.Ops, opts.Ops)
		}
	}
	if err := bw.Flush(); err != nil {
		return Stats{Ops: cur.Ops, FinalTimestamp: cur.Timestamp}, fmt.Errorf("flushing synthetic trace: %w", err)
	}

	return Stats{Ops: cur.Ops, FinalTimestamp: cur.Timestamp}, nil
}

// SynthFile generates a synthetic trace at path.
func SynthFile(path string, opts SynthOptions) (Stats, error) {
	out, err := os.Create(path)
	if err != nil {
		return Stats{}, fmt.Errorf("creating synthetic trace %s: %w", path, err)
	}

	stats, synthErr := Synth(out, opts)
	if closeErr := out.Close(); synthErr == nil && closeErr != nil {
		return stats, fmt.Errorf("closing synthetic trace %s: %w", path, closeErr)
	}
	return stats, synthErr
}
