// Package stim converts raw memory-access traces into simulator stimulus files.
// This package has no dependencies on dramsys/ or optimize/ — it is pure
// record classification and reformatting.
package stim

// OpKind classifies one line of a profiler trace.
type OpKind int

const (
	// OpUnrecognized marks a line that is not a memory-access record
	// (instruction fetches, banner text, blank lines). Skipped, never an error.
	OpUnrecognized OpKind = iota
	// OpLoad is a memory read.
	OpLoad
	// OpStore is a memory write.
	OpStore
	// OpModify is a read-modify-write: one record, two stimulus events.
	OpModify
)

// String returns the single-letter tag used in profiler output.
func (k OpKind) String() string {
	switch k {
	case OpLoad:
		return "L"
	case OpStore:
		return "S"
	case OpModify:
		return "M"
	default:
		return "?"
	}
}

// Record is a single raw memory-access record.
// The size field is carried for completeness but unused downstream.
type Record struct {
	Kind OpKind
	Addr uint64
	Size int
}

// ClassifyLine tokenizes one profiler line. The expected shape is
//
//	<ws>+ <L|S|M> <ws>+ <hex-address> "," <decimal-size>
//
// Anything else yields a Record with Kind OpUnrecognized. The skip is an
// explicit branch rather than a silent regex miss so callers can count it.
func ClassifyLine(line string) Record {
	i := 0
	n := len(line)

	// Memory-access records are indented; instruction records are not.
	start := i
	for i < n && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i == start || i >= n {
		return Record{Kind: OpUnrecognized}
	}

	var kind OpKind
	switch line[i] {
	case 'L':
		kind = OpLoad
	case 'S':
		kind = OpStore
	case 'M':
		kind = OpModify
	default:
		return Record{Kind: OpUnrecognized}
	}
	i++

	start = i
	for i < n && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i == start {
		return Record{Kind: OpUnrecognized}
	}

	addr, width := parseHex(line[i:])
	if width == 0 {
		return Record{Kind: OpUnrecognized}
	}
	i += width

	if i >= n || line[i] != ',' {
		return Record{Kind: OpUnrecognized}
	}
	i++

	size, width := parseDecimal(line[i:])
	if width == 0 {
		return Record{Kind: OpUnrecognized}
	}
	i += width

	// Trailing garbage after the size field disqualifies the line.
	for i < n {
		if line[i] != ' ' && line[i] != '\t' && line[i] != '\r' {
			return Record{Kind: OpUnrecognized}
		}
		i++
	}

	return Record{Kind: kind, Addr: addr, Size: size}
}

// parseHex reads a leading run of hex digits and returns the value and the
// number of bytes consumed. width 0 means no hex digit was present, or the
// run exceeds the 16 digits a uint64 can hold without wrapping.
func parseHex(s string) (val uint64, width int) {
	for width < len(s) {
		c := s[width]
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			if width > 16 {
				return 0, 0
			}
			return val, width
		}
		val = val<<4 | d
		width++
	}
	if width > 16 {
		return 0, 0
	}
	return val, width
}

// parseDecimal reads a leading run of decimal digits.
func parseDecimal(s string) (val int, width int) {
	for width < len(s) && s[width] >= '0' && s[width] <= '9' {
		val = val*10 + int(s[width]-'0')
		width++
	}
	return val, width
}
