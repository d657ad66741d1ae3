// Package portspec implements the port-count specification grammar (C2):
// a tiny declarative language by which an element class describes its
// legal input/output arities, resolved against the counts actually wired
// up by the router.
package portspec

import (
	"strconv"
	"strings"

	clickerrors "github.com/abhishen/click/errors"
)

// Unbounded is the Range.Max sentinel for "no upper limit".
const Unbounded = -1

// Range is a resolved half of a port-count specifier: a closed interval
// [Min, Max], or, for an output range only, Equal meaning "whatever the
// input side resolved to".
type Range struct {
	Min   int
	Max   int // Unbounded if unlimited
	Equal bool
}

// Spec is a parsed port-count specifier, e.g. "1-2/=".
type Spec struct {
	In  Range
	Out Range
}

// Default is the specifier implied by an empty string: any number of
// ports on either side. The legacy notify_ninputs/notify_noutputs
// fallback that an empty specifier originally triggered is not carried
// forward (spec §9, "Deprecated entry points").
var Default = Spec{
	In:  Range{Min: 0, Max: Unbounded},
	Out: Range{Min: 0, Max: Unbounded},
}

// Parse parses a port-count specifier of the form "<in-range>/<out-range>".
// If no "/" appears, the same range applies to both sides.
func Parse(s string) (Spec, error) {
	if s == "" {
		return Default, nil
	}

	inStr, outStr := s, s
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		inStr, outStr = s[:idx], s[idx+1:]
	}

	in, err := parseRange(inStr)
	if err != nil {
		return Spec{}, err
	}
	if in.Equal {
		return Spec{}, clickerrors.WrapInvalid(
			clickerrors.ErrInvalidSpec, "portspec", "Parse", `"=" is only valid on the output side`)
	}

	out, err := parseRange(outStr)
	if err != nil {
		return Spec{}, err
	}

	return Spec{In: in, Out: out}, nil
}

func parseRange(s string) (Range, error) {
	switch {
	case s == "" || s == "-":
		return Range{Min: 0, Max: Unbounded}, nil
	case s == "=":
		return Range{Equal: true}, nil
	case strings.HasPrefix(s, "-"):
		m, err := atoiNonNegative(s[1:])
		if err != nil {
			return Range{}, malformed(s)
		}
		return Range{Min: 0, Max: m}, nil
	case strings.HasSuffix(s, "-"):
		n, err := atoiNonNegative(s[:len(s)-1])
		if err != nil {
			return Range{}, malformed(s)
		}
		return Range{Min: n, Max: Unbounded}, nil
	case strings.ContainsRune(s, '-'):
		idx := strings.IndexByte(s, '-')
		n, err1 := atoiNonNegative(s[:idx])
		m, err2 := atoiNonNegative(s[idx+1:])
		if err1 != nil || err2 != nil || n > m {
			return Range{}, malformed(s)
		}
		return Range{Min: n, Max: m}, nil
	default:
		n, err := atoiNonNegative(s)
		if err != nil {
			return Range{}, malformed(s)
		}
		return Range{Min: n, Max: n}, nil
	}
}

func atoiNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, clickerrors.ErrInvalidSpec
	}
	return n, nil
}

func malformed(s string) error {
	return clickerrors.WrapInvalid(
		clickerrors.ErrInvalidSpec, "portspec", "parseRange", "malformed port-count range "+strconv.Quote(s))
}

// Resolve clamps the requested input/output counts (derived from actual
// wiring) into the declared ranges. Out.Equal copies the resolved input
// count onto the output side.
func (s Spec) Resolve(inWant, outWant int) (in, out int, err error) {
	if inWant < 0 || outWant < 0 {
		return 0, 0, clickerrors.WrapInvalid(
			clickerrors.ErrPortInvalidCount, "portspec", "Resolve", "negative port count requested")
	}

	in = clamp(inWant, s.In.Min, s.In.Max)

	if s.Out.Equal {
		out = in
		return in, out, nil
	}

	out = clamp(outWant, s.Out.Min, s.Out.Max)
	return in, out, nil
}

func clamp(want, min, max int) int {
	if want < min {
		return min
	}
	if max != Unbounded && want > max {
		return max
	}
	return want
}
