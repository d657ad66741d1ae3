// Package flowcode implements the flow-code grammar (C4): a per-element
// declaration of which input ports can reach which output ports, used by
// the router for reachability analysis.
package flowcode

import (
	"strings"

	clickerrors "github.com/abhishen/click/errors"
)

// Complete is the sentinel flow code meaning "every input reaches every
// output" — a fast path, evaluated without walking any codes.
const Complete = "x/x"

// portKind classifies a code's relationship to the "#" (port-index)
// marker: portNone carries no port-index constraint, portExact matches
// only the same port index on both sides ("#"), and portComplement
// matches any *different* port index (the negated bracket form "[^#]").
type portKind int8

const (
	portNone portKind = iota
	portExact
	portComplement
)

// code is a single parsed flow-code unit: a letter set (from a plain
// letter or a bracket group, possibly negated over the alphabet) together
// with an optional port-index constraint.
type code struct {
	letters uint64 // bit i set => letter i is a member (A-Z: 0-25, a-z: 26-51)
	port    portKind
}

const fullLetterMask = (uint64(1) << 52) - 1

// Spec is a parsed flow code, e.g. "xy/xxyx" or "#/#".
type Spec struct {
	raw      string
	complete bool
	in       []code
	out      []code
}

// Parse parses a flow-code specifier of the form
// "<in-codes>/<out-codes>". An empty string defaults to Complete, mirroring
// an element that never overrides flow_code().
//
// On a malformed bracket group (unterminated "["), Parse follows the
// original implementation's behavior: it returns the Spec built from
// whatever codes were accumulated before the error, together with a
// non-nil error. Callers that want strict rejection should treat any
// returned error as fatal for this element; callers that want best-effort
// behavior may use the returned Spec anyway. element.ResolvePorts treats
// any returned error as fatal.
func Parse(s string) (*Spec, error) {
	if s == "" || s == Complete {
		return &Spec{raw: s, complete: true}, nil
	}

	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return nil, clickerrors.WrapInvalid(
			clickerrors.ErrInvalidSpec, "flowcode", "Parse", "missing '/' in flow code \""+s+"\"")
	}

	inCodes, errIn := parseSection(s[:idx])
	outCodes, errOut := parseSection(s[idx+1:])

	spec := &Spec{raw: s, in: inCodes, out: outCodes}
	if errIn != nil {
		return spec, errIn
	}
	if errOut != nil {
		return spec, errOut
	}
	return spec, nil
}

func parseSection(s string) ([]code, error) {
	var codes []code
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '#':
			codes = append(codes, code{port: portExact})
			i++

		case c == '[':
			j := i + 1
			negate := false
			if j < len(s) && s[j] == '^' {
				negate = true
				j++
			}
			start := j
			for j < len(s) && s[j] != ']' {
				j++
			}
			content := s[start:minInt(j, len(s))]
			codes = append(codes, bracketCode(content, negate))

			if j >= len(s) {
				// Unterminated bracket group: no closing "]" found.
				return codes, clickerrors.WrapInvalid(
					clickerrors.ErrInvalidSpec, "flowcode", "parseSection", "unterminated bracket group")
			}
			i = j + 1

		case isFlowLetter(c):
			codes = append(codes, code{letters: uint64(1) << letterIndex(c)})
			i++

		default:
			return codes, clickerrors.WrapInvalid(
				clickerrors.ErrInvalidSpec, "flowcode", "parseSection", "invalid flow code character")
		}
	}
	return codes, nil
}

// bracketCode interprets bracket content (with any leading "^" already
// stripped and recorded in negate). A bracket consisting solely of "#" is
// a pure port-index constraint (portExact, or portComplement when
// negated); any other content is treated as a letter set, complemented
// over the full alphabet when negated, with a "#" inside a mixed bracket
// additionally contributing an (unnegatable) exact port-index match.
func bracketCode(content string, negate bool) code {
	if content == "#" {
		if negate {
			return code{port: portComplement}
		}
		return code{port: portExact}
	}

	hasHash := strings.ContainsRune(content, '#')
	mask := maskFromLetters(strings.ReplaceAll(content, "#", ""))
	if negate {
		mask = fullLetterMask &^ mask
	}

	c := code{letters: mask}
	if hasHash {
		c.port = portExact
	}
	return c
}

func isFlowLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func letterIndex(c byte) int {
	if c >= 'A' && c <= 'Z' {
		return int(c - 'A')
	}
	return 26 + int(c-'a')
}

func maskFromLetters(s string) uint64 {
	var mask uint64
	for i := 0; i < len(s); i++ {
		if isFlowLetter(s[i]) {
			mask |= uint64(1) << letterIndex(s[i])
		}
	}
	return mask
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func codeAt(codes []code, idx int) code {
	if len(codes) == 0 {
		return code{}
	}
	if idx < len(codes) {
		return codes[idx]
	}
	return codes[len(codes)-1]
}

// matches reports whether code a (at real port index idxA) and code b (at
// real port index idxB) share a letter or a port-index constraint.
func matches(a, b code, idxA, idxB int) bool {
	if a.letters&b.letters != 0 {
		return true
	}
	return portMatches(a.port, b.port, idxA == idxB)
}

func portMatches(a, b portKind, sameIndex bool) bool {
	switch {
	case a == portNone || b == portNone:
		return false
	case a == portExact && b == portExact:
		return sameIndex
	case a == portExact && b == portComplement, a == portComplement && b == portExact:
		return !sameIndex
	default: // both portComplement
		return true
	}
}

// PortFlow answers: starting from port `port` on the side named by
// isOutput, which of the `otherCount` ports on the complementary side can
// a packet reach? Out-of-range port yields an all-false vector of length
// otherCount.
func (s *Spec) PortFlow(isOutput bool, port int, myCount, otherCount int) []bool {
	out := make([]bool, otherCount)
	if port < 0 || port >= myCount {
		return out
	}
	if s.complete {
		for i := range out {
			out[i] = true
		}
		return out
	}

	mySection, otherSection := s.in, s.out
	if isOutput {
		mySection, otherSection = s.out, s.in
	}
	myCode := codeAt(mySection, port)

	for k := 0; k < otherCount; k++ {
		otherCode := codeAt(otherSection, k)
		out[k] = matches(myCode, otherCode, port, k)
	}
	return out
}

// IsComplete reports whether this spec is the "x/x" fast path.
func (s *Spec) IsComplete() bool { return s.complete }

// Raw returns the original specifier string.
func (s *Spec) Raw() string { return s.raw }
