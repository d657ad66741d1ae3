// Package procspec implements the processing specification grammar (C3):
// a per-element declaration of each port's transfer discipline (push,
// pull, or agnostic), later propagated across agnostic ports by the
// router.
package procspec

import (
	"strings"

	clickerrors "github.com/abhishen/click/errors"
)

// Discipline is a port's transfer discipline.
type Discipline int

const (
	// Agnostic means the discipline is not yet resolved; the container
	// infers it from a connected neighbor.
	Agnostic Discipline = iota
	// Push means the producing side drives transfer.
	Push
	// Pull means the consuming side drives transfer.
	Pull
)

func (d Discipline) String() string {
	switch d {
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return "agnostic"
	}
}

// Default is the specifier implied by an empty string: every port is
// agnostic.
const Default = "a"

// Resolve parses spec (a "<in-codes>/<out-codes>" string, or a single
// section duplicated onto both sides when no "/" appears) and expands it
// to one Discipline per port, replicating the last code in each section
// to cover remaining ports.
func Resolve(spec string, nIn, nOut int) (in, out []Discipline, err error) {
	inCodes, outCodes, err := split(spec)
	if err != nil {
		return nil, nil, err
	}

	in, err = expand(inCodes, nIn)
	if err != nil {
		return nil, nil, err
	}

	out, err = expand(outCodes, nOut)
	if err != nil {
		return nil, nil, err
	}

	return in, out, nil
}

func split(spec string) (in, out string, err error) {
	if spec == "" {
		return Default, Default, nil
	}
	if idx := strings.IndexByte(spec, '/'); idx >= 0 {
		return spec[:idx], spec[idx+1:], nil
	}
	return spec, spec, nil
}

func expand(codes string, n int) ([]Discipline, error) {
	if n == 0 {
		return []Discipline{}, nil
	}
	if codes == "" {
		return nil, clickerrors.WrapInvalid(
			clickerrors.ErrInvalidSpec, "procspec", "expand", "no processing codes to replicate")
	}

	result := make([]Discipline, n)
	last := byte(0)
	for i := 0; i < n; i++ {
		c := last
		if i < len(codes) {
			c = codes[i]
		}
		last = c

		d, ok := decode(c)
		if !ok {
			return nil, clickerrors.WrapInvalid(
				clickerrors.ErrInvalidSpec, "procspec", "expand", "unrecognized processing code")
		}
		result[i] = d
	}
	return result, nil
}

func decode(c byte) (Discipline, bool) {
	switch c {
	case 'h', 'H':
		return Push, true
	case 'l', 'L':
		return Pull, true
	case 'a', 'A':
		return Agnostic, true
	default:
		return 0, false
	}
}
