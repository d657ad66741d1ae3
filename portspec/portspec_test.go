package portspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Forms(t *testing.T) {
	cases := []struct {
		name string
		spec string
		want Spec
	}{
		{"exact", "2", Spec{Range{2, 2, false}, Range{2, 2, false}}},
		{"range", "1-2/=", Spec{Range{1, 2, false}, Range{0, 0, true}}},
		{"up-to", "-3", Spec{Range{0, 3, false}, Range{0, 3, false}}},
		{"at-least", "1-", Spec{Range{1, Unbounded, false}, Range{1, Unbounded, false}}},
		{"any", "-", Spec{Range{0, Unbounded, false}, Range{0, Unbounded, false}}},
		{"split-sides", "0/1", Spec{Range{0, 0, false}, Range{1, 1, false}}},
		{"empty-is-default", "", Default},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{"x", "2-1", "=/1", "1-2-3", "--1"}
	for _, spec := range cases {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			assert.Error(t, err)
		})
	}
}

func TestResolve_ClampsAndCopiesEqual(t *testing.T) {
	spec, err := Parse("1-2/=")
	require.NoError(t, err)

	in, out, err := spec.Resolve(3, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, in)  // clamped into [1,2]
	assert.Equal(t, 2, out) // "=" copies resolved input
}

func TestResolve_NegativeWantIsInvalid(t *testing.T) {
	spec, _ := Parse("-")
	_, _, err := spec.Resolve(-1, 0)
	assert.Error(t, err)
}

func TestResolve_Unbounded(t *testing.T) {
	spec, err := Parse("1-")
	require.NoError(t, err)
	in, _, err := spec.Resolve(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, in)

	in, _, err = spec.Resolve(50, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, in)
}
