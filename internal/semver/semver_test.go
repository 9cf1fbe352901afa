package semver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/meza/entwine/internal/globalerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Version
	}{
		{"1.2.3", Version{1, 2, 3}},
		{"v0.6.1", Version{0, 6, 1}},
		{"10.20.30", Version{10, 20, 30}},
		{"0.0.0", Version{0, 0, 0}},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			actual, err := Parse(test.input)
			require.NoError(t, err)
			assert.Equal(t, test.expected, actual)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{"", "1", "1.2", "1.x.0", "1.2.3-beta", "1.2.3+build", " 1.2.3", "1.2.3.4", "-1.2.3", "V1.2.3", "vv1.2.3", "1..3", "99999999999999999999.0.0"} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, &globalerrors.InvalidVersionError{Version: input})
			assert.False(t, Valid(input))
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected Ordering
	}{
		{"1.2.3", "1.2.3", Equal},
		{"2.0.0", "1.9.9", Greater},
		{"1.9.9", "2.0.0", Less},
		{"0.10.0", "0.9.0", Greater},
		{"0.6.1", "v0.6.1", Equal},
		{"1.0.10", "1.0.9", Greater},
	}

	for _, test := range tests {
		t.Run(test.a+" vs "+test.b, func(t *testing.T) {
			actual, err := Compare(test.a, test.b)
			require.NoError(t, err)
			assert.Equal(t, test.expected, actual)
		})
	}
}

func TestCompareFailsOnInvalidInput(t *testing.T) {
	_, err := Compare("1.x.0", "1.0.0")
	assert.ErrorIs(t, err, &globalerrors.InvalidVersionError{})

	_, err = Compare("1.0.0", "latest")
	assert.ErrorIs(t, err, &globalerrors.InvalidVersionError{Version: "latest"})
}

func TestCompareIsConsistentWithNumericOrder(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	numeric := func(v Version) [3]uint64 { return [3]uint64{v.Major, v.Minor, v.Patch} }

	for i := 0; i < 500; i++ {
		a := Version{uint64(random.Intn(12)), uint64(random.Intn(12)), uint64(random.Intn(12))}
		b := Version{uint64(random.Intn(12)), uint64(random.Intn(12)), uint64(random.Intn(12))}

		expected := Equal
		na, nb := numeric(a), numeric(b)
		for index := 0; index < 3; index++ {
			if na[index] < nb[index] {
				expected = Less
				break
			}
			if na[index] > nb[index] {
				expected = Greater
				break
			}
		}

		actual, err := Compare(a.String(), b.String())
		require.NoError(t, err)
		assert.Equal(t, expected, actual, "%s vs %s", a, b)

		reverse, err := Compare(b.String(), a.String())
		require.NoError(t, err)
		assert.Equal(t, -actual, reverse, "antisymmetry for %s vs %s", a, b)
	}
}

func TestIsNewer(t *testing.T) {
	newer, err := IsNewer("0.6.1", "0.6.0")
	require.NoError(t, err)
	assert.True(t, newer)

	newer, err = IsNewer("0.6.0", "0.6.0")
	require.NoError(t, err)
	assert.False(t, newer)

	_, err = IsNewer("next", "0.6.0")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	normalized, err := Normalize("v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", normalized)

	_, err = Normalize("1.2")
	assert.Error(t, err)
}

func TestSortDescending(t *testing.T) {
	sorted, err := SortDescending([]string{"0.5.0", "0.6.1", "v0.6.0", "0.10.0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.10.0", "0.6.1", "0.6.0", "0.5.0"}, sorted)

	sorted, err = SortDescending([]string{"0.5.0", "bad", "1.0.0"})
	assert.ErrorIs(t, err, &globalerrors.InvalidVersionError{Version: "bad"})
	assert.Equal(t, []string{"1.0.0", "0.5.0"}, sorted)
}

func TestOrderingString(t *testing.T) {
	assert.Equal(t, "less", Less.String())
	assert.Equal(t, "equal", Equal.String())
	assert.Equal(t, "greater", Greater.String())
	assert.Equal(t, "Ordering(5)", Ordering(5).String())
}
