package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("1234.50")
	require.NoError(t, err)
	require.Equal(t, "1234.50", String(d))

	d, err = Parse("")
	require.NoError(t, err)
	require.True(t, d.IsZero())

	_, err = Parse("not-a-number")
	require.Error(t, err)
}

func TestParseNonNegative(t *testing.T) {
	_, err := ParseNonNegative("-0.01")
	require.ErrorIs(t, err, ErrNegativeAmount)

	d, err := ParseNonNegative("0.00")
	require.NoError(t, err)
	require.True(t, d.IsZero())
}

func TestSumExact(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3, not a float approximation.
	total := Sum(MustParse("0.1"), MustParse("0.2"))
	require.True(t, total.Equal(MustParse("0.3")))
}
