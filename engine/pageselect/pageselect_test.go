package pageselect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAll(t *testing.T) {
	require.Equal(t, []int{0, 1, 2, 3}, Resolve(4, All, ""))
}

func TestResolveOdd(t *testing.T) {
	require.Equal(t, []int{0, 2, 4}, Resolve(5, Odd, ""))
}

func TestResolveEven(t *testing.T) {
	require.Equal(t, []int{1, 3}, Resolve(5, Even, ""))
}

func TestResolveCustomRangeAndSingles(t *testing.T) {
	require.Equal(t, []int{1, 2, 6}, Resolve(10, Custom, "2-3,7"))
}

func TestResolveCustomSwapsReversedRange(t *testing.T) {
	require.Equal(t, []int{1, 2, 3}, Resolve(10, Custom, "4-2"))
}

func TestResolveCustomClampsOutOfBounds(t *testing.T) {
	require.Equal(t, []int{0, 1, 2}, Resolve(3, Custom, "1-100"))
}

func TestResolveCustomDedups(t *testing.T) {
	require.Equal(t, []int{0, 1}, Resolve(5, Custom, "1-2,1,2,1-2"))
}

func TestResolveCustomSortsOutOfOrderInput(t *testing.T) {
	require.Equal(t, []int{0, 2, 4}, Resolve(5, Custom, "5,1,3"))
}

func TestResolveCustomSkipsUnparsablePartsButKeepsGood(t *testing.T) {
	require.Equal(t, []int{0, 2}, Resolve(5, Custom, "1,abc,3"))
}

func TestResolveCustomWhollyUnparsableYieldsEmpty(t *testing.T) {
	require.Empty(t, Resolve(5, Custom, "garbage"))
}

func TestResolveCustomEmptyStringYieldsEmpty(t *testing.T) {
	require.Empty(t, Resolve(5, Custom, ""))
}

func TestResolveCustomIgnoresInternalWhitespace(t *testing.T) {
	require.Equal(t, []int{1, 2, 6}, Resolve(10, Custom, " 2 - 3 , 7 "))
}
