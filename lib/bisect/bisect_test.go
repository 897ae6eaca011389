package bisect

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artie-labs/sifter/lib/iterator"
)

const poison = -1

// failOnPoison fails any batch that contains the poison value, without saying where it is.
func failOnPoison(batch []int) error {
	if slices.Contains(batch, poison) {
		return fmt.Errorf("bad item")
	}
	return nil
}

func alwaysFail[T any](_ []T) error {
	return fmt.Errorf("nope")
}

func sorted(items []int) []int {
	out := slices.Clone(items)
	slices.Sort(out)
	return out
}

func TestSplit(t *testing.T) {
	{
		left, right := Split([]int{1, 2, 3, 4})
		assert.Equal(t, []int{1, 2}, left)
		assert.Equal(t, []int{3, 4}, right)
	}
	{
		// Odd lengths put the extra item in the second half.
		left, right := Split([]int{1, 2, 3})
		assert.Equal(t, []int{1}, left)
		assert.Equal(t, []int{2, 3}, right)
	}
	{
		left, right := Split([]int{1, 2})
		_ = append(left, 99)
		assert.Equal(t, []int{2}, right)
	}
}

func TestResolve(t *testing.T) {
	type _tc struct {
		name         string
		items        []int
		expectedBad  []int
		expectedGood []int
	}

	tcs := []_tc{
		{
			name:         "all ok",
			items:        []int{1, 2, 3, 4, 5, 6},
			expectedGood: []int{1, 2, 3, 4, 5, 6},
		},
		{
			name:         "one bad at the end",
			items:        []int{1, 2, 3, 4, 5, poison},
			expectedBad:  []int{poison},
			expectedGood: []int{1, 2, 3, 4, 5},
		},
		{
			name:         "one bad at the start",
			items:        []int{poison, 2, 3, 4, 5},
			expectedBad:  []int{poison},
			expectedGood: []int{2, 3, 4, 5},
		},
		{
			name:         "one bad in the middle",
			items:        []int{1, 2, 3, poison, 5, 6, 7},
			expectedBad:  []int{poison},
			expectedGood: []int{1, 2, 3, 5, 6, 7},
		},
		{
			name:         "two bad",
			items:        []int{poison, 2, 3, 4, 5, poison},
			expectedBad:  []int{poison, poison},
			expectedGood: []int{2, 3, 4, 5},
		},
		{
			name:        "all bad, even length",
			items:       []int{poison, poison, poison, poison},
			expectedBad: []int{poison, poison, poison, poison},
		},
		{
			name:        "all bad, odd length",
			items:       []int{poison, poison, poison},
			expectedBad: []int{poison, poison, poison},
		},
		{
			name:        "single bad item",
			items:       []int{poison},
			expectedBad: []int{poison},
		},
		{
			name:         "duplicates are kept",
			items:        []int{7, 7, poison, 7},
			expectedBad:  []int{poison},
			expectedGood: []int{7, 7, 7},
		},
	}

	for _, tc := range tcs {
		bad, good := Resolve(tc.items, failOnPoison)
		assert.Equal(t, tc.expectedBad, bad, tc.name)
		if tc.expectedGood == nil {
			assert.Empty(t, good, tc.name)
		} else {
			assert.Equal(t, tc.expectedGood, sorted(good), tc.name)
		}
	}
}

func TestResolve_EmptyInput(t *testing.T) {
	var calls int
	action := func(_ []string) error {
		calls++
		return nil
	}

	for _, items := range [][]string{nil, {}} {
		bad, good := Resolve(items, action)
		assert.Empty(t, bad)
		assert.Empty(t, good)
	}
	assert.Zero(t, calls)
}

func TestResolve_NeverCalledWithEmptyBatch(t *testing.T) {
	for n := 1; n <= 33; n++ {
		items := make([]string, n)
		_ = ResolveWithStats(items, func(batch []string) error {
			assert.NotEmpty(t, batch)
			return fmt.Errorf("fail")
		})
	}
}

func TestResolve_AllBad(t *testing.T) {
	for n := 1; n <= 20; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}

		bad, good := Resolve(items, alwaysFail[int])
		assert.Equal(t, items, sorted(bad), n)
		assert.Empty(t, good, n)
	}
}

func TestResolve_SingleItemAttribution(t *testing.T) {
	for n := 1; n <= 17; n++ {
		for position := 0; position < n; position++ {
			items := make([]int, n)
			for i := range items {
				items[i] = i + 1
			}
			items[position] = poison

			bad, good := Resolve(items, failOnPoison)
			assert.Equal(t, []int{poison}, bad, "n=%d position=%d", n, position)
			assert.Len(t, good, n-1, "n=%d position=%d", n, position)
			assert.NotContains(t, good, poison, "n=%d position=%d", n, position)
		}
	}
}

func TestResolve_PreservesOrderWithinGoodBatch(t *testing.T) {
	_, good := Resolve([]string{"a", "b", "c", "d"}, func(_ []string) error { return nil })
	assert.Equal(t, []string{"a", "b", "c", "d"}, good)
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	items := []int{1, poison, 3, 4, 5}
	capped := make([]int, len(items), len(items)+10)
	copy(capped, items)

	Resolve(capped, func(batch []int) error {
		_ = append(batch, 42)
		return failOnPoison(batch)
	})
	assert.Equal(t, items, capped)
	assert.Equal(t, items, capped[:len(items)])
	assert.NotContains(t, capped[:cap(capped)], 42)
}

func TestResolve_PanicCountsAsFailure(t *testing.T) {
	bad, good := Resolve([]int{1, 2, poison, 4}, func(batch []int) error {
		if slices.Contains(batch, poison) {
			panic("boom")
		}
		return nil
	})
	assert.Equal(t, []int{poison}, bad)
	assert.Equal(t, []int{1, 2, 4}, sorted(good))
}

func TestResolve_NilAction(t *testing.T) {
	assert.PanicsWithValue(t, "bisect: nil action", func() {
		Resolve([]int{1}, nil)
	})
}

func TestResolveWithStats(t *testing.T) {
	{
		// Nothing fails: exactly one call.
		result := ResolveWithStats([]int{1, 2, 3, 4, 5, 6}, failOnPoison)
		assert.Equal(t, 1, result.Calls)
		assert.Zero(t, result.Splits)
	}
	{
		// Empty input: no calls.
		result := ResolveWithStats([]int{}, failOnPoison)
		assert.Zero(t, result.Calls)
	}
	{
		// Everything fails: every node of the bisection tree is visited.
		for n := 1; n <= 64; n++ {
			result := ResolveWithStats(make([]int, n), alwaysFail[int])
			assert.Equal(t, 2*n-1, result.Calls, n)
			assert.Equal(t, n-1, result.Splits, n)
			assert.Len(t, result.Bad, n)
		}
	}
	{
		// One bad item among eight: 1 + 2*log2(8) calls.
		result := ResolveWithStats([]int{1, 2, 3, 4, 5, 6, 7, poison}, failOnPoison)
		assert.Equal(t, 7, result.Calls)
		assert.Equal(t, 3, result.Splits)
	}
}

func TestResolveWithStats_Coverage(t *testing.T) {
	// Fail any batch whose sum is divisible by 7; items that are multiples of 7 end up bad.
	items := make([]int, 100)
	for i := range items {
		items[i] = i + 1
	}

	action := func(batch []int) error {
		for _, item := range batch {
			if item%7 == 0 {
				return fmt.Errorf("multiple of seven")
			}
		}
		return nil
	}

	result := ResolveWithStats(items, action)
	assert.Equal(t, items, sorted(append(slices.Clone(result.Bad), result.Good...)))
	for _, item := range result.Bad {
		assert.Zero(t, item%7)
	}
	for _, item := range result.Good {
		assert.NotZero(t, item%7)
	}
	assert.LessOrEqual(t, result.Calls, 2*len(items)-1)
}

func TestResolveIterator(t *testing.T) {
	{
		bad, good, err := ResolveIterator(iterator.FromSlice([]int{1, poison, 3}), failOnPoison)
		assert.NoError(t, err)
		assert.Equal(t, []int{poison}, bad)
		assert.Equal(t, []int{1, 3}, sorted(good))
	}
	{
		// Empty iterator.
		bad, good, err := ResolveIterator(iterator.FromSlice([]int{}), failOnPoison)
		assert.NoError(t, err)
		assert.Empty(t, bad)
		assert.Empty(t, good)
	}
}
