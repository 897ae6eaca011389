package iterator

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	{
		iter := Map(FromSlice([]int{1, 2, 3}), func(i int) (string, error) {
			return strconv.Itoa(i * 10), nil
		})
		items, err := Collect(iter)
		assert.NoError(t, err)
		assert.Equal(t, []string{"10", "20", "30"}, items)
	}
	{
		// Transform error
		iter := Map(FromSlice([]int{1, 2}), func(i int) (string, error) {
			if i == 2 {
				return "", fmt.Errorf("cannot transform %d", i)
			}
			return strconv.Itoa(i), nil
		})
		_, err := Collect(iter)
		assert.ErrorContains(t, err, "cannot transform 2")
	}
	{
		// Underlying iterator error
		_, err := Collect(Map[int, int](errorIterator{}, func(i int) (int, error) { return i, nil }))
		assert.ErrorContains(t, err, "---==[ ERROR ]==---")
	}
}
