package evaluation

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStratifiedSplit(t *testing.T) {
	y := make([]int, 100)
	for i := 0; i < 30; i++ {
		y[i] = 1
	}

	train, test := StratifiedSplit(y, 0.2, 42)
	assert.Len(t, test, 20)
	assert.Len(t, train, 80)

	pos := 0
	for _, i := range test {
		pos += y[i]
	}
	assert.Equal(t, 6, pos)

	all := append(append([]int{}, train...), test...)
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}

	train2, test2 := StratifiedSplit(y, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestStratifiedSplit_SmallClasses(t *testing.T) {
	y := []int{0, 0, 0, 0, 0, 0, 1, 1, 2}

	train, test := StratifiedSplit(y, 0.1, 7)
	counts := map[int]int{}
	for _, i := range test {
		counts[y[i]]++
	}
	assert.Equal(t, 1, counts[0])
	assert.Equal(t, 1, counts[1])
	assert.Zero(t, counts[2])
	assert.Len(t, train, len(y)-len(test))
}
