package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_ResumesFromStart(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(42), c.Next())
}

func TestClock_ConcurrentUnique(t *testing.T) {
	c := NewClock()
	const workers, calls = 50, 100

	var wg sync.WaitGroup
	results := make([][]int64, workers)
	for i := range results {
		results[i] = make([]int64, calls)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				results[idx][j] = c.Next()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers*calls)
	for _, rs := range results {
		for _, v := range rs {
			assert.False(t, seen[v], "duplicate seq %d", v)
			seen[v] = true
		}
	}
	assert.Equal(t, int64(workers*calls), c.Current())
}
