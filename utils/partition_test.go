package utils

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionMap(t *testing.T) {
	{ // Test bucket sizes
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				kMin, kMax := pm.GetBucketRange(np)
				histo[kMax-kMin]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		for n := 64; n < 2000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Buckets are contiguous and cover the range
		for maxIndex := 10; maxIndex < 300; maxIndex++ {
			pm := NewPartitionMap(5, maxIndex)
			next := 0
			for np := 0; np < pm.ParallelDegree; np++ {
				kMin, kMax := pm.GetBucketRange(np)
				assert.Equal(t, next, kMin)
				next = kMax
			}
			assert.Equal(t, maxIndex, next)
		}
	}
	{ // Degenerate parallel degree is clamped
		pm := NewPartitionMap(0, 7)
		assert.Equal(t, 1, pm.ParallelDegree)
		assert.Equal(t, [2]int{0, 7}, pm.Partitions[0])
	}
}

func TestParallelFor(t *testing.T) {
	for _, np := range []int{1, 3, 8, 64} {
		var (
			n       = 1000
			visited = make([]int32, n)
			calls   int32
		)
		ParallelFor(np, n, func(bucket, kMin, kMax int) {
			atomic.AddInt32(&calls, 1)
			for k := kMin; k < kMax; k++ {
				visited[k]++
			}
		})
		for k := 0; k < n; k++ {
			require.Equal(t, int32(1), visited[k], "index %d, np %d", k, np)
		}
		assert.True(t, calls >= 1 && int(calls) <= np)
	}
	{ // Fewer items than workers runs in a single call
		var calls int
		ParallelFor(16, 3, func(bucket, kMin, kMax int) {
			calls++
			assert.Equal(t, 0, kMin)
			assert.Equal(t, 3, kMax)
		})
		assert.Equal(t, 1, calls)
	}
	{ // Empty range
		ParallelFor(4, 0, func(bucket, kMin, kMax int) {
			assert.Equal(t, kMin, kMax)
		})
	}
}

func TestSystemHelpers(t *testing.T) {
	assert.Equal(t, []float64{2, 2, 2}, ConstArray(3, 2))
	assert.True(t, IsNan(math.NaN()))
	assert.True(t, IsNan([]float64{1, math.NaN()}))
	assert.False(t, IsNan([]float64{1, 2}))
	assert.False(t, IsNan("NaN"))
	assert.Contains(t, GetMemUsage(), "MiB")
}
