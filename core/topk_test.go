package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemsetComparator(t *testing.T) {
	higherEU := NewItemset([]int{3}, 10, 0.5)
	lowerEU := NewItemset([]int{1}, 9, 0.9)
	assert.True(t, higherEU.Less(lowerEU))
	assert.False(t, lowerEU.Less(higherEU))

	higherEP := NewItemset([]int{2}, 10, 0.8)
	lowerEP := NewItemset([]int{1}, 10, 0.5)
	assert.True(t, higherEP.Less(lowerEP))

	smaller := NewItemset([]int{1}, 10, 0.5)
	larger := NewItemset([]int{2, 3}, 10, 0.5)
	assert.True(t, smaller.Less(larger))

	lexFirst := NewItemset([]int{1, 3}, 10, 0.5)
	lexSecond := NewItemset([]int{1, 4}, 10, 0.5)
	assert.True(t, lexFirst.Less(lexSecond))

	same := NewItemset([]int{1, 3}, 10, 0.5)
	assert.False(t, lexFirst.Less(same))
	assert.False(t, same.Less(lexFirst))
}

func TestTopKAdmissionAndEviction(t *testing.T) {
	m := NewTopKManager(2)
	assert.Equal(t, 0.0, m.Threshold())

	assert.True(t, m.TryAdd([]int{1}, 11.5, 0.94))
	assert.Equal(t, 0.0, m.Threshold())
	assert.True(t, m.TryAdd([]int{2}, 13.2, 0.985))
	assert.Equal(t, 11.5, m.Threshold())

	// Displaces item 1 and raises the threshold.
	assert.True(t, m.TryAdd([]int{1, 2}, 13.68, 0.72))
	assert.Equal(t, 13.2, m.Threshold())
	assert.Equal(t, 2, m.Size())

	// Below threshold once full.
	assert.False(t, m.TryAdd([]int{3}, 5.0, 0.9))

	results := m.Results()
	assert.Equal(t, []int{1, 2}, results[0].Items)
	assert.Equal(t, []int{2}, results[1].Items)
}

func TestTopKThresholdMonotone(t *testing.T) {
	m := NewTopKManager(3)
	utilities := []float64{4, 12, 2, 9, 30, 7, 15, 1, 22}
	previous := m.Threshold()
	for i, eu := range utilities {
		m.TryAdd([]int{i + 1}, eu, 0.5)
		assert.True(t, m.Threshold() >= previous)
		previous = m.Threshold()
	}
	assert.Equal(t, 15.0, m.Threshold())
}

func TestTopKDeduplicatesByItemSet(t *testing.T) {
	m := NewTopKManager(5)
	assert.True(t, m.TryAdd([]int{1, 2}, 10, 0.5))

	// Same item set with equal or lower utility is rejected.
	assert.False(t, m.TryAdd([]int{2, 1}, 10, 0.9))
	assert.False(t, m.TryAdd([]int{1, 2}, 8, 0.9))
	assert.Equal(t, 1, m.Size())

	// Strictly higher utility replaces in place.
	assert.True(t, m.TryAdd([]int{1, 2}, 12, 0.6))
	assert.Equal(t, 1, m.Size())
	assert.Equal(t, 12.0, m.Results()[0].ExpectedUtility)
}

func TestTopKResultsSorted(t *testing.T) {
	m := NewTopKManager(10)
	m.TryAdd([]int{5}, 7, 0.4)
	m.TryAdd([]int{1, 2}, 9, 0.8)
	m.TryAdd([]int{3}, 9, 0.8)
	m.TryAdd([]int{4}, 9, 0.9)

	results := m.Results()
	for i := 1; i < len(results); i++ {
		assert.True(t, results[i-1].Less(results[i]))
	}
	assert.Equal(t, []int{4}, results[0].Items)
	assert.Equal(t, []int{3}, results[1].Items)
	assert.Equal(t, []int{1, 2}, results[2].Items)
	assert.Equal(t, []int{5}, results[3].Items)
}

func TestConcurrentTopKUnderContention(t *testing.T) {
	const k = 16
	const workers = 8
	const perWorker = 500

	m := NewConcurrentTopKManager(k)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				item := w*perWorker + i + 1
				m.TryAdd([]int{item}, float64(item), 0.5)
			}
		}(w)
	}
	wg.Wait()

	results := m.Results()
	assert.Equal(t, k, len(results))

	// The k highest utilities survive regardless of interleaving.
	total := workers * perWorker
	for i, it := range results {
		assert.Equal(t, float64(total-i), it.ExpectedUtility, fmt.Sprintf("rank %d", i))
	}
	assert.Equal(t, float64(total-k+1), m.Threshold())
}

func TestConcurrentTopKMatchesSequential(t *testing.T) {
	sequential := NewTopKManager(4)
	concurrent := NewConcurrentTopKManager(4)
	for item := 1; item <= 100; item++ {
		eu := float64((item * 37) % 61)
		sequential.TryAdd([]int{item}, eu, 0.5)
		concurrent.TryAdd([]int{item}, eu, 0.5)
	}
	assert.Equal(t, sequential.Results(), concurrent.Results())
	assert.Equal(t, sequential.Threshold(), concurrent.Threshold())
}
