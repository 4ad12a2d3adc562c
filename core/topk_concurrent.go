package core

import (
	"math"
	"sync"
	"sync/atomic"
)

// ConcurrentTopKManager is the contended variant of TopKManager. Workers
// read the threshold without locking (an atomic snapshot) and pre-filter
// candidates against it; only actual insertion takes the lock, where the
// full admission test re-runs against the live structure. A stale threshold
// read can therefore cause a redundant TryAdd, never a wrong final state.
type ConcurrentTopKManager struct {
	mu            sync.Mutex
	inner         *TopKManager
	thresholdBits atomic.Uint64
	full          atomic.Bool
}

func NewConcurrentTopKManager(k int) *ConcurrentTopKManager {
	m := &ConcurrentTopKManager{inner: NewTopKManager(k)}
	m.thresholdBits.Store(math.Float64bits(0.0))
	return m
}

func (m *ConcurrentTopKManager) TryAdd(items []int, expectedUtility, existentialProbability float64) bool {
	// Optimistic pre-check on the snapshot. The threshold only rises, so a
	// candidate below the snapshot while the structure is full can never be
	// admitted by the live state either.
	if m.full.Load() && expectedUtility < m.Threshold()-Epsilon {
		return false
	}

	m.mu.Lock()
	admitted := m.inner.TryAdd(items, expectedUtility, existentialProbability)
	if admitted {
		m.thresholdBits.Store(math.Float64bits(m.inner.Threshold()))
		if m.inner.Size() >= m.inner.k {
			m.full.Store(true)
		}
	}
	m.mu.Unlock()
	return admitted
}

func (m *ConcurrentTopKManager) Threshold() float64 {
	return math.Float64frombits(m.thresholdBits.Load())
}

func (m *ConcurrentTopKManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inner.Size()
}

func (m *ConcurrentTopKManager) Results() []Itemset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inner.Results()
}

// AdmissionStats reports admission counters for the statistics side channel.
func (m *ConcurrentTopKManager) AdmissionStats() (attempts, admitted, duplicates, rejected int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inner.AdmissionStats()
}
