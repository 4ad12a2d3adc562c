package core

import "sort"

// Admitter is what the mining engine needs from a top-k collection: an
// admission operation, the live threshold, and the final ranked contents.
type Admitter interface {
	TryAdd(items []int, expectedUtility, existentialProbability float64) bool
	Threshold() float64
	Results() []Itemset
}

// TopKManager keeps the best k itemsets seen so far, ranked by the Itemset
// comparator, with threshold = expected utility of the k-th entry (0 while
// fewer than k are held). Single-goroutine use only; see
// ConcurrentTopKManager for the contended variant.
type TopKManager struct {
	k         int
	entries   []Itemset // best first
	index     map[string]int
	threshold float64

	addAttempts        int64
	successfulAdds     int64
	duplicatesRejected int64
	thresholdRejected  int64
}

func NewTopKManager(k int) *TopKManager {
	return &TopKManager{
		k:       k,
		entries: make([]Itemset, 0, k+1),
		index:   make(map[string]int, k+1),
	}
}

// TryAdd admits an itemset if it beats the current threshold. An existing
// entry for the same item set is replaced only by a strictly higher utility;
// the threshold never decreases over a run.
func (m *TopKManager) TryAdd(items []int, expectedUtility, existentialProbability float64) bool {
	if len(items) == 0 {
		return false
	}
	m.addAttempts++

	if len(m.entries) >= m.k && expectedUtility < m.threshold-Epsilon {
		m.thresholdRejected++
		return false
	}

	candidate := NewItemset(items, expectedUtility, existentialProbability)
	key := candidate.Key()

	if pos, ok := m.index[key]; ok {
		if expectedUtility <= m.entries[pos].ExpectedUtility+Epsilon {
			m.duplicatesRejected++
			return false
		}
		m.removeAt(pos)
	}

	m.insert(candidate)
	if len(m.entries) > m.k {
		m.removeAt(len(m.entries) - 1)
	}
	m.updateThreshold()
	m.successfulAdds++
	return true
}

func (m *TopKManager) insert(candidate Itemset) {
	pos := sort.Search(len(m.entries), func(i int) bool {
		return candidate.Less(m.entries[i])
	})
	m.entries = append(m.entries, Itemset{})
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = candidate
	for i := pos; i < len(m.entries); i++ {
		m.index[m.entries[i].Key()] = i
	}
}

func (m *TopKManager) removeAt(pos int) {
	delete(m.index, m.entries[pos].Key())
	copy(m.entries[pos:], m.entries[pos+1:])
	m.entries = m.entries[:len(m.entries)-1]
	for i := pos; i < len(m.entries); i++ {
		m.index[m.entries[i].Key()] = i
	}
}

func (m *TopKManager) updateThreshold() {
	if len(m.entries) >= m.k {
		m.threshold = m.entries[m.k-1].ExpectedUtility
	} else {
		m.threshold = 0.0
	}
}

func (m *TopKManager) Threshold() float64 {
	return m.threshold
}

func (m *TopKManager) Size() int {
	return len(m.entries)
}

// Results returns the held itemsets, best first.
func (m *TopKManager) Results() []Itemset {
	results := make([]Itemset, len(m.entries))
	copy(results, m.entries)
	return results
}

// AdmissionStats reports admission counters for the statistics side channel.
func (m *TopKManager) AdmissionStats() (attempts, admitted, duplicates, rejected int64) {
	return m.addAttempts, m.successfulAdds, m.duplicatesRejected, m.thresholdRejected
}
