package engine

import (
	"fmt"
	"sync/atomic"

	"huim/core"
)

// The four cooperating bounds, applied cheapest-first by the search. Each is
// a sound upper bound: a true reject here can never exclude a qualifying
// itemset.

// ShouldPruneByRTWU rejects an itemset (and every superset) whose
// database-wide RTWU bound is already below the threshold.
func ShouldPruneByRTWU(rtwu, threshold, epsilon float64) bool {
	return rtwu < threshold-epsilon
}

// ShouldPruneEarlyEUCS rejects extending prefix with extItem when any
// (prefix item, extItem) pair's co-occurrence bound is below the threshold,
// before paying for the join.
func ShouldPruneEarlyEUCS(prefix []int, extItem int, eucs map[ItemPair]float64, threshold, epsilon float64) bool {
	for _, item := range prefix {
		bound, ok := eucs[NewItemPair(item, extItem)]
		if !ok || bound < threshold-epsilon {
			return true
		}
	}
	return false
}

// ShouldPruneByEUCS checks every item pair of prefix+extension against the
// pairwise co-occurrence bound table.
func ShouldPruneByEUCS(prefix, extension []int, eucs map[ItemPair]float64, threshold, epsilon float64) bool {
	combined := make([]int, 0, len(prefix)+len(extension))
	combined = append(combined, prefix...)
	combined = append(combined, extension...)
	for i := 0; i < len(combined); i++ {
		for j := i + 1; j < len(combined); j++ {
			bound, ok := eucs[NewItemPair(combined[i], combined[j])]
			if !ok || bound < threshold-epsilon {
				return true
			}
		}
	}
	return false
}

// ShouldPruneByProbability rejects an itemset failing the output constraint.
func ShouldPruneByProbability(ul *core.UtilityList, minProbability, epsilon float64) bool {
	return ul.ExistentialProbability < minProbability-epsilon
}

// ShouldPruneByExpectedUtility rejects an itemset none of whose extensions
// can reach the threshold. The primary branch cut.
func ShouldPruneByExpectedUtility(ul *core.UtilityList, threshold, epsilon float64) bool {
	return ul.UpperBound() < threshold-epsilon
}

// IsHighUtility is the admission test, independent of the cuts above.
func IsHighUtility(ul *core.UtilityList, threshold, minProbability, epsilon float64) bool {
	if ul == nil || ul.IsEmpty() {
		return false
	}
	return ul.SumEU >= threshold-epsilon &&
		ul.ExistentialProbability >= minProbability-epsilon
}

// HasExtensionPotential decides whether the search recurses below ul.
func HasExtensionPotential(ul *core.UtilityList, threshold, epsilon float64) bool {
	return ul.UpperBound() >= threshold-epsilon
}

// PruneStats counts prunes per bound. Atomic so the parallel engine's
// workers can share one instance.
type PruneStats struct {
	RTWU            atomic.Int64
	EarlyEUCS       atomic.Int64
	EUCS            atomic.Int64
	Probability     atomic.Int64
	ExpectedUtility atomic.Int64
}

func (ps *PruneStats) Total() int64 {
	return ps.RTWU.Load() + ps.EarlyEUCS.Load() + ps.EUCS.Load() +
		ps.Probability.Load() + ps.ExpectedUtility.Load()
}

func (ps *PruneStats) String() string {
	return fmt.Sprintf("pruned{rtwu=%d, earlyEUCS=%d, eucs=%d, probability=%d, expectedUtility=%d}",
		ps.RTWU.Load(), ps.EarlyEUCS.Load(), ps.EUCS.Load(),
		ps.Probability.Load(), ps.ExpectedUtility.Load())
}
