package engine

import (
	"runtime"
	"sync/atomic"
	"time"
)

// MiningStats is the read-only statistics side channel of a run. Counters
// are atomic so sequential and parallel engines share the same code paths.
type MiningStats struct {
	RunID string

	CandidatesGenerated atomic.Int64
	UtilityListsCreated atomic.Int64
	Pruned              PruneStats

	peakMemoryBytes atomic.Uint64
	started         time.Time
	elapsed         time.Duration
}

// sampleMemory records the current heap allocation if it is a new peak and
// reports it for the caller's ceiling check.
func (s *MiningStats) sampleMemory() uint64 {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	for {
		peak := s.peakMemoryBytes.Load()
		if mem.Alloc <= peak || s.peakMemoryBytes.CompareAndSwap(peak, mem.Alloc) {
			break
		}
	}
	return mem.Alloc
}

// StatsSnapshot is the exportable view of MiningStats.
type StatsSnapshot struct {
	RunID               string  `json:"run_id"`
	CandidatesGenerated int64   `json:"candidates_generated"`
	UtilityListsCreated int64   `json:"utility_lists_created"`
	PrunedRTWU          int64   `json:"pruned_rtwu"`
	PrunedEarlyEUCS     int64   `json:"pruned_early_eucs"`
	PrunedEUCS          int64   `json:"pruned_eucs"`
	PrunedProbability   int64   `json:"pruned_probability"`
	PrunedUtilityBound  int64   `json:"pruned_utility_bound"`
	PeakMemoryBytes     uint64  `json:"peak_memory_bytes"`
	ElapsedMillis       int64   `json:"elapsed_ms"`
	FinalThreshold      float64 `json:"final_threshold"`
	ResultCount         int     `json:"result_count"`
}

func (s *MiningStats) snapshot(finalThreshold float64, resultCount int) StatsSnapshot {
	return StatsSnapshot{
		RunID:               s.RunID,
		CandidatesGenerated: s.CandidatesGenerated.Load(),
		UtilityListsCreated: s.UtilityListsCreated.Load(),
		PrunedRTWU:          s.Pruned.RTWU.Load(),
		PrunedEarlyEUCS:     s.Pruned.EarlyEUCS.Load(),
		PrunedEUCS:          s.Pruned.EUCS.Load(),
		PrunedProbability:   s.Pruned.Probability.Load(),
		PrunedUtilityBound:  s.Pruned.ExpectedUtility.Load(),
		PeakMemoryBytes:     s.peakMemoryBytes.Load(),
		ElapsedMillis:       s.elapsed.Milliseconds(),
		FinalThreshold:      finalThreshold,
		ResultCount:         resultCount,
	}
}
