package engine

import (
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"huim/core"
)

// Parallel mode partitions the top-level ranked items into contiguous
// batches, one worker per batch, each walking the identical recursive
// search. Workers share only the read-only initialization structures and
// the concurrent top-K manager; there is no cross-worker cancellation — a
// worker that observes a higher threshold simply prunes harder on its own
// subsequent candidates.

func (e *MiningEngine) mineParallel(lists []*core.UtilityList) {
	numItems := len(lists)
	batchSize := int(math.Ceil(float64(numItems) / float64(e.cfg.NumRoutines)))

	var wg sync.WaitGroup
	for w := 0; w < e.cfg.NumRoutines; w++ {
		low := minInt(batchSize*w, numItems)
		high := minInt(batchSize*(w+1), numItems)
		if low >= high {
			continue
		}
		wg.Add(1)
		go e.minePrefixRange(lists, low, high, &wg)
	}
	wg.Wait()
}

func (e *MiningEngine) minePrefixRange(lists []*core.UtilityList, low, high int, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Debugf("worker mining prefix range %d:%d", low, high)

	for i := low; i < high; i++ {
		if e.checkMemoryCeiling(i - low) {
			return
		}
		prefix := lists[i]
		threshold := e.topK.Threshold()
		if ShouldPruneByRTWU(prefix.RTWU, threshold, e.cfg.Epsilon) {
			e.stats.Pruned.RTWU.Add(1)
			continue
		}
		// Extensions always come from the full ranked tail, not the batch.
		extensions := e.collectExtensions(lists, i+1, prefix.Items)
		if len(extensions) > 0 {
			e.search(prefix, extensions)
		}
	}
}

// searchChunks splits one long extension list across workers. Each index i
// still recurses into the shared tail extensions[i+1:], so the enumeration
// stays canonical; chunking only changes who visits which branch.
func (e *MiningEngine) searchChunks(prefix *core.UtilityList, extensions []*core.UtilityList) {
	chunks := e.cfg.NumRoutines
	chunkSize := int(math.Ceil(float64(len(extensions)) / float64(chunks)))

	var wg sync.WaitGroup
	for c := 0; c < chunks; c++ {
		low := minInt(chunkSize*c, len(extensions))
		high := minInt(chunkSize*(c+1), len(extensions))
		if low >= high {
			continue
		}
		wg.Add(1)
		go func(low, high int) {
			defer wg.Done()
			for i := low; i < high; i++ {
				if e.memStop.Load() {
					return
				}
				e.searchStep(prefix, extensions, i)
			}
		}(low, high)
	}
	wg.Wait()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
