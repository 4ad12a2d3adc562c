package engine

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	"huim/core"
)

// ErrMemoryLimit is returned by Mine when the configured memory ceiling was
// exceeded. The partial top-K collected so far is still returned.
var ErrMemoryLimit = errors.New("memory ceiling exceeded, returning partial results")

// MiningEngine runs one top-K high-utility itemset mining pass: two-pass
// initialization, depth-first branch-and-bound search with the four pruning
// bounds, and a top-K admission structure. The run-scoped read-only state
// (rank table, EUCS, single-item lists) is built inside Mine; the top-K
// manager is the only mutable structure the search touches.
type MiningEngine struct {
	cfg   *Configuration
	topK  core.Admitter
	stats *MiningStats

	ranks *RankTable
	eucs  map[ItemPair]float64

	memStop  atomic.Bool
	snapshot *StatsSnapshot
}

func NewMiningEngine(cfg *Configuration) (*MiningEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid mining configuration")
	}
	var topK core.Admitter
	if cfg.NumRoutines > 1 {
		topK = core.NewConcurrentTopKManager(cfg.K)
	} else {
		topK = core.NewTopKManager(cfg.K)
	}
	return &MiningEngine{
		cfg:   cfg,
		topK:  topK,
		stats: &MiningStats{RunID: xid.New().String()},
	}, nil
}

// Mine executes the complete algorithm and returns at most K itemsets in
// ranked order. The input database is not mutated.
func (e *MiningEngine) Mine(database []*core.Transaction) ([]core.Itemset, error) {
	if len(database) == 0 {
		return nil, errors.New("transaction database is empty")
	}
	e.stats.started = time.Now()

	runLog := log.WithFields(log.Fields{
		"run_id":          e.stats.RunID,
		"transactions":    len(database),
		"k":               e.cfg.K,
		"min_probability": e.cfg.MinProbability,
		"num_routines":    e.cfg.NumRoutines,
	})
	runLog.Info("Mining started")

	// The merge-join requires elements in ascending TID order, which holds
	// as long as transactions are scanned in TID order.
	db := make([]*core.Transaction, len(database))
	copy(db, database)
	sort.Slice(db, func(i, j int) bool { return db[i].TID < db[j].TID })

	e.ranks, e.eucs = BuildRankTable(db, e.cfg)
	_, singleMap := BuildUtilityLists(db, e.ranks, e.eucs, e.cfg)
	e.stats.UtilityListsCreated.Add(int64(len(singleMap)))

	// Ascending rank order fixes the canonical enumeration.
	lists := make([]*core.UtilityList, 0, len(singleMap))
	for _, item := range e.ranks.RankedItems() {
		if ul, ok := singleMap[item]; ok {
			lists = append(lists, ul)
		}
	}
	runLog.Infof("Initialization complete: %d single-item utility lists, EUCS size %d",
		len(lists), len(e.eucs))

	// Single items are tested for direct admission before any search.
	for _, ul := range lists {
		if IsHighUtility(ul, e.topK.Threshold(), e.cfg.MinProbability, e.cfg.Epsilon) {
			e.topK.TryAdd(ul.Items, ul.SumEU, ul.ExistentialProbability)
		}
	}

	if e.cfg.NumRoutines > 1 {
		e.mineParallel(lists)
	} else {
		e.mineSequential(lists)
	}

	results := e.topK.Results()
	e.stats.elapsed = time.Since(e.stats.started)
	snap := e.stats.snapshot(e.topK.Threshold(), len(results))
	e.snapshot = &snap

	runLog.WithFields(log.Fields{
		"results":    len(results),
		"candidates": snap.CandidatesGenerated,
		"elapsed_ms": snap.ElapsedMillis,
		"threshold":  snap.FinalThreshold,
	}).Info("Mining complete")
	log.Debug(e.stats.Pruned.String())

	if e.memStop.Load() {
		return results, ErrMemoryLimit
	}
	return results, nil
}

// Stats returns the snapshot of the last completed Mine call.
func (e *MiningEngine) Stats() StatsSnapshot {
	if e.snapshot == nil {
		return StatsSnapshot{RunID: e.stats.RunID}
	}
	return *e.snapshot
}

func (e *MiningEngine) mineSequential(lists []*core.UtilityList) {
	for i, prefix := range lists {
		if e.checkMemoryCeiling(i) {
			return
		}
		if e.cfg.ProgressInterval > 0 && i > 0 && i%e.cfg.ProgressInterval == 0 {
			log.Infof("search: processed %d of %d prefixes", i, len(lists))
		}
		threshold := e.topK.Threshold()
		if ShouldPruneByRTWU(prefix.RTWU, threshold, e.cfg.Epsilon) {
			e.stats.Pruned.RTWU.Add(1)
			continue
		}
		extensions := e.collectExtensions(lists, i+1, prefix.Items)
		if len(extensions) > 0 {
			e.search(prefix, extensions)
		}
	}
}

// collectExtensions filters the ranked tail by the cheap pre-join bounds.
// Item-level failures do not abort the scan: a later extension may survive.
func (e *MiningEngine) collectExtensions(lists []*core.UtilityList, from int, prefixItems []int) []*core.UtilityList {
	extensions := make([]*core.UtilityList, 0, len(lists)-from)
	for j := from; j < len(lists); j++ {
		threshold := e.topK.Threshold()
		ext := lists[j]
		if ShouldPruneByRTWU(ext.RTWU, threshold, e.cfg.Epsilon) {
			e.stats.Pruned.RTWU.Add(1)
			continue
		}
		if ShouldPruneEarlyEUCS(prefixItems, ext.Items[0], e.eucs, threshold, e.cfg.Epsilon) {
			e.stats.Pruned.EarlyEUCS.Add(1)
			continue
		}
		extensions = append(extensions, ext)
	}
	return extensions
}

// search is the canonical depth-first traversal: prefix extended in order by
// each strictly higher-ranked extension, with the bounds applied
// cheapest-first around the join.
func (e *MiningEngine) search(prefix *core.UtilityList, extensions []*core.UtilityList) {
	if e.cfg.NumRoutines > 1 && len(extensions) >= e.cfg.ParallelGranularity {
		e.searchChunks(prefix, extensions)
		return
	}
	for i := range extensions {
		if e.memStop.Load() {
			return
		}
		e.searchStep(prefix, extensions, i)
	}
}

// searchStep runs steps a-e of the traversal for one extension index.
func (e *MiningEngine) searchStep(prefix *core.UtilityList, extensions []*core.UtilityList, i int) {
	ext := extensions[i]
	threshold := e.topK.Threshold()

	if ShouldPruneByRTWU(ext.RTWU, threshold, e.cfg.Epsilon) {
		e.stats.Pruned.RTWU.Add(1)
		return
	}
	if ShouldPruneByEUCS(prefix.Items, ext.Items, e.eucs, threshold, e.cfg.Epsilon) {
		e.stats.Pruned.EUCS.Add(1)
		return
	}

	joined := core.Join(prefix, ext)
	if joined == nil {
		return
	}
	e.stats.CandidatesGenerated.Add(1)
	e.stats.UtilityListsCreated.Add(1)

	// A candidate failing the probability constraint is never admitted but
	// may still seed further extensions; only the expected-utility bound
	// cuts the recursion.
	epOK := !ShouldPruneByProbability(joined, e.cfg.MinProbability, e.cfg.Epsilon)
	if !epOK {
		e.stats.Pruned.Probability.Add(1)
	}
	if ShouldPruneByExpectedUtility(joined, threshold, e.cfg.Epsilon) {
		e.stats.Pruned.ExpectedUtility.Add(1)
		return
	}

	if epOK && IsHighUtility(joined, threshold, e.cfg.MinProbability, e.cfg.Epsilon) {
		e.topK.TryAdd(joined.Items, joined.SumEU, joined.ExistentialProbability)
	}

	if i+1 < len(extensions) &&
		HasExtensionPotential(joined, e.topK.Threshold(), e.cfg.Epsilon) {
		e.search(joined, extensions[i+1:])
	}
}

// checkMemoryCeiling samples memory every MemoryCheckInterval prefixes and
// latches the stop flag once the ceiling is exceeded.
func (e *MiningEngine) checkMemoryCeiling(prefixIndex int) bool {
	if e.memStop.Load() {
		return true
	}
	if e.cfg.MaxMemoryBytes == 0 || e.cfg.MemoryCheckInterval <= 0 ||
		prefixIndex%e.cfg.MemoryCheckInterval != 0 {
		return false
	}
	if used := e.stats.sampleMemory(); used > e.cfg.MaxMemoryBytes {
		log.WithFields(log.Fields{
			"run_id":     e.stats.RunID,
			"used_bytes": used,
			"max_bytes":  e.cfg.MaxMemoryBytes,
		}).Warn("Memory ceiling exceeded, stopping mining early")
		e.memStop.Store(true)
		return true
	}
	return false
}
