package engine

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"huim/core"
)

// ItemPair is an unordered pair of item ids, normalized so A < B.
type ItemPair struct {
	A, B int
}

func NewItemPair(a, b int) ItemPair {
	if a < b {
		return ItemPair{A: a, B: b}
	}
	return ItemPair{A: b, B: a}
}

// RankTable is the global item order for one run: a dense 0..n-1 rank per
// surviving item, ascending by RTWU with ties broken by item id. Read-only
// after construction, so safe for unsynchronized concurrent reads.
type RankTable struct {
	rank  map[int]int
	items []int // rank -> item
	rtwu  map[int]float64
}

func (rt *RankTable) Rank(item int) (int, bool) {
	r, ok := rt.rank[item]
	return r, ok
}

func (rt *RankTable) RTWU(item int) float64 {
	return rt.rtwu[item]
}

// RankedItems returns the surviving items in ascending rank order.
func (rt *RankTable) RankedItems() []int {
	return rt.items
}

func (rt *RankTable) Size() int {
	return len(rt.items)
}

func (rt *RankTable) rankMap() map[int]int {
	return rt.rank
}

// BuildRankTable is pass 1: a single scan over the raw database that
// accumulates per-item RTWU and probability mass plus the pairwise EUCS
// bound table, then filters and ranks the surviving items.
//
// The probability-mass filter is a loose admissible bound: by Boole's
// inequality the per-transaction probability sum is always at least the
// item's true existential probability, so nothing that could pass the exact
// EP test later is dropped here.
func BuildRankTable(database []*core.Transaction, cfg *Configuration) (*RankTable, map[ItemPair]float64) {
	itemRTWU := make(map[int]float64)
	itemProbMass := make(map[int]float64)
	eucs := make(map[ItemPair]float64)

	transItems := make([]int, 0, 32)
	for _, trans := range database {
		rtu := trans.RTU(cfg.ItemProfits)

		transItems = transItems[:0]
		for item, prob := range trans.Probabilities {
			if prob > cfg.Epsilon {
				transItems = append(transItems, item)
			}
		}

		for _, item := range transItems {
			prob := trans.Probabilities[item]
			itemRTWU[item] += rtu * prob
			itemProbMass[item] += prob
		}
		for i := 0; i < len(transItems); i++ {
			for j := i + 1; j < len(transItems); j++ {
				pair := NewItemPair(transItems[i], transItems[j])
				eucs[pair] += rtu * trans.Probabilities[transItems[i]] * trans.Probabilities[transItems[j]]
			}
		}
	}

	// Drop items that cannot contribute positive utility or whose summed
	// probability already fails the existential threshold.
	dropped := make(map[int]bool)
	for item, rtwu := range itemRTWU {
		if rtwu <= cfg.Epsilon || itemProbMass[item] < cfg.MinProbability-cfg.Epsilon {
			dropped[item] = true
			delete(itemRTWU, item)
		}
	}
	for pair := range eucs {
		if dropped[pair.A] || dropped[pair.B] {
			delete(eucs, pair)
		}
	}

	survivors := make([]int, 0, len(itemRTWU))
	for item := range itemRTWU {
		survivors = append(survivors, item)
	}
	sort.Slice(survivors, func(i, j int) bool {
		if itemRTWU[survivors[i]] != itemRTWU[survivors[j]] {
			return itemRTWU[survivors[i]] < itemRTWU[survivors[j]]
		}
		return survivors[i] < survivors[j]
	})

	rank := make(map[int]int, len(survivors))
	for i, item := range survivors {
		rank[item] = i
	}

	log.Debugf("pass 1: %d items survive RTWU and probability-mass filtering, %d dropped, EUCS size %d",
		len(survivors), len(dropped), len(eucs))

	return &RankTable{rank: rank, items: survivors, rtwu: itemRTWU}, eucs
}

// BuildUtilityLists is pass 2: rebuild every transaction in rank order and
// group one Element per surviving item occurrence into single-item utility
// lists. Lists failing the exact existential-probability test are discarded
// and their items removed from EUCS.
func BuildUtilityLists(database []*core.Transaction, ranks *RankTable,
	eucs map[ItemPair]float64, cfg *Configuration) ([]*core.RankedTransaction, map[int]*core.UtilityList) {

	rankMap := ranks.rankMap()
	rankedDB := make([]*core.RankedTransaction, 0, len(database))
	itemElements := make(map[int][]core.Element, ranks.Size())

	processed := 0
	for _, trans := range database {
		rt := core.NewRankedTransaction(trans, cfg.ItemProfits, rankMap)
		if rt == nil {
			continue
		}
		rankedDB = append(rankedDB, rt)

		for pos, item := range rt.Items {
			logProb := rt.LogProbabilities[pos]
			if logProb <= cfg.LogEpsilon {
				continue
			}
			utility := cfg.Profit(item) * float64(rt.Quantities[pos])
			remaining := rt.RemainingUtilityAfter(pos, cfg.ItemProfits)
			itemElements[item] = append(itemElements[item], core.Element{
				TID:       rt.TID,
				Utility:   utility,
				Remaining: remaining,
				LogProb:   logProb,
			})
		}

		processed++
		if cfg.ProgressInterval > 0 && processed%cfg.ProgressInterval == 0 {
			log.Infof("pass 2: processed %d transactions", processed)
		}
	}

	singleLists := make(map[int]*core.UtilityList, len(itemElements))
	epFailed := make(map[int]bool)
	for item, elements := range itemElements {
		ul := core.NewUtilityList([]int{item}, elements, ranks.RTWU(item))
		if ul.ExistentialProbability < cfg.MinProbability-cfg.Epsilon {
			epFailed[item] = true
			continue
		}
		singleLists[item] = ul
	}
	if len(epFailed) > 0 {
		for pair := range eucs {
			if epFailed[pair.A] || epFailed[pair.B] {
				delete(eucs, pair)
			}
		}
		log.Debugf("pass 2: %d items failed the existential-probability test", len(epFailed))
	}

	return rankedDB, singleLists
}
