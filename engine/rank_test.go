package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"huim/core"
)

func exampleProfits() map[int]float64 {
	return map[int]float64{1: 5.0, 2: 3.0, 3: -2.0, 4: 4.0}
}

func exampleDatabase() []*core.Transaction {
	return []*core.Transaction{
		core.NewTransaction(1, map[int]int{1: 2, 2: 3}, map[int]float64{1: 0.8, 2: 0.9}),
		core.NewTransaction(2, map[int]int{1: 1, 3: 2}, map[int]float64{1: 0.7, 3: 0.6}),
		core.NewTransaction(3, map[int]int{2: 2, 3: 1}, map[int]float64{2: 0.85, 3: 0.75}),
	}
}

func exampleConfig(t *testing.T) *Configuration {
	t.Helper()
	cfg, err := NewConfiguration(2, 0.5, exampleProfits())
	assert.Nil(t, err)
	return cfg
}

func TestBuildRankTable(t *testing.T) {
	cfg := exampleConfig(t)
	ranks, eucs := BuildRankTable(exampleDatabase(), cfg)

	// RTWU = sum over supporting transactions of RTU * probability, with
	// RTU(T1)=19, RTU(T2)=5, RTU(T3)=6.
	assert.InDelta(t, 18.7, ranks.RTWU(1), 1e-9)
	assert.InDelta(t, 22.2, ranks.RTWU(2), 1e-9)
	assert.InDelta(t, 7.5, ranks.RTWU(3), 1e-9)

	// Ascending RTWU order: item 3, item 1, item 2.
	assert.Equal(t, []int{3, 1, 2}, ranks.RankedItems())
	r, ok := ranks.Rank(3)
	assert.True(t, ok)
	assert.Equal(t, 0, r)
	r, ok = ranks.Rank(2)
	assert.True(t, ok)
	assert.Equal(t, 2, r)
	_, ok = ranks.Rank(4)
	assert.False(t, ok)

	assert.InDelta(t, 19*0.8*0.9, eucs[NewItemPair(1, 2)], 1e-9)
	assert.InDelta(t, 5*0.7*0.6, eucs[NewItemPair(1, 3)], 1e-9)
	assert.InDelta(t, 6*0.85*0.75, eucs[NewItemPair(2, 3)], 1e-9)
	assert.Equal(t, 3, len(eucs))
}

func TestBuildRankTableProbabilityMassFilter(t *testing.T) {
	cfg, err := NewConfiguration(2, 0.5, map[int]float64{1: 5.0, 2: 3.0})
	assert.Nil(t, err)

	// Item 2's summed probability (0.3) cannot reach minProbability 0.5,
	// so it and its EUCS pairs are dropped in pass 1.
	database := []*core.Transaction{
		core.NewTransaction(1, map[int]int{1: 1, 2: 1}, map[int]float64{1: 0.9, 2: 0.3}),
		core.NewTransaction(2, map[int]int{1: 1}, map[int]float64{1: 0.8}),
	}
	ranks, eucs := BuildRankTable(database, cfg)

	assert.Equal(t, []int{1}, ranks.RankedItems())
	assert.Equal(t, 0, len(eucs))
}

func TestBuildRankTableDropsZeroRTWU(t *testing.T) {
	cfg, err := NewConfiguration(2, 0.0, map[int]float64{1: -5.0, 2: 3.0})
	assert.Nil(t, err)

	// Item 1 only appears alone with a negative profit, so its RTWU is 0.
	database := []*core.Transaction{
		core.NewTransaction(1, map[int]int{1: 2}, map[int]float64{1: 0.9}),
		core.NewTransaction(2, map[int]int{2: 1}, map[int]float64{2: 0.8}),
	}
	ranks, _ := BuildRankTable(database, cfg)
	assert.Equal(t, []int{2}, ranks.RankedItems())
}

func TestBuildUtilityLists(t *testing.T) {
	cfg := exampleConfig(t)
	database := exampleDatabase()
	ranks, eucs := BuildRankTable(database, cfg)
	rankedDB, lists := BuildUtilityLists(database, ranks, eucs, cfg)

	assert.Equal(t, 3, len(rankedDB))
	assert.Equal(t, 3, len(lists))

	// T2 holds items {1,3}; in rank order item 3 precedes item 1, so the
	// remaining utility after item 3 is item 1's positive contribution.
	assert.Equal(t, []int{3, 1}, rankedDB[1].Items)

	item1 := lists[1]
	assert.Equal(t, []int{1}, item1.Items)
	assert.Equal(t, 2, len(item1.Elements))
	assert.Equal(t, core.Element{TID: 1, Utility: 10, Remaining: 9, LogProb: math.Log(0.8)}, item1.Elements[0])
	assert.Equal(t, core.Element{TID: 2, Utility: 5, Remaining: 0, LogProb: math.Log(0.7)}, item1.Elements[1])
	assert.InDelta(t, 11.5, item1.SumEU, 1e-9)
	assert.InDelta(t, 0.94, item1.ExistentialProbability, 1e-9)

	item2 := lists[2]
	assert.InDelta(t, 13.2, item2.SumEU, 1e-9)
	assert.InDelta(t, 0.985, item2.ExistentialProbability, 1e-9)

	item3 := lists[3]
	assert.Equal(t, core.Element{TID: 2, Utility: -4, Remaining: 5, LogProb: math.Log(0.6)}, item3.Elements[0])
	assert.Equal(t, core.Element{TID: 3, Utility: -2, Remaining: 6, LogProb: math.Log(0.75)}, item3.Elements[1])
	assert.InDelta(t, -3.9, item3.SumEU, 1e-9)
}

func TestBuildUtilityListsExistentialProbabilityFilter(t *testing.T) {
	cfg, err := NewConfiguration(2, 0.5, map[int]float64{1: 5.0, 2: 3.0})
	assert.Nil(t, err)

	// Item 2's probability mass (0.56) passes the pass-1 bound, but its
	// exact existential probability 1-(0.72)^2 = 0.4816 fails pass 2.
	database := []*core.Transaction{
		core.NewTransaction(1, map[int]int{1: 1, 2: 1}, map[int]float64{1: 0.9, 2: 0.28}),
		core.NewTransaction(2, map[int]int{1: 1, 2: 1}, map[int]float64{1: 0.8, 2: 0.28}),
	}
	ranks, eucs := BuildRankTable(database, cfg)
	assert.Equal(t, 2, ranks.Size())
	assert.Equal(t, 1, len(eucs))

	_, lists := BuildUtilityLists(database, ranks, eucs, cfg)
	_, hasItem2 := lists[2]
	assert.False(t, hasItem2)
	assert.Equal(t, 0, len(eucs))
}
