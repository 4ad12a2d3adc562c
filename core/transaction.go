package core

import (
	"math"
	"sort"
)

// Numeric floors shared across the mining core. exp(LogEpsilon) underflows
// to zero for every practical purpose, so log-probabilities at or below the
// floor are treated as "item never occurs".
const (
	Epsilon    = 1e-10
	LogEpsilon = -700.0
)

// Transaction is one raw input transaction: item id to quantity and item id
// to occurrence probability. Immutable after construction.
type Transaction struct {
	TID           int
	Items         map[int]int
	Probabilities map[int]float64
}

func NewTransaction(tid int, items map[int]int, probabilities map[int]float64) *Transaction {
	itemCopy := make(map[int]int, len(items))
	probCopy := make(map[int]float64, len(items))
	for item, quantity := range items {
		itemCopy[item] = quantity
		probCopy[item] = probabilities[item]
	}
	return &Transaction{TID: tid, Items: itemCopy, Probabilities: probCopy}
}

// RTU is the remaining transaction utility: profit*quantity summed over the
// items with positive profit and non-negligible occurrence probability.
func (t *Transaction) RTU(profits map[int]float64) float64 {
	rtu := 0.0
	for item, quantity := range t.Items {
		if t.Probabilities[item] <= Epsilon {
			continue
		}
		if profit, ok := profits[item]; ok && profit > 0 {
			rtu += profit * float64(quantity)
		}
	}
	return rtu
}

// RankedTransaction stores a transaction's surviving items in ascending
// global-rank order as parallel arrays, with an item->position lookup for
// O(1) access. Built once per run from a fixed rank table, never mutated.
type RankedTransaction struct {
	TID              int
	Items            []int
	Quantities       []int
	LogProbabilities []float64
	RTU              float64

	index map[int]int
}

// NewRankedTransaction reorders t's items by the given rank table, keeping
// only ranked items. Items without a rank were filtered in pass 1 and can
// never contribute to a surviving itemset.
func NewRankedTransaction(t *Transaction, profits map[int]float64, rank map[int]int) *RankedTransaction {
	kept := make([]int, 0, len(t.Items))
	for item := range t.Items {
		if _, ok := rank[item]; ok {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	sort.Slice(kept, func(i, j int) bool { return rank[kept[i]] < rank[kept[j]] })

	rt := &RankedTransaction{
		TID:              t.TID,
		Items:            kept,
		Quantities:       make([]int, len(kept)),
		LogProbabilities: make([]float64, len(kept)),
		index:            make(map[int]int, len(kept)),
	}
	for pos, item := range kept {
		rt.Quantities[pos] = t.Items[item]
		prob := t.Probabilities[item]
		if prob > 0 {
			rt.LogProbabilities[pos] = math.Log(prob)
		} else {
			rt.LogProbabilities[pos] = LogEpsilon
		}
		rt.index[item] = pos
		if profit, ok := profits[item]; ok && profit > 0 && prob > Epsilon {
			rt.RTU += profit * float64(rt.Quantities[pos])
		}
	}
	return rt
}

func (rt *RankedTransaction) Size() int {
	return len(rt.Items)
}

// Position returns the index of item in the rank-ordered arrays, or -1.
func (rt *RankedTransaction) Position(item int) int {
	if pos, ok := rt.index[item]; ok {
		return pos
	}
	return -1
}

// RemainingUtilityAfter sums profit*quantity over the positive-profit items
// stored after pos. Since items are rank-ordered this is exactly the utility
// still reachable by higher-ranked extensions in this transaction.
func (rt *RankedTransaction) RemainingUtilityAfter(pos int, profits map[int]float64) float64 {
	remaining := 0.0
	for i := pos + 1; i < len(rt.Items); i++ {
		if profit, ok := profits[rt.Items[i]]; ok && profit > 0 {
			remaining += profit * float64(rt.Quantities[i])
		}
	}
	return remaining
}
