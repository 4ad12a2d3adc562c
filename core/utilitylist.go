package core

import (
	"fmt"
	"math"
)

// Element records one (itemset, transaction) intersection: the realized
// utility in that transaction, the positive utility still available to
// higher-ranked items there, and the occurrence log-probability.
type Element struct {
	TID       int
	Utility   float64
	Remaining float64
	LogProb   float64
}

// UtilityList is the core mining structure: an itemset together with one
// Element per supporting transaction, in ascending TID order, plus cached
// aggregates. A UtilityList is a value, not an accumulator: all aggregates
// are computed exactly once at construction and never mutated.
type UtilityList struct {
	Items    []int // ascending item ids
	Elements []Element

	SumEU                  float64
	SumRemaining           float64
	ExistentialProbability float64
	RTWU                   float64
}

// NewUtilityList builds a list over the given elements (already ascending by
// TID) and computes the cached aggregates.
func NewUtilityList(items []int, elements []Element, rtwu float64) *UtilityList {
	ul := &UtilityList{Items: items, Elements: elements, RTWU: rtwu}
	for _, e := range elements {
		if e.LogProb <= LogEpsilon {
			continue
		}
		prob := math.Exp(e.LogProb)
		ul.SumEU += e.Utility * prob
		ul.SumRemaining += e.Remaining * prob
	}
	ul.ExistentialProbability = existentialProbability(elements)
	return ul
}

func (ul *UtilityList) IsEmpty() bool {
	return len(ul.Elements) == 0
}

// UpperBound is the expected-utility bound on any extension of this itemset.
func (ul *UtilityList) UpperBound() float64 {
	return ul.SumEU + ul.SumRemaining
}

func (ul *UtilityList) String() string {
	return fmt.Sprintf("UtilityList{items=%v, elements=%d, EU=%.4f, EP=%.4f}",
		ul.Items, len(ul.Elements), ul.SumEU, ul.ExistentialProbability)
}

// existentialProbability computes EP(X) = 1 - prod(1 - P(X,T)) over the
// supporting transactions, entirely in log-space so that products of many
// small probabilities cannot underflow. Once the running log-complement
// drops below the floor the result is certainty.
func existentialProbability(elements []Element) float64 {
	if len(elements) == 0 {
		return 0.0
	}
	logComplement := 0.0
	significant := false
	for _, e := range elements {
		if e.LogProb <= LogEpsilon {
			continue
		}
		prob := math.Exp(e.LogProb)
		if prob > 1.0-Epsilon {
			return 1.0
		}
		logComplement += math.Log1p(-prob)
		significant = true
		if logComplement < LogEpsilon {
			return 1.0
		}
	}
	if !significant {
		return 0.0
	}
	return math.Max(0.0, 1.0-math.Exp(logComplement))
}

// Join merges two utility lists over their common transactions. The caller
// guarantees disjoint itemsets with b ranked strictly after a (canonical
// prefix/extension order), so each itemset is materialized exactly once.
// Returns nil when no transaction supports both.
func Join(a, b *UtilityList) *UtilityList {
	joined := make([]Element, 0, minInt(len(a.Elements), len(b.Elements)))

	i, j := 0, 0
	for i < len(a.Elements) && j < len(b.Elements) {
		ea, eb := a.Elements[i], b.Elements[j]
		switch {
		case ea.TID == eb.TID:
			logProb := ea.LogProb + eb.LogProb
			if logProb > LogEpsilon {
				joined = append(joined, Element{
					TID:       ea.TID,
					Utility:   ea.Utility + eb.Utility,
					Remaining: math.Min(ea.Remaining, eb.Remaining),
					LogProb:   logProb,
				})
			}
			i++
			j++
		case ea.TID < eb.TID:
			i++
		default:
			j++
		}
	}
	if len(joined) == 0 {
		return nil
	}
	return NewUtilityList(mergeSortedItems(a.Items, b.Items), joined, math.Min(a.RTWU, b.RTWU))
}

// mergeSortedItems merges two ascending, disjoint item id slices.
func mergeSortedItems(a, b []int) []int {
	merged := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
