package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Itemset is a mining result: an item set with its expected utility and
// existential probability. Value type; identity is the item set alone.
type Itemset struct {
	Items                  []int   `json:"it"`
	ExpectedUtility        float64 `json:"eu"`
	ExistentialProbability float64 `json:"ep"`
}

func NewItemset(items []int, expectedUtility, existentialProbability float64) Itemset {
	sorted := make([]int, len(items))
	copy(sorted, items)
	sort.Ints(sorted)
	return Itemset{
		Items:                  sorted,
		ExpectedUtility:        expectedUtility,
		ExistentialProbability: existentialProbability,
	}
}

// ItemsetFromUtilityList lifts a utility list into a result value.
func ItemsetFromUtilityList(ul *UtilityList) Itemset {
	return NewItemset(ul.Items, ul.SumEU, ul.ExistentialProbability)
}

func (it Itemset) Size() int {
	return len(it.Items)
}

// Key is the canonical map key for the item set.
func (it Itemset) Key() string {
	var sb strings.Builder
	for i, item := range it.Items {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(item))
	}
	return sb.String()
}

// Less orders itemsets for ranking: expected utility descending, then
// existential probability descending, then itemset size ascending, then
// lexicographic item order ascending. Total and deterministic.
func (it Itemset) Less(other Itemset) bool {
	if it.ExpectedUtility != other.ExpectedUtility {
		return it.ExpectedUtility > other.ExpectedUtility
	}
	if it.ExistentialProbability != other.ExistentialProbability {
		return it.ExistentialProbability > other.ExistentialProbability
	}
	if len(it.Items) != len(other.Items) {
		return len(it.Items) < len(other.Items)
	}
	for i := range it.Items {
		if it.Items[i] != other.Items[i] {
			return it.Items[i] < other.Items[i]
		}
	}
	return false
}

func (it Itemset) String() string {
	return fmt.Sprintf("%v: EU=%.4f, EP=%.4f", it.Items, it.ExpectedUtility, it.ExistentialProbability)
}
