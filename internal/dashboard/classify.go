package dashboard

import (
	"math"
	"sort"
)

// unranked is the rank of cards that do not appear in the declared order.
const unranked = math.MaxInt

// Classify splits cards into KPI cards and all other cards, keeping encounter order.
func Classify(cards []Card) (kpis, others []Card) {
	for _, c := range cards {
		if c.IsKPI() {
			kpis = append(kpis, c)
		} else {
			others = append(others, c)
		}
	}
	return kpis, others
}

// OrderKPIs orders KPI cards by their first position in the declared order. Cards
// missing from the order trail in their original relative order.
func OrderKPIs(kpis []Card, declared []string) []Card {
	ranks := rankIndex(declared)
	out := make([]Card, len(kpis))
	copy(out, kpis)
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(ranks, out[i].ID) < rankOf(ranks, out[j].ID)
	})
	return out
}

// rankIndex maps each declared id to the position of its first occurrence.
func rankIndex(declared []string) map[string]int {
	ranks := make(map[string]int, len(declared))
	for i, id := range declared {
		if _, seen := ranks[id]; !seen {
			ranks[id] = i
		}
	}
	return ranks
}

func rankOf(ranks map[string]int, id string) int {
	if r, ok := ranks[id]; ok {
		return r
	}
	return unranked
}
