package dashboard

// SelectHero returns the chart card promoted above the sections, if any.
//
// Only charts whose id appears in the declared order are eligible; a chart missing
// from the order is never promoted even when it is the only chart. Cards without a
// producer id are never eligible.
func SelectHero(others []Card, declared []string) (Card, bool) {
	idx := heroIndex(others, declared)
	if idx < 0 {
		return Card{}, false
	}
	return others[idx], true
}

// heroIndex returns the index in others of the hero chart, or -1.
func heroIndex(others []Card, declared []string) int {
	for _, id := range declared {
		for i, c := range others {
			if !c.synthetic && c.ID == id && c.IsChart() {
				return i
			}
		}
	}
	return -1
}
