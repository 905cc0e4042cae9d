package dashboard

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// OtherSection collects cards whose title yields no usable key.
	OtherSection = "other"
	// defaultSectionPriority places sections without an explicit priority last.
	defaultSectionPriority = 9999
	// sectionDelimiters separate a title's section prefix from the rest.
	sectionDelimiters = "•:-"
)

// Section is an ordered group of cards sharing a section key.
type Section struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Explanation string `json:"explanation,omitempty"`
	Cards       []Card `json:"cards"`
}

// SectionKey derives the grouping key from a card title.
//
//	"Acquisition • ROAS"  -> "acquisition"
//	"Ads: Spend"          -> "ads"
//	"Methodology"         -> "methodology"
//	""                    -> "other"
//
// The prefix before the first delimiter wins; a title that starts with a delimiter
// or has none is used whole.
func SectionKey(title string) string {
	if title == "" {
		return OtherSection
	}
	if idx := strings.IndexAny(title, sectionDelimiters); idx > 0 {
		return keyOrOther(title[:idx])
	}
	return keyOrOther(title)
}

func keyOrOther(s string) string {
	if key := strings.ToLower(strings.TrimSpace(s)); key != "" {
		return key
	}
	return OtherSection
}

// GroupSections buckets cards by section key, orders the cards of each bucket by
// the declared order and orders the buckets by priority then key.
func GroupSections(cards []Card, declared []string, priority map[string]int, explanations map[string]string) []Section {
	var keys []string
	buckets := make(map[string][]Card)
	for _, c := range cards {
		key := SectionKey(c.Title)
		if _, ok := buckets[key]; !ok {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], c)
	}

	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(sectionPriority(priority, a), sectionPriority(priority, b)),
			strings.Compare(a, b),
		)
	})

	sections := make([]Section, 0, len(keys))
	for _, key := range keys {
		sections = append(sections, Section{
			Key:         key,
			Title:       SectionTitle(key),
			Explanation: lookupFold(explanations, key),
			Cards:       orderBucket(buckets[key], declared),
		})
	}
	return sections
}

// SectionTitle upper-cases the first letter of a section key for display.
func SectionTitle(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// orderBucket places declared cards first in declared order, then the rest in
// their original order. A card whose id was already placed is not emitted again.
func orderBucket(bucket []Card, declared []string) []Card {
	ordered := make([]Card, 0, len(bucket))
	placed := make([]bool, len(bucket))
	seen := make(map[string]bool)
	for _, id := range declared {
		if seen[id] {
			continue
		}
		for i, c := range bucket {
			if !placed[i] && c.ID == id {
				ordered = append(ordered, c)
				placed[i] = true
				seen[id] = true
				break
			}
		}
	}
	for i, c := range bucket {
		if placed[i] || seen[c.ID] {
			continue
		}
		ordered = append(ordered, c)
	}
	return ordered
}

func sectionPriority(priority map[string]int, key string) int {
	if p, ok := priority[key]; ok {
		return p
	}
	for k, p := range priority {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return p
		}
	}
	return defaultSectionPriority
}

func lookupFold(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v
		}
	}
	return ""
}
