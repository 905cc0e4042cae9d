package dashboard

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Card type constants
const (
	CardTypeMetric  = "metric"
	CardTypeChart   = "chart"
	CardTypeTable   = "table"
	CardTypeInsight = "insight"
	CardTypeCallout = "callout"
)

// Defaults applied when the producer omits a value.
const (
	DefaultColumns = 12
	DefaultMode    = "dark"
	DefaultAccent  = "#27E1FF"
	DefaultViz     = "line"
	MaxColSpan     = 12
)

// Dashboard is the canonical dashboard object produced by the upstream agent.
type Dashboard struct {
	Version      string   `json:"version"`
	UserQuestion string   `json:"user_question,omitempty"`
	Theme        Theme    `json:"theme"`
	Period       Period   `json:"period"`
	Filters      []Filter `json:"filters,omitempty"`
	Layout       Layout   `json:"layout"`
	Cards        []Card   `json:"cards"`
	AgentSummary string   `json:"agent_summary,omitempty"`
}

type Theme struct {
	Accent string `json:"accent"`
	Mode   string `json:"mode"`
	Brand  string `json:"brand,omitempty"`
}

type Period struct {
	Start   string  `json:"start,omitempty"`
	End     string  `json:"end,omitempty"`
	Compare Compare `json:"compare"`
}

type Compare struct {
	Type string `json:"type,omitempty"`
}

type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// ValueText renders the filter value as badge text; list values are comma joined.
func (f Filter) ValueText() string {
	switch v := f.Value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, scalarText(item))
		}
		return strings.Join(parts, ",")
	default:
		return scalarText(v)
	}
}

type Layout struct {
	Columns    int      `json:"columns"`
	CardsOrder []string `json:"cards_order,omitempty"`
}

// Card is a single dashboard tile. Only the payload fields matching Type are populated.
type Card struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Title        string     `json:"title,omitempty"`
	Subtitle     string     `json:"subtitle,omitempty"`
	Layout       CardLayout `json:"layout"`
	AgentSummary string     `json:"agent_summary,omitempty"`
	// Anchor is a DOM-safe variant of ID for the presentation layer.
	Anchor string `json:"anchor"`
	// synthetic marks an ID generated for a card the producer left without one.
	synthetic bool

	Metric        *Metric       `json:"metric,omitempty"`
	Viz           string        `json:"viz,omitempty"`
	Series        []Series      `json:"series,omitempty"`
	CompareSeries []Series      `json:"compare_series,omitempty"`
	Columns       []string      `json:"columns,omitempty"`
	Rows          []any         `json:"rows,omitempty"`
	Items         []InsightItem `json:"items,omitempty"`
	Variant       string        `json:"variant,omitempty"`
	Body          string        `json:"body,omitempty"`
}

type CardLayout struct {
	ColSpan int `json:"colSpan"`
}

type Metric struct {
	Value      any    `json:"value"`
	Unit       string `json:"unit,omitempty"`
	Format     string `json:"format,omitempty"`
	Delta      *Delta `json:"delta,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

type Delta struct {
	Value     any    `json:"value"`
	Direction string `json:"direction,omitempty"`
	VS        string `json:"vs,omitempty"`
}

type Series struct {
	Label string `json:"label"`
	Axis  string `json:"axis,omitempty"`
	Style string `json:"style,omitempty"`
	Data  []any  `json:"data"`
}

type InsightItem struct {
	Emoji string `json:"emoji,omitempty"`
	Text  string `json:"text"`
}

// Kind returns the case-folded card type used for classification.
func (c Card) Kind() string {
	return strings.ToLower(c.Type)
}

// IsKPI reports whether the card belongs in the KPI strip.
func (c Card) IsKPI() bool {
	return c.Kind() == CardTypeMetric
}

// IsChart reports whether the card is a chart card.
func (c Card) IsChart() bool {
	return c.Kind() == CardTypeChart
}

// scalarText converts a decoded JSON scalar into text. Containers yield "".
func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "1"
		}
		return ""
	default:
		return ""
	}
}

// IntValue converts a decoded JSON value into an int the way a loose cast would:
// numbers truncate, strings use their leading integer prefix, everything else is 0.
func IntValue(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case json.Number:
		f, _ := t.Float64()
		return int(f)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		return leadingInt(t)
	default:
		return 0
	}
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
