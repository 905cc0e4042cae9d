package dashboard

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/GregMSThompson/agent-dashboard/internal/errs"
)

var unsafeAnchorChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// IsEmpty reports whether a resolved value carries no data at all: nothing, a
// scalar, or an empty object or list. Callers treat that as a shape miss.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return true
	}
}

// Validate checks the minimal dashboard schema and returns the object form.
func Validate(v any) (map[string]any, error) {
	if !IsDashboard(v) {
		return nil, errs.NewSchemaError("Dashboard JSON missing required fields ('version', 'cards').")
	}
	return v.(map[string]any), nil
}

// Decode converts a validated dashboard object into its typed form with defaults
// applied and every card carrying a unique id. Optional fields of an unexpected
// JSON type decode to their zero value and non-object cards are skipped.
func Decode(m map[string]any) *Dashboard {
	theme := asMap(m["theme"])
	period := asMap(m["period"])
	layout := asMap(m["layout"])

	d := &Dashboard{
		Version:      scalarText(m["version"]),
		UserQuestion: scalarText(m["user_question"]),
		AgentSummary: scalarText(m["agent_summary"]),
		Theme: Theme{
			Accent: scalarText(theme["accent"]),
			Mode:   scalarText(theme["mode"]),
			Brand:  scalarText(theme["brand"]),
		},
		Period: Period{
			Start:   scalarText(period["start"]),
			End:     scalarText(period["end"]),
			Compare: Compare{Type: scalarText(asMap(period["compare"])["type"])},
		},
		Layout: Layout{Columns: IntValue(layout["columns"])},
	}
	if order, ok := layout["cards_order"].([]any); ok {
		d.Layout.CardsOrder = textList(order)
	}
	for _, f := range asList(m["filters"]) {
		if fm, ok := f.(map[string]any); ok {
			d.Filters = append(d.Filters, Filter{
				Field:    scalarText(fm["field"]),
				Operator: scalarText(fm["operator"]),
				Value:    fm["value"],
			})
		}
	}
	d.Cards = make([]Card, 0, len(asList(m["cards"])))
	for _, c := range asList(m["cards"]) {
		if cm, ok := c.(map[string]any); ok {
			d.Cards = append(d.Cards, decodeCard(cm))
		}
	}
	applyDefaults(d)
	return d
}

func decodeCard(m map[string]any) Card {
	c := Card{
		ID:            scalarText(m["id"]),
		Type:          scalarText(m["type"]),
		Title:         scalarText(m["title"]),
		Subtitle:      scalarText(m["subtitle"]),
		Layout:        CardLayout{ColSpan: IntValue(asMap(m["layout"])["colSpan"])},
		AgentSummary:  scalarText(m["agent_summary"]),
		Viz:           scalarText(m["viz"]),
		Series:        decodeSeries(m["series"]),
		CompareSeries: decodeSeries(m["compare_series"]),
		Columns:       textList(asList(m["columns"])),
		Rows:          asList(m["rows"]),
		Variant:       scalarText(m["variant"]),
		Body:          scalarText(m["body"]),
	}
	if len(c.Columns) == 0 {
		c.Columns = nil
	}
	if mm, ok := m["metric"].(map[string]any); ok {
		c.Metric = &Metric{
			Value:      mm["value"],
			Unit:       scalarText(mm["unit"]),
			Format:     scalarText(mm["format"]),
			Annotation: scalarText(mm["annotation"]),
		}
		if dm, ok := mm["delta"].(map[string]any); ok {
			c.Metric.Delta = &Delta{
				Value:     dm["value"],
				Direction: scalarText(dm["direction"]),
				VS:        scalarText(dm["vs"]),
			}
		}
	}
	for _, it := range asList(m["items"]) {
		switch item := it.(type) {
		case map[string]any:
			c.Items = append(c.Items, InsightItem{Emoji: scalarText(item["emoji"]), Text: scalarText(item["text"])})
		case string:
			c.Items = append(c.Items, InsightItem{Text: item})
		}
	}
	return c
}

func decodeSeries(v any) []Series {
	var out []Series
	for _, s := range asList(v) {
		sm, ok := s.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Series{
			Label: scalarText(sm["label"]),
			Axis:  scalarText(sm["axis"]),
			Style: scalarText(sm["style"]),
			Data:  asList(sm["data"]),
		})
	}
	return out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func textList(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = scalarText(v)
	}
	return out
}

// DeclaredOrder returns the producer's card order, or the ids the producer gave
// its cards, in card order, when the layout does not declare one. Generated
// placeholder ids never appear in the implicit order.
func (d *Dashboard) DeclaredOrder() []string {
	if d.Layout.CardsOrder != nil {
		return d.Layout.CardsOrder
	}
	order := make([]string, 0, len(d.Cards))
	for _, c := range d.Cards {
		if !c.synthetic {
			order = append(order, c.ID)
		}
	}
	return order
}

func applyDefaults(d *Dashboard) {
	if d.Theme.Accent == "" {
		d.Theme.Accent = DefaultAccent
	}
	d.Theme.Mode = strings.ToLower(d.Theme.Mode)
	if d.Theme.Mode == "" {
		d.Theme.Mode = DefaultMode
	}
	if d.Layout.Columns == 0 {
		d.Layout.Columns = DefaultColumns
	}
	for i := range d.Cards {
		c := &d.Cards[i]
		if c.ID == "" {
			c.ID = placeholderID()
			c.synthetic = true
		}
		c.Anchor = unsafeAnchorChars.ReplaceAllString(c.ID, "_")
		c.Layout.ColSpan = clampSpan(c.Layout.ColSpan)
		if c.IsChart() && c.Viz == "" {
			c.Viz = DefaultViz
		}
	}
}

func clampSpan(span int) int {
	if span == 0 {
		return MaxColSpan
	}
	return max(1, min(MaxColSpan, span))
}

func placeholderID() string {
	return "card_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
