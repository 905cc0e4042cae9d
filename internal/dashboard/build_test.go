package dashboard

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/agent-dashboard/internal/errs"
)

func ids(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func sectionKeys(sections []Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Key
	}
	return out
}

func TestOrderKPIs(t *testing.T) {
	cards := []Card{{ID: "a", Type: "metric"}, {ID: "b", Type: "metric"}}

	assert.Equal(t, []string{"b", "a"}, ids(OrderKPIs(cards, []string{"b", "a"})))
	assert.Equal(t, []string{"b", "a"}, ids(OrderKPIs(cards, []string{"b"})))
	assert.Equal(t, []string{"a", "b"}, ids(OrderKPIs(cards, nil)))
}

func TestOrderKPIs_UnmatchedKeepEncounterOrder(t *testing.T) {
	cards := []Card{{ID: "c"}, {ID: "a"}, {ID: "x"}, {ID: "b"}}

	got := OrderKPIs(cards, []string{"x", "x", "a"})

	assert.Equal(t, []string{"x", "a", "c", "b"}, ids(got))
}

func TestClassify_CaseInsensitive(t *testing.T) {
	kpis, others := Classify([]Card{
		{ID: "1", Type: "METRIC"},
		{ID: "2", Type: "chart"},
		{ID: "3", Type: "Metric"},
		{ID: "4", Type: "sparkline"},
	})

	assert.Equal(t, []string{"1", "3"}, ids(kpis))
	assert.Equal(t, []string{"2", "4"}, ids(others))
}

func TestSelectHero(t *testing.T) {
	c1 := Card{ID: "c1", Type: "chart"}
	c2 := Card{ID: "c2", Type: "Chart"}

	hero, ok := SelectHero([]Card{c2, c1}, []string{"c1"})
	require.True(t, ok)
	assert.Equal(t, "c1", hero.ID)

	_, ok = SelectHero([]Card{c2}, []string{"c1"})
	assert.False(t, ok)

	_, ok = SelectHero([]Card{{ID: "t", Type: "table"}}, []string{"t"})
	assert.False(t, ok)
}

func TestSelectHero_SkipsNonChartWithSameID(t *testing.T) {
	others := []Card{{ID: "dup", Type: "table"}, {ID: "dup", Type: "chart", Title: "second"}}

	hero, ok := SelectHero(others, []string{"dup"})

	require.True(t, ok)
	assert.Equal(t, "second", hero.Title)
}

func TestSectionKey(t *testing.T) {
	cases := map[string]string{
		"Acquisition • ROAS":     "acquisition",
		"Acquisition: Spend":     "acquisition",
		"Ads - Top Campaigns":    "ads",
		"Methodology":            "methodology",
		"":                       "other",
		"   ":                    "other",
		"  Engagement  ":         "engagement",
		"- leading delimiter":    "- leading delimiter",
		"Site: a-b":              "site",
		"Brand-DK • Performance": "brand",
		"  : empty prefix":       "other",
	}
	for title, want := range cases {
		assert.Equal(t, want, SectionKey(title), title)
	}
}

func TestGroupSections_LexicalFallback(t *testing.T) {
	cards := []Card{{ID: "1", Title: "z"}, {ID: "2", Title: "a"}}

	sections := GroupSections(cards, nil, nil, nil)

	assert.Equal(t, []string{"a", "z"}, sectionKeys(sections))
}

func TestGroupSections_PriorityThenKey(t *testing.T) {
	cards := []Card{
		{ID: "1", Title: "Ads: x"},
		{ID: "2", Title: "Acquisition: y"},
		{ID: "3", Title: "Engagement: z"},
		{ID: "4", Title: "Brand: w"},
	}

	sections := GroupSections(cards, nil, map[string]int{"engagement": 1, "Ads": 2}, nil)

	assert.Equal(t, []string{"engagement", "ads", "acquisition", "brand"}, sectionKeys(sections))
}

func TestGroupSections_DeclaredOrderWithinBucket(t *testing.T) {
	cards := []Card{
		{ID: "t1", Title: "Ads: one"},
		{ID: "t2", Title: "Ads: two"},
		{ID: "t3", Title: "Ads: three"},
		{ID: "t4", Title: "Ads: four"},
	}

	sections := GroupSections(cards, []string{"t3", "missing", "t1"}, nil, nil)

	require.Len(t, sections, 1)
	assert.Equal(t, []string{"t3", "t1", "t2", "t4"}, ids(sections[0].Cards))
}

func TestGroupSections_NeverEmitsDeclaredIDTwice(t *testing.T) {
	cards := []Card{
		{ID: "dup", Title: "Ads: first"},
		{ID: "dup", Title: "Ads: second"},
		{ID: "other", Title: "Ads: third"},
	}

	sections := GroupSections(cards, []string{"dup", "dup"}, nil, nil)

	require.Len(t, sections, 1)
	got := sections[0].Cards
	require.Len(t, got, 2)
	assert.Equal(t, "Ads: first", got[0].Title)
	assert.Equal(t, "other", got[1].ID)
}

func TestGroupSections_Explanation(t *testing.T) {
	cards := []Card{{ID: "1", Title: "Ads: x"}}

	sections := GroupSections(cards, nil, nil, map[string]string{"ads": "Paid."})

	require.Len(t, sections, 1)
	assert.Equal(t, "Paid.", sections[0].Explanation)
	assert.Equal(t, "Ads", sections[0].Title)
}

func TestBuild_HeroExclusivity(t *testing.T) {
	d := &Dashboard{
		Version: "1",
		Layout:  Layout{CardsOrder: []string{"k", "c1"}},
		Cards: []Card{
			{ID: "k", Type: "metric", Title: "Ads • ROAS"},
			{ID: "c2", Type: "chart", Title: "Ads • Spend trend"},
			{ID: "c1", Type: "chart", Title: "Ads • Clicks"},
		},
	}

	model := Build(d, WrapperMetadata{})

	require.NotNil(t, model.HeroCard)
	assert.Equal(t, "c1", model.HeroCard.ID)
	assert.Equal(t, []string{"k"}, ids(model.KPICards))
	require.Len(t, model.Sections, 1)
	assert.Equal(t, []string{"c2"}, ids(model.Sections[0].Cards))
}

func TestBuild_NoHeroWhenChartUndeclared(t *testing.T) {
	d := &Dashboard{
		Version: "1",
		Layout:  Layout{CardsOrder: []string{"k"}},
		Cards:   []Card{{ID: "k", Type: "metric"}, {ID: "c2", Type: "chart", Title: "Trend"}},
	}

	model := Build(d, WrapperMetadata{})

	assert.Nil(t, model.HeroCard)
	require.Len(t, model.Sections, 1)
	assert.Equal(t, []string{"c2"}, ids(model.Sections[0].Cards))
}

func TestBuild_HeroExplanationEmittedOnce(t *testing.T) {
	d := &Dashboard{
		Version: "1",
		Cards: []Card{
			{ID: "c", Type: "chart", Title: "Engagement • Sessions"},
			{ID: "t", Type: "table", Title: "Engagement • Pages"},
			{ID: "n", Type: "callout", Title: "Methodology"},
		},
	}
	meta := WrapperMetadata{SectionExplanation: map[string]string{"engagement": "Traffic.", "methodology": "How."}}

	model := Build(d, meta)

	require.NotNil(t, model.HeroSection)
	assert.Equal(t, "engagement", model.HeroSection.Key)
	assert.Equal(t, "Traffic.", model.HeroSection.Explanation)
	require.Len(t, model.Sections, 2)
	assert.Equal(t, "engagement", model.Sections[0].Key)
	assert.Empty(t, model.Sections[0].Explanation)
	assert.Equal(t, "How.", model.Sections[1].Explanation)
}

func TestProcess_SchemaErrorWhenCardsMissing(t *testing.T) {
	_, err := Process(decodeJSON(t, `{"json":{"version":"1.0"}}`))

	var se *errs.SchemaError
	require.True(t, errors.As(err, &se))
}

func TestProcess_SampleShapedPayload(t *testing.T) {
	payload := decodeJSON(t, `[{
		"output":{"answer":"ROAS is up.","order":{"ads":1}},
		"json":{
			"version":1,
			"theme":{"mode":"LIGHT"},
			"layout":{"cards_order":["kpi_spend","kpi_roas","ts"]},
			"cards":[
				{"id":"kpi_roas","type":"metric","title":"Acquisition • ROAS","metric":{"value":4.2}},
				{"id":"kpi_spend","type":"metric","title":"Ads • Spend","layout":{"colSpan":30}},
				{"id":"ts","type":"chart","title":"Engagement • Sessions"},
				{"type":"table","title":"Ads • Campaigns","rows":[["Brand",1200]]},
				{"id":"note","type":"callout","title":"Methodology","body":"GA4."}
			]
		}
	}]`)

	result, err := Process(payload)
	require.NoError(t, err)

	d := result.Dashboard
	assert.Equal(t, "1", d.Version)
	assert.Equal(t, "light", d.Theme.Mode)
	assert.Equal(t, DefaultAccent, d.Theme.Accent)
	assert.Equal(t, DefaultColumns, d.Layout.Columns)
	assert.Equal(t, "ROAS is up.", result.Metadata.Answer)

	model := result.Model
	assert.Equal(t, []string{"kpi_spend", "kpi_roas"}, ids(model.KPICards))
	assert.Equal(t, MaxColSpan, model.KPICards[0].Layout.ColSpan)
	require.NotNil(t, model.HeroCard)
	assert.Equal(t, "ts", model.HeroCard.ID)
	assert.Equal(t, DefaultViz, model.HeroCard.Viz)
	assert.Equal(t, []string{"ads", "methodology"}, sectionKeys(model.Sections))

	table := model.Sections[0].Cards[0]
	assert.True(t, strings.HasPrefix(table.ID, "card_"))
	assert.Equal(t, table.ID, table.Anchor)
}

func TestDecode_PlaceholderIDsAreUnique(t *testing.T) {
	m := decodeJSON(t, `{"version":"1","cards":[{"type":"table"},{"type":"table"},{"type":"insight"}]}`).(map[string]any)

	d := Decode(m)

	seen := map[string]bool{}
	for _, c := range d.Cards {
		require.NotEmpty(t, c.ID)
		assert.False(t, seen[c.ID], "duplicate placeholder %s", c.ID)
		seen[c.ID] = true
	}
	assert.Empty(t, d.DeclaredOrder())
}

func TestDecode_LenientScalars(t *testing.T) {
	m := decodeJSON(t, `{
		"version":1.5,
		"layout":{"columns":"8","cards_order":[7,"b"]},
		"filters":[{"field":"country","operator":"in","value":["DK","SE"]},{"field":"device","operator":"=","value":"mobile"}],
		"cards":[{"id":7,"type":"metric","title":null,"layout":{"colSpan":"4"}}]
	}`).(map[string]any)

	d := Decode(m)

	assert.Equal(t, "1.5", d.Version)
	assert.Equal(t, 8, d.Layout.Columns)
	assert.Equal(t, []string{"7", "b"}, d.DeclaredOrder())
	assert.Equal(t, "7", d.Cards[0].ID)
	assert.Equal(t, "", d.Cards[0].Title)
	assert.Equal(t, 4, d.Cards[0].Layout.ColSpan)
	assert.Equal(t, "DK,SE", d.Filters[0].ValueText())
	assert.Equal(t, "mobile", d.Filters[1].ValueText())
}

func TestDecode_AnchorSanitized(t *testing.T) {
	m := decodeJSON(t, `{"version":"1","cards":[{"id":"kpi roas/1","type":"metric"}]}`).(map[string]any)

	d := Decode(m)

	assert.Equal(t, "kpi_roas_1", d.Cards[0].Anchor)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty("x"))
	assert.True(t, IsEmpty(map[string]any{}))
	assert.True(t, IsEmpty([]any{}))
	assert.False(t, IsEmpty(map[string]any{"a": 1}))
}

func TestDecode_MismatchedOptionalFields(t *testing.T) {
	cases := []struct {
		name  string
		cards string
		extra string
		check func(t *testing.T, d *Dashboard)
	}{
		{
			name:  "scalar delta",
			cards: `[{"id":"k","type":"metric","metric":{"value":3,"delta":0.1}}]`,
			check: func(t *testing.T, d *Dashboard) {
				require.NotNil(t, d.Cards[0].Metric)
				assert.Nil(t, d.Cards[0].Metric.Delta)
				assert.Equal(t, float64(3), d.Cards[0].Metric.Value)
			},
		},
		{
			name:  "numeric unit",
			cards: `[{"id":"k","type":"metric","metric":{"unit":5}}]`,
			check: func(t *testing.T, d *Dashboard) {
				assert.Equal(t, "5", d.Cards[0].Metric.Unit)
			},
		},
		{
			name:  "scalar metric",
			cards: `[{"id":"k","type":"metric","metric":"n/a"}]`,
			check: func(t *testing.T, d *Dashboard) {
				assert.Nil(t, d.Cards[0].Metric)
			},
		},
		{
			name:  "plain insight items",
			cards: `[{"id":"i","type":"insight","items":["plain",7,{"emoji":"📈","text":"Up"}]}]`,
			check: func(t *testing.T, d *Dashboard) {
				assert.Equal(t, []InsightItem{{Text: "plain"}, {Emoji: "📈", Text: "Up"}}, d.Cards[0].Items)
			},
		},
		{
			name:  "string theme",
			extra: `"theme":"dark",`,
			cards: `[]`,
			check: func(t *testing.T, d *Dashboard) {
				assert.Equal(t, DefaultMode, d.Theme.Mode)
				assert.Equal(t, DefaultAccent, d.Theme.Accent)
			},
		},
		{
			name:  "object filters",
			extra: `"filters":{"field":"country"},`,
			cards: `[]`,
			check: func(t *testing.T, d *Dashboard) {
				assert.Empty(t, d.Filters)
			},
		},
		{
			name:  "non-object cards skipped",
			cards: `["x",null,{"id":"c","type":"chart"}]`,
			check: func(t *testing.T, d *Dashboard) {
				assert.Equal(t, []string{"c"}, ids(d.Cards))
			},
		},
		{
			name:  "numeric series label",
			cards: `[{"id":"c","type":"chart","series":[{"label":1,"data":[1,2]},"bad"],"compare_series":{}}]`,
			check: func(t *testing.T, d *Dashboard) {
				require.Len(t, d.Cards[0].Series, 1)
				assert.Equal(t, "1", d.Cards[0].Series[0].Label)
				assert.Len(t, d.Cards[0].Series[0].Data, 2)
				assert.Empty(t, d.Cards[0].CompareSeries)
			},
		},
		{
			name:  "scalar layout and period",
			extra: `"layout":"wide","period":["2025"],`,
			cards: `[{"id":"t","type":"table","layout":3,"rows":"none"}]`,
			check: func(t *testing.T, d *Dashboard) {
				assert.Equal(t, DefaultColumns, d.Layout.Columns)
				assert.Equal(t, MaxColSpan, d.Cards[0].Layout.ColSpan)
				assert.Empty(t, d.Period.Start)
				assert.Nil(t, d.Cards[0].Rows)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := decodeJSON(t, `{"version":"1",`+tc.extra+`"cards":`+tc.cards+`}`)

			result, err := Process(payload)
			require.NoError(t, err)
			tc.check(t, result.Dashboard)
		})
	}
}

func TestBuild_IDlessChartNeverHero(t *testing.T) {
	result, err := Process(decodeJSON(t, `{"version":"1","cards":[{"type":"chart","title":"A"}]}`))
	require.NoError(t, err)

	assert.Nil(t, result.Model.HeroCard)
	require.Len(t, result.Model.Sections, 1)
	assert.Len(t, result.Model.Sections[0].Cards, 1)
}

func TestBuild_HeroIDRemovedFromSections(t *testing.T) {
	d := &Dashboard{
		Layout: Layout{CardsOrder: []string{"c1"}},
		Cards: []Card{
			{ID: "c1", Type: "chart", Title: "Ads • Spend"},
			{ID: "c1", Type: "table", Title: "Ads • Campaigns"},
			{ID: "t2", Type: "table", Title: "Ads • Keywords"},
		},
	}

	model := Build(d, WrapperMetadata{})

	require.NotNil(t, model.HeroCard)
	assert.Equal(t, "Ads • Spend", model.HeroCard.Title)
	require.Len(t, model.Sections, 1)
	assert.Equal(t, []string{"t2"}, ids(model.Sections[0].Cards))
}
