package dashboard

// RenderModel is the ordered structure handed to the presentation layer.
type RenderModel struct {
	KPICards []Card `json:"kpiCards"`
	HeroCard *Card  `json:"heroCard,omitempty"`
	// HeroSection carries the explanation of the hero's section when it is shown
	// above the hero instead of above the section itself.
	HeroSection *SectionBanner `json:"heroSection,omitempty"`
	Sections    []Section      `json:"sections"`
}

// SectionBanner is a section explanation rendered on its own.
type SectionBanner struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// Build classifies, promotes and groups the dashboard's cards.
func Build(d *Dashboard, meta WrapperMetadata) RenderModel {
	declared := d.DeclaredOrder()
	kpis, others := Classify(d.Cards)

	model := RenderModel{
		KPICards: OrderKPIs(kpis, declared),
	}

	rest := others
	if idx := heroIndex(others, declared); idx >= 0 {
		hero := others[idx]
		model.HeroCard = &hero
		// every card sharing the hero's id leaves the sections with it
		rest = make([]Card, 0, len(others)-1)
		for _, c := range others {
			if c.ID != hero.ID {
				rest = append(rest, c)
			}
		}
	}

	model.Sections = GroupSections(rest, declared, meta.SectionOrder, meta.SectionExplanation)

	if model.HeroCard != nil {
		key := SectionKey(model.HeroCard.Title)
		if text := lookupFold(meta.SectionExplanation, key); text != "" {
			model.HeroSection = &SectionBanner{Key: key, Title: SectionTitle(key), Explanation: text}
			model.Sections = withoutExplanation(model.Sections, key)
		}
	}
	return model
}

// withoutExplanation clears the explanation of the section already announced.
func withoutExplanation(sections []Section, key string) []Section {
	for i := range sections {
		if sections[i].Key == key {
			sections[i].Explanation = ""
		}
	}
	return sections
}

// Result is everything derived from one payload.
type Result struct {
	Dashboard  *Dashboard
	Metadata   WrapperMetadata
	Model      RenderModel
	Resolution Resolution
}

// Process runs the full pipeline on a parsed payload. The only error it returns is
// the schema error for a resolved value that is not a dashboard.
func Process(payload any) (Result, error) {
	res := Resolve(payload)
	m, err := Validate(res.Dashboard)
	if err != nil {
		return Result{Resolution: res}, err
	}
	d := Decode(m)
	meta := res.Metadata()
	return Result{
		Dashboard:  d,
		Metadata:   meta,
		Model:      Build(d, meta),
		Resolution: res,
	}, nil
}
