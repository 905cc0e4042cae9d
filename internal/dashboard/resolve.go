package dashboard

import (
	"strings"
)

// maxUnwrapSteps bounds how many wrapping layers are peeled off a payload.
const maxUnwrapSteps = 2

// containerKeys are the object keys that may hold the dashboard, in lookup order.
var containerKeys = []string{"dashboard", "json", "data", "body"}

// selectionKeys are the container keys that may carry a forwarded property selection.
var selectionKeys = []string{"selectedProperty", "propertyFull", "propertyId"}

// Resolution is the outcome of resolving an arbitrary payload.
type Resolution struct {
	// Dashboard is the resolved candidate. It is not guaranteed to be valid.
	Dashboard any
	Answer    string
	WhatsNext string
	// Original is the untouched payload.
	Original any
	// Container is the object the agent metadata was read from.
	Container map[string]any
}

// WrapperMetadata is the agent text and ordering hints that travel next to a dashboard.
type WrapperMetadata struct {
	Answer             string            `json:"answer"`
	WhatsNext          string            `json:"whatsnext"`
	SectionOrder       map[string]int    `json:"sectionOrder"`
	SectionExplanation map[string]string `json:"sectionExplanation"`
	// SelectedProperty is a property selection forwarded by the upstream call.
	SelectedProperty string `json:"selectedProperty,omitempty"`
}

// Resolve locates the canonical dashboard object inside payload and extracts the
// free-text answer and follow-up that producers place next to it.
func Resolve(payload any) Resolution {
	container := candidateContainer(payload)
	res := Resolution{
		Answer:    outputString(container, "answer"),
		WhatsNext: outputString(container, "whatsnext"),
		Original:  payload,
		Container: container,
	}

	var current any = container
	for i := 0; i < maxUnwrapSteps; i++ {
		next, ok := unwrap(current)
		if !ok {
			break
		}
		current = next
	}
	res.Dashboard = current
	return res
}

// Metadata reads the wrapper metadata carried by the resolution's container.
func (r Resolution) Metadata() WrapperMetadata {
	return ExtractMetadata(r.Container, r.Answer, r.WhatsNext)
}

// ExtractMetadata builds WrapperMetadata from a container's output object.
// Section keys are trimmed and lower-cased.
func ExtractMetadata(container map[string]any, answer, whatsNext string) WrapperMetadata {
	meta := WrapperMetadata{
		Answer:             answer,
		WhatsNext:          whatsNext,
		SectionOrder:       map[string]int{},
		SectionExplanation: map[string]string{},
		SelectedProperty:   SelectionHint(container),
	}
	output, _ := container["output"].(map[string]any)
	if order, ok := output["order"].(map[string]any); ok {
		for k, v := range order {
			meta.SectionOrder[normalizeKey(k)] = IntValue(v)
		}
	}
	if explanations, ok := output["explanations"].(map[string]any); ok {
		for k, v := range explanations {
			meta.SectionExplanation[normalizeKey(k)] = scalarText(v)
		}
	}
	return meta
}

// SelectionHint returns the first present forwarded selection key of the container.
func SelectionHint(container map[string]any) string {
	for _, key := range selectionKeys {
		if v, ok := container[key]; ok && v != nil {
			return scalarText(v)
		}
	}
	return ""
}

// IsDashboard reports whether v carries both a version and a card list.
func IsDashboard(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if version, ok := m["version"]; !ok || version == nil {
		return false
	}
	_, ok = m["cards"].([]any)
	return ok
}

// candidateContainer picks the object that wrapper metadata is read from: the first
// element of a list payload, the payload itself when it is an object, else nothing.
func candidateContainer(payload any) map[string]any {
	switch p := payload.(type) {
	case []any:
		if len(p) > 0 {
			if first, ok := p[0].(map[string]any); ok {
				return first
			}
		}
	case map[string]any:
		return p
	}
	return map[string]any{}
}

// unwrap applies one ordered unwrap rule. It reports false when v is already a
// dashboard or no rule applies.
func unwrap(v any) (any, bool) {
	if IsDashboard(v) {
		return v, false
	}
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			return v, false
		}
		first := x[0]
		if m, ok := first.(map[string]any); ok {
			for _, key := range []string{"json", "dashboard"} {
				if inner, ok := m[key].(map[string]any); ok {
					return inner, true
				}
			}
		}
		return first, true
	case map[string]any:
		for _, key := range containerKeys {
			if inner, ok := x[key].(map[string]any); ok {
				return inner, true
			}
		}
	}
	return v, false
}

// outputString reads key from container.output, falling back to container itself.
func outputString(container map[string]any, key string) string {
	if output, ok := container["output"].(map[string]any); ok {
		if s, ok := output[key].(string); ok {
			return s
		}
	}
	if s, ok := container[key].(string); ok {
		return s
	}
	return ""
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
