package properties

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one selectable analytics property.
type Record struct {
	AccountID   string `firestore:"accountId" json:"accountId" yaml:"accountId"`
	PropertyID  string `firestore:"propertyId" json:"propertyId" yaml:"propertyId"`
	DisplayName string `firestore:"displayName" json:"displayName" yaml:"displayName"`
}

// Label is the text shown in a selector: the display name, or the id when unnamed.
func (r Record) Label() string {
	if name := strings.TrimSpace(r.DisplayName); name != "" {
		return name
	}
	return r.PropertyID
}

// File is the persisted form of a normalized property list.
type File struct {
	AccountsAndProperties []Record `json:"accounts_and_properties"`
}

// Normalize flattens any supported property payload into uniform records:
//
//	{"accounts_and_properties": [{accountId, propertyId|name, displayName}, ...]}
//	{"accounts": [{accountId, properties: [{propertyId|name, displayName}, ...]}, ...]}
//	[{accountId?, propertyId|name, displayName}, ...]
//
// The first matching shape wins. Anything else yields an empty list.
func Normalize(raw any) []Record {
	out := []Record{}
	switch v := raw.(type) {
	case map[string]any:
		if list, ok := v["accounts_and_properties"].([]any); ok {
			return appendFlat(out, list, "", true)
		}
		if accounts, ok := v["accounts"].([]any); ok {
			for _, a := range accounts {
				acc, ok := a.(map[string]any)
				if !ok {
					continue
				}
				props, ok := acc["properties"].([]any)
				if !ok {
					continue
				}
				out = appendFlat(out, props, field(acc, "accountId"), false)
			}
			return out
		}
	case []any:
		return appendFlat(out, v, "", true)
	}
	return out
}

// appendFlat maps property-like objects to records. When ownAccount is set the
// account id is read from each item, otherwise accountID is used.
func appendFlat(out []Record, items []any, accountID string, ownAccount bool) []Record {
	for _, item := range items {
		p, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := Record{
			AccountID:   accountID,
			PropertyID:  propertyID(p),
			DisplayName: field(p, "displayName"),
		}
		if ownAccount {
			rec.AccountID = field(p, "accountId")
		}
		out = append(out, rec)
	}
	return out
}

// propertyID prefers an explicit propertyId and falls back to the resource name.
func propertyID(p map[string]any) string {
	if v, ok := p["propertyId"]; ok && v != nil {
		return stringOf(v)
	}
	return field(p, "name")
}

func field(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return stringOf(v)
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "1"
		}
	}
	return ""
}
