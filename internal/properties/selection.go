package properties

import (
	"net/url"
	"strings"
)

// PathPrefix is the resource prefix of a canonical property token.
const PathPrefix = "properties/"

// Selection is the resolved property token for one request.
type Selection struct {
	Token string
	// WriteThrough is set when the token came from a forwarded hint and should
	// replace the persisted selection.
	WriteThrough bool
}

// Canonicalize percent-decodes a selection token and expands bare numeric ids to
// their "properties/<id>" form.
func Canonicalize(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(token); err == nil {
		token = decoded
	}
	if isDigits(token) {
		return PathPrefix + token
	}
	return token
}

// Resolve picks the selected property: a forwarded hint first, then the persisted
// selection, then the first known property.
func Resolve(persisted string, records []Record, hint string) Selection {
	if token := Canonicalize(hint); token != "" {
		return Selection{Token: token, WriteThrough: true}
	}
	if token := Canonicalize(persisted); token != "" {
		return Selection{Token: token}
	}
	if len(records) > 0 {
		return Selection{Token: Canonicalize(records[0].PropertyID)}
	}
	return Selection{}
}

// NumericID extracts the numeric property id from any token form:
// "properties%2F123" and "properties/123" both yield "123". A non-numeric tail is
// returned trimmed.
func NumericID(token string) string {
	if token == "" {
		return ""
	}
	decoded, err := url.QueryUnescape(token)
	if err != nil {
		decoded = token
	}
	last := decoded
	if i := strings.LastIndex(decoded, "/"); i >= 0 {
		last = decoded[i+1:]
	}
	last = strings.TrimSpace(last)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, last)
	if digits != "" {
		return digits
	}
	return last
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
