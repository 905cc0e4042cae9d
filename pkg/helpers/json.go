package helpers

import (
	"bytes"
	"encoding/json"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TrimJSON strips surrounding whitespace and a leading UTF-8 byte order mark.
func TrimJSON(b []byte) []byte {
	b = bytes.TrimSpace(b)
	b = bytes.TrimPrefix(b, utf8BOM)
	return bytes.TrimSpace(b)
}

// DecodeLoose parses b into a generic JSON value. Blank or invalid input yields
// nil and false.
func DecodeLoose(b []byte) (any, bool) {
	b = TrimJSON(b)
	if len(b) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Head returns at most n bytes of b as text, for log lines.
func Head(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
