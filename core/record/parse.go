package record

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingFloat = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// ParseLeadingFloat reads the longest decimal prefix of s after leading
// whitespace, so "12.5%" yields 12.5 and "abc" fails.
func ParseLeadingFloat(s string) (float64, bool) {
	prefix := leadingFloat.FindString(strings.TrimLeft(s, " \t\n\r\f\v"))
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// LeadingFloat is ParseLeadingFloat applied to the value: numbers are
// returned as-is, text is prefix-parsed, everything else fails.
func (v Value) LeadingFloat() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.Float()
	case KindText:
		return ParseLeadingFloat(v.text)
	default:
		return 0, false
	}
}
