package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/asaidimu/go-sieve/core/record"
	"go.uber.org/zap"
)

const dayLayout = "2006-01-02"

// dateWindow is an inclusive [start, end] range of YYYY-MM-DD dates.
type dateWindow struct {
	start string
	end   string
}

// earningsWindows builds the label table anchored at UTC midnight of now.
func earningsWindows(now time.Time) map[string]dateWindow {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(dayLayout) }
	month := func(offset int) dateWindow {
		first := time.Date(today.Year(), today.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		return dateWindow{first.Format(dayLayout), last.Format(dayLayout)}
	}

	return map[string]dateWindow{
		"today":      {day(0), day(0)},
		"tomorrow":   {day(1), day(1)},
		"next 7d":    {day(0), day(6)},
		"next 30d":   {day(0), day(29)},
		"this month": month(0),
		"next month": month(1),
	}
}

// earningsLabels reads the selected labels from a raw rule value.
func earningsLabels(raw any) []string {
	items, isList := asList(raw)
	if !isList {
		items = []any{raw}
	}
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, strings.ToLower(strings.TrimSpace(fmt.Sprint(item))))
	}
	return labels
}

// compileEarningsDate tests the record date against the envelope spanning
// every selected window, not against each window separately.
func (c *Compiler) compileEarningsDate(rule Rule) (Predicate, []Warning) {
	windows := earningsWindows(c.now())

	var warnings []Warning
	minDate, maxDate := "9999-12-31", "0000-01-01"
	for _, label := range earningsLabels(rule.Value) {
		w, ok := windows[label]
		if !ok {
			c.logger.Warn("Unrecognized earnings date label", zap.String("label", label))
			warnings = append(warnings, Warning{
				Rule:   rule.Name,
				Code:   WarningUnknownEarningsLabel,
				Detail: label,
			})
			continue
		}
		if w.start < minDate {
			minDate = w.start
		}
		if w.end > maxDate {
			maxDate = w.end
		}
	}

	if minDate == "9999-12-31" || maxDate == "0000-01-01" {
		return always, warnings
	}

	field := rule.Name
	return func(r record.Record) bool {
		d, ok := recordDay(r.Get(field))
		if !ok {
			return false
		}
		return d >= minDate && d <= maxDate
	}, warnings
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	dayLayout,
}

// recordDay truncates a record date to its UTC calendar day. Numbers are
// read as Unix milliseconds.
func recordDay(v record.Value) (string, bool) {
	if t, ok := v.Time(); ok {
		return t.UTC().Format(dayLayout), true
	}
	if v.IsNumber() {
		ms, ok := v.Float()
		if !ok {
			return "", false
		}
		return time.UnixMilli(int64(ms)).UTC().Format(dayLayout), true
	}
	s, ok := v.Text()
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(dayLayout), true
		}
	}
	return "", false
}
