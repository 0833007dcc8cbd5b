package sorting

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/asaidimu/go-sieve/core/record"
)

// Options-flow columns with a dedicated extractor.
const (
	ColumnTime      = "time"
	ColumnTicker    = "ticker"
	ColumnExpiry    = "expiry"
	ColumnDTE       = "dte"
	ColumnROI       = "roi"
	ColumnStrike    = "strike"
	ColumnSpot      = "spot"
	ColumnPrice     = "price"
	ColumnPremium   = "premium"
	ColumnSize      = "size"
	ColumnVolume    = "vol"
	ColumnOI        = "oi"
	ColumnCallPut   = "callPut"
	ColumnSentiment = "sentiment"
	ColumnType      = "type"
	ColumnExec      = "exec"
)

// Key is the value a record is ordered by.
type Key struct {
	text   string
	num    float64
	isText bool
}

// TextKey and NumberKey build keys; NaN marks a value with no numeric reading.
func TextKey(s string) Key { return Key{text: s, isText: true} }
func NumberKey(f float64) Key { return Key{num: f} }
func invalidKey() Key { return Key{num: math.NaN()} }

// number coerces the key the way a whole-string numeric conversion would:
// blank text is zero, other text must parse completely.
func (k Key) number() (float64, bool) {
	if !k.isText {
		return k.num, !math.IsNaN(k.num)
	}
	s := strings.TrimSpace(k.text)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Extractor reads the sort key of a column from a record.
type Extractor func(r record.Record) Key

var (
	sentimentRank = map[string]float64{"BULLISH": 1, "NEUTRAL": 2, "BEARISH": 3}
	activityRank  = map[string]float64{"SWEEP": 1, "TRADE": 2}
)

// DefaultExtractors returns the options-flow extractor table.
func DefaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		ColumnTime:      timeOfDay("time"),
		ColumnTicker:    passthrough("ticker"),
		ColumnExpiry:    timestamp("date_expiration"),
		ColumnDTE:       timestamp("date_expiration"),
		ColumnROI:       leadingNumber("roi"),
		ColumnStrike:    leadingNumber("strike_price"),
		ColumnSpot:      leadingNumber("underlying_price"),
		ColumnPrice:     leadingNumber("price"),
		ColumnPremium:   leadingNumber("cost_basis"),
		ColumnSize:      leadingNumber("size"),
		ColumnVolume:    leadingNumber("volume"),
		ColumnOI:        leadingNumber("open_interest"),
		ColumnCallPut:   textOrEmpty("put_call"),
		ColumnSentiment: ranked("sentiment", sentimentRank, 4),
		ColumnType:      ranked("option_activity_type", activityRank, 3),
		ColumnExec:      textOrEmpty("execution_estimate"),
	}
}

// passthrough keeps text as text and anything else as its numeric reading.
func passthrough(field string) Extractor {
	return func(r record.Record) Key {
		v := r.Get(field)
		if s, ok := v.Text(); ok {
			return TextKey(s)
		}
		return numericOf(v)
	}
}

func numericOf(v record.Value) Key {
	if f, ok := v.Float(); ok {
		return NumberKey(f)
	}
	if b, ok := v.Bool(); ok {
		if b {
			return NumberKey(1)
		}
		return NumberKey(0)
	}
	if t, ok := v.Time(); ok {
		return NumberKey(float64(t.UnixMilli()))
	}
	return invalidKey()
}

func textOrEmpty(field string) Extractor {
	return func(r record.Record) Key {
		v := r.Get(field)
		if v.IsMissing() {
			return TextKey("")
		}
		if s, ok := v.Text(); ok {
			return TextKey(s)
		}
		return numericOf(v)
	}
}

func leadingNumber(field string) Extractor {
	return func(r record.Record) Key {
		if f, ok := r.Get(field).LeadingFloat(); ok {
			return NumberKey(f)
		}
		return invalidKey()
	}
}

func ranked(field string, ranks map[string]float64, unknown float64) Extractor {
	return func(r record.Record) Key {
		s, _ := r.Get(field).Text()
		if rank, ok := ranks[strings.ToUpper(s)]; ok {
			return NumberKey(rank)
		}
		return NumberKey(unknown)
	}
}

var clockLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04"}

// timeOfDay reads an HH:MM[:SS] string as milliseconds since midnight on
// the epoch date.
func timeOfDay(field string) Extractor {
	return func(r record.Record) Key {
		s, ok := r.Get(field).Text()
		if !ok {
			return invalidKey()
		}
		s = strings.TrimSpace(s)
		for _, layout := range clockLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				return NumberKey(float64(t.Sub(midnight).Milliseconds()))
			}
		}
		return invalidKey()
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestamp reads a date string as Unix milliseconds.
func timestamp(field string) Extractor {
	return func(r record.Record) Key {
		v := r.Get(field)
		if t, ok := v.Time(); ok {
			return NumberKey(float64(t.UnixMilli()))
		}
		s, ok := v.Text()
		if !ok {
			return invalidKey()
		}
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return NumberKey(float64(t.UnixMilli()))
			}
		}
		return invalidKey()
	}
}
