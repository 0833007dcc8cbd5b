// Package filter compiles declarative screener rules into predicates and
// applies them as a conjunction over a snapshot of records.
package filter

import (
	"errors"

	"github.com/asaidimu/go-sieve/core/record"
)

// Condition names the comparison a rule performs.
type Condition string

// Supported conditions.
const (
	ConditionExactly Condition = "exactly"
	ConditionOver    Condition = "over"
	ConditionUnder   Condition = "under"
	ConditionBetween Condition = "between"
)

// AnyValue is the rule value that satisfies every record.
const AnyValue = "any"

// EarningsDateField is the rule name that selects the date-window predicate.
const EarningsDateField = "earningsDate"

// Rule is a single declarative filter as produced by the screener UI.
type Rule struct {
	Name      string    `json:"name" validate:"required"` // record field the rule applies to
	Condition Condition `json:"condition"`                // one of the Condition constants, may be empty
	Value     any       `json:"value"`                    // scalar, list of scalars, or "any"
}

// Predicate is a pure test over a single record.
type Predicate func(r record.Record) bool

// Operand is a normalized rule value: either a single scalar or a list.
type Operand struct {
	Scalar record.Value
	List   []record.Value
	IsList bool
}

// At returns the i-th list element, Absent when out of range.
func (o Operand) At(i int) record.Value {
	if i < 0 || i >= len(o.List) {
		return record.Absent()
	}
	return o.List[i]
}

// WarningCode classifies a rule that was only partially understood.
type WarningCode string

const (
	WarningUnknownCondition     WarningCode = "unknown_condition"
	WarningUnknownLabel         WarningCode = "unknown_label"
	WarningUnknownEarningsLabel WarningCode = "unknown_earnings_label"
)

// Warning reports a rule part that fell back to the permissive default.
type Warning struct {
	Rule   string      `json:"rule"`
	Code   WarningCode `json:"code"`
	Detail string      `json:"detail"`
}

// ErrInvalidRule is returned when a rule cannot be compiled at all.
var ErrInvalidRule = errors.New("invalid filter rule")

func always(record.Record) bool { return true }

// isAny reports whether a rule value is the "any" wildcard. Such a rule is
// satisfied by every record whatever its name.
func isAny(v any) bool {
	s, ok := v.(string)
	return ok && s == AnyValue
}
