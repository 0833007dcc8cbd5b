package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/asaidimu/go-sieve/core/record"
	"go.uber.org/zap"
)

// categoricalFields are matched by membership or identity, never as numbers.
var categoricalFields = map[string]struct{}{
	"analystRating":    {},
	"topAnalystRating": {},
	"earningsTime":     {},
	"halalStocks":      {},
	"score":            {},
	"sector":           {},
	"industry":         {},
	"country":          {},
	"payoutFrequency":  {},
}

// Compiler turns rules into predicates. Value normalization and date window
// computation happen once per rule, at compile time.
type Compiler struct {
	logger *zap.Logger
	now    func() time.Time
	custom map[string]PredicateFactory
}

// PredicateFactory compiles a rule for a field with a registered predicate.
type PredicateFactory func(rule Rule, op Operand) Predicate

// NewCompiler creates a Compiler. A nil clock uses time.Now.
func NewCompiler(logger *zap.Logger, now func() time.Time) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Compiler{logger: logger, now: now, custom: make(map[string]PredicateFactory)}
}

// RegisterPredicate routes rules named field to fn ahead of the built-in
// dispatch. It must not be called concurrently with Compile.
func (c *Compiler) RegisterPredicate(field string, fn PredicateFactory) {
	c.custom[field] = fn
	c.logger.Info("Registered filter predicate", zap.String("field", field))
}

// Compile normalizes the rule value and compiles the rule. Warnings list the
// parts of the rule that fell back to the permissive default.
func (c *Compiler) Compile(rule Rule) (Predicate, []Warning) {
	return c.compile(rule, strings.ToLower(rule.Name), c.normalizeOperand(rule))
}

func (c *Compiler) normalizeOperand(rule Rule) Operand {
	op := NormalizeOperand(rule.Value)
	logKept := func(v record.Value) {
		if _, converted := normalize(v); !converted {
			c.logger.Debug("Rule value kept as text",
				zap.String("rule", rule.Name), zap.String("value", v.String()))
		}
	}
	if op.IsList {
		for _, v := range op.List {
			logKept(v)
		}
	} else {
		logKept(op.Scalar)
	}
	return op
}

func (c *Compiler) compile(rule Rule, name string, op Operand) (Predicate, []Warning) {
	if isAny(rule.Value) {
		return always, nil
	}

	if fn, ok := c.custom[rule.Name]; ok {
		return fn(rule, op), nil
	}

	if rule.Name == EarningsDateField {
		return c.compileEarningsDate(rule)
	}

	if _, ok := categoricalFields[rule.Name]; ok {
		return compileCategorical(rule.Name, op), nil
	}

	if IsMovingAverageField(name) {
		return c.compileComparisons(rule, op)
	}

	if rule.Condition == ConditionBetween && op.IsList {
		return compileBetween(rule.Name, op), nil
	}

	return c.compileNumeric(rule, op)
}

func compileCategorical(field string, op Operand) Predicate {
	if op.IsList {
		allowed := op.List
		return func(r record.Record) bool {
			v := r.Get(field)
			for _, a := range allowed {
				if v.Equal(a) {
					return true
				}
			}
			return false
		}
	}
	want := op.Scalar
	return func(r record.Record) bool {
		return r.Get(field).Equal(want)
	}
}

// compileComparisons expects a list of comparison labels and requires all
// of them. Unknown labels pass and are reported.
func (c *Compiler) compileComparisons(rule Rule, op Operand) (Predicate, []Warning) {
	if !op.IsList {
		return always, nil
	}

	var warnings []Warning
	checks := make([]Comparison, 0, len(op.List))
	for _, v := range op.List {
		label, _ := v.Text()
		cmp, ok := ParseComparison(label)
		if !ok {
			c.logger.Warn("Unrecognized comparison label",
				zap.String("rule", rule.Name), zap.String("label", v.String()))
			warnings = append(warnings, Warning{Rule: rule.Name, Code: WarningUnknownLabel, Detail: v.String()})
			continue
		}
		checks = append(checks, cmp)
	}

	return func(r record.Record) bool {
		for _, cmp := range checks {
			if !cmp.Eval(r) {
				return false
			}
		}
		return true
	}, warnings
}

// compileBetween builds an exclusive range check. An empty bound is open.
func compileBetween(field string, op Operand) Predicate {
	lo, hi := Normalize(op.At(0)), Normalize(op.At(1))

	switch {
	case lo.IsEmpty() && hi.IsEmpty():
		return always
	case lo.IsEmpty():
		return func(r record.Record) bool {
			cmp, ok := compare(r.Get(field), hi)
			return ok && cmp < 0
		}
	case hi.IsEmpty():
		return func(r record.Record) bool {
			cmp, ok := compare(r.Get(field), lo)
			return ok && cmp > 0
		}
	default:
		return func(r record.Record) bool {
			v := r.Get(field)
			cl, okl := compare(v, lo)
			ch, okh := compare(v, hi)
			return okl && okh && cl > 0 && ch < 0
		}
	}
}

// compileNumeric handles exactly, over and under. Under is inclusive.
func (c *Compiler) compileNumeric(rule Rule, op Operand) (Predicate, []Warning) {
	field := rule.Name
	want := op.Scalar

	switch rule.Condition {
	case ConditionExactly:
		return func(r record.Record) bool {
			v := r.Get(field)
			return !v.IsMissing() && !op.IsList && v.Equal(want)
		}, nil
	case ConditionOver:
		return func(r record.Record) bool {
			cmp, ok := compare(r.Get(field), want)
			return ok && cmp > 0
		}, nil
	case ConditionUnder:
		return func(r record.Record) bool {
			cmp, ok := compare(r.Get(field), want)
			return ok && cmp <= 0
		}, nil
	}

	c.logger.Warn("Unrecognized rule condition",
		zap.String("rule", rule.Name), zap.String("condition", string(rule.Condition)))
	// A null value fails before the condition is looked at.
	notNull := func(r record.Record) bool { return !r.Get(field).IsNull() }
	return notNull, []Warning{{
		Rule:   rule.Name,
		Code:   WarningUnknownCondition,
		Detail: fmt.Sprintf("condition %q", rule.Condition),
	}}
}

// compare orders a record value against a rule operand. Two numeric readings
// compare as numbers, two texts lexicographically; anything else, including
// a missing record value, is not comparable.
func compare(v, operand record.Value) (int, bool) {
	if v.IsMissing() || operand.IsMissing() {
		return 0, false
	}
	if a, ok := v.Float(); ok {
		if b, ok := operand.Float(); ok {
			switch {
			case a < b:
				return -1, true
			case a > b:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	a, aok := v.Text()
	b, bok := operand.Text()
	if aok && bok {
		return strings.Compare(a, b), true
	}
	return 0, false
}
