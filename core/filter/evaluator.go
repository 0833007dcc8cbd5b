package filter

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/asaidimu/go-sieve/core/record"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultRankField is the field the filtered result is ordered by.
const DefaultRankField = "marketCap"

// EvaluatorOptions configures an Evaluator.
type EvaluatorOptions struct {
	RankField string           // result is sorted descending by this field
	Now       func() time.Time // clock used for earnings date windows
}

// DefaultEvaluatorOptions returns the options used when none are given.
func DefaultEvaluatorOptions() *EvaluatorOptions {
	return &EvaluatorOptions{
		RankField: DefaultRankField,
		Now:       time.Now,
	}
}

// Result is the outcome of a filter pass.
type Result struct {
	Records  []record.Record
	Warnings []Warning
}

// compiledRule pairs a rule with its predicate.
type compiledRule struct {
	rule  Rule
	check Predicate
}

// Evaluator applies a list of rules as a conjunction over a record set.
// It holds no per-request state and is safe for concurrent use.
type Evaluator struct {
	compiler  *Compiler
	validate  *validator.Validate
	rankField string
	logger    *zap.Logger
}

// NewEvaluator creates a new Evaluator instance.
func NewEvaluator(logger *zap.Logger, options *EvaluatorOptions) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultEvaluatorOptions()
	}
	rankField := options.RankField
	if rankField == "" {
		rankField = DefaultRankField
	}
	return &Evaluator{
		compiler:  NewCompiler(logger, options.Now),
		validate:  validator.New(),
		rankField: rankField,
		logger:    logger,
	}
}

// Compiler exposes the rule compiler, e.g. to register predicates before
// the evaluator starts serving.
func (e *Evaluator) Compiler() *Compiler { return e.compiler }

// compileRules validates and compiles every rule up front.
func (e *Evaluator) compileRules(rules []Rule) ([]compiledRule, []Warning, error) {
	compiled := make([]compiledRule, 0, len(rules))
	var warnings []Warning
	for i, rule := range rules {
		if isAny(rule.Value) {
			compiled = append(compiled, compiledRule{rule: rule, check: always})
			continue
		}
		if err := e.validate.Struct(rule); err != nil {
			return nil, nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidRule, i, err)
		}
		check, w := e.compiler.Compile(rule)
		warnings = append(warnings, w...)
		compiled = append(compiled, compiledRule{rule: rule, check: check})
	}
	return compiled, warnings, nil
}

// Evaluate keeps the records that satisfy every rule, then orders them by
// the rank field, highest first. Empty records or rules return the input
// unchanged. A panic while evaluating is returned as an error.
func (e *Evaluator) Evaluate(records []record.Record, rules []Rule) (result *Result, err error) {
	if len(records) == 0 || len(rules) == 0 {
		return &Result{Records: records}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("filter evaluation failed: %v", r)
		}
	}()

	compiled, warnings, err := e.compileRules(rules)
	if err != nil {
		return nil, err
	}

	kept := make([]record.Record, 0, len(records))
	for _, r := range records {
		if matchesAll(r, compiled) {
			kept = append(kept, r)
		}
	}
	e.logger.Debug("Records remaining after filter rules",
		zap.Int("input", len(records)), zap.Int("kept", len(kept)), zap.Int("rules", len(compiled)))

	e.rank(kept)
	return &Result{Records: kept, Warnings: warnings}, nil
}

func matchesAll(r record.Record, compiled []compiledRule) bool {
	for _, c := range compiled {
		if !c.check(r) {
			return false
		}
	}
	return true
}

// rank sorts in place by the rank field, descending. Records without a
// numeric rank keep their relative order after the ranked ones.
func (e *Evaluator) rank(records []record.Record) {
	slices.SortStableFunc(records, func(a, b record.Record) int {
		av, aok := a.Get(e.rankField).Float()
		bv, bok := b.Get(e.rankField).Float()
		switch {
		case aok && bok:
			return cmp.Compare(bv, av)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return 0
		}
	})
}
