package sorting

import (
	"cmp"
	"slices"

	"github.com/asaidimu/go-sieve/core/record"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Result carries the reordered records and the state to hand back to the
// caller for the next invocation.
type Result struct {
	Data  []record.Record
	State State
}

// Controller applies single-key cyclic sorting. It keeps no view of its own;
// the caller passes whichever record set is current on every call.
type Controller struct {
	extractors map[string]Extractor
	lang       language.Tag
	logger     *zap.Logger
}

// NewController creates a Controller with the options-flow extractor table.
func NewController(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		extractors: DefaultExtractors(),
		lang:       language.English,
		logger:     logger,
	}
}

// RegisterExtractor adds or replaces the extractor for a column. It must not
// be called concurrently with Sort.
func (c *Controller) RegisterExtractor(column string, fn Extractor) {
	c.extractors[column] = fn
	c.logger.Info("Registered sort extractor", zap.String("column", column))
}

// extractor returns the column extractor, falling back to the same-named
// record field.
func (c *Controller) extractor(column string) Extractor {
	if fn, ok := c.extractors[column]; ok {
		return fn
	}
	return passthrough(column)
}

// Sort advances the active column of state and orders filtered, or raw when
// filtered is empty, by it. With no active column, or once the column cycles
// back to none, the input set is returned in its original order.
func (c *Controller) Sort(raw, filtered []record.Record, state State) Result {
	key, ok := state.Active()
	if !ok {
		return Result{Data: current(raw, filtered), State: state.Clone()}
	}
	return c.Apply(raw, filtered, state.Advance(key))
}

// Toggle is the column-header click: column moves one step along the cycle,
// every other column is reset, and the data is ordered by the result.
func (c *Controller) Toggle(raw, filtered []record.Record, state State, column string) Result {
	return c.Apply(raw, filtered, state.Advance(column))
}

// Apply orders the current set by the active column of state without
// changing the state.
func (c *Controller) Apply(raw, filtered []record.Record, state State) Result {
	data := current(raw, filtered)
	key, ok := state.Active()
	if !ok || (state[key] != OrderAsc && state[key] != OrderDesc) {
		return Result{Data: data, State: state.Clone()}
	}
	order := state[key]

	extract := c.extractor(key)
	type keyed struct {
		item record.Record
		key  Key
	}
	mapped := make([]keyed, len(data))
	for i, item := range data {
		mapped[i] = keyed{item: item, key: extract(item)}
	}

	collator := collate.New(c.lang)
	factor := order.factor()
	slices.SortStableFunc(mapped, func(a, b keyed) int {
		return compareKeys(collator, a.key, b.key, factor)
	})

	sorted := make([]record.Record, len(mapped))
	for i, m := range mapped {
		sorted[i] = m.item
	}
	c.logger.Debug("Sorted records",
		zap.String("column", key), zap.String("order", string(order)), zap.Int("count", len(sorted)))
	return Result{Data: sorted, State: state.Clone()}
}

func current(raw, filtered []record.Record) []record.Record {
	if len(filtered) > 0 {
		return filtered
	}
	return raw
}

// compareKeys collates two texts and subtracts anything else numerically.
// Keys with no numeric reading sort after all others in either direction.
func compareKeys(collator *collate.Collator, a, b Key, factor int) int {
	if a.isText && b.isText {
		return factor * collator.CompareString(a.text, b.text)
	}
	av, aok := a.number()
	bv, bok := b.number()
	switch {
	case aok && bok:
		return factor * cmp.Compare(av, bv)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}
