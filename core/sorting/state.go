// Package sorting reorders a record set by a single active column, cycling
// the column through none, ascending and descending on every invocation.
package sorting

import (
	"maps"
	"slices"
)

// Order is the sort flag of one column.
type Order string

// Supported orders, in cycle order.
const (
	OrderNone Order = "none"
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Next advances the cycle none -> asc -> desc -> none. Unknown flags restart
// the cycle at none.
func (o Order) Next() Order {
	switch o {
	case OrderNone:
		return OrderAsc
	case OrderAsc:
		return OrderDesc
	default:
		return OrderNone
	}
}

// factor is the comparator multiplier for the order.
func (o Order) factor() int {
	if o == OrderDesc {
		return -1
	}
	return 1
}

// State maps column keys to their sort flag. It is owned by the caller and
// treated as an immutable snapshot: every operation returns a new State.
type State map[string]Order

// NewState returns a state with every column set to none.
func NewState(columns ...string) State {
	s := make(State, len(columns))
	for _, c := range columns {
		s[c] = OrderNone
	}
	return s
}

// Clone returns a copy of the state.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// Active returns the first key, in ascending key order, whose flag is not
// none. Callers are expected to keep at most one such key.
func (s State) Active() (string, bool) {
	for _, k := range slices.Sorted(maps.Keys(s)) {
		if s[k] != OrderNone {
			return k, true
		}
	}
	return "", false
}

// Advance cycles key and resets every other column to none. A key missing
// from the state starts at none.
func (s State) Advance(key string) State {
	next := make(State, len(s)+1)
	for k := range s {
		next[k] = OrderNone
	}
	current, ok := s[key]
	if !ok {
		current = OrderNone
	}
	next[key] = current.Next()
	return next
}
