// Package record defines the loosely-typed row the query engine operates on,
// together with a small tagged value type used to read fields without relying
// on implicit coercions.
package record

import "maps"

// Record is a single input row, such as a screener entry or an options-flow
// trade. There is no fixed schema; fields are accessed by name.
type Record map[string]any

// Get returns the tagged value stored under field. A missing key yields an
// Absent value, a present nil yields Null.
func (r Record) Get(field string) Value {
	raw, ok := r[field]
	if !ok {
		return Absent()
	}
	return Of(raw)
}

// Has reports whether the field is present, even if its value is nil.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// CloneAll returns a new slice holding the same records. The records
// themselves are shared.
func CloneAll(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
