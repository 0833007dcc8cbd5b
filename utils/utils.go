// Package utils converts between typed rows and records.
package utils

import (
	"fmt"
	"reflect"

	"github.com/asaidimu/go-sieve/core/record"
	"github.com/bytedance/sonic"
)

// StructToRecord converts a Go struct into a record.
//
// The struct is marshaled to JSON and decoded back into a map, so `json` tags,
// `omitempty` and custom marshalers decide the field names and values exactly
// as they would on the wire. Numbers become float64, nested structs become
// nested maps and slices become []any, which is the shape the filter and
// sort units read.
//
// The input must be a struct or a pointer to a struct. A nil input, a nil
// pointer, or any other kind returns an error.
//
// Example:
//
//	type Row struct {
//		Symbol    string  `json:"symbol"`
//		MarketCap float64 `json:"marketCap"`
//	}
//	r, err := StructToRecord(Row{Symbol: "AAPL", MarketCap: 2.9e12})
//	// r is record.Record{"symbol": "AAPL", "marketCap": 2.9e12}
func StructToRecord[T any](row T) (record.Record, error) {
	val := reflect.ValueOf(row)

	if !val.IsValid() {
		return nil, fmt.Errorf("input row cannot be nil")
	}

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input row cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input row must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := sonic.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("StructToRecord: failed to marshal input row to JSON: %w", err)
	}

	var result record.Record
	if err := sonic.Unmarshal(jsonBytes, &result); err != nil {
		return nil, fmt.Errorf("StructToRecord: failed to unmarshal JSON to record: %w", err)
	}
	return result, nil
}

// ToRecords converts every row with StructToRecord, stopping at the first
// failure.
func ToRecords[T any](rows []T) ([]record.Record, error) {
	out := make([]record.Record, 0, len(rows))
	for i, row := range rows {
		r, err := StructToRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// RecordToStruct is the inverse of StructToRecord: it converts a record into
// a new instance of the struct type T.
//
// T must be a struct type or a pointer to one. Fields are matched through
// their `json` tags; record fields with no matching struct field are
// dropped.
//
// Example:
//
//	row, err := RecordToStruct[Row](record.Record{"symbol": "F", "marketCap": 4.8e10})
//	// row is Row{Symbol: "F", MarketCap: 4.8e10}
func RecordToStruct[T any](input record.Record) (T, error) {
	var zero T

	if input == nil {
		return zero, fmt.Errorf("RecordToStruct: input record cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("RecordToStruct: generic type T must be a struct type (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := sonic.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("RecordToStruct: failed to marshal input record to JSON: %w", err)
	}

	var result T
	if err := sonic.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("RecordToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
