// Package worker hosts the filter, sort and search units behind a
// request/response message exchange. Every request is computed on its own
// copy of the payload and answered exactly once.
package worker

import (
	"encoding/json"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/record"
	"github.com/asaidimu/go-sieve/core/sorting"
)

// Unit names a computation unit on the wire.
type Unit string

const (
	UnitFilter Unit = "filter"
	UnitSort   Unit = "sort"
	UnitSearch Unit = "search"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope discriminates the unit a message is addressed to. ID is echoed
// back so callers can discard stale replies.
type Envelope struct {
	Unit    Unit            `json:"unit"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// FilterRequest asks the filter unit to apply ruleOfList to the records.
type FilterRequest struct {
	StockScreenerData []record.Record `json:"stockScreenerData"`
	RuleOfList        []filter.Rule   `json:"ruleOfList"`
}

// FilterResponse is either a success carrying the filtered records or an
// error carrying the original records back.
type FilterResponse struct {
	Message            string
	FilteredData       []record.Record
	OriginalDataLength int
	FilteredDataLength int
	Warnings           []filter.Warning
	OriginalData       []record.Record
	Error              string
}

type filterSuccess struct {
	Message            string           `json:"message"`
	FilteredData       []record.Record  `json:"filteredData"`
	OriginalDataLength int              `json:"originalDataLength"`
	FilteredDataLength int              `json:"filteredDataLength"`
	Warnings           []filter.Warning `json:"warnings,omitempty"`
}

type filterFailure struct {
	Message      string          `json:"message"`
	OriginalData []record.Record `json:"originalData"`
	Error        string          `json:"error"`
}

// MarshalJSON writes the success or the error shape depending on Message.
func (r FilterResponse) MarshalJSON() ([]byte, error) {
	if r.Message == StatusError {
		return Marshal(filterFailure{
			Message:      r.Message,
			OriginalData: nonNil(r.OriginalData),
			Error:        r.Error,
		})
	}
	return Marshal(filterSuccess{
		Message:            r.Message,
		FilteredData:       nonNil(r.FilteredData),
		OriginalDataLength: r.OriginalDataLength,
		FilteredDataLength: r.FilteredDataLength,
		Warnings:           r.Warnings,
	})
}

// UnmarshalJSON reads either response shape.
func (r *FilterResponse) UnmarshalJSON(data []byte) error {
	var wire struct {
		filterSuccess
		OriginalData []record.Record `json:"originalData"`
		Error        string          `json:"error"`
	}
	if err := Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = FilterResponse{
		Message:            wire.Message,
		FilteredData:       wire.FilteredData,
		OriginalDataLength: wire.OriginalDataLength,
		FilteredDataLength: wire.FilteredDataLength,
		Warnings:           wire.Warnings,
		OriginalData:       wire.OriginalData,
		Error:              wire.Error,
	}
	return nil
}

// SortRequest asks the sort unit to advance sortOrders and reorder the
// current record set.
type SortRequest struct {
	RawData      []record.Record `json:"rawData"`
	FilteredData []record.Record `json:"filteredData"`
	SortOrders   sorting.State   `json:"sortOrders"`
}

// SortResponse echoes the advanced sort state alongside the data.
type SortResponse struct {
	Message    string          `json:"message"`
	SortedData []record.Record `json:"sortedData"`
	SortOrders sorting.State   `json:"sortOrders"`
}

// SearchRequest asks the search unit to match inputValue.
type SearchRequest struct {
	RawData    []record.Record `json:"rawData"`
	InputValue string          `json:"inputValue"`
}

// SearchResponse carries the matching records.
type SearchResponse struct {
	Message string          `json:"message"`
	Output  []record.Record `json:"output"`
}

// ErrorResponse answers a message that could not be dispatched to a unit.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func nonNil(records []record.Record) []record.Record {
	if records == nil {
		return []record.Record{}
	}
	return records
}
