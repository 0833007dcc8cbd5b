package worker

import (
	"context"
	"time"

	"github.com/asaidimu/go-sieve/core/filter"
)

// EventType names a host lifecycle event.
type EventType string

const (
	RequestStart   EventType = "request:start"
	RequestSuccess EventType = "request:success"
	RequestFailed  EventType = "request:failed"
	RuleWarning    EventType = "filter:rule:warning"
)

// Event describes one step of a request. Events of the same request share
// the same RequestID.
type Event struct {
	Type        EventType       `json:"type"`
	RequestID   string          `json:"requestId"`
	Unit        Unit            `json:"unit"`
	Timestamp   int64           `json:"timestamp"`             // Unix milliseconds.
	InputCount  int             `json:"inputCount"`            // Records in the request.
	OutputCount *int            `json:"outputCount,omitempty"` // Records in the response, on success.
	Duration    *int64          `json:"duration,omitempty"`    // Milliseconds since the start event.
	Error       *string         `json:"error,omitempty"`
	Warning     *filter.Warning `json:"warning,omitempty"`
}

// EventCallbackFunction receives host events.
type EventCallbackFunction func(ctx context.Context, event Event) error

// RegisterSubscriptionOptions describes a subscription to one event type.
type RegisterSubscriptionOptions struct {
	Event       EventType `json:"event"`
	Label       *string   `json:"label,omitempty"`
	Description *string   `json:"description,omitempty"`
	Callback    EventCallbackFunction
}

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	Id          *string   `json:"id,omitempty"`
	Event       EventType `json:"event"`
	Label       *string   `json:"label,omitempty"`
	Description *string   `json:"description,omitempty"`
	Unsubscribe func()    `json:"-"`
}

func createEvent(eventType EventType, requestID string, unit Unit, input int, output *int, err *string, startTime time.Time) Event {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}
	return Event{
		Type:        eventType,
		RequestID:   requestID,
		Unit:        unit,
		Timestamp:   time.Now().UnixMilli(),
		InputCount:  input,
		OutputCount: output,
		Duration:    duration,
		Error:       err,
	}
}
