package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/search"
	"github.com/asaidimu/go-sieve/core/sorting"
	"github.com/asaidimu/go-sieve/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// HostOptions configures a Host.
type HostOptions struct {
	MaxInFlight int64                    // requests computed at once, others wait for admission
	Evaluator   *filter.EvaluatorOptions // nil uses the filter defaults
	Matcher     *search.MatcherOptions   // nil uses the search defaults
	Metrics     *metrics.Metrics         // nil disables instrumentation
}

// DefaultHostOptions returns the options used when none are given.
func DefaultHostOptions() *HostOptions {
	return &HostOptions{MaxInFlight: int64(runtime.GOMAXPROCS(0))}
}

// Host owns one instance of every unit and answers their messages. Units hold
// no per-request state, so concurrent requests never share anything but the
// read-only configuration.
type Host struct {
	evaluator  *filter.Evaluator
	controller *sorting.Controller
	matcher    *search.Matcher
	sem        *semaphore.Weighted
	metrics    *metrics.Metrics
	logger     *zap.Logger

	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
	bus           *events.TypedEventBus[Event]
}

// NewHost creates a new Host instance.
func NewHost(logger *zap.Logger, options *HostOptions) (*Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultHostOptions()
	}
	if options.MaxInFlight <= 0 {
		return nil, fmt.Errorf("max in-flight must be positive, got %d", options.MaxInFlight)
	}

	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	return &Host{
		evaluator:     filter.NewEvaluator(logger.Named("filter"), options.Evaluator),
		controller:    sorting.NewController(logger.Named("sorting")),
		matcher:       search.NewMatcher(logger.Named("search"), options.Matcher),
		sem:           semaphore.NewWeighted(options.MaxInFlight),
		metrics:       options.Metrics,
		logger:        logger,
		subscriptions: make(map[string]*SubscriptionInfo),
		bus:           bus,
	}, nil
}

// Controller exposes the sort controller, e.g. to register extractors
// before the host starts serving.
func (h *Host) Controller() *sorting.Controller { return h.controller }

// Filter applies the request rules. A failing filter pass is answered with
// an error response carrying the original records; the returned error is
// only set when the request was not admitted.
func (h *Host) Filter(ctx context.Context, req *FilterRequest) (*FilterResponse, error) {
	var resp *FilterResponse
	err := h.run(ctx, UnitFilter, len(req.StockScreenerData), func(requestID string) (int, error) {
		result, err := h.evaluator.Evaluate(req.StockScreenerData, req.RuleOfList)
		if err != nil {
			h.logger.Error("Filter request failed", zap.String("requestId", requestID), zap.Error(err))
			resp = &FilterResponse{
				Message:      StatusError,
				OriginalData: req.StockScreenerData,
				Error:        err.Error(),
			}
			return 0, err
		}

		for _, w := range result.Warnings {
			h.metrics.ObserveWarning(string(w.Code))
			warning := w
			event := createEvent(RuleWarning, requestID, UnitFilter, len(req.StockScreenerData), nil, nil, time.Time{})
			event.Warning = &warning
			h.emitEvent(event)
		}

		resp = &FilterResponse{
			Message:            StatusSuccess,
			FilteredData:       result.Records,
			OriginalDataLength: len(req.StockScreenerData),
			FilteredDataLength: len(result.Records),
			Warnings:           result.Warnings,
		}
		return len(result.Records), nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Sort advances the request sort state and reorders the current set.
func (h *Host) Sort(ctx context.Context, req *SortRequest) (*SortResponse, error) {
	input := len(req.FilteredData)
	if input == 0 {
		input = len(req.RawData)
	}

	var resp *SortResponse
	err := h.run(ctx, UnitSort, input, func(string) (int, error) {
		result := h.controller.Sort(req.RawData, req.FilteredData, req.SortOrders)
		resp = &SortResponse{
			Message:    StatusSuccess,
			SortedData: nonNil(result.Data),
			SortOrders: result.State,
		}
		return len(result.Data), nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Search matches the request query against the records.
func (h *Host) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var resp *SearchResponse
	err := h.run(ctx, UnitSearch, len(req.RawData), func(string) (int, error) {
		output := h.matcher.Search(req.RawData, req.InputValue)
		resp = &SearchResponse{Message: StatusSuccess, Output: output}
		return len(output), nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Handle decodes an envelope, dispatches it to its unit and encodes the
// reply envelope. Malformed messages are answered with an error payload.
// When the request is not admitted the error is returned together with an
// encoded error reply.
func (h *Host) Handle(ctx context.Context, data []byte) ([]byte, error) {
	var env Envelope
	if err := Unmarshal(data, &env); err != nil {
		h.logger.Warn("Discarding malformed message", zap.Error(err))
		return h.reply(env, ErrorResponse{Message: StatusError, Error: fmt.Sprintf("malformed message: %v", err)}), nil
	}

	payload, err := h.dispatch(ctx, env)
	if err != nil {
		return h.reply(env, ErrorResponse{Message: StatusError, Error: err.Error()}), err
	}
	return h.reply(env, payload), nil
}

// Post handles the message on its own goroutine. The returned channel
// receives exactly one reply and is then closed.
func (h *Host) Post(ctx context.Context, data []byte) <-chan []byte {
	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		reply, err := h.Handle(ctx, data)
		if err != nil {
			h.logger.Warn("Request not admitted", zap.Error(err))
		}
		out <- reply
	}()
	return out
}

func (h *Host) dispatch(ctx context.Context, env Envelope) (any, error) {
	decodeFailure := func(err error) (any, error) {
		h.logger.Warn("Discarding malformed payload", zap.String("unit", string(env.Unit)), zap.Error(err))
		return ErrorResponse{Message: StatusError, Error: fmt.Sprintf("malformed %s payload: %v", env.Unit, err)}, nil
	}

	switch env.Unit {
	case UnitFilter:
		var req FilterRequest
		if err := Unmarshal(env.Payload, &req); err != nil {
			return decodeFailure(err)
		}
		return h.Filter(ctx, &req)
	case UnitSort:
		var req SortRequest
		if err := Unmarshal(env.Payload, &req); err != nil {
			return decodeFailure(err)
		}
		return h.Sort(ctx, &req)
	case UnitSearch:
		var req SearchRequest
		if err := Unmarshal(env.Payload, &req); err != nil {
			return decodeFailure(err)
		}
		return h.Search(ctx, &req)
	default:
		h.logger.Warn("Discarding message for unknown unit", zap.String("unit", string(env.Unit)))
		return ErrorResponse{Message: StatusError, Error: fmt.Sprintf("unknown unit %q", env.Unit)}, nil
	}
}

// reply wraps payload in an envelope addressed like the request.
func (h *Host) reply(env Envelope, payload any) []byte {
	body, err := Marshal(payload)
	if err == nil {
		var out []byte
		if out, err = Marshal(Envelope{Unit: env.Unit, ID: env.ID, Payload: body}); err == nil {
			return out
		}
	}
	h.logger.Error("Failed to encode reply", zap.String("unit", string(env.Unit)), zap.Error(err))
	out, _ := Marshal(Envelope{
		Unit:    env.Unit,
		ID:      env.ID,
		Payload: []byte(`{"message":"error","error":"reply could not be encoded"}`),
	})
	return out
}

// run wraps a unit computation with admission, lifecycle events and
// metrics. fn reports the output size and the failure, if any, the response
// describes. Only a failed admission is returned.
func (h *Host) run(ctx context.Context, unit Unit, input int, fn func(requestID string) (int, error)) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		h.metrics.ObserveRequest(string(unit), metrics.OutcomeRejected, 0)
		return fmt.Errorf("%s request not admitted: %w", unit, err)
	}
	defer h.sem.Release(1)

	requestID := uuid.New().String()
	startTime := time.Now()
	h.emitEvent(createEvent(RequestStart, requestID, unit, input, nil, nil, time.Time{}))

	output, err := fn(requestID)
	if err != nil {
		errStr := err.Error()
		h.emitEvent(createEvent(RequestFailed, requestID, unit, input, nil, &errStr, startTime))
		h.metrics.ObserveRequest(string(unit), metrics.OutcomeError, time.Since(startTime))
		return nil
	}

	h.emitEvent(createEvent(RequestSuccess, requestID, unit, input, &output, nil, startTime))
	h.metrics.ObserveRequest(string(unit), metrics.OutcomeSuccess, time.Since(startTime))
	return nil
}

func (h *Host) emitEvent(event Event) {
	if h.bus != nil {
		h.bus.Emit(string(event.Type), event)
	}
}

// RegisterSubscription registers a callback for a host event. It returns a
// unique ID that can be used to unregister the subscription later.
func (h *Host) RegisterSubscription(options RegisterSubscriptionOptions) string {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	unsubscribe := h.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	h.subscriptions[id] = &SubscriptionInfo{
		Id:          &id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	return id
}

// UnregisterSubscription removes a subscription by its ID.
func (h *Host) UnregisterSubscription(id string) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	if info, ok := h.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(h.subscriptions, id)
	}
}

// Subscriptions returns all currently active subscriptions.
func (h *Host) Subscriptions() []SubscriptionInfo {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(h.subscriptions))
	for _, sub := range h.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}

// Close removes every subscription.
func (h *Host) Close() {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	for id, info := range h.subscriptions {
		info.Unsubscribe()
		delete(h.subscriptions, id)
	}
}
