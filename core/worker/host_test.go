package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/record"
	"github.com/asaidimu/go-sieve/core/sorting"
	"github.com/asaidimu/go-sieve/metrics"
	"github.com/asaidimu/go-sieve/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func screener() []record.Record {
	return []record.Record{
		{"symbol": "AAPL", "name": "Apple Inc", "price": 100.0, "marketCap": 1e9},
		{"symbol": "F", "name": "Ford Motor", "price": 20.0, "marketCap": 5e9},
		{"symbol": "MSFT", "name": "Microsoft Corp", "price": 60.0, "marketCap": 3e9},
	}
}

func symbols(records []record.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		s, _ := r.Get("symbol").Text()
		out = append(out, s)
	}
	return out
}

func newHost(t *testing.T, options *HostOptions) *Host {
	t.Helper()
	h, err := NewHost(zap.NewNop(), options)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

// recorder collects events delivered by the bus.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) callback(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestNewHost(t *testing.T) {
	_, err := NewHost(nil, &HostOptions{MaxInFlight: 0})
	assert.Error(t, err)

	h, err := NewHost(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, h.Controller())
}

func TestHost_Filter(t *testing.T) {
	h := newHost(t, nil)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		resp, err := h.Filter(ctx, &FilterRequest{
			StockScreenerData: screener(),
			RuleOfList:        []filter.Rule{{Name: "price", Condition: filter.ConditionOver, Value: 50}},
		})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, resp.Message)
		assert.Equal(t, []string{"MSFT", "AAPL"}, symbols(resp.FilteredData))
		assert.Equal(t, 3, resp.OriginalDataLength)
		assert.Equal(t, 2, resp.FilteredDataLength)
		assert.Empty(t, resp.Warnings)
	})

	t.Run("No rules is identity", func(t *testing.T) {
		data := screener()
		resp, err := h.Filter(ctx, &FilterRequest{StockScreenerData: data})
		require.NoError(t, err)
		assert.Equal(t, data, resp.FilteredData)
	})

	t.Run("Invalid rule answers with the original data", func(t *testing.T) {
		data := screener()
		resp, err := h.Filter(ctx, &FilterRequest{
			StockScreenerData: data,
			RuleOfList:        []filter.Rule{{Condition: filter.ConditionOver, Value: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, StatusError, resp.Message)
		assert.Equal(t, data, resp.OriginalData)
		assert.Contains(t, resp.Error, "invalid filter rule")
	})
}

func TestHost_Sort(t *testing.T) {
	h := newHost(t, nil)
	h.Controller().RegisterExtractor("marketCap", func(r record.Record) sorting.Key {
		f, _ := r.Get("marketCap").Float()
		return sorting.NumberKey(f)
	})

	resp, err := h.Sort(context.Background(), &SortRequest{
		RawData:    screener(),
		SortOrders: sorting.State{"marketCap": sorting.OrderAsc, "symbol": sorting.OrderNone},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Message)
	assert.Equal(t, []string{"F", "MSFT", "AAPL"}, symbols(resp.SortedData))
	assert.Equal(t, sorting.State{"marketCap": sorting.OrderDesc, "symbol": sorting.OrderNone}, resp.SortOrders)
}

func TestHost_Search(t *testing.T) {
	h := newHost(t, nil)

	resp, err := h.Search(context.Background(), &SearchRequest{RawData: screener(), InputValue: "aap"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols(resp.Output))

	resp, err = h.Search(context.Background(), &SearchRequest{RawData: screener()})
	require.NoError(t, err)
	assert.NotNil(t, resp.Output)
	assert.Empty(t, resp.Output)
}

func TestHost_Admission(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := newHost(t, &HostOptions{MaxInFlight: 1, Metrics: m})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	_, err := h.Search(ctx, &SearchRequest{RawData: screener(), InputValue: "aap"})
	h.sem.Release(1)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = h.Search(context.Background(), &SearchRequest{RawData: screener(), InputValue: "aap"})
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "sieve_unit_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one rejected and one successful series")
}

func TestHost_Events(t *testing.T) {
	h := newHost(t, nil)
	rec := &recorder{}

	ids := []string{
		h.RegisterSubscription(RegisterSubscriptionOptions{Event: RequestStart, Label: utils.StringPtr("starts"), Callback: rec.callback}),
		h.RegisterSubscription(RegisterSubscriptionOptions{Event: RequestSuccess, Callback: rec.callback}),
		h.RegisterSubscription(RegisterSubscriptionOptions{Event: RequestFailed, Callback: rec.callback}),
		h.RegisterSubscription(RegisterSubscriptionOptions{Event: RuleWarning, Callback: rec.callback}),
	}
	assert.Len(t, h.Subscriptions(), 4)
	assert.NotEqual(t, ids[0], ids[1])

	_, err := h.Filter(context.Background(), &FilterRequest{
		StockScreenerData: screener(),
		RuleOfList:        []filter.Rule{{Name: "price", Condition: "sideways", Value: 1}},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)

	byType := map[EventType]Event{}
	for _, e := range rec.snapshot() {
		byType[e.Type] = e
	}
	require.Contains(t, byType, RequestStart)
	require.Contains(t, byType, RequestSuccess)
	require.Contains(t, byType, RuleWarning)

	start, success, warning := byType[RequestStart], byType[RequestSuccess], byType[RuleWarning]
	assert.NotEmpty(t, start.RequestID)
	assert.Equal(t, start.RequestID, success.RequestID)
	assert.Equal(t, start.RequestID, warning.RequestID)
	assert.Equal(t, UnitFilter, success.Unit)
	assert.Equal(t, 3, success.InputCount)
	require.NotNil(t, success.OutputCount)
	assert.Equal(t, 3, *success.OutputCount)
	require.NotNil(t, warning.Warning)
	assert.Equal(t, filter.WarningUnknownCondition, warning.Warning.Code)

	for _, id := range ids {
		h.UnregisterSubscription(id)
	}
	assert.Empty(t, h.Subscriptions())
}
