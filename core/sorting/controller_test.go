package sorting

import (
	"testing"

	"github.com/asaidimu/go-sieve/core/record"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func flow() []record.Record {
	return []record.Record{
		{"id": "a", "ticker": "MSFT", "cost_basis": "1200.5", "time": "14:30:00", "sentiment": "bearish", "option_activity_type": "TRADE", "date_expiration": "2024-06-21"},
		{"id": "b", "ticker": "AAPL", "cost_basis": "900", "time": "09:31:10", "sentiment": "Bullish", "option_activity_type": "SWEEP", "date_expiration": "2024-03-15"},
		{"id": "c", "ticker": "NVDA", "cost_basis": "15000", "time": "11:05:00", "sentiment": "NEUTRAL", "option_activity_type": "BLOCK", "date_expiration": "2025-01-17"},
		{"id": "d", "ticker": "AMZN", "time": "bad", "sentiment": "unknown", "date_expiration": "2024-04-19"},
	}
}

func ids(records []record.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r["id"].(string))
	}
	return out
}

func TestOrder_Next(t *testing.T) {
	assert.Equal(t, OrderAsc, OrderNone.Next())
	assert.Equal(t, OrderDesc, OrderAsc.Next())
	assert.Equal(t, OrderNone, OrderDesc.Next())
	assert.Equal(t, OrderNone, Order("sideways").Next())
}

func TestState(t *testing.T) {
	s := State{"size": OrderNone, "premium": OrderAsc, "time": OrderDesc}

	key, ok := s.Active()
	assert.True(t, ok)
	assert.Equal(t, "premium", key)

	next := s.Advance("premium")
	assert.Equal(t, State{"size": OrderNone, "premium": OrderDesc, "time": OrderNone}, next)
	assert.Equal(t, OrderAsc, s["premium"], "input state must not change")

	_, ok = NewState("a", "b").Active()
	assert.False(t, ok)
	assert.Equal(t, State{}, State(nil).Clone())
}

func TestController_Sort(t *testing.T) {
	c := NewController(zap.NewNop())

	t.Run("No active key returns input", func(t *testing.T) {
		raw := flow()
		state := NewState(ColumnPremium, ColumnTime)
		res := c.Sort(raw, nil, state)
		assert.Equal(t, ids(raw), ids(res.Data))
		assert.Equal(t, state, res.State)
	})

	t.Run("Asc advances to desc", func(t *testing.T) {
		res := c.Sort(flow(), nil, State{ColumnPremium: OrderAsc, ColumnTime: OrderNone})
		assert.Equal(t, State{ColumnPremium: OrderDesc, ColumnTime: OrderNone}, res.State)
		assert.Equal(t, []string{"c", "a", "b", "d"}, ids(res.Data))
	})

	t.Run("Desc advances to none and restores order", func(t *testing.T) {
		raw := flow()
		res := c.Sort(raw, nil, State{ColumnPremium: OrderDesc})
		assert.Equal(t, OrderNone, res.State[ColumnPremium])
		assert.Equal(t, ids(raw), ids(res.Data))
	})

	t.Run("Unknown flag counts as active and resets", func(t *testing.T) {
		raw := flow()
		res := c.Sort(raw, nil, State{ColumnPremium: "pending"})
		assert.Equal(t, OrderNone, res.State[ColumnPremium])
		assert.Equal(t, ids(raw), ids(res.Data))
	})

	t.Run("Four cycles return the original order", func(t *testing.T) {
		raw := flow()
		state := State{ColumnPremium: OrderAsc, ColumnTime: OrderNone}

		res := Result{State: state}
		for i := 0; i < 4; i++ {
			res = c.Sort(raw, nil, res.State)
		}
		assert.Equal(t, ids(raw), ids(res.Data))
		assert.Equal(t, OrderNone, res.State[ColumnPremium])
		assert.Equal(t, OrderAsc, state[ColumnPremium], "caller state is a snapshot")
	})

	t.Run("Several active keys pick the first", func(t *testing.T) {
		res := c.Sort(flow(), nil, State{ColumnTime: OrderAsc, ColumnPremium: OrderAsc})
		assert.Equal(t, State{ColumnTime: OrderNone, ColumnPremium: OrderDesc}, res.State)
	})

	t.Run("Filtered data takes precedence", func(t *testing.T) {
		raw := flow()
		res := c.Sort(raw, raw[:2], State{ColumnPremium: OrderAsc})
		assert.Equal(t, []string{"a", "b"}, ids(res.Data))
	})

	t.Run("Input slice is not reordered", func(t *testing.T) {
		raw := flow()
		c.Sort(raw, nil, State{ColumnTicker: OrderAsc})
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(raw))
	})
}

func TestController_Toggle(t *testing.T) {
	c := NewController(nil)
	raw := flow()

	res := c.Toggle(raw, nil, NewState(ColumnTicker, ColumnTime), ColumnTicker)
	assert.Equal(t, OrderAsc, res.State[ColumnTicker])
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(res.Data))

	res = c.Toggle(raw, nil, res.State, ColumnTime)
	assert.Equal(t, OrderNone, res.State[ColumnTicker], "selecting a second key resets the first")
	assert.Equal(t, OrderAsc, res.State[ColumnTime])
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(res.Data))

	res = c.Toggle(raw, nil, res.State, ColumnTime)
	assert.Equal(t, OrderDesc, res.State[ColumnTime])
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(res.Data))

	res = c.Toggle(raw, nil, res.State, ColumnTime)
	assert.Equal(t, OrderNone, res.State[ColumnTime])
	assert.Equal(t, ids(raw), ids(res.Data))
}

func TestController_Columns(t *testing.T) {
	c := NewController(nil)
	ascending := func(column string) []string {
		return ids(c.Toggle(flow(), nil, State{}, column).Data)
	}

	tests := []struct {
		column   string
		expected []string
	}{
		{ColumnPremium, []string{"b", "a", "c", "d"}},
		{ColumnTicker, []string{"b", "d", "a", "c"}},
		{ColumnTime, []string{"b", "c", "a", "d"}},
		{ColumnExpiry, []string{"b", "d", "a", "c"}},
		{ColumnDTE, []string{"b", "d", "a", "c"}},
		{ColumnSentiment, []string{"b", "c", "a", "d"}},
		{ColumnType, []string{"b", "a", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.expected, ascending(tt.column))
		})
	}
}

func TestController_FallbackColumn(t *testing.T) {
	c := NewController(nil)
	raw := []record.Record{{"id": "x", "delta": 0.2}, {"id": "y", "delta": 0.9}, {"id": "z"}}

	res := c.Sort(raw, nil, State{"delta": OrderAsc})
	assert.Equal(t, []string{"y", "x", "z"}, ids(res.Data))
	assert.Equal(t, OrderDesc, res.State["delta"])
}

func TestController_RegisterExtractor(t *testing.T) {
	c := NewController(nil)
	c.RegisterExtractor("rank", func(r record.Record) Key {
		s, _ := r.Get("label").Text()
		return NumberKey(float64(len(s)))
	})

	raw := []record.Record{{"id": "x", "label": "ccc"}, {"id": "y", "label": "a"}, {"id": "z", "label": "bb"}}
	res := c.Toggle(raw, nil, nil, "rank")
	assert.Equal(t, []string{"y", "z", "x"}, ids(res.Data))
}
