package search

import (
	"testing"

	"github.com/asaidimu/go-sieve/core/record"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"Identical", "apple", "apple", 1},
		{"Whitespace ignored", "apple inc", "appleinc", 1},
		{"Single character", "a", "ab", 0},
		{"Empty", "", "ab", 0},
		{"Partial overlap", "aple", "apple", 6.0 / 7.0},
		{"Repeated bigrams counted once each", "aa", "aaa", 2.0 / 3.0},
		{"Little overlap", "night", "nacht", 0.25},
		{"Disjoint", "xyz", "apple", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Similarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.expected, Similarity(tt.b, tt.a), 1e-9)
		})
	}
}

func candidates() []record.Record {
	return []record.Record{
		{"name": "Apple Inc", "symbol": "AAPL"},
		{"name": "Microsoft Corp", "symbol": "MSFT"},
		{"name": "Tesla", "symbol": "TSLA"},
		{"name": 42},
	}
}

func TestMatcher_Search(t *testing.T) {
	m := NewMatcher(zap.NewNop(), nil)
	data := candidates()

	t.Run("Substring on symbol", func(t *testing.T) {
		assert.Equal(t, data[:1], m.Search(data, "aap"))
	})

	t.Run("Query is case insensitive", func(t *testing.T) {
		assert.Equal(t, data[:1], m.Search(data, "APPLE"))
	})

	t.Run("Fuzzy fallback", func(t *testing.T) {
		assert.Equal(t, data[2:3], m.Search(data, "teslx"))
	})

	t.Run("Order is preserved", func(t *testing.T) {
		res := m.Search(data, "s")
		assert.Equal(t, []record.Record{data[1], data[2]}, res)
	})

	t.Run("No match is empty", func(t *testing.T) {
		res := m.Search(data, "xyz")
		assert.NotNil(t, res)
		assert.Empty(t, res)
	})

	t.Run("Empty query", func(t *testing.T) {
		res := m.Search(data, "")
		assert.NotNil(t, res)
		assert.Empty(t, res)
	})

	t.Run("Empty candidates", func(t *testing.T) {
		assert.Empty(t, m.Search(nil, "aapl"))
	})
}

func TestMatcher_Threshold(t *testing.T) {
	data := []record.Record{{"name": "abc"}}

	m := NewMatcher(nil, nil)
	assert.Equal(t, DefaultThreshold, m.Threshold())
	assert.Empty(t, m.Search(data, "abd"), "a score equal to the threshold does not match")
	assert.Len(t, m.Search(data, "abcd"), 1)

	strict := NewMatcher(nil, &MatcherOptions{Threshold: 0.8})
	assert.Empty(t, strict.Search(candidates(), "teslx"))
}
