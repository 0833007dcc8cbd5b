// Package search matches a free-text query against the name and symbol of
// each record, by substring first and bigram similarity second.
package search

import (
	"strings"

	"github.com/asaidimu/go-sieve/core/record"
	"go.uber.org/zap"
)

// DefaultThreshold is the similarity a field must exceed to match.
const DefaultThreshold = 0.5

// Fields a candidate is matched on.
const (
	NameField   = "name"
	SymbolField = "symbol"
)

// MatcherOptions configures a Matcher.
type MatcherOptions struct {
	Threshold float64 // similarity must be strictly greater to match
}

// DefaultMatcherOptions returns the options used when none are given.
func DefaultMatcherOptions() *MatcherOptions {
	return &MatcherOptions{Threshold: DefaultThreshold}
}

// Matcher is stateless and safe for concurrent use.
type Matcher struct {
	threshold float64
	logger    *zap.Logger
}

// NewMatcher creates a new Matcher instance.
func NewMatcher(logger *zap.Logger, options *MatcherOptions) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultMatcherOptions()
	}
	return &Matcher{threshold: options.Threshold, logger: logger}
}

// Threshold reports the configured similarity threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Search returns the candidates whose name or symbol contains query, or is
// similar enough to it, in input order. An empty query or candidate set
// yields an empty result.
func (m *Matcher) Search(candidates []record.Record, query string) []record.Record {
	out := []record.Record{}
	if len(candidates) == 0 || query == "" {
		return out
	}

	q := strings.ToLower(query)
	fuzzy := 0
	for _, c := range candidates {
		name := lowerText(c, NameField)
		symbol := lowerText(c, SymbolField)

		if strings.Contains(name, q) || strings.Contains(symbol, q) {
			out = append(out, c)
			continue
		}
		if Similarity(name, q) > m.threshold || Similarity(symbol, q) > m.threshold {
			out = append(out, c)
			fuzzy++
		}
	}

	m.logger.Debug("Search completed",
		zap.Int("candidates", len(candidates)), zap.Int("matches", len(out)), zap.Int("fuzzy", fuzzy))
	return out
}

// lowerText reads a text field, treating anything else as empty.
func lowerText(r record.Record, field string) string {
	s, ok := r.Get(field).Text()
	if !ok {
		return ""
	}
	return strings.ToLower(s)
}
