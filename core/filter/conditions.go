package filter

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-sieve/core/record"
)

// Direction is the sense of a field-versus-field comparison.
type Direction int

const (
	Above Direction = iota + 1
	Below
)

// Comparison is one derived indicator condition, such as price above the
// 50 day EMA. The set of valid comparisons is closed and generated below.
type Comparison struct {
	Field     string
	Against   string
	Direction Direction
}

// Eval compares the two fields of r. A missing or non-numeric side fails.
func (c Comparison) Eval(r record.Record) bool {
	a, ok := r.Get(c.Field).Float()
	if !ok {
		return false
	}
	b, ok := r.Get(c.Against).Float()
	if !ok {
		return false
	}
	if c.Direction == Above {
		return a > b
	}
	return a < b
}

// Label returns the UI label the comparison is known by.
func (c Comparison) Label() string {
	return comparisonLabels[c]
}

var (
	movingAveragePeriods = []int{20, 50, 100, 200}
	movingAverageKinds   = []string{"ema", "sma"}

	comparisonsByLabel = map[string]Comparison{}
	comparisonLabels   = map[Comparison]string{}
)

// movingAverageFields are the lowercase rule names routed to the
// comparison table rather than to a numeric check.
var movingAverageFields = map[string]struct{}{
	"grahamnumber":   {},
	"lynchfairvalue": {},
}

func init() {
	for _, kind := range movingAverageKinds {
		upper := strings.ToUpper(kind)
		for _, p := range movingAveragePeriods {
			field := fmt.Sprintf("%s%d", kind, p)
			movingAverageFields[field] = struct{}{}
			register(fmt.Sprintf("Price above %s%d", upper, p), Comparison{"price", field, Above})
			register(fmt.Sprintf("Price below %s%d", upper, p), Comparison{"price", field, Below})
		}
		for i, p1 := range movingAveragePeriods {
			for j, p2 := range movingAveragePeriods {
				if i == j {
					continue
				}
				register(
					fmt.Sprintf("%s%d above %s%d", upper, p1, upper, p2),
					Comparison{fmt.Sprintf("%s%d", kind, p1), fmt.Sprintf("%s%d", kind, p2), Above},
				)
			}
		}
	}

	register("Price > Graham Number", Comparison{"price", "grahamNumber", Above})
	register("Price < Graham Number", Comparison{"price", "grahamNumber", Below})
	register("Price > Lynch Fair Value", Comparison{"price", "lynchFairValue", Above})
	register("Price < Lynch Fair Value", Comparison{"price", "lynchFairValue", Below})
}

func register(label string, c Comparison) {
	comparisonsByLabel[label] = c
	comparisonLabels[c] = label
}

// ParseComparison resolves a UI label to its comparison.
func ParseComparison(label string) (Comparison, bool) {
	c, ok := comparisonsByLabel[label]
	return c, ok
}

// Comparisons returns every known comparison keyed by label.
func Comparisons() map[string]Comparison {
	out := make(map[string]Comparison, len(comparisonsByLabel))
	for k, v := range comparisonsByLabel {
		out[k] = v
	}
	return out
}

// IsMovingAverageField reports whether the lowercase rule name selects the
// comparison table.
func IsMovingAverageField(name string) bool {
	_, ok := movingAverageFields[name]
	return ok
}
