package filter

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/asaidimu/go-sieve/core/record"
)

var sectors = []string{
	"Basic Materials", "Communication Services", "Consumer Cyclical", "Consumer Defensive",
	"Energy", "Financial Services", "Healthcare", "Industrials", "Real Estate",
	"Technology", "Utilities",
}

var industries = []string{
	"Advertising Agencies", "Aerospace & Defense", "Agricultural Inputs", "Airlines",
	"Apparel Retail", "Asset Management", "Auto Manufacturers", "Auto Parts",
	"Banks - Diversified", "Banks - Regional", "Beverages - Non-Alcoholic", "Biotechnology",
	"Broadcasting", "Building Materials", "Capital Markets", "Chemicals",
	"Communication Equipment", "Computer Hardware", "Conglomerates", "Consumer Electronics",
	"Credit Services", "Discount Stores", "Drug Manufacturers - General",
	"Drug Manufacturers - Specialty & Generic", "Electronic Components", "Engineering & Construction",
	"Entertainment", "Farm Products", "Gold", "Grocery Stores", "Healthcare Plans",
	"Home Improvement Retail", "Household & Personal Products", "Information Technology Services",
	"Insurance - Diversified", "Insurance - Life", "Insurance - Property & Casualty",
	"Internet Content & Information", "Internet Retail", "Leisure", "Lodging",
	"Medical Devices", "Medical Instruments & Supplies", "Oil & Gas E&P", "Oil & Gas Integrated",
	"Oil & Gas Midstream", "Packaged Foods", "Railroads", "Real Estate Services",
	"Reit - Industrial", "Reit - Residential", "Reit - Retail", "Restaurants",
	"Semiconductor Equipment & Materials", "Semiconductors", "Software - Application",
	"Software - Infrastructure", "Specialty Retail", "Steel", "Telecom Services",
	"Tobacco", "Travel Services", "Trucking", "Utilities - Regulated Electric",
}

var countries = []string{
	"United States", "Canada", "Mexico", "Brazil", "Argentina", "United Kingdom",
	"Ireland", "Germany", "France", "Netherlands", "Switzerland", "Sweden", "Denmark",
	"Norway", "Finland", "Spain", "Italy", "Belgium", "Luxembourg", "Israel", "China",
	"Hong Kong", "Taiwan", "Japan", "South Korea", "Singapore", "India", "Australia",
	"Bermuda", "Cayman Islands",
}

// domainTokens holds the lowercase words that must never be read as numbers.
var domainTokens = func() map[string]struct{} {
	words := []string{
		AnyValue,
		"before market open", "after market close",
		"quarterly", "monthly", "annual", "semi-annual",
		"hold", "sell", "buy", "strong buy", "strong sell",
		"compliant", "non-compliant",
		"stock price",
	}
	set := make(map[string]struct{}, len(words)+len(sectors)+len(industries)+len(countries))
	for _, group := range [][]string{words, sectors, industries, countries} {
		for _, w := range group {
			set[strings.ToLower(w)] = struct{}{}
		}
	}
	return set
}()

var (
	unitPattern    = regexp.MustCompile(`^(-?\d+(\.\d+)?)([BMK])?$`)
	unitMultiplier = map[string]float64{"B": 1e9, "M": 1e6, "K": 1e3}
)

// IsDomainToken reports whether s is one of the fixed non-numeric words
// (sector, industry, country, timing, frequency, rating, compliance).
func IsDomainToken(s string) bool {
	_, ok := domainTokens[strings.ToLower(s)]
	return ok
}

// Normalize converts a rule value with unit or percent notation into a
// number. Values that cannot be converted are returned unchanged.
func Normalize(v record.Value) record.Value {
	out, _ := normalize(v)
	return out
}

// normalize reports false when a text value was kept because it could not
// be parsed, so callers can log the fallback.
func normalize(v record.Value) (out record.Value, converted bool) {
	defer func() {
		if r := recover(); r != nil {
			out, converted = v, false
		}
	}()

	s, ok := v.Text()
	if !ok {
		return v, true
	}
	if IsDomainToken(s) {
		return v, true
	}

	if strings.HasSuffix(s, "%") {
		f, ok := record.ParseLeadingFloat(s[:len(s)-1])
		if !ok {
			return v, false
		}
		return record.Number(f), true
	}

	if m := unitPattern.FindStringSubmatch(s); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return v, false
		}
		if mult, ok := unitMultiplier[m[3]]; ok {
			f *= mult
		}
		return record.Number(f), true
	}

	f, ok := record.ParseLeadingFloat(s)
	if !ok {
		return v, false
	}
	return record.Number(f), true
}

// NormalizeOperand normalizes a raw rule value, recursing over slices.
func NormalizeOperand(raw any) Operand {
	items, isList := asList(raw)
	if !isList {
		return Operand{Scalar: Normalize(record.Of(raw))}
	}
	list := make([]record.Value, len(items))
	for i, item := range items {
		list[i] = Normalize(record.Of(item))
	}
	return Operand{List: list, IsList: true}
}

// asList unwraps any slice value other than []byte into its elements.
func asList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
