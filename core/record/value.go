package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cast"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota // field not present on the record
	KindNull               // field present with a nil value
	KindNumber             // any numeric Go kind, folded to float64
	KindText               // string data, including date-like strings
	KindBool               // true/false
	KindDate               // time.Time values
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged scalar read from a Record or produced by rule
// normalization. The zero Value is Absent.
type Value struct {
	kind Kind
	num  float64
	text string
	flag bool
	at   time.Time
}

func Absent() Value { return Value{kind: KindAbsent} }
func Null() Value { return Value{kind: KindNull} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Text(s string) Value { return Value{kind: KindText, text: s} }
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }
func Date(t time.Time) Value { return Value{kind: KindDate, at: t} }

// Of classifies an arbitrary Go value. Integers, floats and json.Number all
// become Number; anything that is not a recognised scalar is rendered as Text.
func Of(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case bool:
		return Bool(val)
	case string:
		return Text(val)
	case []byte:
		return Text(string(val))
	case time.Time:
		return Date(val)
	case *time.Time:
		if val == nil {
			return Null()
		}
		return Date(*val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Text(val.String())
		}
		return Number(f)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return Number(cast.ToFloat64(val))
	default:
		return Text(fmt.Sprint(val))
	}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsText() bool { return v.kind == KindText }

// IsMissing reports whether the value is Absent or Null.
func (v Value) IsMissing() bool { return v.kind == KindAbsent || v.kind == KindNull }

// IsEmpty reports whether the value is Absent, Null or the empty string.
func (v Value) IsEmpty() bool {
	return v.IsMissing() || (v.kind == KindText && v.text == "")
}

// Float returns the numeric reading of the value. Text is parsed as a whole
// decimal number; other kinds are not numeric.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, !math.IsNaN(v.num)
	case KindText:
		s := strings.TrimSpace(v.text)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text returns the string content when the value is Text.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Bool returns the boolean content when the value is Bool.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Time returns the time content when the value is Date.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.at, true
}

// Equal is strict: values of different kinds are never equal, mirroring an
// identity comparison rather than a coercing one.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindBool:
		return v.flag == o.flag
	case KindDate:
		return v.at.Equal(o.at)
	default:
		return true
	}
}

// Raw returns the plain Go value carried by v, nil for Absent and Null.
func (v Value) Raw() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.text
	case KindBool:
		return v.flag
	case KindDate:
		return v.at
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindDate:
		return v.at.Format(time.RFC3339Nano)
	case KindNull:
		return "null"
	default:
		return ""
	}
}

// MarshalJSON renders the raw value so normalized operands can be logged or
// echoed without exposing the tag.
func (v Value) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(v.Raw())
}
