package worker

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Marshal encodes v, deferring to its own MarshalJSON when it has one.
func Marshal(v any) ([]byte, error) {
	if m, ok := v.(json.Marshaler); ok {
		return m.MarshalJSON()
	}
	return sonic.Marshal(v)
}

// Unmarshal decodes data into v, deferring to its own UnmarshalJSON when it
// has one.
func Unmarshal(data []byte, v any) error {
	if m, ok := v.(json.Unmarshaler); ok {
		return m.UnmarshalJSON(data)
	}
	return sonic.Unmarshal(data, v)
}
