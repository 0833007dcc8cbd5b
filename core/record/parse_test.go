package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"12", 12, true},
		{"  -3.5", -3.5, true},
		{"12.5%", 12.5, true},
		{".5x", 0.5, true},
		{"1e3", 1000, true},
		{"12abc", 12, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, ok := ParseLeadingFloat(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, f)
			}
		})
	}

	f, ok := ParseLeadingFloat("Infinity")
	assert.True(t, ok)
	assert.True(t, math.IsInf(f, 1))
}

func TestValue_LeadingFloat(t *testing.T) {
	f, ok := Number(4).LeadingFloat()
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)

	f, ok = Text("450.25 USD").LeadingFloat()
	assert.True(t, ok)
	assert.Equal(t, 450.25, f)

	_, ok = Null().LeadingFloat()
	assert.False(t, ok)
}
