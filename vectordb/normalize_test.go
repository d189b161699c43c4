package vectordb

import "testing"

func TestNormalizeInt(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected int
	}{
		{name: "int64", raw: int64(7), expected: 7},
		{name: "int32", raw: int32(8), expected: 8},
		{name: "float64", raw: float64(9), expected: 9},
		{name: "numeric string", raw: "10", expected: 10},
		{name: "padded string", raw: " 11 ", expected: 11},
		{name: "garbage string", raw: "seven", expected: 0},
		{name: "nil", raw: nil, expected: 0},
		{name: "unsupported type", raw: []int{1}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeInt(tt.raw); got != tt.expected {
				t.Errorf("normalizeInt(%v): expected %d, got %d", tt.raw, tt.expected, got)
			}
		})
	}
}

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected string
	}{
		{name: "string", raw: " Fractions ", expected: "Fractions"},
		{name: "bytes", raw: []byte("chapter"), expected: "chapter"},
		{name: "nil", raw: nil, expected: ""},
		{name: "number", raw: int64(5), expected: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeString(tt.raw); got != tt.expected {
				t.Errorf("normalizeString(%v): expected %q, got %q", tt.raw, tt.expected, got)
			}
		})
	}
}
