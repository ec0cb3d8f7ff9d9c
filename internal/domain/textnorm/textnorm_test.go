package textnorm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"collapses spaces", "  Mohammed   Ali ", "mohammed ali"},
		{"strips latin accents", "José Müller", "jose muller"},
		{"strips arabic harakat", "مُحَمَّد", "محمد"},
		{"tabs and newlines", "Ali\t\nHassan", "ali hassan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ABC123", Key(" abc 123 "))
	assert.Equal(t, "ABC123", Key("ABC123"))
	assert.Equal(t, "", Key(""))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold("ALI HASSAN", "ali  hassan"))
	assert.False(t, EqualFold("Ali Hassan", "Ali Hasan"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"float", 100.5, 100.5, true},
		{"int", 42, 42, true},
		{"int64", int64(7), 7, true},
		{"json number", json.Number("12.25"), 12.25, true},
		{"plain string", "100.50", 100.5, true},
		{"thousands separator", "1,234.50", 1234.5, true},
		{"currency symbol", "$ 99.99", 99.99, true},
		{"currency code", "USD 300", 300, true},
		{"negative", "-15", -15, true},
		{"accounting negative", "(250.00)", -250, true},
		{"arabic indic digits", "٣٠٠", 300, true},
		{"empty string", "", 0, false},
		{"garbage", "n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "ABC", String("  ABC "))
	assert.Equal(t, "300", String(300.0))
	assert.Equal(t, "100.5", String(100.5))
	assert.Equal(t, "12", String(12))
	assert.Equal(t, "true", String(true))
}
