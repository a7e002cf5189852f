package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want float64
		ok   bool
	}{
		{name: "plain", cell: "12", want: 12, ok: true},
		{name: "decimal", cell: "250.50", want: 250.5, ok: true},
		{name: "negative", cell: "-3.2", want: -3.2, ok: true},
		{name: "thousands_separator", cell: "1,250.50", want: 1250.5, ok: true},
		{name: "gbp", cell: "£42.10", want: 42.1, ok: true},
		{name: "usd", cell: "$42.10", want: 42.1, ok: true},
		{name: "eur", cell: "€42.10", want: 42.1, ok: true},
		{name: "percent", cell: "12.5%", want: 12.5, ok: true},
		{name: "internal_space", cell: "£ 1 250.50", want: 1250.5, ok: true},
		{name: "whitespace", cell: "  7  ", want: 7, ok: true},
		{name: "empty", cell: "", ok: false},
		{name: "dash_placeholder", cell: "-", ok: false},
		{name: "text", cell: "N/A", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	got, ok := ParseCount("1,204")
	assert.True(t, ok)
	assert.Equal(t, 1204, got)

	got, ok = ParseCount("12.9")
	assert.True(t, ok)
	assert.Equal(t, 12, got)

	_, ok = ParseCount("")
	assert.False(t, ok)
}
