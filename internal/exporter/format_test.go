package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"zero", 0, "$0.00"},
		{"thousands", 1234.5, "$1,234.50"},
		{"millions", 1234567.891, "$1,234,567.89"},
		{"negative", -42.1, "-$42.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.value))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+50.0%", FormatPercent(50))
	assert.Equal(t, "-12.3%", FormatPercent(-12.34))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "13.4", formatFloat(13.4))
	assert.Equal(t, "200", formatFloat(200))
	assert.Equal(t, "", formatFloat(math.NaN()))
}
