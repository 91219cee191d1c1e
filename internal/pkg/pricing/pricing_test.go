package pricing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"already two decimals", 24.00, 24.00},
		{"rounds up", 10.005, 10.01},
		{"rounds down", 10.004, 10.00},
		{"long fraction", 33.333333, 33.33},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Round2(tt.input), 0.0001)
		})
	}
}

func TestOrderTotals(t *testing.T) {
	// Three units at 100.00: subtotal 300.00, tax 24.00, total 324.00
	subtotal := LineSubtotal(100.00, 3)
	assert.Equal(t, "300.00", FormatAmount(subtotal))
	assert.Equal(t, "24.00", FormatAmount(Tax(subtotal)))
	assert.Equal(t, "324.00", FormatAmount(Total(subtotal)))
}

func TestTaxRounding(t *testing.T) {
	// 19.99 * 0.08 = 1.5992 which must round to 1.60
	assert.Equal(t, "1.60", FormatAmount(Tax(19.99)))

	// 0.05 * 0.08 = 0.004 which must round to 0.00
	assert.Equal(t, "0.00", FormatAmount(Tax(0.05)))
}

func TestTotalEqualsSubtotalPlusTax(t *testing.T) {
	for _, subtotal := range []float64{0, 0.01, 19.99, 300.00, 12345.67} {
		assert.InDelta(t, Round2(subtotal+Tax(subtotal)), Total(subtotal), 0.0001)
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	n := GenerateOrderNumber()
	require.True(t, strings.HasPrefix(n, "ORD-"))
	assert.GreaterOrEqual(t, len(n), len("ORD-0-0"))
}
