package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTax(t *testing.T) {
	p := Pricing{TaxRatePercent: 21}

	// Two items at 10.00 each: subtotal 20.00, tax 4.20, total 24.20.
	assert.Equal(t, int64(420), p.Tax(2000))
	assert.Equal(t, int64(2420), p.Total(2000))

	assert.Equal(t, int64(0), p.Tax(0))
}

func TestTaxRoundsHalfUp(t *testing.T) {
	p := Pricing{TaxRatePercent: 21}

	// 10 * 0.21 = 2.1 cents, rounds to 2.
	assert.Equal(t, int64(2), p.Tax(10))
	// 50 * 0.21 = 10.5 cents, rounds to 11.
	assert.Equal(t, int64(11), p.Tax(50))
	// 12 * 0.21 = 2.52 cents, rounds to 3.
	assert.Equal(t, int64(3), p.Tax(12))
}

func TestTaxOtherRates(t *testing.T) {
	assert.Equal(t, int64(0), Pricing{TaxRatePercent: 0}.Tax(12345))
	assert.Equal(t, int64(1900), Pricing{TaxRatePercent: 19}.Tax(10000))
}

func TestTotalEqualsSubtotalPlusTax(t *testing.T) {
	p := Pricing{TaxRatePercent: 21}
	for _, subtotal := range []int64{1, 99, 100, 2000, 999999} {
		assert.Equal(t, subtotal+p.Tax(subtotal), p.Total(subtotal))
	}
}
