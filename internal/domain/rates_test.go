package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClampRate(t *testing.T) {
	assert.True(t, ClampRate(RateTax, decimal.NewFromInt(-5)).IsZero())
	assert.True(t, ClampRate(RateShipping, decimal.NewFromInt(-1)).IsZero())

	clamped := ClampRate(RateTax, decimal.NewFromInt(150))
	assert.True(t, decimal.NewFromInt(100).Equal(clamped))

	// Shipping has no upper bound.
	big := decimal.NewFromInt(900)
	assert.True(t, big.Equal(ClampRate(RateShipping, big)))

	mid := decimal.NewFromFloat(19.5)
	assert.True(t, mid.Equal(ClampRate(RateTax, mid)))
}

func TestParseRateKind(t *testing.T) {
	got, ok := ParseRateKind("tax")
	assert.True(t, ok)
	assert.Equal(t, RateTax, got)

	got, ok = ParseRateKind("shipping")
	assert.True(t, ok)
	assert.Equal(t, RateShipping, got)

	_, ok = ParseRateKind("customs")
	assert.False(t, ok)
}

func TestParseOrderStatus(t *testing.T) {
	got, ok := ParseOrderStatus("Shipped")
	assert.True(t, ok)
	assert.Equal(t, OrderShipped, got)

	_, ok = ParseOrderStatus("shipped")
	assert.False(t, ok)
	_, ok = ParseOrderStatus("Unknown")
	assert.False(t, ok)
}
