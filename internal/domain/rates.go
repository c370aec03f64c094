package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RateKind string

const (
	RateTax      RateKind = "tax"
	RateShipping RateKind = "shipping"
)

func ParseRateKind(s string) (RateKind, bool) {
	switch RateKind(s) {
	case RateTax, RateShipping:
		return RateKind(s), true
	}
	return "", false
}

type RateScope string

const (
	ScopePlatform RateScope = "platform"
	ScopeVendor   RateScope = "vendor"
)

// Floor defaults used when neither a vendor nor a platform rate is
// configured for a country.
var (
	FloorShipping = decimal.NewFromInt(5)
	FloorTax      = decimal.Zero
)

// RateSetting holds the full rate set for one (scope, owner, kind) triple.
// Upserts replace Rates wholesale; there is one active row per triple.
type RateSetting struct {
	Scope   RateScope                  `json:"scope"`
	OwnerID string                     `json:"owner_id"`
	Kind    RateKind                   `json:"kind"`
	Rates   map[string]decimal.Decimal `json:"rates"` // country -> percent or amount
	Updated time.Time                  `json:"updated_at"`
}

// ClampRate normalises a configured value: tax percent into [0, 100],
// shipping amounts to non-negative.
func ClampRate(kind RateKind, v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if kind == RateTax && v.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return v
}
