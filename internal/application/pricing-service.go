package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sellora/marketplace-service/internal/domain"
)

// FallbackSeller buckets line items that carry no seller attribution.
const FallbackSeller = "_none"

// QuoteItem is a line item as submitted for a tax/shipping quote. Subtotals
// are always recomputed from price and quantity, never taken from input.
type QuoteItem struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Seller    string          `json:"seller,omitempty"`
}

type TaxLine struct {
	Seller  string          `json:"seller"`
	Taxable decimal.Decimal `json:"taxable"`
	Percent decimal.Decimal `json:"percent"`
	Tax     decimal.Decimal `json:"tax"`
}

type ShippingLine struct {
	Seller string          `json:"seller"`
	Amount decimal.Decimal `json:"amount"`
}

type PricingService struct {
	rates RateResolver
}

func NewPricingService(rates RateResolver) *PricingService {
	return &PricingService{rates: rates}
}

func validateQuote(country string, items []QuoteItem) error {
	if country == "" {
		return domain.Validationf("country is required")
	}
	if len(items) == 0 {
		return domain.Validationf("items must not be empty")
	}
	for i, it := range items {
		if it.Quantity <= 0 {
			return domain.Validationf("item %d: quantity must be positive", i)
		}
		if it.Price.IsNegative() {
			return domain.Validationf("item %d: price must not be negative", i)
		}
	}
	return nil
}

// QuoteTax computes the aggregate tax: per-seller taxable bases at each
// seller's effective percent, then the order-level discount applied
// proportionally to the whole taxable base. Rounding happens once, at the
// end, so per-seller rounding error cannot compound.
func (s *PricingService) QuoteTax(ctx context.Context, country string, items []QuoteItem, discount decimal.Decimal) (decimal.Decimal, []TaxLine, error) {
	if err := validateQuote(country, items); err != nil {
		return decimal.Zero, nil, err
	}
	if discount.IsNegative() {
		return decimal.Zero, nil, domain.Validationf("discount must not be negative")
	}

	buckets, order := groupBySeller(items)

	var (
		lines         []TaxLine
		rawTax        decimal.Decimal
		itemsSubtotal decimal.Decimal
	)
	for _, seller := range order {
		taxable := decimal.Zero
		for _, it := range buckets[seller] {
			taxable = taxable.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		itemsSubtotal = itemsSubtotal.Add(taxable)

		percent, err := s.rates.Resolve(ctx, domain.RateTax, country, resolvableSeller(seller))
		if err != nil {
			return decimal.Zero, nil, err
		}
		tax := taxable.Mul(percent).Div(decimal.NewFromInt(100))
		rawTax = rawTax.Add(tax)
		// The aggregate keeps accumulating unrounded values; the breakdown
		// is presentation and carries rounded money figures.
		lines = append(lines, TaxLine{Seller: seller, Taxable: taxable.Round(2), Percent: percent, Tax: tax.Round(2)})
	}

	// Discount scales the aggregate: factor 1 on an empty base avoids a
	// division by zero.
	factor := decimal.NewFromInt(1)
	if itemsSubtotal.IsPositive() {
		effective := itemsSubtotal.Sub(discount)
		if effective.IsNegative() {
			effective = decimal.Zero
		}
		factor = effective.Div(itemsSubtotal)
	}

	return rawTax.Mul(factor).Round(2), lines, nil
}

// QuoteShipping charges each attributed seller's shipping once; shipping is
// additive per seller, not proportional. A cart with no attributed sellers
// yields exactly one fallback line so shipping is never double-charged when
// seller data is unavailable.
func (s *PricingService) QuoteShipping(ctx context.Context, country string, items []QuoteItem) ([]ShippingLine, decimal.Decimal, error) {
	if err := validateQuote(country, items); err != nil {
		return nil, decimal.Zero, err
	}

	sellers := distinctSellers(items)
	if len(sellers) == 0 {
		amount, err := s.rates.Resolve(ctx, domain.RateShipping, country, "")
		if err != nil {
			return nil, decimal.Zero, err
		}
		amount = amount.Round(2)
		return []ShippingLine{{Seller: FallbackSeller, Amount: amount}}, amount, nil
	}

	var (
		lines []ShippingLine
		total decimal.Decimal
	)
	for _, seller := range sellers {
		amount, err := s.rates.Resolve(ctx, domain.RateShipping, country, seller)
		if err != nil {
			return nil, decimal.Zero, err
		}
		amount = amount.Round(2)
		lines = append(lines, ShippingLine{Seller: seller, Amount: amount})
		total = total.Add(amount)
	}
	return lines, total, nil
}

// Summary produces the final order summary for checkout.
// total = max(0, itemsSubtotal + shipping - discount + tax).
func (s *PricingService) Summary(ctx context.Context, country string, items []QuoteItem, discount decimal.Decimal) (domain.OrderSummary, error) {
	tax, _, err := s.QuoteTax(ctx, country, items, discount)
	if err != nil {
		return domain.OrderSummary{}, err
	}
	_, shipping, err := s.QuoteShipping(ctx, country, items)
	if err != nil {
		return domain.OrderSummary{}, err
	}

	itemsSubtotal := decimal.Zero
	for _, it := range items {
		itemsSubtotal = itemsSubtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	itemsSubtotal = itemsSubtotal.Round(2)

	total := itemsSubtotal.Add(shipping).Sub(discount).Add(tax)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return domain.OrderSummary{
		ItemsSubtotal: itemsSubtotal,
		Shipping:      shipping,
		Discount:      discount.Round(2),
		Tax:           tax,
		Total:         total.Round(2),
	}, nil
}

func groupBySeller(items []QuoteItem) (map[string][]QuoteItem, []string) {
	buckets := make(map[string][]QuoteItem)
	var order []string
	for _, it := range items {
		seller := it.Seller
		if seller == "" {
			seller = FallbackSeller
		}
		if _, ok := buckets[seller]; !ok {
			order = append(order, seller)
		}
		buckets[seller] = append(buckets[seller], it)
	}
	return buckets, order
}

func distinctSellers(items []QuoteItem) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		if it.Seller == "" {
			continue
		}
		if _, ok := seen[it.Seller]; ok {
			continue
		}
		seen[it.Seller] = struct{}{}
		out = append(out, it.Seller)
	}
	return out
}

// resolvableSeller maps the fallback bucket back to "no seller" for rate
// resolution, which then falls through to the platform rate or floor.
func resolvableSeller(seller string) string {
	if seller == FallbackSeller {
		return ""
	}
	return seller
}
