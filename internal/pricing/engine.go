// Package pricing derives sale prices from delivery cost, category margin
// and expiry proximity.
package pricing

import (
	"fmt"

	"github.com/nikolayk812/store-checkout/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MarginTable maps a category to its margin percentage.
type MarginTable map[domain.Category]decimal.Decimal

// NewMarginTable copies margins and fails on the first category without an entry.
func NewMarginTable(margins map[domain.Category]decimal.Decimal) (MarginTable, error) {
	table := make(MarginTable, len(margins))
	for c, m := range margins {
		table[c] = m
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate requires a non-negative margin for every known category.
func (t MarginTable) Validate() error {
	for _, c := range domain.Categories() {
		m, ok := t[c]
		if !ok {
			return &domain.MissingMarginConfigError{Category: c}
		}
		if m.IsNegative() {
			return fmt.Errorf("margin[%s]=%s is negative", c, m)
		}
	}
	return nil
}

func (t MarginTable) Margin(c domain.Category) (decimal.Decimal, error) {
	m, ok := t[c]
	if !ok {
		return decimal.Decimal{}, &domain.MissingMarginConfigError{Category: c}
	}
	return m, nil
}

func (t MarginTable) DeliveryPrice(p domain.Product) (domain.Money, error) {
	return PriceWithMargin(p, t)
}

// PriceWithMargin returns deliveryCost * (1 + margin/100) rounded half-up to 2 places.
func PriceWithMargin(p domain.Product, table MarginTable) (domain.Money, error) {
	margin, err := table.Margin(p.Category)
	if err != nil {
		return domain.Money{}, err
	}

	factor := decimal.NewFromInt(1).Add(margin.Div(hundred))
	price := domain.Money{
		Amount:   p.DeliveryCost.Amount.Mul(factor),
		Currency: p.DeliveryCost.Currency,
	}

	return price.RoundHalfUp(domain.MoneyPlaces), nil
}

// ExpiryDiscount reduces the stored price by discountPercent when the product
// expires within thresholdDays of asOf. The result is exact, not rounded.
func ExpiryDiscount(p domain.Product, thresholdDays int, discountPercent decimal.Decimal, asOf domain.Date) domain.Money {
	if !p.IsNearExpiry(asOf, thresholdDays) {
		return p.Price
	}

	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	return domain.Money{
		Amount:   p.Price.Amount.Mul(factor),
		Currency: p.Price.Currency,
	}
}

// NearExpiryPolicy configures the expiry-proximity discount.
type NearExpiryPolicy struct {
	ThresholdDays   int
	DiscountPercent decimal.Decimal
}

func (p NearExpiryPolicy) Validate() error {
	if p.ThresholdDays < 0 {
		return fmt.Errorf("near-expiry threshold[%d] is negative", p.ThresholdDays)
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		return fmt.Errorf("near-expiry discount[%s] must be within 0..100", p.DiscountPercent)
	}
	return nil
}

// Engine bundles the margin table with the near-expiry policy.
type Engine struct {
	margins    MarginTable
	nearExpiry NearExpiryPolicy
}

func NewEngine(margins MarginTable, nearExpiry NearExpiryPolicy) (*Engine, error) {
	if err := margins.Validate(); err != nil {
		return nil, fmt.Errorf("margins.Validate: %w", err)
	}
	if err := nearExpiry.Validate(); err != nil {
		return nil, fmt.Errorf("nearExpiry.Validate: %w", err)
	}

	return &Engine{margins: margins, nearExpiry: nearExpiry}, nil
}

func (e *Engine) Margins() MarginTable { return e.margins }

// DeliveryPrice is the price fixed on the catalog entry at delivery time.
func (e *Engine) DeliveryPrice(p domain.Product) (domain.Money, error) {
	return PriceWithMargin(p, e.margins)
}

// SalePrice is the unit price charged at checkout on asOf.
func (e *Engine) SalePrice(p domain.Product, asOf domain.Date) domain.Money {
	return ExpiryDiscount(p, e.nearExpiry.ThresholdDays, e.nearExpiry.DiscountPercent, asOf)
}

func (e *Engine) IsNearExpiry(p domain.Product, asOf domain.Date) bool {
	return p.IsNearExpiry(asOf, e.nearExpiry.ThresholdDays)
}
