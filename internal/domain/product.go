package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryFood    Category = "FOOD"
	CategoryNonFood Category = "NONFOOD"
)

// Categories lists every category a margin table must cover.
func Categories() []Category {
	return []Category{CategoryFood, CategoryNonFood}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CategoryFood, CategoryNonFood:
		return c, nil
	default:
		return "", fmt.Errorf("category[%s] is not valid", s)
	}
}

// Product is a catalog entry. Two products are the same entity iff their IDs match.
type Product struct {
	ID           uuid.UUID
	Name         string
	DeliveryCost Money
	Price        Money
	Expiry       *Date
	Category     Category
}

func (p Product) SameAs(other Product) bool {
	return p.ID == other.ID
}

// IsExpired reports whether the expiry is strictly before asOf.
func (p Product) IsExpired(asOf Date) bool {
	return p.Expiry != nil && p.Expiry.Before(asOf)
}

// IsNearExpiry is false for products without expiry and for expired products.
func (p Product) IsNearExpiry(asOf Date, thresholdDays int) bool {
	if p.Expiry == nil {
		return false
	}
	days := asOf.DaysUntil(*p.Expiry)
	return days >= 0 && days <= thresholdDays
}

// Validate checks catalog-definition constraints.
func (p Product) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("product ID is empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product[%s] name is empty", p.ID)
	}
	if p.DeliveryCost.IsNegative() {
		return fmt.Errorf("product[%s] delivery cost is negative", p.ID)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product[%s] price is negative", p.ID)
	}
	if !p.Price.IsZero() && p.DeliveryCost.Currency != p.Price.Currency {
		return fmt.Errorf("product[%s]: %w", p.ID, ErrCurrencyMismatch)
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return fmt.Errorf("product[%s]: %w", p.ID, err)
	}
	return nil
}

// Clone returns a copy that shares no pointers with p.
func (p Product) Clone() Product {
	if p.Expiry != nil {
		e := *p.Expiry
		p.Expiry = &e
	}
	return p
}
