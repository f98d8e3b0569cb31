package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity is an exact amount of stock. Weighed goods may be fractional.
type Quantity struct {
	d decimal.Decimal
}

var (
	ZeroQuantity = Quantity{d: decimal.Zero}
	OneQuantity  = Quantity{d: decimal.NewFromInt(1)}
)

func NewQuantity(d decimal.Decimal) Quantity {
	return Quantity{d: d}
}

func QuantityFromInt(n int64) Quantity {
	return Quantity{d: decimal.NewFromInt(n)}
}

func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("decimal.NewFromString[%s]: %w", s, err)
	}
	return Quantity{d: d}, nil
}

func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Decimal() decimal.Decimal { return q.d }

func (q Quantity) Add(other Quantity) Quantity { return Quantity{d: q.d.Add(other.d)} }

func (q Quantity) Sub(other Quantity) Quantity { return Quantity{d: q.d.Sub(other.d)} }

func (q Quantity) Cmp(other Quantity) int { return q.d.Cmp(other.d) }

func (q Quantity) LessThan(other Quantity) bool { return q.d.LessThan(other.d) }

func (q Quantity) Equal(other Quantity) bool { return q.d.Equal(other.d) }

func (q Quantity) IsPositive() bool { return q.d.IsPositive() }

func (q Quantity) IsNegative() bool { return q.d.IsNegative() }

func (q Quantity) IsZero() bool { return q.d.IsZero() }

func (q Quantity) String() string { return q.d.String() }

// Positive returns ErrInvalidQuantity unless q > 0.
func (q Quantity) Positive() error {
	if !q.IsPositive() {
		return fmt.Errorf("quantity[%s]: %w", q, ErrInvalidQuantity)
	}
	return nil
}
