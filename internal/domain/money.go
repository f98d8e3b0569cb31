package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MoneyPlaces is the number of decimal places money is rounded to.
const MoneyPlaces = 2

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func NewMoney(amount string, cur currency.Unit) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("decimal.NewFromString[%s]: %w", amount, err)
	}

	return Money{Amount: d, Currency: cur}, nil
}

func MustMoney(amount string, cur currency.Unit) Money {
	m, err := NewMoney(amount, cur)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney(cur currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: cur}
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Mul multiplies exactly, without rounding.
func (m Money) Mul(qty Quantity) Money {
	return Money{Amount: m.Amount.Mul(qty.Decimal()), Currency: m.Currency}
}

// Cmp compares amounts. Currencies are expected to match.
func (m Money) Cmp(other Money) int {
	return m.Amount.Cmp(other.Amount)
}

func (m Money) LessThan(other Money) bool {
	return m.Amount.LessThan(other.Amount)
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// RoundHalfUp rounds ties away from zero. Margin pricing uses it.
func (m Money) RoundHalfUp(places int32) Money {
	return Money{Amount: m.Amount.Round(places), Currency: m.Currency}
}

// RoundUp rounds away from zero whenever any digit is dropped. Receipt totals use it.
func (m Money) RoundUp(places int32) Money {
	return Money{Amount: m.Amount.RoundUp(places), Currency: m.Currency}
}

// Equal compares amount and currency, ignoring trailing zeros.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return m.Amount.StringFixed(MoneyPlaces) + " " + m.Currency.String()
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%s vs %s: %w", m.Currency, other.Currency, ErrCurrencyMismatch)
	}
	return nil
}
