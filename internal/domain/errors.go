package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrExpiredGoods        = errors.New("goods are expired")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrEmptyBasket         = errors.New("basket is empty")
	ErrEmptyReceipt        = errors.New("receipt has no items")
	ErrUnknownProduct      = errors.New("product is not in catalog")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrMissingMarginConfig = errors.New("missing margin config")
	ErrNotFound            = errors.New("not found")
)

// InsufficientStockError reports how much of a product is missing.
// Shortfall equals the full requested quantity when the product was never delivered.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Shortfall Quantity
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s[%s]: short by %s", e.Name, e.ProductID, e.Shortfall)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type InsufficientFundsError struct {
	Required  Money
	Available Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s", e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

type MissingMarginConfigError struct {
	Category Category
}

func (e *MissingMarginConfigError) Error() string {
	return fmt.Sprintf("missing margin config for category %s", e.Category)
}

func (e *MissingMarginConfigError) Is(target error) bool {
	return target == ErrMissingMarginConfig
}
