package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/store-checkout/internal/domain"
)

// Tx exposes ledger primitives to a caller holding the ledger lock.
type Tx struct {
	l *Ledger
}

func (tx *Tx) Product(productID uuid.UUID) (domain.Product, bool) {
	p, ok := tx.l.catalog[productID]
	return p.Clone(), ok
}

func (tx *Tx) OnHand(productID uuid.UUID) (domain.Quantity, bool) {
	q, ok := tx.l.onHand[productID]
	return q, ok
}

func (tx *Tx) HasSufficient(productID uuid.UUID, qty domain.Quantity) bool {
	onHand, ok := tx.l.onHand[productID]
	return ok && !onHand.LessThan(qty)
}

// Shortfall is how much of qty on-hand stock cannot cover; zero when it can.
func (tx *Tx) Shortfall(productID uuid.UUID, qty domain.Quantity) domain.Quantity {
	onHand := tx.l.onHand[productID]
	if !onHand.LessThan(qty) {
		return domain.ZeroQuantity
	}
	return qty.Sub(onHand)
}

func (tx *Tx) Decrement(productID uuid.UUID, qty domain.Quantity) error {
	if err := qty.Positive(); err != nil {
		return err
	}
	if !tx.HasSufficient(productID, qty) {
		p := tx.l.catalog[productID]
		return &domain.InsufficientStockError{
			ProductID: productID,
			Name:      p.Name,
			Shortfall: tx.Shortfall(productID, qty),
		}
	}

	tx.l.onHand[productID] = tx.l.onHand[productID].Sub(qty)
	return nil
}

func (tx *Tx) RecordSold(productID uuid.UUID, qty domain.Quantity) error {
	if err := qty.Positive(); err != nil {
		return err
	}
	tx.l.sold[productID] = tx.l.sold[productID].Add(qty)
	return nil
}

func (tx *Tx) Receive(productID uuid.UUID, qty domain.Quantity) error {
	if err := qty.Positive(); err != nil {
		return err
	}
	if _, ok := tx.l.catalog[productID]; !ok {
		return fmt.Errorf("product[%s]: %w", productID, domain.ErrUnknownProduct)
	}
	tx.l.received[productID] = tx.l.received[productID].Add(qty)
	tx.l.onHand[productID] = tx.l.onHand[productID].Add(qty)
	return nil
}

func (tx *Tx) Reprice(productID uuid.UUID, price domain.Money) error {
	p, ok := tx.l.catalog[productID]
	if !ok {
		return fmt.Errorf("product[%s]: %w", productID, domain.ErrUnknownProduct)
	}
	if price.IsNegative() {
		return fmt.Errorf("price[%s] is negative", price)
	}
	if price.Currency != p.DeliveryCost.Currency {
		return fmt.Errorf("reprice[%s]: %w", productID, domain.ErrCurrencyMismatch)
	}

	p.Price = price
	tx.l.catalog[productID] = p
	return nil
}
