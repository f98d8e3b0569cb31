// Package inventory owns the product catalog and the received, on-hand and
// sold quantities. On-hand quantities are kept at zero after the last unit
// is sold; a product that was never delivered has no on-hand entry at all.
package inventory

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nikolayk812/store-checkout/internal/domain"
)

var ErrDuplicateProduct = errors.New("product already in catalog")

// Pricer computes the price fixed on a product at delivery time.
type Pricer interface {
	DeliveryPrice(p domain.Product) (domain.Money, error)
}

type Ledger struct {
	mu sync.Mutex

	catalog  map[uuid.UUID]domain.Product
	received map[uuid.UUID]domain.Quantity
	onHand   map[uuid.UUID]domain.Quantity
	sold     map[uuid.UUID]domain.Quantity
}

// Snapshot is a point-in-time copy of the three quantity maps.
type Snapshot struct {
	Received map[uuid.UUID]domain.Quantity
	OnHand   map[uuid.UUID]domain.Quantity
	Sold     map[uuid.UUID]domain.Quantity
}

func NewLedger() *Ledger {
	return &Ledger{
		catalog:  make(map[uuid.UUID]domain.Product),
		received: make(map[uuid.UUID]domain.Quantity),
		onHand:   make(map[uuid.UUID]domain.Quantity),
		sold:     make(map[uuid.UUID]domain.Quantity),
	}
}

// Atomically runs fn while holding the ledger lock. fn must not retain tx.
func (l *Ledger) Atomically(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return fn(&Tx{l: l})
}

func (l *Ledger) AddProduct(p domain.Product) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("p.Validate: %w", err)
	}
	if p.Price.IsZero() {
		p.Price = domain.ZeroMoney(p.DeliveryCost.Currency)
	}

	return l.Atomically(func(_ *Tx) error {
		if _, ok := l.catalog[p.ID]; ok {
			return fmt.Errorf("product[%s]: %w", p.ID, ErrDuplicateProduct)
		}
		l.catalog[p.ID] = p.Clone()
		return nil
	})
}

// Deliver receives one unit of a catalog product priced on asOf. Goods that
// expire on or before asOf are rejected and nothing changes.
func (l *Ledger) Deliver(productID uuid.UUID, pricer Pricer, asOf domain.Date) (domain.Product, error) {
	var delivered domain.Product

	err := l.Atomically(func(tx *Tx) error {
		p, ok := tx.Product(productID)
		if !ok {
			return fmt.Errorf("product[%s]: %w", productID, domain.ErrUnknownProduct)
		}
		if p.Expiry != nil && !p.Expiry.After(asOf) {
			return fmt.Errorf("product[%s] expiry %s as of %s: %w", productID, p.Expiry, asOf, domain.ErrExpiredGoods)
		}

		price, err := pricer.DeliveryPrice(p)
		if err != nil {
			return fmt.Errorf("pricer.DeliveryPrice: %w", err)
		}
		if err := tx.Reprice(productID, price); err != nil {
			return fmt.Errorf("tx.Reprice: %w", err)
		}
		if err := tx.Receive(productID, domain.OneQuantity); err != nil {
			return fmt.Errorf("tx.Receive: %w", err)
		}

		delivered, _ = tx.Product(productID)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return delivered, nil
}

// Reprice is the explicit way to change a catalog price outside delivery.
func (l *Ledger) Reprice(productID uuid.UUID, price domain.Money) error {
	return l.Atomically(func(tx *Tx) error {
		return tx.Reprice(productID, price)
	})
}

func (l *Ledger) Product(productID uuid.UUID) (domain.Product, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.catalog[productID]
	return p.Clone(), ok
}

// Products lists the catalog ordered by name.
func (l *Ledger) Products() []domain.Product {
	l.mu.Lock()
	defer l.mu.Unlock()

	products := make([]domain.Product, 0, len(l.catalog))
	for _, p := range l.catalog {
		products = append(products, p.Clone())
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return products
}

// OnHand reports the sellable quantity; ok is false for never-delivered products.
func (l *Ledger) OnHand(productID uuid.UUID) (domain.Quantity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q, ok := l.onHand[productID]
	return q, ok
}

func (l *Ledger) Received(productID uuid.UUID) domain.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.received[productID]
}

func (l *Ledger) Sold(productID uuid.UUID) domain.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sold[productID]
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot{
		Received: maps.Clone(l.received),
		OnHand:   maps.Clone(l.onHand),
		Sold:     maps.Clone(l.sold),
	}
}
