package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Basket is a customer's pending selection. It belongs to one session and is not safe for concurrent use.
type Basket struct {
	OwnerID string

	quantities map[uuid.UUID]Quantity
	order      []uuid.UUID
}

type BasketLine struct {
	ProductID uuid.UUID
	Quantity  Quantity
}

func NewBasket(ownerID string) *Basket {
	return &Basket{
		OwnerID:    ownerID,
		quantities: make(map[uuid.UUID]Quantity),
	}
}

// Add merges qty into the existing line for productID.
func (b *Basket) Add(productID uuid.UUID, qty Quantity) error {
	if err := qty.Positive(); err != nil {
		return fmt.Errorf("basket.Add[%s]: %w", productID, err)
	}
	b.init()

	current, ok := b.quantities[productID]
	if !ok {
		b.order = append(b.order, productID)
	}
	b.quantities[productID] = current.Add(qty)

	return nil
}

// SetQuantity replaces the quantity of an existing line; a non-positive qty removes it.
func (b *Basket) SetQuantity(productID uuid.UUID, qty Quantity) bool {
	if !qty.IsPositive() {
		return b.Remove(productID)
	}
	if _, ok := b.quantities[productID]; !ok {
		return false
	}
	b.quantities[productID] = qty
	return true
}

func (b *Basket) Remove(productID uuid.UUID) bool {
	if _, ok := b.quantities[productID]; !ok {
		return false
	}
	delete(b.quantities, productID)
	b.order = slices.DeleteFunc(b.order, func(id uuid.UUID) bool { return id == productID })
	return true
}

func (b *Basket) Quantity(productID uuid.UUID) Quantity {
	return b.quantities[productID]
}

// Lines returns a copy of the basket in insertion order.
func (b *Basket) Lines() []BasketLine {
	lines := make([]BasketLine, 0, len(b.order))
	for _, id := range b.order {
		lines = append(lines, BasketLine{ProductID: id, Quantity: b.quantities[id]})
	}
	return lines
}

func (b *Basket) Len() int {
	return len(b.order)
}

func (b *Basket) IsEmpty() bool {
	return len(b.order) == 0
}

func (b *Basket) Clear() {
	clear(b.quantities)
	b.order = b.order[:0]
}

func (b *Basket) init() {
	if b.quantities == nil {
		b.quantities = make(map[uuid.UUID]Quantity)
	}
}
