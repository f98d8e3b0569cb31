package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

type Cashier struct {
	ID   string
	Name string
}

// ReceiptLine is the commit-time snapshot of one basket line.
type ReceiptLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice Money
	Quantity  Quantity
}

func (l ReceiptLine) Total() Money {
	return l.UnitPrice.Mul(l.Quantity)
}

// Receipt is immutable once constructed; accessors return copies.
type Receipt struct {
	serial   string
	cashier  Cashier
	issuedOn Date
	lines    []ReceiptLine
	total    Money
}

func NewReceipt(serial string, cashier Cashier, issuedOn Date, lines []ReceiptLine, total Money) (Receipt, error) {
	if serial == "" {
		return Receipt{}, fmt.Errorf("serial is empty")
	}
	if len(lines) == 0 {
		return Receipt{}, ErrEmptyReceipt
	}

	return Receipt{
		serial:   serial,
		cashier:  cashier,
		issuedOn: issuedOn,
		lines:    slices.Clone(lines),
		total:    total,
	}, nil
}

func (r Receipt) Serial() string { return r.serial }

func (r Receipt) Cashier() Cashier { return r.cashier }

func (r Receipt) IssuedOn() Date { return r.issuedOn }

// Total is the exact, unrounded total captured at commit time.
func (r Receipt) Total() Money { return r.total }

func (r Receipt) Lines() []ReceiptLine { return slices.Clone(r.lines) }

func (r Receipt) IsEmpty() bool { return len(r.lines) == 0 }
