package store

import (
	"fmt"

	"github.com/nikolayk812/store-checkout/internal/domain"
)

// Summary is a read-only view over the ledger and issued receipts.
type Summary struct {
	DeliveryExpenses domain.Money
	Revenue          domain.Money
	Profit           domain.Money
	ReceiptsIssued   int
}

// Summary totals delivery cost of everything received and the exact totals
// customers were charged. Revenue equals the sum of CashierSales over all
// cashiers; it is not the sum of rounded-up receipt totals.
func (s *Store) Summary() (Summary, error) {
	expenses := domain.ZeroMoney(s.currency)
	snapshot := s.ledger.Snapshot()
	for _, p := range s.ledger.Products() {
		received, ok := snapshot.Received[p.ID]
		if !ok {
			continue
		}
		var err error
		if expenses, err = expenses.Add(p.DeliveryCost.Mul(received)); err != nil {
			return Summary{}, fmt.Errorf("expenses.Add[%s]: %w", p.ID, err)
		}
	}

	revenue := domain.ZeroMoney(s.currency)
	issued := s.receipts.All()
	for _, rc := range issued {
		var err error
		if revenue, err = revenue.Add(rc.Total()); err != nil {
			return Summary{}, fmt.Errorf("revenue.Add[%s]: %w", rc.Serial(), err)
		}
	}

	profit, err := revenue.Sub(expenses)
	if err != nil {
		return Summary{}, fmt.Errorf("revenue.Sub: %w", err)
	}

	return Summary{
		DeliveryExpenses: expenses,
		Revenue:          revenue,
		Profit:           profit,
		ReceiptsIssued:   len(issued),
	}, nil
}
