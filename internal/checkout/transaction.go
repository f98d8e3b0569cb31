package checkout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/store-checkout/internal/domain"
	"github.com/nikolayk812/store-checkout/internal/inventory"
)

type State int

const (
	StateValidating State = iota
	StateCommitting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "VALIDATING"
	case StateCommitting:
		return "COMMITTING"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transaction is a single checkout attempt of one basket.
type Transaction struct {
	ID uuid.UUID

	register *Register
	basket   *domain.Basket
	wallet   *domain.Wallet
	asOf     domain.Date

	state   State
	history []State
	receipt domain.Receipt
	err     error
}

type plan struct {
	lines []domain.ReceiptLine
	total domain.Money
}

func (t *Transaction) State() State { return t.state }

// History lists every state the transaction went through, in order.
func (t *Transaction) History() []State {
	out := make([]State, len(t.history))
	copy(out, t.history)
	return out
}

func (t *Transaction) Receipt() domain.Receipt { return t.receipt }

func (t *Transaction) Err() error { return t.err }

// Run executes the transaction once. Validation and commit happen under the
// ledger lock, so no other checkout can interleave between them.
func (t *Transaction) Run() (domain.Receipt, error) {
	if t.state != StateValidating || len(t.history) > 1 {
		return domain.Receipt{}, fmt.Errorf("transaction[%s] already ran: %s", t.ID, t.state)
	}

	err := t.register.ledger.Atomically(func(tx *inventory.Tx) error {
		p, err := t.validate(tx)
		if err != nil {
			return err
		}

		t.transition(StateCommitting)

		rc, err := domain.NewReceipt(t.register.receipts.ReserveSerial(), t.register.cashier, t.asOf, p.lines, p.total)
		if err != nil {
			return fmt.Errorf("domain.NewReceipt: %w", err)
		}

		err = t.wallet.Debit(p.total, func() error {
			if err := t.register.receipts.Record(rc); err != nil {
				return fmt.Errorf("receipts.Record: %w", err)
			}
			return commit(tx, p)
		})
		if err != nil {
			return err
		}
		t.receipt = rc

		return nil
	})
	if err != nil {
		t.err = err
		t.transition(StateAborted)
		return domain.Receipt{}, err
	}

	t.basket.Clear()
	t.transition(StateDone)

	return t.receipt, nil
}

func (t *Transaction) validate(tx *inventory.Tx) (plan, error) {
	if t.basket == nil || t.basket.IsEmpty() {
		return plan{}, domain.ErrEmptyBasket
	}
	if t.wallet == nil {
		return plan{}, fmt.Errorf("wallet is nil")
	}

	var p plan
	for i, line := range t.basket.Lines() {
		if err := line.Quantity.Positive(); err != nil {
			return plan{}, fmt.Errorf("line[%s]: %w", line.ProductID, err)
		}

		product, ok := tx.Product(line.ProductID)
		if !ok {
			return plan{}, &domain.InsufficientStockError{ProductID: line.ProductID, Shortfall: line.Quantity}
		}
		if product.IsExpired(t.asOf) {
			return plan{}, fmt.Errorf("product[%s] expired on %s: %w", product.ID, product.Expiry, domain.ErrExpiredGoods)
		}
		if !tx.HasSufficient(product.ID, line.Quantity) {
			return plan{}, &domain.InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Shortfall: tx.Shortfall(product.ID, line.Quantity),
			}
		}

		rl := domain.ReceiptLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: t.register.prices.SalePrice(product, t.asOf),
			Quantity:  line.Quantity,
		}
		p.lines = append(p.lines, rl)

		if i == 0 {
			p.total = domain.ZeroMoney(rl.UnitPrice.Currency)
		}
		var err error
		if p.total, err = p.total.Add(rl.Total()); err != nil {
			return plan{}, fmt.Errorf("total.Add[%s]: %w", product.ID, err)
		}
	}

	balance := t.wallet.Balance()
	if balance.Currency != p.total.Currency {
		return plan{}, fmt.Errorf("wallet: %w", domain.ErrCurrencyMismatch)
	}
	if balance.LessThan(p.total) {
		return plan{}, &domain.InsufficientFundsError{Required: p.total, Available: balance}
	}

	return p, nil
}

// commit cannot fail for a plan validated under the same lock.
// The receipt is recorded before it runs, so a record failure changes nothing.
func commit(tx *inventory.Tx, p plan) error {
	for _, line := range p.lines {
		if err := tx.Decrement(line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("tx.Decrement: %w", err)
		}
		if err := tx.RecordSold(line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("tx.RecordSold: %w", err)
		}
	}
	return nil
}

func (t *Transaction) transition(s State) {
	t.state = s
	t.history = append(t.history, s)
}
