package domain

import (
	"fmt"
	"sync"
)

// Wallet is a customer's funds handle. Its balance never goes negative.
type Wallet struct {
	mu      sync.Mutex
	balance Money
}

func NewWallet(balance Money) (*Wallet, error) {
	if balance.IsNegative() {
		return nil, fmt.Errorf("initial balance[%s] is negative", balance)
	}
	return &Wallet{balance: balance}, nil
}

func (w *Wallet) Balance() Money {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.balance
}

func (w *Wallet) Deposit(amount Money) (Money, error) {
	if !amount.Amount.IsPositive() {
		return Money{}, fmt.Errorf("deposit[%s] must be positive", amount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	updated, err := w.balance.Add(amount)
	if err != nil {
		return Money{}, fmt.Errorf("balance.Add: %w", err)
	}
	w.balance = updated

	return updated, nil
}

// Debit deducts amount after commit succeeds. The wallet stays locked while
// commit runs, and nothing is deducted if funds are short or commit fails.
func (w *Wallet) Debit(amount Money, commit func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if amount.Currency != w.balance.Currency {
		return fmt.Errorf("wallet.Debit: %w", ErrCurrencyMismatch)
	}
	if w.balance.LessThan(amount) {
		return &InsufficientFundsError{Required: amount, Available: w.balance}
	}

	if commit != nil {
		if err := commit(); err != nil {
			return err
		}
	}

	updated, err := w.balance.Sub(amount)
	if err != nil {
		return fmt.Errorf("balance.Sub: %w", err)
	}
	w.balance = updated

	return nil
}
