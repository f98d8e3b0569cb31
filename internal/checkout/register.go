// Package checkout sells a basket: it validates stock and funds, then
// decrements stock, debits the customer and issues a receipt in one step.
package checkout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/store-checkout/internal/domain"
	"github.com/nikolayk812/store-checkout/internal/inventory"
	"github.com/nikolayk812/store-checkout/internal/receipt"
	"github.com/rs/zerolog"
)

// SalePricer returns the unit price charged for a product on a given day.
type SalePricer interface {
	SalePrice(p domain.Product, asOf domain.Date) domain.Money
}

// Register is a till operated by one cashier.
type Register struct {
	cashier  domain.Cashier
	ledger   *inventory.Ledger
	prices   SalePricer
	receipts *receipt.Registry
	logger   zerolog.Logger
}

func NewRegister(cashier domain.Cashier, ledger *inventory.Ledger, prices SalePricer, receipts *receipt.Registry, logger zerolog.Logger) (*Register, error) {
	if cashier.ID == "" {
		return nil, fmt.Errorf("cashier ID is empty")
	}
	if ledger == nil || prices == nil || receipts == nil {
		return nil, fmt.Errorf("register[%s] is not fully configured", cashier.ID)
	}

	return &Register{
		cashier:  cashier,
		ledger:   ledger,
		prices:   prices,
		receipts: receipts,
		logger:   logger.With().Str("cashier_id", cashier.ID).Logger(),
	}, nil
}

func (r *Register) Cashier() domain.Cashier { return r.cashier }

// Begin prepares a transaction without touching any state.
func (r *Register) Begin(basket *domain.Basket, wallet *domain.Wallet, asOf domain.Date) *Transaction {
	return &Transaction{
		ID:       uuid.New(),
		register: r,
		basket:   basket,
		wallet:   wallet,
		asOf:     asOf,
		state:    StateValidating,
		history:  []State{StateValidating},
	}
}

// Checkout sells the basket. On success the basket is cleared; on failure
// stock, wallet and basket are left exactly as they were.
func (r *Register) Checkout(basket *domain.Basket, wallet *domain.Wallet, asOf domain.Date) (domain.Receipt, error) {
	t := r.Begin(basket, wallet, asOf)

	rc, err := t.Run()
	if err != nil {
		r.logAborted(t, err)
		return domain.Receipt{}, err
	}

	r.logger.Info().
		Str("transaction_id", t.ID.String()).
		Str("serial", rc.Serial()).
		Int("lines", len(rc.Lines())).
		Str("total", rc.Total().String()).
		Msg("checkout_completed")

	return rc, nil
}

func (r *Register) logAborted(t *Transaction, err error) {
	evt := r.logger.Warn().Str("transaction_id", t.ID.String()).Err(err)

	var stockErr *domain.InsufficientStockError
	var fundsErr *domain.InsufficientFundsError
	switch {
	case errors.As(err, &stockErr):
		evt = evt.Str("product_id", stockErr.ProductID.String()).Str("shortfall", stockErr.Shortfall.String())
	case errors.As(err, &fundsErr):
		evt = evt.Str("required", fundsErr.Required.String()).Str("available", fundsErr.Available.String())
	}

	evt.Msg("checkout_aborted")
}
