// Package store wires the catalog, inventory ledger, pricing engine,
// registers and receipt registry of a single retail store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/store-checkout/internal/checkout"
	"github.com/nikolayk812/store-checkout/internal/config"
	"github.com/nikolayk812/store-checkout/internal/domain"
	"github.com/nikolayk812/store-checkout/internal/inventory"
	"github.com/nikolayk812/store-checkout/internal/obs"
	"github.com/nikolayk812/store-checkout/internal/port"
	"github.com/nikolayk812/store-checkout/internal/pricing"
	"github.com/nikolayk812/store-checkout/internal/receipt"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/currency"
)

const tracerName = "github.com/nikolayk812/store-checkout/internal/store"

type Store struct {
	currency currency.Unit
	ledger   *inventory.Ledger
	pricing  *pricing.Engine
	receipts *receipt.Registry

	journal port.ReceiptJournal
	metrics *obs.StoreMetrics
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Store)

// WithJournal exports every issued receipt to j.
func WithJournal(j port.ReceiptJournal) Option {
	return func(s *Store) { s.journal = j }
}

func WithMetrics(m *obs.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces the source of the current date.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(cur currency.Unit, engine *pricing.Engine, opts ...Option) (*Store, error) {
	if engine == nil {
		return nil, fmt.Errorf("pricing engine is nil")
	}

	s := &Store{
		currency: cur,
		ledger:   inventory.NewLedger(),
		pricing:  engine,
		receipts: receipt.NewRegistry(),
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// FromConfig builds a store whose pricing follows cfg.
func FromConfig(cfg *config.Config, opts ...Option) (*Store, error) {
	engine, err := pricing.NewEngine(cfg.Margins, cfg.NearExpiryPolicy())
	if err != nil {
		return nil, fmt.Errorf("pricing.NewEngine: %w", err)
	}
	return New(cfg.Currency, engine, opts...)
}

func (s *Store) Currency() currency.Unit { return s.currency }

func (s *Store) Ledger() *inventory.Ledger { return s.ledger }

func (s *Store) Receipts() *receipt.Registry { return s.receipts }

func (s *Store) Pricing() *pricing.Engine { return s.pricing }

// Today asks the clock for the current calendar day.
func (s *Store) Today() domain.Date {
	return domain.DateOf(s.now())
}

func (s *Store) AddProduct(p domain.Product) error {
	if p.DeliveryCost.Currency != s.currency {
		return fmt.Errorf("product[%s] priced in %s, store uses %s: %w", p.ID, p.DeliveryCost.Currency, s.currency, domain.ErrCurrencyMismatch)
	}
	if err := s.ledger.AddProduct(p); err != nil {
		return fmt.Errorf("ledger.AddProduct: %w", err)
	}
	return nil
}

// Deliver receives units of a product one at a time, each priced with the
// category margin as of today.
func (s *Store) Deliver(ctx context.Context, productID uuid.UUID, units int) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "store.Deliver", trace.WithAttributes(
		attribute.String("product.id", productID.String()),
		attribute.Int("units", units),
	))
	defer span.End()

	if units <= 0 {
		err := fmt.Errorf("units[%d]: %w", units, domain.ErrInvalidQuantity)
		s.endSpan(span, err)
		return domain.Product{}, err
	}

	asOf := s.Today()
	var (
		delivered domain.Product
		err       error
	)
	for range units {
		if delivered, err = s.ledger.Deliver(productID, s.pricing, asOf); err != nil {
			break
		}
	}

	s.recordDelivery(ctx, productID, delivered, err)
	s.endSpan(span, err)
	if err != nil {
		return domain.Product{}, fmt.Errorf("ledger.Deliver: %w", err)
	}

	return delivered, nil
}

// Reprice recomputes the margin price of a catalog product.
func (s *Store) Reprice(productID uuid.UUID) (domain.Product, error) {
	p, ok := s.ledger.Product(productID)
	if !ok {
		return domain.Product{}, fmt.Errorf("product[%s]: %w", productID, domain.ErrUnknownProduct)
	}
	price, err := s.pricing.DeliveryPrice(p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("pricing.DeliveryPrice: %w", err)
	}
	if err := s.ledger.Reprice(productID, price); err != nil {
		return domain.Product{}, fmt.Errorf("ledger.Reprice: %w", err)
	}

	p, _ = s.ledger.Product(productID)
	return p, nil
}

func (s *Store) OpenRegister(cashier domain.Cashier) (*checkout.Register, error) {
	return checkout.NewRegister(cashier, s.ledger, s.pricing, s.receipts, s.logger)
}

// Checkout sells the basket at reg as of today and exports the receipt to
// the journal. A journal failure is logged and counted; the sale stands.
func (s *Store) Checkout(ctx context.Context, reg *checkout.Register, basket *domain.Basket, wallet *domain.Wallet) (domain.Receipt, error) {
	if reg == nil {
		return domain.Receipt{}, fmt.Errorf("register is nil")
	}

	// a nil basket is rejected by the register as empty
	lines := 0
	if basket != nil {
		lines = basket.Len()
	}

	ctx, span := s.tracer.Start(ctx, "store.Checkout", trace.WithAttributes(
		attribute.String("cashier.id", reg.Cashier().ID),
		attribute.Int("basket.lines", lines),
	))
	defer span.End()

	rc, err := reg.Checkout(basket, wallet, s.Today())
	s.recordCheckout(rc, err)
	s.endSpan(span, err)
	if err != nil {
		return domain.Receipt{}, err
	}
	span.SetAttributes(attribute.String("receipt.serial", rc.Serial()))

	if s.journal != nil {
		if jErr := s.journal.Record(ctx, rc); jErr != nil {
			s.logger.Error().Err(jErr).Str("serial", rc.Serial()).Msg("receipt_journal_failed")
			if s.metrics != nil {
				s.metrics.JournalErrors.Inc()
			}
		}
	}

	return rc, nil
}

func (s *Store) recordDelivery(ctx context.Context, productID uuid.UUID, p domain.Product, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrExpiredGoods):
		result = "expired"
	case errors.Is(err, domain.ErrMissingMarginConfig):
		result = "missing_margin"
	default:
		result = "error"
	}

	category := string(p.Category)
	if category == "" {
		if known, ok := s.ledger.Product(productID); ok {
			category = string(known.Category)
		}
	}
	if s.metrics != nil {
		s.metrics.Deliveries.WithLabelValues(category, result).Inc()
	}

	if err != nil {
		s.logger.Warn().Ctx(ctx).Err(err).Str("product_id", productID.String()).Str("result", result).Msg("delivery_rejected")
		return
	}
	s.logger.Debug().Ctx(ctx).Str("product_id", productID.String()).Str("price", p.Price.String()).Msg("delivery_accepted")
}

func (s *Store) recordCheckout(rc domain.Receipt, err error) {
	if s.metrics == nil {
		return
	}

	result := "ok"
	switch {
	case err == nil:
		s.metrics.ReceiptsIssued.Inc()
		s.metrics.BasketTotal.Observe(rc.Total().Amount.InexactFloat64())
	case errors.Is(err, domain.ErrInsufficientStock):
		result = "insufficient_stock"
	case errors.Is(err, domain.ErrInsufficientFunds):
		result = "insufficient_funds"
	case errors.Is(err, domain.ErrExpiredGoods):
		result = "expired"
	case errors.Is(err, domain.ErrEmptyBasket):
		result = "empty_basket"
	default:
		result = "error"
	}
	s.metrics.Checkouts.WithLabelValues(result).Inc()
}

func (s *Store) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
