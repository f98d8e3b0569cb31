package checkout_test

import (
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/nikolayk812/store-checkout/internal/checkout"
	"github.com/nikolayk812/store-checkout/internal/domain"
	"github.com/nikolayk812/store-checkout/internal/inventory"
	"github.com/nikolayk812/store-checkout/internal/pricing"
	"github.com/nikolayk812/store-checkout/internal/receipt"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"golang.org/x/text/currency"
)

var bgn = currency.MustParseISO("BGN")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var today = domain.MustDate("2026-10-15")

type registerSuite struct {
	suite.Suite

	ledger   *inventory.Ledger
	receipts *receipt.Registry
	register *checkout.Register

	productA domain.Product
	productB domain.Product
}

// entry point to run the tests in the suite
func TestRegisterSuite(t *testing.T) {
	suite.Run(t, new(registerSuite))
}

// before each test: A priced 10.00 with 5 on hand, B priced 20.00 with 1 on hand
func (suite *registerSuite) SetupTest() {
	suite.ledger = inventory.NewLedger()
	suite.receipts = receipt.NewRegistry()

	engine, err := pricing.NewEngine(pricing.MarginTable{
		domain.CategoryFood:    decimal.NewFromInt(0),
		domain.CategoryNonFood: decimal.NewFromInt(0),
	}, pricing.NearExpiryPolicy{ThresholdDays: 0, DiscountPercent: decimal.Zero})
	suite.Require().NoError(err)

	suite.productA = suite.addProduct("10.00", 5)
	suite.productB = suite.addProduct("20.00", 1)

	suite.register, err = checkout.NewRegister(
		domain.Cashier{ID: "c-1", Name: gofakeit.FirstName()},
		suite.ledger, engine, suite.receipts, zerolog.Nop())
	suite.Require().NoError(err)
}

func (suite *registerSuite) addProduct(cost string, units int) domain.Product {
	p := domain.Product{
		ID:           uuid.MustParse(gofakeit.UUID()),
		Name:         gofakeit.ProductName(),
		DeliveryCost: domain.MustMoney(cost, bgn),
		Category:     domain.CategoryNonFood,
	}
	suite.Require().NoError(suite.ledger.AddProduct(p))

	margins := pricing.MarginTable{
		domain.CategoryFood:    decimal.Zero,
		domain.CategoryNonFood: decimal.Zero,
	}
	for i := 0; i < units; i++ {
		_, err := suite.ledger.Deliver(p.ID, margins, today)
		suite.Require().NoError(err)
	}

	return p
}

func (suite *registerSuite) basket(lines map[uuid.UUID]int64) *domain.Basket {
	b := domain.NewBasket(gofakeit.UUID())
	for id, qty := range lines {
		suite.Require().NoError(b.Add(id, domain.QuantityFromInt(qty)))
	}
	return b
}

func (suite *registerSuite) wallet(balance string) *domain.Wallet {
	w, err := domain.NewWallet(domain.MustMoney(balance, bgn))
	suite.Require().NoError(err)
	return w
}

func (suite *registerSuite) assertOnHand(product domain.Product, want int64) {
	onHand, ok := suite.ledger.OnHand(product.ID)
	suite.Require().True(ok)
	suite.True(onHand.Equal(domain.QuantityFromInt(want)), "on hand %s, want %d", onHand, want)
}

func (suite *registerSuite) TestCheckout_Success() {
	basket := suite.basket(map[uuid.UUID]int64{suite.productA.ID: 2, suite.productB.ID: 1})
	wallet := suite.wallet("1000.00")

	rc, err := suite.register.Checkout(basket, wallet, today)
	suite.Require().NoError(err)

	total, err := receipt.Total(rc)
	suite.Require().NoError(err)
	suite.Equal("40.00", total.Amount.StringFixed(2))
	suite.Equal("960.00", wallet.Balance().Amount.StringFixed(2))

	suite.assertOnHand(suite.productA, 3)
	suite.assertOnHand(suite.productB, 0)
	suite.True(suite.ledger.Sold(suite.productA.ID).Equal(domain.QuantityFromInt(2)))
	suite.True(suite.ledger.Sold(suite.productB.ID).Equal(domain.QuantityFromInt(1)))

	want := map[uuid.UUID]string{suite.productA.ID: "2", suite.productB.ID: "1"}
	got := make(map[uuid.UUID]string)
	for _, line := range rc.Lines() {
		got[line.ProductID] = line.Quantity.String()
	}
	suite.Empty(cmp.Diff(want, got))

	suite.True(basket.IsEmpty())
	suite.Equal(1, suite.receipts.Count())
	suite.Equal("c-1", rc.Cashier().ID)
	suite.True(rc.IssuedOn().Equal(today))
}

func (suite *registerSuite) TestCheckout_InsufficientStock() {
	basket := suite.basket(map[uuid.UUID]int64{suite.productB.ID: 3})
	wallet := suite.wallet("1000.00")

	_, err := suite.register.Checkout(basket, wallet, today)

	var stockErr *domain.InsufficientStockError
	suite.Require().ErrorAs(err, &stockErr)
	suite.ErrorIs(err, domain.ErrInsufficientStock)
	suite.Equal(suite.productB.ID, stockErr.ProductID)
	suite.True(stockErr.Shortfall.Equal(domain.QuantityFromInt(2)))

	suite.assertNothingChanged(basket, wallet, "1000.00")
}

func (suite *registerSuite) TestCheckout_InsufficientStockOnSecondLine() {
	// first line is satisfiable, second is not: nothing may be decremented
	basket := domain.NewBasket("owner")
	suite.Require().NoError(basket.Add(suite.productA.ID, domain.QuantityFromInt(2)))
	suite.Require().NoError(basket.Add(suite.productB.ID, domain.QuantityFromInt(2)))
	wallet := suite.wallet("1000.00")

	_, err := suite.register.Checkout(basket, wallet, today)
	suite.Require().ErrorIs(err, domain.ErrInsufficientStock)

	suite.assertNothingChanged(basket, wallet, "1000.00")
}

func (suite *registerSuite) TestCheckout_InsufficientFunds() {
	basket := suite.basket(map[uuid.UUID]int64{suite.productA.ID: 2, suite.productB.ID: 1})
	wallet := suite.wallet("10.00")

	_, err := suite.register.Checkout(basket, wallet, today)

	var fundsErr *domain.InsufficientFundsError
	suite.Require().ErrorAs(err, &fundsErr)
	suite.Equal("40.00", fundsErr.Required.Amount.StringFixed(2))
	suite.Equal("10.00", fundsErr.Available.Amount.StringFixed(2))

	suite.assertNothingChanged(basket, wallet, "10.00")
}

func (suite *registerSuite) TestCheckout_UnknownProduct() {
	unknown := uuid.New()
	basket := suite.basket(map[uuid.UUID]int64{unknown: 4})
	wallet := suite.wallet("1000.00")

	_, err := suite.register.Checkout(basket, wallet, today)

	var stockErr *domain.InsufficientStockError
	suite.Require().ErrorAs(err, &stockErr)
	suite.Equal(unknown, stockErr.ProductID)
	suite.True(stockErr.Shortfall.Equal(domain.QuantityFromInt(4)))
}

func (suite *registerSuite) TestCheckout_EmptyBasket() {
	wallet := suite.wallet("1000.00")

	_, err := suite.register.Checkout(domain.NewBasket("owner"), wallet, today)
	suite.Require().ErrorIs(err, domain.ErrEmptyBasket)
	suite.Equal(0, suite.receipts.Count())
}

func (suite *registerSuite) TestCheckout_ExpiredProduct() {
	expiry := today.AddDays(1)
	p := domain.Product{
		ID:           uuid.New(),
		Name:         "yoghurt",
		DeliveryCost: domain.MustMoney("1.00", bgn),
		Expiry:       &expiry,
		Category:     domain.CategoryFood,
	}
	suite.Require().NoError(suite.ledger.AddProduct(p))
	_, err := suite.ledger.Deliver(p.ID, pricing.MarginTable{domain.CategoryFood: decimal.Zero, domain.CategoryNonFood: decimal.Zero}, today)
	suite.Require().NoError(err)

	basket := suite.basket(map[uuid.UUID]int64{p.ID: 1})
	wallet := suite.wallet("100.00")

	_, err = suite.register.Checkout(basket, wallet, today.AddDays(1))
	suite.Require().NoError(err, "sold on expiry day")

	basket = suite.basket(map[uuid.UUID]int64{p.ID: 1})
	_, err = suite.register.Checkout(basket, wallet, today.AddDays(2))
	suite.Require().ErrorIs(err, domain.ErrExpiredGoods)
}

func (suite *registerSuite) TestTransaction_StateHistory() {
	ok := suite.register.Begin(suite.basket(map[uuid.UUID]int64{suite.productA.ID: 1}), suite.wallet("100.00"), today)
	suite.Equal(checkout.StateValidating, ok.State())

	_, err := ok.Run()
	suite.Require().NoError(err)
	suite.Equal([]checkout.State{checkout.StateValidating, checkout.StateCommitting, checkout.StateDone}, ok.History())
	suite.Equal(checkout.StateDone, ok.State())

	_, err = ok.Run()
	suite.Require().Error(err, "a transaction runs once")

	short := suite.register.Begin(suite.basket(map[uuid.UUID]int64{suite.productA.ID: 1}), suite.wallet("1.00"), today)
	_, err = short.Run()
	suite.Require().ErrorIs(err, domain.ErrInsufficientFunds)
	suite.Equal([]checkout.State{checkout.StateValidating, checkout.StateAborted}, short.History())
	suite.ErrorIs(short.Err(), domain.ErrInsufficientFunds)
	suite.Equal("ABORTED", short.State().String())
}

func (suite *registerSuite) TestCheckout_ConcurrentLastUnit() {
	const buyers = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)

	wg.Add(buyers)
	for i := 0; i < buyers; i++ {
		go func() {
			defer wg.Done()

			basket := domain.NewBasket(gofakeit.UUID())
			if err := basket.Add(suite.productB.ID, domain.OneQuantity); err != nil {
				return
			}
			wallet, err := domain.NewWallet(domain.MustMoney("100.00", bgn))
			if err != nil {
				return
			}

			_, err = suite.register.Checkout(basket, wallet, today)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				failed++
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, succeeded)
	suite.Equal(buyers-1, failed)
	suite.assertOnHand(suite.productB, 0)
	suite.Equal(1, suite.receipts.Count())
}

func (suite *registerSuite) TestCheckout_UniqueSerials() {
	for i := 0; i < 5; i++ {
		_, err := suite.register.Checkout(suite.basket(map[uuid.UUID]int64{suite.productA.ID: 1}), suite.wallet("100.00"), today)
		suite.Require().NoError(err)
	}

	seen := make(map[string]struct{})
	for _, rc := range suite.receipts.All() {
		seen[rc.Serial()] = struct{}{}
	}
	suite.Len(seen, 5)
	suite.assertOnHand(suite.productA, 0)

	sales, err := suite.receipts.CashierSales("c-1", bgn)
	suite.Require().NoError(err)
	suite.Equal("50.00", sales.Amount.StringFixed(2))
}

func (suite *registerSuite) TestNewRegister_Invalid() {
	_, err := checkout.NewRegister(domain.Cashier{}, suite.ledger, nil, suite.receipts, zerolog.Nop())
	suite.Error(err)
}

func (suite *registerSuite) assertNothingChanged(basket *domain.Basket, wallet *domain.Wallet, balance string) {
	suite.T().Helper()

	suite.assertOnHand(suite.productA, 5)
	suite.assertOnHand(suite.productB, 1)
	suite.True(suite.ledger.Sold(suite.productA.ID).IsZero())
	suite.True(suite.ledger.Sold(suite.productB.ID).IsZero())
	suite.Equal(balance, wallet.Balance().Amount.StringFixed(2))
	suite.False(basket.IsEmpty(), "basket must survive a failed checkout")
	suite.Equal(0, suite.receipts.Count())
}
