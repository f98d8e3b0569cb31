package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/store-checkout/internal/domain"
	"github.com/nikolayk812/store-checkout/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	insertReceiptSQL = `INSERT INTO receipts (serial, cashier_id, cashier_name, issued_on, total_amount, total_currency)
VALUES ($1, $2, $3, $4, $5::numeric, $6)`

	insertLineSQL = `INSERT INTO receipt_lines (serial, line_no, product_id, product_name, unit_price_amount, unit_price_currency, quantity)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric)`

	selectReceiptSQL = `SELECT serial, cashier_id, cashier_name, issued_on, total_amount::text, total_currency
FROM receipts WHERE serial = $1`

	selectLinesSQL = `SELECT product_id, product_name, unit_price_amount::text, unit_price_currency, quantity::text
FROM receipt_lines WHERE serial = $1 ORDER BY line_no`

	selectSerialsByCashierSQL = `SELECT serial FROM receipts WHERE cashier_id = $1 ORDER BY created_at, serial`
)

type receiptRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewReceipt(pool *pgxpool.Pool) port.ReceiptJournal {
	return &receiptRepository{
		q:    pool,
		pool: pool,
	}
}

func NewReceiptWithTx(tx pgx.Tx) port.ReceiptJournal {
	return &receiptRepository{
		q:    tx,
		pool: nil, // use provided transaction instead
	}
}

func (r *receiptRepository) Record(ctx context.Context, rc domain.Receipt) error {
	if rc.Serial() == "" {
		return fmt.Errorf("serial is empty")
	}
	if rc.IsEmpty() {
		return fmt.Errorf("receipt[%s]: %w", rc.Serial(), domain.ErrEmptyReceipt)
	}

	_, err := withTx(ctx, r.pool, r.q, func(q querier) (struct{}, error) {
		total := rc.Total()
		_, err := q.Exec(ctx, insertReceiptSQL,
			rc.Serial(),
			rc.Cashier().ID,
			rc.Cashier().Name,
			rc.IssuedOn().Time(),
			total.Amount.String(),
			total.Currency.String(),
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("q.Exec[insert receipt]: %w", err)
		}

		for i, line := range rc.Lines() {
			_, err := q.Exec(ctx, insertLineSQL,
				rc.Serial(),
				i,
				line.ProductID,
				line.Name,
				line.UnitPrice.Amount.String(),
				line.UnitPrice.Currency.String(),
				line.Quantity.String(),
			)
			if err != nil {
				return struct{}{}, fmt.Errorf("q.Exec[insert line %d]: %w", i, err)
			}
		}

		return struct{}{}, nil
	})

	return err
}

func (r *receiptRepository) GetReceipt(ctx context.Context, serial string) (domain.Receipt, error) {
	if serial == "" {
		return domain.Receipt{}, fmt.Errorf("serial is empty")
	}

	return getReceipt(ctx, r.q, serial)
}

func (r *receiptRepository) ListByCashier(ctx context.Context, cashierID string) ([]domain.Receipt, error) {
	if cashierID == "" {
		return nil, fmt.Errorf("cashierID is empty")
	}

	rows, err := r.q.Query(ctx, selectSerialsByCashierSQL, cashierID)
	if err != nil {
		return nil, fmt.Errorf("q.Query: %w", err)
	}
	serials, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	receipts := make([]domain.Receipt, 0, len(serials))
	for _, serial := range serials {
		rc, err := getReceipt(ctx, r.q, serial)
		if err != nil {
			return nil, fmt.Errorf("getReceipt[%s]: %w", serial, err)
		}
		receipts = append(receipts, rc)
	}

	return receipts, nil
}

type receiptRow struct {
	Serial        string
	CashierID     string
	CashierName   string
	IssuedOn      time.Time
	TotalAmount   string
	TotalCurrency string
}

type lineRow struct {
	ProductID         uuid.UUID
	ProductName       string
	UnitPriceAmount   string
	UnitPriceCurrency string
	Quantity          string
}

func getReceipt(ctx context.Context, q querier, serial string) (domain.Receipt, error) {
	var row receiptRow
	err := q.QueryRow(ctx, selectReceiptSQL, serial).Scan(
		&row.Serial, &row.CashierID, &row.CashierName, &row.IssuedOn, &row.TotalAmount, &row.TotalCurrency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Receipt{}, fmt.Errorf("receipt[%s]: %w", serial, domain.ErrNotFound)
		}
		return domain.Receipt{}, fmt.Errorf("q.QueryRow: %w", err)
	}

	rows, err := q.Query(ctx, selectLinesSQL, serial)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("q.Query: %w", err)
	}
	lineRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (lineRow, error) {
		var l lineRow
		err := row.Scan(&l.ProductID, &l.ProductName, &l.UnitPriceAmount, &l.UnitPriceCurrency, &l.Quantity)
		return l, err
	})
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	return mapReceiptToDomain(row, lineRows)
}

func mapReceiptToDomain(row receiptRow, lineRows []lineRow) (domain.Receipt, error) {
	total, err := mapMoney(row.TotalAmount, row.TotalCurrency)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("mapMoney[total]: %w", err)
	}

	lines := make([]domain.ReceiptLine, 0, len(lineRows))
	for _, l := range lineRows {
		price, err := mapMoney(l.UnitPriceAmount, l.UnitPriceCurrency)
		if err != nil {
			return domain.Receipt{}, fmt.Errorf("mapMoney[%s]: %w", l.ProductID, err)
		}
		qty, err := domain.ParseQuantity(l.Quantity)
		if err != nil {
			return domain.Receipt{}, fmt.Errorf("domain.ParseQuantity: %w", err)
		}
		lines = append(lines, domain.ReceiptLine{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			UnitPrice: price,
			Quantity:  qty,
		})
	}

	cashier := domain.Cashier{ID: row.CashierID, Name: row.CashierName}
	return domain.NewReceipt(row.Serial, cashier, domain.DateOf(row.IssuedOn), lines, total)
}

func mapMoney(amount, cur string) (domain.Money, error) {
	parsedCurrency, err := currency.ParseISO(cur)
	if err != nil {
		return domain.Money{}, fmt.Errorf("currency[%s] is not valid: %w", cur, err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Money{}, fmt.Errorf("amount[%s] is not valid: %w", amount, err)
	}
	return domain.Money{Amount: d, Currency: parsedCurrency}, nil
}
