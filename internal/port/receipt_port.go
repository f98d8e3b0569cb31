package port

import (
	"context"

	"github.com/nikolayk812/store-checkout/internal/domain"
)

// ReceiptJournal exports issued receipts to an external reporting store.
type ReceiptJournal interface {
	Record(ctx context.Context, receipt domain.Receipt) error
	GetReceipt(ctx context.Context, serial string) (domain.Receipt, error)
	ListByCashier(ctx context.Context, cashierID string) ([]domain.Receipt, error)
}
