// Package receipt issues receipt serials, keeps the store's issued receipts
// and renders them for customers.
package receipt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nikolayk812/store-checkout/internal/domain"
	"golang.org/x/text/currency"
)

const serialLength = 8

// NewSerial returns an 8-character upper-case token taken from a random UUID.
func NewSerial() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:serialLength])
}

// Registry holds every receipt issued since it was created.
type Registry struct {
	mu sync.RWMutex

	newSerial func() string
	reserved  map[string]struct{}
	issued    map[string]domain.Receipt
	order     []string
	byCashier map[string][]string
}

func NewRegistry() *Registry {
	return newRegistry(NewSerial)
}

func newRegistry(gen func() string) *Registry {
	return &Registry{
		newSerial: gen,
		reserved:  make(map[string]struct{}),
		issued:    make(map[string]domain.Receipt),
		byCashier: make(map[string][]string),
	}
}

// ReserveSerial returns a serial no other receipt of this registry has used.
func (r *Registry) ReserveSerial() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		serial := r.newSerial()
		if _, taken := r.reserved[serial]; taken {
			continue
		}
		r.reserved[serial] = struct{}{}
		return serial
	}
}

// Record stores an issued receipt. Empty receipts are rejected and not counted.
func (r *Registry) Record(rc domain.Receipt) error {
	if rc.IsEmpty() {
		return fmt.Errorf("receipt[%s]: %w", rc.Serial(), domain.ErrEmptyReceipt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.issued[rc.Serial()]; ok {
		return fmt.Errorf("receipt[%s] already recorded", rc.Serial())
	}
	r.reserved[rc.Serial()] = struct{}{}
	r.issued[rc.Serial()] = rc
	r.order = append(r.order, rc.Serial())
	cashierID := rc.Cashier().ID
	r.byCashier[cashierID] = append(r.byCashier[cashierID], rc.Serial())

	return nil
}

func (r *Registry) Get(serial string) (domain.Receipt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rc, ok := r.issued[serial]
	return rc, ok
}

// Count is the number of receipts issued.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// All returns receipts in issue order.
func (r *Registry) All() []domain.Receipt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(r.order)
}

func (r *Registry) ByCashier(cashierID string) []domain.Receipt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(r.byCashier[cashierID])
}

// CashierSales sums the exact commit-time totals of a cashier's receipts,
// the same basis as the store revenue. Per-receipt round-up is for display only.
func (r *Registry) CashierSales(cashierID string, cur currency.Unit) (domain.Money, error) {
	sum := domain.ZeroMoney(cur)
	for _, rc := range r.ByCashier(cashierID) {
		var err error
		if sum, err = sum.Add(rc.Total()); err != nil {
			return domain.Money{}, fmt.Errorf("sum.Add[%s]: %w", rc.Serial(), err)
		}
	}
	return sum, nil
}

func (r *Registry) collect(serials []string) []domain.Receipt {
	out := make([]domain.Receipt, 0, len(serials))
	for _, s := range serials {
		out = append(out, r.issued[s])
	}
	return out
}
