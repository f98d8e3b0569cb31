package obs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics groups Prometheus collectors for deliveries and checkouts.
type StoreMetrics struct {
	Deliveries     *prometheus.CounterVec
	Checkouts      *prometheus.CounterVec
	BasketTotal    prometheus.Histogram
	ReceiptsIssued prometheus.Counter
	JournalErrors  prometheus.Counter
}

// NewStoreMetrics registers and returns store collectors. A nil registerer
// falls back to the default one.
func NewStoreMetrics(namespace string, reg prometheus.Registerer) (*StoreMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &StoreMetrics{
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Count of delivery attempts by outcome.",
		}, []string{"category", "result"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"}),
		BasketTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "basket_total",
			Help:      "Distribution of committed basket totals in major currency units.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		ReceiptsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_issued_total",
			Help:      "Count of non-empty receipts issued.",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_journal_errors_total",
			Help:      "Count of receipts that could not be written to the journal.",
		}),
	}

	collectors := []prometheus.Collector{m.Deliveries, m.Checkouts, m.BasketTotal, m.ReceiptsIssued, m.JournalErrors}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("reg.Register: %w", err)
		}
	}

	return m, nil
}
