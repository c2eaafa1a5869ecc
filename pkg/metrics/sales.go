package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics tracks the point-of-sale workflow.
type SaleMetrics struct {
	created       *prometheus.CounterVec
	failures      *prometheus.CounterVec
	conflicts     prometheus.Counter
	negativeTotal prometheus.Counter
	duration      prometheus.Histogram
}

// NewSaleMetrics registers the sale metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	if reg == nil {
		return &SaleMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sales",
		Name:      "created_total",
		Help:      "Committed sales by payment method.",
	}, []string{"payment_method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sales",
		Name:      "failed_total",
		Help:      "Rejected or failed sales by error code.",
	}, []string{"code"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sales",
		Name:      "invoice_conflicts_total",
		Help:      "Invoice number collisions that forced a transaction retry.",
	})
	negativeTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sale_negative_total_total",
		Help:      "Sales committed with a discount larger than the subtotal.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sales",
		Name:      "duration_seconds",
		Help:      "Wall time of the sale workflow including retries.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(created, failures, conflicts, negativeTotal, duration)
	return &SaleMetrics{
		created:       created,
		failures:      failures,
		conflicts:     conflicts,
		negativeTotal: negativeTotal,
		duration:      duration,
	}
}

// IncCreated counts a committed sale.
func (m *SaleMetrics) IncCreated(paymentMethod string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncFailure counts a sale that did not commit.
func (m *SaleMetrics) IncFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncInvoiceConflict counts one invoice number collision.
func (m *SaleMetrics) IncInvoiceConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

// IncNegativeTotal counts a sale whose discount exceeded its subtotal.
func (m *SaleMetrics) IncNegativeTotal() {
	if m == nil || m.negativeTotal == nil {
		return
	}
	m.negativeTotal.Inc()
}

// ObserveDuration records how long the workflow took.
func (m *SaleMetrics) ObserveDuration(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
