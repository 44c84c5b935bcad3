package metrics

import (
	"net/http"
	"time"

	"mrr_analytics/internal/domain/analytics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry with the engine and sync metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	ComputeDuration prometheus.Histogram
	Computations    *prometheus.CounterVec
	MRR             *prometheus.GaugeVec
	ActivePaidUsers prometheus.Gauge
	DroppedRows     prometheus.Counter
	SyncedRows      *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.ComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compute_duration_seconds",
		Help:      "Duration of full analytics recomputations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	c.Computations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "computations_total",
		Help:      "Total number of analytics computations",
	}, []string{"status"})
	c.MRR = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mrr",
		Help:      "MRR of the latest computed month (gross, delinquent, collectible) and live MRR",
	}, []string{"kind"})
	c.ActivePaidUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_paid_users",
		Help:      "Active paid users at the end of the latest computed month",
	})
	c.DroppedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_subscriptions_total",
		Help:      "Subscription rows dropped by the normalizer",
	})
	c.SyncedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "synced_rows_total",
		Help:      "Rows loaded into the record store by the sync job",
	}, []string{"table"})

	c.registry.MustRegister(c.ComputeDuration, c.Computations, c.MRR, c.ActivePaidUsers, c.DroppedRows, c.SyncedRows)
	return c
}

// Handler returns an HTTP handler that serves Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveReport records a successful computation.
func (c *Collector) ObserveReport(r *analytics.Report, took time.Duration) {
	if c == nil {
		return
	}
	c.ComputeDuration.Observe(took.Seconds())
	c.Computations.WithLabelValues("ok").Inc()
	c.DroppedRows.Add(float64(len(r.Dropped)))

	if n := len(r.Revenue.Months); n > 0 {
		last := r.Revenue.Months[n-1]
		c.MRR.WithLabelValues("gross").Set(last.Gross.InexactFloat64())
		c.MRR.WithLabelValues("delinquent").Set(last.Delinquent.InexactFloat64())
		c.MRR.WithLabelValues("collectible").Set(last.Collectible.InexactFloat64())
	}
	c.MRR.WithLabelValues("live").Set(r.Revenue.Live.CurrentLiveMRR.InexactFloat64())
	if n := len(r.Cohort); n > 0 {
		c.ActivePaidUsers.Set(float64(r.Cohort[n-1].ActivePaidUsers))
	}
}

func (c *Collector) RecordComputationFailure() {
	if c == nil {
		return
	}
	c.Computations.WithLabelValues("error").Inc()
}

func (c *Collector) RecordSync(customers, subscriptions, invoices int) {
	if c == nil {
		return
	}
	c.SyncedRows.WithLabelValues("customers").Add(float64(customers))
	c.SyncedRows.WithLabelValues("subscriptions").Add(float64(subscriptions))
	c.SyncedRows.WithLabelValues("invoices").Add(float64(invoices))
}
