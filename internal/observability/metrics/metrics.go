package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgledger_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pgledger_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	refreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pgledger_refresh_duration_seconds",
		Help:    "Duration of ledger snapshot refreshes",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	paymentsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgledger_payments_applied_total",
		Help: "Count of payment actions applied to rent records by mode",
	}, []string{"mode"})

	collectedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgledger_collected_amount_total",
		Help: "Money recorded as collected by payment actions, in rupees",
	}, []string{"mode"})

	dueRecordsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgledger_due_records_generated_total",
		Help: "Count of due records created by the due-generation worker",
	}, []string{"result"})

	bedsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pgledger_beds_total",
		Help: "Total bed capacity across rooms",
	})

	bedsOccupied = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pgledger_beds_occupied",
		Help: "Occupied beds as of the last refresh",
	})

	activeTenants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pgledger_active_tenants",
		Help: "Active tenants as of the last refresh by billing model",
	}, []string{"model"})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pgledger_snapshot_breaker_state",
		Help: "Snapshot circuit breaker state (0 closed, 1 open, 2 half-open)",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveRefresh records the duration of a snapshot refresh with a result label
func ObserveRefresh(result string, duration time.Duration) {
	refreshDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObservePayment counts a payment action and the amount it added
func ObservePayment(mode string, amount decimal.Decimal) {
	paymentsApplied.WithLabelValues(mode).Inc()
	if amount.IsPositive() {
		collectedAmount.WithLabelValues(mode).Add(amount.InexactFloat64())
	}
}

// ObserveDueGenerated counts a due-generation attempt for one tenant
func ObserveDueGenerated(result string) {
	dueRecordsGenerated.WithLabelValues(result).Inc()
}

// SetOccupancy publishes bed totals from the last refresh
func SetOccupancy(beds, occupied int) {
	bedsTotal.Set(float64(beds))
	bedsOccupied.Set(float64(occupied))
}

// SetActiveTenants publishes active tenant counts per billing model
func SetActiveTenants(monthly, daily int) {
	activeTenants.WithLabelValues("monthly").Set(float64(monthly))
	activeTenants.WithLabelValues("daily").Set(float64(daily))
}

// SetBreakerState publishes the snapshot circuit breaker state
func SetBreakerState(state int) {
	breakerState.Set(float64(state))
}
