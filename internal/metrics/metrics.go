package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardling_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardling_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	InvoicesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardling_invoices_created_total",
			Help: "Total number of invoices created",
		},
		[]string{"type"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardling_settlements_total",
			Help: "Total number of settlement attempts",
		},
		[]string{"type", "result"},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardling_withdrawals_total",
			Help: "Total number of withdrawal state changes",
		},
		[]string{"status"},
	)

	AccessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardling_access_decisions_total",
			Help: "Total number of privacy gate decisions",
		},
		[]string{"outcome"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordInvoiceCreated(invoiceType string) {
	InvoicesCreatedTotal.WithLabelValues(invoiceType).Inc()
}

func RecordSettlement(invoiceType, result string) {
	SettlementsTotal.WithLabelValues(invoiceType, result).Inc()
}

func RecordWithdrawal(status string) {
	WithdrawalsTotal.WithLabelValues(status).Inc()
}

func RecordAccessDecision(outcome string) {
	AccessDecisionsTotal.WithLabelValues(outcome).Inc()
}
