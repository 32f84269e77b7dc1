package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Payment operation metrics
	paymentOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_operations_total",
		Help: "Total number of payment operations",
	}, []string{
		"operation", // sale, recurring_sale, refund, cancel, change_amount, update_billing
		"outcome",   // completed, or an error kind such as hard_decline
	})

	paymentAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_amount_total",
		Help: "Sum of completed payment amounts in major currency units",
	}, []string{
		"operation",
		"currency",
	})

	paymentProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_processing_duration_seconds",
		Help:    "Total time to process a payment operation (end-to-end)",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 90, 300},
	}, []string{
		"operation",
		"outcome",
	})

	// Reconciliation metrics
	reconciliationRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_records_total",
		Help: "Remote history records processed by action",
	}, []string{
		"action", // created, matched, completed, already_completed, failed, pending, anomaly
	})

	reconciliationProfilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_profiles_total",
		Help: "Recurring profiles reconciled by result",
	}, []string{
		"result", // clean, anomalies, error
	})

	reconciliationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconciliation_profile_duration_seconds",
		Help:    "Time to reconcile one recurring profile",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})

	reconciliationLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconciliation_last_run_timestamp_seconds",
		Help: "Unix time the last import run finished",
	})
)

// RecordPaymentOperation records one payment operation
func RecordPaymentOperation(operation, outcome string, duration float64) {
	paymentOperationsTotal.WithLabelValues(operation, outcome).Inc()
	paymentProcessingDuration.WithLabelValues(operation, outcome).Observe(duration)
}

// RecordPaymentAmount adds a completed amount for revenue tracking
func RecordPaymentAmount(operation, currency string, amount float64) {
	paymentAmountTotal.WithLabelValues(operation, currency).Add(amount)
}

// RecordReconciliationRecord counts one processed history record
func RecordReconciliationRecord(action string) {
	reconciliationRecordsTotal.WithLabelValues(action).Inc()
}

// RecordReconciliationProfile records the result of one profile pass
func RecordReconciliationProfile(result string, duration float64) {
	reconciliationProfilesTotal.WithLabelValues(result).Inc()
	reconciliationDuration.Observe(duration)
}

// MarkReconciliationRun stamps the end of an import run
func MarkReconciliationRun(unixSeconds float64) {
	reconciliationLastRun.Set(unixSeconds)
}
