package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics for the cron surface
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.05, .1, .5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Gateway transport metrics
	gatewayAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_gateway_attempts_total",
			Help: "HTTP attempts against the Payflow gateway by HTTP status (or \"error\")",
		},
		[]string{"status"},
	)

	gatewayRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payflow_gateway_retries_total",
			Help: "Attempts repeated after a non-200 status",
		},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payflow_gateway_request_duration_seconds",
			Help:    "Duration of a logical gateway submission including retries",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 90, 180, 300},
		},
		[]string{"outcome"},
	)

	gatewayResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_gateway_results_total",
			Help: "Decoded RESULT codes by operation",
		},
		[]string{"operation", "result"},
	)

	circuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payflow_gateway_circuit_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
	)
)

// RecordGatewayAttempt counts one HTTP attempt. status 0 means a network error.
func RecordGatewayAttempt(status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	gatewayAttemptsTotal.WithLabelValues(label).Inc()
}

// RecordGatewayRetry counts a repeated attempt
func RecordGatewayRetry() {
	gatewayRetriesTotal.Inc()
}

// RecordGatewaySubmission observes the total time of one Submit call
func RecordGatewaySubmission(outcome string, duration time.Duration) {
	gatewayRequestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordGatewayResult counts a decoded RESULT code for an operation
func RecordGatewayResult(operation string, result int) {
	gatewayResultsTotal.WithLabelValues(operation, strconv.Itoa(result)).Inc()
}

// SetCircuitBreakerState publishes the breaker state
func SetCircuitBreakerState(state int) {
	circuitBreakerState.Set(float64(state))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler records request count and latency for route
func InstrumentHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
