package payflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
	pkghttp "github.com/kevin07696/payflow-reconciler/pkg/http"
	"github.com/kevin07696/payflow-reconciler/pkg/observability"
	"github.com/kevin07696/payflow-reconciler/pkg/resilience"
)

// TransportConfig contains configuration for the gateway HTTPS transport
type TransportConfig struct {
	// IntegrationProduct is sent as X-VPS-VIT-Integration-Product
	IntegrationProduct string
	// VPSTimeout is the server-side processing hint sent as X-VPS-Timeout
	VPSTimeout time.Duration
	// AttemptTimeout bounds a single HTTP round trip
	AttemptTimeout time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
	VerifySSL      bool
}

// DefaultTransportConfig returns the gateway's documented client settings
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		IntegrationProduct: "payflow-reconciler",
		VPSTimeout:         45 * time.Second,
		AttemptTimeout:     90 * time.Second,
		MaxAttempts:        3,
		RetryDelay:         5 * time.Second,
		VerifySSL:          true,
	}
}

// Transport posts encoded requests to the gateway and returns the raw body.
type Transport struct {
	client       ports.HTTPClient
	config       TransportConfig
	backoff      resilience.BackoffStrategy
	breaker      *CircuitBreaker
	sleep        resilience.SleepFunc
	newRequestID func() string
	logger       *zap.Logger
}

// TransportOption customises a Transport
type TransportOption func(*Transport)

// WithHTTPClient replaces the default pooled client
func WithHTTPClient(client ports.HTTPClient) TransportOption {
	return func(t *Transport) { t.client = client }
}

// WithCircuitBreaker wraps every submission in the breaker
func WithCircuitBreaker(cb *CircuitBreaker) TransportOption {
	return func(t *Transport) { t.breaker = cb }
}

// WithSleep replaces the delay between attempts
func WithSleep(sleep resilience.SleepFunc) TransportOption {
	return func(t *Transport) { t.sleep = sleep }
}

// WithRequestIDFunc replaces the X-VPS-Request-ID generator
func WithRequestIDFunc(fn func() string) TransportOption {
	return func(t *Transport) { t.newRequestID = fn }
}

// NewTransport creates a gateway transport
func NewTransport(config TransportConfig, logger *zap.Logger, opts ...TransportOption) *Transport {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	t := &Transport{
		config:       config,
		backoff:      &resilience.FixedBackoff{Delay: config.RetryDelay},
		sleep:        resilience.Sleep,
		newRequestID: NewRequestID,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = pkghttp.NewHTTPClient(pkghttp.PayflowClientConfig(config.VerifySSL), config.AttemptTimeout)
	}
	return t
}

// NewRequestID returns a random 32 character hex id
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Submit posts payload to endpoint. Only a non-200 status is retried; a
// network error ends the call at once. One request id covers every attempt
// so the gateway can deduplicate.
func (t *Transport) Submit(ctx context.Context, endpoint, payload string) (string, error) {
	start := time.Now()
	var body string

	err := t.breaker.Call(func() error {
		var err error
		body, err = t.submit(ctx, endpoint, payload)
		return err
	})

	switch {
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrTooManyRequests):
		t.logger.Warn("Circuit breaker is open, rejecting gateway request",
			zap.String("endpoint", endpoint),
			zap.String("state", t.breaker.State().String()),
		)
		observability.RecordGatewaySubmission("circuit_open", time.Since(start))
		return "", pkgerrors.Unreachable(err)
	case err != nil:
		observability.RecordGatewaySubmission(pkgerrors.Kind(err), time.Since(start))
		return "", err
	}

	observability.RecordGatewaySubmission("ok", time.Since(start))
	return body, nil
}

func (t *Transport) submit(ctx context.Context, endpoint, payload string) (string, error) {
	requestID := t.newRequestID()
	lastStatus := 0

	for attempt := 1; attempt <= t.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := t.backoff.NextDelay(attempt - 1)
			observability.RecordGatewayRetry()
			t.logger.Warn("Retrying gateway request",
				zap.Int("attempt", attempt),
				zap.Int("last_status", lastStatus),
				zap.Duration("delay", delay),
			)
			if err := t.sleep(ctx, delay); err != nil {
				return "", pkgerrors.Unreachable(fmt.Errorf("retry cancelled: %w", err))
			}
		}

		attemptStart := time.Now()
		status, body, err := t.post(ctx, endpoint, payload, requestID)
		if err != nil {
			observability.RecordGatewayAttempt(0)
			t.logger.Error("Failed to send gateway request",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Duration("elapsed", time.Since(attemptStart)),
			)
			return "", pkgerrors.Unreachable(err)
		}
		observability.RecordGatewayAttempt(status)

		t.logger.Debug("Received gateway response",
			zap.Int("status", status),
			zap.Int("attempt", attempt),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", time.Since(attemptStart)),
		)

		if status == http.StatusOK {
			if body == "" {
				return "", pkgerrors.EmptyResponse(endpoint)
			}
			return body, nil
		}
		lastStatus = status
	}

	return "", pkgerrors.Unreachable(fmt.Errorf("gateway returned HTTP %d after %d attempts", lastStatus, t.config.MaxAttempts))
}

func (t *Transport) post(ctx context.Context, endpoint, payload, requestID string) (int, string, error) {
	if t.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.AttemptTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = int64(len(payload))
	req.Header.Set("Content-Type", "text/namevalue")
	req.Header.Set("Content-Length", strconv.Itoa(len(payload)))
	req.Header.Set("X-VPS-Timeout", strconv.Itoa(int(t.config.VPSTimeout/time.Second)))
	req.Header.Set("X-VPS-Request-ID", requestID)
	req.Header.Set("X-VPS-VIT-Integration-Product", t.config.IntegrationProduct)

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, string(raw), nil
}
