package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	Cron import run (30m)
//	  ↓
//	Gateway operation (285s - three attempts plus two retry pauses)
//	  ↓
//	Gateway attempt (90s - one HTTP round trip)
//	  ↓
//	Database query (5s)
type TimeoutConfig struct {
	CronJob          time.Duration // whole import run across all profiles
	GatewayOperation time.Duration // one logical gateway call including retries
	GatewayAttempt   time.Duration // single HTTP attempt, used as the client timeout
	DatabaseQuery    time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		CronJob:          30 * time.Minute,
		GatewayOperation: 285 * time.Second,
		GatewayAttempt:   90 * time.Second,
		DatabaseQuery:    5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		CronJob:          30 * time.Second,
		GatewayOperation: 5 * time.Second,
		GatewayAttempt:   2 * time.Second,
		DatabaseQuery:    1 * time.Second,
	}
}

// CronContext creates a context with timeout for cron jobs
func (tc *TimeoutConfig) CronContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.CronJob)
}

// GatewayContext bounds a single logical gateway operation.
func (tc *TimeoutConfig) GatewayContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.GatewayOperation)
}

// QueryContext creates a context for a database round trip
func (tc *TimeoutConfig) QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.DatabaseQuery)
}
