package shutdown

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InFlightTracker lets shutdown wait for import runs that already started
// while refusing new ones.
type InFlightTracker struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	stopping bool
	logger   *zap.Logger
	name     string
}

// NewInFlightTracker creates a tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{logger: logger, name: name}
}

// Add registers one unit of work. It returns false once shutdown has begun.
func (ift *InFlightTracker) Add() bool {
	ift.mu.Lock()
	defer ift.mu.Unlock()
	if ift.stopping {
		return false
	}
	ift.wg.Add(1)
	return true
}

// Done marks one unit of work finished
func (ift *InFlightTracker) Done() {
	ift.wg.Done()
}

// IsShuttingDown reports whether Shutdown has been called
func (ift *InFlightTracker) IsShuttingDown() bool {
	ift.mu.Lock()
	defer ift.mu.Unlock()
	return ift.stopping
}

// Run executes fn as tracked work; false means it was refused
func (ift *InFlightTracker) Run(fn func()) bool {
	if !ift.Add() {
		return false
	}
	defer ift.Done()
	fn()
	return true
}

// Middleware answers 503 once shutdown has begun and tracks the rest
func (ift *InFlightTracker) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ift.Add() {
			w.Header().Set("Connection", "close")
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		defer ift.Done()
		next(w, r)
	}
}

// Shutdown refuses new work and waits for running work or ctx
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	ift.mu.Lock()
	ift.stopping = true
	ift.mu.Unlock()

	ift.logger.Info("Waiting for in-flight work to complete", zap.String("tracker", ift.name))

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout - some work may be incomplete",
			zap.String("tracker", ift.name),
		)
		return ctx.Err()
	}
}

// PeriodicWorker runs work on a fixed interval until stopped. The first run
// happens one interval after Start.
type PeriodicWorker struct {
	name     string
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// NewPeriodicWorker creates a worker; call Start to begin
func NewPeriodicWorker(name string, interval time.Duration, logger *zap.Logger) *PeriodicWorker {
	return &PeriodicWorker{
		name:     name,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the loop. work must honour ctx.
func (pw *PeriodicWorker) Start(parent context.Context, work func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(parent)
	pw.cancel = cancel

	go func() {
		defer close(pw.done)
		ticker := time.NewTicker(pw.interval)
		defer ticker.Stop()

		pw.logger.Info("Periodic worker started",
			zap.String("worker", pw.name),
			zap.Duration("interval", pw.interval),
		)
		for {
			select {
			case <-ctx.Done():
				pw.logger.Info("Periodic worker stopped", zap.String("worker", pw.name))
				return
			case <-ticker.C:
				work(ctx)
			}
		}
	}()
}

// Shutdown cancels the loop and waits for the current run to return
func (pw *PeriodicWorker) Shutdown(ctx context.Context) error {
	pw.once.Do(func() {
		if pw.cancel != nil {
			pw.cancel()
		} else {
			close(pw.done)
		}
	})
	select {
	case <-pw.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
