package reconciliation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
	"github.com/kevin07696/payflow-reconciler/pkg/observability"
	"github.com/kevin07696/payflow-reconciler/pkg/timeutil"
)

// Config tunes an import run
type Config struct {
	// Workers bounds how many distinct profiles reconcile at once. 1 is sequential.
	Workers int

	// DefaultScope is used when a run does not name one.
	DefaultScope domain.HistoryScope
}

// DefaultConfig returns sequential reconciliation over the full history
func DefaultConfig() Config {
	return Config{
		Workers:      1,
		DefaultScope: domain.HistoryScopeAll,
	}
}

// profileLoggers is implemented by loggers that can scope themselves to a
// gateway profile.
type profileLoggers interface {
	ForProfile(processorID string) ports.Logger
}

// Service keeps the local ledger in step with the gateway's recurring
// payment history.
type Service struct {
	gateway     ports.PayflowGateway
	ledger      ports.LocalLedger
	profiles    ports.RecurringProfileStore
	credentials ports.CredentialProvider
	locker      ports.ProfileLocker
	config      Config
	logger      ports.Logger
	clock       timeutil.Clock
}

// NewService creates a new reconciliation service
func NewService(
	gateway ports.PayflowGateway,
	ledger ports.LocalLedger,
	profiles ports.RecurringProfileStore,
	credentials ports.CredentialProvider,
	locker ports.ProfileLocker,
	config Config,
	logger ports.Logger,
) *Service {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if !config.DefaultScope.Valid() {
		config.DefaultScope = domain.HistoryScopeAll
	}
	return &Service{
		gateway:     gateway,
		ledger:      ledger,
		profiles:    profiles,
		credentials: credentials,
		locker:      locker,
		config:      config,
		logger:      logger,
		clock:       timeutil.Now,
	}
}

// GetRecurPaymentHistory returns the gateway's history for one profile.
func (s *Service) GetRecurPaymentHistory(ctx context.Context, processorID string, scope domain.HistoryScope) (*domain.PaymentHistory, error) {
	if processorID == "" {
		return nil, domain.ErrProfileNoProcessorID
	}
	return s.gateway.RecurringHistory(ctx, processorID, s.scope(scope))
}

// ImportLatestRecurPayments reconciles every profile that belongs to the
// processor's live/test mode, optionally narrowed to processorIDs. A profile
// whose history cannot be fetched is reported in its outcome and the run
// carries on.
func (s *Service) ImportLatestRecurPayments(ctx context.Context, processorIDs []string, scope domain.HistoryScope) (*domain.ImportSummary, error) {
	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gateway credentials: %w", err)
	}

	profiles, err := s.profiles.List(ctx, domain.ProfileFilter{
		IsTest:       creds.IsTest,
		ProcessorIDs: processorIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("list recurring profiles: %w", err)
	}

	summary := &domain.ImportSummary{
		StartedAt: s.clock(),
		Outcomes:  make([]*domain.ReconciliationOutcome, len(profiles)),
	}

	s.logger.Info("Importing recurring payments",
		ports.Int("profiles", len(profiles)),
		ports.Int("workers", s.config.Workers),
		ports.Bool("is_test", creds.IsTest),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, profile := range profiles {
		i, profile := i, profile
		g.Go(func() error {
			summary.Outcomes[i] = s.ReconcileProfile(gctx, profile, scope)
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = s.clock()
	observability.MarkReconciliationRun(float64(summary.FinishedAt.Unix()))

	s.logger.Info("Recurring payment import finished",
		ports.Int("profiles", len(profiles)),
		ports.Int("created", summary.CreatedCount()),
		ports.Bool("clean", summary.Clean()),
		ports.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

// ReconcileProfile runs one pass over a single profile while holding its lock.
// Problems are reported in the outcome rather than returned.
func (s *Service) ReconcileProfile(ctx context.Context, profile *domain.RecurringProfile, scope domain.HistoryScope) *domain.ReconciliationOutcome {
	start := time.Now()
	outcome := domain.NewReconciliationOutcome(profile)
	logger := s.loggerFor(profile)

	defer func() {
		result := "clean"
		switch {
		case outcome.Error != "":
			result = "error"
		case len(outcome.Anomalies) > 0:
			result = "anomalies"
		}
		observability.RecordReconciliationProfile(result, time.Since(start).Seconds())
	}()

	if !profile.HasProcessorID() {
		outcome.Error = domain.ErrProfileNoProcessorID.Error()
		return outcome
	}

	unlock, err := s.locker.Lock(ctx, profile.ID)
	if err != nil {
		outcome.Error = fmt.Sprintf("lock profile: %v", err)
		logger.Error("Could not lock profile", ports.Err(err))
		return outcome
	}
	defer unlock()

	history, err := s.gateway.RecurringHistory(ctx, profile.ProcessorID, s.scope(scope))
	if err != nil {
		outcome.Error = err.Error()
		logger.Error("Failed to fetch payment history", ports.Err(err))
		return outcome
	}
	outcome.Anomalies = append(outcome.Anomalies, history.Anomalies...)

	local, err := s.ledger.Query(ctx, profile.ID, profile.IsTest)
	if err != nil {
		outcome.Error = fmt.Sprintf("query ledger: %v", err)
		logger.Error("Failed to query local ledger", ports.Err(err))
		return outcome
	}

	for _, record := range history.Records {
		local = s.applyRecord(ctx, profile, record, local, outcome, logger)
	}

	logger.Info("Profile reconciled",
		ports.Int("records", len(history.Records)),
		ports.Int("created", len(outcome.Created)),
		ports.Int("completed", len(outcome.Completed)),
		ports.Int("failed", len(outcome.Failed)),
		ports.Int("anomalies", len(outcome.Anomalies)),
	)
	return outcome
}

// applyRecord reconciles one remote record and returns the local list,
// extended with any entry it created.
func (s *Service) applyRecord(
	ctx context.Context,
	profile *domain.RecurringProfile,
	record *domain.PaymentHistoryRecord,
	local []*domain.LedgerEntry,
	outcome *domain.ReconciliationOutcome,
	logger ports.Logger,
) []*domain.LedgerEntry {
	anomaly := func(msg string) {
		outcome.Anomalies = append(outcome.Anomalies, domain.Anomaly{
			Index:   record.Index,
			TrxnID:  record.TrxnID,
			Message: msg,
		})
		observability.RecordReconciliationRecord("anomaly")
		logger.Warn("Skipped history record",
			ports.String("index", record.Index),
			ports.String("trxn_id", record.TrxnID),
			ports.String("reason", msg),
		)
	}

	if record.TrxnID == "" {
		anomaly("record has no transaction id")
		return local
	}

	detail := &domain.RecordDetail{
		TrxnID:      record.TrxnID,
		TrxnDate:    record.TrxnTimestamp,
		Description: record.StatusDescription,
	}

	entry := findEntry(local, record.TrxnID)
	if entry == nil {
		id, err := s.ledger.Create(ctx, &domain.CreateLedgerEntryParams{
			ReceiveDate:        record.TrxnTimestamp,
			RecurringPaymentID: profile.ID,
			TrxnID:             record.TrxnID,
			Amount:             record.Amount,
			IsTest:             profile.IsTest,
		})
		if err != nil {
			anomaly(fmt.Sprintf("create ledger entry: %v", err))
			return local
		}
		entry = &domain.LedgerEntry{
			ID:                 id,
			RecurringPaymentID: profile.ID,
			TrxnID:             record.TrxnID,
			Amount:             record.Amount,
			ReceiveDate:        record.TrxnTimestamp,
			Status:             domain.LedgerStatusPending,
			IsTest:             profile.IsTest,
		}
		local = append(local, entry)
		outcome.Created = append(outcome.Created, id)
		detail.Created = true
		observability.RecordReconciliationRecord("created")
	} else {
		outcome.Matched = append(outcome.Matched, entry.ID)
		detail.Existing = true
	}
	detail.EntryID = entry.ID

	switch record.MappedStatus {
	case domain.HistoryStatusCompleted:
		if entry.IsCompleted() {
			detail.AlreadyDone = true
			break
		}
		err := s.ledger.MarkCompleted(ctx, &domain.CompleteLedgerEntryParams{
			TrxnDate: record.TrxnTimestamp,
			EntryID:  entry.ID,
			TrxnID:   record.TrxnID,
			Amount:   record.Amount,
		})
		if err != nil {
			anomaly(fmt.Sprintf("mark completed: %v", err))
			break
		}
		entry.Status = domain.LedgerStatusCompleted
		outcome.Completed = append(outcome.Completed, entry.ID)
		detail.Completed = true
		observability.RecordReconciliationRecord("completed")

	case domain.HistoryStatusFailed:
		detail.Failed = true
		if entry.IsCompleted() {
			anomaly("gateway reports failure for a completed entry")
			break
		}
		if entry.Status == domain.LedgerStatusFailed {
			break
		}
		err := s.ledger.MarkFailed(ctx, &domain.FailLedgerEntryParams{
			CancelDate:   record.TrxnTimestamp,
			EntryID:      entry.ID,
			CancelReason: record.StatusDescription,
		})
		if err != nil {
			anomaly(fmt.Sprintf("mark failed: %v", err))
			break
		}
		entry.Status = domain.LedgerStatusFailed
		outcome.Failed = append(outcome.Failed, entry.ID)
		observability.RecordReconciliationRecord("failed")

	case domain.HistoryStatusPending:
		outcome.Pending = append(outcome.Pending, entry.ID)
		detail.Pending = true
		observability.RecordReconciliationRecord("pending")
	}

	outcome.Details = append(outcome.Details, detail)
	return local
}

// findEntry returns the first local entry whose trxn id contains remote.
func findEntry(local []*domain.LedgerEntry, remote string) *domain.LedgerEntry {
	for _, e := range local {
		if e.Matches(remote) {
			return e
		}
	}
	return nil
}

func (s *Service) scope(scope domain.HistoryScope) domain.HistoryScope {
	if scope.Valid() {
		return scope
	}
	return s.config.DefaultScope
}

func (s *Service) loggerFor(profile *domain.RecurringProfile) ports.Logger {
	if pl, ok := s.logger.(profileLoggers); ok {
		return pl.ForProfile(profile.ProcessorID)
	}
	return s.logger
}
