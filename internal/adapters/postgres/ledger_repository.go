package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

const ledgerColumns = `id::text, recurring_payment_id::text, trxn_id, amount, status,
	receive_date, cancel_date, cancel_reason, is_test, created_at, updated_at`

// LedgerRepository implements ports.LocalLedger
type LedgerRepository struct {
	db *DBExecutor
}

var _ ports.LocalLedger = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *DBExecutor) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Query returns the profile's entries, most recent first
func (r *LedgerRepository) Query(ctx context.Context, recurringPaymentID string, isTest bool) ([]*domain.LedgerEntry, error) {
	profileID, err := parseID("recurring payment", recurringPaymentID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	rows, err := r.db.GetDB().Query(ctx, `SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE recurring_payment_id = $1 AND is_test = $2
		ORDER BY receive_date DESC, created_at DESC`, profileID, isTest)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// Create inserts a Pending entry and returns its id
func (r *LedgerRepository) Create(ctx context.Context, params *domain.CreateLedgerEntryParams) (string, error) {
	profileID, err := parseID("recurring payment", params.RecurringPaymentID)
	if err != nil {
		return "", err
	}
	amount, err := decimalToNumeric(params.Amount)
	if err != nil {
		return "", err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	var id string
	err = r.db.GetDB().QueryRow(ctx, `INSERT INTO ledger_entries
		(recurring_payment_id, trxn_id, amount, status, receive_date, is_test)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text`,
		profileID, params.TrxnID, amount, string(domain.LedgerStatusPending), params.ReceiveDate, params.IsTest,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create ledger entry: %w", err)
	}
	return id, nil
}

// MarkCompleted settles an entry. Completing an already completed entry is a no-op.
func (r *LedgerRepository) MarkCompleted(ctx context.Context, params *domain.CompleteLedgerEntryParams) error {
	entryID, err := parseID("ledger entry", params.EntryID)
	if err != nil {
		return err
	}
	amount, err := decimalToNumeric(params.Amount)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM ledger_entries WHERE id = $1 FOR UPDATE`, entryID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrLedgerEntryNotFound.WithDetail("entry_id", params.EntryID)
		}
		if err != nil {
			return fmt.Errorf("lock ledger entry: %w", err)
		}
		if status == string(domain.LedgerStatusCompleted) {
			return nil
		}

		_, err = tx.Exec(ctx, `UPDATE ledger_entries
			SET status = $2, receive_date = $3, trxn_id = $4, amount = $5, updated_at = NOW()
			WHERE id = $1`,
			entryID, string(domain.LedgerStatusCompleted), params.TrxnDate, params.TrxnID, amount)
		if err != nil {
			return fmt.Errorf("complete ledger entry: %w", err)
		}
		return nil
	})
}

// MarkFailed records a failed installment with the gateway's reason
func (r *LedgerRepository) MarkFailed(ctx context.Context, params *domain.FailLedgerEntryParams) error {
	entryID, err := parseID("ledger entry", params.EntryID)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	tag, err := r.db.GetDB().Exec(ctx, `UPDATE ledger_entries
		SET status = $2, cancel_date = $3, cancel_reason = $4, updated_at = NOW()
		WHERE id = $1`,
		entryID, string(domain.LedgerStatusFailed), params.CancelDate, nullText(params.CancelReason))
	if err != nil {
		return fmt.Errorf("fail ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLedgerEntryNotFound.WithDetail("entry_id", params.EntryID)
	}
	return nil
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry        domain.LedgerEntry
		status       string
		amount       pgtype.Numeric
		cancelDate   pgtype.Timestamptz
		cancelReason pgtype.Text
	)
	err := row.Scan(
		&entry.ID,
		&entry.RecurringPaymentID,
		&entry.TrxnID,
		&amount,
		&status,
		&entry.ReceiveDate,
		&cancelDate,
		&cancelReason,
		&entry.IsTest,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}

	entry.Amount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}
	entry.Status = domain.LedgerStatus(status)
	entry.CancelDate = timePtr(cancelDate)
	entry.CancelReason = cancelReason.String
	entry.ReceiveDate = entry.ReceiveDate.UTC()
	return &entry, nil
}
