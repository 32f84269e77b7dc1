package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

const profileColumns = `id::text, processor_id, amount, currency, frequency_unit, frequency_interval,
	term_count, start_date, end_date, status, is_test, cancelled_at, created_at, updated_at`

// RecurringProfileRepository implements ports.RecurringProfileStore
type RecurringProfileRepository struct {
	db *DBExecutor
}

var _ ports.RecurringProfileStore = (*RecurringProfileRepository)(nil)

// NewRecurringProfileRepository creates a new recurring profile repository
func NewRecurringProfileRepository(db *DBExecutor) *RecurringProfileRepository {
	return &RecurringProfileRepository{db: db}
}

// Create inserts a profile, assigning an id when it has none
func (r *RecurringProfileRepository) Create(ctx context.Context, profile *domain.RecurringProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	id, err := parseID("recurring profile", profile.ID)
	if err != nil {
		return err
	}
	amount, err := decimalToNumeric(profile.Amount)
	if err != nil {
		return err
	}
	if profile.Status == "" {
		profile.Status = domain.ProfileStatusPending
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	err = r.db.GetDB().QueryRow(ctx, `INSERT INTO recurring_profiles
		(id, processor_id, amount, currency, frequency_unit, frequency_interval, term_count, start_date, end_date, status, is_test)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		id,
		nullText(profile.ProcessorID),
		amount,
		profile.Currency,
		string(profile.FrequencyUnit),
		profile.FrequencyInterval,
		profile.TermCount,
		nullDate(nonZero(profile.StartDate)),
		nullDate(profile.EndDate),
		string(profile.Status),
		profile.IsTest,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create recurring profile: %w", err)
	}
	return nil
}

// Get returns a profile by id
func (r *RecurringProfileRepository) Get(ctx context.Context, id string) (*domain.RecurringProfile, error) {
	profileID, err := parseID("recurring profile", id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	row := r.db.GetDB().QueryRow(ctx, `SELECT `+profileColumns+` FROM recurring_profiles WHERE id = $1`, profileID)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound.WithDetail("profile_id", id)
	}
	return profile, err
}

// List returns the profiles known to the gateway, oldest first
func (r *RecurringProfileRepository) List(ctx context.Context, filter domain.ProfileFilter) ([]*domain.RecurringProfile, error) {
	var processorIDs []string
	if len(filter.ProcessorIDs) > 0 {
		processorIDs = filter.ProcessorIDs
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	rows, err := r.db.GetDB().Query(ctx, `SELECT `+profileColumns+`
		FROM recurring_profiles
		WHERE processor_id IS NOT NULL
		  AND is_test = $1
		  AND ($2::text[] IS NULL OR processor_id = ANY($2::text[]))
		ORDER BY created_at, id`, filter.IsTest, processorIDs)
	if err != nil {
		return nil, fmt.Errorf("list recurring profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*domain.RecurringProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring profiles: %w", err)
	}
	return profiles, nil
}

// SetProcessorID stores the gateway profile id and schedule and activates the profile
func (r *RecurringProfileRepository) SetProcessorID(ctx context.Context, id, processorID string, schedule *domain.RecurringSchedule) error {
	profileID, err := parseID("recurring profile", id)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM recurring_profiles WHERE id = $1 FOR UPDATE`, profileID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProfileNotFound.WithDetail("profile_id", id)
		}
		if err != nil {
			return fmt.Errorf("lock recurring profile: %w", err)
		}

		var (
			payPeriod pgtype.Text
			start     pgtype.Date
			end       pgtype.Date
			term      int
		)
		if schedule != nil {
			payPeriod = nullText(string(schedule.PayPeriod))
			start = nullDate(&schedule.Start)
			end = nullDate(schedule.End)
			term = schedule.Term
		}

		_, err = tx.Exec(ctx, `UPDATE recurring_profiles
			SET processor_id = $2,
			    pay_period = COALESCE($3, pay_period),
			    start_date = COALESCE($4, start_date),
			    end_date = $5,
			    term_count = $6,
			    status = $7,
			    updated_at = NOW()
			WHERE id = $1`,
			profileID, processorID, payPeriod, start, end, term, string(domain.ProfileStatusActive))
		if err != nil {
			return fmt.Errorf("set processor id: %w", err)
		}
		return nil
	})
}

// UpdateAmount changes the recurring amount
func (r *RecurringProfileRepository) UpdateAmount(ctx context.Context, id string, amount decimal.Decimal, currency string) error {
	profileID, err := parseID("recurring profile", id)
	if err != nil {
		return err
	}
	num, err := decimalToNumeric(amount)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	tag, err := r.db.GetDB().Exec(ctx, `UPDATE recurring_profiles
		SET amount = $2, currency = $3, updated_at = NOW()
		WHERE id = $1`, profileID, num, currency)
	if err != nil {
		return fmt.Errorf("update recurring amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound.WithDetail("profile_id", id)
	}
	return nil
}

// MarkCancelled flags the profile cancelled at the given time
func (r *RecurringProfileRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	profileID, err := parseID("recurring profile", id)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.QueryContext(ctx)
	defer cancel()

	tag, err := r.db.GetDB().Exec(ctx, `UPDATE recurring_profiles
		SET status = $2, cancelled_at = $3, updated_at = NOW()
		WHERE id = $1`, profileID, string(domain.ProfileStatusCancelled), at)
	if err != nil {
		return fmt.Errorf("cancel recurring profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound.WithDetail("profile_id", id)
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.RecurringProfile, error) {
	var (
		p           domain.RecurringProfile
		processorID pgtype.Text
		amount      pgtype.Numeric
		unit        string
		status      string
		startDate   pgtype.Date
		endDate     pgtype.Date
		cancelledAt pgtype.Timestamptz
	)
	err := row.Scan(
		&p.ID,
		&processorID,
		&amount,
		&p.Currency,
		&unit,
		&p.FrequencyInterval,
		&p.TermCount,
		&startDate,
		&endDate,
		&status,
		&p.IsTest,
		&cancelledAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan recurring profile: %w", err)
	}

	p.Amount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}
	p.ProcessorID = processorID.String
	p.FrequencyUnit = domain.FrequencyUnit(unit)
	p.Status = domain.ProfileStatus(status)
	if startDate.Valid {
		p.StartDate = startDate.Time.UTC()
	}
	p.EndDate = datePtr(endDate)
	p.CancelledAt = timePtr(cancelledAt)
	return &p, nil
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
