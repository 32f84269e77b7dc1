package domain

import (
	"fmt"
	"time"

	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
	"github.com/kevin07696/payflow-reconciler/pkg/timeutil"
)

// PayPeriod is the gateway's code for a billing frequency
type PayPeriod string

const (
	PayPeriodWeekly     PayPeriod = "WEEK"
	PayPeriodBiWeekly   PayPeriod = "BIWK"
	PayPeriodFourWeeks  PayPeriod = "FRWK"
	PayPeriodMonthly    PayPeriod = "MONT"
	PayPeriodQuarterly  PayPeriod = "QTER"
	PayPeriodSemiYearly PayPeriod = "SMYR"
	PayPeriodYearly     PayPeriod = "YEAR"
)

type frequency struct {
	interval int
	unit     FrequencyUnit
}

var payPeriods = map[frequency]PayPeriod{
	{1, FrequencyUnitWeek}:  PayPeriodWeekly,
	{2, FrequencyUnitWeek}:  PayPeriodBiWeekly,
	{4, FrequencyUnitWeek}:  PayPeriodFourWeeks,
	{1, FrequencyUnitMonth}: PayPeriodMonthly,
	{3, FrequencyUnitMonth}: PayPeriodQuarterly,
	{6, FrequencyUnitMonth}: PayPeriodSemiYearly,
	{1, FrequencyUnitYear}:  PayPeriodYearly,
}

// RecurringSchedule is what the gateway needs to set up a recurring profile.
type RecurringSchedule struct {
	Start     time.Time  // first scheduled charge after the immediate sale
	End       *time.Time // nil when unbounded
	PayPeriod PayPeriod
	Term      int // remaining installments, 0 = until cancelled
}

// Bounded returns true when the profile stops after Term payments
func (s *RecurringSchedule) Bounded() bool {
	return s.Term > 0
}

// StartField renders Start the way the gateway expects (MMDDYYYY).
func (s *RecurringSchedule) StartField() string {
	return timeutil.FormatPayflowDate(s.Start)
}

// IsRecurringInstallments reports whether a payment with this many
// installments sets up a profile. A single installment is a plain sale.
func IsRecurringInstallments(installments int) bool {
	return installments != 1
}

// PayPeriodFor looks up the gateway period code for a frequency.
func PayPeriodFor(interval int, unit FrequencyUnit) (PayPeriod, error) {
	period, ok := payPeriods[frequency{interval, unit}]
	if !ok {
		return "", fmt.Errorf("%w: every %d %s", pkgerrors.ErrUnsupportedRecurrenceInterval, interval, unit)
	}
	return period, nil
}

// TranslateSchedule maps a billing frequency onto a gateway schedule
// starting from today. installments counts the immediate sale, so the
// remaining term is installments-1; zero installments means unbounded.
//
// Month and year arithmetic normalizes like time.AddDate: Jan 31 plus one
// month is Mar 3 (or Mar 2 in a leap year).
func TranslateSchedule(interval int, unit FrequencyUnit, installments int, today time.Time) (*RecurringSchedule, error) {
	period, err := PayPeriodFor(interval, unit)
	if err != nil {
		return nil, err
	}
	if installments < 0 {
		return nil, pkgerrors.NewValidationError("installments", "must not be negative")
	}
	if !IsRecurringInstallments(installments) {
		return nil, pkgerrors.NewValidationError("installments", "a single installment is not a recurring payment")
	}

	day := timeutil.StartOfDay(today)
	schedule := &RecurringSchedule{
		PayPeriod: period,
		Start:     advance(day, unit, interval),
	}
	if installments > 0 {
		schedule.Term = installments - 1
		end := advance(day, unit, interval*schedule.Term)
		schedule.End = &end
	}
	return schedule, nil
}

func advance(t time.Time, unit FrequencyUnit, n int) time.Time {
	switch unit {
	case FrequencyUnitWeek:
		return t.AddDate(0, 0, n*7)
	case FrequencyUnitMonth:
		return t.AddDate(0, n, 0)
	case FrequencyUnitYear:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}
