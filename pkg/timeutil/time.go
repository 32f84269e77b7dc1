package timeutil

import (
	"fmt"
	"time"
)

// Gateway date layouts.
const (
	PayflowDateLayout      = "01022006"          // START: MMDDYYYY
	PayflowTransTimeLayout = "02-Jan-06 03:04PM" // P_TRANSTIMEn
	payflowTransTimeSpaced = "02-Jan-06 03:04 PM"
	CardExpiryLayout       = "0106"              // EXPDATE: MMYY
)

// Clock supplies the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t.UTC() }
}

// ParseDate parses a date string and returns a UTC time
func ParseDate(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FormatPayflowDate renders t as MMDDYYYY.
func FormatPayflowDate(t time.Time) string {
	return t.UTC().Format(PayflowDateLayout)
}

// ParseTransTime parses a history timestamp such as "28-Jun-12 11:44AM"
// or "28-Jun-12 11:44 AM". The gateway sends no zone; the value is taken as UTC.
func ParseTransTime(value string) (time.Time, error) {
	t, err := ParseDate(PayflowTransTimeLayout, value)
	if err == nil {
		return t, nil
	}
	if spaced, serr := ParseDate(payflowTransTimeSpaced, value); serr == nil {
		return spaced, nil
	}
	return time.Time{}, fmt.Errorf("parse transaction time %q: %w", value, err)
}

// FormatCardExpiry renders month and year as MMYY.
func FormatCardExpiry(month, year int) string {
	return fmt.Sprintf("%02d%02d", month, year%100)
}
