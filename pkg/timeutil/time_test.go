package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow_AlwaysUTC(t *testing.T) {
	now := Now()

	if now.Location() != time.UTC {
		t.Errorf("Now() returned non-UTC timezone: %v", now.Location())
	}
}

func TestFixed(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	clock := Fixed(time.Date(2024, 3, 10, 22, 0, 0, 0, loc))

	got := clock()
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 11, got.Day())
}

func TestStartOfDay(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "midnight UTC",
			input:    time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
			expected: "2025-11-20 00:00:00 +0000 UTC",
		},
		{
			name:     "noon UTC",
			input:    time.Date(2025, 11, 20, 12, 30, 45, 0, time.UTC),
			expected: "2025-11-20 00:00:00 +0000 UTC",
		},
		{
			name:     "late evening west of UTC rolls forward",
			input:    time.Date(2025, 11, 20, 22, 0, 0, 0, time.FixedZone("PST", -8*3600)),
			expected: "2025-11-21 00:00:00 +0000 UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StartOfDay(tt.input)

			if result.String() != tt.expected {
				t.Errorf("StartOfDay() = %v, want %v", result, tt.expected)
			}

			if result.Location() != time.UTC {
				t.Errorf("StartOfDay() returned non-UTC: %v", result.Location())
			}
		})
	}
}

func TestFormatPayflowDate(t *testing.T) {
	assert.Equal(t, "03152024", FormatPayflowDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12012025", FormatPayflowDate(time.Date(2025, 12, 1, 23, 59, 0, 0, time.UTC)))
}

func TestParseTransTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "morning",
			input: "28-Jun-12 11:44AM",
			want:  time.Date(2012, 6, 28, 11, 44, 0, 0, time.UTC),
		},
		{
			name:  "afternoon",
			input: "02-Jul-12 04:05PM",
			want:  time.Date(2012, 7, 2, 16, 5, 0, 0, time.UTC),
		},
		{
			name:  "space before meridiem",
			input: "21-May-04 04:47 PM",
			want:  time.Date(2004, 5, 21, 16, 47, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTransTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestFormatCardExpiry(t *testing.T) {
	assert.Equal(t, "0927", FormatCardExpiry(9, 2027))
	assert.Equal(t, "1230", FormatCardExpiry(12, 30))
}
