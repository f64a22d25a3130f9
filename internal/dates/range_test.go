package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	// Wednesday
	ref := time.Date(2024, 2, 14, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		period    string
		wantStart string
		wantEnd   string
	}{
		{PeriodDay, "2024-02-14", "2024-02-14"},
		{PeriodWeek, "2024-02-12", "2024-02-18"},
		{PeriodMonth, "2024-02-01", "2024-02-29"},
		{PeriodYear, "2024-01-01", "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			start, end, err := Range(tt.period, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, Format(start))
			assert.Equal(t, tt.wantEnd, Format(end))
		})
	}
}

func TestRange_WeekOnSunday(t *testing.T) {
	sunday := time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC)
	start, end, err := Range(PeriodWeek, sunday)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-12", Format(start))
	assert.Equal(t, "2024-02-18", Format(end))
}

func TestRange_Unsupported(t *testing.T) {
	_, _, err := Range("fortnight", time.Now())
	assert.Error(t, err)
}

func TestInRange(t *testing.T) {
	start := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC)

	assert.True(t, InRange(time.Date(2024, 2, 18, 23, 59, 0, 0, time.UTC), start, end))
	assert.True(t, InRange(start, start, end))
	assert.False(t, InRange(time.Date(2024, 2, 11, 23, 0, 0, 0, time.UTC), start, end))
	assert.False(t, InRange(time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC), start, end))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 31, DaysInMonth(2023, time.December))
}
