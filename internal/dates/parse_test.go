package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "iso", input: "2024-01-06", want: "2024-01-06"},
		{name: "slashes", input: "2024/01/06", want: "2024-01-06"},
		{name: "dots", input: "2024.01.06", want: "2024-01-06"},
		{name: "day first", input: "06-01-2024", want: "2024-01-06"},
		{name: "month first when day first fails", input: "01/31/2024", want: "2024-01-31"},
		{name: "surrounding space", input: "  2024-02-29 ", want: "2024-02-29"},
		{name: "empty", input: "", wantErr: true},
		{name: "not a date", input: "tomorrow", wantErr: true},
		{name: "impossible day", input: "2023-02-29", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, time.UTC)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestParse_UsesLocation(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	got, err := Parse("2024-01-06", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 0, got.Hour())
}

func TestNormalizeAndValid(t *testing.T) {
	got, err := Normalize("2024/3/9")
	assert.Error(t, err, "single digit fields are not accepted")
	assert.Empty(t, got)

	got, err = Normalize("2024/03/09")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", got)

	assert.True(t, Valid("09.03.2024"))
	assert.False(t, Valid("2024-13-01"))
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 11, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 10, DaysBetween(start, end))
	assert.Equal(t, -10, DaysBetween(end, start))
	assert.Equal(t, 0, DaysBetween(start, start))
}

func TestDay(t *testing.T) {
	in := time.Date(2024, 5, 5, 17, 30, 12, 99, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), Day(in))
}
