package prediction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/didagoals/internal/goals"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		wantStatus   Status
		wantExpected int
		wantDate     string
	}{
		{
			name:         "ahead",
			in:           Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 70, Today: *date("2024-01-06")},
			wantStatus:   StatusAhead,
			wantExpected: 50,
			wantDate:     "2024-01-08",
		},
		{
			name:         "behind",
			in:           Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 20, Today: *date("2024-01-06")},
			wantStatus:   StatusBehind,
			wantExpected: 50,
			wantDate:     "2024-01-26",
		},
		{
			name:         "on track",
			in:           Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 50, Today: *date("2024-01-06")},
			wantStatus:   StatusOnTrack,
			wantExpected: 50,
			wantDate:     "2024-01-11",
		},
		{
			name:         "complete",
			in:           Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 100, Today: *date("2024-01-06")},
			wantStatus:   StatusAhead,
			wantExpected: 50,
			wantDate:     "2024-01-06",
		},
		{
			name:         "no progress yet",
			in:           Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 0, Today: *date("2024-01-06")},
			wantStatus:   StatusBehind,
			wantExpected: 50,
		},
		{
			name:         "first day gives no rate",
			in:           Input{Start: date("2024-01-06"), Due: date("2024-01-11"), Progress: 30, Today: *date("2024-01-06")},
			wantStatus:   StatusAhead,
			wantExpected: 0,
		},
		{
			name:         "same start and due",
			in:           Input{Start: date("2024-01-06"), Due: date("2024-01-06"), Progress: 90, Today: *date("2024-01-06")},
			wantStatus:   StatusOnTrack,
			wantExpected: 100,
		},
		{
			name:         "before start",
			in:           Input{Start: date("2024-02-01"), Due: date("2024-03-01"), Progress: 0, Today: *date("2024-01-06")},
			wantStatus:   StatusOnTrack,
			wantExpected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Predict(tt.in)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantExpected, got.ExpectedProgress)
			assert.Equal(t, messages[tt.wantStatus], got.Message)
			if tt.wantDate == "" {
				assert.Nil(t, got.CompletionDate)
			} else {
				require.NotNil(t, got.CompletionDate)
				assert.Equal(t, tt.wantDate, *got.CompletionDate)
			}
		})
	}
}

func TestPredict_DayCounts(t *testing.T) {
	got := Predict(Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 70, Today: *date("2024-01-06")})
	assert.Equal(t, 10, got.TotalDays)
	assert.Equal(t, 5, got.ElapsedDays)
	assert.Equal(t, 5, got.RemainingDays)
	assert.Equal(t, 70, got.CurrentProgress)
}

func TestPredict_Overdue(t *testing.T) {
	got := Predict(Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 80, Today: *date("2024-01-12")})

	assert.Equal(t, StatusOverdue, got.Status)
	assert.Equal(t, "目标已逾期", got.Message)
	assert.Equal(t, 100, got.ExpectedProgress)
	assert.Nil(t, got.CompletionDate)
	assert.Equal(t, 0, got.RemainingDays)
	assert.Equal(t, 11, got.ElapsedDays)
}

func TestPredict_MissingDates(t *testing.T) {
	got := Predict(Input{Due: date("2024-01-11"), Today: *date("2024-01-06")})
	assert.Equal(t, StatusMissingDates, got.Status)
	assert.Equal(t, "目标缺少开始日期或截止日期，无法预测", got.Message)
}

func TestPredict_ClampsProgress(t *testing.T) {
	got := Predict(Input{Start: date("2024-01-01"), Due: date("2024-01-11"), Progress: 150, Today: *date("2024-01-06")})
	assert.Equal(t, 100, got.CurrentProgress)
	require.NotNil(t, got.CompletionDate)
	assert.Equal(t, "2024-01-06", *got.CompletionDate)
}

func TestForGoal(t *testing.T) {
	today := *date("2024-01-06")

	tests := []struct {
		name string
		goal goals.Goal
		want Status
	}{
		{
			name: "phase with dates",
			goal: goals.Goal{Type: goals.TypePhase, StartDate: "2024-01-01", DueDate: "2024-01-11", Progress: 70},
			want: StatusAhead,
		},
		{
			name: "permanent with dates",
			goal: goals.Goal{Type: goals.TypePermanent, StartDate: "2024-01-01", DueDate: "2024-01-11", Progress: 50},
			want: StatusOnTrack,
		},
		{
			name: "phase without start",
			goal: goals.Goal{Type: goals.TypePhase, DueDate: "2024-01-11"},
			want: StatusMissingDates,
		},
		{
			name: "project based without dates",
			goal: goals.Goal{Type: goals.TypeProjectBased},
			want: StatusMissingDates,
		},
		{
			name: "unparsable dates",
			goal: goals.Goal{Type: goals.TypePhase, StartDate: "someday", DueDate: "2024-01-11"},
			want: StatusInvalidDates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForGoal(&tt.goal, today)
			assert.Equal(t, tt.want, got.Status)
			assert.NotEmpty(t, got.Message)
		})
	}
}
