package leave

import (
	"testing"
	"time"

	leaveerrors "go-elms/internal/leave/errors"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayCount(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same day counts as one", date(2025, 3, 10), date(2025, 3, 10), 1},
		{"two consecutive days", date(2025, 3, 10), date(2025, 3, 11), 2},
		{"full week", date(2025, 3, 10), date(2025, 3, 16), 7},
		{"across month boundary", date(2025, 1, 30), date(2025, 2, 2), 4},
		{"across year boundary", date(2024, 12, 30), date(2025, 1, 2), 4},
		{"leap day included", date(2024, 2, 28), date(2024, 3, 1), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DayCount(tt.start, tt.end)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDayCount_EndBeforeStart(t *testing.T) {
	_, err := DayCount(date(2025, 3, 11), date(2025, 3, 10))
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
}

func TestDayCount_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	end := time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC)

	got, err := DayCount(start, end)
	assert.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestDayCount_DSTTransitionStaysWholeDays(t *testing.T) {
	// Dates arrive in a wall-clock zone; truncation to UTC dates must keep the
	// count independent of the source zone's offset changes.
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	start := time.Date(2025, 3, 29, 0, 0, 0, 0, loc)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, loc)

	got, err := DayCount(start, end)
	assert.NoError(t, err)
	assert.Equal(t, 3, got)
}
