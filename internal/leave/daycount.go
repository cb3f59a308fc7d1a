package leave

import (
	"time"

	leaveerrors "go-elms/internal/leave/errors"
)

// DayCount returns the inclusive whole-day span between two calendar dates, so
// a same-day request counts as 1. Both inputs must already be bare dates in an
// unambiguous year-month-day form; parsing and normalization happen at the DTO
// boundary, never here.
func DayCount(start, end time.Time) (int, error) {
	start = truncateToDate(start)
	end = truncateToDate(end)

	if end.Before(start) {
		return 0, leaveerrors.ErrInvalidDateRange
	}

	return int(end.Sub(start).Hours()/24) + 1, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
