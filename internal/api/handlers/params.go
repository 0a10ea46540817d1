package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dvloznov/sms-expense-tracker/internal/stats"
)

const dateLayout = "2006-01-02"

// parseWindow reads either start_date/end_date (inclusive calendar days) or
// month_offset from the query. With neither, it returns the current month.
func parseWindow(q url.Values, now time.Time, loc *time.Location) (start, end time.Time, err error) {
	startStr, endStr := q.Get("start_date"), q.Get("end_date")

	if startStr == "" && endStr == "" {
		offset, err := parseMonthOffset(q)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start, end = stats.MonthWindow(now, offset, loc)
		return start, end, nil
	}

	if startStr != "" {
		start, err = time.ParseInLocation(dateLayout, startStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format")
		}
	}
	if endStr != "" {
		endDay, err := time.ParseInLocation(dateLayout, endStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format")
		}
		end = endDay.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must not be after end_date")
	}
	return start, end, nil
}

func parseMonthOffset(q url.Values) (int, error) {
	s := q.Get("month_offset")
	if s == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid month_offset")
	}
	// Future months have no expenses yet.
	if offset > 0 {
		return 0, fmt.Errorf("month_offset must not be positive")
	}
	return offset, nil
}

// parseIntParam returns 0 for a missing or malformed value.
func parseIntParam(q url.Values, key string) int {
	if s := q.Get(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return 0
}
