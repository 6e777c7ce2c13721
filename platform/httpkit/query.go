package httpkit

import (
	"strings"
	"time"

	"hoareca_growth_hub/platform/apperr"
)

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

// ParseDate parses an optional YYYY-MM-DD value in loc. An empty value yields
// the zero time.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("dates must use YYYY-MM-DD").WithDetails(map[string]string{"value": value})
	}
	return t, nil
}

// ParseDateRange parses from and to and rejects inverted ranges.
func ParseDateRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseDate(from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, apperr.Validation("from must not be after to")
	}
	return start, end, nil
}
