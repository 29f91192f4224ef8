package normalize

import (
	"fmt"
	"strings"
	"time"

	"milpacs-backend/internal/records"
)

// DateLayout is the format every date on the platform is rendered in, ex. "Nov 14, 2019".
const DateLayout = "Jan 2, 2006"

type DateParseError struct {
	Raw string
	Err error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("parse date %q: expected a date like %q", e.Raw, DateLayout)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

// ParseDate parses a platform date into a calendar date at midnight UTC.
func ParseDate(raw string) (records.Date, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return records.Date{Raw: raw}, &DateParseError{Raw: raw, Err: err}
	}
	return records.Date{Raw: raw, Time: parsed, Parsed: true}, nil
}

// parseOptionalDate leaves an empty date unparsed, a roster row with no promotion yet
// renders an empty cell.
func parseOptionalDate(date records.Date) (records.Date, error) {
	if strings.TrimSpace(date.Raw) == "" {
		return date, nil
	}
	return ParseDate(date.Raw)
}
