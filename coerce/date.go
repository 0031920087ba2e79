package coerce

import (
	"regexp"
	"time"
)

// DateLayout is the wire format of dates.
const DateLayout = "2006-01-02"

const relativeUnits = `(d|days?|m|months?|y|years?)`

var relativeDate = regexp.MustCompile(`(?i)^((\d+\s*` + relativeUnits + `\s*ago)|(-\d+\s*` + relativeUnits + `)|(past\s*\d+\s*` + relativeUnits + `))$`)

// IsRelativeDate reports whether s is one of "N <unit> ago", "-N<unit>" or
// "past N <unit>", where unit is d, day(s), m, month(s), y or year(s).
func IsRelativeDate(s string) bool {
	return relativeDate.MatchString(s)
}

// ParseDateOrRelative accepts a time.Time, a YYYY-MM-DD string or a
// relative date. Relative dates are returned unchanged for the server to
// resolve; absolute dates are returned in DateLayout.
func ParseDateOrRelative(field string, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Format(DateLayout), nil
	case string:
		if IsRelativeDate(t) {
			return t, nil
		}
		if d, err := time.Parse(DateLayout, t); err == nil {
			return d.Format(DateLayout), nil
		}
	}
	return nil, &DateError{Field: field, Value: v}
}
