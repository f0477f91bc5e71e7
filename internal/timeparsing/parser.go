// Package timeparsing turns the date expressions accepted on the
// command line into absolute times. Four forms are recognized:
// compact durations (+6h, -1d, +2w), calendar dates (2026-04-01),
// RFC3339 timestamps, and English phrases ("next monday", "in 3
// days"). ParseRelativeTime tries them in that order.
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// compactRe matches an optional sign, an amount, and one unit letter:
// hours, days, weeks, months, or years.
var compactRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// IsCompactDuration reports whether s uses compact duration syntax.
func IsCompactDuration(s string) bool {
	return compactRe.MatchString(s)
}

// ParseCompactDuration resolves a compact duration against now. The
// sign defaults to positive. Hours shift the clock; days and larger
// units use calendar arithmetic, so "+1m" from Jan 31 overflows into
// March the way time.AddDate does.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	amount, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount: %q", m[2])
	}
	if m[1] == "-" {
		amount = -amount
	}
	switch m[3] {
	case "h":
		return now.Add(time.Duration(amount) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, amount), nil
	case "w":
		return now.AddDate(0, 0, 7*amount), nil
	case "m":
		return now.AddDate(0, amount, 0), nil
	default: // y, per the regex
		return now.AddDate(amount, 0, 0), nil
	}
}
