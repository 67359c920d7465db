package incremental

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var overlapPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([smhd])?$`)

var overlapUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseOverlap parses an overlap duration such as "60s", "5m", "24h" or
// "3d". A bare number is seconds. Fails with an INVALID_DURATION error on
// anything else.
func ParseOverlap(s string) (time.Duration, error) {
	m := overlapPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, &Error{
			Code:    ErrCodeInvalidDuration,
			Message: fmt.Sprintf("invalid overlap duration %q: want a number with optional s/m/h/d suffix", s),
		}
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &Error{
			Code:    ErrCodeInvalidDuration,
			Message: fmt.Sprintf("invalid overlap duration %q: %v", s, err),
		}
	}
	unit := overlapUnits["s"]
	if m[2] != "" {
		unit = overlapUnits[m[2]]
	}
	return time.Duration(value * float64(unit)), nil
}

// LoadTimezone resolves an IANA timezone name such as "America/Chicago".
// Fails with an UNKNOWN_TIMEZONE error for names the host cannot resolve.
func LoadTimezone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeUnknownTimezone,
			Message: fmt.Sprintf("unknown timezone %q", name),
		}
	}
	return loc, nil
}
