package utils

import (
	"fmt"
	"regexp"
	"time"

	"github.com/julianstephens/daybook/internal/constants"
	apperrors "github.com/julianstephens/daybook/internal/errors"
)

// Clock supplies the current instant. Components that need "today" take a
// Clock instead of reading the wall clock directly.
type Clock func() time.Time

// SystemClock reads the real wall clock.
var SystemClock Clock = time.Now

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// DayClass places a date key relative to today.
type DayClass int

const (
	Past DayClass = iota
	Present
	Future
)

func (c DayClass) String() string {
	switch c {
	case Past:
		return "PAST"
	case Present:
		return "PRESENT"
	case Future:
		return "FUTURE"
	default:
		return "UNKNOWN"
	}
}

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDateKey reports whether s is a YYYY-MM-DD string naming a real calendar day.
func IsValidDateKey(s string) bool {
	if !dateKeyPattern.MatchString(s) {
		return false
	}
	// time.Parse rejects out-of-range days such as 2024-02-30
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}

// ParseDateKey validates s and returns it unchanged, or ErrInvalidDateKey.
func ParseDateKey(s string) (string, error) {
	if !IsValidDateKey(s) {
		return "", fmt.Errorf("%w: %q (expected YYYY-MM-DD)", apperrors.ErrInvalidDateKey, s)
	}
	return s, nil
}

// Classify compares two date keys lexicographically.
func Classify(target, today string) DayClass {
	switch {
	case target == today:
		return Present
	case target > today:
		return Future
	default:
		return Past
	}
}

// DateKeyOf formats t as a date key in loc.
func DateKeyOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateFormat)
}

// Today returns today's date key in the given timezone, read from clock.
// The instant is converted into the zone before formatting so a day never
// shifts near midnight the way UTC truncation would.
func Today(clock Clock, timezone string) (string, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return "", fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	if clock == nil {
		clock = SystemClock
	}
	return DateKeyOf(clock(), loc), nil
}

// AddDays shifts a date key by n calendar days.
func AddDays(dateKey string, n int) (string, error) {
	t, err := time.Parse(constants.DateFormat, dateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidDateKey, dateKey)
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the clock's current time in the specified timezone.
func NowInTimezone(clock Clock, timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	if clock == nil {
		clock = SystemClock
	}
	return clock().In(loc), nil
}

// ParseTimeToMinutes parses a time string (HH:MM) and returns the number of minutes from midnight.
func ParseTimeToMinutes(timeStr string) (int, error) {
	t, err := time.Parse(constants.TimeFormat, timeStr)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTimeToMinutes(timeStr)
	return err == nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
