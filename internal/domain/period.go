package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts for the period keys as stored and exchanged.
const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"
	MinYear     = 2000
	MaxWeek     = 53
)

// ErrInvalidPeriod is matched by every FormatError.
var ErrInvalidPeriod = errors.New("invalid period")

var monthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// FormatError describes a period key that failed validation.
type FormatError struct {
	Tier   Tier
	Raw    string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s period %q: %s", e.Tier, e.Raw, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrInvalidPeriod }

// PeriodKey is the natural calendar identifier of a plan within its tier.
// Only the fields belonging to Tier are meaningful.
type PeriodKey struct {
	Tier  Tier
	Year  int
	Month time.Month
	Week  int
	Date  time.Time
}

// String renders the key in its canonical stored form.
func (k PeriodKey) String() string {
	switch k.Tier {
	case TierMonth:
		return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
	case TierWeek:
		return strconv.Itoa(k.Week)
	case TierDay:
		return k.Date.Format(DateLayout)
	}
	return ""
}

// ParsePeriod validates raw for the given tier and returns the parsed key.
//
//	month: YYYY-MM, year >= 2000, month 01-12
//	week:  ISO calendar week 1-53
//	day:   ISO date YYYY-MM-DD
func ParsePeriod(tier Tier, raw string) (PeriodKey, error) {
	v := strings.TrimSpace(raw)
	fail := func(reason string) (PeriodKey, error) {
		return PeriodKey{}, &FormatError{Tier: tier, Raw: raw, Reason: reason}
	}

	switch tier {
	case TierMonth:
		m := monthPattern.FindStringSubmatch(v)
		if m == nil {
			return fail("expected YYYY-MM")
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if year < MinYear {
			return fail(fmt.Sprintf("year must be %d or later", MinYear))
		}
		if month < 1 || month > 12 {
			return fail("month must be between 01 and 12")
		}
		return PeriodKey{Tier: tier, Year: year, Month: time.Month(month)}, nil

	case TierWeek:
		week, err := strconv.Atoi(v)
		if err != nil {
			return fail("expected a calendar week number")
		}
		if week < 1 || week > MaxWeek {
			return fail(fmt.Sprintf("calendar week must be between 1 and %d", MaxWeek))
		}
		return PeriodKey{Tier: tier, Week: week}, nil

	case TierDay:
		date, err := time.Parse(DateLayout, v)
		if err != nil {
			return fail("expected an ISO date YYYY-MM-DD")
		}
		return PeriodKey{Tier: tier, Date: date, Year: date.Year(), Month: date.Month()}, nil
	}

	return fail(ErrUnknownTier.Error())
}

// ISOWeekOf returns the ISO calendar week of a date.
func ISOWeekOf(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}
