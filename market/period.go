package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/utils"
)

// TimeUnit of a Period.
type TimeUnit string

const (
	Days   TimeUnit = "D"
	Weeks  TimeUnit = "W"
	Months TimeUnit = "M"
	Years  TimeUnit = "Y"
)

// Period is a tenor such as 3M or 10Y.
type Period struct {
	N    int
	Unit TimeUnit
}

func (p Period) String() string {
	return strconv.Itoa(p.N) + string(p.Unit)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool { return p.N == 0 }

// ParsePeriod converts tenor strings like "1W", "3M", "10Y" into a Period.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) < 2 {
		return Period{}, fmt.Errorf("ParsePeriod: invalid tenor %q", s)
	}
	unit := TimeUnit(s[len(s)-1:])
	switch unit {
	case Days, Weeks, Months, Years:
	default:
		return Period{}, fmt.Errorf("ParsePeriod: invalid tenor unit in %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Period{}, fmt.Errorf("ParsePeriod: invalid tenor length in %q", s)
	}
	return Period{N: n, Unit: unit}, nil
}

// MustPeriod panics on an invalid tenor; for literal reference tables only.
func MustPeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// AddTo returns the unadjusted date t + p.
func (p Period) AddTo(t time.Time) time.Time {
	switch p.Unit {
	case Days:
		return t.AddDate(0, 0, p.N)
	case Weeks:
		return t.AddDate(0, 0, 7*p.N)
	case Months:
		return utils.AddMonth(t, p.N)
	case Years:
		return utils.AddMonth(t, 12*p.N)
	default:
		return t
	}
}

// Advance returns t + p adjusted Modified Following on cal.
func (p Period) Advance(cal calendar.CalendarID, t time.Time) time.Time {
	return calendar.Adjust(cal, p.AddTo(t))
}

// Years approximates the period length in years.
func (p Period) Years() float64 {
	switch p.Unit {
	case Days:
		return float64(p.N) / 365.0
	case Weeks:
		return float64(p.N) * 7.0 / 365.0
	case Months:
		return float64(p.N) / 12.0
	case Years:
		return float64(p.N)
	default:
		return 0
	}
}
