package market

import (
	"fmt"
	"strings"
	"time"
)

// DayCount enum.
type DayCount string

const (
	Act360    DayCount = "ACT/360"
	Act365F   DayCount = "ACT/365F"
	ActAct    DayCount = "ACT/ACT"
	Thirty360 DayCount = "30/360"
)

// ParseDayCount accepts canonical tags and the labels used by deal tickets ("Act / 360", "30 / 360").
func ParseDayCount(s string) (DayCount, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch key {
	case "ACT/360", "A360", "ACTUAL/360":
		return Act360, nil
	case "ACT/365", "ACT/365F", "A365F", "ACTUAL/365(FIXED)", "ACT/365(FIXED)":
		return Act365F, nil
	case "ACT/ACT", "ACTUAL/ACTUAL", "ACT/ACT(ISDA)":
		return ActAct, nil
	case "30/360", "30/360(BONDBASIS)", "30/360USA", "30U/360":
		return Thirty360, nil
	default:
		return "", fmt.Errorf("ParseDayCount: unsupported day count %q", s)
	}
}

// Validate reports whether dc is one of the supported conventions.
func (dc DayCount) Validate() error {
	switch dc {
	case Act360, Act365F, ActAct, Thirty360:
		return nil
	default:
		return fmt.Errorf("unsupported day count %q", string(dc))
	}
}

// YearFraction computes the accrual fraction between two dates.
func (dc DayCount) YearFraction(start, end time.Time) float64 {
	switch dc {
	case Act360:
		return actualDays(start, end) / 360.0
	case Act365F:
		return actualDays(start, end) / 365.0
	case ActAct:
		return actActISDA(start, end)
	case Thirty360:
		return thirty360USA(start, end)
	default:
		panic(fmt.Sprintf("YearFraction: unvalidated day count %q", string(dc)))
	}
}

func actualDays(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

func actActISDA(start, end time.Time) float64 {
	if end.Before(start) {
		return -actActISDA(end, start)
	}
	if start.Year() == end.Year() {
		return actualDays(start, end) / daysInYear(start.Year())
	}
	nextYear := time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastYear := time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	sum := actualDays(start, nextYear) / daysInYear(start.Year())
	sum += float64(end.Year() - start.Year() - 1)
	sum += actualDays(lastYear, end) / daysInYear(end.Year())
	return sum
}

func daysInYear(y int) float64 {
	if (y%4 == 0 && y%100 != 0) || y%400 == 0 {
		return 366
	}
	return 365
}

// thirty360USA is the bond-basis rule: D1=31 becomes 30; D2=31 becomes 30 when D1 >= 30.
func thirty360USA(start, end time.Time) float64 {
	d1, d2 := start.Day(), end.Day()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 >= 30 {
		d2 = 30
	}
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}
