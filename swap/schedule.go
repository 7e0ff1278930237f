package swap

import (
	"fmt"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/utils"
)

// GenerateSchedule builds the accrual schedule for a leg.
//
// Unadjusted dates are rolled from the anchor date without drift and adjusted
// Modified Following. Forward generation appends maturity after the last regular
// date strictly before it; backward generation prepends effective likewise.
func GenerateSchedule(effective, maturity time.Time, leg LegConvention) ([]SchedulePeriod, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("GenerateSchedule: maturity %s not after effective %s", utils.FormatDate(maturity), utils.FormatDate(effective))
	}
	if leg.Frequency.Months() <= 0 {
		return nil, fmt.Errorf("GenerateSchedule: unsupported frequency %d", int(leg.Frequency))
	}
	if err := leg.DayCount.Validate(); err != nil {
		return nil, fmt.Errorf("GenerateSchedule: %w", err)
	}

	var unadjusted []time.Time
	if leg.Direction == ScheduleBackward {
		unadjusted = rollBackward(effective, maturity, leg.Frequency.Months())
	} else {
		unadjusted = rollForward(effective, maturity, leg.Frequency.Months())
	}
	return buildPeriods(unadjusted, leg), nil
}

func rollForward(effective, maturity time.Time, months int) []time.Time {
	dates := []time.Time{effective}
	for i := 1; ; i++ {
		next := utils.AddMonth(effective, i*months)
		if !next.Before(maturity) {
			break
		}
		dates = append(dates, next)
	}
	return append(dates, maturity)
}

func rollBackward(effective, maturity time.Time, months int) []time.Time {
	dates := []time.Time{maturity}
	for i := 1; ; i++ {
		prev := utils.AddMonth(maturity, -i*months)
		if !prev.After(effective) {
			break
		}
		dates = append([]time.Time{prev}, dates...)
	}
	return append([]time.Time{effective}, dates...)
}

func buildPeriods(unadjusted []time.Time, leg LegConvention) []SchedulePeriod {
	periods := make([]SchedulePeriod, 0, len(unadjusted)-1)
	for i := 0; i < len(unadjusted)-1; i++ {
		accrualStart := calendar.Adjust(leg.Calendar, unadjusted[i])
		accrualEnd := calendar.Adjust(leg.Calendar, unadjusted[i+1])
		if !accrualEnd.After(accrualStart) {
			continue
		}
		periods = append(periods, SchedulePeriod{
			StartDate:   accrualStart,
			EndDate:     accrualEnd,
			PayDate:     calendar.AddBusinessDays(leg.Calendar, accrualEnd, leg.PayDelayDays),
			AccrualDays: int(utils.Days(accrualStart, accrualEnd)),
			FixingDate:  calendar.AddBusinessDays(leg.Calendar, accrualStart, -leg.FixingLagDays),
			Accrual:     leg.DayCount.YearFraction(accrualStart, accrualEnd),
		})
	}
	return periods
}

// ForwardRate is the simple forward over a period projected off curve.
func ForwardRate(curve DiscountCurve, p SchedulePeriod) float64 {
	if p.Accrual == 0 {
		return 0
	}
	return (curve.Discount(p.StartDate)/curve.Discount(p.EndDate) - 1.0) / p.Accrual
}
