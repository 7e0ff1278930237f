// Package exercise derives the exercise schedule of a swaption from its underlying leg.
package exercise

import (
	"math"
	"time"

	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/swap"
	"github.com/meenmo/bermudan/utils"
)

// Schedule is the ordered set of exercise dates.
type Schedule struct {
	Style market.ExerciseStyle
	Dates []time.Time
	// EuropeanStart is the override date when one is given, otherwise the deal start date.
	EuropeanStart time.Time
}

// First is the earliest exercise date.
func (s Schedule) First() time.Time { return s.Dates[0] }

// Build takes the accrual start of every period as a candidate date.
//
// An override shifts every candidate by the signed whole-day offset between the
// override and the first accrual start. European returns only the first date.
func Build(style market.ExerciseStyle, periods []swap.SchedulePeriod, startDate time.Time, override *time.Time) (Schedule, error) {
	switch style {
	case market.European, market.Bermudan:
	case market.American:
		return Schedule{}, failure.BadInput("exercise style %s is not supported", style)
	default:
		return Schedule{}, failure.BadInput("unknown exercise style %q", string(style))
	}
	if len(periods) == 0 {
		return Schedule{}, failure.BadInput("exercise schedule needs at least one period")
	}

	dates := make([]time.Time, len(periods))
	for i, p := range periods {
		dates[i] = p.StartDate
	}
	if !utils.StrictlyIncreasing(dates) {
		return Schedule{}, failure.BadInput("accrual start dates are not strictly increasing")
	}

	europeanStart := startDate
	if override != nil {
		offset := int(math.Round(utils.Days(dates[0], *override)))
		for i := range dates {
			dates[i] = dates[i].AddDate(0, 0, offset)
		}
		europeanStart = *override
	}

	if style == market.European {
		dates = dates[:1]
	}
	return Schedule{Style: style, Dates: dates, EuropeanStart: europeanStart}, nil
}
