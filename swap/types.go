package swap

import (
	"errors"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/market"
)

var (
	// ErrNilCurve is returned when a required curve argument is nil.
	ErrNilCurve = errors.New("nil curve")
)

// DiscountCurve provides discount factors for valuation and forward projection.
type DiscountCurve interface {
	Discount(t time.Time) float64
}

// ScheduleDirection selects how coupon dates are rolled.
type ScheduleDirection int

const (
	// ScheduleForward rolls from the effective date; a short stub falls at the back.
	ScheduleForward ScheduleDirection = iota
	// ScheduleBackward rolls from maturity; a stub falls at the front.
	ScheduleBackward
)

// LegConvention describes how one leg's schedule and accruals are generated.
type LegConvention struct {
	Frequency     market.Frequency
	DayCount      market.DayCount
	Calendar      calendar.CalendarID
	FixingLagDays int
	PayDelayDays  int
	Direction     ScheduleDirection
}

// SchedulePeriod is a cashflow period for a single leg.
//
// Dates are business-day adjusted per the provided leg convention.
type SchedulePeriod struct {
	StartDate   time.Time
	EndDate     time.Time
	PayDate     time.Time
	AccrualDays int
	FixingDate  time.Time
	// Accrual is the year fraction of the period under the leg's day count.
	Accrual float64
}

// Type is the side of the fixed leg.
type Type string

const (
	// Payer pays fixed and receives floating.
	Payer Type = "PAYER"
	// Receiver receives fixed and pays floating.
	Receiver Type = "RECEIVER"
)

// Sign returns +1 for payer and -1 for receiver.
func (t Type) Sign() float64 {
	if t == Receiver {
		return -1
	}
	return 1
}

// FixedDirection is the direction of the fixed leg for the swap type.
func (t Type) FixedDirection() market.Direction {
	if t == Receiver {
		return market.Receive
	}
	return market.Pay
}
