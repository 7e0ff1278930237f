package swap

import (
	"fmt"
	"reflect"
	"time"

	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/utils"
)

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// Terms describe a vanilla fixed-for-floating swap before schedule generation.
type Terms struct {
	Type      Type
	Notional  float64
	Effective time.Time
	Maturity  time.Time
	FixedRate float64
	Fixed     LegConvention
	Float     LegConvention
	Index     market.ReferenceIndex
}

// SwapLeg is one generated leg. Notional is positive; Direction carries the sign.
type SwapLeg struct {
	Kind      market.LegType
	Direction market.Direction
	Notional  float64
	Periods   []SchedulePeriod
	DayCount  market.DayCount
	Frequency market.Frequency
	FixedRate float64
	Index     market.ReferenceIndex
}

// Swap is an immutable fixed-for-floating swap.
type Swap struct {
	Fixed SwapLeg
	Float SwapLeg
}

// New generates both legs' schedules.
func New(t Terms) (Swap, error) {
	if t.Type != Payer && t.Type != Receiver {
		return Swap{}, failure.BadInput("swap type %q must be PAYER or RECEIVER", string(t.Type))
	}
	if !(t.Notional > 0) {
		return Swap{}, failure.BadInput("swap notional %v must be positive", t.Notional)
	}
	if !t.Maturity.After(t.Effective) {
		return Swap{}, failure.BadInput("swap maturity %s must be after effective %s", utils.FormatDate(t.Maturity), utils.FormatDate(t.Effective))
	}
	fixedPeriods, err := GenerateSchedule(t.Effective, t.Maturity, t.Fixed)
	if err != nil {
		return Swap{}, failure.Wrap(failure.TypeBadInput, "fixed leg schedule", err)
	}
	floatPeriods, err := GenerateSchedule(t.Effective, t.Maturity, t.Float)
	if err != nil {
		return Swap{}, failure.Wrap(failure.TypeBadInput, "float leg schedule", err)
	}
	if len(fixedPeriods) == 0 || len(floatPeriods) == 0 {
		return Swap{}, failure.BadInput("swap %s to %s generates no periods", utils.FormatDate(t.Effective), utils.FormatDate(t.Maturity))
	}
	fixedDir := t.Type.FixedDirection()
	return Swap{
		Fixed: SwapLeg{
			Kind:      market.LegFixed,
			Direction: fixedDir,
			Notional:  t.Notional,
			Periods:   fixedPeriods,
			DayCount:  t.Fixed.DayCount,
			Frequency: t.Fixed.Frequency,
			FixedRate: t.FixedRate,
		},
		Float: SwapLeg{
			Kind:      market.LegFloating,
			Direction: fixedDir.Opposite(),
			Notional:  t.Notional,
			Periods:   floatPeriods,
			DayCount:  t.Float.DayCount,
			Frequency: t.Float.Frequency,
			Index:     t.Index,
		},
	}, nil
}

// Type reports payer (pay fixed) or receiver.
func (s Swap) Type() Type {
	if s.Fixed.Direction == market.Receive {
		return Receiver
	}
	return Payer
}

// Notional of the swap.
func (s Swap) Notional() float64 { return s.Fixed.Notional }

// FixedRate of the swap.
func (s Swap) FixedRate() float64 { return s.Fixed.FixedRate }

// Effective is the first accrual start across both legs.
func (s Swap) Effective() time.Time {
	a, b := s.Fixed.Periods[0].StartDate, s.Float.Periods[0].StartDate
	if b.Before(a) {
		return b
	}
	return a
}

// Maturity is the last payment date across both legs.
func (s Swap) Maturity() time.Time {
	a := s.Fixed.Periods[len(s.Fixed.Periods)-1].PayDate
	b := s.Float.Periods[len(s.Float.Periods)-1].PayDate
	if b.After(a) {
		return b
	}
	return a
}

// WithFixedRate returns a copy of the swap struck at k.
func (s Swap) WithFixedRate(k float64) Swap {
	s.Fixed.FixedRate = k
	return s
}

// Annuity is Σ τ·D(pay) over the fixed leg per unit notional.
func (s Swap) Annuity(disc DiscountCurve) float64 {
	sum := 0.0
	for _, p := range s.Fixed.Periods {
		sum += p.Accrual * disc.Discount(p.PayDate)
	}
	return sum
}

// BPS is the fixed-leg PV of a unit rate: notional × annuity.
func (s Swap) BPS(disc DiscountCurve) float64 {
	return s.Fixed.Notional * s.Annuity(disc)
}

// FixedLegPV is the unsigned present value of the fixed coupons.
func (s Swap) FixedLegPV(disc DiscountCurve) float64 {
	return s.Fixed.FixedRate * s.BPS(disc)
}

// FloatLegPV is the unsigned present value of the floating coupons, projected off fwd.
func (s Swap) FloatLegPV(disc, fwd DiscountCurve) float64 {
	sum := 0.0
	for _, p := range s.Float.Periods {
		sum += ForwardRate(fwd, p) * p.Accrual * disc.Discount(p.PayDate)
	}
	return s.Float.Notional * sum
}

// NPV is the signed value to the holder: receiver = fixed PV − float PV.
func (s Swap) NPV(disc, fwd DiscountCurve) (float64, error) {
	if isNilInterface(disc) || isNilInterface(fwd) {
		return 0, fmt.Errorf("NPV: %w", ErrNilCurve)
	}
	return s.Fixed.Direction.Sign()*s.FixedLegPV(disc) + s.Float.Direction.Sign()*s.FloatLegPV(disc, fwd), nil
}

// FairRate is the fixed rate that sets NPV to zero.
func (s Swap) FairRate(disc, fwd DiscountCurve) (float64, error) {
	if isNilInterface(disc) || isNilInterface(fwd) {
		return 0, fmt.Errorf("FairRate: %w", ErrNilCurve)
	}
	bps := s.BPS(disc)
	if bps == 0 {
		return 0, fmt.Errorf("FairRate: annuity is zero")
	}
	return s.FloatLegPV(disc, fwd) / bps, nil
}
