// Package calibration fits short-rate models to the Black volatilities of a
// fixed grid of European swaptions.
package calibration

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/engine"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/numerics"
	"github.com/meenmo/bermudan/swap"
)

// Instrument is one at-the-money payer swaption of the calibration grid, per
// unit notional.
type Instrument struct {
	Point      market.GridPoint
	MarketVol  float64
	Exercise   time.Time
	Underlying swap.Swap
	Strike     float64
	Forward    float64
	Annuity    float64
	ExpiryTime float64

	swaption engine.Swaption
}

// NewInstruments builds the grid instruments off the given curves. Exercise is
// the curve reference date advanced by the expiry; the underlying starts
// SpotLagDays business days later and runs for the tenor.
func NewInstruments(grid [market.GridSize]market.GridPoint, vols market.VolTable, discount, forecast *curve.YieldCurve, cal calendar.CalendarID, cfg config.Instruments) ([market.GridSize]*Instrument, error) {
	var out [market.GridSize]*Instrument
	if discount == nil || forecast == nil {
		return out, failure.BadInput("calibration instruments need both curves")
	}
	legs, err := cfg.Legs()
	if err != nil {
		return out, failure.Wrap(failure.TypeBadInput, "calibration instrument conventions", err)
	}
	ref := discount.ReferenceDate()
	for i, g := range grid {
		if !(vols[i] > 0) {
			return out, failure.BadInput("market vol for %s is %v", g, vols[i])
		}
		exercise := g.Expiry.Advance(cal, ref)
		start := calendar.AddBusinessDays(cal, exercise, cfg.SpotLagDays)
		s, err := swap.New(swap.Terms{
			Type:      swap.Payer,
			Notional:  1,
			Effective: start,
			Maturity:  g.Tenor.AddTo(start),
			Fixed:     swap.LegConvention{Frequency: legs.FixedFrequency, DayCount: legs.FixedDayCount, Calendar: cal},
			Float:     swap.LegConvention{Frequency: legs.FloatFrequency, DayCount: legs.FloatDayCount, Calendar: cal, FixingLagDays: 2},
		})
		if err != nil {
			return out, fmt.Errorf("instrument %s: %w", g, err)
		}
		forward, err := s.FairRate(discount, forecast)
		if err != nil {
			return out, failure.Wrapf(failure.TypeBadInput, err, "instrument %s forward", g)
		}
		s = s.WithFixedRate(forward)
		sw, err := engine.NewSwaption(s, []time.Time{exercise}, discount, forecast)
		if err != nil {
			return out, failure.Wrapf(failure.TypeBadInput, err, "instrument %s", g)
		}
		out[i] = &Instrument{
			Point:      g,
			MarketVol:  vols[i],
			Exercise:   exercise,
			Underlying: s,
			Strike:     forward,
			Forward:    forward,
			Annuity:    s.Annuity(discount),
			ExpiryTime: discount.Time(exercise),
			swaption:   sw,
		}
	}
	return out, nil
}

// Swaption is the engine form of the instrument.
func (in *Instrument) Swaption() engine.Swaption { return in.swaption }

// BlackPrice is annuity × Black(F, K, vol·√T).
func (in *Instrument) BlackPrice(vol float64) float64 {
	return in.Annuity * numerics.BlackFormula(true, in.Strike, in.Forward, vol*math.Sqrt(in.ExpiryTime))
}

// MarketPrice is the Black price at the market vol.
func (in *Instrument) MarketPrice() float64 { return in.BlackPrice(in.MarketVol) }

// ImpliedVol inverts BlackPrice.
func (in *Instrument) ImpliedVol(price float64) (float64, error) {
	sd, err := numerics.BlackImpliedStdDev(true, in.Strike, in.Forward, price/in.Annuity)
	if err != nil {
		return 0, fmt.Errorf("implied vol %s: %w", in.Point, err)
	}
	return sd / math.Sqrt(in.ExpiryTime), nil
}
