// Package curve bootstraps and evaluates zero-rate yield curves.
package curve

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/interp"

	"github.com/meenmo/bermudan/market"
)

// Node is a curve pillar.
type Node struct {
	Date time.Time
	Time float64
	Zero float64
	DF   float64
}

// YieldCurve is an immutable discount curve.
//
// Continuously compounded zero rates are interpolated linearly in curve time
// (the curve day count measured from the reference date). Past the last node the
// curve extends flat at the instantaneous forward of the last segment, unless
// extrapolation is disabled, in which case discount factors there are NaN.
type YieldCurve struct {
	reference   time.Time
	dayCount    market.DayCount
	nodes       []Node
	zeros       interp.PiecewiseLinear
	lastForward float64
	extrapolate bool
}

// NewFromZeros builds a curve from pillar dates and their zero rates. The
// reference date is prepended as a node carrying the first zero rate.
func NewFromZeros(reference time.Time, dc market.DayCount, dates []time.Time, zeros []float64, extrapolate bool) (*YieldCurve, error) {
	if len(dates) == 0 || len(dates) != len(zeros) {
		return nil, fmt.Errorf("NewFromZeros: need matching non-empty dates (%d) and zeros (%d)", len(dates), len(zeros))
	}
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("NewFromZeros: %w", err)
	}
	n := len(dates) + 1
	xs := make([]float64, n)
	ys := make([]float64, n)
	nodes := make([]Node, n)
	nodes[0] = Node{Date: reference, Time: 0, Zero: zeros[0], DF: 1}
	ys[0] = zeros[0]
	for i, d := range dates {
		t := dc.YearFraction(reference, d)
		if !(t > xs[i]) {
			return nil, fmt.Errorf("NewFromZeros: pillar %s is not after the previous node", d.Format("2006-01-02"))
		}
		xs[i+1], ys[i+1] = t, zeros[i]
		nodes[i+1] = Node{Date: d, Time: t, Zero: zeros[i], DF: math.Exp(-zeros[i] * t)}
	}

	c := &YieldCurve{reference: reference, dayCount: dc, nodes: nodes, extrapolate: extrapolate}
	if err := c.zeros.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("NewFromZeros: %w", err)
	}
	zn, tn := ys[n-1], xs[n-1]
	slope := (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	c.lastForward = zn + tn*slope
	return c, nil
}

// ReferenceDate is the date at which DF = 1.
func (c *YieldCurve) ReferenceDate() time.Time { return c.reference }

// DayCount is the curve-time convention.
func (c *YieldCurve) DayCount() market.DayCount { return c.dayCount }

// Extrapolates reports whether the curve extends past its last node.
func (c *YieldCurve) Extrapolates() bool { return c.extrapolate }

// Nodes returns a copy of the pillars, starting with the reference date.
func (c *YieldCurve) Nodes() []Node {
	return append([]Node(nil), c.nodes...)
}

// MaxDate is the last pillar date.
func (c *YieldCurve) MaxDate() time.Time { return c.nodes[len(c.nodes)-1].Date }

// MaxTime is the last pillar time.
func (c *YieldCurve) MaxTime() float64 { return c.nodes[len(c.nodes)-1].Time }

// Time converts a date to curve time.
func (c *YieldCurve) Time(d time.Time) float64 {
	return c.dayCount.YearFraction(c.reference, d)
}

// Discount returns the discount factor at d.
func (c *YieldCurve) Discount(d time.Time) float64 {
	return c.DiscountT(c.Time(d))
}

// DiscountT returns the discount factor at curve time t.
func (c *YieldCurve) DiscountT(t float64) float64 {
	if t <= 0 {
		return math.Exp(-c.nodes[0].Zero * t)
	}
	last := c.nodes[len(c.nodes)-1]
	if t <= last.Time {
		return math.Exp(-c.zeros.Predict(t) * t)
	}
	if !c.extrapolate {
		return math.NaN()
	}
	return last.DF * math.Exp(-c.lastForward*(t-last.Time))
}

// ZeroRate is the continuously compounded zero rate to d.
func (c *YieldCurve) ZeroRate(d time.Time) float64 {
	t := c.Time(d)
	if t <= 0 {
		return c.nodes[0].Zero
	}
	return -math.Log(c.DiscountT(t)) / t
}

// ForwardRate is the simple forward between start and end accrued under dc.
func (c *YieldCurve) ForwardRate(start, end time.Time, dc market.DayCount) float64 {
	tau := dc.YearFraction(start, end)
	if tau == 0 {
		return 0
	}
	return (c.Discount(start)/c.Discount(end) - 1) / tau
}
