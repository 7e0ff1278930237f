// Package engine prices swaptions under the short-rate models of package model.
//
// Every engine consumes the same Swaption: for each exercise time, the
// underlying coupons that remain are replicated as zero-coupon bond flows, so
// the exercise value in a model state is Σ a_k·P(t_e, t_k | state).
package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/bermudan/swap"
)

// Cashflow is a payer-oriented zero-bond amount at a curve time.
type Cashflow struct {
	Time   float64
	Amount float64
}

// Exercise is one exercise opportunity and the flows received on exercise.
type Exercise struct {
	Date  time.Time
	Time  float64
	Flows []Cashflow
}

// Swaption is the model-facing form of a swap plus exercise schedule.
type Swaption struct {
	Type      swap.Type
	Exercises []Exercise
}

// Curve is the discount/forecast interface the builder needs.
type Curve interface {
	swap.DiscountCurve
	Time(d time.Time) float64
}

// mergeTolerance treats flows closer than about a second as simultaneous.
const mergeTolerance = 1e-8

// NewSwaption replicates the coupons of s that start on or after each exercise date.
//
// A floating coupon becomes +N at accrual start, -N at accrual end and the
// deterministic forecast-minus-discount basis N·s·τ at payment. A fixed coupon
// becomes -N·K·τ at payment.
func NewSwaption(s swap.Swap, dates []time.Time, disc, fwd Curve) (Swaption, error) {
	if len(dates) == 0 {
		return Swaption{}, fmt.Errorf("NewSwaption: no exercise dates")
	}
	n := s.Notional()
	k := s.FixedRate()
	out := Swaption{Type: s.Type(), Exercises: make([]Exercise, 0, len(dates))}
	for i, d := range dates {
		if i > 0 && !d.After(dates[i-1]) {
			return Swaption{}, fmt.Errorf("NewSwaption: exercise dates not strictly increasing at %d", i)
		}
		var flows []Cashflow
		for _, p := range s.Float.Periods {
			if p.StartDate.Before(d) {
				continue
			}
			basis := swap.ForwardRate(fwd, p) - swap.ForwardRate(disc, p)
			flows = append(flows,
				Cashflow{Time: disc.Time(p.StartDate), Amount: n},
				Cashflow{Time: disc.Time(p.EndDate), Amount: -n},
			)
			if basis != 0 {
				flows = append(flows, Cashflow{Time: disc.Time(p.PayDate), Amount: n * basis * p.Accrual})
			}
		}
		for _, p := range s.Fixed.Periods {
			if p.StartDate.Before(d) {
				continue
			}
			flows = append(flows, Cashflow{Time: disc.Time(p.PayDate), Amount: -n * k * p.Accrual})
		}
		if len(flows) == 0 {
			return Swaption{}, fmt.Errorf("NewSwaption: no coupons start on or after exercise %s", d.Format("2006-01-02"))
		}
		out.Exercises = append(out.Exercises, Exercise{Date: d, Time: disc.Time(d), Flows: mergeFlows(flows)})
	}
	return out, nil
}

func mergeFlows(flows []Cashflow) []Cashflow {
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].Time < flows[j].Time })
	merged := make([]Cashflow, 0, len(flows))
	for _, f := range flows {
		if last := len(merged) - 1; last >= 0 && math.Abs(merged[last].Time-f.Time) < mergeTolerance {
			merged[last].Amount += f.Amount
			continue
		}
		merged = append(merged, f)
	}
	out := merged[:0]
	for _, f := range merged {
		if math.Abs(f.Amount) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// IsEuropean reports whether the swaption has a single exercise.
func (s Swaption) IsEuropean() bool { return len(s.Exercises) == 1 }

// LastTime is the final exercise time.
func (s Swaption) LastTime() float64 { return s.Exercises[len(s.Exercises)-1].Time }

// First returns the European swaption on the first exercise only.
func (s Swaption) First() Swaption {
	return Swaption{Type: s.Type, Exercises: s.Exercises[:1]}
}

// Engine prices a swaption.
type Engine interface {
	Price(s Swaption) (float64, error)
}

func validate(s Swaption) error {
	if len(s.Exercises) == 0 {
		return fmt.Errorf("swaption has no exercises")
	}
	if s.Type != swap.Payer && s.Type != swap.Receiver {
		return fmt.Errorf("unknown swaption type %q", string(s.Type))
	}
	for i, e := range s.Exercises {
		if !(e.Time > 0) {
			return fmt.Errorf("exercise %d at time %v is not after the reference date", i, e.Time)
		}
		if i > 0 && !(e.Time > s.Exercises[i-1].Time) {
			return fmt.Errorf("exercise times not increasing at %d", i)
		}
		if len(e.Flows) == 0 {
			return fmt.Errorf("exercise %d has no flows", i)
		}
		if e.Flows[0].Time < e.Time-mergeTolerance {
			return fmt.Errorf("exercise %d has a flow before the exercise time", i)
		}
	}
	return nil
}

// timeGrid splits [0, last mandatory time] into steps no longer than
// last/steps, hitting every mandatory time exactly.
func timeGrid(mandatory []float64, steps int) []float64 {
	pts := append([]float64{0}, mandatory...)
	sort.Float64s(pts)
	horizon := pts[len(pts)-1]
	dtMax := horizon / float64(steps)
	grid := []float64{0}
	for i := 1; i < len(pts); i++ {
		t1, t2 := pts[i-1], pts[i]
		if t2-t1 < mergeTolerance {
			continue
		}
		n := int(math.Ceil((t2-t1)/dtMax - 1e-9))
		if n < 1 {
			n = 1
		}
		for j := 1; j <= n; j++ {
			grid = append(grid, t1+(t2-t1)*float64(j)/float64(n))
		}
		grid[len(grid)-1] = t2
	}
	return grid
}

// exerciseIndex maps each grid index that coincides with an exercise to that exercise.
func exerciseIndex(grid []float64, s Swaption) map[int]int {
	idx := make(map[int]int, len(s.Exercises))
	for k, e := range s.Exercises {
		j := sort.SearchFloat64s(grid, e.Time-mergeTolerance)
		if j < len(grid) && math.Abs(grid[j]-e.Time) < mergeTolerance {
			idx[j] = k
		}
	}
	return idx
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
