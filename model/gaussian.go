package model

import (
	"fmt"
	"math"
)

// smallReversion switches the bond variance integral to its a → 0 limit, where
// the closed form loses precision to cancellation.
const smallReversion = 1e-6

// gaussian1F is the shared core of the Hull–White variants: constant
// reversion a and a volatility that is constant on [starts[k], starts[k+1]),
// with the last segment open-ended.
type gaussian1F struct {
	a      float64
	starts []float64
	sigmas []float64
	ts     TermStructure
}

func newGaussian1F(ts TermStructure, a float64, starts, sigmas []float64) (gaussian1F, error) {
	if ts == nil {
		return gaussian1F{}, fmt.Errorf("%w: nil term structure", ErrParams)
	}
	if len(starts) == 0 || len(starts) != len(sigmas) || starts[0] != 0 {
		return gaussian1F{}, fmt.Errorf("%w: %d segment starts for %d volatilities", ErrParams, len(starts), len(sigmas))
	}
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return gaussian1F{}, fmt.Errorf("%w: reversion %v", ErrParams, a)
	}
	for i, s := range sigmas {
		if !(s > 0) || math.IsInf(s, 0) {
			return gaussian1F{}, fmt.Errorf("%w: volatility %d is %v", ErrParams, i, s)
		}
		if i > 0 && !(starts[i] > starts[i-1]) {
			return gaussian1F{}, fmt.Errorf("%w: segment starts not increasing at %d", ErrParams, i)
		}
	}
	return gaussian1F{
		a:      a,
		starts: append([]float64(nil), starts...),
		sigmas: append([]float64(nil), sigmas...),
		ts:     ts,
	}, nil
}

func (g gaussian1F) Reversion() float64           { return g.a }
func (g gaussian1F) TermStructure() TermStructure { return g.ts }

func (g gaussian1F) Sigma(t float64) float64 {
	k := 0
	for k+1 < len(g.starts) && t >= g.starts[k+1] {
		k++
	}
	return g.sigmas[k]
}

// segments calls fn for each constant-volatility piece of [t1, t2].
func (g gaussian1F) segments(t1, t2 float64, fn func(u1, u2, sigma float64)) {
	for k := range g.starts {
		lo := math.Max(t1, g.starts[k])
		hi := t2
		if k+1 < len(g.starts) {
			hi = math.Min(t2, g.starts[k+1])
		}
		if hi > lo {
			fn(lo, hi, g.sigmas[k])
		}
	}
}

func (g gaussian1F) B(t, T float64) float64 {
	if g.a == 0 {
		return T - t
	}
	return -math.Expm1(-g.a*(T-t)) / g.a
}

func (g gaussian1F) VarX(t1, t2 float64) float64 {
	a := g.a
	v := 0.0
	g.segments(t1, t2, func(u1, u2, s float64) {
		if a == 0 {
			v += s * s * (u2 - u1)
			return
		}
		v += s * s * math.Exp(-2*a*(t2-u2)) * -math.Expm1(-2*a*(u2-u1)) / (2 * a)
	})
	return v
}

func (g gaussian1F) V(t, T float64) float64 {
	a := g.a
	v := 0.0
	g.segments(t, T, func(u1, u2, s float64) {
		if a < smallReversion {
			v += s * s * (math.Pow(T-u1, 3) - math.Pow(T-u2, 3)) / 3
			return
		}
		e1 := math.Exp(-a*(T-u2)) - math.Exp(-a*(T-u1))
		e2 := math.Exp(-2*a*(T-u2)) - math.Exp(-2*a*(T-u1))
		v += s * s * ((u2 - u1) - 2/a*e1 + e2/(2*a)) / (a * a)
	})
	return v
}

func (g gaussian1F) BondPrice(t, T, x float64) float64 {
	if T <= t {
		return 1
	}
	p0T, p0t := g.ts.DiscountT(T), g.ts.DiscountT(t)
	return p0T / p0t * math.Exp(0.5*(g.V(t, T)-g.V(0, T)+g.V(0, t))-g.B(t, T)*x)
}

func (g gaussian1F) AlphaIntegral(t1, t2 float64) float64 {
	return math.Log(g.ts.DiscountT(t1)/g.ts.DiscountT(t2)) + 0.5*(g.V(0, t2)-g.V(0, t1))
}
