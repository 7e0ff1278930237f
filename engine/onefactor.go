package engine

import (
	"math"

	"github.com/meenmo/bermudan/model"
)

// bondFactors writes the flows of one exercise as Σ c_k·exp(-b_k·x), with
// c_k = a_k·A(t,T_k) from the one-factor bond formula.
type bondFactors struct {
	sign float64
	c    []float64
	b    []float64
}

func newBondFactors(m model.OneFactor, sign float64, e Exercise) bondFactors {
	t := e.Time
	p0t := m.TermStructure().DiscountT(t)
	v0t := m.V(0, t)
	f := bondFactors{sign: sign, c: make([]float64, len(e.Flows)), b: make([]float64, len(e.Flows))}
	for k, cf := range e.Flows {
		if cf.Time <= t {
			f.c[k] = cf.Amount
			continue
		}
		p0T := m.TermStructure().DiscountT(cf.Time)
		a := p0T / p0t * math.Exp(0.5*(m.V(t, cf.Time)-m.V(0, cf.Time)+v0t))
		f.c[k] = cf.Amount * a
		f.b[k] = m.B(t, cf.Time)
	}
	return f
}

// underlying is the signed value of the flows in state x.
func (f bondFactors) underlying(x float64) float64 {
	sum := 0.0
	for k := range f.c {
		sum += f.c[k] * math.Exp(-f.b[k]*x)
	}
	return f.sign * sum
}

// payoff is the exercise value in state x.
func (f bondFactors) payoff(x float64) float64 {
	return math.Max(f.underlying(x), 0)
}
