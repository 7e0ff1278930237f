package model

import (
	"fmt"
	"math"

	"github.com/meenmo/bermudan/market"
)

// G2 is the two-factor Gaussian model r(t) = x(t) + y(t) + φ(t) with
//
//	dx = -a·x·dt + σ·dW1, dy = -b·y·dt + η·dW2, dW1·dW2 = ρ·dt.
type G2 struct {
	a, sigma, b, eta, rho float64
	ts                    TermStructure
}

// NewG2 fits a G2++ model to ts.
func NewG2(ts TermStructure, a, sigma, b, eta, rho float64) (*G2, error) {
	if ts == nil {
		return nil, fmt.Errorf("NewG2: %w: nil term structure", ErrParams)
	}
	if !(a > 0) || !(b > 0) || !(sigma > 0) || !(eta > 0) {
		return nil, fmt.Errorf("NewG2: %w: a=%v sigma=%v b=%v eta=%v", ErrParams, a, sigma, b, eta)
	}
	if !(rho > -1 && rho < 1) {
		return nil, fmt.Errorf("NewG2: %w: rho=%v outside (-1, 1)", ErrParams, rho)
	}
	return &G2{a: a, sigma: sigma, b: b, eta: eta, rho: rho, ts: ts}, nil
}

func (m *G2) Variant() market.ModelVariant { return market.G2 }
func (m *G2) Params() []float64            { return []float64{m.a, m.sigma, m.b, m.eta, m.rho} }
func (m *G2) ParamNames() []string         { return []string{"a", "sigma", "b", "eta", "rho"} }
func (m *G2) TermStructure() TermStructure { return m.ts }

func (m *G2) WithParams(p []float64) (ShortRateModel, error) {
	if len(p) != 5 {
		return nil, fmt.Errorf("G2.WithParams: %w: want 5 values, got %d", ErrParams, len(p))
	}
	return NewG2(m.ts, p[0], p[1], p[2], p[3], p[4])
}

// A, Sigma, B, Eta and Rho are the model parameters.
func (m *G2) A() float64     { return m.a }
func (m *G2) Sigma() float64 { return m.sigma }
func (m *G2) B() float64     { return m.b }
func (m *G2) Eta() float64   { return m.eta }
func (m *G2) Rho() float64   { return m.rho }

// BA is (1 - e^{-a(T-t)})/a; BB is the same with b.
func (m *G2) BA(t, T float64) float64 { return (1 - math.Exp(-m.a*(T-t))) / m.a }
func (m *G2) BB(t, T float64) float64 { return (1 - math.Exp(-m.b*(T-t))) / m.b }

// V is the variance of ∫_t^T (x+y)du given the state at t.
func (m *G2) V(t, T float64) float64 {
	tau := T - t
	a, b := m.a, m.b
	ea, eb, eab := math.Exp(-a*tau), math.Exp(-b*tau), math.Exp(-(a+b)*tau)
	vx := m.sigma * m.sigma / (a * a) * (tau + 2/a*ea - 1/(2*a)*ea*ea - 3/(2*a))
	vy := m.eta * m.eta / (b * b) * (tau + 2/b*eb - 1/(2*b)*eb*eb - 3/(2*b))
	cross := 2 * m.rho * m.sigma * m.eta / (a * b) * (tau + (ea-1)/a + (eb-1)/b - (eab-1)/(a+b))
	return vx + vy + cross
}

// BondPrice is P(t,T) given x(t) = x and y(t) = y.
func (m *G2) BondPrice(t, T, x, y float64) float64 {
	if T <= t {
		return 1
	}
	p0T, p0t := m.ts.DiscountT(T), m.ts.DiscountT(t)
	return p0T / p0t * math.Exp(0.5*(m.V(t, T)-m.V(0, T)+m.V(0, t))-m.BA(t, T)*x-m.BB(t, T)*y)
}

// PhiIntegral is ∫_{t1}^{t2} φ(u)du.
func (m *G2) PhiIntegral(t1, t2 float64) float64 {
	return math.Log(m.ts.DiscountT(t1)/m.ts.DiscountT(t2)) + 0.5*(m.V(0, t2)-m.V(0, t1))
}

// VarX and VarY are the unconditional variances of the factors at t.
func (m *G2) VarX(t float64) float64 {
	return m.sigma * m.sigma * (1 - math.Exp(-2*m.a*t)) / (2 * m.a)
}

func (m *G2) VarY(t float64) float64 {
	return m.eta * m.eta * (1 - math.Exp(-2*m.b*t)) / (2 * m.b)
}
