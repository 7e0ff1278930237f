package engine

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/meenmo/bermudan/model"
	"github.com/meenmo/bermudan/numerics"
)

// G2AnalyticSettings control the quadrature over the first factor.
type G2AnalyticSettings struct {
	Points  int
	StdDevs float64
}

// DefaultG2AnalyticSettings are the production quadrature sizes.
func DefaultG2AnalyticSettings() G2AnalyticSettings {
	return G2AnalyticSettings{Points: 96, StdDevs: 8}
}

// G2Analytic prices a European swaption under G2++ by integrating the
// conditional closed form over x(T) under the T-forward measure.
type G2Analytic struct {
	Model    *model.G2
	Settings G2AnalyticSettings
}

// NewG2Analytic binds a G2 model to the semi-analytic engine.
func NewG2Analytic(m *model.G2, s G2AnalyticSettings) *G2Analytic {
	return &G2Analytic{Model: m, Settings: s}
}

func (e *G2Analytic) Price(s Swaption) (float64, error) {
	if err := validate(s); err != nil {
		return 0, fmt.Errorf("G2Analytic.Price: %w", err)
	}
	if !s.IsEuropean() {
		return 0, fmt.Errorf("G2Analytic.Price: %d exercises, semi-analytic form needs one", len(s.Exercises))
	}
	if e.Settings.Points < 2 || !(e.Settings.StdDevs > 0) {
		return 0, fmt.Errorf("G2Analytic.Price: invalid settings %+v", e.Settings)
	}
	m := e.Model
	a, sigma, b, eta, rho := m.A(), m.Sigma(), m.B(), m.Eta(), m.Rho()
	ex := s.Exercises[0]
	T := ex.Time
	w := s.Type.Sign()

	mux := -((sigma*sigma/(a*a)+rho*sigma*eta/(a*b))*(1-math.Exp(-a*T)) -
		0.5*sigma*sigma/(a*a)*(1-math.Exp(-2*a*T)) -
		rho*sigma*eta/(b*(a+b))*(1-math.Exp(-(a+b)*T)))
	muy := -((eta*eta/(b*b)+rho*sigma*eta/(a*b))*(1-math.Exp(-b*T)) -
		0.5*eta*eta/(b*b)*(1-math.Exp(-2*b*T)) -
		rho*sigma*eta/(a*(a+b))*(1-math.Exp(-(a+b)*T)))
	sx := math.Sqrt(m.VarX(T))
	sy := math.Sqrt(m.VarY(T))
	rxy := rho * sigma * eta * (1 - math.Exp(-(a+b)*T)) / ((a + b) * sx * sy)
	txy := math.Sqrt(1 - rxy*rxy)

	g := newG2Factors(m, 1, ex)

	var solveErr error
	integrand := func(x float64) float64 {
		yBar, err := g.criticalY(x)
		if err != nil {
			solveErr = err
			return 0
		}
		h1 := (yBar-muy)/(sy*txy) - rxy*(x-mux)/(sx*txy)
		sum := 0.0
		for k := range g.c {
			bb := g.bb[k]
			kappa := -bb * (muy - 0.5*txy*txy*sy*sy*bb + rxy*sy*(x-mux)/sx)
			h2 := h1 + bb*sy*txy
			sum += g.c[k] * math.Exp(-g.ba[k]*x+kappa) * numerics.NormCDF(-w*h2)
		}
		z := (x - mux) / sx
		return math.Exp(-0.5*z*z) / (sx * math.Sqrt(2*math.Pi)) * sum
	}
	width := e.Settings.StdDevs * sx
	integral := quad.Fixed(integrand, mux-width, mux+width, e.Settings.Points, quad.Legendre{}, 0)
	if solveErr != nil {
		return 0, fmt.Errorf("G2Analytic.Price: %w", solveErr)
	}
	price := w * m.TermStructure().DiscountT(T) * integral
	if !isFinite(price) {
		return 0, fmt.Errorf("G2Analytic.Price: non-finite price")
	}
	return math.Max(price, 0), nil
}

// g2Factors writes the flows of one exercise as Σ c_k·exp(-ba_k·x - bb_k·y).
type g2Factors struct {
	sign float64
	c    []float64
	ba   []float64
	bb   []float64
}

func newG2Factors(m *model.G2, sign float64, e Exercise) g2Factors {
	t := e.Time
	ts := m.TermStructure()
	p0t := ts.DiscountT(t)
	v0t := m.V(0, t)
	n := len(e.Flows)
	f := g2Factors{sign: sign, c: make([]float64, n), ba: make([]float64, n), bb: make([]float64, n)}
	for k, cf := range e.Flows {
		if cf.Time <= t {
			f.c[k] = cf.Amount
			continue
		}
		A := ts.DiscountT(cf.Time) / p0t * math.Exp(0.5*(m.V(t, cf.Time)-m.V(0, cf.Time)+v0t))
		f.c[k] = cf.Amount * A
		f.ba[k] = m.BA(t, cf.Time)
		f.bb[k] = m.BB(t, cf.Time)
	}
	return f
}

func (f g2Factors) underlying(x, y float64) float64 {
	sum := 0.0
	for k := range f.c {
		sum += f.c[k] * math.Exp(-f.ba[k]*x-f.bb[k]*y)
	}
	return f.sign * sum
}

func (f g2Factors) payoff(x, y float64) float64 {
	return math.Max(f.underlying(x, y), 0)
}

// criticalY solves underlying(x, y) = 0 for y. Without a sign change it
// returns -Inf when the unsigned flows are positive for every y and +Inf
// otherwise.
func (f g2Factors) criticalY(x float64) (float64, error) {
	g := func(y float64) float64 {
		sum := 0.0
		for k := range f.c {
			sum += f.c[k] * math.Exp(-f.ba[k]*x-f.bb[k]*y)
		}
		return sum
	}
	lo, hi, err := numerics.ExpandBracket(g, -0.1, 0.1, 4)
	if err != nil {
		if errors.Is(err, numerics.ErrNotBracketed) {
			if g(0) > 0 {
				return math.Inf(-1), nil
			}
			return math.Inf(1), nil
		}
		return 0, err
	}
	y, err := numerics.Brent(g, lo, hi, 1e-14, 200)
	if err != nil {
		return 0, fmt.Errorf("critical y at x=%v: %w", x, err)
	}
	return y, nil
}
