package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/bermudan/model"
	"github.com/meenmo/bermudan/numerics"
)

// Jamshidian prices a European swaption under a one-factor model in closed
// form by splitting it into zero-coupon bond options struck at the critical
// factor level.
type Jamshidian struct {
	Model model.OneFactor
}

// NewJamshidian binds a one-factor model to the closed-form engine.
func NewJamshidian(m model.OneFactor) *Jamshidian { return &Jamshidian{Model: m} }

func (e *Jamshidian) Price(s Swaption) (float64, error) {
	if err := validate(s); err != nil {
		return 0, fmt.Errorf("Jamshidian.Price: %w", err)
	}
	if !s.IsEuropean() {
		return 0, fmt.Errorf("Jamshidian.Price: %d exercises, closed form needs one", len(s.Exercises))
	}
	m := e.Model
	ts := m.TermStructure()
	ex := s.Exercises[0]
	T := ex.Time
	f := newBondFactors(m, 1, ex)

	xStar, found, err := criticalFactor(f)
	if err != nil {
		return 0, fmt.Errorf("Jamshidian.Price: %w", err)
	}
	payer := s.Type.Sign() > 0
	if !found {
		// The underlying keeps one sign in every state.
		forward := 0.0
		for _, cf := range ex.Flows {
			forward += cf.Amount * ts.DiscountT(cf.Time)
		}
		forward *= s.Type.Sign()
		return math.Max(forward, 0), nil
	}

	p0T := ts.DiscountT(T)
	sdX := math.Sqrt(m.VarX(0, T))
	price := 0.0
	for k, cf := range ex.Flows {
		if cf.Time <= T {
			continue
		}
		strike := f.c[k] / cf.Amount * math.Exp(-f.b[k]*xStar)
		p0S := ts.DiscountT(cf.Time)
		sigmaP := f.b[k] * sdX
		// Payers hold puts on the bonds, receivers hold calls.
		price += -cf.Amount * zeroBondOption(!payer, strike, p0T, p0S, sigmaP)
	}
	if !isFinite(price) {
		return 0, fmt.Errorf("Jamshidian.Price: non-finite price")
	}
	return math.Max(price, 0), nil
}

// criticalFactor finds x* with Σ c_k·exp(-b_k·x*) = 0. found is false when
// the sum does not change sign over a wide range of states.
func criticalFactor(f bondFactors) (float64, bool, error) {
	g := func(x float64) float64 { return f.underlying(x) }
	lo, hi, err := numerics.ExpandBracket(g, -0.1, 0.1, 4)
	if err != nil {
		if errors.Is(err, numerics.ErrNotBracketed) {
			return 0, false, nil
		}
		return 0, false, err
	}
	x, err := numerics.Brent(g, lo, hi, 1e-14, 200)
	if err != nil {
		return 0, false, fmt.Errorf("critical factor: %w", err)
	}
	return x, true, nil
}

// zeroBondOption is the value at time zero of an option expiring at T on a
// zero bond maturing at S, with lognormal bond volatility sigmaP.
func zeroBondOption(call bool, strike, p0T, p0S, sigmaP float64) float64 {
	if sigmaP < 1e-14 {
		if call {
			return math.Max(p0S-strike*p0T, 0)
		}
		return math.Max(strike*p0T-p0S, 0)
	}
	h := math.Log(p0S/(p0T*strike))/sigmaP + 0.5*sigmaP
	if call {
		return p0S*numerics.NormCDF(h) - strike*p0T*numerics.NormCDF(h-sigmaP)
	}
	return strike*p0T*numerics.NormCDF(-h+sigmaP) - p0S*numerics.NormCDF(-h)
}
