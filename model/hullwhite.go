package model

import (
	"fmt"
	"strconv"

	"github.com/meenmo/bermudan/market"
)

// HullWhite is the one-factor model with constant reversion and volatility.
type HullWhite struct {
	gaussian1F
}

// NewHullWhite fits a constant-parameter Hull–White model to ts.
func NewHullWhite(ts TermStructure, a, sigma float64) (*HullWhite, error) {
	g, err := newGaussian1F(ts, a, []float64{0}, []float64{sigma})
	if err != nil {
		return nil, fmt.Errorf("NewHullWhite: %w", err)
	}
	return &HullWhite{gaussian1F: g}, nil
}

func (m *HullWhite) Variant() market.ModelVariant { return market.HullWhiteConstant }
func (m *HullWhite) Params() []float64            { return []float64{m.a, m.sigmas[0]} }
func (m *HullWhite) ParamNames() []string         { return []string{"a", "sigma"} }

func (m *HullWhite) WithParams(p []float64) (ShortRateModel, error) {
	if len(p) != 2 {
		return nil, fmt.Errorf("HullWhite.WithParams: %w: want 2 values, got %d", ErrParams, len(p))
	}
	return NewHullWhite(m.ts, p[0], p[1])
}

// GeneralizedHullWhite is the one-factor model with constant reversion and a
// piecewise-constant volatility, one value per calibration bucket.
type GeneralizedHullWhite struct {
	gaussian1F
}

// NewGeneralizedHullWhite fits a piecewise-volatility model to ts. starts[0]
// must be 0 and sigmas[k] applies from starts[k] until starts[k+1].
func NewGeneralizedHullWhite(ts TermStructure, a float64, starts, sigmas []float64) (*GeneralizedHullWhite, error) {
	g, err := newGaussian1F(ts, a, starts, sigmas)
	if err != nil {
		return nil, fmt.Errorf("NewGeneralizedHullWhite: %w", err)
	}
	return &GeneralizedHullWhite{gaussian1F: g}, nil
}

func (m *GeneralizedHullWhite) Variant() market.ModelVariant { return market.HullWhitePiecewise }

// Params is the reversion followed by the bucket volatilities.
func (m *GeneralizedHullWhite) Params() []float64 {
	return append([]float64{m.a}, m.sigmas...)
}

func (m *GeneralizedHullWhite) ParamNames() []string {
	names := []string{"a"}
	for i := range m.sigmas {
		names = append(names, "sigma_"+strconv.Itoa(i+1))
	}
	return names
}

// Starts returns the bucket start times.
func (m *GeneralizedHullWhite) Starts() []float64 {
	return append([]float64(nil), m.starts...)
}

// Sigmas returns the bucket volatilities.
func (m *GeneralizedHullWhite) Sigmas() []float64 {
	return append([]float64(nil), m.sigmas...)
}

func (m *GeneralizedHullWhite) WithParams(p []float64) (ShortRateModel, error) {
	if len(p) != 1+len(m.sigmas) {
		return nil, fmt.Errorf("GeneralizedHullWhite.WithParams: %w: want %d values, got %d", ErrParams, 1+len(m.sigmas), len(p))
	}
	return NewGeneralizedHullWhite(m.ts, p[0], m.starts, p[1:])
}

// WithSigmas returns a copy with new bucket volatilities.
func (m *GeneralizedHullWhite) WithSigmas(sigmas []float64) (*GeneralizedHullWhite, error) {
	return NewGeneralizedHullWhite(m.ts, m.a, m.starts, sigmas)
}
