// Package model holds the Gaussian short-rate models used for swaption pricing.
//
// All models are fitted exactly to an initial discount curve and work in that
// curve's time axis. Models are immutable; WithParams returns a new model.
package model

import (
	"errors"

	"github.com/meenmo/bermudan/market"
)

// ErrParams is returned when a parameter vector is malformed or out of range.
var ErrParams = errors.New("invalid model parameters")

// TermStructure is the initial discount curve a model reprices.
type TermStructure interface {
	DiscountT(t float64) float64
}

// ShortRateModel is the variant-independent view of a calibrated model.
type ShortRateModel interface {
	Variant() market.ModelVariant
	Params() []float64
	ParamNames() []string
	TermStructure() TermStructure
	WithParams(p []float64) (ShortRateModel, error)
}

// OneFactor exposes the analytics of a Gaussian one-factor model
// r(t) = x(t) + α(t), dx = -a·x·dt + σ(t)·dW, x(0) = 0.
type OneFactor interface {
	ShortRateModel
	Reversion() float64
	Sigma(t float64) float64
	// B is (1 - e^{-a(T-t)})/a.
	B(t, T float64) float64
	// VarX is the variance of x(t2) given x(t1).
	VarX(t1, t2 float64) float64
	// V is the variance of ∫_t^T x(u)du given x(t).
	V(t, T float64) float64
	// BondPrice is P(t,T) given x(t) = x.
	BondPrice(t, T, x float64) float64
	// AlphaIntegral is ∫_{t1}^{t2} α(u)du.
	AlphaIntegral(t1, t2 float64) float64
}
