package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/engine"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/model"
	"github.com/meenmo/bermudan/numerics"
)

// Residual kinds.
const (
	ResidualPrice = "PRICE"
	ResidualVol   = "VOL"
)

// Diagnostic compares the calibrated model with the market for one bucket.
type Diagnostic struct {
	Expiry      string  `json:"expiry"`
	Tenor       string  `json:"tenor"`
	ModelVol    float64 `json:"model_vol"`
	MarketVol   float64 `json:"market_vol"`
	Diff        float64 `json:"diff"`
	ModelPrice  float64 `json:"model_price"`
	MarketPrice float64 `json:"market_price"`
}

// RMS is the root mean square vol difference over ds.
func RMS(ds []Diagnostic) float64 {
	if len(ds) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range ds {
		sum += d.Diff * d.Diff
	}
	return math.Sqrt(sum / float64(len(ds)))
}

// Calibrate fits variant to the instruments.
//
// fixed masks parameters held at their initial value; nil selects the variant
// default (nothing for constant Hull–White, a and b for G2). The piecewise
// variant always holds its reversion fixed and ignores the mask beyond its length.
func Calibrate(variant market.ModelVariant, instruments [market.GridSize]*Instrument, discount, forecast *curve.YieldCurve, fixed []bool, cfg config.Calibration, eng config.Engine) (model.ShortRateModel, []Diagnostic, error) {
	if discount == nil || forecast == nil {
		return nil, nil, failure.BadInput("calibration needs discount and forecast curves")
	}
	for i, in := range instruments {
		if in == nil {
			return nil, nil, failure.BadInput("calibration instrument %d is missing", i)
		}
	}
	if fixed != nil && len(fixed) != variant.ParamCount() {
		return nil, nil, failure.BadInput("fixed-parameter mask has %d entries, %s has %d parameters", len(fixed), variant, variant.ParamCount())
	}

	var (
		m     model.ShortRateModel
		price pricer
		err   error
	)
	switch variant {
	case market.HullWhiteConstant:
		m, err = calibrateHullWhite(instruments, discount, fixed, cfg, eng)
		price = oneFactorPricer(market.EngineFD, eng)
	case market.HullWhitePiecewise:
		m, err = calibratePiecewise(instruments, discount, cfg, eng)
		price = oneFactorPricer(cfg.Piecewise.CalibrationEngine(), eng)
	case market.G2:
		m, err = calibrateG2(instruments, discount, fixed, cfg, eng)
		price = g2Pricer(eng)
	default:
		return nil, nil, failure.BadInput("unsupported model variant %q", string(variant))
	}
	if err != nil {
		return nil, nil, err
	}

	diags, err := diagnostics(m, price, instruments)
	if err != nil {
		return nil, nil, failure.Wrap(failure.TypeCalibration, "calibrated model diagnostics", err)
	}
	return m, diags, nil
}

// pricer values an instrument under a model.
type pricer func(m model.ShortRateModel, in *Instrument) (float64, error)

func oneFactorPricer(kind market.EngineKind, eng config.Engine) pricer {
	return func(m model.ShortRateModel, in *Instrument) (float64, error) {
		of, ok := m.(model.OneFactor)
		if !ok {
			return 0, fmt.Errorf("%s is not a one-factor model", m.Variant())
		}
		var e engine.Engine
		switch kind {
		case market.EngineFD:
			e = engine.NewFD1F(of, eng.FD())
		case market.EngineTree:
			e = engine.NewTree1F(of, eng.Tree())
		default:
			e = engine.NewJamshidian(of)
		}
		return e.Price(in.Swaption())
	}
}

func g2Pricer(eng config.Engine) pricer {
	return func(m model.ShortRateModel, in *Instrument) (float64, error) {
		g2, ok := m.(*model.G2)
		if !ok {
			return 0, fmt.Errorf("%s is not a G2 model", m.Variant())
		}
		return engine.NewG2Analytic(g2, eng.G2Analytic()).Price(in.Swaption())
	}
}

// diagnostics reprices every instrument under m and backs out its implied vol.
func diagnostics(m model.ShortRateModel, price pricer, instruments [market.GridSize]*Instrument) ([]Diagnostic, error) {
	out := make([]Diagnostic, 0, len(instruments))
	for _, in := range instruments {
		p, err := price(m, in)
		if err != nil {
			return nil, fmt.Errorf("instrument %s: %w", in.Point, err)
		}
		vol, err := in.ImpliedVol(p)
		if err != nil {
			return nil, err
		}
		out = append(out, Diagnostic{
			Expiry:      in.Point.Expiry.String(),
			Tenor:       in.Point.Tenor.String(),
			ModelVol:    vol,
			MarketVol:   in.MarketVol,
			Diff:        vol - in.MarketVol,
			ModelPrice:  p,
			MarketPrice: in.MarketPrice(),
		})
	}
	return out, nil
}

// transform maps an unconstrained optimizer coordinate to a model parameter.
type transform int

const (
	positive transform = iota
	correlation
)

func (t transform) toModel(x float64) float64 {
	if t == correlation {
		return math.Tanh(x)
	}
	return math.Exp(x)
}

func (t transform) fromModel(p float64) float64 {
	if t == correlation {
		return math.Atanh(p)
	}
	return math.Log(p)
}

// leastSquares fits the free entries of initial by Levenberg–Marquardt, with
// one residual per instrument.
func leastSquares(initial model.ShortRateModel, transforms []transform, fixed []bool, price pricer, instruments [market.GridSize]*Instrument, cfg config.Calibration) (model.ShortRateModel, error) {
	p0 := initial.Params()
	free := make([]int, 0, len(p0))
	for i := range p0 {
		if fixed == nil || !fixed[i] {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return initial, nil
	}

	var marketPrices [market.GridSize]float64
	for i, in := range instruments {
		marketPrices[i] = in.MarketPrice()
	}

	build := func(x []float64) (model.ShortRateModel, error) {
		p := append([]float64(nil), p0...)
		for k, idx := range free {
			p[idx] = transforms[idx].toModel(x[k])
		}
		return initial.WithParams(p)
	}
	residuals := func(x, r []float64) error {
		m, err := build(x)
		if err != nil {
			return err
		}
		for i, in := range instruments {
			v, err := price(m, in)
			if err != nil {
				return err
			}
			if cfg.Residual == ResidualVol {
				vol, err := in.ImpliedVol(v)
				if err != nil {
					return err
				}
				r[i] = vol - in.MarketVol
				continue
			}
			r[i] = (v - marketPrices[i]) / marketPrices[i]
		}
		return nil
	}

	x0 := make([]float64, len(free))
	for k, idx := range free {
		x0[k] = transforms[idx].fromModel(p0[idx])
	}
	res, err := numerics.LevenbergMarquardt(residuals, x0, len(instruments), cfg.LeastSquares.Settings())
	if err != nil {
		if errors.Is(err, numerics.ErrMaxIterations) {
			return nil, failure.Wrapf(failure.TypeCalibration, err, "%s least squares did not converge in %d iterations (cost %g)",
				initial.Variant(), res.Iterations, res.Cost)
		}
		return nil, failure.Wrapf(failure.TypeCalibration, err, "%s least squares", initial.Variant())
	}
	m, err := build(res.X)
	if err != nil {
		return nil, failure.Wrapf(failure.TypeCalibration, err, "%s calibrated parameters", initial.Variant())
	}
	return m, nil
}

func calibrateHullWhite(instruments [market.GridSize]*Instrument, discount *curve.YieldCurve, fixed []bool, cfg config.Calibration, eng config.Engine) (model.ShortRateModel, error) {
	hw, err := model.NewHullWhite(discount, cfg.HullWhite.Reversion, cfg.HullWhite.Sigma)
	if err != nil {
		return nil, failure.Wrap(failure.TypeBadInput, "Hull-White initial guess", err)
	}
	return leastSquares(hw, []transform{positive, positive}, fixed, oneFactorPricer(market.EngineFD, eng), instruments, cfg)
}

func calibrateG2(instruments [market.GridSize]*Instrument, discount *curve.YieldCurve, fixed []bool, cfg config.Calibration, eng config.Engine) (model.ShortRateModel, error) {
	g := cfg.G2
	g2, err := model.NewG2(discount, g.A, g.Sigma, g.B, g.Eta, g.Rho)
	if err != nil {
		return nil, failure.Wrap(failure.TypeBadInput, "G2 initial guess", err)
	}
	if fixed == nil {
		fixed = []bool{g.FixA, false, g.FixB, false, false}
	}
	return leastSquares(g2, []transform{positive, positive, positive, positive, correlation}, fixed, g2Pricer(eng), instruments, cfg)
}
