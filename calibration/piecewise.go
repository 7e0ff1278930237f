package calibration

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/model"
	"github.com/meenmo/bermudan/numerics"
)

// BucketFailure is one bucket whose volatility search found no root.
type BucketFailure struct {
	Pass   int     `json:"pass"`
	Bucket int     `json:"bucket"`
	Expiry string  `json:"expiry"`
	Tenor  string  `json:"tenor"`
	Lo     float64 `json:"lo"`
	Hi     float64 `json:"hi"`
	FLo    float64 `json:"f_lo"`
	FHi    float64 `json:"f_hi"`
	Err    string  `json:"error"`
}

// BucketFailures lists every failed bucket of a pass.
type BucketFailures []BucketFailure

func (b BucketFailures) Error() string {
	parts := make([]string, len(b))
	for i, f := range b {
		parts[i] = fmt.Sprintf("bucket %d (%sx%s) pass %d: %s", f.Bucket, f.Expiry, f.Tenor, f.Pass, f.Err)
	}
	return strings.Join(parts, "; ")
}

// bucketStarts makes bucket k active from the expiry of instrument k-1.
func bucketStarts(instruments [market.GridSize]*Instrument) ([]float64, error) {
	starts := make([]float64, len(instruments))
	for k := 1; k < len(instruments); k++ {
		starts[k] = instruments[k-1].ExpiryTime
		if !(starts[k] > starts[k-1]) {
			return nil, failure.BadInput("calibration expiries are not increasing at bucket %d", k)
		}
	}
	return starts, nil
}

// calibratePiecewise solves the bucket volatilities as a fixed point: one
// pass where the trial vol fills every later bucket, then single-bucket
// passes until the largest change drops below FixedPointTol.
func calibratePiecewise(instruments [market.GridSize]*Instrument, discount *curve.YieldCurve, cfg config.Calibration, eng config.Engine) (model.ShortRateModel, error) {
	pc := cfg.Piecewise
	starts, err := bucketStarts(instruments)
	if err != nil {
		return nil, err
	}
	sigmas := make([]float64, len(instruments))
	for i := range sigmas {
		sigmas[i] = cfg.HullWhite.Sigma
	}
	base, err := model.NewGeneralizedHullWhite(discount, pc.Reversion, starts, sigmas)
	if err != nil {
		return nil, failure.Wrap(failure.TypeBadInput, "piecewise Hull-White initial guess", err)
	}
	price := oneFactorPricer(pc.CalibrationEngine(), eng)

	sigmas, err = piecewisePass(0, true, base, sigmas, price, instruments, pc)
	if err != nil {
		return nil, err
	}
	converged := false
	for pass := 1; pass <= pc.MaxRefinePasses; pass++ {
		next, err := piecewisePass(pass, false, base, sigmas, price, instruments, pc)
		if err != nil {
			return nil, err
		}
		change := 0.0
		for i := range next {
			change = math.Max(change, math.Abs(next[i]-sigmas[i]))
		}
		sigmas = next
		if pass >= pc.MinRefinePasses && change < pc.FixedPointTol {
			converged = true
			break
		}
	}
	if !converged {
		return nil, failure.Calibration("piecewise volatilities did not settle within %d refinement passes", pc.MaxRefinePasses)
	}
	m, err := base.WithSigmas(sigmas)
	if err != nil {
		return nil, failure.Wrap(failure.TypeCalibration, "piecewise volatilities", err)
	}
	return m, nil
}

// piecewisePass solves each bucket in order and returns the new vector. The
// input vector is not modified.
func piecewisePass(pass int, fill bool, base *model.GeneralizedHullWhite, current []float64, price pricer, instruments [market.GridSize]*Instrument, pc config.Piecewise) ([]float64, error) {
	sigmas := append([]float64(nil), current...)
	var failures BucketFailures
	for i, in := range instruments {
		snapshot := append([]float64(nil), sigmas...)
		objective := func(vol float64) float64 {
			trial := append([]float64(nil), snapshot...)
			trial[i] = vol
			if fill {
				for j := i + 1; j < len(trial); j++ {
					trial[j] = vol
				}
			}
			m, err := base.WithSigmas(trial)
			if err != nil {
				return math.NaN()
			}
			p, err := price(m, in)
			if err != nil {
				return math.NaN()
			}
			implied, err := in.ImpliedVol(p)
			if err != nil {
				return math.NaN()
			}
			return implied - in.MarketVol
		}

		root, err := numerics.Bisection(objective, pc.BracketLow, pc.BracketHigh, pc.Tolerance, pc.MaxBisections)
		if err != nil {
			f := BucketFailure{
				Pass:   pass,
				Bucket: i,
				Expiry: in.Point.Expiry.String(),
				Tenor:  in.Point.Tenor.String(),
				Lo:     pc.BracketLow,
				Hi:     pc.BracketHigh,
				FLo:    math.NaN(),
				FHi:    math.NaN(),
				Err:    err.Error(),
			}
			var be *numerics.BracketError
			if errors.As(err, &be) {
				f.FLo, f.FHi = be.FLo, be.FHi
			}
			failures = append(failures, f)
			continue
		}
		sigmas[i] = root
		if fill {
			for j := i + 1; j < len(sigmas); j++ {
				sigmas[j] = root
			}
		}
	}
	if len(failures) > 0 {
		return nil, failure.Wrapf(failure.TypeCalibration, failures, "%d of %d buckets failed in pass %d", len(failures), len(instruments), pass)
	}
	return sigmas, nil
}
