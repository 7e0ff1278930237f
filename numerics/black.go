package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormCDF is the standard normal cumulative distribution.
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// BlackFormula returns the undiscounted lognormal price of a call (payer) or put (receiver)
// on forward with total standard deviation stdDev = σ√T.
func BlackFormula(payer bool, strike, forward, stdDev float64) float64 {
	if stdDev <= 0 {
		if payer {
			return math.Max(forward-strike, 0)
		}
		return math.Max(strike-forward, 0)
	}
	d1 := (math.Log(forward/strike) + 0.5*stdDev*stdDev) / stdDev
	d2 := d1 - stdDev
	if payer {
		return forward*NormCDF(d1) - strike*NormCDF(d2)
	}
	return strike*NormCDF(-d2) - forward*NormCDF(-d1)
}

// BlackImpliedStdDev inverts BlackFormula for the total standard deviation.
func BlackImpliedStdDev(payer bool, strike, forward, price float64) (float64, error) {
	if forward <= 0 || strike <= 0 {
		return 0, fmt.Errorf("BlackImpliedStdDev: forward %g and strike %g must be positive", forward, strike)
	}
	intrinsic := math.Max(forward-strike, 0)
	upper := forward
	if !payer {
		intrinsic = math.Max(strike-forward, 0)
		upper = strike
	}
	if !(price > intrinsic) || !(price < upper) {
		return 0, fmt.Errorf("BlackImpliedStdDev: price %g outside (%g, %g)", price, intrinsic, upper)
	}
	f := func(sd float64) float64 {
		return BlackFormula(payer, strike, forward, sd) - price
	}
	sd, err := Brent(f, 1e-12, 10, 1e-14, 200)
	if err != nil {
		return 0, fmt.Errorf("BlackImpliedStdDev: %w", err)
	}
	return sd, nil
}
