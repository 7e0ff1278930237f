// Package numerics holds the root finders, least-squares optimizer and closed-form
// helpers shared by the curve, calibration and engine packages.
package numerics

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotBracketed is returned when f(lo) and f(hi) have the same sign.
	ErrNotBracketed = errors.New("root not bracketed")
	// ErrMaxIterations is returned when a solver exhausts its iteration budget.
	ErrMaxIterations = errors.New("maximum iterations exceeded")
)

const machineEpsilon = 2.220446049250313e-16

// BracketError carries the endpoint values of a failed bracket.
type BracketError struct {
	Lo, Hi   float64
	FLo, FHi float64
}

func (e *BracketError) Error() string {
	return fmt.Sprintf("%v: f(%g)=%g, f(%g)=%g", ErrNotBracketed, e.Lo, e.FLo, e.Hi, e.FHi)
}

func (e *BracketError) Unwrap() error { return ErrNotBracketed }

// Bisection finds a root of f in [lo, hi] to within tol on x.
func Bisection(f func(float64) float64, lo, hi, tol float64, maxIter int) (float64, error) {
	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return lo, nil
	}
	if fhi == 0 {
		return hi, nil
	}
	if math.IsNaN(flo) || math.IsNaN(fhi) || (flo > 0) == (fhi > 0) {
		return 0, &BracketError{Lo: lo, Hi: hi, FLo: flo, FHi: fhi}
	}
	for i := 0; i < maxIter; i++ {
		mid := 0.5 * (lo + hi)
		if hi-lo < tol {
			return mid, nil
		}
		fmid := f(mid)
		if fmid == 0 {
			return mid, nil
		}
		if (fmid > 0) == (flo > 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), ErrMaxIterations
}

// Brent finds a root of f in [a, b] using inverse quadratic interpolation with bisection fallback.
func Brent(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.IsNaN(fa) || math.IsNaN(fb) || (fa > 0) == (fb > 0) {
		return 0, &BracketError{Lo: a, Hi: b, FLo: fa, FHi: fb}
	}
	c, fc := b, fb
	var d, e float64
	for i := 0; i < maxIter; i++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*machineEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else if xm > 0 {
			b += tol1
		} else {
			b -= tol1
		}
		fb = f(b)
	}
	return b, ErrMaxIterations
}

// ExpandBracket widens [lo, hi] geometrically around its midpoint until f changes sign.
func ExpandBracket(f func(float64) float64, lo, hi float64, maxExpansions int) (float64, float64, error) {
	flo, fhi := f(lo), f(hi)
	for i := 0; i < maxExpansions; i++ {
		if (flo > 0) != (fhi > 0) && !math.IsNaN(flo) && !math.IsNaN(fhi) {
			return lo, hi, nil
		}
		width := hi - lo
		lo -= width
		hi += width
		flo, fhi = f(lo), f(hi)
	}
	if (flo > 0) != (fhi > 0) && !math.IsNaN(flo) && !math.IsNaN(fhi) {
		return lo, hi, nil
	}
	return lo, hi, &BracketError{Lo: lo, Hi: hi, FLo: flo, FHi: fhi}
}
