package market

import (
	"fmt"
	"strings"
)

// ExerciseStyle of the option.
type ExerciseStyle string

const (
	European ExerciseStyle = "EUROPEAN"
	Bermudan ExerciseStyle = "BERMUDAN"
	American ExerciseStyle = "AMERICAN"
)

// ParseExerciseStyle recognises all three ticket styles; only European and Bermudan can be priced.
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch st := ExerciseStyle(strings.ToUpper(strings.TrimSpace(s))); st {
	case European, Bermudan, American:
		return st, nil
	default:
		return "", fmt.Errorf("ParseExerciseStyle: unsupported exercise style %q", s)
	}
}

// ModelFamily is the short-rate model named on the deal ticket.
type ModelFamily string

const (
	HullWhiteOneFactor ModelFamily = "HW1F"
	G2TwoFactor        ModelFamily = "G2"
)

// ParseModelFamily accepts "Hull-White One Factor", "HW1F", "G2++" and similar.
func ParseModelFamily(s string) (ModelFamily, error) {
	key := strings.ToUpper(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "HULLWHITEONEFACTOR", "HULLWHITE", "HW", "HW1F":
		return HullWhiteOneFactor, nil
	case "G2", "G2++", "G2PP", "TWOFACTOR":
		return G2TwoFactor, nil
	default:
		return "", fmt.Errorf("ParseModelFamily: unsupported model %q", s)
	}
}

// VolComplexity selects constant or piecewise volatility for one-factor models.
type VolComplexity string

const (
	ConstantVol  VolComplexity = "CONSTANT"
	PiecewiseVol VolComplexity = "PIECEWISE"
)

// ParseVolComplexity validates a volatility complexity tag.
func ParseVolComplexity(s string) (VolComplexity, error) {
	switch v := VolComplexity(strings.ToUpper(strings.TrimSpace(s))); v {
	case ConstantVol, PiecewiseVol:
		return v, nil
	case "":
		return ConstantVol, nil
	default:
		return "", fmt.Errorf("ParseVolComplexity: unsupported volatility complexity %q", s)
	}
}

// ModelVariant is the closed set of calibratable short-rate models.
type ModelVariant string

const (
	HullWhiteConstant  ModelVariant = "HW1F_CONSTANT"
	HullWhitePiecewise ModelVariant = "HW1F_PIECEWISE"
	G2                 ModelVariant = "G2"
)

// ResolveVariant combines the ticket's model family and volatility complexity.
func ResolveVariant(family ModelFamily, vc VolComplexity) (ModelVariant, error) {
	switch family {
	case HullWhiteOneFactor:
		if vc == PiecewiseVol {
			return HullWhitePiecewise, nil
		}
		return HullWhiteConstant, nil
	case G2TwoFactor:
		if vc == PiecewiseVol {
			return "", fmt.Errorf("ResolveVariant: piecewise volatility is only available for %s", HullWhiteOneFactor)
		}
		return G2, nil
	default:
		return "", fmt.Errorf("ResolveVariant: unsupported model %q", family)
	}
}

// ParamCount returns the length of the variant's parameter vector.
func (v ModelVariant) ParamCount() int {
	switch v {
	case HullWhiteConstant:
		return 2
	case HullWhitePiecewise:
		return 11
	case G2:
		return 5
	default:
		return 0
	}
}

// EngineKind selects the numerical method used to price the swaption.
type EngineKind string

const (
	EngineAuto     EngineKind = "AUTO"
	EngineFD       EngineKind = "FD"
	EngineTree     EngineKind = "TREE"
	EngineAnalytic EngineKind = "ANALYTIC"
)

// ParseEngine accepts FD, Tree, Analytic and the ticket's "Black" label for closed-form pricing.
func ParseEngine(s string) (EngineKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AUTO":
		return EngineAuto, nil
	case "FD", "FINITEDIFFERENCE", "FINITE-DIFFERENCE":
		return EngineFD, nil
	case "TREE", "LATTICE":
		return EngineTree, nil
	case "ANALYTIC", "BLACK", "JAMSHIDIAN":
		return EngineAnalytic, nil
	default:
		return "", fmt.Errorf("ParseEngine: unsupported engine %q", s)
	}
}

// CurveMode selects single- or dual-curve discounting.
type CurveMode string

const (
	SingleCurve CurveMode = "SINGLE"
	DualCurve   CurveMode = "DUAL"
)

// ParseCurveMode validates a curve mode tag.
func ParseCurveMode(s string) (CurveMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "SINGLE", "LIBOR":
		return SingleCurve, nil
	case "DUAL", "OIS":
		return DualCurve, nil
	default:
		return "", fmt.Errorf("ParseCurveMode: unsupported curve mode %q", s)
	}
}
