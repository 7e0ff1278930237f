package pricer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bermudan/calibration"
	"github.com/meenmo/bermudan/market"
)

// Result is the outcome of one pricing run.
type Result struct {
	RunID string
	// NPV is the holder's value in currency units; negative when short.
	NPV         float64
	NPVFraction float64
	Currency    market.Currency

	Variant     market.ModelVariant
	Engine      market.EngineKind
	ParamNames  []string
	Params      []float64
	RMSVolError float64
	Diagnostics []calibration.Diagnostic

	ExerciseDates []time.Time
	FixedRate     float64
	FairRate      float64
}

// Amount is the NPV rounded to cents.
func (r *Result) Amount() decimal.Decimal {
	return decimal.NewFromFloat(r.NPV).Round(2)
}

// Param returns the named calibrated parameter.
func (r *Result) Param(name string) (float64, bool) {
	for i, n := range r.ParamNames {
		if n == name {
			return r.Params[i], true
		}
	}
	return 0, false
}
