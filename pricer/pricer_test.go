package pricer_test

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/pricer"
	"github.com/meenmo/bermudan/swap"
)

func newPricer(t *testing.T, opts ...pricer.Option) *pricer.Pricer {
	t.Helper()
	p, err := pricer.New(config.MustDefault(), opts...)
	if err != nil {
		t.Fatalf("pricer.New error: %v", err)
	}
	return p
}

func referenceMarket(t *testing.T) pricer.MarketData {
	t.Helper()
	data, err := pricer.ReferenceMarket()
	if err != nil {
		t.Fatalf("ReferenceMarket error: %v", err)
	}
	return data
}

func TestNormalizeReferenceDeal(t *testing.T) {
	t.Parallel()

	terms, err := pricer.ReferenceDeal().Normalize()
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if terms.Type != swap.Receiver {
		t.Fatalf("type = %s, want RECEIVER", terms.Type)
	}
	if terms.FixedRate != 0.02 || terms.AtMarket {
		t.Fatalf("fixed rate = %v at market %v", terms.FixedRate, terms.AtMarket)
	}
	if terms.FixedFrequency != market.FreqSemi || terms.FloatFrequency != market.FreqQuarterly {
		t.Fatalf("frequencies = %s / %s", terms.FixedFrequency, terms.FloatFrequency)
	}
	if terms.FixedDayCount != market.Thirty360 || terms.FloatDayCount != market.Act360 {
		t.Fatalf("day counts = %s / %s", terms.FixedDayCount, terms.FloatDayCount)
	}
	if terms.Variant != market.HullWhiteConstant || terms.Engine != market.EngineFD {
		t.Fatalf("choice = %s / %s", terms.Variant, terms.Engine)
	}
	if terms.Style != market.Bermudan || terms.Position != market.Long || terms.CurveMode != market.SingleCurve {
		t.Fatalf("style %s position %s mode %s", terms.Style, terms.Position, terms.CurveMode)
	}
	if terms.FirstExercise != nil {
		t.Fatalf("unexpected first exercise override %v", terms.FirstExercise)
	}
	if terms.Effective.Year() != 2020 || terms.Maturity.Year() != 2025 || terms.PricingDate.Day() != 16 {
		t.Fatalf("dates = %s %s %s", terms.Effective, terms.Maturity, terms.PricingDate)
	}
}

func TestNormalizeCoupons(t *testing.T) {
	t.Parallel()

	for coupon, want := range map[string]float64{"2.5%": 0.025, "0.0175": 0.0175, " 3 % ": 0.03} {
		d := pricer.ReferenceDeal()
		d.Fixed.Coupon = coupon
		terms, err := d.Normalize()
		if err != nil {
			t.Fatalf("coupon %q error: %v", coupon, err)
		}
		if math.Abs(terms.FixedRate-want) > 1e-15 {
			t.Fatalf("coupon %q = %v, want %v", coupon, terms.FixedRate, want)
		}
	}
	d := pricer.ReferenceDeal()
	d.Fixed.Coupon = "atm"
	terms, err := d.Normalize()
	if err != nil || !terms.AtMarket {
		t.Fatalf("ATM coupon: at market %v, err %v", terms.AtMarket, err)
	}
}

func TestNormalizeRejectsBadDeals(t *testing.T) {
	t.Parallel()

	cases := map[string]func(d *pricer.DealParams){
		"american":          func(d *pricer.DealParams) { d.ExerciseStyle = "American" },
		"unknown style":     func(d *pricer.DealParams) { d.ExerciseStyle = "Asian" },
		"same directions":   func(d *pricer.DealParams) { d.Float.Direction = "Receive" },
		"bad date":          func(d *pricer.DealParams) { d.MaturityDate = "2025/13/40" },
		"no pricing date":   func(d *pricer.DealParams) { d.PricingDate = "" },
		"zero notional":     func(d *pricer.DealParams) { d.Notional = 0 },
		"bad coupon":        func(d *pricer.DealParams) { d.Fixed.Coupon = "two" },
		"override no date":  func(d *pricer.DealParams) { d.ChangeFirstExercise = true },
		"piecewise G2":      func(d *pricer.DealParams) { d.Model = "G2++"; d.VolComplexity = "PIECEWISE" },
		"unknown engine":    func(d *pricer.DealParams) { d.Engine = "Monte Carlo" },
		"inverted dates":    func(d *pricer.DealParams) { d.MaturityDate = "2020/01/15" },
		"unknown day count": func(d *pricer.DealParams) { d.Float.DayCount = "Bus/252" },
	}
	for name, mutate := range cases {
		d := pricer.ReferenceDeal()
		mutate(&d)
		if _, err := d.Normalize(); !failure.IsType(err, failure.TypeBadInput) {
			t.Fatalf("%s: expected BAD_INPUT, got %v", name, err)
		}
	}
}

func TestPriceReferenceDeal(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	p := newPricer(t, pricer.WithRegisterer(reg))
	res, err := p.PriceDeal(pricer.ReferenceDeal(), referenceMarket(t))
	if err != nil {
		t.Fatalf("PriceDeal error: %v", err)
	}

	if math.IsNaN(res.NPV) || math.IsInf(res.NPV, 0) || !(res.NPV > 0) {
		t.Fatalf("NPV = %v, want finite and positive for a long option", res.NPV)
	}
	if math.Abs(res.NPVFraction-res.NPV/10_000_000) > 1e-15 {
		t.Fatalf("NPVFraction = %v", res.NPVFraction)
	}
	if math.Abs(res.Amount().InexactFloat64()-res.NPV) > 0.005 || res.Amount().Exponent() < -2 {
		t.Fatalf("Amount = %s for NPV %v", res.Amount(), res.NPV)
	}
	if res.Engine != market.EngineFD || res.Variant != market.HullWhiteConstant {
		t.Fatalf("engine %s variant %s", res.Engine, res.Variant)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}
	if len(res.ExerciseDates) != 20 {
		t.Fatalf("exercise dates = %d, want 20 quarterly dates", len(res.ExerciseDates))
	}
	if res.FixedRate != 0.02 || !(res.FairRate > 0.01 && res.FairRate < 0.03) {
		t.Fatalf("fixed %v fair %v", res.FixedRate, res.FairRate)
	}

	a, _ := res.Param("a")
	sigma, _ := res.Param("sigma")
	if !(a > 0) || !(sigma > 0) {
		t.Fatalf("calibrated a=%v sigma=%v", a, sigma)
	}
	if len(res.Diagnostics) != market.GridSize {
		t.Fatalf("diagnostics = %d", len(res.Diagnostics))
	}
	// A two-parameter model cannot match all ten vols exactly.
	for _, d := range res.Diagnostics {
		if math.Abs(d.Diff) > 0.03 {
			t.Fatalf("%sx%s model %v market %v", d.Expiry, d.Tenor, d.ModelVol, d.MarketVol)
		}
	}
	if res.Diagnostics[0].MarketVol != market.ReferenceVolTables().Single[0] {
		t.Fatalf("single-curve pricing calibrated to %v", res.Diagnostics[0].MarketVol)
	}

	if n, err := testutil.GatherAndCount(reg, "swaption_pricings_total"); err != nil || n != 1 {
		t.Fatalf("pricings_total series = %d (%v)", n, err)
	}
	if n, err := testutil.GatherAndCount(reg, "swaption_stage_duration_seconds"); err != nil || n != 6 {
		t.Fatalf("stage series = %d (%v), want 6", n, err)
	}
	if n, err := testutil.GatherAndCount(reg, "swaption_failures_total"); err != nil || n != 0 {
		t.Fatalf("failure series = %d (%v)", n, err)
	}
}

func TestBermudanDominatesEuropean(t *testing.T) {
	t.Parallel()

	p := newPricer(t)
	data := referenceMarket(t)

	berm, err := p.PriceDeal(pricer.ReferenceDeal(), data)
	if err != nil {
		t.Fatalf("Bermudan error: %v", err)
	}
	d := pricer.ReferenceDeal()
	d.ExerciseStyle = "European"
	euro, err := p.PriceDeal(d, data)
	if err != nil {
		t.Fatalf("European error: %v", err)
	}
	if len(euro.ExerciseDates) != 1 || !euro.ExerciseDates[0].Equal(berm.ExerciseDates[0]) {
		t.Fatalf("European exercise %v", euro.ExerciseDates)
	}
	if !(berm.NPV >= euro.NPV-1e-6*10_000_000) || !(euro.NPV > 0) {
		t.Fatalf("Bermudan %v < European %v", berm.NPV, euro.NPV)
	}

	d.Engine = "Black"
	analytic, err := p.PriceDeal(d, data)
	if err != nil {
		t.Fatalf("analytic error: %v", err)
	}
	if analytic.Engine != market.EngineAnalytic || math.Abs(analytic.NPV/euro.NPV-1) > 5e-3 {
		t.Fatalf("Jamshidian %v vs FD %v", analytic.NPV, euro.NPV)
	}
}

func TestShortPositionNegatesNPV(t *testing.T) {
	t.Parallel()

	p := newPricer(t)
	data := referenceMarket(t)
	d := pricer.ReferenceDeal()
	d.ExerciseStyle = "European"
	long, err := p.PriceDeal(d, data)
	if err != nil {
		t.Fatalf("long error: %v", err)
	}
	d.Position = "Short"
	short, err := p.PriceDeal(d, data)
	if err != nil {
		t.Fatalf("short error: %v", err)
	}
	if math.Abs(long.NPV+short.NPV) > 1e-9*math.Abs(long.NPV) {
		t.Fatalf("long %v short %v", long.NPV, short.NPV)
	}
}

func TestCallFrequencyThinsExercises(t *testing.T) {
	t.Parallel()

	p := newPricer(t)
	data := referenceMarket(t)
	d := pricer.ReferenceDeal()
	d.Engine = "Tree"
	d.CallFrequency = "Annual"
	res, err := p.PriceDeal(d, data)
	if err != nil {
		t.Fatalf("PriceDeal error: %v", err)
	}
	if len(res.ExerciseDates) != 5 {
		t.Fatalf("annual calls = %d, want 5", len(res.ExerciseDates))
	}
	if res.ExerciseDates[1].Year() != 2021 || res.ExerciseDates[1].Month() != 7 {
		t.Fatalf("second annual call %s", res.ExerciseDates[1])
	}

	d.CallFrequency = "Monthly"
	if _, err := p.PriceDeal(d, data); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT for monthly calls on a quarterly leg, got %v", err)
	}
}

func TestFirstExerciseOverrideShiftsSchedule(t *testing.T) {
	t.Parallel()

	p := newPricer(t)
	data := referenceMarket(t)
	d := pricer.ReferenceDeal()
	d.CallFrequency = "Annual"
	d.Engine = "Tree"
	natural, err := p.PriceDeal(d, data)
	if err != nil {
		t.Fatalf("PriceDeal error: %v", err)
	}

	d.ChangeFirstExercise = true
	d.FirstExerciseDate = "2020/07/01"
	shifted, err := p.PriceDeal(d, data)
	if err != nil {
		t.Fatalf("PriceDeal with override error: %v", err)
	}
	if len(shifted.ExerciseDates) != len(natural.ExerciseDates) {
		t.Fatalf("override changed the date count: %d vs %d", len(shifted.ExerciseDates), len(natural.ExerciseDates))
	}
	for i, got := range shifted.ExerciseDates {
		if want := natural.ExerciseDates[i].AddDate(0, 0, -14); !got.Equal(want) {
			t.Fatalf("exercise %d = %s, want %s", i, got, want)
		}
	}
	if !(shifted.NPV > 0) {
		t.Fatalf("NPV = %v", shifted.NPV)
	}
}

func TestPriceRejectsIncompatibleEngines(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	p := newPricer(t, pricer.WithRegisterer(reg))
	data := referenceMarket(t)

	d := pricer.ReferenceDeal()
	d.Model = "G2++"
	d.Engine = "Tree"
	if _, err := p.PriceDeal(d, data); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("G2 tree: expected BAD_INPUT, got %v", err)
	}

	d = pricer.ReferenceDeal()
	d.Engine = "Analytic"
	if _, err := p.PriceDeal(d, data); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("Bermudan analytic: expected BAD_INPUT, got %v", err)
	}

	if n, err := testutil.GatherAndCount(reg, "swaption_failures_total"); err != nil || n != 1 {
		t.Fatalf("failure series = %d (%v), want one exercise/BAD_INPUT series", n, err)
	}
	if n, err := testutil.GatherAndCount(reg, "swaption_pricings_total"); err != nil || n != 0 {
		t.Fatalf("pricings series = %d (%v)", n, err)
	}
}

func TestPriceRejectsHistoricalStart(t *testing.T) {
	t.Parallel()

	d := pricer.ReferenceDeal()
	d.EffectiveDate = "2019/07/17"
	if _, err := newPricer(t).PriceDeal(d, referenceMarket(t)); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT for a start before settlement, got %v", err)
	}
}

func TestPriceRejectsShortCurve(t *testing.T) {
	t.Parallel()

	data := referenceMarket(t)
	data.Quotes.Swaps = data.Quotes.Swaps[:2]
	if _, err := newPricer(t).PriceDeal(pricer.ReferenceDeal(), data); !failure.IsType(err, failure.TypeCurveBootstrap) {
		t.Fatalf("expected CURVE_BOOTSTRAP_FAILURE, got %v", err)
	}
}

func TestPriceRequiresSurfaceWhenFlagged(t *testing.T) {
	t.Parallel()

	d := pricer.ReferenceDeal()
	d.UseExternalVolSurface = true
	if _, err := newPricer(t).PriceDeal(d, referenceMarket(t)); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT without a surface, got %v", err)
	}
}

func TestDualCurveCalibratesToOISTable(t *testing.T) {
	t.Parallel()

	d := pricer.ReferenceDeal()
	d.CurveMode = "OIS"
	d.ExerciseStyle = "European"
	res, err := newPricer(t).PriceDeal(d, referenceMarket(t))
	if err != nil {
		t.Fatalf("PriceDeal error: %v", err)
	}
	want := market.ReferenceVolTables().Dual
	for i, diag := range res.Diagnostics {
		if diag.MarketVol != want[i] {
			t.Fatalf("bucket %d market vol %v, want %v", i, diag.MarketVol, want[i])
		}
	}
	if !(res.NPV > 0) {
		t.Fatalf("NPV = %v", res.NPV)
	}
}

func TestAtMarketStrike(t *testing.T) {
	t.Parallel()

	d := pricer.ReferenceDeal()
	d.Fixed.Coupon = "ATM"
	d.ExerciseStyle = "European"
	d.Engine = "Analytic"
	res, err := newPricer(t).PriceDeal(d, referenceMarket(t))
	if err != nil {
		t.Fatalf("PriceDeal error: %v", err)
	}
	if res.FixedRate != res.FairRate {
		t.Fatalf("fixed %v, fair %v", res.FixedRate, res.FairRate)
	}
}

func TestPiecewisePricing(t *testing.T) {
	t.Parallel()

	d := pricer.ReferenceDeal()
	d.VolComplexity = "Piecewise"
	d.Engine = "Auto"
	res, err := newPricer(t).PriceDeal(d, referenceMarket(t))
	if err != nil {
		t.Fatalf("PriceDeal error: %v", err)
	}
	if res.Engine != market.EngineTree || res.Variant != market.HullWhitePiecewise {
		t.Fatalf("engine %s variant %s", res.Engine, res.Variant)
	}
	if len(res.Params) != 11 {
		t.Fatalf("params = %d", len(res.Params))
	}
	for i, diag := range res.Diagnostics {
		if math.Abs(diag.Diff) >= 1e-4 {
			t.Fatalf("bucket %d vol diff %v", i, diag.Diff)
		}
	}
	if !(res.NPV > 0) {
		t.Fatalf("NPV = %v", res.NPV)
	}
}

func TestG2EuropeanPricing(t *testing.T) {
	t.Parallel()

	d := pricer.ReferenceDeal()
	d.Model = "G2++"
	d.Engine = "Auto"
	d.ExerciseStyle = "European"
	res, err := newPricer(t).PriceDeal(d, referenceMarket(t))
	if err != nil {
		t.Fatalf("PriceDeal error: %v", err)
	}
	if res.Engine != market.EngineAnalytic || res.Variant != market.G2 {
		t.Fatalf("engine %s variant %s", res.Engine, res.Variant)
	}
	if rho, _ := res.Param("rho"); !(rho > -1 && rho < 1) {
		t.Fatalf("rho = %v", rho)
	}
	if !(res.NPV > 0) {
		t.Fatalf("NPV = %v", res.NPV)
	}
}
