package calibration_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/calibration"
	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/engine"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCurve(t *testing.T) *curve.YieldCurve {
	t.Helper()
	c, err := curve.NewFromZeros(date(2019, 7, 18), market.Act365F,
		[]time.Time{date(2020, 7, 18), date(2022, 7, 18), date(2025, 7, 18), date(2030, 7, 18), date(2040, 7, 18)},
		[]float64{0.018, 0.017, 0.019, 0.021, 0.023}, true)
	if err != nil {
		t.Fatalf("NewFromZeros error: %v", err)
	}
	return c
}

func defaults(t *testing.T) config.Config {
	t.Helper()
	c, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default error: %v", err)
	}
	return c
}

func instruments(t *testing.T, c *curve.YieldCurve, cfg config.Config) [market.GridSize]*calibration.Instrument {
	t.Helper()
	ins, err := calibration.NewInstruments(market.ReferenceGrid(), market.ReferenceVolTables().Single, c, c, calendar.TARGET, cfg.Calibration.Instruments)
	if err != nil {
		t.Fatalf("NewInstruments error: %v", err)
	}
	return ins
}

// impose replaces the market vols with those implied by e.
func impose(t *testing.T, ins [market.GridSize]*calibration.Instrument, e engine.Engine) {
	t.Helper()
	for _, in := range ins {
		p, err := e.Price(in.Swaption())
		if err != nil {
			t.Fatalf("%s price error: %v", in.Point, err)
		}
		vol, err := in.ImpliedVol(p)
		if err != nil {
			t.Fatalf("%s implied vol error: %v", in.Point, err)
		}
		in.MarketVol = vol
	}
}

func TestNewInstruments(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	cfg := defaults(t)
	ins := instruments(t, c, cfg)

	first := ins[0]
	if !first.Exercise.Equal(date(2019, 8, 19)) {
		t.Fatalf("1M exercise = %s, want 2019-08-19", first.Exercise)
	}
	if !first.Underlying.Effective().Equal(date(2019, 8, 21)) {
		t.Fatalf("1M underlying start = %s", first.Underlying.Effective())
	}
	for i, in := range ins {
		npv, err := in.Underlying.NPV(c, c)
		if err != nil {
			t.Fatalf("NPV error: %v", err)
		}
		if math.Abs(npv) > 1e-12 {
			t.Fatalf("instrument %d not at the money: NPV %v", i, npv)
		}
		if i > 0 && !(in.ExpiryTime > ins[i-1].ExpiryTime) {
			t.Fatalf("expiries not increasing at %d", i)
		}
		vol, err := in.ImpliedVol(in.MarketPrice())
		if err != nil {
			t.Fatalf("ImpliedVol error: %v", err)
		}
		if math.Abs(vol-in.MarketVol) > 1e-10 {
			t.Fatalf("instrument %d implied %v, market %v", i, vol, in.MarketVol)
		}
	}
	if got := ins[9].Underlying.Maturity().Year(); got != 2026 {
		t.Fatalf("6Yx1Y maturity year = %d", got)
	}
}

func TestNewInstrumentsRejectsBadVol(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	vols := market.ReferenceVolTables().Single
	vols[3] = 0
	_, err := calibration.NewInstruments(market.ReferenceGrid(), vols, c, c, calendar.TARGET, defaults(t).Calibration.Instruments)
	if !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT, got %v", err)
	}
}

func TestSelectMarketVols(t *testing.T) {
	t.Parallel()

	tables := market.ReferenceVolTables()
	got, err := calibration.SelectMarketVols(true, false, nil, market.DefaultDiagonalMapping, tables)
	if err != nil || got != tables.Dual {
		t.Fatalf("dual mode selected %v (%v)", got, err)
	}
	got, _ = calibration.SelectMarketVols(false, false, nil, market.DefaultDiagonalMapping, tables)
	if got != tables.Single {
		t.Fatalf("single mode selected %v", got)
	}

	values := make([][]float64, 14)
	for r := range values {
		values[r] = make([]float64, 10)
		for c := range values[r] {
			values[r][c] = 30 + float64(r) + float64(c)/10
		}
	}
	surface := &market.VolSurface{Values: values}
	for _, dual := range []bool{true, false} {
		got, err := calibration.SelectMarketVols(dual, true, surface, market.DefaultDiagonalMapping, tables)
		if err != nil {
			t.Fatalf("surface selection error: %v", err)
		}
		if math.Abs(got[0]-0.305) > 1e-12 || math.Abs(got[9]-0.39) > 1e-12 {
			t.Fatalf("surface diagonal = %v", got)
		}
	}
	if _, err := calibration.SelectMarketVols(false, true, &market.VolSurface{}, market.DefaultDiagonalMapping, tables); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT for empty surface, got %v", err)
	}
}

func TestHullWhiteRoundTrip(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	cfg := defaults(t)
	ins := instruments(t, c, cfg)
	truth, _ := model.NewHullWhite(c, 0.05, 0.0085)
	impose(t, ins, engine.NewFD1F(truth, cfg.Engine.FD()))

	m, diags, err := calibration.Calibrate(market.HullWhiteConstant, ins, c, c, nil, cfg.Calibration, cfg.Engine)
	if err != nil {
		t.Fatalf("Calibrate error: %v", err)
	}
	for _, d := range diags {
		if math.Abs(d.Diff) > 1e-4 {
			t.Fatalf("%sx%s vol diff %v", d.Expiry, d.Tenor, d.Diff)
		}
	}
	p := m.Params()
	if math.Abs(p[1]/0.0085-1) > 2e-2 || math.Abs(p[0]-0.05) > 1e-2 {
		t.Fatalf("recovered a=%v sigma=%v", p[0], p[1])
	}
	if calibration.RMS(diags) > 1e-4 {
		t.Fatalf("RMS %v", calibration.RMS(diags))
	}
}

func TestHullWhiteFixedReversion(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	cfg := defaults(t)
	ins := instruments(t, c, cfg)
	truth, _ := model.NewHullWhite(c, 0.03, 0.0065)
	impose(t, ins, engine.NewFD1F(truth, cfg.Engine.FD()))

	m, _, err := calibration.Calibrate(market.HullWhiteConstant, ins, c, c, []bool{true, false}, cfg.Calibration, cfg.Engine)
	if err != nil {
		t.Fatalf("Calibrate error: %v", err)
	}
	if p := m.Params(); p[0] != 0.03 || math.Abs(p[1]/0.0065-1) > 1e-3 {
		t.Fatalf("params = %v", p)
	}
	if _, _, err := calibration.Calibrate(market.HullWhiteConstant, ins, c, c, []bool{true}, cfg.Calibration, cfg.Engine); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT for a short mask, got %v", err)
	}
}

func TestPiecewiseRoundTrip(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	cfg := defaults(t)
	ins := instruments(t, c, cfg)
	starts := []float64{0}
	for k := 1; k < market.GridSize; k++ {
		starts = append(starts, ins[k-1].ExpiryTime)
	}
	want := []float64{0.0060, 0.0064, 0.0070, 0.0074, 0.0078, 0.0080, 0.0077, 0.0073, 0.0070, 0.0066}
	truth, err := model.NewGeneralizedHullWhite(c, cfg.Calibration.Piecewise.Reversion, starts, want)
	if err != nil {
		t.Fatalf("NewGeneralizedHullWhite error: %v", err)
	}
	impose(t, ins, engine.NewJamshidian(truth))

	m, diags, err := calibration.Calibrate(market.HullWhitePiecewise, ins, c, c, nil, cfg.Calibration, cfg.Engine)
	if err != nil {
		t.Fatalf("Calibrate error: %v", err)
	}
	for i, d := range diags {
		if math.Abs(d.Diff) >= 1e-4 {
			t.Fatalf("bucket %d vol diff %v", i, d.Diff)
		}
	}
	got := m.(*model.GeneralizedHullWhite).Sigmas()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-5 {
			t.Fatalf("bucket %d sigma %v, want %v", i, got[i], want[i])
		}
	}
	if p := m.Params(); p[0] != cfg.Calibration.Piecewise.Reversion {
		t.Fatalf("reversion moved to %v", p[0])
	}
}

func TestPiecewiseReportsFailedBuckets(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	cfg := defaults(t)
	ins := instruments(t, c, cfg)
	cfg.Calibration.Piecewise.BracketLow = 0.0010
	cfg.Calibration.Piecewise.BracketHigh = 0.0011

	_, _, err := calibration.Calibrate(market.HullWhitePiecewise, ins, c, c, nil, cfg.Calibration, cfg.Engine)
	if !failure.IsType(err, failure.TypeCalibration) {
		t.Fatalf("expected CALIBRATION_FAILURE, got %v", err)
	}
	var buckets calibration.BucketFailures
	if !errors.As(err, &buckets) {
		t.Fatalf("expected BucketFailures cause, got %v", err)
	}
	if len(buckets) != market.GridSize {
		t.Fatalf("failed buckets = %d, want %d", len(buckets), market.GridSize)
	}
	if b := buckets[0]; b.Pass != 0 || b.Expiry != "1M" || !(b.FLo < 0 && b.FHi < 0) {
		t.Fatalf("first failure = %+v", b)
	}
}

func TestG2RoundTrip(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	cfg := defaults(t)
	ins := instruments(t, c, cfg)
	truth, _ := model.NewG2(c, 0.5, 0.006, 0.03, 0.008, -0.7)
	impose(t, ins, engine.NewG2Analytic(truth, cfg.Engine.G2Analytic()))

	cfg.Calibration.G2.Sigma = 0.007
	cfg.Calibration.G2.Eta = 0.0095
	cfg.Calibration.G2.Rho = -0.5
	m, diags, err := calibration.Calibrate(market.G2, ins, c, c, nil, cfg.Calibration, cfg.Engine)
	if err != nil {
		t.Fatalf("Calibrate error: %v", err)
	}
	for _, d := range diags {
		if math.Abs(d.Diff) > 5e-4 {
			t.Fatalf("%sx%s vol diff %v", d.Expiry, d.Tenor, d.Diff)
		}
	}
	if p := m.Params(); p[0] != 0.5 || p[2] != 0.03 {
		t.Fatalf("fixed reversions moved: %v", p)
	}
}

func TestCalibrateRejectsUnknownVariant(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	cfg := defaults(t)
	ins := instruments(t, c, cfg)
	if _, _, err := calibration.Calibrate("HW3F", ins, c, c, nil, cfg.Calibration, cfg.Engine); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT, got %v", err)
	}
}
