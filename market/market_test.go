package market_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
)

func TestYearFraction(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, time.July, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, time.January, 15, 0, 0, 0, 0, time.UTC)

	if got := market.Thirty360.YearFraction(start, end); math.Abs(got-0.5) > 1e-15 {
		t.Fatalf("30/360 = %v", got)
	}
	if got := market.Act360.YearFraction(start, end); math.Abs(got-184.0/360.0) > 1e-15 {
		t.Fatalf("ACT/360 = %v", got)
	}
	if got := market.Act365F.YearFraction(start, end); math.Abs(got-184.0/365.0) > 1e-15 {
		t.Fatalf("ACT/365F = %v", got)
	}
	want := 170.0/366.0 + 14.0/365.0
	if got := market.ActAct.YearFraction(start, end); math.Abs(got-want) > 1e-15 {
		t.Fatalf("ACT/ACT = %v, want %v", got, want)
	}

	// 30/360 bond basis end-of-month handling.
	s := time.Date(2019, time.January, 31, 0, 0, 0, 0, time.UTC)
	e := time.Date(2019, time.March, 31, 0, 0, 0, 0, time.UTC)
	if got := market.Thirty360.YearFraction(s, e); math.Abs(got-60.0/360.0) > 1e-15 {
		t.Fatalf("30/360 EOM = %v", got)
	}
}

func TestParseTicketLabels(t *testing.T) {
	t.Parallel()

	if dc, err := market.ParseDayCount("Act / 360"); err != nil || dc != market.Act360 {
		t.Fatalf("ParseDayCount = %v, %v", dc, err)
	}
	if dc, err := market.ParseDayCount("30 / 360"); err != nil || dc != market.Thirty360 {
		t.Fatalf("ParseDayCount = %v, %v", dc, err)
	}
	if _, err := market.ParseDayCount("BUS/252"); err == nil {
		t.Fatalf("expected unsupported day count error")
	}
	if f, err := market.ParseFrequency("Semi-annual"); err != nil || f != market.FreqSemi {
		t.Fatalf("ParseFrequency = %v, %v", f, err)
	}
	if f, err := market.ParseFrequency("Quarter"); err != nil || f != market.FreqQuarterly {
		t.Fatalf("ParseFrequency = %v, %v", f, err)
	}
	if m, err := market.ParseModelFamily("Hull-White One Factor"); err != nil || m != market.HullWhiteOneFactor {
		t.Fatalf("ParseModelFamily = %v, %v", m, err)
	}
	if e, err := market.ParseEngine("Black"); err != nil || e != market.EngineAnalytic {
		t.Fatalf("ParseEngine = %v, %v", e, err)
	}
	if _, err := market.ResolveVariant(market.G2TwoFactor, market.PiecewiseVol); err == nil {
		t.Fatalf("expected piecewise G2 to be rejected")
	}
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	p, err := market.ParsePeriod("10y")
	if err != nil || p != (market.Period{N: 10, Unit: market.Years}) {
		t.Fatalf("ParsePeriod = %v, %v", p, err)
	}
	for _, bad := range []string{"", "Y", "0M", "3Q", "-1Y"} {
		if _, err := market.ParsePeriod(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	got := market.MustPeriod("1M").AddTo(time.Date(2019, time.January, 31, 0, 0, 0, 0, time.UTC))
	if !got.Equal(time.Date(2019, time.February, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("AddTo mismatch: %s", got.Format("2006-01-02"))
	}
}

func TestParseForwardBlock(t *testing.T) {
	t.Parallel()

	set, err := market.ParseForwardBlock(market.ReferenceForwardBlock())
	if err != nil {
		t.Fatalf("ParseForwardBlock error: %v", err)
	}
	if len(set.Futures) != 6 {
		t.Fatalf("expected 6 futures, got %d", len(set.Futures))
	}
	if len(set.Swaps) != 17 {
		t.Fatalf("expected 17 swaps, got %d", len(set.Swaps))
	}
	if math.Abs(set.Deposit.Value-0.0229) > 1e-12 {
		t.Fatalf("deposit mid = %v", set.Deposit.Value)
	}
	if set.Deposit.Tenor != market.MustPeriod("3M") {
		t.Fatalf("deposit tenor = %v", set.Deposit.Tenor)
	}
	f0 := set.Futures[0]
	if !f0.Maturity.Equal(time.Date(2019, time.September, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("futures date = %s", f0.Maturity)
	}
	if math.Abs(f0.Value-97.8775) > 1e-12 {
		t.Fatalf("futures price = %v", f0.Value)
	}
	if set.Swaps[16].Tenor != market.MustPeriod("50Y") {
		t.Fatalf("last swap tenor = %v", set.Swaps[16].Tenor)
	}
}

func TestParseForwardBlockRejectsBadRows(t *testing.T) {
	t.Parallel()

	rows := []market.CurveRow{
		{Term: 20190918, Unit: "ACTDATE", Bid: 97.9},
		{Term: 2, Unit: "Years", Bid: 1.8},
	}
	if _, err := market.ParseForwardBlock(rows); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected bad input for futures in row 0, got %v", err)
	}
	rows = []market.CurveRow{
		{Term: 3, Unit: "MO", Bid: 2.2},
		{Term: 2, Unit: "QTR", Bid: 1.8},
	}
	if _, err := market.ParseForwardBlock(rows); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected bad input for unit tag, got %v", err)
	}
	rows = []market.CurveRow{
		{Term: 3, Unit: "MO", Bid: 2.2},
		{Term: 20191341, Unit: "ACTDATE", Bid: 97.9},
		{Term: 2, Unit: "Years", Bid: 1.8},
	}
	if _, err := market.ParseForwardBlock(rows); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected bad input for invalid date, got %v", err)
	}
}

func TestParseOISBlockBlended(t *testing.T) {
	t.Parallel()

	quotes, err := market.ParseOISBlock([]market.CurveRow{
		{Term: 1, Unit: "WK", Bid: 2.38},
		{Term: 7, Unit: "DY", Bid: 2.30, Ask: 2.40},
	})
	if err != nil {
		t.Fatalf("ParseOISBlock error: %v", err)
	}
	if math.Abs(quotes[0].Value-0.0238) > 1e-12 || math.Abs(quotes[1].Value-0.0235) > 1e-12 {
		t.Fatalf("OIS values = %v, %v", quotes[0].Value, quotes[1].Value)
	}
	if quotes[1].Tenor != (market.Period{N: 7, Unit: market.Days}) {
		t.Fatalf("OIS tenor = %v", quotes[1].Tenor)
	}
	if _, err := market.ParseOISBlock(nil); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected bad input for empty block")
	}
}

func TestVolSurfaceDiagonal(t *testing.T) {
	t.Parallel()

	values := make([][]float64, 14)
	for r := range values {
		values[r] = make([]float64, 10)
		for c := range values[r] {
			values[r][c] = 30 + float64(r) + float64(c)/10
		}
	}
	s := &market.VolSurface{Values: values}
	diag, err := s.Diagonal(market.DefaultDiagonalMapping)
	if err != nil {
		t.Fatalf("Diagonal error: %v", err)
	}
	for i, rc := range market.DefaultDiagonalMapping {
		want := (30 + float64(rc[0]) + float64(rc[1])/10) / 100
		if math.Abs(diag[i]-want) > 1e-15 {
			t.Fatalf("bucket %d = %v, want %v", i, diag[i], want)
		}
	}

	var empty *market.VolSurface
	if _, err := empty.Diagonal(market.DefaultDiagonalMapping); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected bad input for empty surface")
	}
	small := &market.VolSurface{Values: [][]float64{{30}}}
	if _, err := small.Diagonal(market.DefaultDiagonalMapping); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected bad input for out-of-range mapping")
	}
}
