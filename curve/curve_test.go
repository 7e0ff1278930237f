package curve_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/swap"
	"github.com/meenmo/bermudan/utils"
)

func referenceQuotes(t *testing.T) (market.QuoteSet, time.Time) {
	t.Helper()
	q, err := market.ParseForwardBlock(market.ReferenceForwardBlock())
	if err != nil {
		t.Fatalf("ParseForwardBlock error: %v", err)
	}
	q.OIS, err = market.ParseOISBlock(market.ReferenceOISBlock())
	if err != nil {
		t.Fatalf("ParseOISBlock error: %v", err)
	}
	settlement := calendar.AddBusinessDays(calendar.TARGET, market.ReferenceEvaluationDate(), 2)
	return q, settlement
}

func TestFlatCurveExtrapolatesFlatForward(t *testing.T) {
	t.Parallel()

	ref := time.Date(2019, 7, 18, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{ref.AddDate(1, 0, 0), ref.AddDate(5, 0, 0)}
	c, err := curve.NewFromZeros(ref, market.Act365F, dates, []float64{0.02, 0.02}, true)
	if err != nil {
		t.Fatalf("NewFromZeros error: %v", err)
	}
	if got := c.DiscountT(0); got != 1 {
		t.Fatalf("DF(ref) = %v, want 1", got)
	}
	for _, tt := range []float64{0.5, 3, 5, 12} {
		if got, want := c.DiscountT(tt), math.Exp(-0.02*tt); math.Abs(got-want) > 1e-14 {
			t.Fatalf("DF(%v) = %v, want %v", tt, got, want)
		}
	}

	noExt, _ := curve.NewFromZeros(ref, market.Act365F, dates, []float64{0.02, 0.02}, false)
	if !math.IsNaN(noExt.DiscountT(6)) {
		t.Fatalf("expected NaN past the last node without extrapolation")
	}
	if noExt.Extrapolates() {
		t.Fatalf("Extrapolates() = true")
	}
}

func TestExtrapolationContinuesLastForward(t *testing.T) {
	t.Parallel()

	ref := time.Date(2019, 7, 18, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{ref.AddDate(1, 0, 0), ref.AddDate(2, 0, 0)}
	c, err := curve.NewFromZeros(ref, market.Act365F, dates, []float64{0.01, 0.02}, true)
	if err != nil {
		t.Fatalf("NewFromZeros error: %v", err)
	}
	nodes := c.Nodes()
	last := nodes[len(nodes)-1]
	prev := nodes[len(nodes)-2]
	slope := (last.Zero - prev.Zero) / (last.Time - prev.Time)
	want := last.Zero + last.Time*slope
	h := 0.5
	got := -math.Log(c.DiscountT(last.Time+h)/c.DiscountT(last.Time)) / h
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("extrapolated forward %v, want %v", got, want)
	}
	if nodes[0].Zero != nodes[1].Zero {
		t.Fatalf("reference node zero %v differs from first pillar %v", nodes[0].Zero, nodes[1].Zero)
	}
}

func TestBootstrapSingleCurveReprices(t *testing.T) {
	t.Parallel()

	q, settlement := referenceQuotes(t)
	conv := curve.DefaultConventions()
	disc, fwd, err := curve.Bootstrap(q, settlement, calendar.TARGET, market.Act365F, false, conv)
	if err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	if disc != fwd {
		t.Fatalf("single-curve mode must return one curve")
	}
	if got := fwd.Discount(settlement); got != 1 {
		t.Fatalf("DF(settlement) = %v", got)
	}
	if n := len(fwd.Nodes()); n != 1+1+6+17 {
		t.Fatalf("nodes = %d, want 25", n)
	}

	depEnd := q.Deposit.Tenor.Advance(calendar.TARGET, settlement)
	if got := fwd.ForwardRate(settlement, depEnd, market.Act360); math.Abs(got-q.Deposit.Value) > 1e-10 {
		t.Fatalf("deposit reprices at %v, want %v", got, q.Deposit.Value)
	}
	for _, f := range q.Futures {
		end := calendar.Adjust(calendar.TARGET, utils.AddMonth(f.Maturity, 3))
		want := (100 - f.Value) / 100
		if got := fwd.ForwardRate(f.Maturity, end, market.Act360); math.Abs(got-want) > 1e-10 {
			t.Fatalf("futures %s reprices at %v, want %v", utils.FormatDate(f.Maturity), got, want)
		}
	}
	for _, sq := range q.Swaps {
		s, err := swap.New(swap.Terms{
			Type:      swap.Payer,
			Notional:  1,
			Effective: settlement,
			Maturity:  sq.Tenor.AddTo(settlement),
			Fixed:     swap.LegConvention{Frequency: market.FreqSemi, DayCount: market.Thirty360, Calendar: calendar.TARGET},
			Float:     swap.LegConvention{Frequency: market.FreqQuarterly, DayCount: market.Act360, Calendar: calendar.TARGET},
		})
		if err != nil {
			t.Fatalf("swap.New error: %v", err)
		}
		got, err := s.FairRate(disc, fwd)
		if err != nil {
			t.Fatalf("FairRate error: %v", err)
		}
		if math.Abs(got-sq.Value) > 1e-10 {
			t.Fatalf("%s swap reprices at %v, want %v", sq.Tenor, got, sq.Value)
		}
	}

	nodes := fwd.Nodes()
	for i := 1; i < len(nodes); i++ {
		if !(nodes[i].DF < nodes[i-1].DF) {
			t.Fatalf("discount factors not decreasing at node %d", i)
		}
	}
}

func TestBootstrapDualCurve(t *testing.T) {
	t.Parallel()

	q, settlement := referenceQuotes(t)
	disc, fwd, err := curve.Bootstrap(q, settlement, calendar.TARGET, market.Act365F, true, curve.DefaultConventions())
	if err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	if disc == fwd {
		t.Fatalf("dual-curve mode must return distinct curves")
	}
	if n := len(disc.Nodes()); n != 11 {
		t.Fatalf("OIS nodes = %d, want 11", n)
	}

	for _, oq := range q.OIS {
		end := oq.Tenor.Advance(calendar.TARGET, settlement)
		periods, err := swap.GenerateSchedule(settlement, end, swap.LegConvention{
			Frequency: market.FreqAnnual,
			DayCount:  market.Act360,
			Calendar:  calendar.TARGET,
			Direction: swap.ScheduleBackward,
		})
		if err != nil {
			t.Fatalf("GenerateSchedule error: %v", err)
		}
		annuity := 0.0
		for _, p := range periods {
			annuity += p.Accrual * disc.Discount(p.PayDate)
		}
		got := (1 - disc.Discount(periods[len(periods)-1].EndDate)) / annuity
		if math.Abs(got-oq.Value) > 1e-10 {
			t.Fatalf("OIS %s reprices at %v, want %v", oq.Tenor, got, oq.Value)
		}
	}

	// The 10Y swap reprices with OIS discounting.
	s, _ := swap.New(swap.Terms{
		Type:      swap.Payer,
		Notional:  1,
		Effective: settlement,
		Maturity:  market.MustPeriod("10Y").AddTo(settlement),
		Fixed:     swap.LegConvention{Frequency: market.FreqSemi, DayCount: market.Thirty360, Calendar: calendar.TARGET},
		Float:     swap.LegConvention{Frequency: market.FreqQuarterly, DayCount: market.Act360, Calendar: calendar.TARGET},
	})
	got, _ := s.FairRate(disc, fwd)
	if math.Abs(got-0.0201) > 1e-10 {
		t.Fatalf("10Y swap reprices at %v, want 0.0201", got)
	}
}

func TestBootstrapFailures(t *testing.T) {
	t.Parallel()

	q, settlement := referenceQuotes(t)
	conv := curve.DefaultConventions()

	noOIS := q
	noOIS.OIS = nil
	if _, _, err := curve.Bootstrap(noOIS, settlement, calendar.TARGET, market.Act365F, true, conv); !failure.IsType(err, failure.TypeCurveBootstrap) {
		t.Fatalf("expected CURVE_BOOTSTRAP_FAILURE without OIS quotes, got %v", err)
	}
	// Single-curve mode ignores the missing OIS ladder.
	if _, _, err := curve.Bootstrap(noOIS, settlement, calendar.TARGET, market.Act365F, false, conv); err != nil {
		t.Fatalf("single-curve bootstrap without OIS failed: %v", err)
	}

	swapped := q
	swapped.Swaps = append([]market.MarketQuote(nil), q.Swaps...)
	swapped.Swaps[0], swapped.Swaps[1] = swapped.Swaps[1], swapped.Swaps[0]
	if _, _, err := curve.Bootstrap(swapped, settlement, calendar.TARGET, market.Act365F, false, conv); !failure.IsType(err, failure.TypeCurveBootstrap) {
		t.Fatalf("expected CURVE_BOOTSTRAP_FAILURE for non-increasing pillars, got %v", err)
	}

	noDeposit := q
	noDeposit.Deposit = market.MarketQuote{}
	if _, _, err := curve.Bootstrap(noDeposit, settlement, calendar.TARGET, market.Act365F, false, conv); !failure.IsType(err, failure.TypeCurveBootstrap) {
		t.Fatalf("expected CURVE_BOOTSTRAP_FAILURE without a deposit, got %v", err)
	}

	narrow := conv
	narrow.BracketLow, narrow.BracketHigh = 0.3, 0.5
	if _, _, err := curve.Bootstrap(q, settlement, calendar.TARGET, market.Act365F, false, narrow); !failure.IsType(err, failure.TypeCurveBootstrap) {
		t.Fatalf("expected CURVE_BOOTSTRAP_FAILURE for an unbracketed pillar, got %v", err)
	}
}
