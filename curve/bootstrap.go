package curve

import (
	"math"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/numerics"
	"github.com/meenmo/bermudan/utils"
)

// Bootstrap builds the discount and forecast curves from market quotes.
//
// In dual-curve mode the OIS ladder is solved first, self-discounting, and the
// forecast ladder (deposit, futures, par swaps) then discounts on it. In
// single-curve mode the forecast ladder discounts on itself, OIS quotes are
// ignored and the same curve is returned twice.
func Bootstrap(q market.QuoteSet, settlement time.Time, cal calendar.CalendarID, dc market.DayCount, useDualCurve bool, conv Conventions) (discount, forecast *YieldCurve, err error) {
	if err := dc.Validate(); err != nil {
		return nil, nil, failure.Wrap(failure.TypeBadInput, "curve day count", err)
	}
	if useDualCurve {
		ladder, err := oisLadder(q.OIS, settlement, cal, conv)
		if err != nil {
			return nil, nil, err
		}
		discount, err = solveLadder("OIS", ladder, settlement, dc, nil, conv)
		if err != nil {
			return nil, nil, err
		}
	}

	ladder, err := forwardLadder(q, settlement, cal, conv)
	if err != nil {
		return nil, nil, err
	}
	forecast, err = solveLadder("forward", ladder, settlement, dc, discount, conv)
	if err != nil {
		return nil, nil, err
	}
	if !useDualCurve {
		discount = forecast
	}
	return discount, forecast, nil
}

func forwardLadder(q market.QuoteSet, settlement time.Time, cal calendar.CalendarID, conv Conventions) ([]rateHelper, error) {
	if q.Deposit.Kind != market.Deposit || q.Deposit.Tenor.IsZero() || math.IsNaN(q.Deposit.Value) {
		return nil, failure.CurveBootstrap("forward ladder has no deposit quote")
	}
	ladder := []rateHelper{newDepositHelper(q.Deposit, settlement, cal, conv)}
	for _, f := range q.Futures {
		if f.Maturity.Before(settlement) {
			return nil, failure.CurveBootstrap("futures %s starts before settlement %s", utils.FormatDate(f.Maturity), utils.FormatDate(settlement))
		}
		ladder = append(ladder, newFuturesHelper(f, cal, conv))
	}
	for _, s := range q.Swaps {
		h, err := newSwapHelper(s, settlement, cal, conv)
		if err != nil {
			return nil, failure.Wrap(failure.TypeCurveBootstrap, "forward ladder", err)
		}
		ladder = append(ladder, h)
	}
	return ladder, nil
}

func oisLadder(quotes []market.MarketQuote, settlement time.Time, cal calendar.CalendarID, conv Conventions) ([]rateHelper, error) {
	if len(quotes) == 0 {
		return nil, failure.CurveBootstrap("dual-curve mode needs OIS quotes")
	}
	ladder := make([]rateHelper, 0, len(quotes))
	for _, q := range quotes {
		h, err := newOISHelper(q, settlement, cal, conv)
		if err != nil {
			return nil, failure.Wrap(failure.TypeCurveBootstrap, "OIS ladder", err)
		}
		ladder = append(ladder, h)
	}
	return ladder, nil
}

// solveLadder fixes one zero rate per helper by forward substitution: earlier
// nodes stay fixed while Brent solves the new node so the helper reprices.
func solveLadder(name string, ladder []rateHelper, ref time.Time, dc market.DayCount, disc *YieldCurve, conv Conventions) (*YieldCurve, error) {
	dates := make([]time.Time, 0, len(ladder))
	zeros := make([]float64, 0, len(ladder))
	for i, h := range ladder {
		p := h.pillar()
		if !p.After(ref) || (i > 0 && !p.After(dates[i-1])) {
			return nil, failure.CurveBootstrap("%s ladder: %s pillar %s is not after the previous pillar", name, h, utils.FormatDate(p)).
				WithContext("helper", h.String())
		}
		dates = append(dates, p)
		zeros = append(zeros, 0)
		target := h.quote()

		f := func(z float64) float64 {
			zeros[i] = z
			trial, err := NewFromZeros(ref, dc, dates, zeros, true)
			if err != nil {
				return math.NaN()
			}
			d := disc
			if d == nil {
				d = trial
			}
			return h.implied(trial, d) - target
		}
		z, err := numerics.Brent(f, conv.BracketLow, conv.BracketHigh, conv.Accuracy, conv.MaxIterations)
		if err != nil {
			return nil, failure.Wrapf(failure.TypeCurveBootstrap, err, "%s ladder: cannot solve %s", name, h).
				WithContext("helper", h.String())
		}
		zeros[i] = z
	}
	c, err := NewFromZeros(ref, dc, dates, zeros, conv.Extrapolate)
	if err != nil {
		return nil, failure.Wrap(failure.TypeCurveBootstrap, name+" ladder", err)
	}
	return c, nil
}
