package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/swap"
	"github.com/meenmo/bermudan/utils"
)

// Conventions fix the instrument and solver conventions of the bootstrap.
type Conventions struct {
	DepositDayCount market.DayCount
	FuturesMonths   int
	FuturesDayCount market.DayCount
	FixedFrequency  market.Frequency
	FixedDayCount   market.DayCount
	FloatFrequency  market.Frequency
	FloatDayCount   market.DayCount
	OISFrequency    market.Frequency
	OISDayCount     market.DayCount

	BracketLow    float64
	BracketHigh   float64
	Accuracy      float64
	MaxIterations int
	Extrapolate   bool
}

// DefaultConventions are the USD LIBOR conventions of the reference market.
func DefaultConventions() Conventions {
	return Conventions{
		DepositDayCount: market.Act360,
		FuturesMonths:   3,
		FuturesDayCount: market.Act360,
		FixedFrequency:  market.FreqSemi,
		FixedDayCount:   market.Thirty360,
		FloatFrequency:  market.FreqQuarterly,
		FloatDayCount:   market.Act360,
		OISFrequency:    market.FreqAnnual,
		OISDayCount:     market.Act360,
		BracketLow:      -0.1,
		BracketHigh:     0.5,
		Accuracy:        1e-12,
		MaxIterations:   100,
		Extrapolate:     true,
	}
}

// rateHelper prices one quote off a trial curve. est is the curve under
// construction; disc discounts cashflows and is est itself when self-discounting.
type rateHelper interface {
	pillar() time.Time
	quote() float64
	implied(est, disc *YieldCurve) float64
	String() string
}

type depositHelper struct {
	tenor      market.Period
	start, end time.Time
	tau        float64
	rate       float64
}

func newDepositHelper(q market.MarketQuote, settlement time.Time, cal calendar.CalendarID, conv Conventions) *depositHelper {
	end := q.Tenor.Advance(cal, settlement)
	return &depositHelper{
		tenor: q.Tenor,
		start: settlement,
		end:   end,
		tau:   conv.DepositDayCount.YearFraction(settlement, end),
		rate:  q.Value,
	}
}

func (h *depositHelper) pillar() time.Time { return h.end }
func (h *depositHelper) quote() float64    { return h.rate }
func (h *depositHelper) implied(est, _ *YieldCurve) float64 {
	return (est.Discount(h.start)/est.Discount(h.end) - 1) / h.tau
}
func (h *depositHelper) String() string { return "deposit " + h.tenor.String() }

type futuresHelper struct {
	start, end time.Time
	tau        float64
	price      float64
}

func newFuturesHelper(q market.MarketQuote, cal calendar.CalendarID, conv Conventions) *futuresHelper {
	end := calendar.Adjust(cal, utils.AddMonth(q.Maturity, conv.FuturesMonths))
	return &futuresHelper{
		start: q.Maturity,
		end:   end,
		tau:   conv.FuturesDayCount.YearFraction(q.Maturity, end),
		price: q.Value,
	}
}

func (h *futuresHelper) pillar() time.Time { return h.end }
func (h *futuresHelper) quote() float64    { return (100 - h.price) / 100 }
func (h *futuresHelper) implied(est, _ *YieldCurve) float64 {
	return (est.Discount(h.start)/est.Discount(h.end) - 1) / h.tau
}
func (h *futuresHelper) String() string { return "futures " + utils.FormatDate(h.start) }

type swapHelper struct {
	tenor market.Period
	swap  swap.Swap
	rate  float64
}

func newSwapHelper(q market.MarketQuote, settlement time.Time, cal calendar.CalendarID, conv Conventions) (*swapHelper, error) {
	s, err := swap.New(swap.Terms{
		Type:      swap.Payer,
		Notional:  1,
		Effective: settlement,
		Maturity:  q.Tenor.AddTo(settlement),
		Fixed:     swap.LegConvention{Frequency: conv.FixedFrequency, DayCount: conv.FixedDayCount, Calendar: cal},
		Float:     swap.LegConvention{Frequency: conv.FloatFrequency, DayCount: conv.FloatDayCount, Calendar: cal, FixingLagDays: 2},
	})
	if err != nil {
		return nil, fmt.Errorf("par swap %s: %w", q.Tenor, err)
	}
	return &swapHelper{tenor: q.Tenor, swap: s, rate: q.Value}, nil
}

func (h *swapHelper) pillar() time.Time { return h.swap.Maturity() }
func (h *swapHelper) quote() float64    { return h.rate }
func (h *swapHelper) implied(est, disc *YieldCurve) float64 {
	r, err := h.swap.FairRate(disc, est)
	if err != nil {
		return math.NaN()
	}
	return r
}
func (h *swapHelper) String() string { return "par swap " + h.tenor.String() }

type oisHelper struct {
	tenor      market.Period
	start, end time.Time
	periods    []swap.SchedulePeriod
	rate       float64
}

func newOISHelper(q market.MarketQuote, settlement time.Time, cal calendar.CalendarID, conv Conventions) (*oisHelper, error) {
	end := q.Tenor.Advance(cal, settlement)
	periods, err := swap.GenerateSchedule(settlement, end, swap.LegConvention{
		Frequency: conv.OISFrequency,
		DayCount:  conv.OISDayCount,
		Calendar:  cal,
		Direction: swap.ScheduleBackward,
	})
	if err != nil {
		return nil, fmt.Errorf("OIS %s: %w", q.Tenor, err)
	}
	return &oisHelper{tenor: q.Tenor, start: settlement, end: periods[len(periods)-1].EndDate, periods: periods, rate: q.Value}, nil
}

func (h *oisHelper) pillar() time.Time { return h.end }
func (h *oisHelper) quote() float64    { return h.rate }
func (h *oisHelper) implied(est, _ *YieldCurve) float64 {
	annuity := 0.0
	for _, p := range h.periods {
		annuity += p.Accrual * est.Discount(p.PayDate)
	}
	return (est.Discount(h.start) - est.Discount(h.end)) / annuity
}
func (h *oisHelper) String() string { return "OIS " + h.tenor.String() }
