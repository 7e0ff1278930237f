// Package pricer runs the Bermudan swaption pipeline: curve bootstrap, swap
// construction, exercise schedule, model calibration and engine evaluation.
package pricer

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/calibration"
	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/engine"
	"github.com/meenmo/bermudan/exercise"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/internal/metrics"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/model"
	"github.com/meenmo/bermudan/swap"
	"github.com/meenmo/bermudan/utils"
)

// floatFixingLagDays is the fixing lag of the USD LIBOR float leg.
const floatFixingLagDays = 2

// Pricer holds the configuration of the pipeline. It keeps no state between
// calls, so one Pricer may serve concurrent Price calls.
type Pricer struct {
	cfg     config.Config
	cal     calendar.CalendarID
	dc      market.DayCount
	conv    curve.Conventions
	log     *zap.Logger
	metrics *metrics.Recorder
}

// Option configures a Pricer.
type Option func(*Pricer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pricer) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRegisterer registers the pipeline metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pricer) { p.metrics = metrics.New(reg) }
}

// New validates cfg and returns a Pricer.
func New(cfg config.Config, opts ...Option) (*Pricer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, failure.Wrap(failure.TypeBadInput, "pricer configuration", err)
	}
	p := &Pricer{cfg: cfg, log: zap.NewNop()}
	var err error
	if p.cal, err = cfg.Curve.CalendarID(); err != nil {
		return nil, failure.Wrap(failure.TypeBadInput, "curve calendar", err)
	}
	if p.dc, err = cfg.Curve.CurveDayCount(); err != nil {
		return nil, failure.Wrap(failure.TypeBadInput, "curve day count", err)
	}
	if p.conv, err = cfg.Curve.Conventions(); err != nil {
		return nil, failure.Wrap(failure.TypeBadInput, "curve conventions", err)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.New(nil)
	}
	return p, nil
}

// Curves is the bootstrapped discount/forecast pair.
type Curves struct {
	Settlement time.Time
	Mode       market.CurveMode
	Discount   *curve.YieldCurve
	Forecast   *curve.YieldCurve
}

// Calibrated is a calibrated model with its per-bucket diagnostics.
type Calibrated struct {
	Model       model.ShortRateModel
	Diagnostics []calibration.Diagnostic
	RMS         float64
}

// Settlement is the curve reference date for an evaluation date.
func (p *Pricer) Settlement(asOf time.Time) time.Time {
	return calendar.AddBusinessDays(p.cal, asOf, p.cfg.Curve.SettlementDays)
}

// BuildCurves bootstraps the curves as of asOf.
func (p *Pricer) BuildCurves(asOf time.Time, mode market.CurveMode, q market.QuoteSet) (Curves, error) {
	var c Curves
	err := p.stage(p.log, metrics.StageCurve, failure.TypeCurveBootstrap, func() error {
		var err error
		c, err = p.buildCurves(asOf, mode, q)
		return err
	})
	return c, err
}

// Calibrate fits choice.Variant to the market vols selected by the curve mode
// and the surface flag.
func (p *Pricer) Calibrate(c Curves, useSurface bool, data MarketData, choice ModelChoice) (Calibrated, error) {
	var out Calibrated
	err := p.stage(p.log, metrics.StageCalibrate, failure.TypeCalibration, func() error {
		var err error
		out, err = p.calibrate(p.log, c, useSurface, data, choice)
		return err
	})
	return out, err
}

// PriceDeal normalizes a raw deal record and prices it with the model and
// engine it names.
func (p *Pricer) PriceDeal(d DealParams, data MarketData) (*Result, error) {
	var terms DealTerms
	err := p.stage(p.log, metrics.StageNormalize, failure.TypeBadInput, func() error {
		var err error
		terms, err = d.Normalize()
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.Price(terms, data, terms.Choice())
}

// Price runs the full pipeline for one deal.
func (p *Pricer) Price(terms DealTerms, data MarketData, choice ModelChoice) (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID))
	log.Info("pricing swaption",
		zap.String("type", string(terms.Type)),
		zap.Float64("notional", terms.Notional),
		zap.String("effective", utils.FormatDate(terms.Effective)),
		zap.String("maturity", utils.FormatDate(terms.Maturity)),
		zap.String("style", string(terms.Style)),
		zap.String("variant", string(choice.Variant)),
		zap.String("engine", string(choice.Engine)),
		zap.String("curve_mode", string(terms.CurveMode)),
	)

	settlement := p.Settlement(terms.PricingDate)
	err := p.stage(log, metrics.StageNormalize, failure.TypeBadInput, func() error {
		return checkTerms(terms, choice, settlement)
	})
	if err != nil {
		return nil, err
	}

	var curves Curves
	err = p.stage(log, metrics.StageCurve, failure.TypeCurveBootstrap, func() error {
		var err error
		curves, err = p.buildCurves(terms.PricingDate, terms.CurveMode, data.Quotes)
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		s        swap.Swap
		fairRate float64
	)
	err = p.stage(log, metrics.StageSwap, failure.TypeBadInput, func() error {
		var err error
		s, fairRate, err = p.buildSwap(terms, curves)
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		dates []time.Time
		kind  market.EngineKind
		sw    engine.Swaption
	)
	err = p.stage(log, metrics.StageExercise, failure.TypeBadInput, func() error {
		var err error
		if dates, err = p.exerciseDates(terms, s, curves); err != nil {
			return err
		}
		if kind, err = resolveEngine(choice.Variant, choice.Engine, len(dates) == 1); err != nil {
			return err
		}
		if sw, err = engine.NewSwaption(s, dates, curves.Discount, curves.Forecast); err != nil {
			return failure.Wrap(failure.TypeBadInput, "swaption", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("exercise schedule", zap.Int("dates", len(dates)),
		zap.String("first", utils.FormatDate(dates[0])), zap.String("last", utils.FormatDate(dates[len(dates)-1])))

	var cal Calibrated
	err = p.stage(log, metrics.StageCalibrate, failure.TypeCalibration, func() error {
		var err error
		cal, err = p.calibrate(log, curves, terms.UseSurface, data, choice)
		return err
	})
	if err != nil {
		return nil, err
	}

	var npv float64
	err = p.stage(log, metrics.StagePrice, failure.TypePricing, func() error {
		e, err := p.newEngine(cal.Model, kind)
		if err != nil {
			return err
		}
		v, err := e.Price(sw)
		if err != nil {
			return failure.Wrapf(failure.TypePricing, err, "%s engine", kind)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return failure.Pricing("%s engine returned %v", kind, v)
		}
		npv = terms.Position.Sign() * v
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.metrics.RecordPricing(string(choice.Variant), string(kind))
	res := &Result{
		RunID:         runID,
		NPV:           npv,
		NPVFraction:   npv / terms.Notional,
		Currency:      terms.Currency,
		Variant:       choice.Variant,
		Engine:        kind,
		ParamNames:    cal.Model.ParamNames(),
		Params:        cal.Model.Params(),
		RMSVolError:   cal.RMS,
		Diagnostics:   cal.Diagnostics,
		ExerciseDates: dates,
		FixedRate:     s.FixedRate(),
		FairRate:      fairRate,
	}
	log.Info("priced swaption",
		zap.Float64("npv", npv),
		zap.String("amount", res.Amount().StringFixed(2)),
		zap.Float64("npv_fraction", res.NPVFraction),
		zap.String("engine", string(kind)),
	)
	return res, nil
}

// stage times fn, records its outcome and gives untyped errors the stage's type.
func (p *Pricer) stage(log *zap.Logger, name string, fallback failure.Type, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.ObserveStage(name, elapsed.Seconds())
	if err != nil {
		if failure.TypeOf(err) == "" {
			err = failure.Wrap(fallback, name, err)
		}
		p.metrics.RecordFailure(name, string(failure.TypeOf(err)))
		log.Error("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}
	log.Debug("stage complete", zap.String("stage", name), zap.Duration("elapsed", elapsed))
	return nil
}

func checkTerms(terms DealTerms, choice ModelChoice, settlement time.Time) error {
	if !(terms.Notional > 0) {
		return failure.BadInput("notional %v must be positive", terms.Notional)
	}
	if terms.Effective.Before(settlement) {
		return failure.BadInput("effective date %s precedes curve settlement %s; historical fixings are not supported",
			utils.FormatDate(terms.Effective), utils.FormatDate(settlement))
	}
	if terms.Style != market.European && terms.Style != market.Bermudan {
		return failure.BadInput("exercise style %q is not supported", string(terms.Style))
	}
	if terms.Position != market.Long && terms.Position != market.Short {
		return failure.BadInput("position %q is not supported", string(terms.Position))
	}
	if choice.Variant.ParamCount() == 0 {
		return failure.BadInput("unsupported model variant %q", string(choice.Variant))
	}
	switch choice.Engine {
	case market.EngineAuto, market.EngineFD, market.EngineTree, market.EngineAnalytic:
	default:
		return failure.BadInput("unsupported engine %q", string(choice.Engine))
	}
	if choice.FixedParameters != nil && len(choice.FixedParameters) != choice.Variant.ParamCount() {
		return failure.BadInput("fixed-parameter mask has %d entries, %s has %d parameters",
			len(choice.FixedParameters), choice.Variant, choice.Variant.ParamCount())
	}
	return nil
}

func (p *Pricer) buildCurves(asOf time.Time, mode market.CurveMode, q market.QuoteSet) (Curves, error) {
	if asOf.IsZero() {
		return Curves{}, failure.BadInput("pricing date is required")
	}
	settlement := p.Settlement(asOf)
	discount, forecast, err := curve.Bootstrap(q, settlement, p.cal, p.dc, mode == market.DualCurve, p.conv)
	if err != nil {
		return Curves{}, err
	}
	return Curves{Settlement: settlement, Mode: mode, Discount: discount, Forecast: forecast}, nil
}

func (p *Pricer) buildSwap(terms DealTerms, c Curves) (swap.Swap, float64, error) {
	s, err := swap.New(swap.Terms{
		Type:      terms.Type,
		Notional:  terms.Notional,
		Effective: terms.Effective,
		Maturity:  terms.Maturity,
		FixedRate: terms.FixedRate,
		Fixed:     swap.LegConvention{Frequency: terms.FixedFrequency, DayCount: terms.FixedDayCount, Calendar: p.cal},
		Float: swap.LegConvention{
			Frequency:     terms.FloatFrequency,
			DayCount:      terms.FloatDayCount,
			Calendar:      p.cal,
			FixingLagDays: floatFixingLagDays,
		},
		Index: terms.Index,
	})
	if err != nil {
		return swap.Swap{}, 0, err
	}
	for _, yc := range []*curve.YieldCurve{c.Discount, c.Forecast} {
		if yc.MaxDate().Before(s.Maturity()) {
			return swap.Swap{}, 0, failure.CurveBootstrap("curve ends %s before swap maturity %s",
				utils.FormatDate(yc.MaxDate()), utils.FormatDate(s.Maturity()))
		}
	}
	fair, err := s.FairRate(c.Discount, c.Forecast)
	if err != nil {
		return swap.Swap{}, 0, failure.Wrap(failure.TypePricing, "swap fair rate", err)
	}
	if terms.AtMarket {
		s = s.WithFixedRate(fair)
	}
	return s, fair, nil
}

// exerciseDates builds the schedule off the float leg, thinned to the call
// frequency, and keeps the dates after the curve reference date.
func (p *Pricer) exerciseDates(terms DealTerms, s swap.Swap, c Curves) ([]time.Time, error) {
	periods, err := thin(s.Float.Periods, terms.FloatFrequency, terms.CallFrequency)
	if err != nil {
		return nil, err
	}
	sched, err := exercise.Build(terms.Style, periods, terms.Effective, terms.FirstExercise)
	if err != nil {
		return nil, err
	}
	ref := c.Discount.ReferenceDate()
	dates := make([]time.Time, 0, len(sched.Dates))
	for _, d := range sched.Dates {
		if d.After(ref) {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, failure.BadInput("every exercise date is on or before the curve reference date %s", utils.FormatDate(ref))
	}
	return dates, nil
}

// thin keeps every k-th period when the call frequency is k float periods.
func thin(periods []swap.SchedulePeriod, float, call market.Frequency) ([]swap.SchedulePeriod, error) {
	if call.Months()%float.Months() != 0 {
		return nil, failure.BadInput("call frequency %s is not a multiple of the float frequency %s", call, float)
	}
	k := call.Months() / float.Months()
	out := make([]swap.SchedulePeriod, 0, len(periods)/k+1)
	for i := 0; i < len(periods); i += k {
		out = append(out, periods[i])
	}
	return out, nil
}

func (p *Pricer) calibrate(log *zap.Logger, c Curves, useSurface bool, data MarketData, choice ModelChoice) (Calibrated, error) {
	mapping := data.Mapping
	if mapping == (market.DiagonalMapping{}) {
		mapping = market.DefaultDiagonalMapping
	}
	vols, err := calibration.SelectMarketVols(c.Mode == market.DualCurve, useSurface, data.Surface, mapping, data.Tables)
	if err != nil {
		return Calibrated{}, err
	}
	instruments, err := calibration.NewInstruments(market.ReferenceGrid(), vols, c.Discount, c.Forecast, p.cal, p.cfg.Calibration.Instruments)
	if err != nil {
		return Calibrated{}, err
	}
	m, diags, err := calibration.Calibrate(choice.Variant, instruments, c.Discount, c.Forecast, choice.FixedParameters, p.cfg.Calibration, p.cfg.Engine)
	if err != nil {
		return Calibrated{}, err
	}
	rms := calibration.RMS(diags)
	p.metrics.RecordCalibration(string(choice.Variant), rms)

	fields := []zap.Field{zap.String("variant", string(choice.Variant)), zap.Float64("rms_vol_error", rms)}
	for i, name := range m.ParamNames() {
		fields = append(fields, zap.Float64(name, m.Params()[i]))
	}
	log.Info("calibrated model", fields...)
	for _, d := range diags {
		log.Info("calibration bucket",
			zap.String("bucket", d.Expiry+"x"+d.Tenor),
			zap.Float64("model_vol", d.ModelVol),
			zap.Float64("market_vol", d.MarketVol),
			zap.Float64("diff", d.Diff),
		)
	}
	return Calibrated{Model: m, Diagnostics: diags, RMS: rms}, nil
}

// resolveEngine maps AUTO to the variant's engine and rejects combinations the
// engines cannot price.
func resolveEngine(v market.ModelVariant, kind market.EngineKind, european bool) (market.EngineKind, error) {
	switch kind {
	case market.EngineAuto:
		switch v {
		case market.HullWhiteConstant:
			return market.EngineFD, nil
		case market.HullWhitePiecewise:
			return market.EngineTree, nil
		case market.G2:
			if european {
				return market.EngineAnalytic, nil
			}
			return market.EngineFD, nil
		}
	case market.EngineFD:
		return kind, nil
	case market.EngineTree:
		if v == market.G2 {
			return "", failure.BadInput("the tree engine is one-factor only; %s needs FD or ANALYTIC", v)
		}
		return kind, nil
	case market.EngineAnalytic:
		if !european {
			return "", failure.BadInput("the analytic engine prices European exercise only")
		}
		return kind, nil
	}
	return "", failure.BadInput("no engine %q for model %q", string(kind), string(v))
}

func (p *Pricer) newEngine(m model.ShortRateModel, kind market.EngineKind) (engine.Engine, error) {
	if g2, ok := m.(*model.G2); ok {
		switch kind {
		case market.EngineFD:
			return engine.NewG2FD(g2, p.cfg.Engine.G2FD()), nil
		case market.EngineAnalytic:
			return engine.NewG2Analytic(g2, p.cfg.Engine.G2Analytic()), nil
		}
		return nil, failure.BadInput("no %s engine for %s", kind, m.Variant())
	}
	of, ok := m.(model.OneFactor)
	if !ok {
		return nil, failure.BadInput("model %s has no engine", m.Variant())
	}
	switch kind {
	case market.EngineFD:
		return engine.NewFD1F(of, p.cfg.Engine.FD()), nil
	case market.EngineTree:
		return engine.NewTree1F(of, p.cfg.Engine.Tree()), nil
	case market.EngineAnalytic:
		return engine.NewJamshidian(of), nil
	}
	return nil, failure.BadInput("no %s engine for %s", kind, m.Variant())
}
