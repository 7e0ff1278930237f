// Package config holds the curve, calibration and engine parameters of the
// pricer. Every numerical constant of the pipeline lives here with its default.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/bermudan/calendar"
	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/engine"
	"github.com/meenmo/bermudan/internal/logging"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/numerics"
)

var validate = validator.New()

// Config is the root configuration.
type Config struct {
	Curve       Curve          `yaml:"curve"`
	Calibration Calibration    `yaml:"calibration"`
	Engine      Engine         `yaml:"engine"`
	Logging     logging.Config `yaml:"logging"`
}

// Curve holds the bootstrap conventions and solver bounds.
type Curve struct {
	// Calendar adjusts settlement and every instrument date.
	Calendar string `yaml:"calendar" default:"TARGET" validate:"oneof=TARGET USD"`

	// SettlementDays is the spot lag from the evaluation date in business days.
	SettlementDays int `yaml:"settlement_days" default:"2" validate:"gte=0,lte=5"`

	// DayCount measures curve time.
	DayCount string `yaml:"day_count" default:"ACT/365F" validate:"required"`

	DepositDayCount string `yaml:"deposit_day_count" default:"ACT/360" validate:"required"`
	FuturesMonths   int    `yaml:"futures_months" default:"3" validate:"gt=0"`
	FuturesDayCount string `yaml:"futures_day_count" default:"ACT/360" validate:"required"`
	FixedFrequency  string `yaml:"fixed_frequency" default:"SEMIANNUAL" validate:"required"`
	FixedDayCount   string `yaml:"fixed_day_count" default:"30/360" validate:"required"`
	FloatFrequency  string `yaml:"float_frequency" default:"QUARTERLY" validate:"required"`
	FloatDayCount   string `yaml:"float_day_count" default:"ACT/360" validate:"required"`
	OISFrequency    string `yaml:"ois_frequency" default:"ANNUAL" validate:"required"`
	OISDayCount     string `yaml:"ois_day_count" default:"ACT/360" validate:"required"`

	// BracketLow and BracketHigh bound the zero rate searched at each pillar.
	BracketLow  float64 `yaml:"bracket_low" default:"-0.1"`
	BracketHigh float64 `yaml:"bracket_high" default:"0.5" validate:"gtfield=BracketLow"`

	// Accuracy is the absolute zero-rate tolerance of the pillar solve.
	Accuracy      float64 `yaml:"accuracy" default:"1e-12" validate:"gt=0"`
	MaxIterations int     `yaml:"max_iterations" default:"100" validate:"gt=0"`

	// Extrapolate allows flat-forward discounting past the last pillar.
	Extrapolate bool `yaml:"extrapolate" default:"true"`
}

// LeastSquares bounds the Levenberg–Marquardt calibrations.
type LeastSquares struct {
	MaxIterations int     `yaml:"max_iterations" default:"200" validate:"gt=0"`
	FunctionTol   float64 `yaml:"function_tol" default:"1e-10" validate:"gt=0"`
	GradientTol   float64 `yaml:"gradient_tol" default:"1e-10" validate:"gt=0"`
	ParameterTol  float64 `yaml:"parameter_tol" default:"1e-10" validate:"gt=0"`
	InitialLambda float64 `yaml:"initial_lambda" default:"1e-3" validate:"gt=0"`
	JacobianStep  float64 `yaml:"jacobian_step" default:"1e-6" validate:"gt=0"`
}

// Instruments fix the legs of the calibration swaptions.
type Instruments struct {
	SpotLagDays    int    `yaml:"spot_lag_days" default:"2" validate:"gte=0"`
	FixedFrequency string `yaml:"fixed_frequency" default:"SEMIANNUAL" validate:"required"`
	FixedDayCount  string `yaml:"fixed_day_count" default:"30/360" validate:"required"`
	FloatFrequency string `yaml:"float_frequency" default:"QUARTERLY" validate:"required"`
	FloatDayCount  string `yaml:"float_day_count" default:"ACT/360" validate:"required"`
}

// HullWhiteGuess is the constant Hull–White starting point.
type HullWhiteGuess struct {
	Reversion float64 `yaml:"reversion" default:"0.03" validate:"gt=0"`
	Sigma     float64 `yaml:"sigma" default:"0.0073" validate:"gt=0"`
}

// G2Guess is the G2++ starting point and the default fixed-parameter mask.
type G2Guess struct {
	A     float64 `yaml:"a" default:"0.5" validate:"gt=0"`
	Sigma float64 `yaml:"sigma" default:"0.006" validate:"gt=0"`
	B     float64 `yaml:"b" default:"0.03" validate:"gt=0"`
	Eta   float64 `yaml:"eta" default:"0.008" validate:"gt=0"`
	Rho   float64 `yaml:"rho" default:"-0.7" validate:"gt=-1,lt=1"`
	FixA  bool    `yaml:"fix_a" default:"true"`
	FixB  bool    `yaml:"fix_b" default:"true"`
}

// Piecewise controls the bucket-by-bucket Hull–White calibration.
type Piecewise struct {
	// Reversion is held fixed while the bucket volatilities are solved.
	Reversion float64 `yaml:"reversion" default:"0.03" validate:"gt=0"`

	BracketLow  float64 `yaml:"bracket_low" default:"0.001" validate:"gt=0"`
	BracketHigh float64 `yaml:"bracket_high" default:"0.02" validate:"gtfield=BracketLow"`

	// Tolerance is the bisection width on each bucket volatility.
	Tolerance     float64 `yaml:"tolerance" default:"1e-7" validate:"gt=0"`
	MaxBisections int     `yaml:"max_bisections" default:"100" validate:"gt=0"`

	MinRefinePasses int `yaml:"min_refine_passes" default:"2" validate:"gte=0"`
	MaxRefinePasses int `yaml:"max_refine_passes" default:"6" validate:"gtefield=MinRefinePasses"`

	// FixedPointTol bounds the largest bucket change of a converged refine pass.
	FixedPointTol float64 `yaml:"fixed_point_tol" default:"1e-6" validate:"gt=0"`

	// Engine prices the calibration swaptions inside the bucket solves.
	Engine string `yaml:"engine" default:"ANALYTIC" validate:"oneof=ANALYTIC FD TREE"`
}

// Calibration groups the model calibration settings.
type Calibration struct {
	// Residual is PRICE for relative price errors or VOL for implied vol errors.
	Residual     string         `yaml:"residual" default:"PRICE" validate:"oneof=PRICE VOL"`
	LeastSquares LeastSquares   `yaml:"least_squares"`
	Instruments  Instruments    `yaml:"instruments"`
	HullWhite    HullWhiteGuess `yaml:"hull_white"`
	G2           G2Guess        `yaml:"g2"`
	Piecewise    Piecewise      `yaml:"piecewise"`
}

// Engine sizes the numerical pricers.
type Engine struct {
	FDGridPoints     int     `yaml:"fd_grid_points" default:"101" validate:"gte=3"`
	FDStepsPerYear   int     `yaml:"fd_steps_per_year" default:"24" validate:"gt=0"`
	FDMinSteps       int     `yaml:"fd_min_steps" default:"20" validate:"gt=0"`
	FDStdDevs        float64 `yaml:"fd_std_devs" default:"5" validate:"gt=0"`
	FDRannacherSteps int     `yaml:"fd_rannacher_steps" default:"2" validate:"gte=0"`

	TreeSteps int `yaml:"tree_steps" default:"500" validate:"gt=0"`

	G2XPoints      int     `yaml:"g2_x_points" default:"41" validate:"gte=3"`
	G2YPoints      int     `yaml:"g2_y_points" default:"41" validate:"gte=3"`
	G2StepsPerYear int     `yaml:"g2_steps_per_year" default:"24" validate:"gt=0"`
	G2MinSteps     int     `yaml:"g2_min_steps" default:"20" validate:"gt=0"`
	G2StdDevs      float64 `yaml:"g2_std_devs" default:"5" validate:"gt=0"`
	G2DampingSteps int     `yaml:"g2_damping_steps" default:"2" validate:"gte=0"`
	G2QuadPoints   int     `yaml:"g2_quad_points" default:"96" validate:"gte=2"`
	G2QuadStdDevs  float64 `yaml:"g2_quad_std_devs" default:"8" validate:"gt=0"`
}

// Default returns the configuration with every default applied.
func Default() (Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	return c, nil
}

// MustDefault is Default for callers that cannot recover from a broken tag.
func MustDefault() Config {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (Config, error) {
	c, err := Default()
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct tags and that every convention label parses.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if _, err := c.Curve.Conventions(); err != nil {
		return err
	}
	if _, err := c.Curve.CurveDayCount(); err != nil {
		return err
	}
	if _, err := c.Calibration.Instruments.Legs(); err != nil {
		return err
	}
	return nil
}

// CalendarID parses the curve calendar.
func (c Curve) CalendarID() (calendar.CalendarID, error) {
	return calendar.Parse(c.Calendar)
}

// CurveDayCount parses the curve time day count.
func (c Curve) CurveDayCount() (market.DayCount, error) {
	return market.ParseDayCount(c.DayCount)
}

// Conventions converts the curve section into bootstrap conventions.
func (c Curve) Conventions() (curve.Conventions, error) {
	conv := curve.Conventions{
		FuturesMonths: c.FuturesMonths,
		BracketLow:    c.BracketLow,
		BracketHigh:   c.BracketHigh,
		Accuracy:      c.Accuracy,
		MaxIterations: c.MaxIterations,
		Extrapolate:   c.Extrapolate,
	}
	var err error
	dayCounts := []struct {
		dst *market.DayCount
		src string
	}{
		{&conv.DepositDayCount, c.DepositDayCount},
		{&conv.FuturesDayCount, c.FuturesDayCount},
		{&conv.FixedDayCount, c.FixedDayCount},
		{&conv.FloatDayCount, c.FloatDayCount},
		{&conv.OISDayCount, c.OISDayCount},
	}
	for _, dc := range dayCounts {
		if *dc.dst, err = market.ParseDayCount(dc.src); err != nil {
			return curve.Conventions{}, fmt.Errorf("curve: %w", err)
		}
	}
	frequencies := []struct {
		dst *market.Frequency
		src string
	}{
		{&conv.FixedFrequency, c.FixedFrequency},
		{&conv.FloatFrequency, c.FloatFrequency},
		{&conv.OISFrequency, c.OISFrequency},
	}
	for _, f := range frequencies {
		if *f.dst, err = market.ParseFrequency(f.src); err != nil {
			return curve.Conventions{}, fmt.Errorf("curve: %w", err)
		}
	}
	return conv, nil
}

// InstrumentLegs are the parsed calibration swaption leg conventions.
type InstrumentLegs struct {
	FixedFrequency market.Frequency
	FixedDayCount  market.DayCount
	FloatFrequency market.Frequency
	FloatDayCount  market.DayCount
}

// Legs parses the instrument leg labels.
func (i Instruments) Legs() (InstrumentLegs, error) {
	var legs InstrumentLegs
	var err error
	if legs.FixedFrequency, err = market.ParseFrequency(i.FixedFrequency); err != nil {
		return legs, fmt.Errorf("calibration instruments: %w", err)
	}
	if legs.FixedDayCount, err = market.ParseDayCount(i.FixedDayCount); err != nil {
		return legs, fmt.Errorf("calibration instruments: %w", err)
	}
	if legs.FloatFrequency, err = market.ParseFrequency(i.FloatFrequency); err != nil {
		return legs, fmt.Errorf("calibration instruments: %w", err)
	}
	if legs.FloatDayCount, err = market.ParseDayCount(i.FloatDayCount); err != nil {
		return legs, fmt.Errorf("calibration instruments: %w", err)
	}
	return legs, nil
}

// Settings converts the least-squares section for the optimizer.
func (l LeastSquares) Settings() numerics.LMSettings {
	return numerics.LMSettings{
		MaxIterations: l.MaxIterations,
		FunctionTol:   l.FunctionTol,
		GradientTol:   l.GradientTol,
		ParameterTol:  l.ParameterTol,
		InitialLambda: l.InitialLambda,
		JacobianStep:  l.JacobianStep,
	}
}

// CalibrationEngine parses the piecewise calibration engine.
func (p Piecewise) CalibrationEngine() market.EngineKind {
	kind, err := market.ParseEngine(p.Engine)
	if err != nil || kind == market.EngineAuto {
		return market.EngineAnalytic
	}
	return kind
}

func (e Engine) FD() engine.FDSettings {
	return engine.FDSettings{
		GridPoints:     e.FDGridPoints,
		StepsPerYear:   e.FDStepsPerYear,
		MinSteps:       e.FDMinSteps,
		StdDevs:        e.FDStdDevs,
		RannacherSteps: e.FDRannacherSteps,
	}
}

func (e Engine) Tree() engine.TreeSettings {
	return engine.TreeSettings{Steps: e.TreeSteps}
}

func (e Engine) G2FD() engine.G2FDSettings {
	return engine.G2FDSettings{
		XPoints:      e.G2XPoints,
		YPoints:      e.G2YPoints,
		StepsPerYear: e.G2StepsPerYear,
		MinSteps:     e.G2MinSteps,
		StdDevs:      e.G2StdDevs,
		DampingSteps: e.G2DampingSteps,
	}
}

func (e Engine) G2Analytic() engine.G2AnalyticSettings {
	return engine.G2AnalyticSettings{Points: e.G2QuadPoints, StdDevs: e.G2QuadStdDevs}
}
