package pricer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/swap"
	"github.com/meenmo/bermudan/utils"
)

var validate = validator.New()

// FixedLegParams is the fixed leg of a deal ticket.
type FixedLegParams struct {
	Direction string `yaml:"direction" json:"direction" validate:"required"`
	// Coupon is "2.00%", a decimal rate such as "0.02", or ATM for the fair rate.
	Coupon    string `yaml:"coupon" json:"coupon" validate:"required"`
	Frequency string `yaml:"frequency" json:"frequency" default:"SEMIANNUAL" validate:"required"`
	DayCount  string `yaml:"day_count" json:"day_count" default:"30/360" validate:"required"`
}

// FloatLegParams is the floating leg of a deal ticket.
type FloatLegParams struct {
	Direction string `yaml:"direction" json:"direction" validate:"required"`
	Index     string `yaml:"index" json:"index" default:"US0003M" validate:"required"`
	Frequency string `yaml:"frequency" json:"frequency" default:"QUARTERLY" validate:"required"`
	DayCount  string `yaml:"day_count" json:"day_count" default:"ACT/360" validate:"required"`
}

// DealParams is the raw deal record as exchanged with the booking front end.
// Dates are YYYY/MM/DD strings and every enum is a free-form label.
type DealParams struct {
	Notional      float64 `yaml:"notional" json:"notional" validate:"gt=0"`
	Currency      string  `yaml:"currency" json:"currency" default:"USD" validate:"required"`
	EffectiveDate string  `yaml:"effective_date" json:"effective_date" validate:"required"`
	MaturityDate  string  `yaml:"maturity_date" json:"maturity_date" validate:"required"`

	ExerciseStyle       string `yaml:"exercise_style" json:"exercise_style" default:"BERMUDAN" validate:"required"`
	ChangeFirstExercise bool   `yaml:"change_first_exercise" json:"change_first_exercise"`
	FirstExerciseDate   string `yaml:"first_exercise_date" json:"first_exercise_date" validate:"required_if=ChangeFirstExercise true"`

	Fixed FixedLegParams `yaml:"fixed" json:"fixed"`
	Float FloatLegParams `yaml:"float" json:"float"`

	Position      string `yaml:"position" json:"position" default:"LONG" validate:"required"`
	CallFrequency string `yaml:"call_frequency" json:"call_frequency" default:"QUARTERLY" validate:"required"`

	PricingDate           string `yaml:"pricing_date" json:"pricing_date" validate:"required"`
	Model                 string `yaml:"model" json:"model" default:"HW1F" validate:"required"`
	Engine                string `yaml:"engine" json:"engine" default:"AUTO"`
	VolComplexity         string `yaml:"vol_complexity" json:"vol_complexity" default:"CONSTANT"`
	CurveMode             string `yaml:"curve_mode" json:"curve_mode" default:"SINGLE"`
	UseExternalVolSurface bool   `yaml:"use_external_vol_surface" json:"use_external_vol_surface"`
}

// DealTerms is the validated, typed deal.
type DealTerms struct {
	Notional  float64
	Currency  market.Currency
	Effective time.Time
	Maturity  time.Time

	Style         market.ExerciseStyle
	FirstExercise *time.Time

	Type      swap.Type
	FixedRate float64
	// AtMarket strikes the swap at its fair rate once the curves are built.
	AtMarket bool

	FixedFrequency market.Frequency
	FixedDayCount  market.DayCount
	FloatFrequency market.Frequency
	FloatDayCount  market.DayCount
	Index          market.ReferenceIndex

	Position      market.Position
	CallFrequency market.Frequency

	PricingDate time.Time
	Variant     market.ModelVariant
	Engine      market.EngineKind
	CurveMode   market.CurveMode
	UseSurface  bool
}

// Choice is the model and engine requested by the deal.
func (t DealTerms) Choice() ModelChoice {
	return ModelChoice{Variant: t.Variant, Engine: t.Engine}
}

// ReferenceDeal is the 5Y receiver struck at 2% with quarterly Bermudan calls.
func ReferenceDeal() DealParams {
	return DealParams{
		Notional:      10_000_000,
		Currency:      "USD",
		EffectiveDate: "2020/07/15",
		MaturityDate:  "2025/07/14",
		ExerciseStyle: "Bermudan",
		Fixed: FixedLegParams{
			Direction: "Receive",
			Coupon:    "2.00%",
			Frequency: "Semi-annual",
			DayCount:  "30 / 360",
		},
		Float: FloatLegParams{
			Direction: "Pay",
			Index:     "US0003M",
			Frequency: "Quarter",
			DayCount:  "Act / 360",
		},
		Position:      "Long",
		CallFrequency: "Quarter",
		PricingDate:   "2019/07/16",
		Model:         "Hull-White One Factor",
		Engine:        "FD",
		VolComplexity: "CONSTANT",
		CurveMode:     "SINGLE",
	}
}

// Normalize applies defaults, validates the record and parses every field.
func (d DealParams) Normalize() (DealTerms, error) {
	if err := defaults.Set(&d); err != nil {
		return DealTerms{}, failure.Wrap(failure.TypeBadInput, "deal defaults", err)
	}
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return DealTerms{}, failure.BadInput("invalid deal: %s", strings.Join(msgs, "; "))
		}
		return DealTerms{}, failure.Wrap(failure.TypeBadInput, "invalid deal", err)
	}

	var (
		t   DealTerms
		err error
	)
	t.Notional = d.Notional
	t.UseSurface = d.UseExternalVolSurface

	parse := func(field string, fn func() error) {
		if err != nil {
			return
		}
		if e := fn(); e != nil {
			err = failure.Wrap(failure.TypeBadInput, field, e)
		}
	}
	parse("currency", func() (e error) { t.Currency, e = market.ParseCurrency(d.Currency); return })
	parse("effective date", func() (e error) { t.Effective, e = utils.ParseDate(d.EffectiveDate); return })
	parse("maturity date", func() (e error) { t.Maturity, e = utils.ParseDate(d.MaturityDate); return })
	parse("pricing date", func() (e error) { t.PricingDate, e = utils.ParseDate(d.PricingDate); return })
	parse("exercise style", func() (e error) { t.Style, e = market.ParseExerciseStyle(d.ExerciseStyle); return })
	parse("first exercise date", func() error {
		if !d.ChangeFirstExercise {
			return nil
		}
		fe, e := utils.ParseDate(d.FirstExerciseDate)
		if e != nil {
			return e
		}
		t.FirstExercise = &fe
		return nil
	})
	parse("fixed coupon", func() (e error) { t.FixedRate, t.AtMarket, e = parseCoupon(d.Fixed.Coupon); return })
	parse("fixed frequency", func() (e error) { t.FixedFrequency, e = market.ParseFrequency(d.Fixed.Frequency); return })
	parse("fixed day count", func() (e error) { t.FixedDayCount, e = market.ParseDayCount(d.Fixed.DayCount); return })
	parse("float index", func() (e error) { t.Index, e = market.ParseIndex(d.Float.Index); return })
	parse("float frequency", func() (e error) { t.FloatFrequency, e = market.ParseFrequency(d.Float.Frequency); return })
	parse("float day count", func() (e error) { t.FloatDayCount, e = market.ParseDayCount(d.Float.DayCount); return })
	parse("position", func() (e error) { t.Position, e = market.ParsePosition(d.Position); return })
	parse("call frequency", func() (e error) { t.CallFrequency, e = market.ParseFrequency(d.CallFrequency); return })
	parse("engine", func() (e error) { t.Engine, e = market.ParseEngine(d.Engine); return })
	parse("curve mode", func() (e error) { t.CurveMode, e = market.ParseCurveMode(d.CurveMode); return })
	parse("model", func() error {
		family, e := market.ParseModelFamily(d.Model)
		if e != nil {
			return e
		}
		vc, e := market.ParseVolComplexity(d.VolComplexity)
		if e != nil {
			return e
		}
		t.Variant, e = market.ResolveVariant(family, vc)
		return e
	})
	parse("leg directions", func() error {
		fixedDir, e := market.ParseDirection(d.Fixed.Direction)
		if e != nil {
			return e
		}
		floatDir, e := market.ParseDirection(d.Float.Direction)
		if e != nil {
			return e
		}
		if fixedDir == floatDir {
			return fmt.Errorf("fixed and float legs both %s", fixedDir)
		}
		t.Type = swap.Payer
		if fixedDir == market.Receive {
			t.Type = swap.Receiver
		}
		return nil
	})
	if err != nil {
		return DealTerms{}, err
	}

	if !t.Maturity.After(t.Effective) {
		return DealTerms{}, failure.BadInput("maturity %s is not after effective %s", d.MaturityDate, d.EffectiveDate)
	}
	if t.Style == market.American {
		return DealTerms{}, failure.BadInput("exercise style %s is not supported", t.Style)
	}
	return t, nil
}

// parseCoupon reads a percent ("2.00%"), a decimal ("0.02") or ATM.
func parseCoupon(s string) (rate float64, atMarket bool, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "ATM", "AT_MARKET", "AT MARKET", "PAR":
		return 0, true, nil
	}
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return 0, false, fmt.Errorf("parseCoupon: %q is not a rate", s)
		}
		return v / 100, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parseCoupon: %q is not a rate", s)
	}
	return v, false, nil
}
