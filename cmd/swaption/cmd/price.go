package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/meenmo/bermudan/calibration"
	"github.com/meenmo/bermudan/pricer"
	"github.com/meenmo/bermudan/utils"
)

var dealFile string

// priceCmd prices one deal
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a Bermudan or European swaption",
	Long: `Normalize the deal, bootstrap the curves, calibrate the model and price.

Without --deal the reference 5Y receiver (2% vs US0003M, quarterly calls)
is priced.`,
	Args: cobra.NoArgs,
	RunE: runPrice,
}

func init() {
	priceCmd.Flags().StringVar(&dealFile, "deal", "", "YAML deal file (default reference deal)")
}

type priceReport struct {
	RunID         string                   `json:"run_id"`
	NPV           float64                  `json:"npv"`
	Amount        decimal.Decimal          `json:"amount"`
	NPVFraction   float64                  `json:"npv_fraction"`
	Currency      string                   `json:"currency"`
	Variant       string                   `json:"variant"`
	Engine        string                   `json:"engine"`
	Params        map[string]float64       `json:"params"`
	RMSVolError   float64                  `json:"rms_vol_error"`
	Diagnostics   []calibration.Diagnostic `json:"diagnostics"`
	ExerciseDates []string                 `json:"exercise_dates"`
	FixedRate     float64                  `json:"fixed_rate"`
	FairRate      float64                  `json:"fair_rate"`
}

func runPrice(cmd *cobra.Command, args []string) error {
	deal, err := loadDeal(dealFile)
	if err != nil {
		return err
	}
	data, err := loadMarket(marketFile)
	if err != nil {
		return err
	}
	p, err := newPricer()
	if err != nil {
		return err
	}
	res, err := p.PriceDeal(deal, data)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), newPriceReport(res))
}

func newPriceReport(res *pricer.Result) priceReport {
	r := priceReport{
		RunID:         res.RunID,
		NPV:           res.NPV,
		Amount:        res.Amount(),
		NPVFraction:   res.NPVFraction,
		Currency:      string(res.Currency),
		Variant:       string(res.Variant),
		Engine:        string(res.Engine),
		Params:        make(map[string]float64, len(res.Params)),
		RMSVolError:   res.RMSVolError,
		Diagnostics:   res.Diagnostics,
		ExerciseDates: make([]string, len(res.ExerciseDates)),
		FixedRate:     res.FixedRate,
		FairRate:      res.FairRate,
	}
	for i, name := range res.ParamNames {
		r.Params[name] = res.Params[i]
	}
	for i, d := range res.ExerciseDates {
		r.ExerciseDates[i] = utils.FormatDate(d)
	}
	return r
}
