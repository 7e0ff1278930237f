package cmd

import (
	"github.com/spf13/cobra"

	"github.com/meenmo/bermudan/curve"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/pricer"
	"github.com/meenmo/bermudan/utils"
)

var (
	asOf      string
	curveMode string
)

// curveCmd prints the bootstrapped curves
var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Bootstrap and print the discount and forecast curves",
	Args:  cobra.NoArgs,
	RunE:  runCurve,
}

func init() {
	for _, c := range []*cobra.Command{curveCmd, calibrateCmd} {
		c.Flags().StringVar(&asOf, "date", utils.FormatDate(market.ReferenceEvaluationDate()), "evaluation date (YYYY/MM/DD)")
		c.Flags().StringVar(&curveMode, "mode", "SINGLE", "curve mode (SINGLE or DUAL)")
	}
}

type nodeReport struct {
	Date     string  `json:"date"`
	Time     float64 `json:"time"`
	ZeroRate float64 `json:"zero_rate"`
	Discount float64 `json:"discount"`
}

type curveReport struct {
	Settlement string       `json:"settlement"`
	Mode       string       `json:"mode"`
	Discount   []nodeReport `json:"discount"`
	Forecast   []nodeReport `json:"forecast"`
}

func runCurve(cmd *cobra.Command, args []string) error {
	_, curves, _, err := buildCurves()
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), curveReport{
		Settlement: utils.FormatDate(curves.Settlement),
		Mode:       string(curves.Mode),
		Discount:   nodes(curves.Discount),
		Forecast:   nodes(curves.Forecast),
	})
}

// buildCurves parses the shared --date/--mode flags and bootstraps the market.
func buildCurves() (*pricer.Pricer, pricer.Curves, pricer.MarketData, error) {
	date, err := utils.ParseDate(asOf)
	if err != nil {
		return nil, pricer.Curves{}, pricer.MarketData{}, failure.Wrap(failure.TypeBadInput, "evaluation date", err)
	}
	mode, err := market.ParseCurveMode(curveMode)
	if err != nil {
		return nil, pricer.Curves{}, pricer.MarketData{}, failure.Wrap(failure.TypeBadInput, "curve mode", err)
	}
	data, err := loadMarket(marketFile)
	if err != nil {
		return nil, pricer.Curves{}, pricer.MarketData{}, err
	}
	p, err := newPricer()
	if err != nil {
		return nil, pricer.Curves{}, pricer.MarketData{}, err
	}
	curves, err := p.BuildCurves(date, mode, data.Quotes)
	if err != nil {
		return nil, pricer.Curves{}, pricer.MarketData{}, err
	}
	return p, curves, data, nil
}

func nodes(c *curve.YieldCurve) []nodeReport {
	var out []nodeReport
	for _, n := range c.Nodes() {
		out = append(out, nodeReport{
			Date:     utils.FormatDate(n.Date),
			Time:     n.Time,
			ZeroRate: n.Zero,
			Discount: n.DF,
		})
	}
	return out
}
