package cmd

import (
	"github.com/spf13/cobra"

	"github.com/meenmo/bermudan/calibration"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/pricer"
)

var (
	modelName     string
	volComplexity string
	useSurface    bool
)

// calibrateCmd fits a model without pricing a deal
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate a short-rate model to the volatility diagonal",
	Args:  cobra.NoArgs,
	RunE:  runCalibrate,
}

func init() {
	calibrateCmd.Flags().StringVar(&modelName, "model", "HW1F", "model family (HW1F or G2++)")
	calibrateCmd.Flags().StringVar(&volComplexity, "vol-complexity", "CONSTANT", "Hull-White volatility (CONSTANT or PIECEWISE)")
	calibrateCmd.Flags().BoolVar(&useSurface, "surface", false, "calibrate to the surface in the --market file")
}

type calibrationReport struct {
	Variant     string                   `json:"variant"`
	Params      map[string]float64       `json:"params"`
	RMSVolError float64                  `json:"rms_vol_error"`
	Diagnostics []calibration.Diagnostic `json:"diagnostics"`
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	family, err := market.ParseModelFamily(modelName)
	if err != nil {
		return failure.Wrap(failure.TypeBadInput, "model", err)
	}
	vc, err := market.ParseVolComplexity(volComplexity)
	if err != nil {
		return failure.Wrap(failure.TypeBadInput, "vol complexity", err)
	}
	variant, err := market.ResolveVariant(family, vc)
	if err != nil {
		return failure.Wrap(failure.TypeBadInput, "model", err)
	}

	p, curves, data, err := buildCurves()
	if err != nil {
		return err
	}
	cal, err := p.Calibrate(curves, useSurface, data, pricer.ModelChoice{Variant: variant})
	if err != nil {
		return err
	}
	report := calibrationReport{
		Variant:     string(variant),
		Params:      make(map[string]float64),
		RMSVolError: cal.RMS,
		Diagnostics: cal.Diagnostics,
	}
	for i, name := range cal.Model.ParamNames() {
		report.Params[name] = cal.Model.Params()[i]
	}
	return writeJSON(cmd.OutOrStdout(), report)
}
