// Package cmd provides the CLI commands for swaption.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/internal/logging"
	"github.com/meenmo/bermudan/pricer"
)

var (
	cfgFile    string
	marketFile string
	logLevel   string
	envFile    string

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "swaption",
	Short: "Price Bermudan swaptions under calibrated short-rate models",
	Long: `swaption bootstraps LIBOR and OIS curves, calibrates a Hull-White or G2++
model to a 10-point swaption volatility diagonal and prices the deal.

Without --market the built-in reference quotes are used.

Examples:
  swaption price
  swaption price --deal deal.yaml --market market.yaml
  swaption curve --mode dual
  swaption calibrate --model G2++`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI. Failures are written to stdout as JSON.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		writeError(rootCmd.OutOrStdout(), err)
	}
	if logger != nil {
		_ = logger.Sync()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $SWAPTION_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&marketFile, "market", "", "YAML market data file (default reference data)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default $SWAPTION_LOG_LEVEL or config)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with SWAPTION_* defaults")

	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(curveCmd)
	rootCmd.AddCommand(calibrateCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	if cfgFile == "" {
		cfgFile = os.Getenv("SWAPTION_CONFIG")
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return failure.Wrap(failure.TypeBadInput, "configuration", err)
	}

	if logLevel == "" {
		logLevel = os.Getenv("SWAPTION_LOG_LEVEL")
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger, err = logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	return nil
}

func newPricer() (*pricer.Pricer, error) {
	return pricer.New(cfg, pricer.WithLogger(logger))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w io.Writer, err error) {
	_ = writeJSON(w, struct {
		Error string `json:"error"`
		Type  string `json:"type,omitempty"`
	}{Error: err.Error(), Type: string(failure.TypeOf(err))})
}
