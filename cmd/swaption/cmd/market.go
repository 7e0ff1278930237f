package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
	"github.com/meenmo/bermudan/pricer"
)

// marketInput is the --market file. Omitted sections fall back to the
// reference data.
type marketInput struct {
	Forward   []market.CurveRow       `yaml:"forward"`
	OIS       []market.CurveRow       `yaml:"ois"`
	Surface   *market.VolSurface      `yaml:"surface"`
	Mapping   *market.DiagonalMapping `yaml:"mapping"`
	VolTables *market.VolTables       `yaml:"vol_tables"`
}

func loadMarket(path string) (pricer.MarketData, error) {
	data, err := pricer.ReferenceMarket()
	if err != nil || path == "" {
		return data, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return pricer.MarketData{}, failure.Wrap(failure.TypeBadInput, "read market file", err)
	}
	var in marketInput
	if err := yaml.Unmarshal(b, &in); err != nil {
		return pricer.MarketData{}, failure.Wrap(failure.TypeBadInput, "parse market file", err)
	}

	if len(in.Forward) > 0 {
		ois := data.Quotes.OIS
		if data.Quotes, err = market.ParseForwardBlock(in.Forward); err != nil {
			return pricer.MarketData{}, failure.Wrap(failure.TypeBadInput, "forward block", err)
		}
		data.Quotes.OIS = ois
	}
	if len(in.OIS) > 0 {
		if data.Quotes.OIS, err = market.ParseOISBlock(in.OIS); err != nil {
			return pricer.MarketData{}, failure.Wrap(failure.TypeBadInput, "OIS block", err)
		}
	}
	data.Surface = in.Surface
	if in.Mapping != nil {
		data.Mapping = *in.Mapping
	}
	if in.VolTables != nil {
		data.Tables = *in.VolTables
	}
	return data, nil
}

func loadDeal(path string) (pricer.DealParams, error) {
	if path == "" {
		return pricer.ReferenceDeal(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return pricer.DealParams{}, failure.Wrap(failure.TypeBadInput, "read deal file", err)
	}
	var d pricer.DealParams
	if err := yaml.Unmarshal(b, &d); err != nil {
		return pricer.DealParams{}, failure.Wrap(failure.TypeBadInput, fmt.Sprintf("parse deal file %s", path), err)
	}
	return d, nil
}
