package pricer

import (
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
)

// ModelChoice is the model to calibrate and the engine that prices the deal.
type ModelChoice struct {
	Variant market.ModelVariant
	Engine  market.EngineKind
	// FixedParameters holds parameters at their configured initial value;
	// nil selects the variant default.
	FixedParameters []bool
}

// MarketData is everything the pipeline reads besides the deal.
type MarketData struct {
	Quotes  market.QuoteSet
	Surface *market.VolSurface
	Mapping market.DiagonalMapping
	Tables  market.VolTables
}

// ReferenceMarket parses the reference quote blocks and vol tables.
func ReferenceMarket() (MarketData, error) {
	q, err := market.ParseForwardBlock(market.ReferenceForwardBlock())
	if err != nil {
		return MarketData{}, failure.Wrap(failure.TypeBadInput, "reference forward block", err)
	}
	q.OIS, err = market.ParseOISBlock(market.ReferenceOISBlock())
	if err != nil {
		return MarketData{}, failure.Wrap(failure.TypeBadInput, "reference OIS block", err)
	}
	return MarketData{
		Quotes:  q,
		Mapping: market.DefaultDiagonalMapping,
		Tables:  market.ReferenceVolTables(),
	}, nil
}
