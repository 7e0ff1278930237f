package market

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/meenmo/bermudan/failure"
)

// CurveRow is one line of a quote block as supplied by the ingestion layer.
//
// Unit is one of DY, WK, MO, Years or ACTDATE. For ACTDATE rows Term holds a
// YYYYMMDD date. Bid and Ask are in percent for rates and in price points for
// futures; a row with a zero ask carries a single blended value in Bid.
type CurveRow struct {
	Term float64 `yaml:"term" json:"term"`
	Unit string  `yaml:"unit" json:"unit"`
	Bid  float64 `yaml:"bid" json:"bid"`
	Ask  float64 `yaml:"ask" json:"ask"`
}

// Mid returns the blended quote.
func (r CurveRow) Mid() float64 {
	switch {
	case r.Ask == 0:
		return r.Bid
	case r.Bid == 0:
		return r.Ask
	default:
		return (r.Bid + r.Ask) / 2
	}
}

func (r CurveRow) isDate() bool {
	return strings.EqualFold(strings.TrimSpace(r.Unit), "ACTDATE")
}

func (r CurveRow) period() (Period, error) {
	n := int(math.Round(r.Term))
	if n <= 0 || math.Abs(r.Term-float64(n)) > 1e-9 {
		return Period{}, fmt.Errorf("term %v is not a positive whole number", r.Term)
	}
	switch strings.ToUpper(strings.TrimSpace(r.Unit)) {
	case "DY", "D", "DAYS":
		return Period{N: n, Unit: Days}, nil
	case "WK", "W", "WEEKS":
		return Period{N: n, Unit: Weeks}, nil
	case "MO", "M", "MONTHS":
		return Period{N: n, Unit: Months}, nil
	case "YEARS", "YR", "Y":
		return Period{N: n, Unit: Years}, nil
	default:
		return Period{}, fmt.Errorf("unsupported unit tag %q", r.Unit)
	}
}

func (r CurveRow) date() (time.Time, error) {
	v := int(math.Round(r.Term))
	y, m, d := v/10000, (v/100)%100, v%100
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if y < 1900 || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, fmt.Errorf("term %v is not a YYYYMMDD date", r.Term)
	}
	return t, nil
}

// ParseForwardBlock splits the forward curve block into the deposit, futures and par-swap quotes.
//
// Row 0 is the deposit, ACTDATE rows are futures and the remaining rows are par swaps.
func ParseForwardBlock(rows []CurveRow) (QuoteSet, error) {
	if len(rows) < 2 {
		return QuoteSet{}, failure.BadInput("forward curve block needs a deposit row and at least one swap row, got %d rows", len(rows))
	}
	if rows[0].isDate() {
		return QuoteSet{}, failure.BadInput("forward curve block row 0 must be the deposit, got an ACTDATE row")
	}
	depositTenor, err := rows[0].period()
	if err != nil {
		return QuoteSet{}, failure.BadInput("forward curve block row 0: %v", err)
	}
	set := QuoteSet{
		Deposit: MarketQuote{Kind: Deposit, Tenor: depositTenor, Value: rows[0].Mid() / 100},
	}
	for i, row := range rows[1:] {
		if row.isDate() {
			start, err := row.date()
			if err != nil {
				return QuoteSet{}, failure.BadInput("forward curve block row %d: %v", i+1, err)
			}
			set.Futures = append(set.Futures, MarketQuote{Kind: Futures, Maturity: start, Value: row.Mid()})
			continue
		}
		p, err := row.period()
		if err != nil {
			return QuoteSet{}, failure.BadInput("forward curve block row %d: %v", i+1, err)
		}
		set.Swaps = append(set.Swaps, MarketQuote{Kind: ParSwap, Tenor: p, Value: row.Mid() / 100})
	}
	if len(set.Swaps) == 0 {
		return QuoteSet{}, failure.BadInput("forward curve block has no par swap rows")
	}
	return set, nil
}

// ParseOISBlock converts the OIS block into OIS quotes.
func ParseOISBlock(rows []CurveRow) ([]MarketQuote, error) {
	if len(rows) == 0 {
		return nil, failure.BadInput("OIS block is empty")
	}
	quotes := make([]MarketQuote, 0, len(rows))
	for i, row := range rows {
		if row.isDate() {
			return nil, failure.BadInput("OIS block row %d: ACTDATE rows are not supported", i)
		}
		p, err := row.period()
		if err != nil {
			return nil, failure.BadInput("OIS block row %d: %v", i, err)
		}
		quotes = append(quotes, MarketQuote{Kind: OIS, Tenor: p, Value: row.Mid() / 100})
	}
	return quotes, nil
}
