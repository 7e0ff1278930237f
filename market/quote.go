package market

import "time"

// QuoteKind is the instrument class of a market quote.
type QuoteKind string

const (
	Deposit QuoteKind = "DEPOSIT"
	Futures QuoteKind = "FUTURES"
	OIS     QuoteKind = "OIS"
	ParSwap QuoteKind = "PAR_SWAP"
)

// MarketQuote is a single curve instrument quote.
//
// Value is a decimal rate (0.0229 == 2.29%) for deposits, OIS and par swaps,
// and a price (97.95) for futures. Futures carry a Maturity (IMM start date)
// instead of a Tenor.
type MarketQuote struct {
	Kind     QuoteKind
	Tenor    Period
	Maturity time.Time
	Value    float64
}

// QuoteSet groups the quotes consumed by the curve bootstrap.
type QuoteSet struct {
	Deposit MarketQuote
	Futures []MarketQuote
	Swaps   []MarketQuote
	OIS     []MarketQuote
}
