package market

import (
	"fmt"
	"strings"
)

// ReferenceIndex enumerates supported floating benchmarks.
type ReferenceIndex string

const (
	USDLibor3M ReferenceIndex = "US0003M"
)

// Tenor returns the index tenor.
func (r ReferenceIndex) Tenor() Period {
	switch r {
	case USDLibor3M:
		return Period{N: 3, Unit: Months}
	default:
		return Period{}
	}
}

// ParseIndex validates a floating index tag.
func ParseIndex(s string) (ReferenceIndex, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "US0003M", "USDLIBOR3M", "USD-LIBOR-3M":
		return USDLibor3M, nil
	default:
		return "", fmt.Errorf("ParseIndex: unsupported index %q", s)
	}
}

// Currency of the deal notional.
type Currency string

const (
	USD Currency = "USD"
	CNY Currency = "CNY"
)

// ParseCurrency validates a currency tag.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(s))); c {
	case USD, CNY:
		return c, nil
	default:
		return "", fmt.Errorf("ParseCurrency: unsupported currency %q", s)
	}
}
