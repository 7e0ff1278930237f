package market

import (
	"fmt"
	"strings"
)

// LegType distinguishes floating vs fixed.
type LegType string

const (
	LegFloating LegType = "FLOATING"
	LegFixed    LegType = "FIXED"
)

// Frequency enumerates payment/reset frequencies in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
	FreqMonthly   Frequency = 1
)

// Months returns the period length in months.
func (f Frequency) Months() int { return int(f) }

// PerYear returns the number of periods per year.
func (f Frequency) PerYear() int { return 12 / int(f) }

func (f Frequency) String() string {
	switch f {
	case FreqAnnual:
		return "Annual"
	case FreqSemi:
		return "Semi-annual"
	case FreqQuarterly:
		return "Quarterly"
	case FreqMonthly:
		return "Monthly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

// ParseFrequency accepts the ticket labels (Quarter, Semi-annual, Annual) and common aliases.
func ParseFrequency(s string) (Frequency, error) {
	key := strings.ToUpper(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "ANNUAL", "A", "1Y", "12M", "YEARLY":
		return FreqAnnual, nil
	case "SEMIANNUAL", "S", "SA", "6M":
		return FreqSemi, nil
	case "QUARTER", "QUARTERLY", "Q", "3M":
		return FreqQuarterly, nil
	case "MONTHLY", "M", "1M":
		return FreqMonthly, nil
	default:
		return 0, fmt.Errorf("ParseFrequency: unsupported frequency %q", s)
	}
}

// Direction is the cashflow direction of a leg from the holder's side.
type Direction string

const (
	Pay     Direction = "PAY"
	Receive Direction = "RECEIVE"
)

// Sign returns -1 for paid legs and +1 for received legs.
func (d Direction) Sign() float64 {
	if d == Pay {
		return -1
	}
	return 1
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Pay {
		return Receive
	}
	return Pay
}

// ParseDirection accepts PAY/PAYER and REC/RECEIVE/RECEIVER.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PAY", "PAYER", "P":
		return Pay, nil
	case "REC", "RECEIVE", "RECEIVER", "R":
		return Receive, nil
	default:
		return "", fmt.Errorf("ParseDirection: unsupported direction %q", s)
	}
}

// Position is the holder's side of the option.
type Position string

const (
	Long  Position = "LONG"
	Short Position = "SHORT"
)

// Sign returns +1 for long and -1 for short.
func (p Position) Sign() float64 {
	if p == Short {
		return -1
	}
	return 1
}

// ParsePosition accepts Long/Short (buy/sell).
func ParsePosition(s string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, nil
	case "SHORT", "SELL":
		return Short, nil
	default:
		return "", fmt.Errorf("ParsePosition: unsupported position %q", s)
	}
}
