package market

import "time"

// GridPoint is one expiry×tenor calibration bucket.
type GridPoint struct {
	Expiry Period
	Tenor  Period
}

func (g GridPoint) String() string {
	return g.Expiry.String() + "x" + g.Tenor.String()
}

// ReferenceEvaluationDate is the as-of date of the reference market data.
func ReferenceEvaluationDate() time.Time {
	return time.Date(2019, time.July, 16, 0, 0, 0, 0, time.UTC)
}

// ReferenceForwardBlock returns the USD 3M LIBOR forward curve block:
// one deposit, six Eurodollar futures and seventeen par swaps.
func ReferenceForwardBlock() []CurveRow {
	return []CurveRow{
		{Term: 3, Unit: "MO", Bid: 2.2850, Ask: 2.2950},
		{Term: 20190918, Unit: "ACTDATE", Bid: 97.875, Ask: 97.880},
		{Term: 20191218, Unit: "ACTDATE", Bid: 98.025, Ask: 98.030},
		{Term: 20200318, Unit: "ACTDATE", Bid: 98.145, Ask: 98.150},
		{Term: 20200617, Unit: "ACTDATE", Bid: 98.235, Ask: 98.240},
		{Term: 20200916, Unit: "ACTDATE", Bid: 98.295, Ask: 98.300},
		{Term: 20201216, Unit: "ACTDATE", Bid: 98.315, Ask: 98.320},
		{Term: 2, Unit: "Years", Bid: 1.8570, Ask: 1.8630},
		{Term: 3, Unit: "Years", Bid: 1.7920, Ask: 1.7980},
		{Term: 4, Unit: "Years", Bid: 1.7970, Ask: 1.8030},
		{Term: 5, Unit: "Years", Bid: 1.8170, Ask: 1.8230},
		{Term: 6, Unit: "Years", Bid: 1.8520, Ask: 1.8580},
		{Term: 7, Unit: "Years", Bid: 1.8920, Ask: 1.8980},
		{Term: 8, Unit: "Years", Bid: 1.9320, Ask: 1.9380},
		{Term: 9, Unit: "Years", Bid: 1.9700, Ask: 1.9760},
		{Term: 10, Unit: "Years", Bid: 2.0070, Ask: 2.0130},
		{Term: 11, Unit: "Years", Bid: 2.0380, Ask: 2.0440},
		{Term: 12, Unit: "Years", Bid: 2.0670, Ask: 2.0730},
		{Term: 15, Unit: "Years", Bid: 2.1270, Ask: 2.1330},
		{Term: 20, Unit: "Years", Bid: 2.1870, Ask: 2.1930},
		{Term: 25, Unit: "Years", Bid: 2.2070, Ask: 2.2130},
		{Term: 30, Unit: "Years", Bid: 2.2170, Ask: 2.2230},
		{Term: 40, Unit: "Years", Bid: 2.1770, Ask: 2.1830},
		{Term: 50, Unit: "Years", Bid: 2.1170, Ask: 2.1230},
	}
}

// ReferenceOISBlock returns the Fed Funds OIS block as blended single values.
func ReferenceOISBlock() []CurveRow {
	return []CurveRow{
		{Term: 1, Unit: "WK", Bid: 2.3800},
		{Term: 1, Unit: "MO", Bid: 2.3100},
		{Term: 3, Unit: "MO", Bid: 2.1400},
		{Term: 6, Unit: "MO", Bid: 2.0000},
		{Term: 1, Unit: "Years", Bid: 1.8600},
		{Term: 2, Unit: "Years", Bid: 1.6600},
		{Term: 3, Unit: "Years", Bid: 1.6000},
		{Term: 5, Unit: "Years", Bid: 1.6000},
		{Term: 7, Unit: "Years", Bid: 1.6600},
		{Term: 10, Unit: "Years", Bid: 1.7600},
	}
}

// ReferenceGrid is the 10-point expiry×tenor calibration diagonal.
func ReferenceGrid() [GridSize]GridPoint {
	expiries := [GridSize]string{"1M", "3M", "6M", "9M", "1Y", "2Y", "3Y", "4Y", "5Y", "6Y"}
	tenors := [GridSize]string{"6Y", "6Y", "5Y", "5Y", "5Y", "4Y", "3Y", "2Y", "1Y", "1Y"}
	var grid [GridSize]GridPoint
	for i := range grid {
		grid[i] = GridPoint{Expiry: MustPeriod(expiries[i]), Tenor: MustPeriod(tenors[i])}
	}
	return grid
}

// ReferenceVolTables returns the Black volatilities of the reference grid under
// LIBOR (single-curve) and OIS (dual-curve) discounting.
func ReferenceVolTables() VolTables {
	return VolTables{
		Single: VolTable{0.3654, 0.3594, 0.3700, 0.3671, 0.3627, 0.3572, 0.3454, 0.3361, 0.3265, 0.3115},
		Dual:   VolTable{0.3698, 0.3637, 0.3744, 0.3715, 0.3671, 0.3615, 0.3496, 0.3402, 0.3305, 0.3153},
	}
}
