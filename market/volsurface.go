package market

import (
	"github.com/meenmo/bermudan/failure"
)

// GridSize is the number of calibration buckets.
const GridSize = 10

// VolTable holds one decimal Black volatility per calibration bucket.
type VolTable [GridSize]float64

// VolTables are the two reference calibration targets.
type VolTables struct {
	// Single is used when the forecast curve also discounts.
	Single VolTable `yaml:"single" json:"single"`
	// Dual is used under OIS discounting.
	Dual VolTable `yaml:"dual" json:"dual"`
}

// DiagonalMapping holds the (row, col) surface cell read for each bucket.
type DiagonalMapping [GridSize][2]int

// DefaultDiagonalMapping reads the expiry×tenor diagonal from a surface with
// expiry rows 1M,3M,6M,9M,1Y,2Y,...,10Y and tenor columns 1Y..10Y.
var DefaultDiagonalMapping = DiagonalMapping{
	{0, 5}, {1, 5}, {2, 4}, {3, 4}, {4, 4},
	{5, 3}, {6, 2}, {7, 1}, {8, 0}, {9, 0},
}

// VolSurface is an externally supplied implied volatility grid in percentage points.
type VolSurface struct {
	RowLabels []string    `yaml:"rows" json:"rows"`
	ColLabels []string    `yaml:"cols" json:"cols"`
	Values    [][]float64 `yaml:"values" json:"values"`
}

// Empty reports whether the surface carries no values.
func (s *VolSurface) Empty() bool {
	return s == nil || len(s.Values) == 0
}

// Diagonal extracts the calibration diagonal, converting percent to decimal.
func (s *VolSurface) Diagonal(mapping DiagonalMapping) (VolTable, error) {
	var out VolTable
	if s.Empty() {
		return out, failure.BadInput("volatility surface is empty")
	}
	for i, rc := range mapping {
		r, c := rc[0], rc[1]
		if r < 0 || r >= len(s.Values) {
			return out, failure.BadInput("bucket %d maps to surface row %d outside %d rows", i, r, len(s.Values))
		}
		if c < 0 || c >= len(s.Values[r]) {
			return out, failure.BadInput("bucket %d maps to surface column %d outside %d columns", i, c, len(s.Values[r]))
		}
		v := s.Values[r][c] / 100
		if !(v > 0) {
			return out, failure.BadInput("bucket %d surface volatility %v is not positive", i, s.Values[r][c])
		}
		out[i] = v
	}
	return out, nil
}
