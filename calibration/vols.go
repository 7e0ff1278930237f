package calibration

import (
	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
)

// SelectMarketVols picks the calibration target. A surface wins over both
// reference tables when useSurface is set; otherwise the curve mode picks the
// dual (OIS discounting) or single table.
func SelectMarketVols(useDual, useSurface bool, surface *market.VolSurface, mapping market.DiagonalMapping, tables market.VolTables) (market.VolTable, error) {
	if useSurface {
		if surface.Empty() {
			return market.VolTable{}, failure.BadInput("external volatility surface required but empty")
		}
		return surface.Diagonal(mapping)
	}
	if useDual {
		return tables.Dual, nil
	}
	return tables.Single, nil
}
