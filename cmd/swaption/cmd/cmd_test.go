package cmd

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/meenmo/bermudan/failure"
	"github.com/meenmo/bermudan/market"
)

func TestWriteErrorCarriesType(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writeError(&buf, failure.Calibration("bucket 3 failed"))
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["type"] != "CALIBRATION_FAILURE" || got["error"] == "" {
		t.Fatalf("error JSON = %v", got)
	}
}

func TestLoadMarketOverridesSections(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "market.yaml")
	body := `
ois:
  - {term: 1, unit: Years, bid: 1.5}
  - {term: 10, unit: Years, bid: 1.9}
surface:
  values:
    - [30, 31, 32, 33, 34, 35]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write market file: %v", err)
	}
	data, err := loadMarket(path)
	if err != nil {
		t.Fatalf("loadMarket error: %v", err)
	}
	if len(data.Quotes.OIS) != 2 || math.Abs(data.Quotes.OIS[1].Value-0.019) > 1e-15 {
		t.Fatalf("OIS quotes = %+v", data.Quotes.OIS)
	}
	if len(data.Quotes.Swaps) != 17 {
		t.Fatalf("forward block not defaulted: %d swaps", len(data.Quotes.Swaps))
	}
	if data.Surface.Empty() || data.Mapping != market.DefaultDiagonalMapping {
		t.Fatalf("surface %+v mapping %v", data.Surface, data.Mapping)
	}
}

func TestLoadDealDefaultsToReference(t *testing.T) {
	t.Parallel()

	d, err := loadDeal("")
	if err != nil {
		t.Fatalf("loadDeal error: %v", err)
	}
	if d.Notional != 10_000_000 || d.Fixed.Coupon != "2.00%" {
		t.Fatalf("deal = %+v", d)
	}
	if _, err := loadDeal(filepath.Join(t.TempDir(), "missing.yaml")); !failure.IsType(err, failure.TypeBadInput) {
		t.Fatalf("expected BAD_INPUT for a missing file, got %v", err)
	}
}
