package main

import (
	"fmt"
	"log"

	"github.com/meenmo/bermudan/config"
	"github.com/meenmo/bermudan/pricer"
)

func main() {
	p, err := pricer.New(config.MustDefault())
	if err != nil {
		log.Fatal(err)
	}
	data, err := pricer.ReferenceMarket()
	if err != nil {
		log.Fatal(err)
	}

	res, err := p.PriceDeal(pricer.ReferenceDeal(), data)
	if err != nil {
		log.Fatal(err)
	}

	for i, name := range res.ParamNames {
		fmt.Printf("%-6s %.6f\n", name, res.Params[i])
	}
	for _, d := range res.Diagnostics {
		fmt.Printf("%3sx%-3s model %.4f market %.4f (%+.4f)\n", d.Expiry, d.Tenor, d.ModelVol, d.MarketVol, d.Diff)
	}
	fmt.Printf("Fair rate: %.6f\n", res.FairRate)
	fmt.Printf("NPV: %s %s (%.4f%% of notional)\n", res.Amount().StringFixed(2), res.Currency, 100*res.NPVFraction)
}
