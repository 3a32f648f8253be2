package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/flows"
)

// GrossFlow is the total inflow and outflow of an area in one year.
type GrossFlow struct {
	Code    string  `parquet:"gss_code" json:"gss_code" yaml:"gss_code"`
	Year    int     `parquet:"year" json:"year" yaml:"year"`
	Inflow  float64 `parquet:"inflow" json:"inflow" yaml:"inflow"`
	Outflow float64 `parquet:"outflow" json:"outflow" yaml:"outflow"`
}

type codeYear struct {
	code string
	year int
}

// GrossFlows sums inflows by destination and outflows by origin for each
// year. An area with flows in one direction only gets zero for the other.
// Values are rounded to the given number of decimals.
func GrossFlows(records []flows.Record, decimals int) []GrossFlow {
	totals := make(map[codeYear]*GrossFlow)
	get := func(code string, year int) *GrossFlow {
		k := codeYear{code, year}
		g, ok := totals[k]
		if !ok {
			g = &GrossFlow{Code: code, Year: year}
			totals[k] = g
		}
		return g
	}
	for _, r := range records {
		get(r.Destination, r.Year).Inflow += r.Value
		get(r.Origin, r.Year).Outflow += r.Value
	}

	out := make([]GrossFlow, 0, len(totals))
	for _, g := range totals {
		g.Inflow = Round(g.Inflow, decimals)
		g.Outflow = Round(g.Outflow, decimals)
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b GrossFlow) int {
		return cmp.Or(cmp.Compare(a.Code, b.Code), cmp.Compare(a.Year, b.Year))
	})
	return out
}

// Round rounds v to decimals places, halves away from zero.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// CombinedGross joins England's country row, every region row and the
// inner and outer London rows into one table.
func CombinedGross(country, region, innerOuter []GrossFlow) []GrossFlow {
	out := make([]GrossFlow, 0, len(region)+len(innerOuter)+len(country))
	for _, g := range country {
		if g.Code == constants.EnglandCode {
			out = append(out, g)
		}
	}
	out = append(out, region...)
	for _, g := range innerOuter {
		if g.Code != constants.OtherCode {
			out = append(out, g)
		}
	}
	return out
}
