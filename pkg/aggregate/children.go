package aggregate

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/tabular"
)

// FilterMaxAge keeps records with Age <= maxAge.
func FilterMaxAge(records []flows.Record, maxAge int) []flows.Record {
	out := make([]flows.Record, 0, len(records))
	for _, r := range records {
		if r.Age <= maxAge {
			out = append(out, r)
		}
	}
	return out
}

// Totals returns, per area, age and year, the total inflow from every
// origin as (total -> area) and the total outflow to every destination as
// (area -> total).
func Totals(records []flows.Record) []flows.Record {
	out := make([]flows.Record, 0, 2*len(records))
	for _, r := range records {
		in := r
		in.Origin = constants.TotalCode
		out = append(out, in)

		outflow := r
		outflow.Destination = constants.TotalCode
		out = append(out, outflow)
	}
	return flows.Sorted(flows.Group(out, flows.Sum))
}

// LondonRegion re-keys London borough codes to the London region code
// and keeps the records with exactly one end in London. Moves within
// London are already present in region-level flows.
func LondonRegion(records []flows.Record) []flows.Record {
	out := make([]flows.Record, 0, len(records))
	for _, r := range records {
		o, d := isBorough(r.Origin), isBorough(r.Destination)
		if o == d {
			continue
		}
		if o {
			r.Origin = constants.LondonRegionCode
		}
		if d {
			r.Destination = constants.LondonRegionCode
		}
		out = append(out, r)
	}
	return flows.Sorted(flows.Group(out, flows.Sum))
}

func isBorough(code string) bool {
	return strings.HasPrefix(code, constants.LondonBoroughStem)
}

// InnerOuterLondon aggregates records through an inner/outer London
// lookup and keeps flows between the inner and outer London areas.
func InnerOuterLondon(records []flows.Record, l *Lookup) []flows.Record {
	mapped, _ := ToGeography(records, l)
	out := mapped[:0:0]
	for _, r := range mapped {
		if isInnerOuter(r.Origin) && isInnerOuter(r.Destination) {
			out = append(out, r)
		}
	}
	return out
}

func isInnerOuter(code string) bool {
	return code == constants.InnerLondonCode || code == constants.OuterLondonCode
}

// NetFlow is the exchange between an area and one counterpart.
type NetFlow struct {
	Code        string  `parquet:"gss_code" json:"gss_code" yaml:"gss_code"`
	Counterpart string  `parquet:"origin_destination_code" json:"origin_destination_code" yaml:"origin_destination_code"`
	Age         int     `parquet:"age" json:"age" yaml:"age"`
	Year        int     `parquet:"year" json:"year" yaml:"year"`
	Inflow      float64 `parquet:"inflow" json:"inflow" yaml:"inflow"`
	Outflow     float64 `parquet:"outflow" json:"outflow" yaml:"outflow"`
	Net         float64 `parquet:"netflow" json:"netflow" yaml:"netflow"`
}

type netKey struct {
	code, counterpart string
	age, year         int
}

// NetFlows computes, for every area and counterpart, the inflow from the
// counterpart, the outflow to it and their difference. A pair seen in one
// direction only gets zero for the other. Rows for the "total"
// pseudo-area are omitted; rows with "total" as counterpart are kept.
func NetFlows(records []flows.Record) []NetFlow {
	index := make(map[netKey]*NetFlow)
	get := func(k netKey) *NetFlow {
		n, ok := index[k]
		if !ok {
			n = &NetFlow{Code: k.code, Counterpart: k.counterpart, Age: k.age, Year: k.year}
			index[k] = n
		}
		return n
	}
	for _, r := range records {
		if r.Destination != constants.TotalCode {
			get(netKey{r.Destination, r.Origin, r.Age, r.Year}).Inflow += r.Value
		}
		if r.Origin != constants.TotalCode {
			get(netKey{r.Origin, r.Destination, r.Age, r.Year}).Outflow += r.Value
		}
	}

	out := make([]NetFlow, 0, len(index))
	for _, n := range index {
		n.Net = n.Inflow - n.Outflow
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b NetFlow) int {
		return cmp.Or(
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.Counterpart, b.Counterpart),
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Age, b.Age),
		)
	})
	return out
}

// Directions in the order PivotByAge emits them.
var Directions = []string{"inflow", "outflow", "netflow"}

// PivotByAge reshapes net flows to one row per area, counterpart,
// direction and year with one column per age. Missing ages are zero.
func PivotByAge(net []NetFlow) *tabular.Table {
	type rowKey struct {
		code, counterpart string
		year, dir         int
	}

	ageSet := make(map[int]struct{})
	cells := make(map[rowKey]map[int]float64)
	var keys []rowKey
	for _, n := range net {
		ageSet[n.Age] = struct{}{}
		for dir, v := range []float64{n.Inflow, n.Outflow, n.Net} {
			k := rowKey{n.Code, n.Counterpart, n.Year, dir}
			row, ok := cells[k]
			if !ok {
				row = make(map[int]float64)
				cells[k] = row
				keys = append(keys, k)
			}
			row[n.Age] += v
		}
	}

	ages := make([]int, 0, len(ageSet))
	for a := range ageSet {
		ages = append(ages, a)
	}
	slices.Sort(ages)

	slices.SortFunc(keys, func(a, b rowKey) int {
		return cmp.Or(
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.counterpart, b.counterpart),
			cmp.Compare(a.dir, b.dir),
			cmp.Compare(a.year, b.year),
		)
	})

	t := &tabular.Table{Header: []string{"gss_code", "origin_destination_code", "direction", "year"}}
	for _, a := range ages {
		t.Header = append(t.Header, strconv.Itoa(a))
	}
	for _, k := range keys {
		row := []string{k.code, k.counterpart, Directions[k.dir], strconv.Itoa(k.year)}
		for _, a := range ages {
			row = append(row, strconv.FormatFloat(cells[k][a], 'f', -1, 64))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ChildrenFlows builds the combined table of children's flows from local
// authority flows: flows between regions, between inner and outer London,
// to and from the London region, and totals per region.
func ChildrenFlows(lad []flows.Record, regions, innerOuter *Lookup, maxAge int) []flows.Record {
	children := Collapse(FilterMaxAge(lad, maxAge), true)
	region, _ := ToGeography(children, regions)

	all := make([]flows.Record, 0, 2*len(region))
	all = append(all, region...)
	all = append(all, InnerOuterLondon(children, innerOuter)...)
	all = append(all, LondonRegion(children)...)
	all = append(all, Totals(region)...)
	return all
}
