package flows

import (
	"strings"

	"github.com/agentstation/odflow/pkg/errors"
)

// Aggregator combines the values of records that share a key.
type Aggregator func(values []float64) float64

// Sum adds the values. It is the default aggregator.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean averages the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Min returns the smallest value.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		m = min(m, v)
	}
	return m
}

// Max returns the largest value.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		m = max(m, v)
	}
	return m
}

// ParseAggregator resolves an aggregator by name (sum, mean, min, max).
func ParseAggregator(name string) (Aggregator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sum":
		return Sum, nil
	case "mean", "avg":
		return Mean, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	default:
		return nil, errors.NewValidationError("aggregation", name, "unknown aggregation function, want sum, mean, min or max")
	}
}

// Group collapses records sharing a key into one record whose value is
// agg applied to the group's values. Groups keep first-seen order.
// A nil agg means Sum.
func Group(records []Record, agg Aggregator) []Record {
	if agg == nil {
		agg = Sum
	}

	index := make(map[Key]int, len(records))
	keys := make([]Record, 0, len(records))
	values := make([][]float64, 0, len(records))
	for _, r := range records {
		k := r.Key()
		i, ok := index[k]
		if !ok {
			i = len(keys)
			index[k] = i
			keys = append(keys, r)
			values = append(values, nil)
		}
		values[i] = append(values[i], r.Value)
	}

	out := make([]Record, len(keys))
	for i, r := range keys {
		if len(values[i]) == 1 {
			out[i] = r
			continue
		}
		r.Value = agg(values[i])
		out[i] = r
	}
	return out
}

// HasDuplicateKeys reports whether two records share a key.
func HasDuplicateKeys(records []Record) bool {
	seen := make(map[Key]struct{}, len(records))
	for _, r := range records {
		k := r.Key()
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}
