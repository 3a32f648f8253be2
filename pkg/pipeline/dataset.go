package pipeline

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/odflow/pkg/aggregate"
	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/errors"
	"github.com/agentstation/odflow/pkg/flows"
	"github.com/agentstation/odflow/pkg/storage"
	"github.com/agentstation/odflow/pkg/tabular"
)

// readFlows loads a Parquet flow file. A .zip key is unpacked first.
func readFlows(ctx context.Context, store storage.Store, key string) (flows.Series, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return flows.Series{}, err
	}
	name := key
	if strings.HasSuffix(strings.ToLower(key), ".zip") {
		member, content, err := tabular.FirstMember(data, key)
		if err != nil {
			return flows.Series{}, err
		}
		name, data = key+"!"+member, content
	}
	return tabular.ReadFlows(data, name)
}

// writeParquet encodes rows and stores them under key.
func writeParquet[T any](ctx context.Context, store storage.Store, key string, rows []T) error {
	var buf bytes.Buffer
	if err := tabular.WriteParquet(&buf, rows); err != nil {
		return err
	}
	return store.Put(ctx, key, &buf)
}

// writeCSV stores a table as CSV under key.
func writeCSV(ctx context.Context, store storage.Store, key string, t *tabular.Table) error {
	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, t); err != nil {
		return err
	}
	return store.Put(ctx, key, &buf)
}

// writePartitioned writes one Parquet file per year under prefix and
// returns the keys written in year order.
func writePartitioned(ctx context.Context, store storage.Store, prefix string, partitions map[int][]flows.Record) ([]string, error) {
	years := make([]int, 0, len(partitions))
	for y := range partitions {
		years = append(years, y)
	}
	slices.Sort(years)

	keys := make([]string, len(years))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxConcurrentDownloads)
	for i, year := range years {
		keys[i] = tabular.PartitionKey(prefix, year)
		g.Go(func() error {
			return writeParquet(ctx, store, keys[i], partitions[year])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// readPartitioned loads every year partition under prefix. Records read
// without a year take the partition's year.
func readPartitioned(ctx context.Context, store storage.Store, prefix string) ([]flows.Record, []int, error) {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return nil, nil, err
	}
	type part struct {
		key  string
		year int
	}
	var parts []part
	for _, k := range keys {
		if year, ok := tabular.PartitionYear(k); ok {
			parts = append(parts, part{k, year})
		}
	}
	if len(parts) == 0 {
		return nil, nil, &errors.EmptyInputError{Input: store.URI(prefix)}
	}

	loaded := make([][]flows.Record, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxConcurrentDownloads)
	for i, p := range parts {
		g.Go(func() error {
			series, err := readFlows(gctx, store, p.key)
			if err != nil {
				return err
			}
			for j := range series.Records {
				if series.Records[j].Year == 0 {
					series.Records[j].Year = p.year
				}
			}
			loaded[i] = series.Records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var records []flows.Record
	for _, l := range loaded {
		records = append(records, l...)
	}
	return records, flows.Years(records), nil
}

// loadLookup reads a geography lookup from the store.
func loadLookup(ctx context.Context, store storage.Store, l Lookup) (*aggregate.Lookup, error) {
	data, err := store.Get(ctx, l.Key)
	if err != nil {
		return nil, errors.WrapResource("load", "lookup", l.Key, err)
	}
	return aggregate.LoadLookup(bytes.NewReader(data), l.Key, l.KeyColumn, l.ValueColumn)
}
