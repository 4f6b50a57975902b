// Package mortality fetches the CDC weekly death counts. The 2014-2019 and
// 2020-2023 tables use different column names; Obtain merges them into one
// list over the columns they share.
package mortality

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/cache"
	"golang.org/x/sync/errgroup"
)

const (
	source   = "cdc-mortality"
	CacheKey = "mortality:merged"

	DateColumn         = "weekendingdate"
	JurisdictionColumn = "jurisdiction_of_occurrence"
)

// renames maps second-table columns onto first-table names
var renames = map[string]string{
	"week_ending_date": "weekendingdate",
	"all_cause":        "allcause",
	"natural_cause":    "naturalcause",
}

// Record is one merged row: float64 for numeric values, string otherwise
type Record map[string]any

// Fetcher issues JSON GET requests
type Fetcher interface {
	GetJSON(ctx context.Context, source, rawURL string, query url.Values, out any) error
}

type Client struct {
	sources  [2]string
	fetcher  Fetcher
	cache    *cache.Cache
	rowLimit int
}

// NewClient takes the 2014-2019 and 2020-2023 table URLs in that order.
// rowLimit is sent as $limit when positive.
func NewClient(sources [2]string, fetcher Fetcher, c *cache.Cache, rowLimit int) *Client {
	return &Client{sources: sources, fetcher: fetcher, cache: c, rowLimit: rowLimit}
}

// ObtainRaw returns one source table as published, index 0 or 1
func (c *Client) ObtainRaw(ctx context.Context, index int) ([]map[string]any, error) {
	if index < 0 || index >= len(c.sources) {
		return nil, apperr.Invalid(source, "no mortality source %d", index)
	}

	var query url.Values
	if c.rowLimit > 0 {
		query = url.Values{"$limit": {strconv.Itoa(c.rowLimit)}}
	}

	var rows []map[string]any
	if err := c.fetcher.GetJSON(ctx, source, c.sources[index], query, &rows); err != nil {
		return nil, fmt.Errorf("fetching mortality source %d: %w", index, err)
	}
	return rows, nil
}

// Obtain returns the merged records, loading both sources concurrently on a
// cache miss
func (c *Client) Obtain(ctx context.Context) ([]Record, error) {
	return cache.Load(ctx, c.cache, CacheKey, c.load)
}

// Name identifies the dataset in refresh bookkeeping
func (c *Client) Name() string {
	return "mortality"
}

// Refresh reloads both sources and replaces the cached merge
func (c *Client) Refresh(ctx context.Context) error {
	_, err := cache.Refresh(ctx, c.cache, CacheKey, c.load)
	return err
}

func (c *Client) load(ctx context.Context) ([]Record, error) {
	var tables [2][]map[string]any

	g, gctx := errgroup.WithContext(ctx)
	for i := range c.sources {
		i := i
		g.Go(func() error {
			rows, err := c.ObtainRaw(gctx, i)
			if err != nil {
				return err
			}
			tables[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(tables[0], Rename(tables[1])), nil
}

// Rename returns rows with the second table's column names mapped onto the
// first table's
func Rename(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		renamed := make(map[string]any, len(row))
		for k, v := range row {
			if to, ok := renames[k]; ok {
				k = to
			}
			renamed[k] = v
		}
		out[i] = renamed
	}
	return out
}

func columns(rows []map[string]any) map[string]bool {
	cols := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			cols[k] = true
		}
	}
	return cols
}

// Columns returns the sorted intersection of the column sets of first and second
func Columns(first, second []map[string]any) []string {
	a, b := columns(first), columns(second)
	common := make([]string, 0, len(a))
	for k := range a {
		if b[k] {
			common = append(common, k)
		}
	}
	sort.Strings(common)
	return common
}

// Merge keeps the common columns of both tables, coerces numeric strings,
// fills absent common columns with 0 and appends second after first.
func Merge(first, second []map[string]any) []Record {
	common := Columns(first, second)

	out := make([]Record, 0, len(first)+len(second))
	for _, table := range [][]map[string]any{first, second} {
		for _, row := range table {
			rec := make(Record, len(common))
			for _, col := range common {
				v, ok := row[col]
				if !ok || v == nil {
					rec[col] = float64(0)
					continue
				}
				rec[col] = coerce(v)
			}
			out = append(out, rec)
		}
	}
	return out
}

func coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if f, ok := numeric(s); ok {
		return f
	}
	return s
}

func numeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// ParseFloat also takes hex and underscores; plain decimal only
	if strings.ContainsAny(s, "xXpP_") {
		return 0, false
	}
	return f, true
}
