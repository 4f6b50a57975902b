// Package metastore is a client for DKAN-style dataset registries: schema and
// item listing plus the dataset/distribution lookups derived from them.
package metastore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/cache"
)

const source = "metastore"

const (
	SchemaDataset      = "dataset"
	SchemaDistribution = "distribution"
)

// Fetcher issues JSON GET requests
type Fetcher interface {
	GetJSON(ctx context.Context, source, rawURL string, query url.Values, out any) error
}

type Client struct {
	baseURL string
	fetcher Fetcher
	cache   *cache.Cache
}

func NewClient(baseURL string, fetcher Fetcher, c *cache.Cache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		cache:   c,
	}
}

// ItemsCacheKey is the cache key of a schema's item list
func ItemsCacheKey(schema string) string {
	return "metastore:" + schema + ":items"
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/metastore/schemas" + prefixed(strings.Join(escaped, "/"))
}

func prefixed(p string) string {
	if p == "" {
		return ""
	}
	return "/" + p
}

// ListSchemas returns the schema names, sorted
func (c *Client) ListSchemas(ctx context.Context) ([]string, error) {
	var schemas map[string]json.RawMessage
	if err := c.fetcher.GetJSON(ctx, source, c.endpoint(), nil, &schemas); err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetSchema returns the JSON schema document of one schema
func (c *Client) GetSchema(ctx context.Context, schema string) (json.RawMessage, error) {
	var doc json.RawMessage
	if err := c.fetcher.GetJSON(ctx, source, c.endpoint(schema), nil, &doc); err != nil {
		return nil, fmt.Errorf("getting schema %s: %w", schema, err)
	}
	return doc, nil
}

func (c *Client) itemsLoader(schema string) func(context.Context) ([]json.RawMessage, error) {
	return func(ctx context.Context) ([]json.RawMessage, error) {
		var items []json.RawMessage
		if err := c.fetcher.GetJSON(ctx, source, c.endpoint(schema, "items"), nil, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
}

// ListItems returns every item of schema. A valid schema without items
// yields an empty, non-nil slice.
func (c *Client) ListItems(ctx context.Context, schema string) ([]json.RawMessage, error) {
	items, err := cache.Load(ctx, c.cache, ItemsCacheKey(schema), c.itemsLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("listing %s items: %w", schema, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// GetItem returns one item of schema by identifier
func (c *Client) GetItem(ctx context.Context, schema, id string) (json.RawMessage, error) {
	var item json.RawMessage
	if err := c.fetcher.GetJSON(ctx, source, c.endpoint(schema, "items", id), nil, &item); err != nil {
		return nil, fmt.Errorf("getting %s item %s: %w", schema, id, err)
	}
	return item, nil
}

func decodeItems[T any](schema string, raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, apperr.E(apperr.KindParse, source, fmt.Errorf("decoding %s item %d: %w", schema, i, err))
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeItem[T any](schema, id string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, apperr.E(apperr.KindParse, source, fmt.Errorf("decoding %s item %s: %w", schema, id, err))
	}
	return v, nil
}

func (c *Client) Datasets(ctx context.Context) ([]Dataset, error) {
	raw, err := c.ListItems(ctx, SchemaDataset)
	if err != nil {
		return nil, err
	}
	return decodeItems[Dataset](SchemaDataset, raw)
}

func (c *Client) GetDataset(ctx context.Context, id string) (Dataset, error) {
	raw, err := c.GetItem(ctx, SchemaDataset, id)
	if err != nil {
		return Dataset{}, err
	}
	return decodeItem[Dataset](SchemaDataset, id, raw)
}

func (c *Client) Distributions(ctx context.Context) ([]Distribution, error) {
	raw, err := c.ListItems(ctx, SchemaDistribution)
	if err != nil {
		return nil, err
	}
	return decodeItems[Distribution](SchemaDistribution, raw)
}

func (c *Client) GetDistribution(ctx context.Context, id string) (Distribution, error) {
	raw, err := c.GetItem(ctx, SchemaDistribution, id)
	if err != nil {
		return Distribution{}, err
	}
	return decodeItem[Distribution](SchemaDistribution, id, raw)
}

// Name identifies the dataset in refresh bookkeeping
func (c *Client) Name() string {
	return source
}

// Refresh reloads the dataset and distribution item lists
func (c *Client) Refresh(ctx context.Context) error {
	for _, schema := range []string{SchemaDataset, SchemaDistribution} {
		if _, err := cache.Refresh(ctx, c.cache, ItemsCacheKey(schema), c.itemsLoader(schema)); err != nil {
			return fmt.Errorf("refreshing %s items: %w", schema, err)
		}
	}
	return nil
}
