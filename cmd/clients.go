package cmd

import (
	"context"
	"fmt"

	"github.com/giygas/govdata-api/cache"
	"github.com/giygas/govdata-api/config"
	"github.com/giygas/govdata-api/fetch"
	"github.com/giygas/govdata-api/metastore"
	"github.com/giygas/govdata-api/mortality"
	"github.com/giygas/govdata-api/openfda"
	"github.com/giygas/govdata-api/orangebook"
	"github.com/giygas/govdata-api/rxnorm"
)

// clients bundles every upstream client over one fetcher and one cache
type clients struct {
	cache      *cache.Cache
	metastore  *metastore.Client
	mortality  *mortality.Client
	orangebook *orangebook.Client
}

func openCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	store, err := cache.Open(ctx, cfg.CacheDriver, cfg.CachePath, cfg.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return cache.New(store, cfg.CacheTTL), nil
}

func buildClients(ctx context.Context, cfg *config.Config) (*clients, error) {
	c, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	up := cfg.Upstream
	fetcher := fetch.New(fetch.Options{
		UserAgent:         up.UserAgent,
		Timeout:           up.Timeout,
		RequestsPerSecond: up.RequestsPerSecond,
	})

	rx := rxnorm.NewClient(up.RxNormURL, fetcher)
	fda := openfda.NewClient(up.OpenFDAURL, fetcher)

	return &clients{
		cache:     c,
		metastore: metastore.NewClient(up.MetastoreURL, fetcher, c),
		mortality: mortality.NewClient(up.MortalityURLs, fetcher, c, up.MortalityRowLimit),
		orangebook: orangebook.NewClient(orangebook.Sources{
			Patent:      up.PatentURL,
			Products:    up.ProductsURL,
			Exclusivity: up.ExclusivityURL,
			PurpleBook:  up.PurpleBookURL,
		}, fetcher, c, rx, fda),
	}, nil
}

func (c *clients) Close() error {
	return c.cache.Close()
}
