package metastore

import (
	"context"
	"strings"

	"github.com/giygas/govdata-api/apperr"
)

// DownloadURL is the dataset's canonical download URL: the first
// distribution's. Later distributions are ignored.
func DownloadURL(d Dataset) (string, error) {
	if len(d.Distribution) == 0 || d.Distribution[0].DownloadURL == "" {
		return "", apperr.NotFound(source, "dataset %s has no distribution", d.Identifier)
	}
	return d.Distribution[0].DownloadURL, nil
}

// sameText is the case-insensitive exact comparison used by dataset search
func sameText(a, b string) bool {
	return strings.ToUpper(a) == strings.ToUpper(b)
}

func (c *Client) filterDatasets(ctx context.Context, keep func(Dataset) bool) ([]Dataset, error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	out := []Dataset{}
	for _, d := range datasets {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// AllDatasetURLs returns the canonical download URL of every dataset that has one
func (c *Client) AllDatasetURLs(ctx context.Context) ([]string, error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(datasets))
	for _, d := range datasets {
		if u, err := DownloadURL(d); err == nil {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func (c *Client) DatasetsByTitle(ctx context.Context, title string) ([]Dataset, error) {
	return c.filterDatasets(ctx, func(d Dataset) bool {
		return sameText(d.Title, title)
	})
}

func (c *Client) DatasetsByKeyword(ctx context.Context, keyword string) ([]Dataset, error) {
	return c.filterDatasets(ctx, func(d Dataset) bool {
		for _, k := range d.Keyword {
			if sameText(k, keyword) {
				return true
			}
		}
		return false
	})
}

func (c *Client) DatasetsByDescription(ctx context.Context, description string) ([]Dataset, error) {
	return c.filterDatasets(ctx, func(d Dataset) bool {
		return sameText(d.Description, description)
	})
}

// DatasetsByDownloadURL matches on exact URL equality
func (c *Client) DatasetsByDownloadURL(ctx context.Context, downloadURL string) ([]Dataset, error) {
	return c.filterDatasets(ctx, func(d Dataset) bool {
		u, err := DownloadURL(d)
		return err == nil && u == downloadURL
	})
}

// DistributionsByDownloadURL matches on exact URL equality
func (c *Client) DistributionsByDownloadURL(ctx context.Context, downloadURL string) ([]Distribution, error) {
	distributions, err := c.Distributions(ctx)
	if err != nil {
		return nil, err
	}
	out := []Distribution{}
	for _, d := range distributions {
		if d.Data.DownloadURL == downloadURL {
			out = append(out, d)
		}
	}
	return out, nil
}

// DatasetToDistributionID finds the distribution sharing the dataset's
// download URL. It fails with NotFound on no match and Invalid when the URL
// is shared by several distributions.
func (c *Client) DatasetToDistributionID(ctx context.Context, datasetID string) (string, error) {
	const op = "dataset to distribution"

	dataset, err := c.GetDataset(ctx, datasetID)
	if err != nil {
		return "", err
	}
	u, err := DownloadURL(dataset)
	if err != nil {
		return "", err
	}
	matches, err := c.DistributionsByDownloadURL(ctx, u)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", apperr.NotFound(op, "no distribution has download URL %s", u)
	case 1:
		return matches[0].Identifier, nil
	default:
		return "", apperr.Invalid(op, "download URL %s is ambiguous: %d distributions", u, len(matches))
	}
}

// DistributionToDatasetID is the inverse of DatasetToDistributionID
func (c *Client) DistributionToDatasetID(ctx context.Context, distributionID string) (string, error) {
	const op = "distribution to dataset"

	distribution, err := c.GetDistribution(ctx, distributionID)
	if err != nil {
		return "", err
	}
	u := distribution.Data.DownloadURL
	if u == "" {
		return "", apperr.NotFound(op, "distribution %s has no download URL", distributionID)
	}
	matches, err := c.DatasetsByDownloadURL(ctx, u)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", apperr.NotFound(op, "no dataset has download URL %s", u)
	case 1:
		return matches[0].Identifier, nil
	default:
		return "", apperr.Invalid(op, "download URL %s is ambiguous: %d datasets", u, len(matches))
	}
}
