// Package openfda looks up drug context on the openFDA NDC directory.
package openfda

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/giygas/govdata-api/apperr"
)

const source = "openfda"

// Fetcher issues JSON GET requests
type Fetcher interface {
	GetJSON(ctx context.Context, source, rawURL string, query url.Values, out any) error
}

type Client struct {
	baseURL string
	fetcher Fetcher
}

func NewClient(baseURL string, fetcher Fetcher) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// DrugContext is the subset of an NDC directory entry used for joins
type DrugContext struct {
	ApplicationNumber string `json:"application_number"`
	BrandName         string `json:"brand_name"`
	GenericName       string `json:"generic_name"`
	ProductNDC        string `json:"product_ndc"`
}

type ndcResponse struct {
	Results []DrugContext `json:"results"`
}

// DrugContext returns the first NDC directory entry tagged with rxcui
func (c *Client) DrugContext(ctx context.Context, rxcui string) (DrugContext, error) {
	query := url.Values{
		"search": {fmt.Sprintf(`openfda.rxcui:"%s"`, rxcui)},
		"limit":  {"1"},
	}

	var resp ndcResponse
	if err := c.fetcher.GetJSON(ctx, source, c.baseURL+"/drug/ndc.json", query, &resp); err != nil {
		return DrugContext{}, fmt.Errorf("looking up drug context for rxcui %s: %w", rxcui, err)
	}
	if len(resp.Results) == 0 {
		return DrugContext{}, apperr.NotFound(source, "no NDC entry for rxcui %s", rxcui)
	}
	return resp.Results[0], nil
}

// ApplicationNumber returns the FDA application number for rxcui, as
// published (for example NDA021436)
func (c *Client) ApplicationNumber(ctx context.Context, rxcui string) (string, error) {
	dc, err := c.DrugContext(ctx, rxcui)
	if err != nil {
		return "", err
	}
	if dc.ApplicationNumber == "" {
		return "", apperr.NotFound(source, "rxcui %s has no application number", rxcui)
	}
	return dc.ApplicationNumber, nil
}
