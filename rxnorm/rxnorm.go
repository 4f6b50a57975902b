// Package rxnorm resolves National Drug Codes to RxNorm concept identifiers
// through the RxNav REST API.
package rxnorm

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/giygas/govdata-api/apperr"
)

const source = "rxnorm"

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

type idGroupResponse struct {
	IDGroup struct {
		IDType   string   `json:"idType"`
		ID       string   `json:"id"`
		RxnormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

// RxcuiFromNDC returns the first RxCUI RxNav reports for ndc
func (c *Client) RxcuiFromNDC(ctx context.Context, ndc string) (string, error) {
	query := url.Values{
		"idtype": {"NDC"},
		"id":     {ndc},
	}

	var resp idGroupResponse
	if err := c.fetcher.GetJSON(ctx, source, c.baseURL+"/rxcui.json", query, &resp); err != nil {
		return "", fmt.Errorf("looking up rxcui for NDC %s: %w", ndc, err)
	}
	for _, id := range resp.IDGroup.RxnormID {
		if id != "" {
			return id, nil
		}
	}
	return "", apperr.NotFound(source, "no rxcui for NDC %s", ndc)
}
