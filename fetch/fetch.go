// Package fetch is the outbound HTTP helper shared by every upstream client.
// It paces requests, normalises text encodings and maps failures onto apperr
// kinds.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/logging"
	"github.com/giygas/govdata-api/metrics"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "govdata-api/1.0"

// Options configure a Client
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

// Client issues paced GET requests
type Client struct {
	rest    *resty.Client
	limiter *rate.Limiter
}

// New creates a Client. A non-positive rate disables pacing.
func New(opts Options) *Client {
	rest := resty.New()
	if opts.HTTPClient != nil {
		rest = resty.NewWithClient(opts.HTTPClient)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	rest.SetTimeout(timeout).SetHeader("User-Agent", userAgent)

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		rest:    rest,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// GetJSON fetches rawURL with query and decodes the body into out.
// source names the upstream for metrics and logs.
func (c *Client) GetJSON(ctx context.Context, source, rawURL string, query url.Values, out any) error {
	body, err := c.get(ctx, source, rawURL, query, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.E(apperr.KindParse, source, fmt.Errorf("failed to decode %s: %w", rawURL, err))
	}
	return nil
}

// GetText fetches rawURL and returns the body as UTF-8 text.
// Bodies that are not valid UTF-8 are decoded as ISO-8859-1.
func (c *Client) GetText(ctx context.Context, source, rawURL string) (string, error) {
	body, err := c.get(ctx, source, rawURL, nil, "text/plain")
	if err != nil {
		return "", err
	}
	return string(ToUTF8(body)), nil
}

// ToUTF8 returns b unchanged when it is valid UTF-8, otherwise decodes it from ISO-8859-1
func ToUTF8(b []byte) []byte {
	if utf8.Valid(b) {
		return b
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO-8859-1 maps every byte, so this is unreachable in practice
		return bytes.ToValidUTF8(b, []byte("�"))
	}
	return decoded
}

func (c *Client) get(ctx context.Context, source, rawURL string, query url.Values, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.E(apperr.KindNetwork, source, fmt.Errorf("request to %s not sent: %w", rawURL, err))
	}

	start := time.Now()
	req := c.rest.R().SetContext(ctx).SetHeader("Accept", accept)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(rawURL)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveUpstream(source, 0, elapsed)
		logging.Warn("Upstream request failed", "source", source, "url", rawURL, "error", err)
		return nil, apperr.E(apperr.KindNetwork, source, fmt.Errorf("failed to fetch %s: %w", rawURL, err))
	}

	status := resp.StatusCode()
	metrics.ObserveUpstream(source, status, elapsed)
	logging.Debug("Upstream request", "source", source, "url", rawURL, "status", status, "duration_ms", elapsed.Milliseconds())

	switch {
	case status == http.StatusNotFound:
		return nil, apperr.NotFound(source, "%s returned 404", rawURL)
	case status < 200 || status >= 300:
		return nil, apperr.E(apperr.KindNetwork, source, fmt.Errorf("%s returned status %d", rawURL, status))
	}
	return resp.Body(), nil
}
