// Package orangebook loads the FDA Orange Book tables (patent, products,
// exclusivity) and the optional Purple Book, and joins them on application
// number.
package orangebook

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/cache"
	"github.com/giygas/govdata-api/logging"
)

const source = "orangebook"

// Table names, also used in cache keys
const (
	TablePatent      = "patent"
	TableProducts    = "products"
	TableExclusivity = "exclusivity"
	TablePurpleBook  = "purple_book"

	typedProducts = "products_typed"
)

// ApplicationField is the join column shared by the Orange Book tables
const ApplicationField = "Appl_No"

// purpleBookFields are the application-number columns tried on Purple Book rows
var purpleBookFields = []string{ApplicationField, "BLA Number", "BLA_Number", "bla_number"}

// Fetcher issues text and JSON GET requests
type Fetcher interface {
	GetText(ctx context.Context, source, rawURL string) (string, error)
	GetJSON(ctx context.Context, source, rawURL string, query url.Values, out any) error
}

// RxcuiResolver maps an NDC to an RxCUI
type RxcuiResolver interface {
	RxcuiFromNDC(ctx context.Context, ndc string) (string, error)
}

// ApplicationResolver maps an RxCUI to an FDA application number
type ApplicationResolver interface {
	ApplicationNumber(ctx context.Context, rxcui string) (string, error)
}

type Client struct {
	sources      Sources
	fetcher      Fetcher
	cache        *cache.Cache
	rxnorm       RxcuiResolver
	applications ApplicationResolver
}

func NewClient(sources Sources, fetcher Fetcher, c *cache.Cache, rx RxcuiResolver, apps ApplicationResolver) *Client {
	return &Client{
		sources:      sources,
		fetcher:      fetcher,
		cache:        c,
		rxnorm:       rx,
		applications: apps,
	}
}

// CacheKey is the cache key of one table
func CacheKey(table string) string {
	return "orangebook:" + table
}

// NormalizeApplicationNumber reduces an application number to its digits
// without leading zeros, so "N021436", "021436" and "21436" compare equal.
// It returns "" when there are no digits.
func NormalizeApplicationNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func (c *Client) textTable(name, rawURL string) func(context.Context) ([]Record, error) {
	return func(ctx context.Context) ([]Record, error) {
		text, err := c.fetcher.GetText(ctx, source, rawURL)
		if err != nil {
			return nil, err
		}
		records := ParseTable(text)
		logging.Debug("Orange Book table parsed", "table", name, "rows", len(records))
		return records, nil
	}
}

func (c *Client) purpleBook(ctx context.Context) ([]Record, error) {
	var rows []map[string]any
	if err := c.fetcher.GetJSON(ctx, source, c.sources.PurpleBook, nil, &rows); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(row))
		for k, v := range row {
			switch v := v.(type) {
			case nil:
				rec[k] = ""
			case float64:
				// fmt would switch to exponent form from 1e6 up
				rec[k] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				rec[k] = fmt.Sprint(v)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

type tableSpec struct {
	name   string
	target *[]Record
	load   func(context.Context) ([]Record, error)
}

func (c *Client) specs(t *Tables) []tableSpec {
	specs := []tableSpec{
		{TablePatent, &t.Patent, c.textTable(TablePatent, c.sources.Patent)},
		{TableProducts, &t.Products, c.textTable(TableProducts, c.sources.Products)},
		{TableExclusivity, &t.Exclusivity, c.textTable(TableExclusivity, c.sources.Exclusivity)},
	}
	if c.sources.PurpleBook != "" {
		specs = append(specs, tableSpec{TablePurpleBook, &t.PurpleBook, c.purpleBook})
	}
	return specs
}

// Obtain returns every table, loading missing ones one after another
func (c *Client) Obtain(ctx context.Context) (Tables, error) {
	t := Tables{PurpleBook: []Record{}}
	for _, s := range c.specs(&t) {
		rows, err := cache.Load(ctx, c.cache, CacheKey(s.name), s.load)
		if err != nil {
			return Tables{}, fmt.Errorf("loading %s table: %w", s.name, err)
		}
		*s.target = rows
	}
	return t, nil
}

// Name identifies the dataset in refresh bookkeeping
func (c *Client) Name() string {
	return source
}

// Refresh reloads every table and replaces the cached copies.
// products.txt is downloaded once and feeds both the raw and the typed table.
func (c *Client) Refresh(ctx context.Context) error {
	var (
		t            Tables
		productsText string
	)
	for _, s := range c.specs(&t) {
		load := s.load
		if s.name == TableProducts {
			load = func(ctx context.Context) ([]Record, error) {
				text, err := c.fetcher.GetText(ctx, source, c.sources.Products)
				if err != nil {
					return nil, err
				}
				productsText = text
				return ParseTable(text), nil
			}
		}
		if _, err := cache.Refresh(ctx, c.cache, CacheKey(s.name), load); err != nil {
			return fmt.Errorf("refreshing %s table: %w", s.name, err)
		}
	}

	loadTyped := c.loadProducts
	if productsText != "" {
		loadTyped = func(context.Context) ([]Product, error) {
			return DecodeTable[Product](productsText)
		}
	}
	if _, err := cache.Refresh(ctx, c.cache, CacheKey(typedProducts), loadTyped); err != nil {
		return fmt.Errorf("refreshing typed products: %w", err)
	}
	return nil
}

func match(records []Record, fields []string, canonical string) []Record {
	out := []Record{}
	for _, r := range records {
		for _, f := range fields {
			if v, ok := r[f]; ok && NormalizeApplicationNumber(v) == canonical {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// ByApplicationNumber returns every row for number across all tables
func (c *Client) ByApplicationNumber(ctx context.Context, number string) (Bundle, error) {
	canonical := NormalizeApplicationNumber(number)
	if canonical == "" {
		return Bundle{}, apperr.Invalid(source, "application number %q has no digits", number)
	}

	t, err := c.Obtain(ctx)
	if err != nil {
		return Bundle{}, err
	}

	join := []string{ApplicationField}
	return Bundle{
		ApplicationNumber: canonical,
		Patent:            match(t.Patent, join, canonical),
		Products:          match(t.Products, join, canonical),
		Exclusivity:       match(t.Exclusivity, join, canonical),
		PurpleBook:        match(t.PurpleBook, purpleBookFields, canonical),
	}, nil
}

// ByNDC resolves ndc to an application number through RxNorm and openFDA,
// then behaves like ByApplicationNumber
func (c *Client) ByNDC(ctx context.Context, ndc string) (Bundle, error) {
	if c.rxnorm == nil || c.applications == nil {
		return Bundle{}, fmt.Errorf("orangebook: NDC lookup is not configured")
	}

	rxcui, err := c.rxnorm.RxcuiFromNDC(ctx, ndc)
	if err != nil {
		return Bundle{}, err
	}
	number, err := c.applications.ApplicationNumber(ctx, rxcui)
	if err != nil {
		return Bundle{}, err
	}
	logging.Debug("NDC resolved", "ndc", ndc, "rxcui", rxcui, "application_number", number)

	if NormalizeApplicationNumber(number) == "" {
		return Bundle{}, apperr.NotFound(source, "application number %q for NDC %s has no digits", number, ndc)
	}
	return c.ByApplicationNumber(ctx, number)
}

func (c *Client) loadProducts(ctx context.Context) ([]Product, error) {
	text, err := c.fetcher.GetText(ctx, source, c.sources.Products)
	if err != nil {
		return nil, err
	}
	return DecodeTable[Product](text)
}

// Products returns products.txt decoded with the tolerant parser
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	return cache.Load(ctx, c.cache, CacheKey(typedProducts), c.loadProducts)
}

// ProductsByIngredient matches the ingredient case-insensitively and exactly
func (c *Client) ProductsByIngredient(ctx context.Context, ingredient string) ([]Product, error) {
	if strings.TrimSpace(ingredient) == "" {
		return nil, apperr.Invalid(source, "ingredient is required")
	}
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	out := []Product{}
	for _, p := range products {
		if strings.ToUpper(p.Ingredient) == strings.ToUpper(strings.TrimSpace(ingredient)) {
			out = append(out, p)
		}
	}
	return out, nil
}
