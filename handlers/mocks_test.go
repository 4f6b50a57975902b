package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/metastore"
	"github.com/giygas/govdata-api/mortality"
	"github.com/giygas/govdata-api/orangebook"
)

// mockMetastore answers every lookup from fixed fields and remembers the last argument
type mockMetastore struct {
	schemas       []string
	items         []json.RawMessage
	datasets      []metastore.Dataset
	distributions []metastore.Distribution
	convertedID   string
	err           error

	lastArg string
	lastBy  string
}

func (m *mockMetastore) ListSchemas(ctx context.Context) ([]string, error) {
	return m.schemas, m.err
}

func (m *mockMetastore) GetSchema(ctx context.Context, schema string) (json.RawMessage, error) {
	m.lastArg = schema
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(`{"type":"object"}`), nil
}

func (m *mockMetastore) ListItems(ctx context.Context, schema string) ([]json.RawMessage, error) {
	m.lastArg = schema
	return m.items, m.err
}

func (m *mockMetastore) GetItem(ctx context.Context, schema, id string) (json.RawMessage, error) {
	m.lastArg = schema + "/" + id
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(`{"identifier":"` + id + `"}`), nil
}

func (m *mockMetastore) AllDatasetURLs(ctx context.Context) ([]string, error) {
	return []string{"https://example.gov/a.csv"}, m.err
}

func (m *mockMetastore) search(by, value string) ([]metastore.Dataset, error) {
	m.lastBy, m.lastArg = by, value
	return m.datasets, m.err
}

func (m *mockMetastore) DatasetsByTitle(ctx context.Context, title string) ([]metastore.Dataset, error) {
	return m.search("title", title)
}

func (m *mockMetastore) DatasetsByKeyword(ctx context.Context, keyword string) ([]metastore.Dataset, error) {
	return m.search("keyword", keyword)
}

func (m *mockMetastore) DatasetsByDescription(ctx context.Context, description string) ([]metastore.Dataset, error) {
	return m.search("description", description)
}

func (m *mockMetastore) DatasetsByDownloadURL(ctx context.Context, downloadURL string) ([]metastore.Dataset, error) {
	return m.search("url", downloadURL)
}

func (m *mockMetastore) DistributionsByDownloadURL(ctx context.Context, downloadURL string) ([]metastore.Distribution, error) {
	m.lastArg = downloadURL
	return m.distributions, m.err
}

func (m *mockMetastore) DatasetToDistributionID(ctx context.Context, datasetID string) (string, error) {
	m.lastArg = datasetID
	return m.convertedID, m.err
}

func (m *mockMetastore) DistributionToDatasetID(ctx context.Context, distributionID string) (string, error) {
	m.lastArg = distributionID
	return m.convertedID, m.err
}

type mockMortality struct {
	records []mortality.Record
	err     error
}

func (m *mockMortality) Obtain(ctx context.Context) ([]mortality.Record, error) {
	return m.records, m.err
}

type mockOrangeBook struct {
	products []orangebook.Product
	err      error
	lastArg  string
}

func (m *mockOrangeBook) ByApplicationNumber(ctx context.Context, number string) (orangebook.Bundle, error) {
	m.lastArg = number
	if m.err != nil {
		return orangebook.Bundle{}, m.err
	}
	return orangebook.Bundle{
		ApplicationNumber: number,
		Patent:            []orangebook.Record{{"Appl_No": "021436", "Patent_No": "7056942"}},
		Products:          []orangebook.Record{},
		Exclusivity:       []orangebook.Record{},
		PurpleBook:        []orangebook.Record{},
	}, nil
}

func (m *mockOrangeBook) ByNDC(ctx context.Context, ndc string) (orangebook.Bundle, error) {
	m.lastArg = ndc
	if m.err != nil {
		return orangebook.Bundle{}, m.err
	}
	return orangebook.Bundle{ApplicationNumber: "21436"}, nil
}

func (m *mockOrangeBook) ProductsByIngredient(ctx context.Context, ingredient string) ([]orangebook.Product, error) {
	m.lastArg = ingredient
	return m.products, m.err
}

type mockHealth struct {
	status  string
	code    int
	details map[string]any
}

func (m *mockHealth) HealthCheck(ctx context.Context) (string, map[string]any, int) {
	return m.status, m.details, m.code
}

func (m *mockHealth) CalculateNextUpdate() time.Time {
	return time.Time{}
}

type mockStore struct {
	start time.Time
}

func (m *mockStore) RecordRefresh(string, time.Time) {}
func (m *mockStore) RecordFailure(string, error)     {}
func (m *mockStore) GetLastRefresh(string) time.Time { return time.Time{} }
func (m *mockStore) GetLastUpdated() time.Time       { return time.Time{} }
func (m *mockStore) IsUpdating() bool                { return false }
func (m *mockStore) GetServerStartTime() time.Time   { return m.start }
func (m *mockStore) BeginUpdate() bool               { return true }
func (m *mockStore) EndUpdate()                      {}

var (
	errNotFound = apperr.NotFound("test", "no such thing")
	errNetwork  = apperr.E(apperr.KindNetwork, "test", http.ErrHandlerTimeout)
	errParse    = apperr.E(apperr.KindParse, "test", nil)
	errInvalid  = apperr.Invalid("test", "2 distributions")
)
