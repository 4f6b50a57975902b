package metastore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/cache"
	"github.com/giygas/govdata-api/fetch"
	"github.com/giygas/govdata-api/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.Discard()
	m.Run()
}

var fixtureDatasets = []Dataset{
	{
		Identifier:  "ds-covid",
		Title:       "COVID-19 Cases",
		Description: "Weekly case counts",
		Keyword:     []string{"covid", "Health"},
		Distribution: []DistributionRef{
			{DownloadURL: "https://example.gov/covid.csv"},
			{DownloadURL: "https://example.gov/covid-archive.csv"},
		},
	},
	{
		Identifier:   "ds-nadac",
		Title:        "NADAC",
		Description:  "National Average Drug Acquisition Cost",
		Keyword:      []string{"drug prices"},
		Distribution: []DistributionRef{{DownloadURL: "https://example.gov/nadac.csv"}},
	},
	{
		Identifier:   "ds-shared",
		Title:        "Shared",
		Distribution: []DistributionRef{{DownloadURL: "https://example.gov/shared.csv"}},
	},
	{
		Identifier: "ds-empty",
		Title:      "No files",
	},
}

var fixtureDistributions = []Distribution{
	{Identifier: "dist-covid", Data: DistributionData{DownloadURL: "https://example.gov/covid.csv"}},
	{Identifier: "dist-nadac", Data: DistributionData{DownloadURL: "https://example.gov/nadac.csv"}},
	{Identifier: "dist-shared-1", Data: DistributionData{DownloadURL: "https://example.gov/shared.csv"}},
	{Identifier: "dist-shared-2", Data: DistributionData{DownloadURL: "https://example.gov/shared.csv"}},
	{Identifier: "dist-orphan", Data: DistributionData{DownloadURL: "https://example.gov/orphan.csv"}},
}

type fakeMetastore struct {
	*httptest.Server
	itemListCalls atomic.Int32
}

func newFakeMetastore(t *testing.T) *fakeMetastore {
	t.Helper()
	f := &fakeMetastore{}

	items := map[string][]any{"empty": {}}
	for _, d := range fixtureDatasets {
		items[SchemaDataset] = append(items[SchemaDataset], d)
	}
	for _, d := range fixtureDistributions {
		items[SchemaDistribution] = append(items[SchemaDistribution], d)
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/1/metastore/schemas"), "/")
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)

		switch {
		case len(parts) == 1 && parts[0] == "":
			_ = enc.Encode(map[string]any{"dataset": map[string]any{}, "distribution": map[string]any{}, "empty": map[string]any{}})
		case len(parts) == 2:
			if _, ok := items[parts[1]]; !ok {
				http.NotFound(w, r)
				return
			}
			_ = enc.Encode(map[string]any{"title": parts[1], "type": "object"})
		case len(parts) == 3 && parts[2] == "items":
			list, ok := items[parts[1]]
			if !ok {
				http.NotFound(w, r)
				return
			}
			f.itemListCalls.Add(1)
			_ = enc.Encode(list)
		case len(parts) == 4 && parts[2] == "items":
			for _, it := range items[parts[1]] {
				raw, _ := json.Marshal(it)
				var probe struct {
					Identifier string `json:"identifier"`
				}
				_ = json.Unmarshal(raw, &probe)
				if probe.Identifier == parts[3] {
					_, _ = w.Write(raw)
					return
				}
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func newTestClient(t *testing.T) (*Client, *fakeMetastore) {
	srv := newFakeMetastore(t)
	return NewClient(srv.URL+"/api/1/", fetch.New(fetch.Options{}), cache.NewMemory()), srv
}

func identifiers(ds []Dataset) []string {
	out := []string{}
	for _, d := range ds {
		out = append(out, d.Identifier)
	}
	return out
}

func TestListSchemas(t *testing.T) {
	c, _ := newTestClient(t)

	names, err := c.ListSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dataset", "distribution", "empty"}, names)
}

func TestGetSchema(t *testing.T) {
	c, _ := newTestClient(t)

	doc, err := c.GetSchema(context.Background(), "dataset")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"dataset","type":"object"}`, string(doc))

	_, err = c.GetSchema(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListItemsEmptySchema(t *testing.T) {
	c, _ := newTestClient(t)

	items, err := c.ListItems(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListItemsIsCached(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	first, err := c.ListItems(ctx, SchemaDataset)
	require.NoError(t, err)
	second, err := c.ListItems(ctx, SchemaDataset)
	require.NoError(t, err)

	assert.Len(t, first, len(fixtureDatasets))
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, int32(1), srv.itemListCalls.Load())
}

func TestListItemsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, fetch.New(fetch.Options{}), cache.NewMemory())

	_, err := c.ListItems(context.Background(), SchemaDataset)
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestGetItemRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	items, err := c.ListItems(ctx, SchemaDistribution)
	require.NoError(t, err)

	for _, raw := range items {
		var listed Distribution
		require.NoError(t, json.Unmarshal(raw, &listed))

		got, err := c.GetDistribution(ctx, listed.Identifier)
		require.NoError(t, err)
		assert.Equal(t, listed.Identifier, got.Identifier)
	}
}

func TestGetItemNotFound(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.GetItem(context.Background(), SchemaDataset, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDatasetsByTitleIsExactMatch(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	got, err := c.DatasetsByTitle(ctx, "covid")
	require.NoError(t, err)
	assert.Empty(t, got, "substring must not match")

	got, err = c.DatasetsByTitle(ctx, "covid-19 cases")
	require.NoError(t, err)
	assert.Equal(t, []string{"ds-covid"}, identifiers(got))
}

func TestDatasetsByKeywordAndDescription(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	got, err := c.DatasetsByKeyword(ctx, "HEALTH")
	require.NoError(t, err)
	assert.Equal(t, []string{"ds-covid"}, identifiers(got))

	got, err = c.DatasetsByDescription(ctx, "national average drug acquisition cost")
	require.NoError(t, err)
	assert.Equal(t, []string{"ds-nadac"}, identifiers(got))
}

func TestAllDatasetURLsUsesFirstDistribution(t *testing.T) {
	c, _ := newTestClient(t)

	urls, err := c.AllDatasetURLs(context.Background())
	require.NoError(t, err)

	want := []string{"https://example.gov/covid.csv", "https://example.gov/nadac.csv", "https://example.gov/shared.csv"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("AllDatasetURLs() mismatch (-want +got):\n%s", diff)
	}
}

func TestDownloadURL(t *testing.T) {
	u, err := DownloadURL(fixtureDatasets[0])
	require.NoError(t, err)
	assert.Equal(t, "https://example.gov/covid.csv", u)

	_, err = DownloadURL(fixtureDatasets[3])
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDatasetDistributionConversionIsInverse(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"ds-covid", "ds-nadac"} {
		distID, err := c.DatasetToDistributionID(ctx, id)
		require.NoError(t, err)

		back, err := c.DistributionToDatasetID(ctx, distID)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	}
}

func TestConversionFailures(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.DatasetToDistributionID(ctx, "ds-shared")
	assert.ErrorIs(t, err, apperr.ErrInvalid, "shared URL is ambiguous")

	_, err = c.DatasetToDistributionID(ctx, "ds-empty")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = c.DistributionToDatasetID(ctx, "dist-orphan")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = c.DatasetToDistributionID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDistributionsByDownloadURL(t *testing.T) {
	c, _ := newTestClient(t)

	got, err := c.DistributionsByDownloadURL(context.Background(), "https://example.gov/shared.csv")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dist-shared-1", got[0].Identifier)
	assert.Equal(t, "dist-shared-2", got[1].Identifier)
}

func TestRefreshReloadsItemLists(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	_, err := c.Datasets(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Refresh(ctx))

	// one initial dataset load, then dataset and distribution refreshes
	assert.Equal(t, int32(3), srv.itemListCalls.Load())
	assert.Equal(t, "metastore", c.Name())
}
