package mortality

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

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

const olderTable = `[
 {"jurisdiction_of_occurrence":"Ohio","mmwryear":"2019","mmwrweek":"1","weekendingdate":"2019-01-05T00:00:00.000","allcause":"2600","naturalcause":"2400","septicemia_a40_a41":"40","flag_allcause":"x"},
 {"jurisdiction_of_occurrence":"Texas","mmwryear":"2019","mmwrweek":"1","weekendingdate":"2019-01-05T00:00:00.000","allcause":"4100","naturalcause":"3800"}
]`

const newerTable = `[
 {"jurisdiction_of_occurrence":"Ohio","mmwryear":"2020","mmwrweek":"1","week_ending_date":"2020-01-04T00:00:00.000","all_cause":"2700","natural_cause":"2500","septicemia_a40_a41":"45","covid_19_u071_multiple_cause_of_death":"0"}
]`

func newFakeCDC(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/resource/3yf8-kanr.json":
			_, _ = w.Write([]byte(olderTable))
		case "/resource/muzy-jte6.json":
			_, _ = w.Write([]byte(newerTable))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, calls *atomic.Int32) *Client {
	srv := newFakeCDC(t, calls)
	return NewClient(
		[2]string{srv.URL + "/resource/3yf8-kanr.json", srv.URL + "/resource/muzy-jte6.json"},
		fetch.New(fetch.Options{}),
		cache.NewMemory(),
		0,
	)
}

func TestObtainMergesTables(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)

	records, err := c.Obtain(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	want := []string{"allcause", "jurisdiction_of_occurrence", "mmwrweek", "mmwryear", "naturalcause", "septicemia_a40_a41", "weekendingdate"}
	for _, r := range records {
		var got []string
		for k := range r {
			got = append(got, k)
		}
		assert.ElementsMatch(t, want, got)
	}

	// first table first, values coerced, absent columns filled with zero
	assert.Equal(t, "Ohio", records[0]["jurisdiction_of_occurrence"])
	assert.Equal(t, float64(2600), records[0]["allcause"])
	assert.Equal(t, float64(0), records[1]["septicemia_a40_a41"])
	assert.Equal(t, float64(2700), records[2]["allcause"])
	assert.Equal(t, "2020-01-04T00:00:00.000", records[2]["weekendingdate"])
}

func TestObtainIsCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)
	ctx := context.Background()

	_, err := c.Obtain(ctx)
	require.NoError(t, err)
	_, err = c.Obtain(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "one request per source")

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, int32(4), calls.Load())
}

func TestObtainFailsWhenOneSourceFails(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeCDC(t, &calls)
	c := NewClient([2]string{srv.URL + "/resource/3yf8-kanr.json", srv.URL + "/missing.json"}, fetch.New(fetch.Options{}), cache.NewMemory(), 0)

	_, err := c.Obtain(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestObtainRawSendsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50000", r.URL.Query().Get("$limit"))
		_, _ = w.Write([]byte(`[{"week_ending_date":"2020-01-04"}]`))
	}))
	defer srv.Close()
	c := NewClient([2]string{srv.URL, srv.URL}, fetch.New(fetch.Options{}), cache.NewMemory(), 50000)

	rows, err := c.ObtainRaw(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2020-01-04", rows[0]["week_ending_date"], "raw rows keep source names")

	_, err = c.ObtainRaw(context.Background(), 2)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestMergeCoercion(t *testing.T) {
	first := []map[string]any{{"a": "1.5", "b": "text", "c": " 7 ", "d": "NaN", "e": "0x10"}}
	second := []map[string]any{{"a": 2.0, "b": nil, "c": "8", "d": "1", "e": "1"}}

	got := Merge(first, second)
	want := []Record{
		{"a": 1.5, "b": "text", "c": float64(7), "d": "NaN", "e": "0x10"},
		{"a": 2.0, "b": float64(0), "c": float64(8), "d": float64(1), "e": float64(1)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeEmptySecondTableKeepsNoColumns(t *testing.T) {
	got := Merge([]map[string]any{{"a": "1"}}, nil)
	require.Len(t, got, 1)
	assert.Empty(t, got[0])
}

func TestRename(t *testing.T) {
	got := Rename([]map[string]any{{"week_ending_date": "d", "all_cause": "1", "natural_cause": "2", "other": "3"}})
	assert.Equal(t, map[string]any{"weekendingdate": "d", "allcause": "1", "naturalcause": "2", "other": "3"}, got[0])
}

func sample() []Record {
	return []Record{
		{"jurisdiction_of_occurrence": "Ohio", "weekendingdate": "2020-01-11T00:00:00.000", "allcause": 2800.0, "mmwrweek": 2.0},
		{"jurisdiction_of_occurrence": "Ohio", "weekendingdate": "2020-01-04T00:00:00.000", "allcause": 2700.0, "mmwrweek": 1.0},
		{"jurisdiction_of_occurrence": "Texas", "weekendingdate": "2020-01-04T00:00:00.000", "allcause": 4100.0, "mmwrweek": 1.0},
		{"jurisdiction_of_occurrence": "Ohio", "weekendingdate": "2019-01-05T00:00:00.000", "allcause": 2600.0, "mmwrweek": 1.0},
	}
}

func TestFilter(t *testing.T) {
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 1, 11, 0, 0, 0, 0, time.UTC)

	got := Filter(sample(), Query{From: from, To: to, Jurisdiction: "ohio"})
	require.Len(t, got, 2)
	assert.Equal(t, 2800.0, got[0]["allcause"])
	assert.Equal(t, 2700.0, got[1]["allcause"])

	assert.Len(t, Filter(sample(), Query{}), 4)
	assert.Empty(t, Filter(sample(), Query{Jurisdiction: "Utah"}))
}

func TestSeriesIsOrderedByDate(t *testing.T) {
	s, err := Series(Filter(sample(), Query{Jurisdiction: "Ohio"}), "allcause")
	require.NoError(t, err)

	assert.Equal(t, []string{"2019-01-05", "2020-01-04", "2020-01-11"}, s.X)
	assert.Equal(t, []float64{2600, 2700, 2800}, s.Y)

	_, err = Series(sample(), "no_such_cause")
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestCauses(t *testing.T) {
	assert.Equal(t, []string{"allcause"}, Causes(sample()))
	assert.Empty(t, Causes(nil))
}

func TestChart(t *testing.T) {
	fig, err := Chart(sample(), Query{Jurisdiction: "Texas"}, []string{"allcause"}, nil)
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []float64{4100}, fig.Data[0].Y)
	assert.Equal(t, "Weekly deaths, Texas", fig.Layout.Title.Text)

	_, err = Chart(sample(), Query{}, nil, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}
