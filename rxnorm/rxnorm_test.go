package rxnorm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/fetch"
	"github.com/giygas/govdata-api/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.Discard()
	m.Run()
}

func TestRxcuiFromNDC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/REST/rxcui.json", r.URL.Path)
		assert.Equal(t, "NDC", r.URL.Query().Get("idtype"))
		switch r.URL.Query().Get("id") {
		case "59148-006-13":
			_, _ = w.Write([]byte(`{"idGroup":{"idType":"NDC","id":"59148-006-13","rxnormId":["349545"]}}`))
		default:
			_, _ = w.Write([]byte(`{"idGroup":{"idType":"NDC","id":"0"}}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/REST/", fetch.New(fetch.Options{}))

	rxcui, err := c.RxcuiFromNDC(context.Background(), "59148-006-13")
	require.NoError(t, err)
	assert.Equal(t, "349545", rxcui)

	_, err = c.RxcuiFromNDC(context.Background(), "0000-000-00")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRxcuiFromNDCUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, fetch.New(fetch.Options{})).RxcuiFromNDC(context.Background(), "59148-006-13")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}
