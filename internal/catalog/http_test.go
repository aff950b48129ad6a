package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testCatalog struct {
	sheet *fakeSource
	file  *fakeSource
	ts    *httptest.Server
}

func newTestCatalog(t *testing.T) *testCatalog {
	t.Helper()

	tc := &testCatalog{
		sheet: &fakeSource{kind: SourceSheet, rows: [][]string{{"Nome"}, {"Arroz"}, {"arroz "}, {"Feijão"}}},
		file:  &fakeSource{kind: SourceFile, rows: [][]string{{"Picanha"}}},
	}
	fetcher := NewFetcher(zap.NewNop(), nil, tc.sheet, tc.file)

	s := &Server{
		Cache:         NewCache(fetcher, 0, zap.NewNop()),
		Fetcher:       fetcher,
		DefaultSource: SourceSheet,
		Log:           zap.NewNop(),
	}
	h := NewHandler(s, HTTPDeps{
		Log:      zap.NewNop(),
		Service:  "catalog",
		Registry: prometheus.NewRegistry(),
	})

	tc.ts = httptest.NewServer(h)
	t.Cleanup(tc.ts.Close)
	return tc
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type productsBody struct {
	Products []Product `json:"products"`
	Source   string    `json:"source"`
	Stale    bool      `json:"stale"`
}

func TestProducts_DefaultSource(t *testing.T) {
	tc := newTestCatalog(t)

	var body productsBody
	status := getJSON(t, tc.ts.URL+"/products", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "sheet", body.Source)
	assert.Equal(t, []Product{{Name: "Arroz"}, {Name: "Feijao"}}, body.Products)
}

func TestProducts_SelectSource(t *testing.T) {
	tc := newTestCatalog(t)

	var body productsBody
	status := getJSON(t, tc.ts.URL+"/products?source=local", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "file", body.Source)
	assert.Equal(t, []Product{{Name: "Picanha"}}, body.Products)
}

func TestProducts_UnknownSource(t *testing.T) {
	tc := newTestCatalog(t)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, tc.ts.URL+"/products?source=ftp", nil))
}

func TestProducts_EmptySheetIsEmptyList(t *testing.T) {
	tc := newTestCatalog(t)
	tc.sheet.set([][]string{{"Nome"}}, nil)

	var raw map[string]any
	status := getJSON(t, tc.ts.URL+"/products", &raw)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, raw["products"])
}

func TestProducts_FailureShape(t *testing.T) {
	tc := newTestCatalog(t)
	tc.sheet.set(nil, errors.New("dial tcp: i/o timeout"))

	var body map[string]any
	status := getJSON(t, tc.ts.URL+"/products", &body)

	require.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "could not read products from the Google Sheet", body["message"])
	assert.Equal(t, "dial tcp: i/o timeout", body["error"])
}

func TestRefreshProducts_FailureThenRecovery(t *testing.T) {
	tc := newTestCatalog(t)

	require.Equal(t, http.StatusOK, getJSON(t, tc.ts.URL+"/products", nil))

	tc.sheet.set(nil, errors.New("quota"))

	status := getJSON(t, tc.ts.URL+"/refresh-products", nil)
	assert.Equal(t, http.StatusInternalServerError, status)

	var kept productsBody
	require.Equal(t, http.StatusOK, getJSON(t, tc.ts.URL+"/products", &kept))
	assert.Equal(t, []Product{{Name: "Arroz"}, {Name: "Feijao"}}, kept.Products)

	tc.sheet.set([][]string{{"Macarrão"}}, nil)
	var body productsBody
	require.Equal(t, http.StatusOK, getJSON(t, tc.ts.URL+"/refresh-products", &body))
	assert.Equal(t, []Product{{Name: "Macarrao"}}, body.Products)
	assert.False(t, body.Stale)
}

func TestRefreshProducts_BypassesCache(t *testing.T) {
	tc := newTestCatalog(t)

	require.Equal(t, http.StatusOK, getJSON(t, tc.ts.URL+"/products", nil))
	require.Equal(t, http.StatusOK, getJSON(t, tc.ts.URL+"/products", nil))
	assert.Equal(t, 1, tc.sheet.callCount())

	require.Equal(t, http.StatusOK, getJSON(t, tc.ts.URL+"/refresh-products", nil))
	assert.Equal(t, 2, tc.sheet.callCount())
}

func TestReadyz(t *testing.T) {
	tc := newTestCatalog(t)
	assert.Equal(t, http.StatusOK, getJSON(t, tc.ts.URL+"/readyz", nil))
}
