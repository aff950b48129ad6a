package flyer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogClient_ProductNames(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"name":"Arroz"},{"name":"Feijao"}],"source":"sheet","stale":false}`))
	}))
	t.Cleanup(ts.Close)

	names, err := NewCatalogClient(ts.URL + "/").ProductNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Arroz", "Feijao"}, names)
}

func TestCatalogClient_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"could not read products"}`))
	}))
	t.Cleanup(ts.Close)

	_, err := NewCatalogClient(ts.URL).ProductNames(context.Background())
	assert.ErrorIs(t, err, ErrCatalogBadStatus)

	_, err = NewCatalogClient("http://127.0.0.1:1").ProductNames(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}
