package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "produtos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestWorkbookSource_FirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Produtos", [][]any{
		{"Nome", "Categoria"},
		{"Alcatra", "Açougue"},
		{" alcatra", "Açougue"},
		{"Banana Prata", "Hortifruti"},
	})

	src, err := NewWorkbookSource(path, "")
	require.NoError(t, err)
	assert.Equal(t, SourceFile, src.Kind())

	products, err := NewFetcher(nil, nil, src).Fetch(context.Background(), SourceFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alcatra", "Banana Prata"}, Names(products))
}

func TestWorkbookSource_MissingFile(t *testing.T) {
	src, err := NewWorkbookSource(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	require.NoError(t, err)

	_, err = src.Rows(context.Background())
	assert.Error(t, err)
}

func TestWorkbookSource_UnknownSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"Arroz"}})
	src, err := NewWorkbookSource(path, "Carnes")
	require.NoError(t, err)

	_, err = src.Rows(context.Background())
	assert.Error(t, err)
}

func TestNewWorkbookSource_RequiresPath(t *testing.T) {
	_, err := NewWorkbookSource("", "")
	assert.Error(t, err)
}

func newSheetsServer(t *testing.T, status int, values [][]any) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v4/spreadsheets/sheet-123/values/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          "Produtos!A1:Z100",
			"majorDimension": "ROWS",
			"values":         values,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestSheetSource_Rows(t *testing.T) {
	ts := newSheetsServer(t, http.StatusOK, [][]any{
		{"Produto", "Preço"},
		{"Leite Integral", 4.5},
		{"LEITE  integral"},
		{"Manteiga"},
	})

	src, err := NewSheetSource(context.Background(), "sheet-123", "Produtos!A:Z",
		option.WithEndpoint(ts.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	assert.Equal(t, SourceSheet, src.Kind())

	products, err := NewFetcher(nil, nil, src).Fetch(context.Background(), SourceSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Leite Integral", "Manteiga"}, Names(products))
}

func TestSheetSource_APIErrorIsFetchError(t *testing.T) {
	ts := newSheetsServer(t, http.StatusForbidden, nil)

	src, err := NewSheetSource(context.Background(), "sheet-123", "",
		option.WithEndpoint(ts.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	_, err = NewFetcher(nil, nil, src).Fetch(context.Background(), SourceSheet)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, SourceSheet, fe.Source)
}

func TestNewSheetSource_RequiresID(t *testing.T) {
	_, err := NewSheetSource(context.Background(), "", "", option.WithoutAuthentication())
	assert.Error(t, err)
}
