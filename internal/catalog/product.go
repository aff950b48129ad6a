package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Product struct {
	Name string `json:"name"`
}

var nameHeaders = map[string]struct{}{
	"name":      {},
	"nome":      {},
	"produto":   {},
	"produtos":  {},
	"product":   {},
	"descricao": {},
}

// NormalizeName trims, collapses inner whitespace and strips diacritics.
// Casing is kept.
func NormalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return stripDiacritics(s)
}

func FoldKey(s string) string {
	return cases.Fold().String(NormalizeName(s))
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// BuildList turns raw rows into a deduplicated product list. The first row is
// treated as a header only when one of its cells names the product column.
// The result is never nil.
func BuildList(rows [][]string) []Product {
	col, start := nameColumn(rows)

	out := make([]Product, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows[start:] {
		if col >= len(row) {
			continue
		}
		name := NormalizeName(row[col])
		if name == "" {
			continue
		}
		key := cases.Fold().String(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Product{Name: name})
	}
	return out
}

func nameColumn(rows [][]string) (col, start int) {
	if len(rows) == 0 {
		return 0, 0
	}
	for i, cell := range rows[0] {
		if _, ok := nameHeaders[FoldKey(cell)]; ok {
			return i, 1
		}
	}
	return 0, 0
}

func Names(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}
