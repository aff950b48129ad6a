package catalog

import (
	"context"
	"strings"
)

type SourceKind string

const (
	SourceSheet SourceKind = "sheet"
	SourceFile  SourceKind = "file"
)

// Source yields raw tabular rows. Implementations make exactly one attempt
// per call.
type Source interface {
	Kind() SourceKind
	Rows(ctx context.Context) ([][]string, error)
}

func ParseSourceKind(s string) (SourceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sheet", "sheets", "remote", "google":
		return SourceSheet, true
	case "file", "local", "xlsx", "workbook":
		return SourceFile, true
	default:
		return "", false
	}
}
