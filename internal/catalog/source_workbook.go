package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WorkbookSource reads product rows from the bundled .xlsx file. An empty
// sheet name means the first sheet of the workbook.
type WorkbookSource struct {
	path  string
	sheet string
}

func NewWorkbookSource(path, sheet string) (*WorkbookSource, error) {
	if path == "" {
		return nil, errors.New("workbook source: path is required")
	}
	return &WorkbookSource{path: path, sheet: sheet}, nil
}

func (s *WorkbookSource) Kind() SourceKind { return SourceFile }

func (s *WorkbookSource) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", s.path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, s.path, err)
	}
	return rows, nil
}
