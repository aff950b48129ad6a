package catalog

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const defaultSheetRange = "A:Z"

type SheetSource struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
}

func NewSheetSource(ctx context.Context, spreadsheetID, readRange string, opts ...option.ClientOption) (*SheetSource, error) {
	if spreadsheetID == "" {
		return nil, errors.New("sheet source: spreadsheet id is required")
	}
	if readRange == "" {
		readRange = defaultSheetRange
	}

	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheet source: create sheets client: %w", err)
	}

	return &SheetSource{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}, nil
}

func (s *SheetSource) Kind() SourceKind { return SourceSheet }

func (s *SheetSource) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.readRange).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", s.spreadsheetID, s.readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
