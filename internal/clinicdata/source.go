package clinicdata

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Source fetches one tabular dataset by sheet name. The first row is the
// header; every following row is keyed by it.
type Source interface {
	Fetch(ctx context.Context, sheet string) ([]map[string]string, error)
}

// SheetsSource reads datasets from a Google spreadsheet.
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsSource builds a source for the given spreadsheet using a service
// account credentials file.
func NewSheetsSource(ctx context.Context, spreadsheetID, credentialsFile string) (*SheetsSource, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("clinicdata: create sheets service: %w", err)
	}
	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Fetch reads all rows of the named sheet and keys them by the header row.
func (s *SheetsSource) Fetch(ctx context.Context, sheet string) ([]map[string]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("clinicdata: read sheet %s: %w", sheet, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	header := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		header = append(header, fmt.Sprint(cell))
	}

	rows := make([]map[string]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = fmt.Sprint(raw[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
