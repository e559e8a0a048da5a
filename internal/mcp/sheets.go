package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/honeycarbs/leadscore/internal/mcp/tools"
	sheetsclient "github.com/honeycarbs/leadscore/pkg/sheets"
)

// sheetsWriter is the subset of the Sheets client the export needs
type sheetsWriter interface {
	EnsureTab(ctx context.Context, spreadsheetID, title string) (bool, error)
	AppendRows(ctx context.Context, spreadsheetID, rng string, rows [][]any) (int, error)
	WriteRows(ctx context.Context, spreadsheetID, rng string, rows [][]any) (int, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
}

var _ sheetsWriter = (*sheetsclient.Client)(nil)

type sheetsClientAdapter struct {
	client sheetsWriter
	clock  func() time.Time
}

func newSheetsClientAdapter(client sheetsWriter) *sheetsClientAdapter {
	return &sheetsClientAdapter{client: client, clock: time.Now}
}

func (a *sheetsClientAdapter) Export(ctx context.Context, export tools.SheetExport) (tools.SheetsExportResult, error) {
	id := export.Sheet.SpreadsheetID
	result := tools.SheetsExportResult{
		SpreadsheetID: id,
		Tab:           tabName(export.Sheet.Tab),
		Mode:          "append",
	}
	if export.Upsert {
		result.Mode = "upsert"
	}

	if len(export.Rows) == 0 {
		result.CompletedAt = a.clock().UTC()
		result.Message = "no leads to export"
		return result, nil
	}

	// the default tab always exists; a named one may not yet
	if export.Sheet.Tab != "" && export.Sheet.Range == "" {
		created, err := a.client.EnsureTab(ctx, id, export.Sheet.Tab)
		if err != nil {
			return result, err
		}
		if created && !export.Upsert {
			// a fresh tab gets the header before appended rows
			if _, err := a.client.WriteRows(ctx, id, headerRange(export.Sheet.Tab), [][]any{headerValues()}); err != nil {
				return result, fmt.Errorf("sheets: failed to write header: %w", err)
			}
		}
	}

	if export.ClearTab {
		if err := a.client.Clear(ctx, id, buildClearRange(export.Sheet.Tab)); err != nil {
			return result, fmt.Errorf("sheets: failed to clear sheet: %w", err)
		}
	}

	values := convertRowsToValues(export.Rows)
	var (
		written int
		err     error
	)
	if export.Upsert {
		if _, err := a.client.WriteRows(ctx, id, headerRange(export.Sheet.Tab), [][]any{headerValues()}); err != nil {
			return result, fmt.Errorf("sheets: failed to write header: %w", err)
		}
		if written, err = a.client.WriteRows(ctx, id, buildRange(export), values); err != nil {
			return result, fmt.Errorf("sheets: failed to upsert rows: %w", err)
		}
	} else {
		if written, err = a.client.AppendRows(ctx, id, buildRange(export), values); err != nil {
			return result, fmt.Errorf("sheets: failed to append rows: %w", err)
		}
	}

	result.WrittenRows = written
	result.CompletedAt = a.clock().UTC()
	result.Message = fmt.Sprintf("successfully exported %d lead(s)", written)
	return result, nil
}

func tabName(tab string) string {
	if tab == "" {
		return "Sheet1"
	}
	return tab
}

func buildRange(export tools.SheetExport) string {
	if export.Sheet.Range != "" {
		return export.Sheet.Range
	}
	if export.Upsert {
		return fmt.Sprintf("%s!A2", tabName(export.Sheet.Tab))
	}
	return fmt.Sprintf("%s!A1", tabName(export.Sheet.Tab))
}

func headerRange(tab string) string {
	return fmt.Sprintf("%s!A1", tabName(tab))
}

func buildClearRange(tab string) string {
	return fmt.Sprintf("%s!A2:Z", tabName(tab))
}

func headerValues() []any {
	out := make([]any, len(tools.SheetHeader))
	for i, h := range tools.SheetHeader {
		out[i] = h
	}
	return out
}

func convertRowsToValues(rows []tools.SheetRow) [][]any {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = row.Values()
	}
	return values
}
