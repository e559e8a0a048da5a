package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/honeycarbs/leadscore/internal/mcp/tools"
)

func TestBuildRange(t *testing.T) {
	tests := []struct {
		name   string
		export tools.SheetExport
		want   string
	}{
		{"append default tab", tools.SheetExport{}, "Sheet1!A1"},
		{"upsert skips header", tools.SheetExport{Upsert: true, Sheet: tools.SheetTarget{Tab: "Leads"}}, "Leads!A2"},
		{"explicit range wins", tools.SheetExport{Upsert: true, Sheet: tools.SheetTarget{Tab: "Leads", Range: "Leads!C5"}}, "Leads!C5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildRange(tt.export); got != tt.want {
				t.Fatalf("buildRange = %q, want %q", got, tt.want)
			}
		})
	}
	if got := buildClearRange(""); got != "Sheet1!A2:Z" {
		t.Fatalf("buildClearRange = %q", got)
	}
}

func TestConvertRowsToValues(t *testing.T) {
	rows := []tools.SheetRow{{Name: "Ana", Company: "Co", Score: 10, Grade: "B"}}
	values := convertRowsToValues(rows)
	if len(values) != 1 || len(values[0]) != len(tools.SheetHeader) {
		t.Fatalf("values = %v", values)
	}
	if values[0][0] != "Ana" || values[0][8] != 10 {
		t.Fatalf("row order changed: %v", values[0])
	}
	if len(headerValues()) != len(tools.SheetHeader) {
		t.Fatal("header width mismatch")
	}
}

type fakeWriter struct {
	tabs   map[string]bool
	calls  []string
	failOn string
}

func (f *fakeWriter) record(op, rng string) error {
	f.calls = append(f.calls, op+" "+rng)
	if op == f.failOn {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeWriter) EnsureTab(_ context.Context, _, title string) (bool, error) {
	if err := f.record("ensure", title); err != nil {
		return false, err
	}
	if f.tabs[title] {
		return false, nil
	}
	f.tabs[title] = true
	return true, nil
}

func (f *fakeWriter) AppendRows(_ context.Context, _, rng string, rows [][]any) (int, error) {
	return len(rows), f.record("append", rng)
}

func (f *fakeWriter) WriteRows(_ context.Context, _, rng string, rows [][]any) (int, error) {
	return len(rows), f.record("write", rng)
}

func (f *fakeWriter) Clear(_ context.Context, _, rng string) error {
	return f.record("clear", rng)
}

func TestSheetsExportNewTabGetsHeader(t *testing.T) {
	w := &fakeWriter{tabs: map[string]bool{}}
	a := newSheetsClientAdapter(w)
	res, err := a.Export(context.Background(), tools.SheetExport{
		Sheet: tools.SheetTarget{SpreadsheetID: "doc", Tab: "Leads"},
		Rows:  []tools.SheetRow{{Name: "Ana"}, {Name: "Bo"}},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []string{"ensure Leads", "write Leads!A1", "append Leads!A1"}
	if strings.Join(w.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", w.calls, want)
	}
	if res.WrittenRows != 2 || res.Mode != "append" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSheetsExportUpsertExistingTab(t *testing.T) {
	w := &fakeWriter{tabs: map[string]bool{"Leads": true}}
	a := newSheetsClientAdapter(w)
	_, err := a.Export(context.Background(), tools.SheetExport{
		Sheet:    tools.SheetTarget{SpreadsheetID: "doc", Tab: "Leads"},
		Rows:     []tools.SheetRow{{Name: "Ana"}},
		Upsert:   true,
		ClearTab: true,
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []string{"ensure Leads", "clear Leads!A2:Z", "write Leads!A1", "write Leads!A2"}
	if strings.Join(w.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", w.calls, want)
	}
}

func TestSheetsExportEmptyAndErrors(t *testing.T) {
	w := &fakeWriter{tabs: map[string]bool{}}
	a := newSheetsClientAdapter(w)
	res, err := a.Export(context.Background(), tools.SheetExport{Sheet: tools.SheetTarget{SpreadsheetID: "doc"}})
	if err != nil || res.WrittenRows != 0 || len(w.calls) != 0 {
		t.Fatalf("empty export: res=%+v err=%v calls=%v", res, err, w.calls)
	}

	w.failOn = "append"
	_, err = a.Export(context.Background(), tools.SheetExport{
		Sheet: tools.SheetTarget{SpreadsheetID: "doc"},
		Rows:  []tools.SheetRow{{Name: "Ana"}},
	})
	if err == nil {
		t.Fatal("expected append failure")
	}
}
