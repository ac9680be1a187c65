// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Monthly Value", "monthly-value"},
		{"punctuation", "Q1: Signed / Expired (2026)!", "q1-signed-expired-2026"},
		{"trim", "  --Draft--  ", "draft"},
		{"empty", "", "report"},
		{"only symbols", "!!!", "report"},
		{"unicode dropped", "Kontrak Ölçüm", "kontrak-l-m"},
		{"long", strings.Repeat("a", 100), strings.Repeat("a", 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("Signed Contracts", models.FormatCSV); got != "signed-contracts.csv" {
		t.Errorf("Expected signed-contracts.csv, got %s", got)
	}
	if got := Filename("", models.FormatXLSX); got != "report.xlsx" {
		t.Errorf("Expected report.xlsx, got %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    models.ReportFormat
		wantErr bool
	}{
		{"", models.FormatCSV, false},
		{"csv", models.FormatCSV, false},
		{"XLSX", models.FormatXLSX, false},
		{"json", models.FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func groupedResult() *analytics.Result {
	req := &analytics.Request{
		Metrics:    []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.id"}},
		Dimensions: []analytics.Dimension{{Type: analytics.DimensionContractStatus, Field: "contracts.status"}},
	}
	q := &analytics.Query{Columns: []string{"contracts_status", "count_contracts_id"}}
	rows := []analytics.Row{
		{"contracts_status": "draft", "count_contracts_id": int64(3)},
		{"contracts_status": "signed, final", "count_contracts_id": int64(5)},
	}
	return analytics.NewResult(req, q, rows, 12*time.Millisecond)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, models.FormatCSV, groupedResult()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := "contracts_status,count_contracts_id\ndraft,3\n\"signed, final\",5\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestWriteCSV_Values(t *testing.T) {
	ts := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	rows := []analytics.Row{
		{"a": nil, "b": 1.5, "c": ts, "d": true},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []string{"a", "b", "c", "d", "missing"}, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[1] != ",1.5,2026-03-01T08:30:00Z,true," {
		t.Errorf("Expected formatted values, got %q", lines[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, models.FormatXLSX, groupedResult()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected header, 2 data rows and totals, got %d rows", len(rows))
	}
	if rows[0][0] != "contracts_status" || rows[0][1] != "count_contracts_id" {
		t.Errorf("Expected header row, got %v", rows[0])
	}
	if rows[2][0] != "signed, final" || rows[2][1] != "5" {
		t.Errorf("Expected second data row, got %v", rows[2])
	}
	if rows[3][0] != "Total" || rows[3][1] != "8" {
		t.Errorf("Expected totals row [Total 8], got %v", rows[3])
	}
}

func TestWriteXLSX_UngroupedHasNoTotalsRow(t *testing.T) {
	req := &analytics.Request{Metrics: []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.id"}}}
	q := &analytics.Query{Columns: []string{"count_contracts_id"}}
	result := analytics.NewResult(req, q, []analytics.Row{{"count_contracts_id": int64(8)}}, 0)

	var buf bytes.Buffer
	if err := Write(&buf, models.FormatXLSX, result); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SheetName)
	if len(rows) != 2 {
		t.Errorf("Expected header and one row, got %d", len(rows))
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, models.FormatJSON, groupedResult()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var decoded struct {
		Data     []map[string]interface{} `json:"data"`
		Metadata struct {
			RowCount int `json:"rowCount"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Metadata.RowCount != 2 || len(decoded.Data) != 2 {
		t.Errorf("Expected 2 rows, got %d/%d", decoded.Metadata.RowCount, len(decoded.Data))
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "pdf", groupedResult())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}
