package services

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Fixed grid positions of the quotation layout.
const (
	testHeaderRow    = 9
	testFirstDataRow = 10
)

func exportAndOpen(t *testing.T, opts ExportOptions) *excelize.File {
	t.Helper()

	result, err := ExportQuotationExcel(context.Background(), opts)
	if err != nil {
		t.Fatalf("ExportQuotationExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("ExportQuotationExcel() returned empty bytes")
	}

	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheetName, ref)
	if err != nil {
		t.Fatalf("GetCellValue(%s): %v", ref, err)
	}
	return v
}

func cellFloat(t *testing.T, f *excelize.File, ref string) float64 {
	t.Helper()
	v := cellValue(t, f, ref)
	if v == "" {
		t.Fatalf("cell %s is empty, expected a number", ref)
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		t.Fatalf("cell %s = %q is not numeric: %v", ref, v, err)
	}
	return n
}

func twoItemOptions() ExportOptions {
	return ExportOptions{
		Items: []LineItem{
			{
				ProductCode:    "A",
				ProductName:    "Widget A",
				Quantity:       2,
				UnitPriceCents: 1000,
				SubtotalCents:  2000,
				Length:         "10",
				Width:          "10",
				Height:         "10",
				PcsPerCarton:   "5",
			},
			{
				ProductCode:    "B",
				ProductName:    "Widget B",
				Quantity:       1,
				UnitPriceCents: 500,
				SubtotalCents:  500,
			},
		},
		Currency:          "CNY",
		ExchangeRate:      1,
		IncludeDimensions: true,
	}
}

func TestExportQuotationExcel_ReferenceScenario(t *testing.T) {
	f := exportAndOpen(t, twoItemOptions())

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != sheetName {
		t.Fatalf("expected single sheet %q, got %v", sheetName, sheets)
	}

	// Two data rows in input order.
	if got := cellValue(t, f, "B10"); got != "A" {
		t.Errorf("B10 = %q, want A", got)
	}
	if got := cellValue(t, f, "B11"); got != "B" {
		t.Errorf("B11 = %q, want B", got)
	}
	// Exactly two data rows: the merged totals row begins directly below them
	// and the sheet ends at the signature row (totals + 6 footer lines + 1).
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if wantLast := testFirstDataRow + 2 + 7; len(rows) != wantLast {
		t.Errorf("sheet extends to row %d, want %d (signature row)", len(rows), wantLast)
	}

	// Row A logistics: 10×10×10 cm → 0.001 m³, 2/5 → 0.4 CTN.
	if got := cellFloat(t, f, "K10"); got != 0.001 {
		t.Errorf("K10 per-unit volume = %v, want 0.001", got)
	}
	if got := cellFloat(t, f, "L10"); got != 0.4 {
		t.Errorf("L10 carton count = %v, want 0.4", got)
	}

	// Row B has no physical data: dimension cells stay empty.
	for _, ref := range []string{"H11", "I11", "J11", "K11", "L11", "M11", "N11"} {
		if got := cellValue(t, f, ref); got != "" {
			t.Errorf("%s = %q, want empty", ref, got)
		}
	}

	// Totals row: (2000+500) minor units / 100 = 25.00.
	totalRow := testFirstDataRow + 2
	if got := cellValue(t, f, cell("A", totalRow)); got != "TOTAL" {
		t.Errorf("total label = %q, want TOTAL", got)
	}
	if got := cellFloat(t, f, cell("G", totalRow)); got != 25 {
		t.Errorf("grand total = %v, want 25", got)
	}
}

func TestExportQuotationExcel_RoundingConsistency(t *testing.T) {
	// Awkward thirds at a foreign rate: the displayed total must equal the
	// sum of the displayed rounded row amounts exactly.
	opts := ExportOptions{
		Items: []LineItem{
			{ProductCode: "A", ProductName: "A", Quantity: 1, UnitPriceCents: 3333, SubtotalCents: 3333},
			{ProductCode: "B", ProductName: "B", Quantity: 1, UnitPriceCents: 3333, SubtotalCents: 3333},
			{ProductCode: "C", ProductName: "C", Quantity: 1, UnitPriceCents: 3334, SubtotalCents: 3334},
		},
		Currency:     "USD",
		ExchangeRate: 7.2,
	}

	f := exportAndOpen(t, opts)

	sum := decimal.Zero
	for i := 0; i < 3; i++ {
		v, err := decimal.NewFromString(cellValue(t, f, cell("G", testFirstDataRow+i)))
		if err != nil {
			t.Fatalf("row amount not numeric: %v", err)
		}
		sum = sum.Add(v)
	}
	total, err := decimal.NewFromString(cellValue(t, f, cell("G", testFirstDataRow+3)))
	if err != nil {
		t.Fatalf("grand total not numeric: %v", err)
	}
	if !sum.Equal(total) {
		t.Errorf("sum of row amounts %s != grand total %s", sum, total)
	}
}

func TestExportQuotationExcel_CurrencyInvariance(t *testing.T) {
	// Home currency and foreign currency at rate 1 must show the same numbers.
	base := twoItemOptions()
	base.IncludeDimensions = false

	home := base
	home.Currency = "CNY"

	foreign := base
	foreign.Currency = "USD"
	foreign.ExchangeRate = 1

	fHome := exportAndOpen(t, home)
	fForeign := exportAndOpen(t, foreign)

	for i := range base.Items {
		for _, col := range []string{"F", "G"} {
			ref := cell(col, testFirstDataRow+i)
			if cellFloat(t, fHome, ref) != cellFloat(t, fForeign, ref) {
				t.Errorf("cell %s differs between CNY and USD@1", ref)
			}
		}
	}
}

func TestExportQuotationExcel_ColumnSetPurity(t *testing.T) {
	withDims := twoItemOptions()
	// Strip every physical attribute: the dimension columns must still exist.
	for i := range withDims.Items {
		withDims.Items[i].Length = ""
		withDims.Items[i].Width = ""
		withDims.Items[i].Height = ""
		withDims.Items[i].PcsPerCarton = ""
	}

	f := exportAndOpen(t, withDims)
	if got := cellValue(t, f, cell("O", testHeaderRow)); got != "Note" {
		t.Errorf("O%d = %q, want Note header despite bare items", testHeaderRow, got)
	}
	if got := cellValue(t, f, cell("H", testHeaderRow)); got != "L/cm" {
		t.Errorf("H%d = %q, want L/cm", testHeaderRow, got)
	}

	without := twoItemOptions()
	without.IncludeDimensions = false
	f2 := exportAndOpen(t, without)
	if got := cellValue(t, f2, cell("G", testHeaderRow)); !strings.HasPrefix(got, "Amount") {
		t.Errorf("G%d = %q, want Amount header as last column", testHeaderRow, got)
	}
	if got := cellValue(t, f2, cell("H", testHeaderRow)); got != "" {
		t.Errorf("H%d = %q, want no dimension columns when flag is off", testHeaderRow, got)
	}
}

func TestExportQuotationExcel_CustomerLevelEchoed(t *testing.T) {
	opts := twoItemOptions()
	opts.Items[0].CustomerLevel = "retail"

	f := exportAndOpen(t, opts)
	if got := cellValue(t, f, "E10"); got != "2 / 零售价" {
		t.Errorf("E10 = %q, want quantity with level label", got)
	}
	if got := cellValue(t, f, "E11"); got != "1" {
		t.Errorf("E11 = %q, want bare quantity", got)
	}
}

func TestExportQuotationExcel_ImageFailureIsolation(t *testing.T) {
	opts := twoItemOptions()
	opts.Items[0].ImageURL = "ref-good"
	opts.Items[1].ImageURL = "ref-bad"
	opts.ResolveImage = func(url string) (string, error) {
		if url == "ref-good" {
			return "data:image/png;base64," + onePxPNG, nil
		}
		return "", nil
	}
	// The fallback fetch for ref-bad fails immediately: not a URL.
	f := exportAndOpen(t, opts)

	pics, err := f.GetPictures(sheetName, "D10")
	if err != nil {
		t.Fatalf("GetPictures(D10): %v", err)
	}
	if len(pics) != 1 {
		t.Errorf("D10 pictures = %d, want 1", len(pics))
	}

	pics, err = f.GetPictures(sheetName, "D11")
	if err != nil {
		t.Fatalf("GetPictures(D11): %v", err)
	}
	if len(pics) != 0 {
		t.Errorf("D11 pictures = %d, want 0 for the failed item", len(pics))
	}

	// Both data rows still rendered.
	if got := cellValue(t, f, "B11"); got != "B" {
		t.Errorf("B11 = %q, want B", got)
	}
}

func TestExportQuotationExcel_HeaderFallbacks(t *testing.T) {
	opts := twoItemOptions()
	f := exportAndOpen(t, opts)
	if got := cellValue(t, f, "A1"); got != "Company Name" {
		t.Errorf("A1 = %q, want placeholder company name", got)
	}
	// Customer fields get no placeholder: unknown address renders blank.
	if got := cellValue(t, f, "A6"); got != "" {
		t.Errorf("A6 = %q, want empty address", got)
	}

	opts.Company = &CompanyInfo{CompanyName: "ACME Trading Co."}
	opts.CustomerName = "Beta GmbH"
	opts.CustomerAddress = "12 Harbor Road, Hamburg"
	f2 := exportAndOpen(t, opts)
	if got := cellValue(t, f2, "A1"); got != "ACME Trading Co." {
		t.Errorf("A1 = %q, want company name", got)
	}
	if got := cellValue(t, f2, "A5"); got != "To: Beta GmbH" {
		t.Errorf("A5 = %q, want customer line", got)
	}
	if got := cellValue(t, f2, "A6"); got != "12 Harbor Road, Hamburg" {
		t.Errorf("A6 = %q, want customer address", got)
	}
	if got := cellValue(t, f2, "A3"); got != "QUOTATION" {
		t.Errorf("A3 = %q, want QUOTATION title", got)
	}
}

func TestExportQuotationExcel_SayRow(t *testing.T) {
	opts := twoItemOptions()
	f := exportAndOpen(t, opts)

	sayRow := testFirstDataRow + len(opts.Items) + 1
	if got := cellValue(t, f, cell("A", sayRow)); got != "SAY TOTAL CHINESE YUAN TWENTY FIVE ONLY." {
		t.Errorf("say row = %q", got)
	}
}

func TestExportQuotationExcel_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExportOptions)
	}{
		{"no items", func(o *ExportOptions) { o.Items = nil }},
		{"zero rate foreign", func(o *ExportOptions) { o.Currency = "USD"; o.ExchangeRate = 0 }},
		{"negative rate foreign", func(o *ExportOptions) { o.Currency = "USD"; o.ExchangeRate = -2 }},
		{"unknown currency", func(o *ExportOptions) { o.Currency = "EUR" }},
		{"missing product code", func(o *ExportOptions) { o.Items[0].ProductCode = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := twoItemOptions()
			tt.mutate(&opts)
			if _, err := ExportQuotationExcel(context.Background(), opts); err == nil {
				t.Error("expected an invocation-level error, got none")
			}
		})
	}
}

func TestExportQuotationExcel_HomeCurrencyIgnoresRate(t *testing.T) {
	// A stale foreign rate must not affect a home-currency export.
	opts := twoItemOptions()
	opts.Currency = "CNY"
	opts.ExchangeRate = 7.2

	f := exportAndOpen(t, opts)
	if got := cellFloat(t, f, "F10"); got != 10 {
		t.Errorf("F10 = %v, want 10.00 (unit price unaffected by rate)", got)
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty string", "", ""},
		{"normal text", "Hello", "Hello"},
		{"starts with equals", "=SUM(A1:A10)", "'=SUM(A1:A10)"},
		{"starts with plus", "+1234", "'+1234"},
		{"starts with minus", "-100", "'-100"},
		{"starts with at", "@import", "'@import"},
		{"starts with tab", "\tdata", "'\tdata"},
		{"starts with pipe", "|command", "'|command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeExcelCell(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestThinBorders(t *testing.T) {
	borders := thinBorders()
	if len(borders) != 4 {
		t.Fatalf("thinBorders() returned %d borders, want 4", len(borders))
	}
	sides := map[string]bool{}
	for _, b := range borders {
		sides[b.Type] = true
		if b.Style != 1 {
			t.Errorf("border %s style = %d, want 1 (thin)", b.Type, b.Style)
		}
	}
	for _, side := range []string{"left", "top", "bottom", "right"} {
		if !sides[side] {
			t.Errorf("missing border side: %s", side)
		}
	}
}
