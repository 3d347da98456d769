package services

import (
	"bytes"
	"context"
	"testing"
)

func TestExportQuotationPDF(t *testing.T) {
	opts := twoItemOptions()
	opts.Company = &CompanyInfo{CompanyName: "ACME Trading Co."}
	opts.CustomerName = "Beta GmbH"

	result, err := ExportQuotationPDF(context.Background(), opts)
	if err != nil {
		t.Fatalf("ExportQuotationPDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("ExportQuotationPDF() returned empty bytes")
	}
	if !bytes.HasPrefix(result, []byte("%PDF")) {
		t.Errorf("result does not start with a PDF header, got %q", result[:min(8, len(result))])
	}
}

func TestExportQuotationPDF_WithoutDimensions(t *testing.T) {
	opts := twoItemOptions()
	opts.IncludeDimensions = false

	result, err := ExportQuotationPDF(context.Background(), opts)
	if err != nil {
		t.Fatalf("ExportQuotationPDF() error = %v", err)
	}
	if !bytes.HasPrefix(result, []byte("%PDF")) {
		t.Error("result is not a PDF")
	}
}

func TestExportQuotationPDF_InvalidInput(t *testing.T) {
	opts := twoItemOptions()
	opts.Currency = "USD"
	opts.ExchangeRate = 0

	if _, err := ExportQuotationPDF(context.Background(), opts); err == nil {
		t.Error("expected a validation error for zero foreign rate")
	}

	opts = twoItemOptions()
	opts.Items = nil
	if _, err := ExportQuotationPDF(context.Background(), opts); err == nil {
		t.Error("expected a validation error for empty item list")
	}
}
