// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteflow/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestProduct creates a product record with the given code and prices
// in cents and returns it.
func CreateTestProduct(t *testing.T, app *pocketbase.PocketBase, code, name string, retailCents int64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("products")
	if err != nil {
		t.Fatalf("failed to find products collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("product_code", code)
	record.Set("product_name", name)
	record.Set("retail_price", retailCents)
	record.Set("small_b_price", retailCents*8/10)
	record.Set("large_b_price", retailCents*7/10)
	record.Set("bulk_price", retailCents*6/10)
	record.Set("cheap_price", retailCents*5/10)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test product: %v", err)
	}

	return record
}

// CreateTestCompanyInfo creates the company profile record and returns it.
func CreateTestCompanyInfo(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("company_info")
	if err != nil {
		t.Fatalf("failed to find company_info collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("company_name", name)
	record.Set("address", "1 Test Road, Yiwu")
	record.Set("phone", "+86-579-0000-0000")
	record.Set("email", "test@example.com")
	record.Set("bank_account", "Test Bank, A/C 000111222")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test company info: %v", err)
	}

	return record
}

// CreateTestQuotation creates a quotation record and returns it.
func CreateTestQuotation(t *testing.T, app *pocketbase.PocketBase, number, level string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quotations")
	if err != nil {
		t.Fatalf("failed to find quotations collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("quotation_number", number)
	record.Set("customer_name", "Test Customer")
	record.Set("customer_level", level)
	record.Set("status", "draft")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quotation: %v", err)
	}

	return record
}

// CreateTestQuotationItem creates a snapshot line item under a quotation.
func CreateTestQuotationItem(t *testing.T, app *pocketbase.PocketBase, quotationID string, sortOrder int, code string, qty int, unitPriceCents int64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quotation_items")
	if err != nil {
		t.Fatalf("failed to find quotation_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("quotation", quotationID)
	record.Set("sort_order", sortOrder)
	record.Set("product_code", code)
	record.Set("product_name", "Product "+code)
	record.Set("quantity", qty)
	record.Set("unit_price", unitPriceCents)
	record.Set("subtotal", unitPriceCents*int64(qty))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quotation item: %v", err)
	}

	return record
}
