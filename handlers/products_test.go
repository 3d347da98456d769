package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quoteflow/testhelpers"
)

func TestHandleProductList_All(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProduct(t, app, "SR-1001", "Vacuum Flask", 3500)
	testhelpers.CreateTestProduct(t, app, "SR-2001", "Desk Lamp", 4800)

	handler := HandleProductList(app)
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []productView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	// Sorted by product_code.
	if got[0].ProductCode != "SR-1001" {
		t.Errorf("first product = %q, want SR-1001", got[0].ProductCode)
	}
	if got[0].RetailPrice != 3500 || got[0].LargeBPrice != 2450 {
		t.Errorf("tier prices = %d/%d", got[0].RetailPrice, got[0].LargeBPrice)
	}
}

func TestHandleProductList_Search(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProduct(t, app, "SR-1001", "Vacuum Flask", 3500)
	testhelpers.CreateTestProduct(t, app, "SR-2001", "Desk Lamp", 4800)

	handler := HandleProductList(app)
	req := httptest.NewRequest(http.MethodGet, "/products?q=Lamp", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got []productView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(got) != 1 || got[0].ProductCode != "SR-2001" {
		t.Errorf("search result = %+v, want only SR-2001", got)
	}
}
