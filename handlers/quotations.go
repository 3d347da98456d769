package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteflow/services"
)

// quotationSummary is the JSON shape for list/detail responses. Amounts stay
// in minor units; clients format them.
type quotationSummary struct {
	ID              string `json:"id"`
	QuotationNumber string `json:"quotation_number"`
	CustomerName    string `json:"customer_name"`
	CustomerLevel   string `json:"customer_level"`
	Status          string `json:"status"`
	TotalAmount     int64  `json:"total_amount"`
	ItemCount       int    `json:"item_count"`
	Created         string `json:"created"`
}

type quotationItemView struct {
	SortOrder   int    `json:"sort_order"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

func summarize(r *core.Record) quotationSummary {
	return quotationSummary{
		ID:              r.Id,
		QuotationNumber: r.GetString("quotation_number"),
		CustomerName:    r.GetString("customer_name"),
		CustomerLevel:   r.GetString("customer_level"),
		Status:          r.GetString("status"),
		TotalAmount:     int64(r.GetFloat("total_amount")),
		ItemCount:       r.GetInt("item_count"),
		Created:         r.GetDateTime("created").Time().Format(time.RFC3339),
	}
}

// HandleQuotationList returns a handler that lists quotations, newest first.
func HandleQuotationList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		col, err := app.FindCollectionByNameOrId("quotations")
		if err != nil {
			log.Printf("quotation_list: could not find quotations collection: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}

		records, err := app.FindRecordsByFilter(col, "id != ''", "-created", 0, 0)
		if err != nil {
			records = nil
		}

		out := make([]quotationSummary, 0, len(records))
		for _, r := range records {
			out = append(out, summarize(r))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleQuotationView returns a handler that shows one quotation with its items.
func HandleQuotationView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotationID := e.Request.PathValue("id")
		quotation, err := app.FindRecordById("quotations", quotationID)
		if err != nil {
			return e.String(http.StatusNotFound, "Quotation not found")
		}

		itemRecords, err := app.FindRecordsByFilter("quotation_items", "quotation = {:qid}", "sort_order", 0, 0, map[string]any{"qid": quotationID})
		if err != nil {
			itemRecords = nil
		}

		items := make([]quotationItemView, 0, len(itemRecords))
		for _, r := range itemRecords {
			items = append(items, quotationItemView{
				SortOrder:   r.GetInt("sort_order"),
				ProductCode: r.GetString("product_code"),
				ProductName: r.GetString("product_name"),
				ImageURL:    r.GetString("image_url"),
				Quantity:    r.GetInt("quantity"),
				UnitPrice:   int64(r.GetFloat("unit_price")),
				Subtotal:    int64(r.GetFloat("subtotal")),
			})
		}

		return e.JSON(http.StatusOK, map[string]any{
			"quotation": summarize(quotation),
			"items":     items,
		})
	}
}

// HandleQuotationSave returns a handler that creates a quotation from a form
// submission. Items arrive as items[N].product_id / items[N].quantity pairs;
// the unit price is resolved from the product's tier field for the chosen
// customer level and snapshotted onto the line item.
func HandleQuotationSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			log.Printf("quotation_create: could not parse form: %v", err)
			return e.String(http.StatusBadRequest, "Invalid form data")
		}

		number := strings.TrimSpace(e.Request.FormValue("quotation_number"))
		customerName := strings.TrimSpace(e.Request.FormValue("customer_name"))
		customerAddress := strings.TrimSpace(e.Request.FormValue("customer_address"))
		level := strings.TrimSpace(e.Request.FormValue("customer_level"))

		if number == "" {
			return e.String(http.StatusBadRequest, "Quotation number is required")
		}
		priceField, err := services.PriceFieldForLevel(level)
		if err != nil {
			return e.String(http.StatusBadRequest, "Unknown customer level")
		}

		existing, _ := app.FindRecordsByFilter("quotations", "quotation_number = {:num}", "", 1, 0, map[string]any{"num": number})
		if len(existing) > 0 {
			return e.String(http.StatusBadRequest, "A quotation with this number already exists")
		}

		// Resolve items against the product catalog before saving anything.
		type lineEntry struct {
			product  *core.Record
			quantity int
			price    int64
		}
		var entries []lineEntry
		var items []services.LineItem
		for i := 0; ; i++ {
			prefix := fmt.Sprintf("items[%d].", i)
			productID := strings.TrimSpace(e.Request.FormValue(prefix + "product_id"))
			if productID == "" {
				break
			}
			qty, _ := strconv.Atoi(e.Request.FormValue(prefix + "quantity"))
			if qty <= 0 {
				return e.String(http.StatusBadRequest, fmt.Sprintf("Item %d has an invalid quantity", i+1))
			}

			product, err := app.FindRecordById("products", productID)
			if err != nil {
				return e.String(http.StatusBadRequest, fmt.Sprintf("Item %d references an unknown product", i+1))
			}

			price := int64(product.GetFloat(priceField))
			entries = append(entries, lineEntry{product: product, quantity: qty, price: price})
			items = append(items, services.LineItem{
				ProductCode:    product.GetString("product_code"),
				ProductName:    product.GetString("product_name"),
				Quantity:       qty,
				UnitPriceCents: price,
				SubtotalCents:  price * int64(qty),
			})
		}
		if len(entries) == 0 {
			return e.String(http.StatusBadRequest, "At least one item is required")
		}

		totals := services.CalcQuotationTotals(items)

		quotationsCol, err := app.FindCollectionByNameOrId("quotations")
		if err != nil {
			log.Printf("quotation_create: could not find quotations collection: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}
		itemsCol, err := app.FindCollectionByNameOrId("quotation_items")
		if err != nil {
			log.Printf("quotation_create: could not find quotation_items collection: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}

		quotation := core.NewRecord(quotationsCol)
		quotation.Set("quotation_number", number)
		quotation.Set("customer_name", customerName)
		quotation.Set("customer_address", customerAddress)
		quotation.Set("customer_level", level)
		quotation.Set("status", "draft")
		quotation.Set("total_amount", totals.TotalCents)
		quotation.Set("item_count", totals.ItemCount)
		if err := app.Save(quotation); err != nil {
			log.Printf("quotation_create: could not save quotation: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}

		for i, entry := range entries {
			r := core.NewRecord(itemsCol)
			r.Set("quotation", quotation.Id)
			r.Set("sort_order", i+1)
			r.Set("product_code", entry.product.GetString("product_code"))
			r.Set("product_name", entry.product.GetString("product_name"))
			r.Set("image_url", entry.product.GetString("image_url"))
			r.Set("quantity", entry.quantity)
			r.Set("unit_price", entry.price)
			r.Set("subtotal", entry.price*int64(entry.quantity))
			r.Set("length", entry.product.GetString("length"))
			r.Set("width", entry.product.GetString("width"))
			r.Set("height", entry.product.GetString("height"))
			r.Set("pcs_per_carton", entry.product.GetString("pcs_per_carton"))
			r.Set("unit_weight", entry.product.GetString("unit_weight"))
			r.Set("unit_volume", entry.product.GetString("unit_volume"))
			r.Set("note", entry.product.GetString("note"))
			if err := app.Save(r); err != nil {
				log.Printf("quotation_create: could not save item %d: %v", i+1, err)
			}
		}

		logOperation(app, "create", "quotation", quotation.Id,
			fmt.Sprintf("created %s with %d items", number, totals.ItemCount))

		return e.JSON(http.StatusOK, summarize(quotation))
	}
}

// HandleQuotationDelete returns a handler that deletes a quotation and its
// items (cascade).
func HandleQuotationDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotationID := e.Request.PathValue("id")
		quotation, err := app.FindRecordById("quotations", quotationID)
		if err != nil {
			return e.String(http.StatusNotFound, "Quotation not found")
		}

		number := quotation.GetString("quotation_number")
		if err := app.Delete(quotation); err != nil {
			log.Printf("quotation_delete: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}

		logOperation(app, "delete", "quotation", quotationID, "deleted "+number)
		return e.NoContent(http.StatusNoContent)
	}
}
