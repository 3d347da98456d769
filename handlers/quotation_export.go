package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"quoteflow/services"
)

// buildExportOptions fetches the quotation, its snapshot items and the
// company profile, then merges in the per-request export parameters
// (currency, rate, dimensions toggle).
func buildExportOptions(app *pocketbase.PocketBase, e *core.RequestEvent, quotationID string) (services.ExportOptions, *core.Record, error) {
	quotation, err := app.FindRecordById("quotations", quotationID)
	if err != nil {
		return services.ExportOptions{}, nil, fmt.Errorf("quotation not found: %w", err)
	}

	itemsCol, err := app.FindCollectionByNameOrId("quotation_items")
	if err != nil {
		return services.ExportOptions{}, nil, fmt.Errorf("collection not found: %w", err)
	}

	itemRecords, err := app.FindRecordsByFilter(itemsCol, "quotation = {:qid}", "sort_order", 0, 0, map[string]any{"qid": quotationID})
	if err != nil {
		itemRecords = nil
	}

	level := quotation.GetString("customer_level")
	items := make([]services.LineItem, 0, len(itemRecords))
	for _, r := range itemRecords {
		items = append(items, services.LineItem{
			ProductCode:    r.GetString("product_code"),
			ProductName:    r.GetString("product_name"),
			ImageURL:       r.GetString("image_url"),
			Quantity:       r.GetInt("quantity"),
			UnitPriceCents: int64(r.GetFloat("unit_price")),
			SubtotalCents:  int64(r.GetFloat("subtotal")),
			CustomerLevel:  level,
			Length:         r.GetString("length"),
			Width:          r.GetString("width"),
			Height:         r.GetString("height"),
			PcsPerCarton:   r.GetString("pcs_per_carton"),
			UnitWeight:     r.GetString("unit_weight"),
			UnitVolume:     r.GetString("unit_volume"),
			Note:           r.GetString("note"),
		})
	}

	opts := services.ExportOptions{
		Items:           items,
		Currency:        services.HomeCurrency,
		CustomerName:    quotation.GetString("customer_name"),
		CustomerAddress: quotation.GetString("customer_address"),
	}

	q := e.Request.URL.Query()
	if c := strings.ToUpper(strings.TrimSpace(q.Get("currency"))); c != "" {
		opts.Currency = c
	}
	if opts.Currency != services.HomeCurrency {
		opts.ExchangeRate = services.DefaultExchangeRate
		if r := cast.ToFloat64(q.Get("rate")); r > 0 {
			opts.ExchangeRate = r
		}
	}
	opts.IncludeDimensions = cast.ToBool(q.Get("dimensions"))

	// The first company profile record, if any, fills the document header.
	if profiles, err := app.FindRecordsByFilter("company_info", "id != ''", "-updated", 1, 0); err == nil && len(profiles) > 0 {
		p := profiles[0]
		opts.Company = &services.CompanyInfo{
			CompanyName: p.GetString("company_name"),
			Address:     p.GetString("address"),
			Phone:       p.GetString("phone"),
			Email:       p.GetString("email"),
			Website:     p.GetString("website"),
			BankAccount: p.GetString("bank_account"),
		}
	}

	return opts, quotation, nil
}

// recordExport persists a quotation_exports history row and an operation log
// entry for a completed export. Failures here only log; the download already
// succeeded from the client's point of view.
func recordExport(app *pocketbase.PocketBase, quotation *core.Record, fileName string, opts services.ExportOptions) {
	totals := services.CalcQuotationTotals(opts.Items)
	payload, err := json.Marshal(map[string]any{
		"currency":   opts.Currency,
		"rate":       opts.ExchangeRate,
		"dimensions": opts.IncludeDimensions,
		"item_count": totals.ItemCount,
		"total":      totals.TotalCents,
	})
	if err != nil {
		log.Printf("quotation_export: could not marshal export data: %v", err)
		payload = []byte("{}")
	}

	exportsCol, err := app.FindCollectionByNameOrId("quotation_exports")
	if err != nil {
		log.Printf("quotation_export: could not find quotation_exports collection: %v", err)
		return
	}
	r := core.NewRecord(exportsCol)
	r.Set("quotation", quotation.Id)
	r.Set("file_name", fileName)
	r.Set("export_data", string(payload))
	if err := app.Save(r); err != nil {
		log.Printf("quotation_export: could not save export record: %v", err)
	}

	logOperation(app, "export", "quotation", quotation.Id,
		fmt.Sprintf("exported %s (%s)", fileName, opts.Currency))
}

// logOperation appends an operation_logs entry. Best effort only.
func logOperation(app *pocketbase.PocketBase, operation, targetType, targetID, detail string) {
	col, err := app.FindCollectionByNameOrId("operation_logs")
	if err != nil {
		log.Printf("operation_log: could not find collection: %v", err)
		return
	}
	r := core.NewRecord(col)
	r.Set("operation", operation)
	r.Set("target_type", targetType)
	r.Set("target_id", targetID)
	r.Set("detail", detail)
	if err := app.Save(r); err != nil {
		log.Printf("operation_log: could not save entry: %v", err)
	}
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// HandleQuotationExportExcel returns a handler that generates and downloads
// the Excel rendition of a quotation.
func HandleQuotationExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotationID := e.Request.PathValue("id")
		if quotationID == "" {
			return e.String(http.StatusBadRequest, "Missing quotation ID")
		}

		opts, quotation, err := buildExportOptions(app, e, quotationID)
		if err != nil {
			log.Printf("quotation_export_excel: %v", err)
			return e.String(http.StatusNotFound, "Quotation not found")
		}

		xlsxBytes, err := services.ExportQuotationExcel(e.Request.Context(), opts)
		if err != nil {
			log.Printf("quotation_export_excel: failed to generate: %v", err)
			return e.String(http.StatusBadRequest, "Failed to generate Excel file: "+err.Error())
		}

		filename := fmt.Sprintf("quotation_%s_%s.xlsx",
			sanitizeFilename(quotation.GetString("quotation_number")),
			time.Now().Format("2006-01-02"))

		recordExport(app, quotation, filename, opts)

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleQuotationExportPDF returns a handler that generates and downloads
// the PDF rendition of a quotation.
func HandleQuotationExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotationID := e.Request.PathValue("id")
		if quotationID == "" {
			return e.String(http.StatusBadRequest, "Missing quotation ID")
		}

		opts, quotation, err := buildExportOptions(app, e, quotationID)
		if err != nil {
			log.Printf("quotation_export_pdf: %v", err)
			return e.String(http.StatusNotFound, "Quotation not found")
		}

		pdfBytes, err := services.ExportQuotationPDF(e.Request.Context(), opts)
		if err != nil {
			log.Printf("quotation_export_pdf: failed to generate: %v", err)
			return e.String(http.StatusBadRequest, "Failed to generate PDF file: "+err.Error())
		}

		filename := fmt.Sprintf("quotation_%s_%s.pdf",
			sanitizeFilename(quotation.GetString("quotation_number")),
			time.Now().Format("2006-01-02"))

		recordExport(app, quotation, filename, opts)

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(pdfBytes)
		return nil
	}
}
