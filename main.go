package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteflow/collections"
	"quoteflow/handlers"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Product catalog ──────────────────────────────────────
		se.Router.GET("/products", handlers.HandleProductList(app))

		// ── Quotation CRUD ───────────────────────────────────────
		se.Router.GET("/quotations", handlers.HandleQuotationList(app))
		se.Router.POST("/quotations", handlers.HandleQuotationSave(app))
		se.Router.DELETE("/quotations/{id}", handlers.HandleQuotationDelete(app))

		// ── Quotation export (before the catch-all view route) ───
		se.Router.GET("/quotations/{id}/export/excel", handlers.HandleQuotationExportExcel(app))
		se.Router.GET("/quotations/{id}/export/pdf", handlers.HandleQuotationExportPDF(app))

		se.Router.GET("/quotations/{id}", handlers.HandleQuotationView(app))

		// ── Image proxy for hosts that block cross-origin fetches ─
		se.Router.GET("/api/image-proxy", handlers.HandleImageProxy(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
