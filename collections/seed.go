package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type productDef struct {
	code         string
	name         string
	description  string
	imageURL     string
	retailPrice  int64 // all prices in cents (分)
	smallBPrice  int64
	largeBPrice  int64
	bulkPrice    int64
	cheapPrice   int64
	length       string
	width        string
	height       string
	pcsPerCarton string
	unitWeight   string
	note         string
}

type quotationItemDef struct {
	sortOrder   int
	productCode string
	quantity    int
}

type quotationDef struct {
	number          string
	customerName    string
	customerAddress string
	customerLevel   string
	status          string
	items           []quotationItemDef
}

// Seed populates the collections with a company profile, a realistic
// export-trade product catalog and two sample quotations. It is safe to call
// on every startup because it returns early if any product records exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if products already exist ──────────────────
	productsCol, err := app.FindCollectionByNameOrId("products")
	if err != nil {
		return fmt.Errorf("seed: could not find products collection: %w", err)
	}
	existing, err := app.FindAllRecords(productsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query products: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: products collection is empty – inserting seed data …")

	// ── lookup helper collections ────────────────────────────────────
	companyCol, err := app.FindCollectionByNameOrId("company_info")
	if err != nil {
		return fmt.Errorf("seed: could not find company_info collection: %w", err)
	}
	quotationsCol, err := app.FindCollectionByNameOrId("quotations")
	if err != nil {
		return fmt.Errorf("seed: could not find quotations collection: %w", err)
	}
	itemsCol, err := app.FindCollectionByNameOrId("quotation_items")
	if err != nil {
		return fmt.Errorf("seed: could not find quotation_items collection: %w", err)
	}

	// ── company profile ──────────────────────────────────────────────
	company := core.NewRecord(companyCol)
	company.Set("company_name", "Yiwu Sunrise Trading Co., Ltd.")
	company.Set("address", "Room 1203, Futian Market District 3, Yiwu, Zhejiang, China")
	company.Set("phone", "+86-579-8552-1234")
	company.Set("email", "sales@sunrise-trading.cn")
	company.Set("website", "https://www.sunrise-trading.cn")
	company.Set("bank_account", "Bank of China Yiwu Branch, A/C 3568 0188 8899 6677, SWIFT: BKCHCNBJ92A")
	if err := app.Save(company); err != nil {
		return fmt.Errorf("seed: save company info: %w", err)
	}

	// ── product catalog ──────────────────────────────────────────────
	products := []productDef{
		{
			code: "SR-1001", name: "Stainless Steel Vacuum Flask 500ml",
			description: "Double-wall insulated bottle, keeps hot 12h",
			retailPrice: 3500, smallBPrice: 2800, largeBPrice: 2400, bulkPrice: 2100, cheapPrice: 1800,
			length: "7", width: "7", height: "25", pcsPerCarton: "50", unitWeight: "0.32",
		},
		{
			code: "SR-1002", name: "Ceramic Coffee Mug 350ml",
			description: "Glazed ceramic, custom logo printing available",
			retailPrice: 1200, smallBPrice: 950, largeBPrice: 800, bulkPrice: 680, cheapPrice: 550,
			length: "12", width: "9", height: "10", pcsPerCarton: "72", unitWeight: "0.38",
		},
		{
			code: "SR-2001", name: "LED Desk Lamp (USB Rechargeable)",
			description: "3 color temperatures, touch dimmer",
			retailPrice: 4800, smallBPrice: 3900, largeBPrice: 3400, bulkPrice: 3000, cheapPrice: 2600,
			length: "18", width: "12", height: "40", pcsPerCarton: "24", unitWeight: "0.65",
		},
		{
			code: "SR-2002", name: "Bluetooth Speaker Mini",
			description: "TWS pairing, 6h playtime",
			retailPrice: 2900, smallBPrice: 2300, largeBPrice: 2000, bulkPrice: 1750, cheapPrice: 1500,
			length: "6", width: "6", height: "5", pcsPerCarton: "100", unitWeight: "0.18",
		},
		{
			code: "SR-3001", name: "Microfiber Cleaning Cloth Set (10pcs)",
			description: "30x30cm, assorted colors",
			retailPrice: 900, smallBPrice: 700, largeBPrice: 580, bulkPrice: 480, cheapPrice: 380,
			pcsPerCarton: "200", unitWeight: "0.25", note: "soft-packed, no box dims",
		},
		{
			code: "SR-3002", name: "Collapsible Storage Box 40L",
			description: "Fabric with steel frame, foldable",
			retailPrice: 2600, smallBPrice: 2100, largeBPrice: 1800, bulkPrice: 1550, cheapPrice: 1300,
			length: "40", width: "30", height: "25", pcsPerCarton: "20", unitWeight: "0.85",
		},
	}

	productIDs := make(map[string]string, len(products))
	for _, d := range products {
		r := core.NewRecord(productsCol)
		r.Set("product_code", d.code)
		r.Set("product_name", d.name)
		r.Set("description", d.description)
		r.Set("retail_price", d.retailPrice)
		r.Set("small_b_price", d.smallBPrice)
		r.Set("large_b_price", d.largeBPrice)
		r.Set("bulk_price", d.bulkPrice)
		r.Set("cheap_price", d.cheapPrice)
		if d.imageURL != "" {
			r.Set("image_url", d.imageURL)
		}
		if d.length != "" {
			r.Set("length", d.length)
			r.Set("width", d.width)
			r.Set("height", d.height)
		}
		if d.pcsPerCarton != "" {
			r.Set("pcs_per_carton", d.pcsPerCarton)
		}
		if d.unitWeight != "" {
			r.Set("unit_weight", d.unitWeight)
		}
		if d.note != "" {
			r.Set("note", d.note)
		}
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: save product %q: %w", d.code, err)
		}
		productIDs[d.code] = r.Id
	}

	// ── helper: create quotation with snapshot items ─────────────────
	priceForLevel := func(d productDef, level string) int64 {
		switch level {
		case "retail":
			return d.retailPrice
		case "smallB":
			return d.smallBPrice
		case "largeB":
			return d.largeBPrice
		case "bulk":
			return d.bulkPrice
		case "cheap":
			return d.cheapPrice
		}
		return d.retailPrice
	}

	productByCode := func(code string) (productDef, error) {
		for _, d := range products {
			if d.code == code {
				return d, nil
			}
		}
		return productDef{}, fmt.Errorf("seed: unknown product code %q", code)
	}

	createQuotation := func(d quotationDef) error {
		var totalCents int64
		type snapshot struct {
			def quotationItemDef
			p   productDef
			sub int64
		}
		snapshots := make([]snapshot, 0, len(d.items))
		for _, item := range d.items {
			p, err := productByCode(item.productCode)
			if err != nil {
				return err
			}
			sub := priceForLevel(p, d.customerLevel) * int64(item.quantity)
			totalCents += sub
			snapshots = append(snapshots, snapshot{def: item, p: p, sub: sub})
		}

		q := core.NewRecord(quotationsCol)
		q.Set("quotation_number", d.number)
		q.Set("customer_name", d.customerName)
		q.Set("customer_address", d.customerAddress)
		q.Set("customer_level", d.customerLevel)
		q.Set("status", d.status)
		q.Set("total_amount", totalCents)
		q.Set("item_count", len(d.items))
		if err := app.Save(q); err != nil {
			return fmt.Errorf("seed: save quotation %q: %w", d.number, err)
		}

		for _, s := range snapshots {
			r := core.NewRecord(itemsCol)
			r.Set("quotation", q.Id)
			r.Set("sort_order", s.def.sortOrder)
			r.Set("product_code", s.p.code)
			r.Set("product_name", s.p.name)
			r.Set("quantity", s.def.quantity)
			r.Set("unit_price", priceForLevel(s.p, d.customerLevel))
			r.Set("subtotal", s.sub)
			if s.p.imageURL != "" {
				r.Set("image_url", s.p.imageURL)
			}
			if s.p.length != "" {
				r.Set("length", s.p.length)
				r.Set("width", s.p.width)
				r.Set("height", s.p.height)
			}
			if s.p.pcsPerCarton != "" {
				r.Set("pcs_per_carton", s.p.pcsPerCarton)
			}
			if s.p.unitWeight != "" {
				r.Set("unit_weight", s.p.unitWeight)
			}
			if s.p.note != "" {
				r.Set("note", s.p.note)
			}
			if err := app.Save(r); err != nil {
				return fmt.Errorf("seed: save quotation item %q: %w", s.p.code, err)
			}
		}
		return nil
	}

	quotations := []quotationDef{
		{
			number:          "QT-2025-0001",
			customerName:    "Nordic Home GmbH",
			customerAddress: "Industriestr. 14, 22113 Hamburg, Germany",
			customerLevel:   "largeB",
			status:          "sent",
			items: []quotationItemDef{
				{sortOrder: 1, productCode: "SR-1001", quantity: 500},
				{sortOrder: 2, productCode: "SR-1002", quantity: 1000},
				{sortOrder: 3, productCode: "SR-3002", quantity: 200},
			},
		},
		{
			number:          "QT-2025-0002",
			customerName:    "Blue Ocean Imports LLC",
			customerAddress: "2450 Harbor Blvd, Long Beach, CA 90802, USA",
			customerLevel:   "bulk",
			status:          "draft",
			items: []quotationItemDef{
				{sortOrder: 1, productCode: "SR-2001", quantity: 240},
				{sortOrder: 2, productCode: "SR-2002", quantity: 1200},
				{sortOrder: 3, productCode: "SR-3001", quantity: 600},
			},
		},
	}

	for _, d := range quotations {
		if err := createQuotation(d); err != nil {
			return err
		}
	}

	log.Println("seed: all seed data inserted successfully (1 company, 6 products, 2 quotations)")
	return nil
}
