// Package services implements the quotation export engine: line-item
// normalization, image resolution, and Excel/PDF document assembly.
package services

import "fmt"

// priceFields maps a customer-level key to the product record field holding
// that tier's unit price (minor units).
var priceFields = map[string]string{
	"retail": "retail_price",
	"smallB": "small_b_price",
	"largeB": "large_b_price",
	"bulk":   "bulk_price",
	"cheap":  "cheap_price",
}

// PriceFieldForLevel returns the product field name storing the unit price
// for a customer level.
func PriceFieldForLevel(level string) (string, error) {
	field, ok := priceFields[level]
	if !ok {
		return "", fmt.Errorf("pricing: unknown customer level %q", level)
	}
	return field, nil
}

// QuotationTotals aggregates a quotation in stored minor units. These feed
// the persisted quotation record and the export-history summary; display
// conversion happens only inside the export engine.
type QuotationTotals struct {
	ItemCount  int
	TotalCents int64
}

// CalcQuotationTotals sums the trusted per-item subtotals.
func CalcQuotationTotals(items []LineItem) QuotationTotals {
	totals := QuotationTotals{ItemCount: len(items)}
	for _, item := range items {
		totals.TotalCents += item.SubtotalCents
	}
	return totals
}
