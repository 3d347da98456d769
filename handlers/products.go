package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// productView is the JSON shape for catalog responses. All five tier prices
// are exposed so the client can preview a quotation before saving it.
type productView struct {
	ID           string `json:"id"`
	ProductCode  string `json:"product_code"`
	ProductName  string `json:"product_name"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	RetailPrice  int64  `json:"retail_price"`
	SmallBPrice  int64  `json:"small_b_price"`
	LargeBPrice  int64  `json:"large_b_price"`
	BulkPrice    int64  `json:"bulk_price"`
	CheapPrice   int64  `json:"cheap_price"`
	Length       string `json:"length,omitempty"`
	Width        string `json:"width,omitempty"`
	Height       string `json:"height,omitempty"`
	PcsPerCarton string `json:"pcs_per_carton,omitempty"`
	UnitWeight   string `json:"unit_weight,omitempty"`
	Note         string `json:"note,omitempty"`
}

// HandleProductList returns a handler that lists the product catalog, with an
// optional ?q= substring match on code or name.
func HandleProductList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		col, err := app.FindCollectionByNameOrId("products")
		if err != nil {
			log.Printf("product_list: could not find products collection: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}

		filter := "id != ''"
		params := map[string]any{}
		if q := strings.TrimSpace(e.Request.URL.Query().Get("q")); q != "" {
			filter = "product_code ~ {:q} || product_name ~ {:q}"
			params["q"] = q
		}

		records, err := app.FindRecordsByFilter(col, filter, "product_code", 0, 0, params)
		if err != nil {
			records = nil
		}

		out := make([]productView, 0, len(records))
		for _, r := range records {
			out = append(out, productView{
				ID:           r.Id,
				ProductCode:  r.GetString("product_code"),
				ProductName:  r.GetString("product_name"),
				Description:  r.GetString("description"),
				ImageURL:     r.GetString("image_url"),
				RetailPrice:  int64(r.GetFloat("retail_price")),
				SmallBPrice:  int64(r.GetFloat("small_b_price")),
				LargeBPrice:  int64(r.GetFloat("large_b_price")),
				BulkPrice:    int64(r.GetFloat("bulk_price")),
				CheapPrice:   int64(r.GetFloat("cheap_price")),
				Length:       r.GetString("length"),
				Width:        r.GetString("width"),
				Height:       r.GetString("height"),
				PcsPerCarton: r.GetString("pcs_per_carton"),
				UnitWeight:   r.GetString("unit_weight"),
				Note:         r.GetString("note"),
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}
