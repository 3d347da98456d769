package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the products, company_info,
// quotations, quotation_items, quotation_exports and operation_logs
// collections exist.
//
// All price fields store minor units (cents/分) of the home currency as
// numbers; display conversion happens only at export time.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, "products", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "product_code", Required: true})
		c.Fields.Add(&core.TextField{Name: "product_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.TextField{Name: "image_url", Required: false})
		c.Fields.Add(&core.NumberField{Name: "retail_price", Required: false})
		c.Fields.Add(&core.NumberField{Name: "small_b_price", Required: false})
		c.Fields.Add(&core.NumberField{Name: "large_b_price", Required: false})
		c.Fields.Add(&core.NumberField{Name: "bulk_price", Required: false})
		c.Fields.Add(&core.NumberField{Name: "cheap_price", Required: false})
		c.Fields.Add(&core.TextField{Name: "length", Required: false})
		c.Fields.Add(&core.TextField{Name: "width", Required: false})
		c.Fields.Add(&core.TextField{Name: "height", Required: false})
		c.Fields.Add(&core.TextField{Name: "pcs_per_carton", Required: false})
		c.Fields.Add(&core.TextField{Name: "unit_weight", Required: false})
		c.Fields.Add(&core.TextField{Name: "unit_volume", Required: false})
		c.Fields.Add(&core.TextField{Name: "note", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "company_info", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "company_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "address", Required: false})
		c.Fields.Add(&core.TextField{Name: "phone", Required: false})
		c.Fields.Add(&core.TextField{Name: "email", Required: false})
		c.Fields.Add(&core.TextField{Name: "website", Required: false})
		c.Fields.Add(&core.TextField{Name: "bank_account", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	quotations := ensureCollection(app, "quotations", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "quotation_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "customer_name", Required: false})
		c.Fields.Add(&core.TextField{Name: "customer_address", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "customer_level",
			Required:  true,
			Values:    []string{"retail", "smallB", "largeB", "bulk", "cheap"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "total_amount", Required: false})
		c.Fields.Add(&core.NumberField{Name: "item_count", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "sent", "accepted", "rejected"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "quotation_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quotation",
			Required:      true,
			CollectionId:  quotations.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: true})
		// Product snapshot at quotation time; later product edits must not
		// change an issued quotation.
		c.Fields.Add(&core.TextField{Name: "product_code", Required: true})
		c.Fields.Add(&core.TextField{Name: "product_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "image_url", Required: false})
		c.Fields.Add(&core.NumberField{Name: "quantity", Required: true})
		c.Fields.Add(&core.NumberField{Name: "unit_price", Required: true})
		c.Fields.Add(&core.NumberField{Name: "subtotal", Required: true})
		c.Fields.Add(&core.TextField{Name: "length", Required: false})
		c.Fields.Add(&core.TextField{Name: "width", Required: false})
		c.Fields.Add(&core.TextField{Name: "height", Required: false})
		c.Fields.Add(&core.TextField{Name: "pcs_per_carton", Required: false})
		c.Fields.Add(&core.TextField{Name: "unit_weight", Required: false})
		c.Fields.Add(&core.TextField{Name: "unit_volume", Required: false})
		c.Fields.Add(&core.TextField{Name: "note", Required: false})
	})

	ensureCollection(app, "quotation_exports", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quotation",
			Required:      true,
			CollectionId:  quotations.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "file_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "export_data", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "operation_logs", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "operation", Required: true})
		c.Fields.Add(&core.TextField{Name: "target_type", Required: false})
		c.Fields.Add(&core.TextField{Name: "target_id", Required: false})
		c.Fields.Add(&core.TextField{Name: "detail", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
