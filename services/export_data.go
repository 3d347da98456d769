package services

import (
	"fmt"
	"net/http"
)

// HomeCurrency is the currency quotation prices are stored in.
// Stored amounts are always minor units (cents/分) of this currency.
const HomeCurrency = "CNY"

// DefaultExchangeRate is the fallback foreign-exchange rate (CNY per USD)
// used when the caller supplies none for a foreign-currency export.
const DefaultExchangeRate = 7.2

// Currency describes a supported export currency.
type Currency struct {
	Code   string
	Symbol string
	Name   string
}

// DefaultCurrencies returns the built-in currency table. Callers may pass
// their own table through ExportOptions.Currencies instead.
func DefaultCurrencies() map[string]Currency {
	return map[string]Currency{
		"CNY": {Code: "CNY", Symbol: "¥", Name: "人民币"},
		"USD": {Code: "USD", Symbol: "$", Name: "美元"},
	}
}

// DefaultLevelLabels returns the built-in customer price-level display labels.
func DefaultLevelLabels() map[string]string {
	return map[string]string{
		"retail": "零售价",
		"smallB": "小B价",
		"largeB": "大B价",
		"bulk":   "批发价",
		"cheap":  "白菜价",
	}
}

// LineItem is one priced product entry of a quotation. Prices are already
// resolved by the caller; Subtotal is trusted, never recomputed here.
//
// The physical attributes are numeric strings as stored upstream. An empty
// string means absent; a non-numeric value is treated the same as absent.
type LineItem struct {
	ProductCode string
	ProductName string
	ImageURL    string // optional; empty means no image is fetched or drawn

	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
	CustomerLevel  string // optional pricing-tier key, echoed into the QTY/Level column

	Length       string // cm
	Width        string // cm
	Height       string // cm
	PcsPerCarton string // may be fractional
	UnitWeight   string // kg
	UnitVolume   string // m³, pre-computed fallback when dimensions are absent
	Note         string
}

// CompanyInfo is the issuing company snapshot rendered into the header and
// footer. Missing fields fall back to fixed placeholder text.
type CompanyInfo struct {
	CompanyName string
	Address     string
	Phone       string
	Email       string
	Website     string
	BankAccount string
}

// ImageResolverFunc resolves an image reference to either a data-URI string
// ("data:image/png;base64,....") or a bare base64 payload. Returning an empty
// string with a nil error means the resolver has no image for the reference.
type ImageResolverFunc func(url string) (string, error)

// ExportOptions carries everything needed for one export invocation.
// All fields are request-scoped; the engine keeps no state across calls.
type ExportOptions struct {
	Items []LineItem // output row order follows this order verbatim

	Currency          string  // currency code, must exist in the currency table
	ExchangeRate      float64 // foreign units per home unit; ignored for home currency
	IncludeDimensions bool

	CustomerName    string
	CustomerAddress string
	Company         *CompanyInfo

	// Currencies and LevelLabels default to the built-in tables when nil.
	Currencies  map[string]Currency
	LevelLabels map[string]string

	// ResolveImage is tried first for each image reference. When nil or
	// unsuccessful, the engine falls back to a direct HTTP fetch using
	// HTTPClient (or a default client with a 30s timeout).
	ResolveImage ImageResolverFunc
	HTTPClient   *http.Client
}

// currencyTable returns the effective currency table for this export.
func (o *ExportOptions) currencyTable() map[string]Currency {
	if o.Currencies != nil {
		return o.Currencies
	}
	return DefaultCurrencies()
}

// levelLabel returns the display label for a customer-level key, falling back
// to the raw key when no label is configured.
func (o *ExportOptions) levelLabel(key string) string {
	labels := o.LevelLabels
	if labels == nil {
		labels = DefaultLevelLabels()
	}
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}

// effectiveRate returns the divisor applied to home-currency amounts.
// Home-currency exports always use 1 regardless of the supplied rate.
func (o *ExportOptions) effectiveRate() float64 {
	if o.Currency == HomeCurrency {
		return 1
	}
	return o.ExchangeRate
}

// Validate checks the invocation-level input contract. It must pass before
// any layout or image work begins so a bad call never yields a partial buffer.
func (o *ExportOptions) Validate() error {
	if len(o.Items) == 0 {
		return fmt.Errorf("export: no line items")
	}
	if _, ok := o.currencyTable()[o.Currency]; !ok {
		return fmt.Errorf("export: unsupported currency %q", o.Currency)
	}
	if o.Currency != HomeCurrency && o.ExchangeRate <= 0 {
		return fmt.Errorf("export: exchange rate must be positive for %s, got %v", o.Currency, o.ExchangeRate)
	}
	for i, item := range o.Items {
		if item.ProductCode == "" {
			return fmt.Errorf("export: item %d has no product code", i+1)
		}
		if item.ProductName == "" {
			return fmt.Errorf("export: item %d has no product name", i+1)
		}
	}
	return nil
}
