package services

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

// ExportQuotationPDF renders the compact PDF variant of a quotation using
// maroto/v2. It shares the validation, conversion and normalization rules
// with the Excel export but uses the dimension display string instead of the
// per-metric column breakdown, and embeds no images.
func ExportQuotationPDF(_ context.Context, opts ExportOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	symbol := opts.currencyTable()[opts.Currency].Symbol
	rate := opts.effectiveRate()

	addQuotationHeader(m, opts)
	addQuotationTableHeader(m, opts, symbol)

	total := decimal.Zero
	for i, item := range opts.Items {
		total = total.Add(addQuotationRow(m, opts, item, i, rate, symbol))
	}

	addQuotationSummary(m, opts, symbol, total)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// addQuotationHeader adds the company name, document title and date.
func addQuotationHeader(m core.Maroto, opts ExportOptions) {
	company := opts.Company
	if company == nil {
		company = &CompanyInfo{}
	}

	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(orPlaceholder(company.CompanyName, placeholderCompanyName), props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
					Color: &props.Color{Blue: 255},
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New("QUOTATION", props.Text{
					Size:  12,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(
				text.New("To: "+opts.CustomerName, props.Text{
					Size:  9,
					Align: align.Left,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
			col.New(6).Add(
				text.New("Date: "+time.Now().Format("2006-01-02"), props.Text{
					Size:  9,
					Align: align.Right,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)

	// Spacer
	m.AddRows(row.New(4))
}

// addQuotationTableHeader adds the column header row.
func addQuotationTableHeader(m core.Maroto, opts ExportOptions, symbol string) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	cols := []core.Col{
		col.New(1).Add(text.New("No.", headerText)).WithStyle(&headerCell),
		col.New(2).Add(text.New("Item No.", headerTextLeft)).WithStyle(&headerCell),
		col.New(3).Add(text.New("Description", headerTextLeft)).WithStyle(&headerCell),
		col.New(1).Add(text.New("QTY", headerText)).WithStyle(&headerCell),
	}
	if opts.IncludeDimensions {
		cols = append(cols,
			col.New(2).Add(text.New("Dimensions", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("CTN", headerText)).WithStyle(&headerCell),
		)
	} else {
		cols = append(cols,
			col.New(3).Add(text.New("", headerText)).WithStyle(&headerCell),
		)
	}
	cols = append(cols,
		col.New(1).Add(text.New("Price("+symbol+")", headerText)).WithStyle(&headerCell),
		col.New(1).Add(text.New("Amount("+symbol+")", headerText)).WithStyle(&headerCell),
	)

	m.AddRows(row.New(8).Add(cols...))
}

// addQuotationRow adds one line item row and returns its rounded display
// amount so the caller can accumulate the grand total.
func addQuotationRow(m core.Maroto, opts ExportOptions, item LineItem, index int, rate float64, symbol string) decimal.Decimal {
	baseText := props.Text{Size: 7, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	unitPrice := ConvertCents(item.UnitPriceCents, rate)
	amount := ConvertCents(item.SubtotalCents, rate)

	qtyStr := fmt.Sprintf("%d", item.Quantity)
	if item.CustomerLevel != "" {
		qtyStr = fmt.Sprintf("%d / %s", item.Quantity, opts.levelLabel(item.CustomerLevel))
	}

	cols := []core.Col{
		col.New(1).Add(text.New(fmt.Sprintf("%d", index+1), baseText)),
		col.New(2).Add(text.New(item.ProductCode, leftText)),
		col.New(3).Add(text.New(item.ProductName, leftText)),
		col.New(1).Add(text.New(qtyStr, baseText)),
	}
	if opts.IncludeDimensions {
		metrics := NormalizeItem(item)
		ctn := ""
		if metrics.HasCartonCount {
			ctn = roundTo(metrics.CartonCount, 2).String()
		}
		cols = append(cols,
			col.New(2).Add(text.New(DimensionDisplay(item), baseText)),
			col.New(1).Add(text.New(ctn, baseText)),
		)
	} else {
		cols = append(cols, col.New(3).Add(text.New("", baseText)))
	}
	cols = append(cols,
		col.New(1).Add(text.New(FormatMoney(symbol, unitPrice), rightText)),
		col.New(1).Add(text.New(FormatMoney(symbol, amount), rightText)),
	)

	m.AddRows(row.New(7).Add(cols...))

	return amount
}

// addQuotationSummary adds the total row and the SAY line.
func addQuotationSummary(m core.Maroto, opts ExportOptions, symbol string, total decimal.Decimal) {
	m.AddRows(row.New(4))

	summaryBg := &props.Color{Red: 240, Green: 240, Blue: 240}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(
				text.New("TOTAL", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			).WithStyle(summaryCell),
			col.New(3).Add(
				text.New(FormatMoney(symbol, total), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			).WithStyle(summaryCell),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(AmountInWords(opts.Currency, total), props.Text{
					Size:  8,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
		),
	)
}
