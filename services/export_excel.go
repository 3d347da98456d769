package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Placeholder text for missing company profile fields.
const (
	placeholderCompanyName = "Company Name"
	placeholderAddress     = "Company Address"
	placeholderPhone       = "Tel: -"
	placeholderEmail       = "Email: -"
	placeholderBankInfo    = "Bank Info: -"
)

const sheetName = "Quotation"

// ExportQuotationExcel runs the full export: validation, image resolution,
// then the single-sheet document assembly. It returns the xlsx bytes or a
// single error; a failed call never yields a partial buffer.
func ExportQuotationExcel(ctx context.Context, opts ExportOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Every image attempt completes before any row layout begins.
	images := ResolveImages(ctx, opts.Items, opts.ResolveImage, opts.HTTPClient)

	return buildQuotationWorkbook(opts, images)
}

// buildQuotationWorkbook lays out the proforma-invoice grid. The pass is
// strictly linear: header block, customer block, shipping terms, column
// header, data rows with anchored images, totals, then the footer sections.
func buildQuotationWorkbook(opts ExportOptions, images []ImageResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G"}
	widths := []float64{8.93, 15.53, 19.07, 15, 15.27, 15.73, 19.73}
	if opts.IncludeDimensions {
		columns = append(columns, "H", "I", "J", "K", "L", "M", "N", "O")
		widths = append(widths, 8, 8, 8, 8, 8, 8, 8, 15)
	}
	lastCol := columns[len(columns)-1]

	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	styles, err := newQuotationStyles(f)
	if err != nil {
		return nil, err
	}

	symbol := opts.currencyTable()[opts.Currency].Symbol
	rate := opts.effectiveRate()

	// ── Header block ────────────────────────────────────────────────────

	company := opts.Company
	if company == nil {
		company = &CompanyInfo{}
	}

	row := 1
	if err := writeMergedRow(f, "A", lastCol, row, orPlaceholder(company.CompanyName, placeholderCompanyName), styles.company); err != nil {
		return nil, err
	}
	f.SetRowHeight(sheetName, row, 26.6)
	row++

	contact := orPlaceholder(company.Address, placeholderAddress) + "    " +
		orPlaceholder(prefixed("Tel: ", company.Phone), placeholderPhone) + "    " +
		orPlaceholder(prefixed("Email: ", company.Email), placeholderEmail)
	if err := writeMergedRow(f, "A", lastCol, row, contact, styles.contact); err != nil {
		return nil, err
	}
	row++

	if err := writeMergedRow(f, "A", lastCol, row, "QUOTATION", styles.title); err != nil {
		return nil, err
	}
	f.SetRowHeight(sheetName, row, 27.6)
	row++

	date := "Date: " + time.Now().Format("2006-01-02")
	if err := writeMergedRow(f, "A", lastCol, row, date, styles.date); err != nil {
		return nil, err
	}
	row++

	// ── Customer block + shipping terms ─────────────────────────────────

	if err := f.MergeCell(sheetName, cell("A", row), cell("D", row)); err != nil {
		return nil, fmt.Errorf("merge customer row: %w", err)
	}
	f.SetCellValue(sheetName, cell("A", row), "To: "+opts.CustomerName)
	f.SetCellValue(sheetName, cell("E", row), "Notify:")
	row++

	if err := f.MergeCell(sheetName, cell("A", row), cell("D", row)); err != nil {
		return nil, fmt.Errorf("merge address row: %w", err)
	}
	// Customer fields have no placeholder: an unknown address stays blank.
	f.SetCellValue(sheetName, cell("A", row), opts.CustomerAddress)
	f.SetCellValue(sheetName, cell("E", row), "Shipping Marks:")
	row++

	if err := f.MergeCell(sheetName, cell("A", row), cell("B", row)); err != nil {
		return nil, fmt.Errorf("merge terms row: %w", err)
	}
	if err := f.MergeCell(sheetName, cell("C", row), cell("D", row)); err != nil {
		return nil, fmt.Errorf("merge terms row: %w", err)
	}
	f.SetCellValue(sheetName, cell("E", row), "Shipped VIA:")
	row += 2 // spacer before the table

	// ── Column header ───────────────────────────────────────────────────

	headers := []string{
		"No.", "Item No.", "Description", "Image", "QTY / Level",
		"Unit Price(" + symbol + ")", "Amount(" + symbol + ")",
	}
	if opts.IncludeDimensions {
		headers = append(headers, "L/cm", "W/cm", "H/cm", "m³", "CTN", "CBM/m³", "NW/kg", "Note")
	}
	headerRow := row
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(columns[i], headerRow), h)
	}
	f.SetCellStyle(sheetName, cell("A", headerRow), cell(lastCol, headerRow), styles.header)
	f.SetRowHeight(sheetName, headerRow, 31.5)
	row++

	// ── Data rows ───────────────────────────────────────────────────────

	firstDataRow := row
	totalAmount := decimal.Zero
	totalVolume := decimal.Zero

	for i, item := range opts.Items {
		r := firstDataRow + i
		metrics := NormalizeItem(item)

		unitPrice := ConvertCents(item.UnitPriceCents, rate)
		amount := ConvertCents(item.SubtotalCents, rate)
		totalAmount = totalAmount.Add(amount)

		f.SetCellValue(sheetName, cell("A", r), i+1)
		f.SetCellValue(sheetName, cell("B", r), sanitizeExcelCell(item.ProductCode))
		f.SetCellValue(sheetName, cell("C", r), sanitizeExcelCell(item.ProductName))
		// D stays empty; the image overlay anchors into it below.
		if item.CustomerLevel != "" {
			f.SetCellValue(sheetName, cell("E", r), fmt.Sprintf("%d / %s", item.Quantity, opts.levelLabel(item.CustomerLevel)))
		} else {
			f.SetCellValue(sheetName, cell("E", r), item.Quantity)
		}
		f.SetCellValue(sheetName, cell("F", r), unitPrice.InexactFloat64())
		f.SetCellValue(sheetName, cell("G", r), amount.InexactFloat64())

		if opts.IncludeDimensions {
			if metrics.HasDim {
				f.SetCellValue(sheetName, cell("H", r), roundTo(metrics.Length, 0).IntPart())
				f.SetCellValue(sheetName, cell("I", r), roundTo(metrics.Width, 0).IntPart())
				f.SetCellValue(sheetName, cell("J", r), roundTo(metrics.Height, 0).IntPart())
			}
			if metrics.HasUnitVolume {
				f.SetCellValue(sheetName, cell("K", r), roundTo(metrics.UnitVolume, 4).InexactFloat64())
			}
			if metrics.HasCartonCount {
				f.SetCellValue(sheetName, cell("L", r), roundTo(metrics.CartonCount, 2).InexactFloat64())
			}
			if metrics.HasTotalVolume {
				rowVolume := roundTo(metrics.TotalVolume, 4)
				totalVolume = totalVolume.Add(rowVolume)
				f.SetCellValue(sheetName, cell("M", r), rowVolume.InexactFloat64())
			}
			if metrics.HasNetWeight {
				f.SetCellValue(sheetName, cell("N", r), roundTo(metrics.NetWeight, 2).InexactFloat64())
			}
			if item.Note != "" {
				f.SetCellValue(sheetName, cell("O", r), sanitizeExcelCell(item.Note))
			}
		}

		f.SetRowHeight(sheetName, r, 120)
	}
	row = firstDataRow + len(opts.Items)

	// ── Image overlay ───────────────────────────────────────────────────

	for i, img := range images {
		if img.Outcome != ImageResolved {
			continue
		}
		anchor := cell("D", firstDataRow+i)
		err := f.AddPictureFromBytes(sheetName, anchor, &excelize.Picture{
			Extension: img.Extension,
			File:      img.Data,
			Format: &excelize.GraphicOptions{
				AutoFit:     true,
				OffsetX:     4,
				OffsetY:     4,
				Positioning: "oneCell",
			},
		})
		if err != nil {
			// A corrupt image degrades to an empty cell, like a failed fetch.
			continue
		}
	}

	// ── Totals row ──────────────────────────────────────────────────────

	totalRow := row
	if err := f.MergeCell(sheetName, cell("A", totalRow), cell("F", totalRow)); err != nil {
		return nil, fmt.Errorf("merge total row: %w", err)
	}
	f.SetCellValue(sheetName, cell("A", totalRow), "TOTAL")
	f.SetCellValue(sheetName, cell("G", totalRow), totalAmount.InexactFloat64())
	if opts.IncludeDimensions && !totalVolume.IsZero() {
		f.SetCellValue(sheetName, cell("M", totalRow), totalVolume.InexactFloat64())
	}
	f.SetRowHeight(sheetName, totalRow, 30)
	row++

	// ── Footer sections ─────────────────────────────────────────────────

	footer := []struct {
		text  string
		style int
	}{
		{AmountInWords(opts.Currency, totalAmount), styles.say},
		{"REMARK:", styles.footer},
		{"1. Payment Terms: T/T 30% deposit, balance before shipment.", styles.footer},
		{"2. Delivery Time: 25-30 days after deposit received.", styles.footer},
		{"3. Validity: 30 days from the date above.", styles.footer},
		{orPlaceholder(prefixed("Bank Info: ", company.BankAccount), placeholderBankInfo), styles.footer},
	}
	for _, line := range footer {
		if err := writeMergedRow(f, "A", lastCol, row, line.text, line.style); err != nil {
			return nil, err
		}
		row++
	}

	signatureRow := row
	if err := f.MergeCell(sheetName, cell("A", signatureRow), cell("D", signatureRow)); err != nil {
		return nil, fmt.Errorf("merge signature row: %w", err)
	}
	f.SetCellValue(sheetName, cell("A", signatureRow), orPlaceholder(company.CompanyName, placeholderCompanyName))
	f.SetCellValue(sheetName, cell("F", signatureRow), "Authorized Signature:")
	f.SetCellStyle(sheetName, cell("A", signatureRow), cell(lastCol, signatureRow), styles.footer)
	f.SetRowHeight(sheetName, signatureRow, 40)

	finalizeBorders(f, styles, lastCol, firstDataRow, totalRow, len(opts.Items))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// finalizeBorders runs after the final row extent is known: it restyles the
// data region so every cell (including empty dimension cells) carries
// gridlines, and borders the totals row across the full table width.
func finalizeBorders(f *excelize.File, styles quotationStyles, lastCol string, firstDataRow, totalRow, itemCount int) {
	if itemCount > 0 {
		f.SetCellStyle(sheetName, cell("A", firstDataRow), cell(lastCol, firstDataRow+itemCount-1), styles.cell)
	}
	f.SetCellStyle(sheetName, cell("A", totalRow), cell(lastCol, totalRow), styles.total)
}

// quotationStyles bundles the style ids used across the layout pass.
type quotationStyles struct {
	company int
	contact int
	title   int
	date    int
	header  int
	cell    int
	total   int
	say     int
	footer  int
}

func newQuotationStyles(f *excelize.File) (quotationStyles, error) {
	var s quotationStyles
	var err error

	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	s.company, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "#0000FF"},
		Alignment: center,
	})
	if err != nil {
		return s, fmt.Errorf("create company style: %w", err)
	}

	s.contact, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: center,
	})
	if err != nil {
		return s, fmt.Errorf("create contact style: %w", err)
	}

	s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: center,
	})
	if err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}

	s.date, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Underline: "single"},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("create date style: %w", err)
	}

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: center,
		Border:    thinBorders(),
	})
	if err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	s.cell, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return s, fmt.Errorf("create cell style: %w", err)
	}

	s.total, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: center,
		Border:    thinBorders(),
	})
	if err != nil {
		return s, fmt.Errorf("create total style: %w", err)
	}

	s.say, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("create say style: %w", err)
	}

	s.footer, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("create footer style: %w", err)
	}

	return s, nil
}

// writeMergedRow merges one row across the given columns, writes a value and
// applies a style.
func writeMergedRow(f *excelize.File, firstCol, lastCol string, row int, value string, style int) error {
	if err := f.MergeCell(sheetName, cell(firstCol, row), cell(lastCol, row)); err != nil {
		return fmt.Errorf("merge row %d: %w", row, err)
	}
	f.SetCellValue(sheetName, cell(firstCol, row), value)
	f.SetCellStyle(sheetName, cell(firstCol, row), cell(lastCol, row), style)
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// orPlaceholder returns s, or the placeholder when s is empty.
func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// prefixed returns prefix+s, or "" when s is empty so the placeholder logic
// can take over.
func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
