// Package export renders variant drafts as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lelekart/variantmatrix/internal/domain"
	"github.com/lelekart/variantmatrix/pkg/slug"
)

const (
	SheetName   = "Variants"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var fixedHeaders = []string{"SKU", "Price", "MRP", "Stock", "Enabled", "Images"}

// Filename returns the download name for the draft's export.
func Filename(d *domain.Draft) string {
	return slug.Filename(d.ProductName, "variants", "xlsx", "product")
}

// WriteMatrix writes the draft's rows as an XLSX workbook to w: one column per
// attribute, then the commercial fields. Prices are in minor units and
// placeholder images are left out.
func WriteMatrix(w io.Writer, d *domain.Draft) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	headers := make([]string, 0, len(d.Attributes)+len(fixedHeaders))
	for _, a := range d.Attributes {
		headers = append(headers, a.Name)
	}
	headers = append(headers, fixedHeaders...)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", h, err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, 18); err != nil {
			return err
		}
	}

	for r, row := range d.Rows {
		values := make([]any, 0, len(headers))
		for _, a := range d.Attributes {
			values = append(values, row.Combination.Value(a.Name))
		}
		values = append(values,
			row.SKU,
			row.Price,
			row.MRP,
			row.Stock,
			yesNo(row.Enabled),
			strings.Join(row.RealImages(), "\n"),
		)

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", row.Label, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
