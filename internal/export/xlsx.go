package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/isv-promotor/stockreview/internal/stock"
)

// SheetName is the worksheet holding exported rows.
const SheetName = "Estoque"

// WriteXLSX writes the same columns as WriteCSV into a workbook.
func WriteXLSX(w io.Writer, products []stock.Product) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("export: stream writer: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, label := range Columns {
		header[i] = label
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			p.SKU, p.Description, p.Packaging, p.Supplier,
			p.Emb1, p.Emb9, p.Age, p.MissSale, p.Sector,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return f.Write(w)
}
