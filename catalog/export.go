package catalog

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/pos-ledger/ledger"
)

const StockReportSheet = "Inventory Master"

// ErrEmptyReport is returned when there is no stock line to export.
var ErrEmptyReport = errors.New("no stock to export")

var stockReportColumns = []struct {
	Header string
	Width  float64
}{
	{"SKU Code", 15},
	{"Description", 60},
	{"Stock Balance", 20},
}

// WriteStockReport writes lines as a single-sheet XLSX workbook.
func WriteStockReport(w io.Writer, lines []ledger.StockLine) error {
	if len(lines) == 0 {
		return ErrEmptyReport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StockReportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(stockReportColumns))
	for i, c := range stockReportColumns {
		header[i] = c.Header
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(StockReportSheet, col, col, c.Width); err != nil {
			return fmt.Errorf("set width of %s: %w", col, err)
		}
	}
	if err := f.SetSheetRow(StockReportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, line := range lines {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{line.Code, line.Name, line.Balance}
		if err := f.SetSheetRow(StockReportSheet, cellName, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}
