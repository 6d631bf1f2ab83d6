package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/pos-ledger/ledger"
)

// RowError explains why one data row was rejected. Row is the 1-based line
// in the sheet, header included.
type RowError struct {
	Row     int    `json:"row"`
	Field   Field  `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s %q: %s", e.Row, e.Field, e.Value, e.Message)
}

// Result is the typed content of one import file.
type Result struct {
	Rows     []ledger.CatalogRow `json:"rows"`
	Rejected []RowError          `json:"rejected"`
	Skipped  int                 `json:"skipped"` // rows without code or name
}

// Parse reads a catalog file. Files named *.csv are read as CSV; anything
// else is opened as a workbook and its first sheet is used.
//
// Rows missing a code or a name are skipped. Rows whose price or quantity
// cannot be read are rejected individually. A file that yields no valid row
// fails as a whole with *ledger.ImportError.
func Parse(filename string, r io.Reader, mapping ColumnMapping) (*Result, error) {
	if mapping == nil {
		mapping = DefaultMapping()
	}

	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		records, err = readCSV(r)
	} else {
		records, err = readWorkbook(r)
	}
	if err != nil {
		return nil, &ledger.ImportError{Source: filename, Reason: "file could not be read", Err: err}
	}

	res := parseRecords(records, mapping)
	if len(res.Rows) == 0 {
		return res, &ledger.ImportError{Source: filename, Reason: "no data detected", Expected: mapping.Expected()}
	}
	return res, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// =============================================================================
// ROW PARSING
// =============================================================================

func parseRecords(records [][]string, mapping ColumnMapping) *Result {
	res := &Result{Rows: []ledger.CatalogRow{}}
	if len(records) == 0 {
		return res
	}

	cols := mapping.Resolve(records[0])
	for i, record := range records[1:] {
		line := i + 2
		if blank(record) {
			continue
		}

		code := cell(record, cols[FieldCode])
		name := cell(record, cols[FieldName])
		if code == "" || name == "" {
			res.Skipped++
			continue
		}

		rawPrice := cell(record, cols[FieldPrice])
		price, err := parseAmount(rawPrice)
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Row: line, Field: FieldPrice, Value: rawPrice, Message: err.Error()})
			continue
		}

		rawQty := cell(record, cols[FieldQuantity])
		qty, err := parseQuantity(rawQty)
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Row: line, Field: FieldQuantity, Value: rawQty, Message: err.Error()})
			continue
		}

		res.Rows = append(res.Rows, ledger.CatalogRow{Code: code, Name: name, Price: price, Quantity: qty})
	}
	return res
}

func cell(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Currency symbols, spaces and thousands separators.
var numericNoise = regexp.MustCompile(`[^0-9.]`)

// parseAmount reads "Rs 1,250.00" as 1250.00. An empty cell is zero; a
// cell with no digits at all is an error.
func parseAmount(raw string) (ledger.Money, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	cleaned := numericNoise.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	return d, nil
}

func parseQuantity(raw string) (int64, error) {
	d, err := parseAmount(raw)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity must be a whole number")
	}
	return d.IntPart(), nil
}
