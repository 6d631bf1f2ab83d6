/*
Package catalog reads product catalogs from spreadsheets and writes stock
reports back out.

COLUMN DETECTION:
  Supplier sheets rarely agree on headers. Each field has a header pattern
  and a fallback position; fields are resolved in order (code, name, price,
  quantity) and a column claimed by an earlier field is not offered to later
  ones. "Item Code" therefore becomes the code column, never the name column.

  Field     Pattern                                  Fallback
  code      code|sku|id|reference|item#|part         column 0
  name      name|description|desc|item|product       column 1
  price     price|rate|cost|value|amount             column 2
  quantity  qty|quantity|stock|balance|onhand|units  column 3
*/
package catalog

import (
	"regexp"
	"strings"
)

// Field is one column the importer needs.
type Field string

const (
	FieldCode     Field = "code"
	FieldName     Field = "name"
	FieldPrice    Field = "price"
	FieldQuantity Field = "quantity"
)

// ColumnRule locates one field in a header row.
type ColumnRule struct {
	Field    Field
	Pattern  *regexp.Regexp
	Fallback int // -1 disables the positional fallback
}

// ColumnMapping is an ordered rule set; earlier rules claim columns first.
type ColumnMapping []ColumnRule

func DefaultMapping() ColumnMapping {
	return ColumnMapping{
		{Field: FieldCode, Pattern: regexp.MustCompile(`(?i)code|sku|id|reference|item#|part`), Fallback: 0},
		{Field: FieldName, Pattern: regexp.MustCompile(`(?i)name|description|desc|item|product`), Fallback: 1},
		{Field: FieldPrice, Pattern: regexp.MustCompile(`(?i)price|rate|cost|value|amount`), Fallback: 2},
		{Field: FieldQuantity, Pattern: regexp.MustCompile(`(?i)qty|quantity|stock|balance|onhand|units`), Fallback: 3},
	}
}

// Expected describes the mapping for error messages.
func (m ColumnMapping) Expected() string {
	names := make([]string, len(m))
	for i, r := range m {
		names[i] = string(r.Field)
	}
	return strings.Join(names, ", ")
}

// Resolve maps each field to a column index in header, or -1.
func (m ColumnMapping) Resolve(header []string) map[Field]int {
	claimed := make(map[int]bool, len(m))
	cols := make(map[Field]int, len(m))

	for _, rule := range m {
		col := -1
		for i, h := range header {
			if !claimed[i] && rule.Pattern.MatchString(strings.TrimSpace(h)) {
				col = i
				break
			}
		}
		if col < 0 && rule.Fallback >= 0 && rule.Fallback < len(header) && !claimed[rule.Fallback] {
			col = rule.Fallback
		}
		if col >= 0 {
			claimed[col] = true
		}
		cols[rule.Field] = col
	}
	return cols
}
