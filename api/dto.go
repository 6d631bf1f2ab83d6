/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Ledger types already
  carry JSON tags and are returned directly where their shape is the
  contract (Receipt, StockMovement, Product, CompanyInfo). DTOs exist where a
  response adds derived fields or wraps several values.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

MUTATIONS:
  Every write endpoint answers with MutationResponse. Warning is set when the
  change took effect but the snapshot could not be saved.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/pos-ledger/catalog"
	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// ENVELOPES
// =============================================================================

// MutationResponse wraps the result of a write.
type MutationResponse struct {
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details any                 `json:"details,omitempty"`
	Fields  []ledger.FieldError `json:"fields,omitempty"`
}

// =============================================================================
// STOCK
// =============================================================================

// StockDTO is the on-hand balance of one SKU with its movement history.
type StockDTO struct {
	SKU     string                 `json:"sku"`
	Name    string                 `json:"name,omitempty"`
	Balance int64                  `json:"balance"`
	History []ledger.StockMovement `json:"history"`
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// DocumentDTO is a projected document with its derived status.
type DocumentDTO struct {
	ID string `json:"id"`
	ledger.Document
	IsMissing       bool   `json:"isMissing"`
	StatusLabel     string `json:"statusLabel"`
	PrimaryHeader   string `json:"primaryHeader"`
	SecondaryHeader string `json:"secondaryHeader"`
}

func toDocumentDTO(d ledger.Document) DocumentDTO {
	primary, secondary := d.Headers()
	return DocumentDTO{
		ID:              d.ID(),
		Document:        d,
		IsMissing:       d.IsMissing(),
		StatusLabel:     d.StatusLabel(),
		PrimaryHeader:   primary,
		SecondaryHeader: secondary,
	}
}

func toDocumentDTOs(docs []ledger.Document) []DocumentDTO {
	dtos := make([]DocumentDTO, len(docs))
	for i, d := range docs {
		dtos[i] = toDocumentDTO(d)
	}
	return dtos
}

// DocumentsResponse is the filtered view with its counters. TotalStats
// counts every document regardless of the filter.
type DocumentsResponse struct {
	Documents  []DocumentDTO       `json:"documents"`
	Stats      ledger.LinkageStats `json:"stats"`
	TotalStats ledger.LinkageStats `json:"totalStats"`
}

// LinkageRequest corrects the secondary id of one document.
type LinkageRequest struct {
	Type        string `json:"type"`
	PrimaryID   string `json:"primaryId"`
	SecondaryID string `json:"secondaryId"`
}

type LinkageResponse struct {
	Touched  int         `json:"touched"`
	Document DocumentDTO `json:"document"`
}

// =============================================================================
// CATALOG
// =============================================================================

// ImportResponse reports a catalog import.
type ImportResponse struct {
	ledger.ImportSummary
	Rejected []catalog.RowError `json:"rejected"`
	Skipped  int                `json:"skipped"`
}

// =============================================================================
// DRAFT
// =============================================================================

// PolishResponse reports a draft line polish. Applied is false when the line
// changed or disappeared while the text was being polished.
type PolishResponse struct {
	ItemID   string `json:"itemId"`
	Original string `json:"original"`
	Text     string `json:"text"`
	Applied  bool   `json:"applied"`
}

type TaxSuggestionDTO struct {
	Location string       `json:"location"`
	Rate     ledger.Money `json:"rate"`
}
