/*
projection.go - Reconciliation & linkage view

PURPOSE:
  Turns receipts and movement rows into one row per logical business
  document, so an auditor can see which documents still lack their
  cross-reference (invoice no., supplier ref, waybill).

GROUPING:
  Receipt                   -> one row each
  TRANSFER_IN / TRANSFER_OUT -> grouped by (type, reference), one row per group
  SALE                      -> excluded; already represented by its receipt

  A delivery note split over three SKUs is three movement rows but one
  document row with three items.

SECONDARY ID:
  Receipts: RelatedInvoiceNo.
  Groups: the first row with a non-empty AssociatedWTN. Store.CorrectLinkage
  writes all rows of a group together, so rows normally agree.

STATUS:
  IsMissing and StatusLabel are methods, computed from SecondaryID and Kind.
  There is no stored status that could drift.

ORDER:
  Date descending, stable (ties keep grouping order: receipts first, then
  groups in first-seen order).
*/
package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DocumentKind is the type of a logical document in the reconciliation view.
type DocumentKind string

const (
	DocumentReceipt     DocumentKind = "RECEIPT"
	DocumentTransferIn  DocumentKind = DocumentKind(MovementTransferIn)
	DocumentTransferOut DocumentKind = DocumentKind(MovementTransferOut)
)

func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch k := DocumentKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case DocumentReceipt, DocumentTransferIn, DocumentTransferOut:
		return k, true
	}
	return "", false
}

// DefaultEntity names a receipt with no customer.
const DefaultEntity = "CASH SALE"

// =============================================================================
// DOCUMENT
// =============================================================================

type DocumentItem struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Quantity int64  `json:"qty"`
	Rate     *Money `json:"rate,omitempty"` // receipts only
}

type Document struct {
	Kind          DocumentKind   `json:"type"`
	Date          Date           `json:"date"`
	PrimaryID     string         `json:"primaryId"`
	SecondaryID   string         `json:"secondaryId"`
	Entity        string         `json:"entity"`
	Items         []DocumentItem `json:"items"`
	PaymentMethod PaymentMethod  `json:"paymentMethod,omitempty"`
	Total         *Money         `json:"total,omitempty"`
}

// ID is unique across the projection.
func (d Document) ID() string {
	if d.Kind == DocumentReceipt {
		return "rct-" + d.PrimaryID
	}
	return "mv-" + string(d.Kind) + "-" + d.PrimaryID
}

func (d Document) IsMissing() bool {
	return d.SecondaryID == ""
}

func (d Document) StatusLabel() string {
	if !d.IsMissing() {
		return "LINKED"
	}
	switch d.Kind {
	case DocumentReceipt:
		return "MISSING INVOICE"
	case DocumentTransferIn:
		return "MISSING REF"
	default:
		return "MISSING WTN"
	}
}

// Headers returns the captions of the primary and secondary id columns.
func (d Document) Headers() (primary, secondary string) {
	switch d.Kind {
	case DocumentReceipt:
		return "Receipt #", "Invoice #"
	case DocumentTransferIn:
		return "Order #", "Supplier Ref"
	default:
		return "DN #", "WTN #"
	}
}

func (d Document) matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(d.PrimaryID), q) ||
		strings.Contains(strings.ToLower(d.SecondaryID), q) ||
		strings.Contains(strings.ToLower(d.Entity), q)
}

// =============================================================================
// GROUPING
// =============================================================================

type groupKey struct {
	Type      MovementType
	Reference string
}

// BuildDocuments groups receipts and transfer movements into documents,
// receipts first, groups in first-seen order. It does not sort.
func BuildDocuments(receipts []Receipt, movements []StockMovement) []Document {
	docs := make([]Document, 0, len(receipts))

	for _, r := range receipts {
		items := make([]DocumentItem, len(r.Items))
		total := decimal.Zero
		for i, it := range r.Items {
			rate := it.Rate
			items[i] = DocumentItem{Code: it.Code, Name: it.Description, Quantity: it.Quantity, Rate: &rate}
			total = total.Add(LineTotal(it))
		}
		entity := r.ReceivedFrom
		if entity == "" {
			entity = DefaultEntity
		}
		docs = append(docs, Document{
			Kind:          DocumentReceipt,
			Date:          r.Date,
			PrimaryID:     r.ReceiptNumber,
			SecondaryID:   r.RelatedInvoiceNo,
			Entity:        entity,
			Items:         items,
			PaymentMethod: r.PaymentMethod,
			Total:         &total,
		})
	}

	index := make(map[groupKey]int)
	for _, m := range movements {
		if !m.Type.IsTransfer() {
			continue
		}
		key := groupKey{Type: m.Type, Reference: m.Reference}
		i, ok := index[key]
		if !ok {
			i = len(docs)
			index[key] = i
			docs = append(docs, Document{
				Kind:      DocumentKind(m.Type),
				Date:      m.Date,
				PrimaryID: m.Reference,
				Entity:    m.Location,
			})
		}
		doc := &docs[i]
		if doc.SecondaryID == "" {
			doc.SecondaryID = m.AssociatedWTN
		}
		doc.Items = append(doc.Items, DocumentItem{Code: m.ItemCode, Name: m.ItemName, Quantity: m.Quantity})
	}

	return docs
}

// =============================================================================
// FILTER & SORT
// =============================================================================

type DocumentFilter struct {
	ShowOnlyMissing bool
	SearchQuery     string
}

// Project builds, filters and sorts the reconciliation view.
func Project(receipts []Receipt, movements []StockMovement, filter DocumentFilter) []Document {
	all := BuildDocuments(receipts, movements)

	docs := all[:0]
	for _, d := range all {
		if filter.ShowOnlyMissing && !d.IsMissing() {
			continue
		}
		if !d.matches(filter.SearchQuery) {
			continue
		}
		docs = append(docs, d)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Date.After(docs[j].Date)
	})
	return docs
}

// LinkageStats counts a projection.
type LinkageStats struct {
	Total   int `json:"total"`
	Missing int `json:"missing"`
	Linked  int `json:"linked"`
}

func Summarize(docs []Document) LinkageStats {
	stats := LinkageStats{Total: len(docs)}
	for _, d := range docs {
		if d.IsMissing() {
			stats.Missing++
		}
	}
	stats.Linked = stats.Total - stats.Missing
	return stats
}
