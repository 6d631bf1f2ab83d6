/*
ledger.go - Posting workflows

PURPOSE:
  The Ledger turns operator actions into store writes: posting a receipt,
  entering a manual transfer, importing a catalog. It validates first and
  writes once, so a rejected action leaves the store untouched.

POSTING A RECEIPT:
  1. Validate (customer identity, at least one priced line, sane numbers)
  2. Build one SALE movement per line item, reference = receipt number
  3. Store.PostSale writes receipt + movements (+ next draft) atomically

EDITING A RECEIPT:
  Re-posting the same receipt number replaces the history entry AND the SALE
  movements previously generated for it. Stock therefore reflects the latest
  version of each receipt; edits never double-count.

RECEIPT NUMBERING:
  After a fresh post the draft advances to number+1. Numbers are operator
  strings; a non-numeric number cannot be incremented and leaves the next
  draft unnumbered.

EXAMPLE:
  l := ledger.NewLedger(store)
  res, err := l.PostReceipt(ctx, receipt, false)
  if ledger.IsWarning(err) {
      // posted, but the snapshot is behind
  }
*/
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// UnknownItemCode is recorded on SALE movements for uncoded lines.
	UnknownItemCode = "NA"

	// OpeningStockReference marks the TRANSFER_IN created by catalog import.
	OpeningStockReference = "OPENING STOCK"

	defaultSaleLocation   = "STORE"
	importLocation        = "INITIAL IMPORT"
	defaultInLocation     = "FROM SUPPLIER"
	defaultOutLocation    = "TO BRANCH"
	unknownProductName    = "Unknown Product"
	minimumPricedItemRate = 0
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Store *Store
	Clock func() Date
	NewID func() string
}

func NewLedger(store *Store) *Ledger {
	return &Ledger{Store: store, Clock: Today, NewID: uuid.NewString}
}

// PostResult describes what a successful post wrote.
type PostResult struct {
	Receipt   Receipt         `json:"receipt"`
	Movements []StockMovement `json:"movements"`
	NextDraft *Receipt        `json:"nextDraft,omitempty"`
}

// PostReceipt validates r and records it with its SALE movements. When
// editing is false the draft is reset to the next receipt number.
// A *PersistError means the post took effect but was not snapshotted.
func (l *Ledger) PostReceipt(ctx context.Context, r Receipt, editing bool) (*PostResult, error) {
	r = r.Clone()
	if r.Date.IsZero() {
		r.Date = l.Clock()
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = PaymentCash
	}
	if err := ValidateReceipt(r); err != nil {
		return nil, err
	}
	// Validated above; stored in its canonical spelling.
	r.PaymentMethod, _ = ParsePaymentMethod(string(r.PaymentMethod))

	shop := l.Store.Shop()
	r.Sender = shop

	location := shop.ShopName
	if location == "" {
		location = defaultSaleLocation
	}

	sales := make([]StockMovement, len(r.Items))
	for i, item := range r.Items {
		code := item.Code
		if code == "" {
			code = UnknownItemCode
		}
		sales[i] = StockMovement{
			ID:            l.NewID(),
			Date:          r.Date,
			ItemCode:      code,
			ItemName:      item.Description,
			Type:          MovementSale,
			Reference:     r.ReceiptNumber,
			AssociatedWTN: r.RelatedInvoiceNo,
			Quantity:      item.Quantity,
			Location:      location,
			Notes:         "Sale to " + r.ReceivedFrom,
		}
	}

	result := &PostResult{Receipt: r, Movements: sales}
	if !editing {
		next := l.nextDraft(r.ReceiptNumber, shop)
		result.NextDraft = &next
	}

	err := l.Store.PostSale(ctx, r, sales, result.NextDraft)
	if err != nil && !IsWarning(err) {
		return nil, err
	}
	return result, err
}

// ValidateReceipt reports every problem that blocks posting r.
func ValidateReceipt(r Receipt) error {
	verr := &ValidationError{Action: "post receipt"}

	if strings.TrimSpace(r.ReceiptNumber) == "" {
		verr.add("receiptNumber", ErrEmptyIdentity.Error())
	}
	if strings.TrimSpace(r.ReceivedFrom) == "" {
		verr.add("receivedFrom", "customer name is required")
	}

	priced := false
	for i, item := range r.Items {
		if item.Quantity < 0 {
			verr.add(fmt.Sprintf("items[%d].quantity", i), "must not be negative")
		}
		if item.Rate.IsNegative() {
			verr.add(fmt.Sprintf("items[%d].rate", i), "must not be negative")
		}
		if item.Description != "" && item.Rate.GreaterThan(NewMoney(minimumPricedItemRate)) {
			priced = true
		}
	}
	if !priced {
		verr.add("items", "at least one item with a description and a positive rate is required")
	}

	if _, err := ParsePaymentMethod(string(r.PaymentMethod)); err != nil {
		verr.add("paymentMethod", err.Error())
	}
	if err := ValidateTaxRate(r.TaxRate); err != nil {
		verr.add("taxRate", err.Error())
	}
	return verr.orNil()
}

// NextReceiptNumber increments an integer receipt number.
func NextReceiptNumber(number string) (string, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(number), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrNonNumericReceiptNumber, number)
	}
	return strconv.FormatInt(n+1, 10), nil
}

// DefaultDraft is the blank receipt a fresh installation starts from.
func DefaultDraft(number string, taxRate Money, shop CompanyInfo) Receipt {
	return Receipt{
		ReceiptNumber: number,
		PaymentMethod: PaymentCash,
		Items:         []ReceiptItem{{ID: "1", Quantity: 1}},
		SettlementOf:  "Full settlement of above.",
		Currency:      CurrencyMUR,
		TaxRate:       taxRate,
		Sender:        shop,
		Location:      shopLocation(shop),
	}
}

// NewDraft returns a blank receipt from the store's draft template.
func (l *Ledger) NewDraft(number string) Receipt {
	return l.nextDraftFrom(number, l.Store.Shop())
}

func (l *Ledger) nextDraft(posted string, shop CompanyInfo) Receipt {
	next, err := NextReceiptNumber(posted)
	if err != nil {
		next = ""
	}
	return l.nextDraftFrom(next, shop)
}

func (l *Ledger) nextDraftFrom(number string, shop CompanyInfo) Receipt {
	draft := l.Store.defaults.Draft.Clone()
	draft.ReceiptNumber = number
	draft.Date = l.Clock()
	draft.Sender = shop
	draft.Location = shopLocation(shop)
	if len(draft.Items) == 0 {
		draft.Items = []ReceiptItem{{ID: l.NewID(), Quantity: 1}}
	}
	for i := range draft.Items {
		draft.Items[i].ID = l.NewID()
	}
	return draft
}

// =============================================================================
// MANUAL MOVEMENTS
// =============================================================================

// ManualMovement is the stock-entry form: one transfer of one SKU.
type ManualMovement struct {
	Type MovementType `json:"type"`
	SKU  string       `json:"sku"`
	Qty  int64        `json:"qty"`
	Ref  string       `json:"ref"`
	WTN  string       `json:"wtn"`
	Loc  string       `json:"loc"`
}

// RecordMovement validates and appends one manual transfer. SALE movements
// only come from receipts.
func (l *Ledger) RecordMovement(ctx context.Context, in ManualMovement) (StockMovement, error) {
	verr := &ValidationError{Action: "record movement"}
	if !in.Type.IsTransfer() {
		verr.add("type", "must be TRANSFER_IN or TRANSFER_OUT")
	}
	if strings.TrimSpace(in.SKU) == "" {
		verr.add("sku", "is required")
	}
	if strings.TrimSpace(in.Ref) == "" {
		verr.add("ref", "is required")
	}
	if in.Qty <= 0 {
		verr.add("qty", "must be greater than zero")
	}
	if err := verr.orNil(); err != nil {
		return StockMovement{}, err
	}

	name := unknownProductName
	if p, ok := l.Store.Product(in.SKU); ok {
		name = p.Name
	}
	location := in.Loc
	if location == "" {
		location = defaultOutLocation
		if in.Type == MovementTransferIn {
			location = defaultInLocation
		}
	}

	m := StockMovement{
		ID:            l.NewID(),
		Date:          l.Clock(),
		ItemCode:      in.SKU,
		ItemName:      name,
		Type:          in.Type,
		Reference:     in.Ref,
		AssociatedWTN: in.WTN,
		Quantity:      in.Qty,
		Location:      location,
		Notes:         "Manual Stock Entry: " + in.Ref,
	}
	return m, l.Store.AppendMovements(ctx, []StockMovement{m})
}

// =============================================================================
// CATALOG IMPORT
// =============================================================================

// CatalogRow is one typed row from an import file.
type CatalogRow struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type ImportSummary struct {
	Products         int `json:"products"`
	OpeningMovements int `json:"openingMovements"`
}

// ImportCatalog applies typed rows: each becomes a product, and each with a
// positive quantity also becomes an opening-stock TRANSFER_IN. Duplicate
// codes keep their first row. Zero rows abort without touching the store.
func (l *Ledger) ImportCatalog(ctx context.Context, rows []CatalogRow, mode ImportMode, source string) (ImportSummary, error) {
	if len(rows) == 0 {
		return ImportSummary{}, &ImportError{Source: source, Reason: "no valid rows", Expected: "Code, Name, Price, Quantity"}
	}
	if mode != ImportReplace && mode != ImportAppend {
		return ImportSummary{}, &ValidationError{
			Action: "import catalog",
			Fields: []FieldError{{Field: "mode", Message: "must be replace or append"}},
		}
	}

	today := l.Clock()
	seen := make(map[string]bool, len(rows))
	var (
		products []Product
		opening  []StockMovement
	)
	for _, row := range rows {
		if seen[row.Code] {
			continue
		}
		seen[row.Code] = true
		products = append(products, Product{Code: row.Code, Name: row.Name, Price: row.Price})

		if row.Quantity > 0 {
			opening = append(opening, StockMovement{
				ID:        l.NewID(),
				Date:      today,
				ItemCode:  row.Code,
				ItemName:  row.Name,
				Type:      MovementTransferIn,
				Reference: OpeningStockReference,
				Quantity:  row.Quantity,
				Location:  importLocation,
				Notes:     "Bulk Import - " + source,
			})
		}
	}

	summary := ImportSummary{Products: len(products), OpeningMovements: len(opening)}
	return summary, l.Store.ApplyImport(ctx, products, mode, opening)
}

// =============================================================================
// LINKAGE & VIEWS
// =============================================================================

// CorrectLinkage sets the secondary id of one document.
func (l *Ledger) CorrectLinkage(ctx context.Context, kind DocumentKind, primaryID, secondaryID string) (int, error) {
	return l.Store.CorrectLinkage(ctx, kind, primaryID, strings.TrimSpace(secondaryID))
}

// Documents returns the reconciliation view of the current state.
func (l *Ledger) Documents(filter DocumentFilter) []Document {
	receipts, movements := l.Store.State()
	return Project(receipts, movements, filter)
}
