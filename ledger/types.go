/*
Package ledger provides the POS ledger engine.

PURPOSE:
  Holds the append-only record of sales documents and stock movements for a
  retail shop, and derives everything else from it: on-hand stock per SKU,
  tax splits per receipt, the reconciliation view of documents and their
  cross-reference (linkage) status.

KEY CONCEPTS IN THIS FILE (types.go):
  - Receipt: A posted sales document (tax-inclusive line items)
  - StockMovement: An inventory event (SALE, TRANSFER_IN, TRANSFER_OUT)
  - Product: A catalog entry (code, name, reference price)
  - Money: decimal amount, never float

DESIGN PRINCIPLES:
  1. Derived, never stored: balances, totals and VAT are recomputed on read
  2. Precision: Uses decimal.Decimal for every monetary value
  3. Atomic writes: a receipt and its SALE movements land together
  4. Linkage is presentational: a missing secondary id never blocks posting

SEE ALSO:
  - store.go: Event store owning the collections
  - balance.go: Balance calculator
  - projection.go: Reconciliation & linkage view
  - ledger.go: Posting workflows
*/
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// Money is a monetary amount. Rates on receipts are tax-inclusive.
type Money = decimal.Decimal

func NewMoney(value float64) Money { return decimal.NewFromFloat(value) }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ENUMS
// =============================================================================

type MovementType string

const (
	MovementSale        MovementType = "SALE"
	MovementTransferIn  MovementType = "TRANSFER_IN"
	MovementTransferOut MovementType = "TRANSFER_OUT"
)

// Sign is +1 for stock entering the shop and -1 for stock leaving it.
func (t MovementType) Sign() int64 {
	if t == MovementTransferIn {
		return 1
	}
	return -1
}

func (t MovementType) Valid() bool {
	switch t {
	case MovementSale, MovementTransferIn, MovementTransferOut:
		return true
	}
	return false
}

// IsTransfer reports whether the movement is entered manually or imported,
// as opposed to generated by a receipt.
func (t MovementType) IsTransfer() bool {
	return t == MovementTransferIn || t == MovementTransferOut
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentCard         PaymentMethod = "Card"
	PaymentJuice        PaymentMethod = "Juice"
	PaymentBlink        PaymentMethod = "Blink"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentCredit       PaymentMethod = "Credit"
	PaymentGift         PaymentMethod = "Gift"
	PaymentOnline       PaymentMethod = "Online"
	PaymentMyT          PaymentMethod = "MyT"
	PaymentCheque       PaymentMethod = "Cheque"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{
	PaymentCash, PaymentCard, PaymentJuice, PaymentBlink, PaymentBankTransfer,
	PaymentCredit, PaymentGift, PaymentOnline, PaymentMyT, PaymentCheque,
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, m := range PaymentMethods {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// IsBank reports whether the method settles through a bank rail.
func (m PaymentMethod) IsBank() bool {
	switch m {
	case PaymentBankTransfer, PaymentJuice, PaymentBlink, PaymentMyT:
		return true
	}
	return false
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyMUR Currency = "MUR"
	CurrencyJPY Currency = "JPY"
)

// =============================================================================
// DOCUMENTS
// =============================================================================

// CompanyInfo identifies the issuing shop (and, in places, the client).
type CompanyInfo struct {
	Name     string `json:"name"`
	ShopName string `json:"shopName,omitempty"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	TaxID    string `json:"taxId,omitempty"`
	BRN      string `json:"brn,omitempty"`
}

// ReceiptItem is one line of a receipt. ID is the line's identity inside the
// draft document, used to key asynchronous edits.
type ReceiptItem struct {
	ID          string `json:"id"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Rate        Money  `json:"rate"`
}

// Receipt is a sales document. ReceiptNumber is operator controlled and is
// the replacement key in the history: re-posting supersedes the prior entry.
type Receipt struct {
	ReceiptNumber    string        `json:"receiptNumber"`
	RelatedInvoiceNo string        `json:"relatedInvoiceNo,omitempty"`
	Date             Date          `json:"date"`
	SalesRep         string        `json:"salesRep"`
	ReceivedFrom     string        `json:"receivedFrom"`
	ClientAddress    string        `json:"clientAddress,omitempty"`
	ClientPhone      string        `json:"clientPhone,omitempty"`
	ClientEmail      string        `json:"clientEmail,omitempty"`
	ClientTaxID      string        `json:"clientTaxId,omitempty"`
	ClientBRN        string        `json:"clientBrn,omitempty"`
	AddressNotes     string        `json:"addressNotes"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	Items            []ReceiptItem `json:"items"`
	ChequeNo         string        `json:"chequeNo,omitempty"`
	SettlementOf     string        `json:"settlementOf"`
	Currency         Currency      `json:"currency"`
	Sender           CompanyInfo   `json:"sender"`
	Notes            string        `json:"notes"`
	TaxRate          Money         `json:"taxRate"`
	Location         string        `json:"location,omitempty"`
}

// Clone returns a copy that shares no slices with r.
func (r Receipt) Clone() Receipt {
	c := r
	c.Items = append([]ReceiptItem(nil), r.Items...)
	return c
}

// =============================================================================
// STOCK
// =============================================================================

// StockMovement is one inventory event. Movements are grouped into logical
// documents by (Type, Reference); ID only identifies the row.
type StockMovement struct {
	ID            string       `json:"id"`
	Date          Date         `json:"date"`
	ItemCode      string       `json:"itemCode"`
	ItemName      string       `json:"itemName"`
	Type          MovementType `json:"type"`
	Reference     string       `json:"reference"`
	AssociatedWTN string       `json:"associatedWtn,omitempty"`
	Quantity      int64        `json:"quantity"`
	Location      string       `json:"location"`
	Notes         string       `json:"notes,omitempty"`
}

// Delta is the signed effect of the movement on the on-hand balance.
func (m StockMovement) Delta() int64 {
	return m.Type.Sign() * m.Quantity
}

// Product is a catalog entry. Price changes are not journaled.
type Product struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}
