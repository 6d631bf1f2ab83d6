/*
balance.go - Stock balances and receipt tax splits

PURPOSE:
  Pure derivations over the event store. Nothing here mutates state; the
  same inputs always give the same outputs.

ON-HAND BALANCE:
  balance(sku) = sum(TRANSFER_IN qty) - sum(SALE qty + TRANSFER_OUT qty)

  The fold is commutative, so movement order only matters for display.
  Linkage status never affects the balance.

TAX SPLIT (inclusive basis):
  exclusive = inclusive / (1 + rate/100)
  vat       = inclusive - exclusive

  Example: 2 x 115 at 15% -> inclusive 230, exclusive 200.00, vat 30.00

GUARD:
  A negative rate is rejected with ErrInvalidTaxRate before any division, so
  -100% can never produce a non-finite total.

SEE ALSO:
  - projection.go: Document-level view built on the same movements
  - reports.go: Sales analysis and reconciliation sheets
*/
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// STOCK
// =============================================================================

// OnHandBalance folds every movement of sku into a signed quantity.
// A SKU without movements has balance 0.
func OnHandBalance(movements []StockMovement, sku string) int64 {
	var balance int64
	for _, m := range movements {
		if m.ItemCode == sku {
			balance += m.Delta()
		}
	}
	return balance
}

// StockLine is one row of the catalog stock report.
type StockLine struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// CatalogStockReport computes every catalog SKU's balance in one pass over
// the movements, then keeps the non-zero ones in catalog order.
// Movements for codes outside the catalog are ignored.
func CatalogStockReport(products []Product, movements []StockMovement) []StockLine {
	balances := make(map[string]int64, len(products))
	for _, m := range movements {
		balances[m.ItemCode] += m.Delta()
	}

	lines := make([]StockLine, 0, len(products))
	for _, p := range products {
		if b := balances[p.Code]; b != 0 {
			lines = append(lines, StockLine{Code: p.Code, Name: p.Name, Balance: b})
		}
	}
	return lines
}

// StockHistory returns the movements of sku, most recent date first.
func StockHistory(movements []StockMovement, sku string) []StockMovement {
	var history []StockMovement
	for _, m := range movements {
		if m.ItemCode == sku {
			history = append(history, m)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
	return history
}

// =============================================================================
// TAX
// =============================================================================

// TaxBreakdown splits a tax-inclusive amount.
type TaxBreakdown struct {
	Inclusive Money `json:"inclusive"`
	Exclusive Money `json:"exclusive"`
	VAT       Money `json:"vat"`
}

// ValidateTaxRate rejects rates that would make the exclusive amount
// undefined or meaningless.
func ValidateTaxRate(ratePercent Money) error {
	if ratePercent.IsNegative() {
		return fmt.Errorf("%w: %s%% (must be zero or positive)", ErrInvalidTaxRate, ratePercent.String())
	}
	return nil
}

// TaxSplit derives the exclusive amount and VAT from an inclusive total.
// Exclusive + VAT always equals the inclusive total exactly.
func TaxSplit(totalInclusive, ratePercent Money) (TaxBreakdown, error) {
	if err := ValidateTaxRate(ratePercent); err != nil {
		return TaxBreakdown{}, err
	}
	if ratePercent.IsZero() {
		return TaxBreakdown{Inclusive: totalInclusive, Exclusive: totalInclusive, VAT: decimal.Zero}, nil
	}

	factor := decimal.NewFromInt(1).Add(ratePercent.Div(hundred))
	exclusive := totalInclusive.Div(factor)
	return TaxBreakdown{
		Inclusive: totalInclusive,
		Exclusive: exclusive,
		VAT:       totalInclusive.Sub(exclusive),
	}, nil
}

// LineTotal is quantity x rate; the rate is already tax-inclusive.
func LineTotal(item ReceiptItem) Money {
	return item.Rate.Mul(decimal.NewFromInt(item.Quantity))
}

// ReceiptTotals is the derived money summary of one receipt.
type ReceiptTotals struct {
	TaxBreakdown
	Quantity int64 `json:"quantity"`
}

// TotalsFor sums the line totals of r and splits the result at r's rate.
func TotalsFor(r Receipt) (ReceiptTotals, error) {
	total := decimal.Zero
	var qty int64
	for _, item := range r.Items {
		total = total.Add(LineTotal(item))
		qty += item.Quantity
	}
	split, err := TaxSplit(total, r.TaxRate)
	if err != nil {
		return ReceiptTotals{}, err
	}
	return ReceiptTotals{TaxBreakdown: split, Quantity: qty}, nil
}

// =============================================================================
// BALANCE CALCULATOR - Reads current store state
// =============================================================================

// BalanceCalculator answers balance questions against the live store.
type BalanceCalculator struct {
	Store *Store
}

func (bc *BalanceCalculator) OnHand(sku string) int64 {
	return OnHandBalance(bc.Store.Movements(), sku)
}

func (bc *BalanceCalculator) History(sku string) []StockMovement {
	return StockHistory(bc.Store.Movements(), sku)
}

func (bc *BalanceCalculator) Report() []StockLine {
	bc.Store.mu.RLock()
	defer bc.Store.mu.RUnlock()
	return CatalogStockReport(bc.Store.catalog, bc.Store.movements)
}

func (bc *BalanceCalculator) Totals(receiptNumber string) (ReceiptTotals, bool, error) {
	r, ok := bc.Store.Receipt(receiptNumber)
	if !ok {
		return ReceiptTotals{}, false, nil
	}
	totals, err := TotalsFor(r)
	return totals, true, err
}
