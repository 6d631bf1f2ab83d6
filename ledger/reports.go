package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SALES ANALYSIS - One row per sold line item
// =============================================================================

// SalesFilter selects receipts for SalesAnalysis. Zero dates are unbounded;
// both bounds are inclusive.
type SalesFilter struct {
	From  Date
	To    Date
	Query string
}

func (f SalesFilter) includes(r Receipt) bool {
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(r.ReceivedFrom), q) ||
		strings.Contains(strings.ToLower(r.ReceiptNumber), q) ||
		strings.Contains(strings.ToLower(r.SalesRep), q) {
		return true
	}
	for _, item := range r.Items {
		if strings.Contains(strings.ToLower(item.Description), q) {
			return true
		}
	}
	return false
}

type SalesRow struct {
	Date          Date          `json:"date"`
	ReceiptNumber string        `json:"receiptNumber"`
	Customer      string        `json:"customer"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	SalesRep      string        `json:"salesRep"`
	Code          string        `json:"code"`
	Description   string        `json:"description"`
	Quantity      int64         `json:"qty"`
	UnitExclusive Money         `json:"unitEx"`
	UnitInclusive Money         `json:"unitIn"`
	VAT           Money         `json:"vat"`
	Total         Money         `json:"total"`
	PaymentMethod PaymentMethod `json:"method"`
}

type SalesTotals struct {
	Quantity int64 `json:"qty"`
	Total    Money `json:"total"`
	VAT      Money `json:"vat"`
}

type SalesReport struct {
	Rows   []SalesRow  `json:"rows"`
	Totals SalesTotals `json:"totals"`
}

// SalesAnalysis lists every line item of the matching receipts, receipt
// number descending (string order).
func SalesAnalysis(receipts []Receipt, filter SalesFilter) (SalesReport, error) {
	report := SalesReport{
		Rows:   []SalesRow{},
		Totals: SalesTotals{Total: decimal.Zero, VAT: decimal.Zero},
	}

	for _, r := range receipts {
		if !filter.includes(r) {
			continue
		}
		for _, item := range r.Items {
			line, err := TaxSplit(LineTotal(item), r.TaxRate)
			if err != nil {
				return SalesReport{}, err
			}
			unit, err := TaxSplit(item.Rate, r.TaxRate)
			if err != nil {
				return SalesReport{}, err
			}
			report.Rows = append(report.Rows, SalesRow{
				Date:          r.Date,
				ReceiptNumber: r.ReceiptNumber,
				Customer:      r.ReceivedFrom,
				CustomerPhone: r.ClientPhone,
				CustomerEmail: r.ClientEmail,
				SalesRep:      r.SalesRep,
				Code:          item.Code,
				Description:   item.Description,
				Quantity:      item.Quantity,
				UnitExclusive: unit.Exclusive,
				UnitInclusive: item.Rate,
				VAT:           line.VAT,
				Total:         line.Inclusive,
				PaymentMethod: r.PaymentMethod,
			})
			report.Totals.Quantity += item.Quantity
			report.Totals.Total = report.Totals.Total.Add(line.Inclusive)
			report.Totals.VAT = report.Totals.VAT.Add(line.VAT)
		}
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].ReceiptNumber > report.Rows[j].ReceiptNumber
	})
	return report, nil
}

// =============================================================================
// DAILY RECONCILIATION - One row per receipt, split by payment bucket
// =============================================================================

// PaymentBuckets holds a receipt total in the column of its payment method.
// Cheque receipts land in no bucket.
type PaymentBuckets struct {
	Cash   Money `json:"cash"`
	Card   Money `json:"card"`
	Bank   Money `json:"bank"`
	Credit Money `json:"credit"`
	Gift   Money `json:"gift"`
	Online Money `json:"online"`
}

func emptyBuckets() PaymentBuckets {
	return PaymentBuckets{
		Cash: decimal.Zero, Card: decimal.Zero, Bank: decimal.Zero,
		Credit: decimal.Zero, Gift: decimal.Zero, Online: decimal.Zero,
	}
}

func (b *PaymentBuckets) add(method PaymentMethod, amount Money) {
	switch {
	case method == PaymentCash:
		b.Cash = b.Cash.Add(amount)
	case method == PaymentCard:
		b.Card = b.Card.Add(amount)
	case method.IsBank():
		b.Bank = b.Bank.Add(amount)
	case method == PaymentCredit:
		b.Credit = b.Credit.Add(amount)
	case method == PaymentGift:
		b.Gift = b.Gift.Add(amount)
	case method == PaymentOnline:
		b.Online = b.Online.Add(amount)
	}
}

func (b *PaymentBuckets) sum(o PaymentBuckets) {
	b.Cash = b.Cash.Add(o.Cash)
	b.Card = b.Card.Add(o.Card)
	b.Bank = b.Bank.Add(o.Bank)
	b.Credit = b.Credit.Add(o.Credit)
	b.Gift = b.Gift.Add(o.Gift)
	b.Online = b.Online.Add(o.Online)
}

type ReconciliationRow struct {
	ReceiptNumber string `json:"invNo"`
	Description   string `json:"description"`
	Quantity      int64  `json:"qty"`
	ChequeNo      string `json:"rctpNo"`
	Net           Money  `json:"net"`
	VAT           Money  `json:"vat"`
	Total         Money  `json:"total"`
	PaymentBuckets
}

type ReconciliationTotals struct {
	Quantity int64 `json:"qty"`
	Net      Money `json:"net"`
	VAT      Money `json:"vat"`
	Total    Money `json:"total"`
	PaymentBuckets
}

type ReconciliationSheet struct {
	Rows   []ReconciliationRow  `json:"rows"`
	Totals ReconciliationTotals `json:"totals"`
}

// DailyReconciliation summarizes receipts in the order given.
func DailyReconciliation(receipts []Receipt) (ReconciliationSheet, error) {
	sheet := ReconciliationSheet{
		Rows: make([]ReconciliationRow, 0, len(receipts)),
		Totals: ReconciliationTotals{
			Net: decimal.Zero, VAT: decimal.Zero, Total: decimal.Zero,
			PaymentBuckets: emptyBuckets(),
		},
	}

	for _, r := range receipts {
		totals, err := TotalsFor(r)
		if err != nil {
			return ReconciliationSheet{}, err
		}

		description := r.ReceivedFrom
		if description == "" && len(r.Items) > 0 {
			description = r.Items[0].Description
		}
		if description == "" {
			description = "---"
		}

		row := ReconciliationRow{
			ReceiptNumber:  r.ReceiptNumber,
			Description:    description,
			Quantity:       totals.Quantity,
			ChequeNo:       r.ChequeNo,
			Net:            totals.Exclusive,
			VAT:            totals.VAT,
			Total:          totals.Inclusive,
			PaymentBuckets: emptyBuckets(),
		}
		row.add(r.PaymentMethod, totals.Inclusive)
		sheet.Rows = append(sheet.Rows, row)

		sheet.Totals.Quantity += row.Quantity
		sheet.Totals.Net = sheet.Totals.Net.Add(row.Net)
		sheet.Totals.VAT = sheet.Totals.VAT.Add(row.VAT)
		sheet.Totals.Total = sheet.Totals.Total.Add(row.Total)
		sheet.Totals.sum(row.PaymentBuckets)
	}
	return sheet, nil
}

// =============================================================================
// PRODUCT SEARCH
// =============================================================================

const (
	browseLimit = 10
	searchLimit = 15
)

// SearchProducts backs the line-item picker: the first few products when the
// query is empty, otherwise case-insensitive matches on code or name.
func SearchProducts(products []Product, query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		n := min(len(products), browseLimit)
		return append([]Product{}, products[:n]...)
	}

	matches := []Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Code), query) ||
			strings.Contains(strings.ToLower(p.Name), query) {
			matches = append(matches, p)
			if len(matches) == searchLimit {
				break
			}
		}
	}
	return matches
}
