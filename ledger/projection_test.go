package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pos-ledger/ledger"
)

func deliveryNote() []ledger.StockMovement {
	return []ledger.StockMovement{
		mv("m1", "A1", ledger.MovementTransferOut, 1, "DN-001"),
		mv("m2", "B2", ledger.MovementTransferOut, 2, "DN-001"),
		mv("m3", "C3", ledger.MovementTransferOut, 3, "DN-001"),
	}
}

// =============================================================================
// GROUPING
// =============================================================================

func TestBuildDocuments_GroupsTransferByReference(t *testing.T) {
	// GIVEN: One delivery note "DN-001" split across 3 SKUs
	// WHEN: Projecting
	// THEN: Exactly one document with 3 items

	docs := ledger.BuildDocuments(nil, deliveryNote())

	require.Len(t, docs, 1)
	assert.Equal(t, ledger.DocumentTransferOut, docs[0].Kind)
	assert.Equal(t, "DN-001", docs[0].PrimaryID)
	assert.Len(t, docs[0].Items, 3)
	assert.True(t, docs[0].IsMissing())
	assert.Equal(t, "MISSING WTN", docs[0].StatusLabel())
}

func TestBuildDocuments_SameReferenceDifferentType_TwoDocuments(t *testing.T) {
	movements := []ledger.StockMovement{
		mv("m1", "A1", ledger.MovementTransferIn, 1, "X-1"),
		mv("m2", "A1", ledger.MovementTransferOut, 1, "X-1"),
	}

	docs := ledger.BuildDocuments(nil, movements)

	require.Len(t, docs, 2)
	assert.NotEqual(t, docs[0].ID(), docs[1].ID())
}

func TestBuildDocuments_SalesExcluded_ReceiptsIncluded(t *testing.T) {
	// GIVEN: A posted receipt and its SALE movement
	// THEN: Only the receipt shows, entity defaults to CASH SALE, total derived

	receipts := []ledger.Receipt{{
		ReceiptNumber: "100",
		Date:          ledger.NewDate(2025, 3, 10),
		Items:         []ledger.ReceiptItem{{ID: "1", Code: "A1", Description: "Widget", Quantity: 2, Rate: dec("115")}},
		TaxRate:       dec("15"),
		PaymentMethod: ledger.PaymentCash,
	}}
	movements := []ledger.StockMovement{mv("s1", "A1", ledger.MovementSale, 2, "100")}

	docs := ledger.BuildDocuments(receipts, movements)

	require.Len(t, docs, 1)
	d := docs[0]
	assert.Equal(t, ledger.DocumentReceipt, d.Kind)
	assert.Equal(t, ledger.DefaultEntity, d.Entity)
	assert.Equal(t, "rct-100", d.ID())
	assert.Equal(t, "MISSING INVOICE", d.StatusLabel())
	require.NotNil(t, d.Total)
	assert.True(t, d.Total.Equal(dec("230")))
}

func TestBuildDocuments_SecondaryIDFromFirstNonEmptyRow(t *testing.T) {
	movements := []ledger.StockMovement{
		mv("m1", "A1", ledger.MovementTransferIn, 1, "PO-7"),
		mv("m2", "B2", ledger.MovementTransferIn, 1, "PO-7"),
	}
	movements[1].AssociatedWTN = "SUP-42"

	docs := ledger.BuildDocuments(nil, movements)

	require.Len(t, docs, 1)
	assert.Equal(t, "SUP-42", docs[0].SecondaryID)
	assert.Equal(t, "LINKED", docs[0].StatusLabel())

	primary, secondary := docs[0].Headers()
	assert.Equal(t, "Order #", primary)
	assert.Equal(t, "Supplier Ref", secondary)
}

// =============================================================================
// FILTER & SORT
// =============================================================================

func TestProject_FilterAndOrder(t *testing.T) {
	// GIVEN: Documents on three dates, one of them linked
	// WHEN: Projecting with and without filters
	// THEN: Date descending; missing-only and search narrow the list

	old := mv("m1", "A1", ledger.MovementTransferIn, 1, "PO-1")
	old.Date = ledger.NewDate(2025, 1, 1)
	old.Location = "FROM SUPPLIER"

	mid := mv("m2", "A1", ledger.MovementTransferOut, 1, "DN-9")
	mid.Date = ledger.NewDate(2025, 2, 1)
	mid.AssociatedWTN = "WTN-1"

	receipts := []ledger.Receipt{{
		ReceiptNumber: "200",
		Date:          ledger.NewDate(2025, 3, 1),
		ReceivedFrom:  "Mr Ramdin",
	}}

	all := ledger.Project(receipts, []ledger.StockMovement{old, mid}, ledger.DocumentFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, "200", all[0].PrimaryID)
	assert.Equal(t, "DN-9", all[1].PrimaryID)
	assert.Equal(t, "PO-1", all[2].PrimaryID)

	missing := ledger.Project(receipts, []ledger.StockMovement{old, mid}, ledger.DocumentFilter{ShowOnlyMissing: true})
	assert.Len(t, missing, 2)

	search := ledger.Project(receipts, []ledger.StockMovement{old, mid}, ledger.DocumentFilter{SearchQuery: "ramdin"})
	require.Len(t, search, 1)
	assert.Equal(t, "200", search[0].PrimaryID)

	bySecondary := ledger.Project(receipts, []ledger.StockMovement{old, mid}, ledger.DocumentFilter{SearchQuery: "wtn-1"})
	require.Len(t, bySecondary, 1)
	assert.Equal(t, "DN-9", bySecondary[0].PrimaryID)

	stats := ledger.Summarize(all)
	assert.Equal(t, ledger.LinkageStats{Total: 3, Missing: 2, Linked: 1}, stats)
}

func TestParseDocumentKind(t *testing.T) {
	k, ok := ledger.ParseDocumentKind("transfer_out")
	assert.True(t, ok)
	assert.Equal(t, ledger.DocumentTransferOut, k)

	_, ok = ledger.ParseDocumentKind("SALE")
	assert.False(t, ok)
}
