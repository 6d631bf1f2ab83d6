package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pos-ledger/ledger"
	"github.com/warp/pos-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testShop = ledger.CompanyInfo{
	Name:     "Test Traders Ltd",
	ShopName: "CASCAVELLE",
	Email:    "shop@example.com",
	Address:  "Flic en Flac Road",
	Phone:    "489 7777",
}

var testDay = ledger.NewDate(2025, 3, 10)

func newTestLedger(t *testing.T) (*ledger.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	s := ledger.NewStore(mem, ledger.Defaults{
		Shop:  testShop,
		Draft: ledger.DefaultDraft("100", dec("15"), testShop),
	})
	require.NoError(t, s.Load(context.Background()))

	l := ledger.NewLedger(s)
	l.Clock = func() ledger.Date { return testDay }
	n := 0
	l.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return l, mem
}

func receipt100() ledger.Receipt {
	return ledger.Receipt{
		ReceiptNumber: "100",
		Date:          testDay,
		ReceivedFrom:  "Mr Ramdin",
		PaymentMethod: ledger.PaymentCash,
		Items: []ledger.ReceiptItem{
			{ID: "1", Code: "A1", Description: "Widget", Quantity: 2, Rate: dec("115")},
		},
		TaxRate:  dec("15"),
		Currency: ledger.CurrencyMUR,
	}
}

func salesFor(movements []ledger.StockMovement, ref string) []ledger.StockMovement {
	var out []ledger.StockMovement
	for _, m := range movements {
		if m.Type == ledger.MovementSale && m.Reference == ref {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// POSTING RECEIPTS
// =============================================================================

func TestPostReceipt_AppendsOneSaleMovement(t *testing.T) {
	// GIVEN: Receipt "100" with one line of 2 x 115
	// WHEN: Posting it
	// THEN: Exactly one SALE movement, qty 2, reference "100"

	l, _ := newTestLedger(t)
	ctx := context.Background()

	res, err := l.PostReceipt(ctx, receipt100(), false)
	require.NoError(t, err)

	movements := l.Store.Movements()
	require.Len(t, movements, 1)
	sale := movements[0]
	assert.Equal(t, ledger.MovementSale, sale.Type)
	assert.Equal(t, int64(2), sale.Quantity)
	assert.Equal(t, "100", sale.Reference)
	assert.Equal(t, "A1", sale.ItemCode)
	assert.Equal(t, "CASCAVELLE", sale.Location)
	assert.Equal(t, "Sale to Mr Ramdin", sale.Notes)
	assert.Equal(t, res.Movements, movements)

	assert.Equal(t, int64(-2), ledger.OnHandBalance(movements, "A1"))

	r, ok := l.Store.Receipt("100")
	require.True(t, ok)
	assert.Equal(t, testShop, r.Sender)
}

func TestPostReceipt_AdvancesDraft(t *testing.T) {
	// GIVEN: A fresh post of receipt "100"
	// THEN: The draft is reset to a blank receipt numbered "101"

	l, _ := newTestLedger(t)

	res, err := l.PostReceipt(context.Background(), receipt100(), false)
	require.NoError(t, err)
	require.NotNil(t, res.NextDraft)

	draft := l.Store.Draft()
	assert.Equal(t, "101", draft.ReceiptNumber)
	assert.Equal(t, "", draft.ReceivedFrom)
	assert.Equal(t, ledger.PaymentCash, draft.PaymentMethod)
	assert.Equal(t, "Full settlement of above.", draft.SettlementOf)
	assert.True(t, draft.TaxRate.Equal(dec("15")))
	assert.Equal(t, testDay, draft.Date)
	assert.Equal(t, "cascavelle", draft.Location)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, int64(1), draft.Items[0].Quantity)
}

func TestPostReceipt_EditReplacesReceiptAndSales(t *testing.T) {
	// GIVEN: Receipt "100" posted with qty 2
	// WHEN: Re-posting a revised "100" with qty 3 in edit mode
	// THEN: History holds one "100"; its SALE movements mirror the revision;
	//       the draft is untouched

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.PostReceipt(ctx, receipt100(), false)
	require.NoError(t, err)
	draftBefore := l.Store.Draft()

	revised := receipt100()
	revised.Items[0].Quantity = 3
	res, err := l.PostReceipt(ctx, revised, true)
	require.NoError(t, err)
	assert.Nil(t, res.NextDraft)

	receipts := l.Store.Receipts()
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(3), receipts[0].Items[0].Quantity)

	sales := salesFor(l.Store.Movements(), "100")
	require.Len(t, sales, 1)
	assert.Equal(t, int64(3), sales[0].Quantity)
	assert.Equal(t, int64(-3), ledger.OnHandBalance(l.Store.Movements(), "A1"))

	assert.Equal(t, draftBefore, l.Store.Draft())
}

func TestPostReceipt_KeepsOtherMovements(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.RecordMovement(ctx, ledger.ManualMovement{Type: ledger.MovementTransferIn, SKU: "A1", Qty: 10, Ref: "PO-1"})
	require.NoError(t, err)
	_, err = l.PostReceipt(ctx, receipt100(), false)
	require.NoError(t, err)
	_, err = l.PostReceipt(ctx, receipt100(), true)
	require.NoError(t, err)

	assert.Len(t, l.Store.Movements(), 2)
	assert.Equal(t, int64(8), ledger.OnHandBalance(l.Store.Movements(), "A1"))
}

func TestPostReceipt_UncodedLineRecordedAsNA(t *testing.T) {
	l, _ := newTestLedger(t)

	r := receipt100()
	r.Items[0].Code = ""
	res, err := l.PostReceipt(context.Background(), r, false)
	require.NoError(t, err)
	assert.Equal(t, ledger.UnknownItemCode, res.Movements[0].ItemCode)
}

func TestPostReceipt_PaymentMethodStoredCanonical(t *testing.T) {
	// GIVEN: Receipt "100" entered with a lowercase payment method
	// WHEN: Posting it and running the daily reconciliation
	// THEN: The receipt is stored as "Cash" and lands in the cash bucket

	l, _ := newTestLedger(t)

	r := receipt100()
	r.PaymentMethod = "cash"
	res, err := l.PostReceipt(context.Background(), r, false)
	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentCash, res.Receipt.PaymentMethod)

	stored, ok := l.Store.Receipt("100")
	require.True(t, ok)
	assert.Equal(t, ledger.PaymentCash, stored.PaymentMethod)

	sheet, err := ledger.DailyReconciliation(l.Store.Receipts())
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.True(t, sheet.Rows[0].Cash.Equal(sheet.Rows[0].Total))
	assert.True(t, sheet.Totals.Cash.Equal(dec("230")))
}

func TestPostReceipt_ValidationBlocksWrite(t *testing.T) {
	// GIVEN: A receipt without customer and without any priced line
	// WHEN: Posting it
	// THEN: ValidationError naming both fields; nothing is written

	l, _ := newTestLedger(t)

	r := receipt100()
	r.ReceivedFrom = "  "
	r.Items[0].Rate = dec("0")

	_, err := l.PostReceipt(context.Background(), r, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrValidation)
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		fields[i] = f.Field
	}
	assert.ElementsMatch(t, []string{"receivedFrom", "items"}, fields)

	assert.Empty(t, l.Store.Receipts())
	assert.Empty(t, l.Store.Movements())
	assert.Equal(t, "100", l.Store.Draft().ReceiptNumber)
}

func TestPostReceipt_RejectsNegativeTaxRateAndUnknownPayment(t *testing.T) {
	l, _ := newTestLedger(t)

	r := receipt100()
	r.TaxRate = dec("-100")
	r.PaymentMethod = "Bitcoin"

	_, err := l.PostReceipt(context.Background(), r, false)

	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.True(t, ledger.IsClientError(err))
}

func TestPostReceipt_EmptyReceiptNumber(t *testing.T) {
	l, _ := newTestLedger(t)

	r := receipt100()
	r.ReceiptNumber = ""
	_, err := l.PostReceipt(context.Background(), r, false)

	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Empty(t, l.Store.Receipts())
}

func TestPostReceipt_NonNumericNumber_LeavesNextDraftUnnumbered(t *testing.T) {
	l, _ := newTestLedger(t)

	r := receipt100()
	r.ReceiptNumber = "ABC"
	_, err := l.PostReceipt(context.Background(), r, false)
	require.NoError(t, err)

	assert.Equal(t, "", l.Store.Draft().ReceiptNumber)
	_, ok := l.Store.Receipt("ABC")
	assert.True(t, ok)
}

func TestNextReceiptNumber(t *testing.T) {
	next, err := ledger.NextReceiptNumber("116261")
	require.NoError(t, err)
	assert.Equal(t, "116262", next)

	_, err = ledger.NextReceiptNumber("R-1")
	assert.ErrorIs(t, err, ledger.ErrNonNumericReceiptNumber)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestPostReceipt_PersistenceFailure_KeepsStateAndWarns(t *testing.T) {
	// GIVEN: A persister that fails every save
	// WHEN: Posting a receipt
	// THEN: The post takes effect in memory, the error is a warning, and a
	//       store restored from the persister does not have it

	l, mem := newTestLedger(t)
	ctx := context.Background()
	mem.SetFail(errors.New("disk full"))

	res, err := l.PostReceipt(ctx, receipt100(), false)

	require.Error(t, err)
	assert.True(t, ledger.IsWarning(err))
	assert.False(t, ledger.IsClientError(err))
	var perr *ledger.PersistError
	assert.ErrorAs(t, err, &perr)
	require.NotNil(t, res)

	_, ok := l.Store.Receipt("100")
	assert.True(t, ok)
	assert.Len(t, l.Store.Movements(), 1)

	mem.SetFail(nil)
	restored := ledger.NewStore(mem, ledger.Defaults{Shop: testShop})
	require.NoError(t, restored.Load(ctx))
	assert.Empty(t, restored.Receipts())
}

func TestStore_LoadRestoresSnapshots(t *testing.T) {
	l, mem := newTestLedger(t)
	ctx := context.Background()

	_, err := l.PostReceipt(ctx, receipt100(), false)
	require.NoError(t, err)
	_, err = l.ImportCatalog(ctx, []ledger.CatalogRow{{Code: "A1", Name: "Widget", Price: dec("10"), Quantity: 5}}, ledger.ImportReplace, "stock.csv")
	require.NoError(t, err)

	restored := ledger.NewStore(mem, ledger.Defaults{})
	require.NoError(t, restored.Load(ctx))

	assert.Equal(t, l.Store.Receipts(), restored.Receipts())
	assert.Equal(t, l.Store.Movements(), restored.Movements())
	assert.Equal(t, l.Store.Products(), restored.Products())
	assert.Equal(t, "101", restored.Draft().ReceiptNumber)
}

func TestStore_Load_StaleVersionUsesDefault(t *testing.T) {
	// GIVEN: A draft snapshot written by an older format
	// WHEN: Loading
	// THEN: The default draft is used, other collections still load

	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Save(ctx, ledger.SnapshotDraft.Name, ledger.SnapshotDraft.Version-1, []byte(`{"receiptNumber":"999"}`)))
	require.NoError(t, mem.Save(ctx, ledger.SnapshotCatalog.Name, ledger.SnapshotCatalog.Version, []byte(`[{"code":"A1","name":"Widget","price":"10"}]`)))
	require.NoError(t, mem.Save(ctx, ledger.SnapshotHistory.Name, ledger.SnapshotHistory.Version, []byte(`not json`)))

	s := ledger.NewStore(mem, ledger.Defaults{Shop: testShop, Draft: ledger.DefaultDraft("100", dec("15"), testShop)})
	require.NoError(t, s.Load(ctx))

	assert.Equal(t, "100", s.Draft().ReceiptNumber)
	assert.Len(t, s.Products(), 1)
	assert.Empty(t, s.Receipts())
}

// =============================================================================
// MANUAL MOVEMENTS
// =============================================================================

// =============================================================================
// STORE WRITES
// =============================================================================

func TestAppendReceipt_InsertAndReplaceMovesToFront(t *testing.T) {
	// GIVEN: Receipts "100" and "101" appended in that order
	// WHEN: Appending a revised "100" with a lowercase payment method
	// THEN: "100" replaces its old entry and moves to the front

	l, mem := newTestLedger(t)
	ctx := context.Background()

	first := receipt100()
	second := receipt100()
	second.ReceiptNumber = "101"
	require.NoError(t, l.Store.AppendReceipt(ctx, first))
	require.NoError(t, l.Store.AppendReceipt(ctx, second))

	history := l.Store.Receipts()
	require.Len(t, history, 2)
	assert.Equal(t, "101", history[0].ReceiptNumber)
	assert.Equal(t, "100", history[1].ReceiptNumber)

	revised := receipt100()
	revised.ReceivedFrom = "Mrs Ramdin"
	revised.PaymentMethod = "card"
	require.NoError(t, l.Store.AppendReceipt(ctx, revised))

	history = l.Store.Receipts()
	require.Len(t, history, 2)
	assert.Equal(t, "100", history[0].ReceiptNumber)
	assert.Equal(t, "Mrs Ramdin", history[0].ReceivedFrom)
	assert.Equal(t, ledger.PaymentCard, history[0].PaymentMethod)
	assert.Equal(t, "101", history[1].ReceiptNumber)

	assert.Contains(t, mem.Names(), ledger.SnapshotHistory.Name)
	assert.Empty(t, l.Store.Movements())
}

func TestAppendReceipt_EmptyNumber(t *testing.T) {
	l, _ := newTestLedger(t)

	r := receipt100()
	r.ReceiptNumber = ""
	err := l.Store.AppendReceipt(context.Background(), r)

	assert.ErrorIs(t, err, ledger.ErrEmptyIdentity)
	assert.Empty(t, l.Store.Receipts())
}

func TestAppendMovements_ReadersNeverSeePartialBatch(t *testing.T) {
	// GIVEN: One existing movement and readers polling Movements()
	// WHEN: A fifty-row batch is appended
	// THEN: Every read sees either the old log or the whole new one,
	//       and the batch keeps its order at the front

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.RecordMovement(ctx, ledger.ManualMovement{Type: ledger.MovementTransferIn, SKU: "A1", Qty: 10, Ref: "PO-1"})
	require.NoError(t, err)

	batch := make([]ledger.StockMovement, 50)
	for i := range batch {
		batch[i] = ledger.StockMovement{
			ID:        fmt.Sprintf("batch-%d", i),
			Date:      testDay,
			ItemCode:  fmt.Sprintf("SKU-%d", i),
			Type:      ledger.MovementTransferIn,
			Reference: ledger.OpeningStockReference,
			Quantity:  1,
		}
	}

	const readers = 8
	var (
		wg       sync.WaitGroup
		done     atomic.Bool
		mu       sync.Mutex
		observed = map[int]bool{}
	)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen := map[int]bool{}
			for {
				finished := done.Load()
				seen[len(l.Store.Movements())] = true
				if finished {
					break
				}
			}
			mu.Lock()
			for n := range seen {
				observed[n] = true
			}
			mu.Unlock()
		}()
	}

	require.NoError(t, l.Store.AppendMovements(ctx, batch))
	done.Store(true)
	wg.Wait()

	for n := range observed {
		assert.Contains(t, []int{1, 51}, n)
	}
	assert.True(t, observed[51])

	movements := l.Store.Movements()
	require.Len(t, movements, 51)
	assert.Equal(t, batch, movements[:50])
	assert.Equal(t, "PO-1", movements[50].Reference)
}

func TestRecordMovement_DefaultsAndCatalogName(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.ImportCatalog(ctx, []ledger.CatalogRow{{Code: "A1", Name: "Widget", Price: dec("10")}}, ledger.ImportReplace, "stock.csv")
	require.NoError(t, err)

	in, err := l.RecordMovement(ctx, ledger.ManualMovement{Type: ledger.MovementTransferIn, SKU: "A1", Qty: 4, Ref: "PO-1"})
	require.NoError(t, err)
	assert.Equal(t, "Widget", in.ItemName)
	assert.Equal(t, "FROM SUPPLIER", in.Location)
	assert.Equal(t, "Manual Stock Entry: PO-1", in.Notes)
	assert.Equal(t, testDay, in.Date)

	out, err := l.RecordMovement(ctx, ledger.ManualMovement{Type: ledger.MovementTransferOut, SKU: "Z9", Qty: 1, Ref: "DN-1", WTN: "WTN-1"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Product", out.ItemName)
	assert.Equal(t, "TO BRANCH", out.Location)
	assert.Equal(t, "WTN-1", out.AssociatedWTN)

	assert.Equal(t, int64(4), ledger.OnHandBalance(l.Store.Movements(), "A1"))
}

func TestRecordMovement_Rejections(t *testing.T) {
	// GIVEN: Manual entries that are a SALE, lack a reference, or move nothing
	// THEN: Each is rejected and nothing is appended

	l, _ := newTestLedger(t)
	ctx := context.Background()

	cases := []ledger.ManualMovement{
		{Type: ledger.MovementSale, SKU: "A1", Qty: 1, Ref: "100"},
		{Type: ledger.MovementTransferIn, SKU: "A1", Qty: 1, Ref: ""},
		{Type: ledger.MovementTransferIn, SKU: "A1", Qty: 0, Ref: "PO-1"},
		{Type: ledger.MovementTransferOut, SKU: "", Qty: 1, Ref: "DN-1"},
	}
	for _, in := range cases {
		_, err := l.RecordMovement(ctx, in)
		assert.ErrorIs(t, err, ledger.ErrValidation, "%+v", in)
	}
	assert.Empty(t, l.Store.Movements())
}

// =============================================================================
// CATALOG IMPORT
// =============================================================================

func TestImportCatalog_ReplaceScenario(t *testing.T) {
	// GIVEN: One row {A1, Widget, 10, 5}
	// WHEN: Importing in replace mode
	// THEN: Catalog of exactly one product and one TRANSFER_IN of 5
	//       referencing "OPENING STOCK"

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.ImportCatalog(ctx, []ledger.CatalogRow{{Code: "OLD", Name: "Old"}}, ledger.ImportReplace, "old.csv")
	require.NoError(t, err)

	summary, err := l.ImportCatalog(ctx, []ledger.CatalogRow{
		{Code: "A1", Name: "Widget", Price: dec("10"), Quantity: 5},
	}, ledger.ImportReplace, "stock.xlsx")
	require.NoError(t, err)
	assert.Equal(t, ledger.ImportSummary{Products: 1, OpeningMovements: 1}, summary)

	products := l.Store.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "A1", products[0].Code)
	assert.True(t, products[0].Price.Equal(dec("10")))

	movements := l.Store.Movements()
	require.Len(t, movements, 1)
	m := movements[0]
	assert.Equal(t, ledger.MovementTransferIn, m.Type)
	assert.Equal(t, int64(5), m.Quantity)
	assert.Equal(t, ledger.OpeningStockReference, m.Reference)
	assert.Equal(t, "INITIAL IMPORT", m.Location)
	assert.Equal(t, "Bulk Import - stock.xlsx", m.Notes)
}

func TestImportCatalog_AppendKeepsExistingCodes(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.ImportCatalog(ctx, []ledger.CatalogRow{{Code: "A1", Name: "Widget", Price: dec("10")}}, ledger.ImportReplace, "a.csv")
	require.NoError(t, err)
	_, err = l.ImportCatalog(ctx, []ledger.CatalogRow{
		{Code: "A1", Name: "Widget v2", Price: dec("12")},
		{Code: "B2", Name: "Bolt", Price: dec("1")},
	}, ledger.ImportAppend, "b.csv")
	require.NoError(t, err)

	products := l.Store.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "Widget", products[0].Name)
	assert.Equal(t, "B2", products[1].Code)
}

func TestImportCatalog_DuplicateCodesFirstWins(t *testing.T) {
	l, _ := newTestLedger(t)

	summary, err := l.ImportCatalog(context.Background(), []ledger.CatalogRow{
		{Code: "A1", Name: "First", Quantity: 1},
		{Code: "A1", Name: "Second", Quantity: 9},
	}, ledger.ImportReplace, "dup.csv")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Products)
	assert.Equal(t, "First", l.Store.Products()[0].Name)
	assert.Equal(t, int64(1), ledger.OnHandBalance(l.Store.Movements(), "A1"))
}

func TestImportCatalog_NoRows_AbortsUntouched(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.ImportCatalog(ctx, []ledger.CatalogRow{{Code: "A1", Name: "Widget"}}, ledger.ImportReplace, "a.csv")
	require.NoError(t, err)

	_, err = l.ImportCatalog(ctx, nil, ledger.ImportReplace, "empty.csv")

	assert.ErrorIs(t, err, ledger.ErrImport)
	var ierr *ledger.ImportError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "empty.csv", ierr.Source)
	assert.Len(t, l.Store.Products(), 1)
}

// =============================================================================
// LINKAGE
// =============================================================================

func TestCorrectLinkage_UpdatesWholeGroup(t *testing.T) {
	// GIVEN: DN-001 split across 3 movements, no WTN
	// WHEN: correctLinkage(TRANSFER_OUT, DN-001, WTN-55)
	// THEN: All 3 rows carry WTN-55 and the document flips to linked

	l, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Store.AppendMovements(ctx, deliveryNote()))

	docs := l.Documents(ledger.DocumentFilter{})
	require.Len(t, docs, 1)
	require.True(t, docs[0].IsMissing())

	touched, err := l.CorrectLinkage(ctx, ledger.DocumentTransferOut, "DN-001", " WTN-55 ")
	require.NoError(t, err)
	assert.Equal(t, 3, touched)

	for _, m := range l.Store.Movements() {
		assert.Equal(t, "WTN-55", m.AssociatedWTN)
	}
	docs = l.Documents(ledger.DocumentFilter{})
	require.Len(t, docs, 1)
	assert.False(t, docs[0].IsMissing())
	assert.Empty(t, l.Documents(ledger.DocumentFilter{ShowOnlyMissing: true}))
}

func TestCorrectLinkage_Receipt(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	_, err := l.PostReceipt(ctx, receipt100(), false)
	require.NoError(t, err)

	_, err = l.CorrectLinkage(ctx, ledger.DocumentReceipt, "100", "INV-9")
	require.NoError(t, err)

	r, _ := l.Store.Receipt("100")
	assert.Equal(t, "INV-9", r.RelatedInvoiceNo)
}

func TestCorrectLinkage_NotFound(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.CorrectLinkage(context.Background(), ledger.DocumentTransferIn, "PO-404", "X")

	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// DRAFT
// =============================================================================

func TestApplyDraftItemText_OnlyWhenUnchanged(t *testing.T) {
	// GIVEN: A draft line "blue pen"
	// WHEN: A polished text arrives for it
	// THEN: It applies while the line still reads "blue pen", and is dropped
	//       once the line was edited or removed

	l, _ := newTestLedger(t)
	ctx := context.Background()

	draft := l.Store.Draft()
	draft.Items = []ledger.ReceiptItem{{ID: "line-1", Description: "blue pen", Quantity: 1}}
	require.NoError(t, l.Store.SetDraft(ctx, draft))

	applied, err := l.Store.ApplyDraftItemText(ctx, "line-1", "blue pen", "Blue ballpoint pen")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "Blue ballpoint pen", l.Store.Draft().Items[0].Description)

	applied, err = l.Store.ApplyDraftItemText(ctx, "line-1", "blue pen", "Stale text")
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = l.Store.ApplyDraftItemText(ctx, "gone", "blue pen", "Stale text")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "Blue ballpoint pen", l.Store.Draft().Items[0].Description)
}

func TestSetShop_DraftFollows(t *testing.T) {
	l, _ := newTestLedger(t)

	shop := testShop
	shop.ShopName = "ROSE-HILL"
	require.NoError(t, l.Store.SetShop(context.Background(), shop))

	draft := l.Store.Draft()
	assert.Equal(t, shop, draft.Sender)
	assert.Equal(t, "rose-hill", draft.Location)
}

func TestReset_RestoresDefaults(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	_, err := l.PostReceipt(ctx, receipt100(), false)
	require.NoError(t, err)

	require.NoError(t, l.Store.Reset(ctx))

	assert.Empty(t, l.Store.Receipts())
	assert.Empty(t, l.Store.Movements())
	assert.Equal(t, "100", l.Store.Draft().ReceiptNumber)
}
