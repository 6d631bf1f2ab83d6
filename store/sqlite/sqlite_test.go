package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pos-ledger/ledger"
	"github.com/warp/pos-ledger/store/sqlite"
)

func newTestDB(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	// GIVEN: An empty database
	// WHEN: Saving a snapshot, then overwriting it
	// THEN: Load returns the latest version and payload

	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, "history", 1, []byte(`[]`)))
	require.NoError(t, db.Save(ctx, "history", 2, []byte(`[{"receiptNumber":"100"}]`)))

	version, payload, err := db.Load(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.JSONEq(t, `[{"receiptNumber":"100"}]`, string(payload))
}

func TestSQLite_LoadMissing(t *testing.T) {
	db := newTestDB(t)

	_, _, err := db.Load(context.Background(), "nothing")

	assert.ErrorIs(t, err, ledger.ErrSnapshotNotFound)
}

func TestSQLite_ListAndReset(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, "movements", 1, []byte(`[1,2,3]`)))
	require.NoError(t, db.Save(ctx, "inventory", 1, []byte(`[]`)))

	infos, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "inventory", infos[0].Name)
	assert.Equal(t, "movements", infos[1].Name)
	assert.Equal(t, 7, infos[1].Size)
	assert.False(t, infos[1].SavedAt.IsZero())

	require.NoError(t, db.Reset(ctx))
	infos, err = db.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestSQLite_BacksLedgerStore(t *testing.T) {
	// GIVEN: A store persisted to SQLite
	// WHEN: A second store loads from the same database
	// THEN: It sees the posted receipt and its movement

	db := newTestDB(t)
	ctx := context.Background()

	s := ledger.NewStore(db, ledger.Defaults{})
	require.NoError(t, s.Load(ctx))

	l := ledger.NewLedger(s)
	_, err := l.PostReceipt(ctx, ledger.Receipt{
		ReceiptNumber: "100",
		ReceivedFrom:  "Mr Ramdin",
		Items: []ledger.ReceiptItem{
			{ID: "1", Code: "A1", Description: "Widget", Quantity: 2, Rate: ledger.MustParseMoney("115")},
		},
		TaxRate: ledger.MustParseMoney("15"),
	}, false)
	require.NoError(t, err)

	restored := ledger.NewStore(db, ledger.Defaults{})
	require.NoError(t, restored.Load(ctx))

	receipts := restored.Receipts()
	require.Len(t, receipts, 1)
	assert.Equal(t, "100", receipts[0].ReceiptNumber)
	assert.Len(t, restored.Movements(), 1)
	assert.Equal(t, "101", restored.Draft().ReceiptNumber)
}
