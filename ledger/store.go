/*
store.go - Event store owning the shop's collections

PURPOSE:
  The Store is the only write path for receipts, movements and the catalog.
  It replaces ambient UI state with one explicit object: every mutation
  happens under the store lock, then the touched collections are handed to
  the injected Persister.

COLLECTIONS:
  shop        Shop configuration (issuer identity)
  draft       The in-progress receipt
  catalog     Products, keyed by code
  history     Posted receipts, most recent first
  movements   Stock movements, most recent first

ATOMIC BATCHES:
  AppendMovements, PostSale and ApplyImport apply their whole batch under a
  single lock acquisition. Readers never observe a partially applied batch.

PERSISTENCE FAILURES:
  If the Persister fails, the in-memory change is kept (it is authoritative
  for the session) and a *PersistError is returned so the caller can warn.

SEE ALSO:
  - persist.go: Persister interface and snapshot layout
  - ledger.go: Posting workflows built on top of the Store
*/
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ImportMode selects how an imported catalog combines with the current one.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportAppend  ImportMode = "append"
)

// Defaults are the values a collection takes when no usable snapshot exists.
type Defaults struct {
	Shop  CompanyInfo
	Draft Receipt
}

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	persister Persister
	defaults  Defaults

	shop      CompanyInfo
	draft     Receipt
	catalog   []Product
	history   []Receipt
	movements []StockMovement
}

// NewStore creates a store holding the defaults. Call Load to restore
// persisted state.
func NewStore(p Persister, defaults Defaults) *Store {
	return &Store{
		persister: p,
		defaults:  defaults,
		shop:      defaults.Shop,
		draft:     defaults.Draft.Clone(),
	}
}

// Load restores every collection from the Persister. Collections without a
// usable snapshot keep their defaults.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		shop      CompanyInfo
		draft     Receipt
		catalog   []Product
		history   []Receipt
		movements []StockMovement
	)

	ok, err := loadSnapshot(ctx, s.persister, SnapshotShop, &shop)
	if err != nil {
		return err
	}
	if ok {
		s.shop = shop
	}

	ok, err = loadSnapshot(ctx, s.persister, SnapshotDraft, &draft)
	if err != nil {
		return err
	}
	if ok {
		s.draft = draft
	}
	// The draft always issues from the current shop.
	s.draft.Sender = s.shop

	if ok, err = loadSnapshot(ctx, s.persister, SnapshotCatalog, &catalog); err != nil {
		return err
	} else if ok {
		s.catalog = catalog
	}
	if ok, err = loadSnapshot(ctx, s.persister, SnapshotHistory, &history); err != nil {
		return err
	} else if ok {
		s.history = history
	}
	if ok, err = loadSnapshot(ctx, s.persister, SnapshotMovements, &movements); err != nil {
		return err
	} else if ok {
		s.movements = movements
	}
	return nil
}

// =============================================================================
// READS - Always return copies
// =============================================================================

func (s *Store) Shop() CompanyInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shop
}

func (s *Store) Draft() Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.catalog...)
}

func (s *Store) Product(code string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.catalog {
		if p.Code == code {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Store) Receipts() []Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Receipt, len(s.history))
	for i, r := range s.history {
		out[i] = r.Clone()
	}
	return out
}

func (s *Store) Receipt(number string) (Receipt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.history {
		if r.ReceiptNumber == number {
			return r.Clone(), true
		}
	}
	return Receipt{}, false
}

func (s *Store) Movements() []StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]StockMovement(nil), s.movements...)
}

// State returns receipts and movements read under one lock, for projections
// that need both to be consistent with each other.
func (s *Store) State() ([]Receipt, []StockMovement) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipts := make([]Receipt, len(s.history))
	for i, r := range s.history {
		receipts[i] = r.Clone()
	}
	return receipts, append([]StockMovement(nil), s.movements...)
}

// =============================================================================
// WRITES
// =============================================================================

// AppendReceipt inserts the receipt, or replaces the entry with the same
// receipt number. The stored entry moves to the front of the history.
func (s *Store) AppendReceipt(ctx context.Context, r Receipt) error {
	if r.ReceiptNumber == "" {
		return ErrEmptyIdentity
	}
	if m, err := ParsePaymentMethod(string(r.PaymentMethod)); err == nil {
		r.PaymentMethod = m
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.putReceiptLocked(r)
	return s.persistLocked(ctx, SnapshotHistory)
}

// AppendMovements prepends the batch, keeping its internal order. A single
// movement is passed as a one-element slice.
func (s *Store) AppendMovements(ctx context.Context, batch []StockMovement) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prependMovementsLocked(batch)
	return s.persistLocked(ctx, SnapshotMovements)
}

// PostSale writes a receipt together with its SALE movements. Any SALE
// movements previously recorded for the same receipt number are replaced, so
// the movement log always mirrors the latest version of each receipt.
// If next is non-nil it becomes the new draft in the same update.
func (s *Store) PostSale(ctx context.Context, r Receipt, sales []StockMovement, next *Receipt) error {
	if r.ReceiptNumber == "" {
		return ErrEmptyIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.movements[:0:0]
	for _, m := range s.movements {
		if m.Type == MovementSale && m.Reference == r.ReceiptNumber {
			continue
		}
		kept = append(kept, m)
	}
	s.movements = kept
	s.prependMovementsLocked(sales)
	s.putReceiptLocked(r)

	touched := []SnapshotSpec{SnapshotMovements, SnapshotHistory}
	if next != nil {
		s.draft = next.Clone()
		touched = append(touched, SnapshotDraft)
	}
	return s.persistLocked(ctx, touched...)
}

// CorrectLinkage overwrites the secondary id of one logical document. For
// receipts that is RelatedInvoiceNo; for transfers it is AssociatedWTN on
// every movement row sharing (type, reference). Returns the rows touched.
func (s *Store) CorrectLinkage(ctx context.Context, kind DocumentKind, primaryID, secondaryID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := 0
	switch kind {
	case DocumentReceipt:
		for i := range s.history {
			if s.history[i].ReceiptNumber == primaryID {
				s.history[i].RelatedInvoiceNo = secondaryID
				touched++
			}
		}
		if touched == 0 {
			return 0, ErrDocumentNotFound
		}
		return touched, s.persistLocked(ctx, SnapshotHistory)

	case DocumentTransferIn, DocumentTransferOut:
		mt := MovementType(kind)
		for i := range s.movements {
			if s.movements[i].Type == mt && s.movements[i].Reference == primaryID {
				s.movements[i].AssociatedWTN = secondaryID
				touched++
			}
		}
		if touched == 0 {
			return 0, ErrDocumentNotFound
		}
		return touched, s.persistLocked(ctx, SnapshotMovements)
	}

	return 0, &ValidationError{
		Action: "correct linkage",
		Fields: []FieldError{{Field: "type", Message: "must be RECEIPT, TRANSFER_IN or TRANSFER_OUT"}},
	}
}

// ApplyImport replaces or append-merges the catalog and records the opening
// stock movements in one update.
func (s *Store) ApplyImport(ctx context.Context, products []Product, mode ImportMode, opening []StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case ImportAppend:
		existing := make(map[string]bool, len(s.catalog))
		for _, p := range s.catalog {
			existing[p.Code] = true
		}
		for _, p := range products {
			if !existing[p.Code] {
				s.catalog = append(s.catalog, p)
				existing[p.Code] = true
			}
		}
	default:
		s.catalog = append([]Product(nil), products...)
	}

	touched := []SnapshotSpec{SnapshotCatalog}
	if len(opening) > 0 {
		s.prependMovementsLocked(opening)
		touched = append(touched, SnapshotMovements)
	}
	return s.persistLocked(ctx, touched...)
}

// SetShop changes the issuing shop; the draft follows it.
func (s *Store) SetShop(ctx context.Context, shop CompanyInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shop = shop
	s.draft.Sender = shop
	s.draft.Location = shopLocation(shop)
	return s.persistLocked(ctx, SnapshotShop, SnapshotDraft)
}

// SetDraft stores the in-progress receipt. The sender is always the shop.
func (s *Store) SetDraft(ctx context.Context, r Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = r.Clone()
	s.draft.Sender = s.shop
	return s.persistLocked(ctx, SnapshotDraft)
}

// ApplyDraftItemText sets a draft line's description, but only if the line
// still exists and still reads expected. It reports whether it applied.
// Used to land results of slow text transforms without clobbering edits made
// while they were in flight.
func (s *Store) ApplyDraftItemText(ctx context.Context, itemID, expected, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.draft.Items {
		item := &s.draft.Items[i]
		if item.ID != itemID {
			continue
		}
		if item.Description != expected {
			return false, nil
		}
		item.Description = text
		return true, s.persistLocked(ctx, SnapshotDraft)
	}
	return false, nil
}

// Reset returns every collection to its default (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shop = s.defaults.Shop
	s.draft = s.defaults.Draft.Clone()
	s.catalog = nil
	s.history = nil
	s.movements = nil
	return s.persistLocked(ctx, AllSnapshots...)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Store) putReceiptLocked(r Receipt) {
	history := make([]Receipt, 0, len(s.history)+1)
	history = append(history, r.Clone())
	for _, prev := range s.history {
		if prev.ReceiptNumber != r.ReceiptNumber {
			history = append(history, prev)
		}
	}
	s.history = history
}

func (s *Store) prependMovementsLocked(batch []StockMovement) {
	movements := make([]StockMovement, 0, len(batch)+len(s.movements))
	movements = append(movements, batch...)
	movements = append(movements, s.movements...)
	s.movements = movements
}

func (s *Store) persistLocked(ctx context.Context, specs ...SnapshotSpec) error {
	var errs []error
	for _, spec := range specs {
		var value any
		switch spec {
		case SnapshotShop:
			value = s.shop
		case SnapshotDraft:
			value = s.draft
		case SnapshotCatalog:
			value = s.catalog
		case SnapshotHistory:
			value = s.history
		case SnapshotMovements:
			value = s.movements
		}
		if err := saveSnapshot(ctx, s.persister, spec, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func shopLocation(shop CompanyInfo) string {
	return strings.ToLower(shop.ShopName)
}
