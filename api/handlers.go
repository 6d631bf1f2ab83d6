/*
handlers.go - HTTP API handlers for the POS ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response and
  JSON serialization, and delegates to the ledger workflows and derivations.

ENDPOINTS:
  Shop & draft:
    GET/PUT /api/shop                          Issuing shop
    GET/PUT /api/draft                         In-progress receipt
    POST    /api/draft/items/{itemID}/polish   Polish one draft line

  Receipts:
    GET     /api/receipts                      History, most recent first
    POST    /api/receipts?edit=true            Post (or re-post) a receipt
    GET     /api/receipts/{number}             One receipt
    GET     /api/receipts/{number}/totals      Quantity, inclusive, exclusive, VAT

  Stock:
    GET     /api/movements?sku=                Movement log (one SKU if given)
    POST    /api/movements                     Manual TRANSFER_IN / TRANSFER_OUT
    GET     /api/stock/{sku}                   Balance + history
    GET     /api/stock/report                  Non-zero balances in catalog order
    GET     /api/stock/report.xlsx             Same, as a workbook

  Catalog:
    GET     /api/catalog?q=                    Catalog, or picker search
    POST    /api/catalog/import?mode=          Multipart CSV/XLSX import

  Reconciliation:
    GET     /api/documents?missing=&q=         Linkage view + counters
    PUT     /api/documents/linkage             Correct a secondary id

  Reports & tax:
    GET     /api/sales?from=&to=&q=            Sales analysis
    GET     /api/reconciliation?date=          Daily reconciliation sheet
    GET     /api/tax/split?total=&rate=        Inclusive -> exclusive + VAT
    GET     /api/tax/suggest?location=         Suggested rate (0 if unknown)

  Admin:
    GET     /api/admin/snapshots               Stored snapshot metadata
    POST    /api/reset                         Restore defaults (dev only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input (bad JSON, bad query parameter)
  - 404: Receipt, SKU or document not found
  - 422: Validation errors, rejected imports, invalid tax rate
  - 500: Internal errors
  A persistence failure is not an error response: the write took effect, so
  the normal status is returned with MutationResponse.Warning set.

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/pos-ledger/catalog"
	"github.com/warp/pos-ledger/ledger"
	"github.com/warp/pos-ledger/polish"
	"github.com/warp/pos-ledger/store/sqlite"
)

const defaultMaxUploadBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// SnapshotAdmin reports and clears what the persister holds.
type SnapshotAdmin interface {
	List(ctx context.Context) ([]sqlite.SnapshotInfo, error)
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger    *ledger.Ledger
	Balances  *ledger.BalanceCalculator
	Polish    *polish.Service
	Snapshots SnapshotAdmin // optional

	MaxUploadBytes int64
}

// NewHandler creates a handler around the ledger. ps may be nil, in which
// case polish returns text unchanged.
func NewHandler(l *ledger.Ledger, ps *polish.Service) *Handler {
	return &Handler{
		Ledger:         l,
		Balances:       &ledger.BalanceCalculator{Store: l.Store},
		Polish:         ps,
		MaxUploadBytes: defaultMaxUploadBytes,
	}
}

func (h *Handler) store() *ledger.Store {
	return h.Ledger.Store
}

// =============================================================================
// SHOP & DRAFT HANDLERS
// =============================================================================

func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store().Shop())
}

func (h *Handler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	var shop ledger.CompanyInfo
	if !decodeBody(w, r, &shop) {
		return
	}
	err := h.store().SetShop(r.Context(), shop)
	writeMutation(w, http.StatusOK, "Failed to update shop", h.store().Shop(), err)
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store().Draft())
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var draft ledger.Receipt
	if !decodeBody(w, r, &draft) {
		return
	}
	err := h.store().SetDraft(r.Context(), draft)
	writeMutation(w, http.StatusOK, "Failed to save draft", h.store().Draft(), err)
}

// PolishDraftItem rewrites one draft line. The result lands only if the line
// still reads what was sent for polishing.
func (h *Handler) PolishDraftItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var original string
	found := false
	for _, item := range h.store().Draft().Items {
		if item.ID == itemID {
			original, found = item.Description, true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "Draft item not found", nil)
		return
	}

	text := h.Polish.Enhance(r.Context(), original)
	resp := PolishResponse{ItemID: itemID, Original: original, Text: text}
	if text == original {
		writeMutation(w, http.StatusOK, "", resp, nil)
		return
	}

	applied, err := h.store().ApplyDraftItemText(r.Context(), itemID, original, text)
	resp.Applied = applied
	writeMutation(w, http.StatusOK, "Failed to apply polished text", resp, err)
}

// =============================================================================
// RECEIPT HANDLERS
// =============================================================================

func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.store().Receipts()))
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, ok := h.store().Receipt(chi.URLParam(r, "number"))
	if !ok {
		writeError(w, http.StatusNotFound, "Receipt not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// PostReceipt records a receipt and its SALE movements. With edit=true the
// draft is left alone and an existing receipt with the same number is
// replaced.
func (h *Handler) PostReceipt(w http.ResponseWriter, r *http.Request) {
	editing, err := boolParam(r, "edit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid edit parameter", err)
		return
	}

	var receipt ledger.Receipt
	if !decodeBody(w, r, &receipt) {
		return
	}

	result, err := h.Ledger.PostReceipt(r.Context(), receipt, editing)
	writeMutation(w, http.StatusCreated, "Failed to post receipt", result, err)
}

func (h *Handler) GetReceiptTotals(w http.ResponseWriter, r *http.Request) {
	totals, ok, err := h.Balances.Totals(chi.URLParam(r, "number"))
	if !ok {
		writeError(w, http.StatusNotFound, "Receipt not found", nil)
		return
	}
	if err != nil {
		writeLedgerError(w, "Failed to compute totals", err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	if sku := r.URL.Query().Get("sku"); sku != "" {
		writeJSON(w, http.StatusOK, nonNil(h.Balances.History(sku)))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(h.store().Movements()))
}

func (h *Handler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	var req ledger.ManualMovement
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.Ledger.RecordMovement(r.Context(), req)
	writeMutation(w, http.StatusCreated, "Failed to record movement", m, err)
}

// GetStock returns the balance of one SKU. An unknown SKU with no movements
// still answers with balance 0.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	movements := h.store().Movements()

	dto := StockDTO{
		SKU:     sku,
		Balance: ledger.OnHandBalance(movements, sku),
		History: nonNil(ledger.StockHistory(movements, sku)),
	}
	if p, ok := h.store().Product(sku); ok {
		dto.Name = p.Name
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) GetStockReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Balances.Report())
}

func (h *Handler) DownloadStockReport(w http.ResponseWriter, r *http.Request) {
	lines := h.Balances.Report()
	if len(lines) == 0 {
		writeError(w, http.StatusNotFound, "No stock to export", catalog.ErrEmptyReport)
		return
	}

	filename := fmt.Sprintf("Stock_Report_%s.xlsx", h.Ledger.Clock().String())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := catalog.WriteStockReport(w, lines); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to write stock report", err)
	}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	products := h.store().Products()
	if r.URL.Query().Has("q") {
		writeJSON(w, http.StatusOK, ledger.SearchProducts(products, r.URL.Query().Get("q")))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(products))
}

// ImportCatalog reads the multipart "file" field and applies it with
// mode=replace (default) or mode=append.
func (h *Handler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	mode := ledger.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = ledger.ImportReplace
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	parsed, err := catalog.Parse(header.Filename, file, catalog.DefaultMapping())
	if err != nil {
		resp := ErrorResponse{Error: "Import rejected", Details: err.Error()}
		if parsed != nil && len(parsed.Rejected) > 0 {
			resp.Details = map[string]any{"message": err.Error(), "rejected": parsed.Rejected}
		}
		writeJSON(w, statusFor(err), resp)
		return
	}

	summary, err := h.Ledger.ImportCatalog(r.Context(), parsed.Rows, mode, header.Filename)
	resp := ImportResponse{ImportSummary: summary, Rejected: nonNil(parsed.Rejected), Skipped: parsed.Skipped}
	writeMutation(w, http.StatusOK, "Failed to import catalog", resp, err)
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	missing, err := boolParam(r, "missing")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid missing parameter", err)
		return
	}

	receipts, movements := h.store().State()
	all := ledger.Project(receipts, movements, ledger.DocumentFilter{})
	docs := ledger.Project(receipts, movements, ledger.DocumentFilter{
		ShowOnlyMissing: missing,
		SearchQuery:     r.URL.Query().Get("q"),
	})

	writeJSON(w, http.StatusOK, DocumentsResponse{
		Documents:  toDocumentDTOs(docs),
		Stats:      ledger.Summarize(docs),
		TotalStats: ledger.Summarize(all),
	})
}

func (h *Handler) CorrectLinkage(w http.ResponseWriter, r *http.Request) {
	var req LinkageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, ok := ledger.ParseDocumentKind(req.Type)
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "Invalid document type",
			Fields: []ledger.FieldError{{Field: "type", Message: "must be RECEIPT, TRANSFER_IN or TRANSFER_OUT"}},
		})
		return
	}

	touched, err := h.Ledger.CorrectLinkage(r.Context(), kind, req.PrimaryID, req.SecondaryID)
	if err != nil && !ledger.IsWarning(err) {
		writeLedgerError(w, "Failed to correct linkage", err)
		return
	}

	resp := LinkageResponse{Touched: touched}
	probe := ledger.Document{Kind: kind, PrimaryID: req.PrimaryID}
	for _, d := range h.Ledger.Documents(ledger.DocumentFilter{}) {
		if d.ID() == probe.ID() {
			resp.Document = toDocumentDTO(d)
			break
		}
	}
	writeMutation(w, http.StatusOK, "Failed to correct linkage", resp, err)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) GetSalesAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := dateParam(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := dateParam(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	report, err := ledger.SalesAnalysis(h.store().Receipts(), ledger.SalesFilter{From: from, To: to, Query: q.Get("q")})
	if err != nil {
		writeLedgerError(w, "Failed to build sales analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetReconciliation builds the reconciliation sheet, for one day if date is
// given.
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	receipts := h.store().Receipts()
	if !day.IsZero() {
		sameDay := receipts[:0]
		for _, rec := range receipts {
			if rec.Date.Equal(day) {
				sameDay = append(sameDay, rec)
			}
		}
		receipts = sameDay
	}

	sheet, err := ledger.DailyReconciliation(receipts)
	if err != nil {
		writeLedgerError(w, "Failed to build reconciliation", err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (h *Handler) GetTaxSplit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	total, err := decimal.NewFromString(q.Get("total"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total", err)
		return
	}
	rate := h.store().Draft().TaxRate
	if raw := q.Get("rate"); raw != "" {
		if rate, err = decimal.NewFromString(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate", err)
			return
		}
	}

	split, err := ledger.TaxSplit(total, rate)
	if err != nil {
		writeLedgerError(w, "Failed to split tax", err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}

func (h *Handler) SuggestTaxRate(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		location = h.store().Shop().Address
	}
	writeJSON(w, http.StatusOK, TaxSuggestionDTO{
		Location: location,
		Rate:     h.Polish.SuggestTaxRate(r.Context(), location),
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots == nil {
		writeJSON(w, http.StatusOK, []sqlite.SnapshotInfo{})
		return
	}
	infos, err := h.Snapshots.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(infos))
}

// ResetDatabase clears the persisted snapshots, then restores every
// collection to its default.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots != nil {
		if err := h.Snapshots.Reset(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to clear snapshots", err)
			return
		}
	}
	err := h.store().Reset(r.Context())
	writeMutation(w, http.StatusOK, "Failed to reset", map[string]string{"status": "ok"}, err)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLedgerError maps ledger errors to a status and attaches field errors.
func writeLedgerError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, statusFor(err), resp)
}

func statusFor(err error) int {
	var verr *ledger.ValidationError
	var ierr *ledger.ImportError
	switch {
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &verr), errors.As(err, &ierr), errors.Is(err, ledger.ErrInvalidTaxRate):
		return http.StatusUnprocessableEntity
	case ledger.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeMutation answers a write. A persistence failure still answers status
// with the data, plus a warning.
func writeMutation(w http.ResponseWriter, status int, message string, data any, err error) {
	switch {
	case err == nil:
		writeJSON(w, status, MutationResponse{Data: data})
	case ledger.IsWarning(err):
		writeJSON(w, status, MutationResponse{Data: data, Warning: err.Error()})
	default:
		writeLedgerError(w, message, err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func dateParam(raw string) (ledger.Date, error) {
	if raw == "" {
		return ledger.Date{}, nil
	}
	return ledger.ParseDate(raw)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
