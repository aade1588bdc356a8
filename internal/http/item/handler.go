package item

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/importer"
	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	itemSvc   *item.Service
	txSvc     *transaction.Service
	importSvc *importer.Service
}

func NewHandler(itemSvc *item.Service, txSvc *transaction.Service, importSvc *importer.Service) *Handler {
	return &Handler{
		itemSvc:   itemSvc,
		txSvc:     txSvc,
		importSvc: importSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/import", h.importFile)
	r.Get("/{id}", h.get)
	r.Get("/{id}/transactions", h.transactions)
}

type createItemRequest struct {
	// Accepts both "12.50" and 12.50.
	Amount json.RawMessage `json:"amount"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := item.ParseAmount(string(bytes.Trim(req.Amount, `"`)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	it, err := h.itemSvc.Create(r.Context(), amount)
	if err != nil {
		if errors.Is(err, item.ErrInvalidAmount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("failed to create item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(it))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemSvc.List(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponseList(items))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	it, err := h.itemSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}

		slog.Error("failed to get item", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(it))
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if _, err := h.itemSvc.Get(r.Context(), id); err != nil {
		if errors.Is(err, item.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}

		slog.Error("failed to get item", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	txs, err := h.txSvc.ListByItem(r.Context(), id)
	if err != nil {
		slog.Error("failed to list transactions", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toTransactionList(txs))
}

type importResponse struct {
	Imported int            `json:"imported"`
	Items    []itemResponse `json:"items"`
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	amounts, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.itemSvc.ImportBatch(r.Context(), amounts)
	if err != nil {
		if errors.Is(err, item.ErrInvalidAmount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("failed to import items", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, importResponse{
		Imported: len(items),
		Items:    toResponseList(items),
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
