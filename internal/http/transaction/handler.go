package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/routable/internal/item"
	"github.com/MrJamesThe3rd/routable/internal/lifecycle"
	"github.com/MrJamesThe3rd/routable/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the public item actions. Refund lives in AdminRoutes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/transaction", h.create)
	r.Put("/move/{id}", h.action(h.svc.Move, "Item moved"))
	r.Put("/error/{id}", h.action(h.svc.Error, "Item status changed to error"))
	r.Put("/fix/{id}", h.action(h.svc.Fix, "Item fixed"))
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Put("/refund/{id}", h.action(h.svc.Refund, "Item refund started"))
}

type createTransactionRequest struct {
	Item     uuid.UUID           `json:"item"`
	Status   *lifecycle.Status   `json:"status,omitempty"`
	Location *lifecycle.Location `json:"location,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := transaction.CreateParams{
		ItemID:   req.Item,
		Status:   lifecycle.Initial.Status,
		Location: lifecycle.Initial.Location,
	}

	if req.Status != nil {
		params.Status = *req.Status
	}

	if req.Location != nil {
		params.Location = *req.Location
	}

	tx, err := h.svc.Create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) action(op func(ctx context.Context, itemID uuid.UUID) error, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		if err := op(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(messageResponse{Message: message}); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

var domainErrors = []error{
	item.ErrNotFound,
	transaction.ErrInvalidInitialState,
	transaction.ErrActiveTransactionExists,
	transaction.ErrTransactionCompleted,
	transaction.ErrTransactionRefunded,
	transaction.ErrNoActiveTransaction,
	transaction.ErrTransactionErrored,
	transaction.ErrActionFailed,
	lifecycle.ErrNoTransition,
}

// writeError reports rejected operations as 400 with the error text. Anything
// else is a store failure.
func writeError(w http.ResponseWriter, err error) {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	slog.Error("item operation failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
