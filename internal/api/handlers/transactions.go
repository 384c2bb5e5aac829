package handlers

import (
	"net/http"

	"github.com/dvloznov/receipt-ledger/internal/api/middleware"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

// TransactionsHandler handles transaction CRUD endpoints.
type TransactionsHandler struct {
	store TransactionStore
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store TransactionStore) *TransactionsHandler {
	return &TransactionsHandler{store: store}
}

type transactionRequest struct {
	UserID string  `json:"user_id" validate:"required,uuid"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type" validate:"required,oneof=expense income"`
	Detail string  `json:"detail" validate:"max=10000"`
	Tag    string  `json:"tag" validate:"max=64"`
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transactionRequest
	if err := decodeAndValidate(r, "CreateTransaction", &req); err != nil {
		middleware.WriteAppError(w, err)
		return
	}
	if _, err := h.store.GetUser(ctx, req.UserID); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	tx := &domain.Transaction{
		UserID: req.UserID,
		Amount: req.Amount,
		Type:   req.Type,
		Detail: req.Detail,
		Tag:    req.Tag,
	}
	if err := h.store.CreateTransaction(ctx, tx); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to create transaction")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// ListTransactions handles GET /api/transactions, optionally filtered by ?user_id=
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		txs []*domain.Transaction
		err error
	)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		if err := requireUUID("ListTransactions", "user_id", userID); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		txs, err = h.store.ListTransactionsByUser(ctx, userID)
	} else {
		txs, err = h.store.ListTransactions(ctx)
	}
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteAppError(w, err)
		return
	}

	// Return array directly for frontend compatibility
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireUUID("GetTransaction", "id", id); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	tx, err := h.store.GetTransaction(r.Context(), id)
	if err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tx)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")
	if err := requireUUID("UpdateTransaction", "id", id); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	var req transactionRequest
	if err := decodeAndValidate(r, "UpdateTransaction", &req); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	existing, err := h.store.GetTransaction(ctx, id)
	if err != nil {
		middleware.WriteAppError(w, err)
		return
	}
	if existing.UserID != req.UserID {
		middleware.WriteAppError(w, domain.InvalidInputf("UpdateTransaction", "transaction %s belongs to another user", id))
		return
	}

	existing.Amount = req.Amount
	existing.Type = req.Type
	existing.Detail = req.Detail
	existing.Tag = req.Tag
	if err := h.store.UpdateTransaction(ctx, existing); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("transaction_id", id).Msg("Failed to update transaction")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, existing)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireUUID("DeleteTransaction", "id", id); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	if err := h.store.DeleteTransaction(r.Context(), id); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Record deleted successfully"})
}
