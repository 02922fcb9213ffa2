package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payments-service/internal/models"
	"payments-service/internal/payments"
	"payments-service/internal/store"
)

// Stable error codes returned in ErrorResponse.Code.
const (
	codeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	codeAccountExists     = "ACCOUNT_ALREADY_EXISTS"
	codeInsufficientFunds = "INSUFFICIENT_FUNDS"
	codeConflictExhausted = "CONFLICT_RETRIES_EXHAUSTED"
	codeInvalidAmount     = "INVALID_AMOUNT"
	codeInvalidRequest    = "INVALID_REQUEST"
	codeInternal          = "INTERNAL_ERROR"
)

// Handler exposes the payment operations over HTTP.
type Handler struct {
	payments *payments.Service
}

func NewHandler(service *payments.Service) *Handler {
	return &Handler{payments: service}
}

// CreateAccount opens a zero-balance account for the user named in the
// X-User-Id header.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userId := r.Header.Get("X-User-Id")
	if userId == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "X-User-Id header is required")
		return
	}

	account, err := h.payments.CreateAccount(r.Context(), userId)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutateBalance(w, r, h.payments.Deposit)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutateBalance(w, r, h.payments.Withdraw)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")

	balance, err := h.payments.GetBalance(r.Context(), userId)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{UserId: userId, Balance: balance.String()})
}

// GetTransactionHistory returns the user's ledger entries from the last
// N days, newest window first in insertion order. Defaults to 30 days.
func (h *Handler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	transactions, err := h.payments.GetTransactionHistory(r.Context(), userId, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTOs(transactions))
}

func (h *Handler) mutateBalance(
	w http.ResponseWriter,
	r *http.Request,
	mutate func(ctx context.Context, userId string, amount decimal.Decimal) (*models.Account, error),
) {
	userId := chi.URLParam(r, "userId")

	raw := r.FormValue("amount")
	if raw == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "amount is required")
		return
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidAmount, "amount must be a decimal number")
		return
	}

	account, err := mutate(r.Context(), userId, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps service sentinels to HTTP statuses and codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, codeAccountNotFound, "account not found")
	case errors.Is(err, store.ErrAccountExists):
		writeError(w, http.StatusConflict, codeAccountExists, "account already exists for user")
	case errors.Is(err, payments.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, codeInsufficientFunds, "insufficient funds")
	case errors.Is(err, payments.ErrConflictExhausted):
		writeError(w, http.StatusServiceUnavailable, codeConflictExhausted, "operation could not complete, retry later")
	case errors.Is(err, payments.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, codeInvalidAmount, "amount must be positive")
	default:
		zap.L().Error("Unhandled service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
