package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

// AccountHandler serves /api/accounts
type AccountHandler struct {
	accounts *service.AccountService
	notify   Notifier
	logger   *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *service.AccountService, notify Notifier, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{accounts: accounts, notify: notify, logger: logger}
}

// List handles GET /api/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Get handles GET /api/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	a, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Create handles POST /api/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.Account
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	in.ID = 0
	a, err := h.accounts.Save(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusCreated, a)
}

// Update handles PUT /api/accounts/{id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in domain.Account
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	in.ID = id
	a, err := h.accounts.Save(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/accounts/{id}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	w.WriteHeader(http.StatusNoContent)
}
