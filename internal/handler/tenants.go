package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ordering"
	"github.com/aryan0dhankhar/pgledger/internal/security/audit"
	"github.com/aryan0dhankhar/pgledger/internal/security/middleware"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

// Notifier is told after every successful mutation
type Notifier interface {
	Touch()
}

// TenantHandler serves /api/tenants
type TenantHandler struct {
	tenants *service.TenantService
	notify  Notifier
	audit   *audit.Logger
	logger  *slog.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenants *service.TenantService, notify Notifier, auditLog *audit.Logger, logger *slog.Logger) *TenantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantHandler{tenants: tenants, notify: notify, audit: auditLog, logger: logger}
}

func (h *TenantHandler) respondList(w http.ResponseWriter, r *http.Request, tenants []domain.Tenant, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	state, err := ordering.ParseState(q.Get("sort"), q.Get("dir"), ordering.TenantKeys)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ordering.SortTenants(tenants, state)
	writeJSON(w, http.StatusOK, tenants)
}

// ListActive handles GET /api/tenants/active
func (h *TenantHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.ListActive(r.Context())
	h.respondList(w, r, tenants, err)
}

// ListDaily handles GET /api/tenants/daily
func (h *TenantHandler) ListDaily(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.ListDaily(r.Context())
	h.respondList(w, r, tenants, err)
}

// List handles GET /api/tenants?includeInactive=true
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	include, _ := strconv.ParseBool(r.URL.Query().Get("includeInactive"))
	tenants, err := h.tenants.ListAll(r.Context(), include)
	h.respondList(w, r, tenants, err)
}

// Get handles GET /api/tenants/{id}
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	t, err := h.tenants.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create handles POST /api/tenants
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.Tenant
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	t, err := h.tenants.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusCreated, t)
}

// Update handles PUT /api/tenants/{id}
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in domain.Tenant
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	t, err := h.tenants.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/tenants/{id}
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	operator := middleware.OperatorID(r.Context())
	if err := h.tenants.Delete(r.Context(), id); err != nil {
		h.audit.LogTenantDeletion(r.Context(), operator, strconv.FormatInt(id, 10), "failed", err.Error())
		writeError(w, h.logger, err)
		return
	}
	h.audit.LogTenantDeletion(r.Context(), operator, strconv.FormatInt(id, 10), "ok", "retained in history")
	h.notify.Touch()
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles PATCH /api/tenants/{id}/checkout
func (h *TenantHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	t, err := h.tenants.Checkout(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusOK, t)
}

// ClearDailyCollection handles DELETE /api/tenants/{id}/daily-collection
func (h *TenantHandler) ClearDailyCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	t, err := h.tenants.ClearDailyCollection(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusOK, t)
}
