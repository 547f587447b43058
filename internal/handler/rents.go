package handler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/pgledger/internal/billing"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
	"github.com/aryan0dhankhar/pgledger/internal/ordering"
	"github.com/aryan0dhankhar/pgledger/internal/security/audit"
	"github.com/aryan0dhankhar/pgledger/internal/security/middleware"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

// PayRequest is the body of POST /api/rents/{id}/pay. An empty body pays in full.
type PayRequest struct {
	Mode            string          `json:"mode"`
	Amount          decimal.Decimal `json:"amount"`
	AccountID       *int64          `json:"accountId"`
	TransactionDate domain.Date     `json:"transactionDate"`
}

// EditRequest is the body of PUT /api/rents/{id}
type EditRequest struct {
	DueAmount       decimal.Decimal `json:"dueAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	AccountID       *int64          `json:"accountId"`
	TransactionDate domain.Date     `json:"transactionDate"`
}

// RentHandler serves /api/rents
type RentHandler struct {
	rents  *service.RentService
	export *service.ExportService
	clock  domain.Clock
	notify Notifier
	audit  *audit.Logger
	logger *slog.Logger
}

// NewRentHandler creates a new rent handler
func NewRentHandler(
	rents *service.RentService,
	export *service.ExportService,
	clock domain.Clock,
	notify Notifier,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *RentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &RentHandler{rents: rents, export: export, clock: clock, notify: notify, audit: auditLog, logger: logger}
}

func (h *RentHandler) rangeOf(r *http.Request) (ledger.DateRange, error) {
	q := r.URL.Query()
	return ledger.ResolveRange(q.Get("period"), q.Get("from"), q.Get("to"), h.clock.Now())
}

func (h *RentHandler) respondRecords(w http.ResponseWriter, r *http.Request, records []domain.RentRecord, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	state, err := ordering.ParseState(q.Get("sort"), q.Get("dir"), ordering.RentKeys)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ordering.SortRecords(records, state)
	writeJSON(w, http.StatusOK, records)
}

// Due handles GET /api/rents/due?from&to
func (h *RentHandler) Due(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOf(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	records, err := h.rents.ListDue(r.Context(), rng)
	h.respondRecords(w, r, records, err)
}

// Collected handles GET /api/rents/collected?from&to
func (h *RentHandler) Collected(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOf(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	records, err := h.rents.ListCollected(r.Context(), rng)
	h.respondRecords(w, r, records, err)
}

// Upsert handles POST /api/rents
func (h *RentHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var in service.RentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.rents.Upsert(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusOK, rec)
}

// Edit handles PUT /api/rents/{id}. With balanceMode=outstanding the due amount
// in the body is the remaining balance.
func (h *RentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in EditRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.rents.Edit(r.Context(), id, billing.ManualEdit{
		DueAmount:       in.DueAmount,
		PaidAmount:      in.PaidAmount,
		Outstanding:     strings.EqualFold(r.URL.Query().Get("balanceMode"), "outstanding"),
		AccountID:       in.AccountID,
		TransactionDate: in.TransactionDate,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	writeJSON(w, http.StatusOK, rec)
}

// Pay handles POST /api/rents/{id}/pay
func (h *RentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in PayRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, h.logger, domain.Validationf("failed to read request body"))
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	mode, err := billing.ParsePaymentMode(in.Mode)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	operator := middleware.OperatorID(r.Context())
	rentID := strconv.FormatInt(id, 10)
	rec, err := h.rents.Pay(r.Context(), id, billing.Payment{
		Mode:            mode,
		Amount:          in.Amount,
		AccountID:       in.AccountID,
		TransactionDate: in.TransactionDate,
	})
	if err != nil {
		h.audit.LogPayment(r.Context(), operator, rentID, "failed", err.Error())
		writeError(w, h.logger, err)
		return
	}
	h.audit.LogPayment(r.Context(), operator, rentID, "ok",
		fmt.Sprintf("mode=%s paid=%s status=%s", mode, rec.PaidAmount.StringFixed(2), rec.Status))
	h.notify.Touch()
	writeJSON(w, http.StatusOK, rec)
}

// DeleteDue handles DELETE /api/rents/{id}
func (h *RentHandler) DeleteDue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.rents.DeleteDue(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCollection handles DELETE /api/rents/{id}/collection
func (h *RentHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.rents.DeleteCollection(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify.Touch()
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/rents/export?from&to&accountId
func (h *RentHandler) Export(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOf(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	filter, err := ledger.ParseAccountFilter(r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	filename := service.ExportFilename(rng, filter)
	operator := middleware.OperatorID(r.Context())
	if _, err := h.export.Write(r.Context(), &buf, rng, filter); err != nil {
		h.audit.LogExport(r.Context(), operator, filename, "failed")
		writeError(w, h.logger, err)
		return
	}
	h.audit.LogExport(r.Context(), operator, filename, "ok")

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write export", slog.String("error", err.Error()))
	}
}
