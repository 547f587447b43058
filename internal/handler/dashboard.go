package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aryan0dhankhar/pgledger/internal/aggregate"
	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
	"github.com/aryan0dhankhar/pgledger/internal/ordering"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

// DashboardResponse is the landing page summary
type DashboardResponse struct {
	Query       service.Query               `json:"query"`
	Dashboard   aggregate.Dashboard         `json:"dashboard"`
	Collection  aggregate.CollectionSummary `json:"collection"`
	RefreshedAt time.Time                   `json:"refreshedAt"`
}

// LedgerResponse is the filtered, sorted collected ledger
type LedgerResponse struct {
	Query        service.Query               `json:"query"`
	Records      []domain.RentRecord         `json:"records"`
	DailyEntries []ledger.Entry              `json:"dailyEntries"`
	Summary      aggregate.CollectionSummary `json:"summary"`
}

func dashboardOf(v *service.View) DashboardResponse {
	return DashboardResponse{
		Query:       v.Query,
		Dashboard:   v.Dashboard,
		Collection:  v.Collection,
		RefreshedAt: v.RefreshedAt,
	}
}

// ParseQuery reads the view state from query parameters. Each window takes
// explicit bounds (dueFrom/dueTo, collectedFrom/collectedTo), else a preset
// (duePeriod, collectedPeriod or the shared period), else the current month.
func ParseQuery(values url.Values, now time.Time) (service.Query, error) {
	period := values.Get("period")
	pick := func(specific string) string {
		if p := values.Get(specific); p != "" {
			return p
		}
		return period
	}
	due, err := ledger.ResolveRange(pick("duePeriod"), values.Get("dueFrom"), values.Get("dueTo"), now)
	if err != nil {
		return service.Query{}, err
	}
	collected, err := ledger.ResolveRange(pick("collectedPeriod"), values.Get("collectedFrom"), values.Get("collectedTo"), now)
	if err != nil {
		return service.Query{}, err
	}
	account, err := ledger.ParseAccountFilter(values.Get("account"))
	if err != nil {
		return service.Query{}, err
	}
	state, err := ordering.ParseState(values.Get("sort"), values.Get("dir"), ordering.RentKeys)
	if err != nil {
		return service.Query{}, err
	}
	return service.Query{DueRange: due, CollectedRange: collected, Account: account, Sort: state}, nil
}

// DashboardHandler serves the derived views
type DashboardHandler struct {
	ledger *service.LedgerController
	logger *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(ctrl *service.LedgerController, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{ledger: ctrl, logger: logger}
}

func (h *DashboardHandler) refresh(w http.ResponseWriter, r *http.Request) (*service.View, bool) {
	q, err := ParseQuery(r.URL.Query(), h.ledger.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	v, err := h.ledger.Refresh(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return v, true
}

// Dashboard handles GET /api/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	v, ok := h.refresh(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dashboardOf(v))
}

// CollectedLedger handles GET /api/ledger/collected. from/to name the collected window.
func (h *DashboardHandler) CollectedLedger(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if values.Get("collectedFrom") == "" && values.Get("collectedTo") == "" {
		values.Set("collectedFrom", values.Get("from"))
		values.Set("collectedTo", values.Get("to"))
	}
	r.URL.RawQuery = values.Encode()

	v, ok := h.refresh(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, LedgerResponse{
		Query:        v.Query,
		Records:      v.CollectedRecords,
		DailyEntries: v.DailyEntries,
		Summary:      v.Collection,
	})
}
