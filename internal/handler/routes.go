package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Health    *HealthHandler
	Login     *LoginHandler
	Tenants   *TenantHandler
	Rents     *RentHandler
	Rooms     *RoomHandler
	Accounts  *AccountHandler
	Dashboard *DashboardHandler
	Stream    *DashboardStream
}

// Register mounts all routes on mux. The dashboard stream is optional.
func (h Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/password", h.Login.ChangePassword)

	mux.HandleFunc("GET /api/tenants", h.Tenants.List)
	mux.HandleFunc("GET /api/tenants/active", h.Tenants.ListActive)
	mux.HandleFunc("GET /api/tenants/daily", h.Tenants.ListDaily)
	mux.HandleFunc("GET /api/tenants/{id}", h.Tenants.Get)
	mux.HandleFunc("POST /api/tenants", h.Tenants.Create)
	mux.HandleFunc("PUT /api/tenants/{id}", h.Tenants.Update)
	mux.HandleFunc("DELETE /api/tenants/{id}", h.Tenants.Delete)
	mux.HandleFunc("PATCH /api/tenants/{id}/checkout", h.Tenants.Checkout)
	mux.HandleFunc("DELETE /api/tenants/{id}/daily-collection", h.Tenants.ClearDailyCollection)

	mux.HandleFunc("GET /api/rents/due", h.Rents.Due)
	mux.HandleFunc("GET /api/rents/collected", h.Rents.Collected)
	mux.HandleFunc("GET /api/rents/export", h.Rents.Export)
	mux.HandleFunc("POST /api/rents", h.Rents.Upsert)
	mux.HandleFunc("PUT /api/rents/{id}", h.Rents.Edit)
	mux.HandleFunc("POST /api/rents/{id}/pay", h.Rents.Pay)
	mux.HandleFunc("DELETE /api/rents/{id}", h.Rents.DeleteDue)
	mux.HandleFunc("DELETE /api/rents/{id}/collection", h.Rents.DeleteCollection)

	mux.HandleFunc("GET /api/rooms", h.Rooms.List)
	mux.HandleFunc("GET /api/rooms/options", h.Rooms.Options)
	mux.HandleFunc("GET /api/rooms/occupancy", h.Rooms.Occupancy)
	mux.HandleFunc("POST /api/rooms", h.Rooms.Create)
	mux.HandleFunc("PUT /api/rooms/{id}", h.Rooms.Update)
	mux.HandleFunc("DELETE /api/rooms/{id}", h.Rooms.Delete)

	mux.HandleFunc("GET /api/accounts", h.Accounts.List)
	mux.HandleFunc("GET /api/accounts/{id}", h.Accounts.Get)
	mux.HandleFunc("POST /api/accounts", h.Accounts.Create)
	mux.HandleFunc("PUT /api/accounts/{id}", h.Accounts.Update)
	mux.HandleFunc("DELETE /api/accounts/{id}", h.Accounts.Delete)

	mux.HandleFunc("GET /api/dashboard", h.Dashboard.Dashboard)
	mux.HandleFunc("GET /api/ledger/collected", h.Dashboard.CollectedLedger)
	if h.Stream != nil {
		mux.Handle("GET /ws/dashboard", h.Stream)
	}
}
