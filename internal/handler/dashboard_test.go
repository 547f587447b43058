package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

type snapshotStub struct {
	mu    sync.Mutex
	snap  service.Snapshot
	err   error
	calls int
}

func (s *snapshotStub) Fetch(context.Context, ledger.DateRange, ledger.DateRange) (service.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.snap, s.err
}

func marchSnapshot() service.Snapshot {
	at := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	return service.Snapshot{
		Tenants: []domain.Tenant{{
			ID: 1, FullName: "Asha", RoomNumber: "G1", Active: true,
			JoiningDate: domain.NewDate(2024, time.January, 5),
			Billing: &domain.MonthlyBilling{
				Rent: decimal.NewFromInt(10000), RentPaidAmount: decimal.NewFromInt(4000),
				RentDueAmount: decimal.NewFromInt(6000), PaymentStatus: domain.StatusPartial,
			},
		}},
		CollectedRecords: []domain.RentRecord{{
			ID: 1, TenantID: 1, TenantName: "Asha", RoomNumber: "G1",
			BillingMonth: domain.NewDate(2024, time.March, 1),
			DueAmount:    decimal.NewFromInt(10000), PaidAmount: decimal.NewFromInt(4000),
			Status: domain.StatusPartial, TransactionAt: &at,
		}},
		Rooms: []domain.Room{{ID: 1, RoomNumber: "G1", BedCapacity: 2}},
	}
}

func TestDashboard(t *testing.T) {
	src := &snapshotStub{snap: marchSnapshot()}
	ctrl := service.NewLedgerController(src, nil, march15, discard())
	h := Handlers{Dashboard: NewDashboardHandler(ctrl, discard())}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Dashboard.ActiveTenants)
	assert.True(t, body.Dashboard.TotalRentCollection.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, 1, body.Collection.RecordCount)
	assert.Equal(t, "2024-03-01", body.Query.CollectedRange.From.String())
	assert.Equal(t, 2, body.Dashboard.TotalBeds)
}

func TestCollectedLedgerUsesFromTo(t *testing.T) {
	src := &snapshotStub{snap: marchSnapshot()}
	ctrl := service.NewLedgerController(src, nil, march15, discard())
	h := Handlers{Dashboard: NewDashboardHandler(ctrl, discard())}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/ledger/collected?from=2024-02-01&to=2024-02-29", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body LedgerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Records)
	assert.Equal(t, "2024-02-01", body.Query.CollectedRange.From.String())
}

func TestDashboardErrors(t *testing.T) {
	src := &snapshotStub{snap: marchSnapshot()}
	ctrl := service.NewLedgerController(src, nil, march15, discard())
	h := Handlers{Dashboard: NewDashboardHandler(ctrl, discard())}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/dashboard?account=cash", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, src.calls)

	src.err = errors.New("connection refused")
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorOf(t, rec))
}

func TestDashboardStreamPushesOnChange(t *testing.T) {
	src := &snapshotStub{snap: marchSnapshot()}
	ctrl := service.NewLedgerController(src, nil, march15, discard())
	srv := httptest.NewServer(NewDashboardStream(ctrl, time.Hour, nil, discard()))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first DashboardResponse
	require.NoError(t, ws.ReadJSON(&first))
	assert.Equal(t, 1, first.Dashboard.ActiveTenants)

	src.mu.Lock()
	src.snap.Tenants = nil
	src.mu.Unlock()
	ctrl.Touch()

	var second DashboardResponse
	require.NoError(t, ws.ReadJSON(&second))
	assert.Zero(t, second.Dashboard.ActiveTenants)
}

func TestDashboardStreamRejectsForeignOrigin(t *testing.T) {
	ctrl := service.NewLedgerController(&snapshotStub{}, nil, march15, discard())
	srv := httptest.NewServer(NewDashboardStream(ctrl, time.Hour, []string{"https://pg.example.com"}, discard()))
	defer srv.Close()

	header := http.Header{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
