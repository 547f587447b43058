package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/ledger"
	"github.com/aryan0dhankhar/pgledger/internal/security/audit"
	"github.com/aryan0dhankhar/pgledger/internal/service"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var march15 = fixedClock{t: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)}

type touches struct{ n int }

func (t *touches) Touch() { t.n++ }

// rentStore is a minimal in-memory rent repository
type rentStore struct {
	records map[int64]domain.RentRecord
}

func newRentStore() *rentStore {
	return &rentStore{records: map[int64]domain.RentRecord{}}
}

func (s *rentStore) ListDue(context.Context, domain.Date, domain.Date) ([]domain.RentRecord, error) {
	out := []domain.RentRecord{}
	for _, r := range s.records {
		if r.PaidAmount.LessThan(r.DueAmount) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *rentStore) ListCollected(context.Context, domain.Date, domain.Date) ([]domain.RentRecord, error) {
	out := []domain.RentRecord{}
	for _, r := range s.records {
		if r.PaidAmount.IsPositive() && r.TransactionAt != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *rentStore) Get(_ context.Context, id int64) (*domain.RentRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, domain.NotFoundf("rent record %d not found", id)
	}
	return &r, nil
}

func (s *rentStore) FindByTenantMonth(context.Context, int64, domain.Date) (*domain.RentRecord, error) {
	return nil, domain.NotFoundf("not found")
}

func (s *rentStore) Create(_ context.Context, rec *domain.RentRecord) error {
	rec.ID = int64(len(s.records) + 1)
	s.records[rec.ID] = *rec
	return nil
}

func (s *rentStore) Update(_ context.Context, id int64, u domain.RentUpdate) (*domain.RentRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, domain.NotFoundf("rent record %d not found", id)
	}
	r.DueAmount, r.PaidAmount, r.Status = u.DueAmount, u.PaidAmount, u.Status
	r.AccountID, r.TransactionAt = u.AccountID, u.TransactionAt
	s.records[id] = r
	return &r, nil
}

func (s *rentStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.records[id]; !ok {
		return domain.NotFoundf("rent record %d not found", id)
	}
	delete(s.records, id)
	return nil
}

type tenantStore struct {
	domain.TenantRepository
	tenants map[int64]domain.Tenant
}

func (s tenantStore) Get(_ context.Context, id int64) (*domain.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, domain.NotFoundf("tenant %d not found", id)
	}
	return &t, nil
}

func (s tenantStore) ListDaily(context.Context) ([]domain.Tenant, error) {
	return nil, nil
}

type accountStore struct {
	domain.AccountRepository
	accounts []domain.Account
}

func (s accountStore) List(context.Context) ([]domain.Account, error) {
	return s.accounts, nil
}

func newRentHandler(t *testing.T) (*RentHandler, *rentStore, *touches, *bytes.Buffer) {
	t.Helper()
	store := newRentStore()
	tenants := tenantStore{tenants: map[int64]domain.Tenant{
		1: {ID: 1, FullName: "Asha", RoomNumber: "G1", Active: true, Billing: &domain.MonthlyBilling{Rent: decimal.NewFromInt(10000)}},
	}}
	at := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	store.records[1] = domain.RentRecord{
		ID: 1, TenantID: 1, TenantName: "Asha", RoomNumber: "G1",
		BillingMonth: domain.NewDate(2024, time.March, 1),
		DueAmount:    decimal.NewFromInt(10000), PaidAmount: decimal.NewFromInt(4000),
		Status: domain.StatusPartial, TransactionAt: &at,
	}
	rents := service.NewRentService(store, tenants, march15, discard())
	export := service.NewExportService(store, tenants, accountStore{}, discard())
	n := &touches{}
	var auditBuf bytes.Buffer
	auditLog := audit.NewLogger(slog.New(slog.NewJSONHandler(&auditBuf, nil)))
	return NewRentHandler(rents, export, march15, n, auditLog, discard()), store, n, &auditBuf
}

func serve(h Handlers, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", 400, `{"message":"bad amount","error":"Bad Request"}`, "bad amount"},
		{"error field", 404, `{"error":"rent record 9 not found"}`, "rent record 9 not found"},
		{"raw text", 502, "upstream down\n", "upstream down"},
		{"empty body", 503, "", "Service Unavailable"},
		{"unknown status", 599, "", "request failed with status 599"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ErrorMessage(tc.status, []byte(tc.body)))
		})
	}
}

func TestWriteErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.Validationf("amount must be positive"), http.StatusBadRequest, "amount must be positive: validation failed"},
		{domain.NotFoundf("tenant 3 not found"), http.StatusNotFound, "tenant 3 not found: not found"},
		{domain.Conflictf("duplicate"), http.StatusConflict, "duplicate: conflict"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, discard(), tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.msg, errorOf(t, rec))
	}
}

func TestParseQuery(t *testing.T) {
	values := url.Values{
		"dueFrom":         {"2024-01-01"},
		"dueTo":           {"2024-01-31"},
		"collectedPeriod": {"last"},
		"account":         {"007"},
		"sort":            {"paidAmount"},
		"dir":             {"desc"},
	}
	q, err := ParseQuery(values, march15.t)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", q.DueRange.From.String())
	assert.Equal(t, "2024-02-01", q.CollectedRange.From.String())
	assert.Equal(t, "2024-02-29", q.CollectedRange.To.String())
	assert.Equal(t, ledger.AccountFilter("7"), q.Account)
	assert.Equal(t, "paidAmount", q.Sort.Key)

	q, err = ParseQuery(url.Values{"period": {"all"}}, march15.t)
	require.NoError(t, err)
	assert.True(t, q.DueRange.IsOpen())
	assert.True(t, q.CollectedRange.IsOpen())

	_, err = ParseQuery(url.Values{"account": {"cash"}}, march15.t)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = ParseQuery(url.Values{"sort": {"color"}}, march15.t)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPayPartialClampsAndAudits(t *testing.T) {
	rh, store, n, auditBuf := newRentHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rents/1/pay", strings.NewReader(`{"mode":"partial","amount":"7000"}`))
	rec := serve(Handlers{Rents: rh}, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got domain.RentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.PaidAmount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, domain.StatusOnTime, got.Status)
	assert.True(t, store.records[1].PaidAmount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 1, n.n)
	assert.Contains(t, auditBuf.String(), `"action":"payment"`)
}

func TestPayEmptyBodyPaysInFull(t *testing.T) {
	rh, store, _, _ := newRentHandler(t)

	rec := serve(Handlers{Rents: rh}, httptest.NewRequest(http.MethodPost, "/api/rents/1/pay", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StatusOnTime, store.records[1].Status)
}

func TestPayErrors(t *testing.T) {
	rh, store, n, _ := newRentHandler(t)
	h := Handlers{Rents: rh}

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/rents/1/pay", strings.NewReader(`{"mode":"PARTIAL","amount":-5}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, store.records[1].PaidAmount.Equal(decimal.NewFromInt(4000)))

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/rents/9/pay", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/rents/abc/pay", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/rents/1/pay", strings.NewReader(`{"mode":"HALF"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "unknown payment mode")

	assert.Zero(t, n.n)
}

func TestEditOutstandingMode(t *testing.T) {
	rh, _, _, _ := newRentHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/rents/1?balanceMode=outstanding",
		strings.NewReader(`{"dueAmount":2000,"paidAmount":4000}`))
	rec := serve(Handlers{Rents: rh}, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got domain.RentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.DueAmount.Equal(decimal.NewFromInt(6000)))
}

func TestDeleteDueWritesOff(t *testing.T) {
	rh, store, _, _ := newRentHandler(t)

	rec := serve(Handlers{Rents: rh}, httptest.NewRequest(http.MethodDelete, "/api/rents/1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, store.records[1].DueAmount.Equal(decimal.NewFromInt(4000)))
}

func TestExportCSV(t *testing.T) {
	rh, _, _, auditBuf := newRentHandler(t)

	rec := serve(Handlers{Rents: rh}, httptest.NewRequest(http.MethodGet, "/api/rents/export?from=2024-03-01&to=2024-03-31", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="collections-2024-03-01-to-2024-03-31-all-accounts.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Type,Transaction Date-Time,Tenant Name,Room Number,Billing Month,Amount,Account Name,Account Mode", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "REGULAR_RENT,2024-03-05T09:00:00Z,Asha,G1,2024-03-01,4000.00"))
	assert.Contains(t, auditBuf.String(), `"action":"export"`)
}

func TestDueListRejectsBadRange(t *testing.T) {
	rh, _, _, _ := newRentHandler(t)

	rec := serve(Handlers{Rents: rh}, httptest.NewRequest(http.MethodGet, "/api/rents/due?from=03/01/2024", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(Handlers{Rents: rh}, httptest.NewRequest(http.MethodGet, "/api/rents/due", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var records []domain.RentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	rec := httptest.NewRecorder()
	NewHealthHandler(ok, nil, discard()).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not configured", body.Checks["redis"])

	rec = httptest.NewRecorder()
	NewHealthHandler(ok, down, discard()).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
