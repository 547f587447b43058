package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tenants/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := HTTPMetricsMiddleware(mux)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/tenants/{id}", "404"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tenants/17", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tenants/18", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/tenants/{id}", "404"))

	assert.Equal(t, 2.0, after-before)
}

func TestObservePaymentSkipsZeroAmount(t *testing.T) {
	before := testutil.ToFloat64(collectedAmount.WithLabelValues("PARTIAL"))
	ObservePayment("PARTIAL", decimal.Zero)
	ObservePayment("PARTIAL", decimal.NewFromInt(1500))
	assert.Equal(t, 1500.0, testutil.ToFloat64(collectedAmount.WithLabelValues("PARTIAL"))-before)
}

func TestSetOccupancy(t *testing.T) {
	SetOccupancy(12, 7)
	assert.Equal(t, 12.0, testutil.ToFloat64(bedsTotal))
	assert.Equal(t, 7.0, testutil.ToFloat64(bedsOccupied))
}
