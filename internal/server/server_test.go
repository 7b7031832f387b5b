package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/dealerledger/internal/config"
	"github.com/aristath/dealerledger/internal/di"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		DataDir:               t.TempDir(),
		Port:                  8010,
		DefaultTaxRate:        "0",
		DefaultDueDays:        30,
		OverdueSweepSchedule:  "0 0 7 * * *",
		WALCheckpointSchedule: "0 */30 * * * *",
		Archive:               &config.ArchiveConfig{},
	}
	log := zerolog.New(nil).Level(zerolog.Disabled)

	container, jobs, err := di.Wire(cfg, log, nil)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	return New(Config{Log: log, Port: cfg.Port, DevMode: true, Container: container, Jobs: jobs})
}

func request(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func TestHealth(t *testing.T) {
	s := setupServer(t)

	w, body := request(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestInvoiceToPaidFlow(t *testing.T) {
	s := setupServer(t)

	w, body := request(t, s, "POST", "/api/invoices", `{
		"customer_id": "cust-9",
		"items": [{"description": "Timing belt", "quantity": 1, "unit_price": "640"}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["data"].(map[string]interface{})["id"].(string)

	w, _ = request(t, s, "POST", "/api/invoices/"+id+"/send", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = request(t, s, "POST", "/api/invoices/"+id+"/payments", `{"amount": "640", "method": "check"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body = request(t, s, "GET", "/api/invoices/"+id+"/balance", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	balance := body["data"].(map[string]interface{})
	assert.Equal(t, "paid", balance["status"])
	assert.Equal(t, "0", balance["remaining_balance"])

	w, body = request(t, s, "GET", "/api/events/recent?limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["metadata"].(map[string]interface{})["count"])

	w, _ = request(t, s, "GET", "/api/events/recent?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModuleRoutesMounted(t *testing.T) {
	s := setupServer(t)

	w, _ := request(t, s, "POST", "/api/amortization/calculate", `{
		"vehicle_price": 12000,
		"down_payment": 0,
		"annual_rate_percent": 0,
		"term_periods": 12
	}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = request(t, s, "GET", "/api/settings", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = request(t, s, "GET", "/api/ledger/payments.csv", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = request(t, s, "GET", "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSystemRoutes(t *testing.T) {
	s := setupServer(t)

	w, body := request(t, s, "GET", "/api/system/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disabled", body["redis"])
	assert.Equal(t, false, body["archive_enabled"])
	databases := body["databases"].(map[string]interface{})
	assert.Contains(t, databases, "ledger")
	assert.Contains(t, databases, "config")

	w, body = request(t, s, "GET", "/api/system/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"overdue_sweep", "wal_checkpoint"}, body["data"])

	w, body = request(t, s, "POST", "/api/system/jobs/overdue_sweep", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", body["status"])

	w, _ = request(t, s, "POST", "/api/system/jobs/export_archive", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
