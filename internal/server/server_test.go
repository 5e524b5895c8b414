package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatwatch/internal/config"
	"threatwatch/internal/monitor"
	"threatwatch/internal/threat"
)

type stubScanner struct {
	snap   *monitor.Snapshot
	err    error
	health monitor.Health
}

func (s stubScanner) Snapshot(context.Context) (*monitor.Snapshot, error) { return s.snap, s.err }
func (s stubScanner) Health(context.Context) monitor.Health              { return s.health }

func get(t *testing.T, scanner Scanner, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(scanner, &config.Server{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func sampleSnapshot() *monitor.Snapshot {
	details := threat.NewDetails()
	_ = details.Set("remote_ip", "10.0.0.5")
	_ = details.Set("remote_port", 4444)
	_ = details.Set("local_port", 52100)

	return &monitor.Snapshot{
		Threats: []threat.Threat{
			{
				ID:          "threat-001",
				Timestamp:   threat.NewTimestamp(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
				Type:        "network_anomaly",
				Severity:    "CRITICAL",
				Status:      "active",
				Source:      "network_monitor",
				Description: "Connection to potentially malicious IP: 10.0.0.5",
				Details:     details,
			},
			{
				ID:          "threat-002",
				Timestamp:   threat.NewTimestamp(time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)),
				Type:        "suspicious_process",
				Severity:    "high",
				Status:      "active",
				Source:      "system_monitor",
				Description: "Suspicious process detected: cryptominer",
			},
		},
		NetworkThreats: 1,
		ProcessCount:   128,
		TakenAt:        time.Now(),
	}
}

func TestThreatsEndpoint(t *testing.T) {
	rec := get(t, stubScanner{snap: sampleSnapshot()}, "/api/threats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Threats     []threat.Threat `json:"threats"`
		TotalCount  int             `json:"totalCount"`
		LastUpdated string          `json:"lastUpdated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Threats, 2)
	assert.Equal(t, 2, resp.TotalCount)
	assert.NotEmpty(t, resp.LastUpdated)

	// Details keys serialize in insertion order.
	body := rec.Body.String()
	ipIdx := strings.Index(body, "remote_ip")
	portIdx := strings.Index(body, "remote_port")
	localIdx := strings.Index(body, "local_port")
	require.GreaterOrEqual(t, ipIdx, 0)
	assert.Greater(t, portIdx, ipIdx)
	assert.Greater(t, localIdx, portIdx)
}

func TestThreatsEndpointEmptyScan(t *testing.T) {
	rec := get(t, stubScanner{snap: &monitor.Snapshot{}}, "/api/threats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Threats []threat.Threat `json:"threats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Threats)
	assert.Empty(t, resp.Threats)
	assert.Contains(t, rec.Body.String(), `"threats":[]`)
}

func TestSummaryEndpoint(t *testing.T) {
	rec := get(t, stubScanner{snap: sampleSnapshot()}, "/api/dashboard/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var s threat.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	total, critical, blocked, monitored := s.Totals()
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, uint64(1), critical, "uppercase severities count as critical")
	assert.Equal(t, uint64(1), blocked)
	assert.Equal(t, uint64(128), monitored)
}

func TestScannerFailureReturns500(t *testing.T) {
	rec := get(t, stubScanner{err: errors.New("scan failed")}, "/api/threats")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "scan failed")
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, stubScanner{health: monitor.Health{Status: "healthy", CPUPercent: 12.5}}, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestHealthEndpointError(t *testing.T) {
	rec := get(t, stubScanner{health: monitor.Health{Status: "error"}}, "/health")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRootEndpoint(t *testing.T) {
	rec := get(t, stubScanner{}, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "threatwatch API")
	assert.Contains(t, rec.Body.String(), serviceVersion)
}

func TestUnknownMethodRejected(t *testing.T) {
	srv := New(stubScanner{snap: &monitor.Snapshot{}}, &config.Server{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/threats", nil)
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
