package dashboard

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatwatch/internal/threat"
)

func TestSeverityColorMapping(t *testing.T) {
	tests := []struct {
		severity threat.Severity
		want     string
	}{
		{"critical", string(ColorRed)},
		{"CRITICAL", string(ColorRed)},
		{"high", string(ColorOrange)},
		{"HIGH", string(ColorOrange)},
		{"medium", string(ColorAmber)},
		{"low", string(ColorOlive)},
		{"", string(ColorGray)},
		{"bogus", string(ColorGray)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(SeverityColor(tt.severity)), "severity %q", tt.severity)
	}
}

func TestErrorViewHasAbsolutePrecedence(t *testing.T) {
	m := testModel()
	m.threats = sampleThreats()
	m.summary = threat.NewSummary(1, 0, 0, 10)
	m.loading = true
	m.errMsg = "failed to fetch summary: boom"

	out := m.View()
	assert.Contains(t, out, "failed to fetch summary: boom")
	assert.Contains(t, out, "http://localhost:8001")
	assert.NotContains(t, out, "Active Threats")
	assert.NotContains(t, out, "Connecting to threat feed")
}

func TestLoadingPlaceholderOnlyBeforeFirstData(t *testing.T) {
	m := testModel()
	m.loading = true
	assert.Contains(t, m.View(), "Connecting to threat feed")

	// A background refresh with data on screen keeps showing the dashboard.
	m.threats = sampleThreats()
	out := m.View()
	assert.Contains(t, out, "Active Threats (1)")
	assert.NotContains(t, out, "Connecting to threat feed")
}

func TestEmptyStateSuccessBanner(t *testing.T) {
	m := testModel()
	m.loading = false
	m.threats = []threat.Threat{}
	m.summary = threat.NewSummary(0, 0, 0, 0)

	out := m.View()
	assert.Contains(t, out, "No active threats detected")
	assert.Contains(t, out, "Active Threats (0)")
}

func TestThreatCardContents(t *testing.T) {
	var ts threat.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-01T00:00:00Z"`), &ts))

	m := testModel()
	m.loading = false
	m.threats = []threat.Threat{{
		Severity:    "high",
		Type:        "PortScan",
		Description: "sequential connection attempts",
		Timestamp:   ts,
	}}

	out := m.View()
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "PortScan")
	assert.Contains(t, out, "sequential connection attempts")
	assert.Contains(t, out, ts.Local().Format("Jan 2, 2006 15:04:05"))
}

func TestDetailsAbsentVersusEmptyRenderDistinctly(t *testing.T) {
	m := testModel()
	m.loading = false

	m.threats = []threat.Threat{{Severity: "low", Description: "no details"}}
	assert.NotContains(t, m.View(), "Details:")

	m.threats = []threat.Threat{{Severity: "low", Description: "empty details", Details: threat.NewDetails()}}
	assert.Contains(t, m.View(), "Details:")
}

func TestDetailsRenderInInsertionOrder(t *testing.T) {
	details := threat.NewDetails()
	require.NoError(t, details.Set("remote_ip", "10.0.0.5"))
	require.NoError(t, details.Set("remote_port", 4444))
	require.NoError(t, details.Set("local_port", 52100))

	m := testModel()
	m.loading = false
	m.threats = []threat.Threat{{Severity: "high", Description: "conn", Details: details}}

	out := m.View()
	ipIdx := strings.Index(out, "remote_ip")
	portIdx := strings.Index(out, "remote_port")
	localIdx := strings.Index(out, "local_port")
	require.GreaterOrEqual(t, ipIdx, 0)
	require.Greater(t, portIdx, ipIdx)
	require.Greater(t, localIdx, portIdx)
	assert.Contains(t, out, `"10.0.0.5"`)
	assert.Contains(t, out, "4444")
}

func TestSummaryCountersDefaultToZero(t *testing.T) {
	m := testModel()
	m.loading = false
	m.threats = []threat.Threat{}
	m.summary = nil

	out := m.View()
	assert.Contains(t, out, "Total Threats")
	assert.Contains(t, out, "Blocked Connections")
	assert.Contains(t, out, "Monitored Processes")
}

func TestRenderIsPureFunctionOfState(t *testing.T) {
	m := testModel()
	m.loading = false
	m.threats = sampleThreats()
	m.summary = threat.NewSummary(1, 0, 2, 30)

	first := m.View()
	second := m.View()
	assert.Equal(t, first, second)
}

func TestQuitRendersNothing(t *testing.T) {
	m := testModel()
	m.quitting = true
	m.errMsg = "failed"
	assert.Empty(t, m.View())
}

func TestDashboardShowsRefreshSpinnerWhileLoading(t *testing.T) {
	m := testModel()
	m.loading = true
	m.threats = sampleThreats()
	m.summary = threat.NewSummary(1, 0, 0, 1)

	// Still the dashboard view, not the placeholder.
	assert.Contains(t, m.View(), "Active Threats (1)")
}

func TestCompactJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, compactJSON(json.RawMessage("{ \"a\": 1 }")))
	assert.Equal(t, `broken{`, compactJSON(json.RawMessage("broken{")))
}

func TestTickCmdUsesConfiguredInterval(t *testing.T) {
	assert.NotNil(t, tickCmd(100*time.Millisecond))
}
