package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"threatwatch/internal/threat"
)

// View renders the current state. Three mutually exclusive modes, in
// order of precedence: error, first-load placeholder, dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.errMsg != "" {
		return m.viewError()
	}
	if m.loading && len(m.threats) == 0 {
		return m.viewLoading()
	}
	return m.viewDashboard()
}

func (m Model) viewError() string {
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Error.Render("✗ Threat feed unavailable"),
		m.errMsg,
		m.styles.Muted.Render(fmt.Sprintf("Check that the threat API is reachable at %s", m.baseURL)),
	)
	return m.styles.Panel.BorderForeground(ColorError).Render(content)
}

func (m Model) viewLoading() string {
	return fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Primary.Render("Connecting to threat feed..."))
}

func (m Model) viewDashboard() string {
	total, critical, blocked, monitored := m.summary.Totals()

	sections := []string{
		m.styles.Title.Render("Threat Monitor"),
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.styles.MetricCard("Total Threats", total),
			m.styles.MetricCard("Critical", critical),
			m.styles.MetricCard("Blocked Connections", blocked),
			m.styles.MetricCard("Monitored Processes", monitored),
		),
	}

	header := m.styles.Primary.Render(fmt.Sprintf("Active Threats (%d)", len(m.threats)))
	if m.loading {
		header += " " + m.spinner.View()
	}
	sections = append(sections, header)

	if len(m.threats) == 0 {
		sections = append(sections, m.styles.Success.Render("✓ No active threats detected"))
	} else {
		for _, t := range m.threats {
			sections = append(sections, m.threatCard(t))
		}
	}

	sections = append(sections, m.styles.Footer.Render("q: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// threatCard renders one threat in feed order: severity badge, timestamp,
// type, description, then the detail block when one is present. An empty
// detail block still renders its heading; an absent one renders nothing.
func (m Model) threatCard(t threat.Threat) string {
	lines := []string{
		m.styles.SeverityBadge(t.Severity) + "  " + m.styles.Muted.Render(t.Timestamp.Display()),
	}
	if t.Title != "" {
		lines = append(lines, m.styles.Primary.Render(t.Title))
	}
	if t.Type != "" {
		lines = append(lines, m.styles.Subtitle.Render(t.Type))
	}
	if t.Description != "" {
		lines = append(lines, t.Description)
	}
	if t.Details != nil {
		lines = append(lines, m.styles.Muted.Render("Details:"))
		for _, key := range t.Details.Keys() {
			raw, _ := t.Details.Get(key)
			lines = append(lines, "  "+m.styles.Muted.Render(key+": ")+compactJSON(raw))
		}
	}
	return m.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func formatCount(v uint64) string {
	return strconv.FormatUint(v, 10)
}
