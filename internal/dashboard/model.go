package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"threatwatch/internal/threat"
)

// fetcher is the slice of the threat client the dashboard needs.
type fetcher interface {
	FetchDashboard(ctx context.Context) ([]threat.Threat, *threat.Summary, error)
}

// tickMsg fires one poll cycle.
type tickMsg time.Time

// fetchResultMsg carries the settled outcome of one fetch cycle. The
// sequence number identifies which dispatch produced it.
type fetchResultMsg struct {
	seq     uint64
	threats []threat.Threat
	summary *threat.Summary
	err     error
}

// Model is the dashboard state. Fetch results mutate it only through
// Update; View is a pure function over it.
type Model struct {
	client   fetcher
	baseURL  string
	interval time.Duration
	styles   Styles
	spinner  spinner.Model
	width    int

	threats []threat.Threat
	summary *threat.Summary
	loading bool
	errMsg  string

	// seq is the newest dispatched cycle, applied the newest reconciled
	// one. A result older than applied lost the race and is dropped.
	seq      uint64
	applied  uint64
	quitting bool
}

// New creates a dashboard polling the given client.
func New(client *threat.Client, interval time.Duration) Model {
	return newModel(client, client.BaseURL(), interval)
}

func newModel(client fetcher, baseURL string, interval time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)
	return Model{
		client:   client,
		baseURL:  baseURL,
		interval: interval,
		styles:   NewStyles(),
		spinner:  sp,
		loading:  true,
		seq:      1,
	}
}

// Init dispatches the first fetch cycle immediately and arms the poll timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchCmd(m.client, m.seq), tickCmd(m.interval))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		m.seq++
		m.loading = true
		m.errMsg = ""
		return m, tea.Batch(fetchCmd(m.client, m.seq), tickCmd(m.interval))

	case fetchResultMsg:
		if m.quitting || msg.seq <= m.applied {
			return m, nil
		}
		m.applied = msg.seq
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.threats = msg.threats
		m.summary = msg.summary
		m.errMsg = ""
	}
	return m, nil
}

func fetchCmd(c fetcher, seq uint64) tea.Cmd {
	return func() tea.Msg {
		threats, summary, err := c.FetchDashboard(context.Background())
		return fetchResultMsg{seq: seq, threats: threats, summary: summary, err: err}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
