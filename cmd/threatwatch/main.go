package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"threatwatch/internal/config"
	"threatwatch/internal/dashboard"
	"threatwatch/internal/threat"
)

func main() {
	cfg := config.LoadClient()
	client := threat.NewClient(cfg.APIURL, cfg.HTTPTimeout)

	p := tea.NewProgram(dashboard.New(client, cfg.PollInterval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("dashboard exited", "err", err)
		os.Exit(1)
	}
}
