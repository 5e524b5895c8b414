package main

import (
	"log/slog"
	"net/http"

	"threatwatch/internal/config"
	"threatwatch/internal/monitor"
	"threatwatch/internal/server"
)

func main() {
	cfg := config.LoadServer()
	det := monitor.NewDetector(cfg.ScanTTL)
	srv := server.New(det, cfg)

	srv.StartMetrics(cfg.MetricsAddr)

	slog.Info("listening", "addr", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, srv.Router()); err != nil {
		slog.Error("server error", "err", err)
	}
}
