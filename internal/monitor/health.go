package monitor

import (
	"context"
	"log/slog"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"threatwatch/internal/metrics"
)

const (
	warningUsagePercent  = 90.0
	criticalUsagePercent = 95.0
)

// Health samples host resource usage and grades it.
func (d *Detector) Health(ctx context.Context) Health {
	cpuPct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(cpuPct) == 0 {
		slog.Error("cpu sample failed", "err", err)
		return Health{Status: "error"}
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		slog.Error("memory sample failed", "err", err)
		return Health{Status: "error"}
	}
	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		slog.Error("disk sample failed", "err", err)
		return Health{Status: "error"}
	}

	h := Health{
		Status:        "healthy",
		CPUPercent:    cpuPct[0],
		MemoryPercent: vm.UsedPercent,
		DiskPercent:   du.UsedPercent,
	}
	if h.CPUPercent > warningUsagePercent || h.MemoryPercent > warningUsagePercent || h.DiskPercent > warningUsagePercent {
		h.Status = "warning"
	}
	if h.CPUPercent > criticalUsagePercent || h.MemoryPercent > criticalUsagePercent || h.DiskPercent > criticalUsagePercent {
		h.Status = "critical"
	}

	metrics.SystemUsage.WithLabelValues("cpu").Set(h.CPUPercent)
	metrics.SystemUsage.WithLabelValues("memory").Set(h.MemoryPercent)
	metrics.SystemUsage.WithLabelValues("disk").Set(h.DiskPercent)
	return h
}
