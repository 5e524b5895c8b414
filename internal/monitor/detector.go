package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/willf/bloom"

	"threatwatch/internal/metrics"
	"threatwatch/internal/threat"
)

var suspiciousProcessNames = []string{
	"coinminer", "cryptominer", "bitcoin", "monero",
	"backdoor", "keylogger", "trojan", "malware",
	"suspicious", "hack", "exploit",
}

var cryptoKeywords = []string{"mining", "pool", "stratum", "crypto", "coin"}

// Common backdoor ports, leet ports, and IRC ports used by botnets.
var suspiciousPorts = []uint32{
	4444, 5555, 6666, 7777, 8888, 9999,
	1337, 31337,
	6667, 6697,
}

var highRiskDirs = []string{
	"/tmp", "/var/tmp", "/private/tmp",
	"/Library/LaunchDaemons", "/Library/LaunchAgents",
	"/System/Library/LaunchDaemons",
}

const (
	highCPUThreshold = 80.0
	recentFileWindow = time.Hour
)

// Snapshot is one full scan of the host.
type Snapshot struct {
	Threats        []threat.Threat
	NetworkThreats uint64
	ProcessCount   uint64
	TakenAt        time.Time
}

// Health is the host resource assessment backing /health.
type Health struct {
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent,omitempty"`
	MemoryPercent float64 `json:"memory_percent,omitempty"`
	DiskPercent   float64 `json:"disk_percent,omitempty"`
}

// Detector scans the host for suspicious processes, network connections
// and file activity. Scan results are cached for a TTL so back-to-back
// dashboard polls do not trigger a rescan.
type Detector struct {
	corpus *bloom.BloomFilter
	ports  map[uint32]bool
	cache  *scanCache
}

// NewDetector seeds the indicator corpus and returns a detector.
func NewDetector(scanTTL time.Duration) *Detector {
	bf := bloom.New(100000, 5) // ~1% false positive
	ports := make(map[uint32]bool, len(suspiciousPorts))
	for _, p := range suspiciousPorts {
		ports[p] = true
		bf.Add([]byte(strconv.FormatUint(uint64(p), 10)))
	}
	for _, name := range suspiciousProcessNames {
		bf.Add([]byte(name))
	}
	return &Detector{
		corpus: bf,
		ports:  ports,
		cache:  newScanCache(scanTTL),
	}
}

// Snapshot returns the current threat assessment, serving the cached scan
// when it is still fresh.
func (d *Detector) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap, ok := d.cache.get(); ok {
		return snap, nil
	}

	procThreats, procCount := d.scanProcesses(ctx)
	netThreats := d.scanConnections(ctx)
	fileThreats := d.scanFiles()

	snap := &Snapshot{
		NetworkThreats: uint64(len(netThreats)),
		ProcessCount:   procCount,
		TakenAt:        time.Now(),
	}
	snap.Threats = append(snap.Threats, procThreats...)
	snap.Threats = append(snap.Threats, netThreats...)
	snap.Threats = append(snap.Threats, fileThreats...)
	for i := range snap.Threats {
		snap.Threats[i].ID = fmt.Sprintf("threat-%03d", i+1)
	}
	d.observeSeverities(snap.Threats)

	d.cache.set(snap)
	return snap, nil
}

func (d *Detector) scanProcesses(ctx context.Context) ([]threat.Threat, uint64) {
	defer observeScan("process")()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		slog.Error("process scan failed", "err", err)
		return nil, 0
	}

	var threats []threat.Threat
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cpu, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		cmdline, _ := p.CmdlineWithContext(ctx)

		sev, flagged := classifyProcess(name, cmdline, cpu)
		if !flagged {
			continue
		}

		details := threat.NewDetails()
		_ = details.Set("pid", p.Pid)
		_ = details.Set("cpu_percent", cpu)
		_ = details.Set("memory_percent", memPct)

		threats = append(threats, threat.Threat{
			Timestamp:   threat.NewTimestamp(time.Now()),
			Type:        "suspicious_process",
			Severity:    sev,
			Status:      "active",
			Source:      "system_monitor",
			Title:       fmt.Sprintf("Suspicious Process: %s", name),
			Description: fmt.Sprintf("Suspicious process detected: %s", name),
			Confidence:  0.85,
			Details:     details,
		})
	}
	return threats, uint64(len(procs))
}

func (d *Detector) scanConnections(ctx context.Context) []threat.Threat {
	defer observeScan("network")()

	conns, err := gnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		slog.Error("connection scan failed", "err", err)
		return nil
	}

	var threats []threat.Threat
	for _, conn := range conns {
		if conn.Status != "ESTABLISHED" || conn.Raddr.IP == "" {
			continue
		}

		if d.suspiciousPort(conn.Raddr.Port) || d.suspiciousPort(conn.Laddr.Port) {
			details := threat.NewDetails()
			_ = details.Set("remote_ip", conn.Raddr.IP)
			_ = details.Set("remote_port", conn.Raddr.Port)
			_ = details.Set("local_port", conn.Laddr.Port)
			threats = append(threats, threat.Threat{
				Timestamp:   threat.NewTimestamp(time.Now()),
				Type:        "network_anomaly",
				Severity:    threat.SeverityHigh,
				Status:      "active",
				Source:      "network_monitor",
				Title:       "Suspicious Network Activity",
				Description: fmt.Sprintf("Connection to suspicious port %d", conn.Raddr.Port),
				Confidence:  0.90,
				Details:     details,
			})
		}

		if suspiciousRemoteIP(conn.Raddr.IP) {
			details := threat.NewDetails()
			_ = details.Set("remote_ip", conn.Raddr.IP)
			_ = details.Set("remote_port", conn.Raddr.Port)
			_ = details.Set("local_port", conn.Laddr.Port)
			threats = append(threats, threat.Threat{
				Timestamp:   threat.NewTimestamp(time.Now()),
				Type:        "network_anomaly",
				Severity:    threat.SeverityCritical,
				Status:      "active",
				Source:      "network_monitor",
				Title:       "Suspicious Network Activity",
				Description: fmt.Sprintf("Connection to potentially malicious IP: %s", conn.Raddr.IP),
				Confidence:  0.90,
				Details:     details,
			})
		}
	}
	return threats
}

func (d *Detector) scanFiles() []threat.Threat {
	defer observeScan("file")()

	var threats []threat.Threat
	cutoff := time.Now().Add(-recentFileWindow)
	for _, dir := range highRiskDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			details := threat.NewDetails()
			_ = details.Set("filepath", path)
			_ = details.Set("directory", dir)
			_ = details.Set("modified_time", info.ModTime().Format(time.RFC3339))
			threats = append(threats, threat.Threat{
				Timestamp:   threat.NewTimestamp(time.Now()),
				Type:        "file_anomaly",
				Severity:    threat.SeverityMedium,
				Status:      "active",
				Source:      "file_monitor",
				Title:       "Suspicious File Activity",
				Description: fmt.Sprintf("Recently modified file in sensitive directory: %s", entry.Name()),
				Confidence:  0.75,
				Details:     details,
			})
		}
	}
	return threats
}

// suspiciousPort uses the bloom corpus for the fast negative path and the
// exact set to rule out false positives.
func (d *Detector) suspiciousPort(port uint32) bool {
	key := strconv.FormatUint(uint64(port), 10)
	if !d.corpus.Test([]byte(key)) {
		return false
	}
	return d.ports[port]
}

func (d *Detector) observeSeverities(threats []threat.Threat) {
	counts := map[threat.Severity]int{
		threat.SeverityCritical: 0,
		threat.SeverityHigh:     0,
		threat.SeverityMedium:   0,
		threat.SeverityLow:      0,
	}
	for _, t := range threats {
		counts[t.Severity.Normalized()]++
	}
	for sev, n := range counts {
		metrics.ThreatsDetected.WithLabelValues(string(sev)).Set(float64(n))
	}
}

// classifyProcess flags known-bad process names as critical and
// high-CPU processes with crypto-mining command lines as high.
func classifyProcess(name, cmdline string, cpu float64) (threat.Severity, bool) {
	lowerName := strings.ToLower(name)
	for _, bad := range suspiciousProcessNames {
		if strings.Contains(lowerName, bad) {
			return threat.SeverityCritical, true
		}
	}
	if cpu > highCPUThreshold {
		lowerCmd := strings.ToLower(cmdline)
		for _, kw := range cryptoKeywords {
			if strings.Contains(lowerCmd, kw) {
				return threat.SeverityHigh, true
			}
		}
	}
	return "", false
}

// suspiciousRemoteIP flags remote addresses that should never appear as
// external peers: loopback, unspecified, broadcast, and private ranges.
func suspiciousRemoteIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() ||
		parsed.IsUnspecified() ||
		parsed.IsPrivate() ||
		parsed.Equal(net.IPv4bcast)
}

func observeScan(scanner string) func() {
	start := time.Now()
	return func() {
		metrics.ScanDuration.WithLabelValues(scanner).Observe(time.Since(start).Seconds())
	}
}
