// Package monitor produces process/system snapshots for the health endpoint.
package monitor

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

const snapshotCacheTTL = 2 * time.Second

// Snapshot is one point-in-time view of the serving process.
type Snapshot struct {
	TakenAt           string  `json:"taken_at"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
	NumGoroutine      int     `json:"num_goroutine"`
	CPUPercent        float64 `json:"cpu_percent"`
	ProcessRSS        uint64  `json:"process_rss_bytes"`
	ProcessCPUPct     float64 `json:"process_cpu_percent"`
	LoadAvg1          float64 `json:"load_avg_1,omitempty"`
	LoadAvg5          float64 `json:"load_avg_5,omitempty"`
	NetRecvPerSec     float64 `json:"net_recv_bytes_per_sec"`
	NetSentPerSec     float64 `json:"net_sent_bytes_per_sec"`
	GoVersion         string  `json:"go_version"`
	SnapshotFromCache bool    `json:"-"`
}

type Service struct {
	log     *slog.Logger
	started time.Time
	netHist *networkHistory

	mu      sync.Mutex
	hasSnap bool
	snap    Snapshot
	takenAt time.Time
}

func NewService(log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		log:     log,
		started: time.Now(),
		netHist: newNetworkHistory(10, 30*time.Second),
	}
}

// Snapshot returns a recent snapshot, refreshing at most every 2 seconds.
// Metric collection is best-effort: unavailable probes leave zero fields.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	if s.hasSnap && time.Since(s.takenAt) < snapshotCacheTTL {
		snap := s.snap
		s.mu.Unlock()
		snap.SnapshotFromCache = true
		return snap
	}
	s.mu.Unlock()

	snap := s.collect(ctx)

	s.mu.Lock()
	s.snap = snap
	s.takenAt = time.Now()
	s.hasSnap = true
	s.mu.Unlock()
	return snap
}

func (s *Service) collect(ctx context.Context) Snapshot {
	snap := Snapshot{
		TakenAt:       time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		NumGoroutine:  runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	} else if err != nil {
		s.log.Debug("cpu probe failed", "error", err)
	}

	if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
		snap.LoadAvg1 = avg.Load1
		snap.LoadAvg5 = avg.Load5
	}

	if counters, err := gopsnet.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		s.netHist.Add(networkStats{
			bytesReceived: counters[0].BytesRecv,
			bytesSent:     counters[0].BytesSent,
			at:            time.Now(),
		})
		snap.NetRecvPerSec, snap.NetSentPerSec = s.netHist.CalculateSpeed(time.Now())
	}

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		s.log.Debug("process probe failed", "error", err)
		return snap
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		snap.ProcessRSS = mem.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		snap.ProcessCPUPct = pct
	}
	return snap
}
