// Package observability exposes a lightweight health snapshot of the
// running server: Go runtime counters plus process CPU/RAM gathered via
// gopsutil, and the current online-user count.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

type HealthSnapshot struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float32 `json:"memory_percent"`
	OnlineUsers   int     `json:"online_users"`
}

type Monitor struct {
	log     *slog.Logger
	started time.Time
	proc    *process.Process
	online  func() int
}

// NewMonitor builds a monitor for the current process. online reports
// the distinct online-user count; it may be nil.
func NewMonitor(log *slog.Logger, online func() int) *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("process metrics unavailable", "error", err)
		proc = nil
	}
	return &Monitor{log: log, started: time.Now(), proc: proc, online: online}
}

func (m *Monitor) Snapshot() HealthSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := HealthSnapshot{
		Status:        "ok",
		UptimeSeconds: time.Since(m.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		AllocMemMb:    memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			snapshot.CPUPercent = cpu
		} else {
			m.log.Debug("cpu metric unavailable", "error", err)
		}
		if ram, err := m.proc.MemoryPercent(); err == nil {
			snapshot.MemoryPercent = ram
		} else {
			m.log.Debug("memory metric unavailable", "error", err)
		}
	}
	if m.online != nil {
		snapshot.OnlineUsers = m.online()
	}
	return snapshot
}
