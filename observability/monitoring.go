// Package observability exposes process self-stats for the health
// endpoint.
package observability

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type ProcessStats struct {
	PID        int     `json:"pid"`
	Status     string  `json:"status"`
	CPUPercent float64 `json:"cpuPercent"`
	RAMBytes   uint64  `json:"ramBytes"`
	UptimeSecs float64 `json:"uptimeSecs"`
}

// Monitor samples CPU, RSS and status of the current process.
type Monitor struct {
	proc    *process.Process
	started time.Time
}

func NewMonitor() (*Monitor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{proc: p, started: time.Now()}, nil
}

func (m *Monitor) Stats() (ProcessStats, error) {
	memInfo, err := m.proc.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := m.proc.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := m.proc.Status()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{
		PID:        os.Getpid(),
		Status:     status,
		CPUPercent: cpuPercent,
		RAMBytes:   memInfo.RSS,
		UptimeSecs: time.Since(m.started).Seconds(),
	}, nil
}
