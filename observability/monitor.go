// Package observability samples process health and registry sizes on a timer.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// RegistryCounts reports the live fanout-state sizes.
type RegistryCounts interface {
	Counts() (memberships, watchers, online int)
}

// Monitor logs process cpu/ram, goroutine count and registry sizes at a fixed
// interval.
type Monitor struct {
	registry RegistryCounts
	interval time.Duration
	log      *slog.Logger
}

func NewMonitor(registry RegistryCounts, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{registry: registry, interval: interval, log: log}
}

func (m *Monitor) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Debug("Context done, stopping monitor")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				m.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			ram, err := proc.MemoryPercent()
			if err != nil {
				m.log.Error("Error while finding process ram usage", "err", err)
				continue
			}

			memberships, watchers, online := m.registry.Counts()
			m.log.Info("Instance health",
				"cpu", cpu,
				"ram", ram,
				"goroutines", runtime.NumGoroutine(),
				"memberships", memberships,
				"watchers", watchers,
				"online", online,
			)
		}
	}
}
