package sim

import (
	"sync"
	"time"
)

// TickStats summarises observed tick durations.
type TickStats struct {
	Samples int
	Faults  int
	Average time.Duration
	Max     time.Duration
	Last    time.Duration
}

// AverageFPS is the frame rate the average tick cost would sustain.
func (s TickStats) AverageFPS() float64 {
	if s.Average <= 0 {
		return 0
	}
	return float64(time.Second) / float64(s.Average)
}

// TickMonitor accumulates wall-clock cost of driver ticks. It is safe to
// read from another goroutine while the driver records.
type TickMonitor struct {
	mu      sync.Mutex
	samples int
	faults  int
	total   time.Duration
	max     time.Duration
	last    time.Duration
}

func NewTickMonitor() *TickMonitor {
	return &TickMonitor{}
}

func (m *TickMonitor) Observe(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.mu.Lock()
	m.samples++
	m.total += duration
	if duration > m.max {
		m.max = duration
	}
	m.last = duration
	m.mu.Unlock()
}

func (m *TickMonitor) ObserveFault() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.faults++
	m.mu.Unlock()
}

func (m *TickMonitor) Snapshot() TickStats {
	if m == nil {
		return TickStats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if m.samples > 0 {
		avg = m.total / time.Duration(m.samples)
	}
	return TickStats{Samples: m.samples, Faults: m.faults, Average: avg, Max: m.max, Last: m.last}
}

func (m *TickMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.samples = 0
	m.faults = 0
	m.total = 0
	m.max = 0
	m.last = 0
	m.mu.Unlock()
}
