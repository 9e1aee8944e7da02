package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts frame timing and loop traffic. Writes happen on the loop
// goroutine; Snapshot may be called from anywhere.
type Metrics struct {
	frameCount   atomic.Uint64
	frameTotalNs atomic.Int64
	frameMaxNs   atomic.Int64
	lastFrameNs  atomic.Int64

	events     atomic.Uint64
	shellBytes atomic.Uint64
	opEvents   atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordFrame records the time one frame took.
func (m *Metrics) RecordFrame(d time.Duration) {
	ns := d.Nanoseconds()
	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	m.lastFrameNs.Store(ns)
	for {
		old := m.frameMaxNs.Load()
		if ns <= old || m.frameMaxNs.CompareAndSwap(old, ns) {
			return
		}
	}
}

// RecordEvent counts one key, paste or resize event.
func (m *Metrics) RecordEvent() { m.events.Add(1) }

// RecordShellOutput counts bytes fed to the emulator.
func (m *Metrics) RecordShellOutput(n int) { m.shellBytes.Add(uint64(n)) }

// RecordOpEvent counts one executor event.
func (m *Metrics) RecordOpEvent() { m.opEvents.Add(1) }

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	frames := m.frameCount.Load()
	var avg time.Duration
	if frames > 0 {
		avg = time.Duration(m.frameTotalNs.Load() / int64(frames))
	}
	return MetricsSnapshot{
		Uptime:     time.Since(m.startTime),
		Frames:     frames,
		AvgFrame:   avg,
		MaxFrame:   time.Duration(m.frameMaxNs.Load()),
		LastFrame:  time.Duration(m.lastFrameNs.Load()),
		Events:     m.events.Load(),
		ShellBytes: m.shellBytes.Load(),
		OpEvents:   m.opEvents.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Uptime     time.Duration
	Frames     uint64
	AvgFrame   time.Duration
	MaxFrame   time.Duration
	LastFrame  time.Duration
	Events     uint64
	ShellBytes uint64
	OpEvents   uint64
}

// AvgFPS is the frame rate the loop could sustain given the average
// frame cost.
func (s MetricsSnapshot) AvgFPS() float64 {
	if s.AvgFrame == 0 {
		return 0
	}
	return float64(time.Second) / float64(s.AvgFrame)
}
