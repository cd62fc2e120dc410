package kernel

import (
	"sync/atomic"
	"time"
)

// EventLatencyBuckets defines the event-dispatch latency histogram
// buckets in nanoseconds: how long a single event handler took to run
// once the chip service loop dispatched it. Buckets cover from 1us to 10s
// with logarithmic spacing.
var EventLatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// SyscallKind identifies which of the four syscalls a Metrics.RecordSyscall
// call is counting.
type SyscallKind int

const (
	SyscallCommand SyscallKind = iota
	SyscallSubscribe
	SyscallAllow
	SyscallYield
)

// Metrics tracks operational statistics for a running Node: syscall
// throughput by kind, event-dispatch latency, upcall delivery, and
// process fault/restart counts. This is ambient instrumentation, not a
// core kernel responsibility — nothing here gates correctness.
type Metrics struct {
	CommandCalls   atomic.Uint64
	SubscribeCalls atomic.Uint64
	AllowCalls     atomic.Uint64
	YieldCalls     atomic.Uint64

	EventsDispatched atomic.Uint64
	UpcallsDelivered atomic.Uint64

	ProcessFaults   atomic.Uint64
	ProcessRestarts atomic.Uint64

	// Event-dispatch latency tracking.
	TotalEventLatencyNs atomic.Uint64
	EventLatencyCount   atomic.Uint64
	EventLatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64 // node start timestamp (UnixNano)
	StopTime  atomic.Int64 // node stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordSyscall increments the counter for kind.
func (m *Metrics) RecordSyscall(kind SyscallKind) {
	switch kind {
	case SyscallCommand:
		m.CommandCalls.Add(1)
	case SyscallSubscribe:
		m.SubscribeCalls.Add(1)
	case SyscallAllow:
		m.AllowCalls.Add(1)
	case SyscallYield:
		m.YieldCalls.Add(1)
	}
}

// RecordEventDispatch records one event handler having run for latencyNs.
func (m *Metrics) RecordEventDispatch(latencyNs uint64) {
	m.EventsDispatched.Add(1)
	m.TotalEventLatencyNs.Add(latencyNs)
	m.EventLatencyCount.Add(1)
	for i, bucket := range EventLatencyBuckets {
		if latencyNs <= bucket {
			m.EventLatencyBuckets[i].Add(1)
		}
	}
}

// RecordUpcallDelivered records one driver-originated callback having been
// run inside a process's scheduling slice.
func (m *Metrics) RecordUpcallDelivered() {
	m.UpcallsDelivered.Add(1)
}

// RecordProcessFault records a process fault, and whether the board's
// FaultResponse restarted it (true) or left it panicked (false).
func (m *Metrics) RecordProcessFault(restarted bool) {
	m.ProcessFaults.Add(1)
	if restarted {
		m.ProcessRestarts.Add(1)
	}
}

// Stop marks the node as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of Metrics, with derived
// rates and percentiles computed once rather than on every field access.
type MetricsSnapshot struct {
	CommandCalls   uint64
	SubscribeCalls uint64
	AllowCalls     uint64
	YieldCalls     uint64
	TotalSyscalls  uint64

	EventsDispatched uint64
	UpcallsDelivered uint64

	ProcessFaults   uint64
	ProcessRestarts uint64

	AvgEventLatencyNs uint64
	UptimeNs          uint64

	EventLatencyP50Ns  uint64
	EventLatencyP99Ns  uint64
	EventLatencyP999Ns uint64

	EventLatencyHistogram [numLatencyBuckets]uint64

	SyscallsPerSecond float64
	EventsPerSecond   float64
	FaultRestartRate  float64 // fraction of faults that ended in a restart
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		CommandCalls:     m.CommandCalls.Load(),
		SubscribeCalls:   m.SubscribeCalls.Load(),
		AllowCalls:       m.AllowCalls.Load(),
		YieldCalls:       m.YieldCalls.Load(),
		EventsDispatched: m.EventsDispatched.Load(),
		UpcallsDelivered: m.UpcallsDelivered.Load(),
		ProcessFaults:    m.ProcessFaults.Load(),
		ProcessRestarts:  m.ProcessRestarts.Load(),
	}
	snap.TotalSyscalls = snap.CommandCalls + snap.SubscribeCalls + snap.AllowCalls + snap.YieldCalls

	totalLatencyNs := m.TotalEventLatencyNs.Load()
	latencyCount := m.EventLatencyCount.Load()
	if latencyCount > 0 {
		snap.AvgEventLatencyNs = totalLatencyNs / latencyCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.SyscallsPerSecond = float64(snap.TotalSyscalls) / uptimeSeconds
		snap.EventsPerSecond = float64(snap.EventsDispatched) / uptimeSeconds
	}

	if snap.ProcessFaults > 0 {
		snap.FaultRestartRate = float64(snap.ProcessRestarts) / float64(snap.ProcessFaults)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.EventLatencyHistogram[i] = m.EventLatencyBuckets[i].Load()
	}

	if latencyCount > 0 {
		snap.EventLatencyP50Ns = m.calculatePercentile(0.50)
		snap.EventLatencyP99Ns = m.calculatePercentile(0.99)
		snap.EventLatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the event-dispatch latency at the given
// percentile (0.0-1.0) using linear interpolation between histogram
// buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	total := m.EventLatencyCount.Load()
	if total == 0 {
		return 0
	}

	targetCount := uint64(float64(total) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range EventLatencyBuckets {
		bucketCount := m.EventLatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.EventLatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return EventLatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters. Useful for testing.
func (m *Metrics) Reset() {
	m.CommandCalls.Store(0)
	m.SubscribeCalls.Store(0)
	m.AllowCalls.Store(0)
	m.YieldCalls.Store(0)
	m.EventsDispatched.Store(0)
	m.UpcallsDelivered.Store(0)
	m.ProcessFaults.Store(0)
	m.ProcessRestarts.Store(0)
	m.TotalEventLatencyNs.Store(0)
	m.EventLatencyCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.EventLatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection, so a Node can be wired to
// a custom sink instead of the built-in Metrics.
type Observer interface {
	ObserveSyscall(kind SyscallKind)
	ObserveEventDispatch(latencyNs uint64)
	ObserveUpcallDelivered()
	ObserveProcessFault(restarted bool)
}

// NoOpObserver is a no-op Observer, the default when a Node is built
// without an explicit one.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSyscall(SyscallKind)     {}
func (NoOpObserver) ObserveEventDispatch(uint64)    {}
func (NoOpObserver) ObserveUpcallDelivered()        {}
func (NoOpObserver) ObserveProcessFault(bool)       {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSyscall(kind SyscallKind) {
	o.metrics.RecordSyscall(kind)
}

func (o *MetricsObserver) ObserveEventDispatch(latencyNs uint64) {
	o.metrics.RecordEventDispatch(latencyNs)
}

func (o *MetricsObserver) ObserveUpcallDelivered() {
	o.metrics.RecordUpcallDelivered()
}

func (o *MetricsObserver) ObserveProcessFault(restarted bool) {
	o.metrics.RecordProcessFault(restarted)
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
