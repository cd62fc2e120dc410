package kernel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	kernel "github.com/osprey-embedded/heliumcore"
)

func TestMetricsInitialSnapshotIsZero(t *testing.T) {
	m := kernel.NewMetrics()
	snap := m.Snapshot()
	assert.Zero(t, snap.TotalSyscalls)
	assert.Zero(t, snap.EventsDispatched)
}

func TestMetricsRecordsSyscallsByKind(t *testing.T) {
	m := kernel.NewMetrics()

	m.RecordSyscall(kernel.SyscallCommand)
	m.RecordSyscall(kernel.SyscallCommand)
	m.RecordSyscall(kernel.SyscallSubscribe)
	m.RecordSyscall(kernel.SyscallAllow)
	m.RecordSyscall(kernel.SyscallYield)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.CommandCalls)
	assert.EqualValues(t, 1, snap.SubscribeCalls)
	assert.EqualValues(t, 1, snap.AllowCalls)
	assert.EqualValues(t, 1, snap.YieldCalls)
	assert.EqualValues(t, 5, snap.TotalSyscalls)
}

func TestMetricsRecordsEventDispatchLatency(t *testing.T) {
	m := kernel.NewMetrics()

	m.RecordEventDispatch(1_000_000) // 1ms
	m.RecordEventDispatch(3_000_000) // 3ms

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.EventsDispatched)
	assert.EqualValues(t, 2_000_000, snap.AvgEventLatencyNs)
}

func TestMetricsRecordsUpcallsAndFaults(t *testing.T) {
	m := kernel.NewMetrics()

	m.RecordUpcallDelivered()
	m.RecordUpcallDelivered()
	m.RecordProcessFault(true)
	m.RecordProcessFault(false)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.UpcallsDelivered)
	assert.EqualValues(t, 2, snap.ProcessFaults)
	assert.EqualValues(t, 1, snap.ProcessRestarts)
	assert.InDelta(t, 0.5, snap.FaultRestartRate, 0.001)
}

func TestMetricsUptimeGrowsUntilStopped(t *testing.T) {
	m := kernel.NewMetrics()

	time.Sleep(10 * time.Millisecond)
	snap := m.Snapshot()
	assert.GreaterOrEqual(t, snap.UptimeNs, uint64(10*time.Millisecond))

	m.Stop()
	stopped := m.Snapshot()
	time.Sleep(5 * time.Millisecond)
	after := m.Snapshot()
	assert.Equal(t, stopped.UptimeNs, after.UptimeNs)
}

func TestMetricsReset(t *testing.T) {
	m := kernel.NewMetrics()

	m.RecordSyscall(kernel.SyscallCommand)
	m.RecordEventDispatch(1_000_000)
	m.RecordUpcallDelivered()
	m.RecordProcessFault(true)

	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.TotalSyscalls)
	assert.Zero(t, snap.EventsDispatched)
	assert.Zero(t, snap.UpcallsDelivered)
	assert.Zero(t, snap.ProcessFaults)
}

func TestNoOpObserverDoesNotPanic(t *testing.T) {
	var o kernel.Observer = kernel.NoOpObserver{}
	o.ObserveSyscall(kernel.SyscallCommand)
	o.ObserveEventDispatch(1000)
	o.ObserveUpcallDelivered()
	o.ObserveProcessFault(true)
}

func TestMetricsObserverForwardsToMetrics(t *testing.T) {
	m := kernel.NewMetrics()
	o := kernel.NewMetricsObserver(m)

	o.ObserveSyscall(kernel.SyscallCommand)
	o.ObserveEventDispatch(2_000_000)
	o.ObserveUpcallDelivered()
	o.ObserveProcessFault(false)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.CommandCalls)
	assert.EqualValues(t, 1, snap.EventsDispatched)
	assert.EqualValues(t, 1, snap.UpcallsDelivered)
	assert.EqualValues(t, 1, snap.ProcessFaults)
	assert.Zero(t, snap.ProcessRestarts)
}

func TestMetricsRates(t *testing.T) {
	m := kernel.NewMetrics()
	start := time.Now()
	m.StartTime.Store(start.UnixNano())

	m.RecordSyscall(kernel.SyscallCommand)
	m.RecordEventDispatch(1_000_000)

	m.StopTime.Store(start.Add(1 * time.Second).UnixNano())

	snap := m.Snapshot()
	assert.InDelta(t, 1.0, snap.SyscallsPerSecond, 0.1)
	assert.InDelta(t, 1.0, snap.EventsPerSecond, 0.1)
}

func TestMetricsHistogramPercentiles(t *testing.T) {
	m := kernel.NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordEventDispatch(500_000) // 500us
	}
	for i := 0; i < 49; i++ {
		m.RecordEventDispatch(5_000_000) // 5ms
	}
	m.RecordEventDispatch(50_000_000) // 50ms, P99

	snap := m.Snapshot()
	assert.EqualValues(t, 100, snap.EventsDispatched)
	assert.GreaterOrEqual(t, snap.EventLatencyP50Ns, uint64(100_000))
	assert.LessOrEqual(t, snap.EventLatencyP50Ns, uint64(1_000_000))
	assert.GreaterOrEqual(t, snap.EventLatencyP99Ns, uint64(5_000_000))
	assert.LessOrEqual(t, snap.EventLatencyP99Ns, uint64(100_000_000))

	var total uint64
	for _, c := range snap.EventLatencyHistogram {
		total += c
	}
	assert.NotZero(t, total)
}
