package kernel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osprey-embedded/heliumcore/internal/board"
	"github.com/osprey-embedded/heliumcore/internal/capsule"
	"github.com/osprey-embedded/heliumcore/internal/chip"
	"github.com/osprey-embedded/heliumcore/internal/constants"
	"github.com/osprey-embedded/heliumcore/internal/event"
	"github.com/osprey-embedded/heliumcore/internal/isr"
	"github.com/osprey-embedded/heliumcore/internal/logging"
	"github.com/osprey-embedded/heliumcore/internal/process"
	"github.com/osprey-embedded/heliumcore/internal/radio"
	"github.com/osprey-embedded/heliumcore/internal/radiohw"
	"github.com/osprey-embedded/heliumcore/internal/rtc"
	"github.com/osprey-embedded/heliumcore/internal/rtchw"
	"github.com/osprey-embedded/heliumcore/internal/syscall"
	"github.com/osprey-embedded/heliumcore/internal/uart"
	"github.com/osprey-embedded/heliumcore/internal/uarthw"
)

// Event priorities this node wires. Numerically smaller drains first.
const (
	PriorityUART event.Priority = iota
	PriorityAlarm
)

// idlePollInterval bounds how long Run sleeps when there is nothing
// pending, the host stand-in for the real CPU's wait-for-interrupt sleep.
const idlePollInterval = 1 * time.Millisecond

// Config describes the hardware and process set a Node wires together at
// construction time. Every hardware field is optional: a nil register
// file or co-processor gets a host-only fake, the same substitution
// internal/uarthw, internal/radiohw and internal/rtchw provide for tests.
type Config struct {
	Board *board.Config

	UARTRegisters    uart.Registers
	RadioCoprocessor radio.CoProcessor
	RadioRXQueueSize int
	AlarmRegisters   rtc.Registers
	GPIOPins         map[uint32]board.GPIOPin

	Logger   *logging.Logger
	Observer Observer
}

// Node is the public facade wiring every internal package into one
// runnable board: the process table, the event-priority dispatcher, the
// capsule driver table, and the four-syscall ABI front-ending it.
type Node struct {
	procs    process.Table
	events   event.Set
	chip     *chip.Chip
	platform *capsule.Platform
	abi      *syscall.ABI

	uart      *uart.UART
	uartMux   *uart.Mux
	uartDebug *uart.DebugClient
	radio     *radio.Radio
	alarm     *rtc.Alarm

	uartLine  *isr.Line
	alarmLine *isr.Line

	metrics  *Metrics
	observer Observer
	logger   *logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewNode builds a Node from cfg. Process installation errors (a bad
// fault policy, an oversubscribed process table) are returned rather than
// panicking, since a malformed board file is an ordinary startup error.
func NewNode(cfg Config) (*Node, error) {
	n := &Node{
		metrics: NewMetrics(),
		logger:  cfg.Logger,
	}
	if n.logger == nil {
		n.logger = logging.Default()
	}
	n.observer = cfg.Observer
	if n.observer == nil {
		n.observer = NoOpObserver{}
	}

	if cfg.Board != nil {
		if err := board.InstallProcesses(cfg.Board, &n.procs); err != nil {
			return nil, fmt.Errorf("kernel: %w", err)
		}
	}

	uartRegs := cfg.UARTRegisters
	if uartRegs == nil {
		uartRegs = uarthw.NewFake()
	}
	n.uart = uart.New(uartRegs)
	uartDriver := uart.NewDriver(n.uart, &n.procs)
	n.uartDebug = uart.NewDebugClient()
	n.uartMux = uart.NewMux(n.uart, uartDriver, n.uartDebug)
	uartDriver.SetMux(n.uartMux)
	n.uartDebug.SetMux(n.uartMux)
	n.uart.SetClients(n.uartMux, uartDriver)
	fmt.Fprintf(n.uartDebug, "heliumcore: node boot\n")

	rxQueueSize := cfg.RadioRXQueueSize
	if rxQueueSize <= 0 {
		rxQueueSize = 4
	}
	rxQueue := radio.NewRXQueue(rxQueueSize)
	co := cfg.RadioCoprocessor
	if co == nil {
		co = radiohw.New(rxQueue)
	}
	n.radio = radio.New(co, rxQueue)
	radioDriver := radio.NewDriver(n.radio, &n.procs)

	alarmRegs := cfg.AlarmRegisters
	if alarmRegs == nil {
		alarmRegs = rtchw.NewFake()
	}
	n.alarm = rtc.New(alarmRegs)
	alarmDriver := rtc.NewDriver(n.alarm, &n.procs)

	gpioDriver := board.NewGPIODriver(cfg.GPIOPins)

	drivers := map[uint32]capsule.Driver{
		constants.DriverUART:   uartDriver,
		constants.DriverRadio:  radioDriver,
		constants.DriverAlarm:  alarmDriver,
		constants.DriverGPIO:   gpioDriver,
		constants.DriverLED:    board.Placeholder{Name: "led"},
		constants.DriverButton: board.Placeholder{Name: "button"},
		constants.DriverRNG:    board.Placeholder{Name: "rng"},
		constants.DriverI2C:    board.Placeholder{Name: "i2c"},
		constants.DriverADC:    board.Placeholder{Name: "adc"},
		constants.DriverPWM:    board.Placeholder{Name: "pwm"},
	}
	n.platform = capsule.NewPlatform(drivers)
	n.abi = syscall.New(n.platform, &n.procs)

	n.uartLine = isr.NewLine("uart", PriorityUART, &n.events, nil)
	n.alarmLine = isr.NewLine("alarm", PriorityAlarm, &n.events, nil)

	n.chip = chip.New(&n.events, map[event.Priority]chip.Handler{
		PriorityUART:  n.serviceUART,
		PriorityAlarm: n.serviceAlarm,
	})

	return n, nil
}

func (n *Node) serviceUART() {
	start := time.Now()
	n.uart.ServiceInterrupt()
	n.uartLine.Rearm()
	n.recordEventDispatch(time.Since(start))
}

func (n *Node) serviceAlarm() {
	start := time.Now()
	n.alarm.ServiceInterrupt()
	n.alarmLine.Rearm()
	n.recordEventDispatch(time.Since(start))
}

func (n *Node) recordEventDispatch(d time.Duration) {
	n.metrics.RecordEventDispatch(uint64(d.Nanoseconds()))
	n.observer.ObserveEventDispatch(uint64(d.Nanoseconds()))
}

// UARTLine returns the simulated interrupt line a UART hardware backend
// (or test) fires when bytes arrive or drain.
func (n *Node) UARTLine() *isr.Line { return n.uartLine }

// AlarmLine returns the simulated interrupt line a hardware backend (or
// test) fires when the alarm compare register matches.
func (n *Node) AlarmLine() *isr.Line { return n.alarmLine }

// UARTDebugSink returns the kernel's own debug-logging client on the
// shared UART mux — the second logical client alongside the per-process
// console driver. Writing to it (directly, or by handing it to
// logging.Config.Output) shares the physical UART with app console
// traffic through the same round-robin Mux, rather than a private
// channel only the kernel can use.
func (n *Node) UARTDebugSink() *uart.DebugClient { return n.uartDebug }

// Processes returns the node's process table.
func (n *Node) Processes() *process.Table { return &n.procs }

// ABI returns the four-syscall dispatch surface processes issue calls
// through.
func (n *Node) ABI() *syscall.ABI { return n.abi }

// Command issues a command syscall and records it in this node's metrics.
func (n *Node) Command(pid process.ID, driverID, cmdNum, arg0, arg1 uint32) int32 {
	n.metrics.RecordSyscall(SyscallCommand)
	n.observer.ObserveSyscall(SyscallCommand)
	return n.abi.Command(pid, driverID, cmdNum, arg0, arg1)
}

// Subscribe issues a subscribe syscall and records it in this node's
// metrics.
func (n *Node) Subscribe(pid process.ID, driverID, subNum uint32, callback func(r0, r1, r2 uint32)) int32 {
	n.metrics.RecordSyscall(SyscallSubscribe)
	n.observer.ObserveSyscall(SyscallSubscribe)
	return n.abi.Subscribe(pid, driverID, subNum, callback)
}

// Allow issues an allow syscall and records it in this node's metrics.
func (n *Node) Allow(pid process.ID, driverID, slot uint32, base, length int) int32 {
	n.metrics.RecordSyscall(SyscallAllow)
	n.observer.ObserveSyscall(SyscallAllow)
	return n.abi.Allow(pid, driverID, slot, base, length)
}

// Yield issues a yield syscall and records it in this node's metrics.
func (n *Node) Yield(pid process.ID) {
	n.metrics.RecordSyscall(SyscallYield)
	n.observer.ObserveSyscall(SyscallYield)
	n.abi.Yield(pid)
}

// State mirrors the lifecycle states a running Node moves through.
type State string

const (
	StateCreated State = "created"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// State returns the node's current lifecycle state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return StateCreated
	}
	select {
	case <-n.ctx.Done():
		return StateStopped
	default:
		return StateRunning
	}
}

// Metrics returns the node's metrics instance.
func (n *Node) Metrics() *Metrics { return n.metrics }

// MetricsSnapshot returns a point-in-time snapshot of the node's metrics.
func (n *Node) MetricsSnapshot() MetricsSnapshot { return n.metrics.Snapshot() }

// Run drives the cooperative kernel loop until ctx is cancelled: drain
// pending events in priority order, run every ready process's scheduling
// slice, and idle-poll when there is neither. Run blocks until ctx is
// done; callers that want a background node should run it in its own
// goroutine.
func (n *Node) Run(ctx context.Context) {
	n.mu.Lock()
	n.ctx, n.cancel = context.WithCancel(ctx)
	n.running = true
	runCtx := n.ctx
	n.mu.Unlock()

	go n.uartLine.Run(runCtx)
	go n.alarmLine.Run(runCtx)

	for {
		select {
		case <-runCtx.Done():
			n.metrics.Stop()
			return
		default:
		}

		n.chip.ServicePendingEvents()

		ready := false
		n.procs.Each(func(p *process.Process) {
			ranAny := p.Ready()
			if ranAny {
				ready = true
				upcalls := p.RunSlice()
				for i := 0; i < upcalls; i++ {
					n.metrics.RecordUpcallDelivered()
					n.observer.ObserveUpcallDelivered()
				}
			}
		})

		if !ready && !n.chip.HasPendingEvents() {
			select {
			case <-runCtx.Done():
				n.metrics.Stop()
				return
			case <-time.After(idlePollInterval):
			}
		}
	}
}

// Stop cancels a running node's Run loop. Safe to call even if Run has
// not been called yet or has already returned.
func (n *Node) Stop() {
	n.mu.Lock()
	cancel := n.cancel
	n.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
