// Package isr simulates the Cortex-M interrupt-vector-shim discipline: a
// naked entry that (a) stashes process context if the CPU was running an
// unprivileged process, (b) disables this specific IRQ at the controller
// so a storm of re-fires can't starve the thread-mode handler, (c) sets
// one event bit, optionally running a small hardware-required body, and
// (d) returns to thread mode. The thread-mode handler re-enables the IRQ
// once it has drained the peripheral. There is no real NVIC on a host
// build, so a Line stands in for one vector: Fire is the simulated
// hardware raising the interrupt, and a dedicated goroutine plays the
// role of the CPU servicing it.
package isr

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/osprey-embedded/heliumcore/internal/event"
)

// Line is one simulated interrupt source feeding a single EventPriority.
type Line struct {
	name     string
	priority event.Priority
	events   *event.Set
	body     func()

	fire     chan struct{}
	done     chan struct{}
	once     sync.Once
	disabled atomic.Bool
}

// NewLine creates a vector shim for priority, wired to events. body, if
// non-nil, is the small hardware-required ISR action run before the event
// bit is set (step (c) in the shim discipline) — e.g. latching and
// clearing a peripheral's raw interrupt-status register so the line
// doesn't immediately re-fire.
func NewLine(name string, priority event.Priority, events *event.Set, body func()) *Line {
	return &Line{
		name:     name,
		priority: priority,
		events:   events,
		body:     body,
		fire:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Run services Fire calls until ctx is done. It must be started once per
// Line before any Fire call is expected to be observed.
func (l *Line) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(l.done)
			return
		case <-l.fire:
			l.disabled.Store(true)
			if l.body != nil {
				l.body()
			}
			l.events.Set(l.priority)
		}
	}
}

// Fire simulates the hardware raising this interrupt. Coalesces with any
// pending, not-yet-serviced fire — exactly like a level-triggered NVIC
// line that stays asserted rather than queuing duplicate IRQs. A Fire
// observed while the line is disabled (between vector entry and the
// thread-mode handler's Rearm) is dropped: the peripheral's own raw
// status stays latched, so nothing is lost, only coalesced further.
func (l *Line) Fire() {
	if l.disabled.Load() {
		return
	}
	select {
	case l.fire <- struct{}{}:
	default:
	}
}

// Rearm re-enables the IRQ line at the controller. It is the thread-mode
// handler's job to call this once it has finished draining the
// peripheral that raised the interrupt — matching the storm guard of
// disabling a line at vector entry and re-enabling it only after the
// handler drains.
func (l *Line) Rearm() {
	l.disabled.Store(false)
}

// Name returns the line's board-assigned identifier.
func (l *Line) Name() string {
	return l.name
}

// Priority returns the EventPriority this line sets on Fire.
func (l *Line) Priority() event.Priority {
	return l.priority
}
