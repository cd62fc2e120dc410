// Package chip implements the service loop called by the kernel between
// process slices: it drains the event bitset in priority order and
// dispatches each pending event to its registered handler.
package chip

import (
	"fmt"

	"github.com/osprey-embedded/heliumcore/internal/event"
	"github.com/osprey-embedded/heliumcore/internal/logging"
)

// Handler services one pending EventPriority. Re-enabling the
// corresponding interrupt line at the controller is the handler's own
// responsibility, not the loop's.
type Handler func()

// Chip owns the event set and the static priority -> handler dispatch
// table. The table is fixed at construction; an unmapped priority that
// fires is a board-wiring bug and panics rather than being silently
// dropped.
type Chip struct {
	events   *event.Set
	handlers map[event.Priority]Handler
	logger   *logging.Logger
}

// New creates a Chip bound to events. handlers maps each wired
// EventPriority to its Handler; priorities the board never wires are
// simply absent from the map.
func New(events *event.Set, handlers map[event.Priority]Handler) *Chip {
	return &Chip{
		events:   events,
		handlers: handlers,
		logger:   logging.Default(),
	}
}

// ServicePendingEvents drains the event set in ascending priority order,
// calling each handler at most once per pass even if its line fired more
// than once meanwhile. It re-enters NextPending after every handler
// rather than iterating a snapshot, so an event raised by one handler
// during this pass is observed before returning.
func (c *Chip) ServicePendingEvents() {
	for {
		p, ok := c.events.NextPending()
		if !ok {
			return
		}
		h, known := c.handlers[p]
		if !known {
			panic(fmt.Sprintf("chip: no handler registered for event priority %d", p))
		}
		c.events.Clear(p)
		h()
	}
}

// HasPendingEvents reports whether a call to ServicePendingEvents would do
// any work right now.
func (c *Chip) HasPendingEvents() bool {
	return c.events.Any()
}
