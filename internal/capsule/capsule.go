// Package capsule implements the call gate between processes and
// drivers: the with_driver dispatch that backs the four syscalls
// (command, subscribe, allow, yield), and the single-in-flight-operation
// serialisation helper drivers that own shared hardware use.
package capsule

import (
	kernelerr "github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

// Driver is the capability every capsule exposes to the call gate. Each
// method takes the calling process id and numeric sub-selectors, and
// returns a ReturnCode that the syscall boundary maps to a negative
// status for the process. Outside of a Grant.Enter closure a driver may
// only touch its own statically-owned state and hardware — never
// process-owned memory.
type Driver interface {
	Command(pid process.ID, cmdNum uint32, arg1, arg2 uint32) kernelerr.ReturnCode
	Subscribe(pid process.ID, subNum uint32, callback func(r0, r1, r2 uint32)) kernelerr.ReturnCode
	Allow(pid process.ID, slot uint32, base, length int) kernelerr.ReturnCode
}

// Platform holds the static (driver_id -> Driver) table wired at board
// construction time. with_driver is the single entry point every syscall
// goes through.
type Platform struct {
	drivers map[uint32]Driver
}

// NewPlatform builds a Platform from a fixed driver-id table. The map is
// never mutated after construction: there is no dynamic driver
// registration at runtime.
func NewPlatform(drivers map[uint32]Driver) *Platform {
	return &Platform{drivers: drivers}
}

// WithDriver looks up driverID and calls f with the driver, or with nil
// if no driver is registered under that id. This is the single dispatch
// point for command/subscribe/allow/yield.
func (p *Platform) WithDriver(driverID uint32, f func(d Driver) kernelerr.ReturnCode) kernelerr.ReturnCode {
	d, ok := p.drivers[driverID]
	if !ok {
		return kernelerr.NoDevice
	}
	return f(d)
}

// CurrentApp is the one-in-flight-operation-at-a-time guard a driver that
// must serialise access to shared hardware embeds in its own state. It is
// not itself a Driver; drivers compose it.
type CurrentApp struct {
	owner  process.ID
	active bool
}

// TryAcquire claims the serialised slot for pid. Returns false (caller
// should return Busy) if another process already holds it.
func (c *CurrentApp) TryAcquire(pid process.ID) bool {
	if c.active {
		return false
	}
	c.owner = pid
	c.active = true
	return true
}

// Owner returns the process currently holding the slot and whether the
// slot is held at all.
func (c *CurrentApp) Owner() (process.ID, bool) {
	return c.owner, c.active
}

// Release frees the slot; the next TryAcquire from any process succeeds.
// Nothing is queued for processes that were turned away with Busy, and no
// pending operation is started on their behalf: they must issue the
// operation again.
func (c *CurrentApp) Release() {
	c.active = false
}
