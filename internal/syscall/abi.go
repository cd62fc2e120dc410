// Package syscall implements the four-syscall ABI that is the only
// surface a process ever crosses into the kernel through: command,
// subscribe, allow, and yield. Each of the first three is a thin
// translation from the raw (driver_id, sub, arg0, arg1 uint32) trap
// arguments spec.md §6 specifies into the typed capsule.Platform
// dispatch; yield bypasses the driver table entirely and talks straight
// to the calling process's scheduling state.
package syscall

import (
	"github.com/osprey-embedded/heliumcore/internal/capsule"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

// ABI is the trap handler's entry point, built once at board-construction
// time over the board's fixed driver table and process table.
type ABI struct {
	platform *capsule.Platform
	procs    *process.Table
}

// New builds an ABI dispatching into platform on behalf of the processes
// in procs.
func New(platform *capsule.Platform, procs *process.Table) *ABI {
	return &ABI{platform: platform, procs: procs}
}

// Command issues a parameterised call to driverID's sub-operation cmdNum.
// Returns NoDevice if no driver is registered under driverID.
func (a *ABI) Command(pid process.ID, driverID, cmdNum, arg0, arg1 uint32) int32 {
	code := a.platform.WithDriver(driverID, func(d capsule.Driver) kerr.ReturnCode {
		return d.Command(pid, cmdNum, arg0, arg1)
	})
	return int32(code)
}

// Subscribe installs callback as the upcall for driverID's subscribe slot
// subNum, replacing whatever callback (if any) was previously installed
// there for pid.
func (a *ABI) Subscribe(pid process.ID, driverID, subNum uint32, callback func(r0, r1, r2 uint32)) int32 {
	code := a.platform.WithDriver(driverID, func(d capsule.Driver) kerr.ReturnCode {
		return d.Subscribe(pid, subNum, callback)
	})
	return int32(code)
}

// Allow shares the [base, base+length) region of the calling process's RAM
// with driverID's allow slot number. A second Allow on the same slot
// implicitly revokes the previous borrow, per spec.md's AppSlice
// ownership rule.
func (a *ABI) Allow(pid process.ID, driverID, slot uint32, base, length int) int32 {
	code := a.platform.WithDriver(driverID, func(d capsule.Driver) kerr.ReturnCode {
		return d.Allow(pid, slot, base, length)
	})
	return int32(code)
}

// Yield returns control to the kernel voluntarily. There is no driver
// dispatch and no failure mode: an unknown pid is simply a no-op, since a
// process cannot issue a syscall without first existing in the table.
func (a *ABI) Yield(pid process.ID) {
	if p := a.procs.Get(pid); p != nil {
		p.Yield()
	}
}
