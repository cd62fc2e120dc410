package rtc

import (
	"github.com/osprey-embedded/heliumcore/internal/capsule"
	"github.com/osprey-embedded/heliumcore/internal/grant"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

// Subscribe numbers.
const SubscribeFired = 1

// Command numbers. There is no get-now/get-frequency command: this ABI's
// command() returns only a ReturnCode, never a data word — Frequency is a
// package constant processes already know statically, and "now" is only
// ever delivered as the argument to a Fired upcall, the same way every
// other capsule in this module hands data back through subscribe rather
// than command.
const (
	CmdCheck    = 0
	CmdSetAlarm = 1
	CmdDisable  = 2
)

// App is the per-process grant state: whether this process currently has
// an alarm armed, its absolute expiry, and its fired callback.
type App struct {
	Armed  bool
	Expiry uint32
	Fired  func(now uint32)
}

// Driver is the capsule virtualising one hardware compare channel across
// every process with an outstanding alarm: the Go analogue of the
// original's VirtualMuxAlarm, collapsed into the capsule itself since
// there is exactly one client population (processes) rather than a
// mix of kernel-internal and process alarms.
type Driver struct {
	alarm *Alarm
	apps  grant.Grant[App]
	procs *process.Table
}

var _ capsule.Driver = (*Driver)(nil)
var _ Client = (*Driver)(nil)

// NewDriver builds the capsule fronting a. It starts the counter
// immediately: a free-running RTC has no reason to stay stopped once a
// board has wired an alarm capsule to it.
func NewDriver(a *Alarm, procs *process.Table) *Driver {
	d := &Driver{alarm: a, procs: procs}
	a.SetClient(d)
	a.Start()
	return d
}

func (d *Driver) Allow(pid process.ID, slot uint32, base, length int) kerr.ReturnCode {
	return kerr.NoSupport
}

func (d *Driver) Subscribe(pid process.ID, subNum uint32, callback func(r0, r1, r2 uint32)) kerr.ReturnCode {
	var code kerr.ReturnCode
	err := d.apps.Enter(pid, func(app *App) {
		switch subNum {
		case SubscribeFired:
			app.Fired = func(now uint32) { callback(now, 0, 0) }
			code = kerr.Success
		default:
			code = kerr.NoSupport
		}
	})
	if err != nil {
		return kerr.Already
	}
	return code
}

func (d *Driver) Command(pid process.ID, cmdNum uint32, arg1, arg2 uint32) kerr.ReturnCode {
	switch cmdNum {
	case CmdCheck:
		return kerr.Success
	case CmdSetAlarm:
		return d.startSetAlarm(pid, arg1, arg2)
	case CmdDisable:
		return d.disable(pid)
	default:
		return kerr.NoSupport
	}
}

// startSetAlarm arms pid's alarm for reference+dt, an absolute counter
// value that wraps the same way the free-running 32-bit counter itself
// does. reprogram then decides whether this is now the earliest
// outstanding expiry across every process and, if hardware's current
// expiry has already passed, fires it inline before arming the next one.
func (d *Driver) startSetAlarm(pid process.ID, reference, dt uint32) kerr.ReturnCode {
	var code kerr.ReturnCode
	err := d.apps.Enter(pid, func(app *App) {
		app.Armed = true
		app.Expiry = reference + dt
		code = kerr.Success
	})
	if err != nil {
		return kerr.Already
	}
	d.reprogram()
	return code
}

func (d *Driver) disable(pid process.ID) kerr.ReturnCode {
	var code kerr.ReturnCode = kerr.Success
	err := d.apps.Enter(pid, func(app *App) {
		app.Armed = false
	})
	if err != nil {
		return kerr.Already
	}
	d.reprogram()
	return code
}

// earliestArmed scans every process's grant for the armed alarm with the
// smallest signed distance from now, using wraparound-safe int32
// subtraction — the same comparison a 32-bit free-running counter needs
// everywhere it compares two absolute tick values.
func (d *Driver) earliestArmed() (process.ID, uint32, bool) {
	now := d.alarm.Now()
	var bestPid process.ID
	var bestExpiry uint32
	found := false
	d.procs.Each(func(p *process.Process) {
		d.apps.Enter(p.ID, func(app *App) {
			if !app.Armed {
				return
			}
			if !found || int32(app.Expiry-now) < int32(bestExpiry-now) {
				found = true
				bestPid = p.ID
				bestExpiry = app.Expiry
			}
		})
	})
	return bestPid, bestExpiry, found
}

// reprogram re-derives the single hardware expiry from scratch: fire
// every already-past-due alarm inline, then arm hardware for whichever
// remaining expiry is soonest, or disarm if none remain. Called after
// every arm/disarm and from Fired, so it never needs to track which
// process hardware was armed for.
func (d *Driver) reprogram() {
	for {
		pid, expiry, found := d.earliestArmed()
		if !found {
			d.alarm.Disarm()
			return
		}
		now := d.alarm.Now()
		if int32(expiry-now) <= 0 {
			d.fire(pid, now)
			continue
		}
		d.alarm.SetAlarm(expiry)
		return
	}
}

func (d *Driver) fire(pid process.ID, now uint32) {
	proc := d.procs.Get(pid)
	var cb func(uint32)
	d.apps.Enter(pid, func(app *App) {
		if !app.Armed {
			return
		}
		app.Armed = false
		cb = app.Fired
	})
	if proc == nil || cb == nil {
		return
	}
	proc.ScheduleUpcall(func() { cb(now) })
	proc.Wake()
}

// Fired implements Client: the chip service loop has just delivered the
// hardware compare event. reprogram rediscovers which process(es) were
// due and re-arms for whatever is next.
func (d *Driver) Fired() {
	d.reprogram()
}
