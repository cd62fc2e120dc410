package radio

import (
	"github.com/osprey-embedded/heliumcore/internal/capsule"
	"github.com/osprey-embedded/heliumcore/internal/grant"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

// Allow slot numbers.
const (
	AllowTxBuffer = 1
	AllowRxBuffer = 2
)

// Subscribe numbers.
const (
	SubscribeTxDone    = 1
	SubscribeRxDone    = 2
	SubscribePowerDone = 3
)

// Command numbers.
const (
	CmdCheck         = 0
	CmdPowerUp       = 1
	CmdPowerDown     = 2
	CmdTransmit      = 3
	CmdReceive       = 4
	CmdStop          = 5
	CmdKill          = 6
	CmdSetTxPower    = 7
	CmdSetFrequency  = 8
)

// App is the per-process grant state for the radio driver: the buffers
// and callbacks installed via allow and subscribe.
type App struct {
	TxBuffer  grant.AppSlice
	TxDone    func(status uint32)
	RxBuffer  grant.AppSlice
	RxDone    func(length, crcValid, status uint32)
	PowerDone func(status uint32)
}

// Driver is the capsule fronting one Radio for processes: with_driver-
// reachable command/subscribe/allow surface under driver number
// constants.DriverRadio ("Helium" = 0x00CC1352).
type Driver struct {
	radio *Radio
	apps  grant.Grant[App]
	procs *process.Table
	txOwn capsule.CurrentApp
	rxOwn capsule.CurrentApp
}

var _ capsule.Driver = (*Driver)(nil)

// NewDriver builds the capsule fronting r. procs is consulted when a
// command completes so the owning process's callback is delivered as a
// scheduled upcall rather than invoked inline from the CPE0 handler.
func NewDriver(r *Radio, procs *process.Table) *Driver {
	d := &Driver{radio: r, procs: procs}
	r.SetClients(d, d, d)
	return d
}

func (d *Driver) Allow(pid process.ID, slot uint32, base, length int) kerr.ReturnCode {
	proc := d.procs.Get(pid)
	if proc == nil {
		return kerr.NoDevice
	}
	slice, ok := grant.NewAppSlice(proc, base, length)
	if !ok {
		return kerr.Invalid
	}
	var code kerr.ReturnCode
	err := d.apps.Enter(pid, func(app *App) {
		switch slot {
		case AllowTxBuffer:
			app.TxBuffer = slice
			code = kerr.Success
		case AllowRxBuffer:
			app.RxBuffer = slice
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

func (d *Driver) Subscribe(pid process.ID, subNum uint32, callback func(r0, r1, r2 uint32)) kerr.ReturnCode {
	var code kerr.ReturnCode
	err := d.apps.Enter(pid, func(app *App) {
		switch subNum {
		case SubscribeTxDone:
			app.TxDone = func(status uint32) { callback(status, 0, 0) }
			code = kerr.Success
		case SubscribeRxDone:
			app.RxDone = func(length, crcValid, status uint32) { callback(length, crcValid, status) }
			code = kerr.Success
		case SubscribePowerDone:
			app.PowerDone = func(status uint32) { callback(status, 0, 0) }
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
	case CmdPowerUp:
		return d.radio.PowerUp(Mode(arg1))
	case CmdPowerDown:
		return d.radio.PowerDown()
	case CmdTransmit:
		return d.startTransmit(pid, int(arg1))
	case CmdReceive:
		return d.startReceive(pid)
	case CmdStop:
		return d.radio.Stop()
	case CmdKill:
		return d.radio.Kill()
	case CmdSetTxPower:
		return d.radio.SetTxPower(uint16(arg1))
	case CmdSetFrequency:
		return d.radio.SetFrequency(uint16(arg1))
	default:
		return kerr.NoSupport
	}
}

func (d *Driver) startTransmit(pid process.ID, length int) kerr.ReturnCode {
	if !d.txOwn.TryAcquire(pid) {
		return kerr.Busy
	}

	var code kerr.ReturnCode
	var frame []byte
	var haveFrame bool
	err := d.apps.Enter(pid, func(app *App) {
		buf := app.TxBuffer.Bytes()
		if buf == nil || length > len(buf) {
			code = kerr.Invalid
			return
		}
		frame = append([]byte(nil), buf[:length]...)
		haveFrame = true
	})
	if err != nil {
		d.txOwn.Release()
		return kerr.Already
	}
	// Transmit runs outside the grant: completion may be delivered
	// synchronously, and TransmitEvent enters the same grant.
	if haveFrame {
		code, _ = d.radio.Transmit(frame)
	}
	if code != kerr.Success {
		d.txOwn.Release()
	}
	return code
}

func (d *Driver) startReceive(pid process.ID) kerr.ReturnCode {
	if !d.rxOwn.TryAcquire(pid) {
		return kerr.Busy
	}
	code := d.radio.Receive()
	if code != kerr.Success {
		d.rxOwn.Release()
	}
	return code
}

// TransmitEvent implements TxClient: hands the completed command back to
// the owning process as a scheduled upcall, then frees the serialisation
// slot so the next process round-robin-scanned may transmit.
func (d *Driver) TransmitEvent(buf []byte, status kerr.ReturnCode) {
	pid, ok := d.txOwn.Owner()
	d.txOwn.Release()
	if !ok {
		return
	}
	proc := d.procs.Get(pid)
	if proc == nil {
		return
	}
	d.apps.Enter(pid, func(app *App) {
		if app.TxDone == nil {
			return
		}
		cb := app.TxDone
		proc.ScheduleUpcall(func() { cb(uint32(status)) })
		proc.Wake()
	})
}

// ReceiveEvent implements RxClient analogously to TransmitEvent, copying
// the delivered frame into the process's allowed RX buffer first.
func (d *Driver) ReceiveEvent(buf []byte, frameLen int, crcValid bool, status kerr.ReturnCode) {
	pid, ok := d.rxOwn.Owner()
	d.rxOwn.Release()
	if !ok {
		return
	}
	proc := d.procs.Get(pid)
	if proc == nil {
		return
	}
	d.apps.Enter(pid, func(app *App) {
		if dst := app.RxBuffer.Bytes(); dst != nil {
			n := copy(dst, buf)
			frameLen = n
		}
		if app.RxDone == nil {
			return
		}
		cb := app.RxDone
		crc := uint32(0)
		if crcValid {
			crc = 1
		}
		n := uint32(frameLen)
		proc.ScheduleUpcall(func() { cb(n, crc, uint32(status)) })
		proc.Wake()
	})
}

// PowerUpDone and PowerDownDone implement PowerClient, delivering the
// subscribed power-transition callback as a scheduled upcall to every
// process that subscribed — power events are broadcast, not owned by a
// single in-flight caller the way transmit/receive are.
func (d *Driver) PowerUpDone(status kerr.ReturnCode) { d.broadcastPower(status) }
func (d *Driver) PowerDownDone()                     { d.broadcastPower(kerr.Success) }

func (d *Driver) broadcastPower(status kerr.ReturnCode) {
	d.procs.Each(func(proc *process.Process) {
		d.apps.Enter(proc.ID, func(app *App) {
			if app.PowerDone == nil {
				return
			}
			cb := app.PowerDone
			proc.ScheduleUpcall(func() { cb(uint32(status)) })
			proc.Wake()
		})
	})
}
