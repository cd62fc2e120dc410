package uart

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/capsule"
	"github.com/osprey-embedded/heliumcore/internal/grant"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

// Allow slot numbers.
const (
	AllowWriteBuffer = 1
	AllowReadBuffer  = 2
)

// Subscribe numbers.
const (
	SubscribeWriteDone = 1
	SubscribeReadDone  = 2
)

// Command numbers.
const (
	CmdCheck     = 0
	CmdPutStr    = 1
	CmdGetNStr   = 2
	CmdAbortRead = 3
)

// App is the per-process grant state the Driver carves out of each
// calling process's RAM: the buffers and callbacks installed via allow
// and subscribe.
type App struct {
	WriteBuffer grant.AppSlice
	WriteDone   func(status uint32)
	ReadBuffer  grant.AppSlice
	ReadDone    func(length, status uint32)
}

// Driver is the capsule that fronts one UART peripheral for processes:
// the with_driver-reachable command/subscribe/allow surface, serialising
// one in-flight transmit and one in-flight receive across all processes.
// Receive is owned directly against the peripheral (at most one process
// reads at a time); transmit is instead queued and offered to a Mux,
// since the physical UART may be shared with other logical clients (the
// kernel's own debug sink, for instance).
type Driver struct {
	uart  *UART
	apps  grant.Grant[App]
	procs *process.Table
	txOwn capsule.CurrentApp
	rxOwn capsule.CurrentApp

	mux     *Mux
	txMu    sync.Mutex
	pending *TxRequest
}

// NewDriver builds the capsule fronting u. procs is consulted when a
// request completes so the owning process's callback can be delivered as
// a scheduled upcall rather than invoked inline from the chip service
// loop. The driver registers itself for RX directly; callers must still
// wire it into a Mux for TX via SetMux and include it in the Mux's
// client list.
func NewDriver(u *UART, procs *process.Table) *Driver {
	d := &Driver{uart: u, procs: procs}
	u.SetClients(nil, d)
	return d
}

// SetMux installs the Mux this driver offers transmit requests through.
// Set once at board construction, after both the driver and its Mux
// exist — the same one-shot wiring idiom as SetClients.
func (d *Driver) SetMux(m *Mux) {
	d.mux = m
}

var _ capsule.Driver = (*Driver)(nil)
var _ Client = (*Driver)(nil)

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
		case AllowWriteBuffer:
			app.WriteBuffer = slice
			code = kerr.Success
		case AllowReadBuffer:
			app.ReadBuffer = slice
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
		case SubscribeWriteDone:
			app.WriteDone = func(status uint32) { callback(status, 0, 0) }
			code = kerr.Success
		case SubscribeReadDone:
			app.ReadDone = func(length, status uint32) { callback(length, status, 0) }
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
	case CmdPutStr:
		return d.startWrite(pid, int(arg1))
	case CmdGetNStr:
		return d.startRead(pid, int(arg1))
	case CmdAbortRead:
		d.uart.ReceiveAbort()
		d.rxOwn.Release()
		return kerr.Success
	default:
		return kerr.NoSupport
	}
}

func (d *Driver) startWrite(pid process.ID, length int) kerr.ReturnCode {
	if !d.txOwn.TryAcquire(pid) {
		return kerr.Busy
	}

	var code kerr.ReturnCode
	err := d.apps.Enter(pid, func(app *App) {
		buf := app.WriteBuffer.Bytes()
		if buf == nil || length > len(buf) {
			code = kerr.Invalid
			return
		}
		req := &TxRequest{Buf: append([]byte(nil), buf[:length]...)}
		d.txMu.Lock()
		d.pending = req
		d.txMu.Unlock()
		code = kerr.Success
	})
	if err != nil {
		d.txOwn.Release()
		return kerr.Already
	}
	if code != kerr.Success {
		d.txOwn.Release()
		return code
	}
	if d.mux != nil {
		d.mux.Poke()
	}
	return code
}

// HasTxRequest implements Client: it reports whether a process's PutStr
// is queued and not yet handed to the mux.
func (d *Driver) HasTxRequest() bool {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	return d.pending != nil
}

// GetTx implements Client: it hands the queued request to the mux. Only
// one request is ever queued at a time, since txOwn serialises writes
// across every process sharing this driver.
func (d *Driver) GetTx() *TxRequest {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	req := d.pending
	d.pending = nil
	return req
}

func (d *Driver) startRead(pid process.ID, length int) kerr.ReturnCode {
	if !d.rxOwn.TryAcquire(pid) {
		return kerr.Busy
	}

	req := &RxRequest{Buf: make([]byte, 0, length), Len: length}
	code := d.uart.ReceiveBuffer(req)
	if code != kerr.Success {
		d.rxOwn.Release()
	}
	return code
}

// TransmitComplete implements Client: the mux calls this on whichever
// client supplied the request that just finished. It hands the result
// back to the owning process as a scheduled upcall, then frees the
// serialisation slot.
func (d *Driver) TransmitComplete(req *TxRequest, status kerr.ReturnCode) {
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
		if app.WriteDone == nil {
			return
		}
		cb := app.WriteDone
		proc.ScheduleUpcall(func() { cb(uint32(status)) })
		proc.Wake()
	})
}

// ReceiveComplete implements RxClient analogously to TransmitComplete.
func (d *Driver) ReceiveComplete(req *RxRequest, status kerr.ReturnCode) {
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
		if app.ReadDone == nil {
			return
		}
		if buf := app.ReadBuffer.Bytes(); buf != nil {
			copy(buf, req.Buf)
		}
		cb := app.ReadDone
		n := len(req.Buf)
		proc.ScheduleUpcall(func() { cb(uint32(n), uint32(status)) })
		proc.Wake()
	})
}
