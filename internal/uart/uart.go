// Package uart implements the UART peripheral driver: request-object
// protocol (buffered transmit / receive with newline termination) over a
// single physical UART, driven from the chip service loop rather than
// directly from interrupt context. A Mux fans the one physical
// peripheral out to several logical clients (see mux.go).
package uart

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/kerr"
)

// Width is the configured word width.
type Width int

const (
	Width6 Width = iota
	Width7
	Width8
)

// Parameters configures a UART peripheral. Only 8N1, no flow control is
// supported; anything else fails configuration with NoSupport.
type Parameters struct {
	BaudRate      uint32
	Width         Width
	HWFlowControl bool
}

var defaultParameters = Parameters{BaudRate: 115200, Width: Width8}

// DefaultParameters returns the 115200/8N1 configuration every board
// console uses unless overridden.
func DefaultParameters() Parameters { return defaultParameters }

// Registers abstracts the UART register file so the driver can run
// against a fake (internal/uarthw.Fake) or a real pseudo-tty-backed
// harness (internal/uarthw.PTY) identically.
type Registers interface {
	// Configure applies baud rate and word width. Returns false if the
	// hardware rejected the settings (never happens for the fake/pty
	// backends; real silicon could fail here).
	Configure(p Parameters) bool

	RxFIFONotEmpty() bool
	TxFIFONotFull() bool

	ReadByte() byte
	WriteByte(b byte)

	// EnableTx/DisableTx toggle the TX and end-of-transmission interrupt
	// mask bits; EnableRx/DisableRx toggle RX and RX-timeout.
	EnableTx()
	DisableTx()
	EnableRx()
	DisableRx()

	// ClearInterrupts performs the write-1-to-clear on the raw interrupt
	// status register, per the ICR semantics in the cc26x2 UART.
	ClearInterrupts()
}

// TxRequest is a driver-owned descriptor for an in-flight buffered
// transmit. A request has three states: idle (no buffer, Buf == nil),
// armed (Buf present, Index < len(Buf)), completed (Index == len(Buf)).
type TxRequest struct {
	Buf       []byte
	Index     int
	Completed bool
}

func (r *TxRequest) pop() (byte, bool) {
	if r.Index >= len(r.Buf) {
		return 0, false
	}
	b := r.Buf[r.Index]
	r.Index++
	if r.Index == len(r.Buf) {
		r.Completed = true
	}
	return b, true
}

// RxRequest is a driver-owned descriptor for an in-flight buffered
// receive: Buf holds the bytes seen so far, Index is the next write
// position, and Len is the caller's requested buffer size. Completion
// happens either when the buffer fills (Index == Len) or a newline is
// observed, in which case a NUL terminator is appended, growing past Len
// if needed, and NewlineTerminated is set.
type RxRequest struct {
	Buf               []byte
	Index             int
	Len               int
	NewlineTerminated bool
	Completed         bool
}

func (r *RxRequest) push(b byte) {
	r.Buf = append(r.Buf, b)
	r.Index++
	if b == '\n' {
		r.NewlineTerminated = true
		r.Buf = append(r.Buf, 0)
		r.Index++
		r.Completed = true
		return
	}
	if r.Index == r.Len {
		r.Completed = true
	}
}

// TxClient is notified when a transmit completes.
type TxClient interface {
	TransmitComplete(req *TxRequest, code kerr.ReturnCode)
}

// RxClient is notified when a receive completes.
type RxClient interface {
	ReceiveComplete(req *RxRequest, code kerr.ReturnCode)
}

// UART drives one physical peripheral: at most one TxRequest and one
// RxRequest armed at a time.
type UART struct {
	mu   sync.Mutex
	regs Registers

	tx *TxRequest
	rx *RxRequest

	txClient TxClient
	rxClient RxClient
}

// New wires a UART driver to its register file. The peripheral is left
// unconfigured; callers must call Configure before arming requests.
func New(regs Registers) *UART {
	return &UART{regs: regs}
}

// SetClients installs the transmit/receive completion callbacks, the Go
// analogue of the original's set_transmit_client/set_receive_client
// cyclic-wiring pattern — set once at board construction, never mutated
// concurrently with traffic.
func (u *UART) SetClients(tx TxClient, rx RxClient) {
	u.txClient = tx
	u.rxClient = rx
}

// Configure applies baud/width/flow-control settings. Only 8N1, no flow
// control, is supported.
func (u *UART) Configure(p Parameters) kerr.ReturnCode {
	if p.HWFlowControl || p.Width != Width8 {
		return kerr.NoSupport
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.regs.Configure(p) {
		return kerr.Fail
	}
	return kerr.Success
}

// TransmitBuffer arms tx. Writes the first byte immediately if the FIFO
// has room; otherwise the chip service loop will drain it once the
// TX-FIFO-not-full interrupt fires. Exactly one TxRequest may be armed at
// a time.
func (u *UART) TransmitBuffer(tx *TxRequest) kerr.ReturnCode {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tx != nil {
		return kerr.Busy
	}
	u.regs.EnableTx()

	if u.regs.TxFIFONotFull() && !tx.Completed {
		if b, ok := tx.pop(); ok {
			u.regs.WriteByte(b)
		}
	}
	u.tx = tx
	return kerr.Success
}

// TransmitAbort returns the armed TxRequest synchronously, if any.
func (u *UART) TransmitAbort() *TxRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	req := u.tx
	u.tx = nil
	return req
}

// ReceiveBuffer arms rx, enabling the RX and RX-timeout interrupts. At
// most one RxRequest may be armed at a time.
func (u *UART) ReceiveBuffer(rx *RxRequest) kerr.ReturnCode {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.rx != nil {
		return kerr.Busy
	}
	u.regs.EnableRx()
	u.rx = rx
	return kerr.Success
}

// ReceiveAbort returns the armed RxRequest synchronously, if any.
func (u *UART) ReceiveAbort() *RxRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	req := u.rx
	u.rx = nil
	return req
}

// ServiceInterrupt is the handler the chip service loop calls for this
// peripheral's EventPriority. It drains whatever the FIFOs allow: while
// an RxRequest is armed and the RX FIFO is non-empty, pop bytes into it;
// while a TxRequest is armed and the TX FIFO is non-full, push bytes out
// of it. Completed requests are handed to their client and un-armed.
func (u *UART) ServiceInterrupt() {
	u.mu.Lock()

	var completedRx *RxRequest
	if u.rx != nil {
		rx := u.rx
		for u.regs.RxFIFONotEmpty() {
			rx.push(u.regs.ReadByte())
			if rx.Completed {
				break
			}
		}
		if rx.Completed {
			u.regs.DisableRx()
			completedRx = rx
			u.rx = nil
		}
	}

	var completedTx *TxRequest
	if u.tx != nil {
		tx := u.tx
		for u.regs.TxFIFONotFull() && !tx.Completed {
			b, ok := tx.pop()
			if !ok {
				break
			}
			u.regs.WriteByte(b)
		}
		if tx.Completed {
			u.regs.DisableTx()
			completedTx = tx
			u.tx = nil
		}
	}

	u.regs.ClearInterrupts()
	u.mu.Unlock()

	if completedRx != nil && u.rxClient != nil {
		u.rxClient.ReceiveComplete(completedRx, kerr.Success)
	}
	if completedTx != nil && u.txClient != nil {
		u.txClient.TransmitComplete(completedTx, kerr.Success)
	}
}
