// Package uarthw provides two interchangeable backends for
// internal/uart.Registers: a pure in-memory fake for unit tests, and a
// real pseudo-tty-backed harness (pty.go) for tests that want actual
// byte-level serial delivery without real silicon.
package uarthw

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/uart"
)

var _ uart.Registers = (*Fake)(nil)

// Fake is an in-memory Registers implementation with unbounded FIFOs —
// there is no hardware to overflow, so TxFIFONotFull is always true.
type Fake struct {
	mu     sync.Mutex
	rx     []byte
	tx     []byte
	params uart.Parameters
}

// NewFake returns an unconfigured fake register file.
func NewFake() *Fake {
	return &Fake{}
}

// Feed simulates bytes arriving over the wire, as if an external device
// transmitted them to this UART's RX line.
func (f *Fake) Feed(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = append(f.rx, b...)
}

// Written returns, and clears, everything written to TX so far — the
// bytes an external device would have received over the wire.
func (f *Fake) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.tx
	f.tx = nil
	return out
}

func (f *Fake) Configure(p uart.Parameters) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = p
	return true
}

func (f *Fake) RxFIFONotEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rx) > 0
}

func (f *Fake) TxFIFONotFull() bool { return true }

func (f *Fake) ReadByte() byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rx) == 0 {
		return 0
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b
}

func (f *Fake) WriteByte(b byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tx = append(f.tx, b)
}

func (f *Fake) EnableTx()  {}
func (f *Fake) DisableTx() {}
func (f *Fake) EnableRx()  {}
func (f *Fake) DisableRx() {}

func (f *Fake) ClearInterrupts() {}
