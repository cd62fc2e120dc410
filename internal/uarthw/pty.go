package uarthw

import (
	"os"
	"sync"

	"github.com/creack/pty"

	"github.com/osprey-embedded/heliumcore/internal/uart"
)

var _ uart.Registers = (*PTY)(nil)

// PTY is a Registers implementation backed by a real pseudo-tty pair: the
// slave side plays the MCU's UART, the master side (returned from Open)
// is what a test harness uses to act as the external device on the wire —
// so uart tests exercise real byte delivery through the kernel, not just
// a synthetic fake.
type PTY struct {
	slave *os.File

	mu     sync.Mutex
	rx     []byte
	onData func()

	closed chan struct{}
}

// Open creates a pty pair and returns the master end for the test harness
// plus the PTY Registers implementation wired to the slave end.
func Open() (master *os.File, regs *PTY, err error) {
	m, s, err := pty.Open()
	if err != nil {
		return nil, nil, err
	}
	p := &PTY{slave: s, closed: make(chan struct{})}
	go p.pump()
	return m, p, nil
}

// OnData registers a callback invoked (from the pump goroutine) whenever
// new bytes arrive on the slave side — board wiring uses this to call the
// UART's isr.Line.Fire().
func (p *PTY) OnData(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onData = f
}

func (p *PTY) pump() {
	buf := make([]byte, 256)
	for {
		n, err := p.slave.Read(buf)
		if n > 0 {
			p.mu.Lock()
			p.rx = append(p.rx, buf[:n]...)
			cb := p.onData
			p.mu.Unlock()
			if cb != nil {
				cb()
			}
		}
		if err != nil {
			close(p.closed)
			return
		}
	}
}

// Close releases the slave file descriptor and stops the pump goroutine.
func (p *PTY) Close() error {
	return p.slave.Close()
}

func (p *PTY) Configure(uart.Parameters) bool { return true }

func (p *PTY) RxFIFONotEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rx) > 0
}

func (p *PTY) TxFIFONotFull() bool { return true }

func (p *PTY) ReadByte() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.rx) == 0 {
		return 0
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b
}

func (p *PTY) WriteByte(b byte) {
	p.slave.Write([]byte{b})
}

func (p *PTY) EnableTx()  {}
func (p *PTY) DisableTx() {}
func (p *PTY) EnableRx()  {}
func (p *PTY) DisableRx() {}

func (p *PTY) ClearInterrupts() {}
