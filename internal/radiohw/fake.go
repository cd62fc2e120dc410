// Package radiohw provides a simulated radio co-processor mailbox for
// tests: deterministic and synchronous, standing in for the real CC26x2
// RFC hardware the way internal/uarthw.Fake stands in for a real UART.
package radiohw

import (
	"encoding/binary"

	"github.com/osprey-embedded/heliumcore/internal/radio"
)

var _ radio.CoProcessor = (*Fake)(nil)

// Fake implements radio.CoProcessor without any real RF or interrupt
// latency: every step of the power-up sequence succeeds unless a Fail*
// field is set, and SendOp completes inline rather than via a simulated
// IRQ goroutine.
type Fake struct {
	domainOn bool

	cmdsta      uint32
	cmdstaReady bool

	rxQueue *radio.RXQueue
	onCPE0  func(radio.CPE0Flags)

	// FailPatch makes every ApplyPatches call fail while it is set,
	// simulating a corrupt or missing CPE/MCE/RFE firmware patch blob.
	FailPatch bool
	// FailSetup makes every ConfigureSetup call fail while it is set.
	FailSetup bool
}

// New builds a Fake co-processor delivering RX frames into rxQueue.
func New(rxQueue *radio.RXQueue) *Fake {
	return &Fake{rxQueue: rxQueue}
}

func (f *Fake) RequestHFXOSC() bool { return true }

func (f *Fake) EnableDomain() bool {
	f.domainOn = true
	return true
}

func (f *Fake) DisableDomain() { f.domainOn = false }

func (f *Fake) ApplyPatches() bool {
	return !f.FailPatch
}

func (f *Fake) StartRAT() bool        { return true }
func (f *Fake) SwitchToHFClock() bool { return true }

func (f *Fake) ConfigureSetup(txPower uint16) bool {
	return !f.FailSetup
}

// WriteCMDR simulates the co-processor accepting a direct command and
// immediately publishing an accepted CMDSTA — real silicon replies within
// a bounded number of cycles, which a host fake has no reason to delay.
func (f *Fake) WriteCMDR(cmd radio.DirectCommand) {
	f.cmdsta = 0x00000001
	f.cmdstaReady = true
}

func (f *Fake) ReadCMDSTA() (uint32, bool) {
	if !f.cmdstaReady {
		return 0, false
	}
	return f.cmdsta, true
}

// SendOp inspects the opcode at the front of buf and writes a terminal
// status back into it, simulating the co-processor's asynchronous command
// execution synchronously. A transmit command immediately raises CPE0's
// cmd_done flag; a receive command is left active until a test calls
// InjectRX.
func (f *Fake) SendOp(buf []byte) bool {
	opcode := radio.Opcode(binary.LittleEndian.Uint16(buf[0:2]))
	switch opcode {
	case radio.OpCommandTx:
		binary.LittleEndian.PutUint16(buf[2:4], uint16(radio.StatusDoneOK))
		if f.onCPE0 != nil {
			f.onCPE0(radio.FlagCmdDone)
		}
	case radio.OpCommandRx:
		binary.LittleEndian.PutUint16(buf[2:4], uint16(radio.StatusActive))
	case radio.OpCommandFS:
		binary.LittleEndian.PutUint16(buf[2:4], uint16(radio.StatusDoneOK))
	default:
		return false
	}
	return true
}

func (f *Fake) OnCPE0(fn func(radio.CPE0Flags)) { f.onCPE0 = fn }

// InjectRX simulates the RF front-end demodulating a frame: it places
// payload into the first pending RX queue entry and raises CPE0's rx_ok
// (or rx_nok if !crcValid) — the test harness's equivalent of "radio.md
// §8 scenario 3: transmit a frame via direct command injection".
func (f *Fake) InjectRX(payload []byte, crcValid bool) bool {
	_, ok := f.rxQueue.Inject(payload, !crcValid)
	if !ok {
		return false
	}
	if f.onCPE0 == nil {
		return true
	}
	if crcValid {
		f.onCPE0(radio.FlagRxOK)
	} else {
		f.onCPE0(radio.FlagRxNOK)
	}
	return true
}
