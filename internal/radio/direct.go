package radio

import (
	"time"

	"github.com/osprey-embedded/heliumcore/internal/constants"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
)

// CoProcessor abstracts the radio co-processor's mailbox registers and
// shared command buffer, satisfied by a real MMIO block on target or by a
// simulated fake (internal/radiohw.Fake) in tests — the register-file
// abstraction boundary this package uses follows the same shape as
// internal/uart.Registers.
type CoProcessor interface {
	// Power-up sequence steps (spec.md §4.6 items b-g).
	RequestHFXOSC() bool
	EnableDomain() bool
	DisableDomain()
	ApplyPatches() bool
	StartRAT() bool
	SwitchToHFClock() bool
	ConfigureSetup(txPower uint16) bool

	// WriteCMDR submits a direct command; ReadCMDSTA polls for the reply.
	// No interrupt is involved in the direct-command path.
	WriteCMDR(cmd DirectCommand)
	ReadCMDSTA() (value uint32, ready bool)

	// SendOp hands a radio-operation command record (already marshalled
	// into buf) to the co-processor. The co-processor mutates buf
	// in-place asynchronously and eventually signals CPE0.
	SendOp(buf []byte) bool

	// OnCPE0 installs the callback the co-processor invokes (from its own
	// goroutine, simulating the IRQ) whenever it wants to raise CPE0.
	OnCPE0(f func(CPE0Flags))
}

// sendDirect writes cmd to CMDR and polls CMDSTA with a bounded deadline —
// the driver never blocks indefinitely on an unresponsive co-processor,
// grounded on the teacher's SubmitCtrlCmd synchronous-wait pattern.
func sendDirect(co CoProcessor, cmd DirectCommand) (uint32, kerr.ReturnCode) {
	co.WriteCMDR(cmd)
	deadline := time.Now().Add(constants.DirectCommandDeadline)
	for {
		if v, ready := co.ReadCMDSTA(); ready {
			return v, kerr.Success
		}
		if time.Now().After(deadline) {
			return 0, kerr.Fail
		}
		time.Sleep(constants.DirectCommandPollInterval)
	}
}
