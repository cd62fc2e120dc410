package radio

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/constants"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
)

// TxClient is notified when a transmit radio-operation command completes.
type TxClient interface {
	TransmitEvent(buf []byte, status kerr.ReturnCode)
}

// RxClient is notified when a frame is delivered off the RX queue.
type RxClient interface {
	ReceiveEvent(buf []byte, frameLen int, crcValid bool, status kerr.ReturnCode)
}

// PowerClient is notified on power-up/power-down completion.
type PowerClient interface {
	PowerUpDone(status kerr.ReturnCode)
	PowerDownDone()
}

// defaultFrequencyMHz is the channel CMD_FS selects at power-up absent an
// explicit SetFrequency call — an arbitrary but fixed ISM-band channel.
const defaultFrequencyMHz = 915

// Radio drives one radio co-processor: the power-up sequence, the direct
// and radio-operation command paths, and the CPE0 demultiplex. At most one
// radio-operation command, transmit or receive, may be outstanding.
type Radio struct {
	mu sync.Mutex

	co      CoProcessor
	rxQueue *RXQueue
	cmdBuf  []byte

	state   State
	mode    Mode
	txPower uint16

	txInFlight        []byte
	schedulePowerdown bool

	txClient    TxClient
	rxClient    RxClient
	powerClient PowerClient
}

// New wires a Radio to its co-processor and RX queue. The radio starts
// powered off.
func New(co CoProcessor, rxQueue *RXQueue) *Radio {
	r := &Radio{
		co:      co,
		rxQueue: rxQueue,
		cmdBuf:  make([]byte, constants.RadioCommandRecordSize),
		state:   StateOff,
		txPower: 0x9330, // cc26x2 default 0 dBm PA setting
	}
	co.OnCPE0(r.HandleCPE0)
	return r
}

// SetClients installs the transmit/receive/power completion callbacks.
func (r *Radio) SetClients(tx TxClient, rx RxClient, power PowerClient) {
	r.txClient = tx
	r.rxClient = rx
	r.powerClient = power
}

// State returns the driver's current state.
func (r *Radio) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PowerUp runs the eight-step power-up sequence (spec.md §4.6 items a-h),
// failing fast and powering the domain back down on the first failed step.
func (r *Radio) PowerUp(mode Mode) kerr.ReturnCode {
	r.mu.Lock()
	if r.state != StateOff {
		r.mu.Unlock()
		return kerr.Already
	}
	r.mode = mode
	r.state = StatePoweringUp
	r.mu.Unlock()

	steps := []func() bool{
		r.co.RequestHFXOSC,
		r.co.EnableDomain,
		r.co.ApplyPatches,
		r.co.StartRAT,
		r.co.SwitchToHFClock,
	}
	for _, step := range steps {
		if !step() {
			return r.abortPowerUp()
		}
	}
	if !r.co.ConfigureSetup(r.txPower) {
		return r.abortPowerUp()
	}
	if code := r.runCMDFS(defaultFrequencyMHz); code != kerr.Success {
		return r.abortPowerUp()
	}

	r.mu.Lock()
	r.state = StateIdle
	client := r.powerClient
	r.mu.Unlock()
	if client != nil {
		client.PowerUpDone(kerr.Success)
	}
	return kerr.Success
}

func (r *Radio) abortPowerUp() kerr.ReturnCode {
	r.co.DisableDomain()
	r.mu.Lock()
	r.state = StateOff
	client := r.powerClient
	r.mu.Unlock()
	if client != nil {
		client.PowerUpDone(kerr.Fail)
	}
	return kerr.Fail
}

// PowerDown powers the co-processor domain down unconditionally, from any
// state.
func (r *Radio) PowerDown() kerr.ReturnCode {
	r.mu.Lock()
	if r.state == StateOff {
		r.mu.Unlock()
		return kerr.Already
	}
	r.co.DisableDomain()
	r.state = StateOff
	client := r.powerClient
	r.mu.Unlock()
	if client != nil {
		client.PowerDownDone()
	}
	return kerr.Success
}

func (r *Radio) runCMDFS(frequencyMHz uint16) kerr.ReturnCode {
	cmd := CommandFS{
		CommandHeader: CommandHeader{CommandNo: uint16(OpCommandFS)},
		Frequency:     frequencyMHz,
	}
	marshalFS(r.cmdBuf, cmd)
	if !r.co.SendOp(r.cmdBuf) {
		return kerr.Fail
	}
	if commandStatus(r.cmdBuf) == StatusDoneErr {
		return kerr.Fail
	}
	return kerr.Success
}

// SetFrequency re-runs CMD_FS for a new channel; the radio must already be
// idle (not mid transmit/receive).
func (r *Radio) SetFrequency(frequencyMHz uint16) kerr.ReturnCode {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return kerr.Busy
	}
	r.mu.Unlock()
	return r.runCMDFS(frequencyMHz)
}

// Transmit submits a transmit radio-operation command. Fails NoSupport for
// frames over constants.RadioMaxFrameLen, Off if the radio is powered down
// or still powering up, and Busy if another transmit is in flight or a
// receive is active. On success the buffer is borrowed until
// the subsequent TransmitEvent callback. A CRC is always appended by
// hardware.
func (r *Radio) Transmit(buf []byte) (kerr.ReturnCode, []byte) {
	if len(buf) > constants.RadioMaxFrameLen {
		return kerr.NoSupport, buf
	}

	r.mu.Lock()
	if r.state == StateOff || r.state == StatePoweringUp {
		r.mu.Unlock()
		return kerr.Off, buf
	}
	if r.state != StateIdle || r.txInFlight != nil {
		r.mu.Unlock()
		return kerr.Busy, buf
	}

	const payloadOffset = 28 // sizeof(CommandTx)
	cmd := CommandTx{
		CommandHeader: CommandHeader{CommandNo: uint16(OpCommandTx)},
		PacketConf:    packetConfUseCRC | packetConfVarLen,
		PacketLen:     uint16(len(buf)),
		SyncWord:      constants.RadioDefaultSyncWord,
		PacketPointer: payloadOffset,
	}
	marshalTx(r.cmdBuf, cmd)
	copy(r.cmdBuf[payloadOffset:], buf)

	r.txInFlight = buf
	r.state = StateTx
	r.mu.Unlock()

	// SendOp must run outside the lock: the fake (and, conceivably, a
	// future real driver's fast path) may invoke HandleCPE0 synchronously
	// before returning, which itself needs r.mu.
	if !r.co.SendOp(r.cmdBuf) {
		r.mu.Lock()
		r.txInFlight = nil
		r.state = StateIdle
		r.mu.Unlock()
		return kerr.Fail, buf
	}
	return kerr.Success, nil
}

// Receive submits a receive radio-operation command, arming the RX queue.
func (r *Radio) Receive() kerr.ReturnCode {
	r.mu.Lock()
	if r.state == StateOff || r.state == StatePoweringUp {
		r.mu.Unlock()
		return kerr.Off
	}
	if r.state != StateIdle {
		r.mu.Unlock()
		return kerr.Busy
	}

	cmd := CommandRx{
		CommandHeader: CommandHeader{CommandNo: uint16(OpCommandRx)},
		RxConfig:      rxConfigAppendStatus | rxConfigAutoFlushCRCError,
		MaxPacketLen:  constants.RadioMaxFrameLen,
		SyncWord:      constants.RadioDefaultSyncWord,
		EndTrigger:    0x1,
	}
	marshalRx(r.cmdBuf, cmd)

	r.state = StateRx
	r.mu.Unlock()

	if !r.co.SendOp(r.cmdBuf) {
		r.mu.Lock()
		r.state = StateIdle
		r.mu.Unlock()
		return kerr.Fail
	}
	return kerr.Success
}

// Stop sends the graceful-stop direct command (0x0402): the co-processor
// finishes at the next safe point. Kill sends the immediate-abort direct
// command (0x0401). Both return the direct-command status to the caller
// and, per spec.md's cancellation policy, hand any outstanding TX buffer
// back via TransmitEvent with a non-success status.
func (r *Radio) Stop() kerr.ReturnCode { return r.cancel(DirectOpStop) }
func (r *Radio) Kill() kerr.ReturnCode { return r.cancel(DirectOpKill) }

func (r *Radio) cancel(opcode uint16) kerr.ReturnCode {
	_, code := sendDirect(r.co, DirectCommand{Opcode: opcode})
	if code != kerr.Success {
		return kerr.Fail
	}

	r.mu.Lock()
	if r.state == StateTx || r.state == StateRx {
		r.state = StateIdle
	}
	buf := r.txInFlight
	r.txInFlight = nil
	client := r.txClient
	r.mu.Unlock()

	if buf != nil && client != nil {
		client.TransmitEvent(buf, kerr.Cancel)
	}
	return kerr.Success
}

// SetTxPower sends the direct command that updates the PA output level.
func (r *Radio) SetTxPower(power uint16) kerr.ReturnCode {
	r.mu.Lock()
	r.txPower = power
	r.mu.Unlock()
	_, code := sendDirect(r.co, DirectCommand{Opcode: DirectOpSetTxPower, Parameter: power})
	if code != kerr.Success {
		return kerr.Fail
	}
	return kerr.Success
}

// GetTxPower returns the last PA level configured, successfully or not.
func (r *Radio) GetTxPower() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txPower
}

// IsOn reports whether the co-processor domain is powered.
func (r *Radio) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != StateOff
}

// Busy reports whether a radio-operation command is in flight (Tx or Rx).
// After a graceful Stop, is_on() still returns true but busy() returns
// false, per spec.md §8 scenario 6.
func (r *Radio) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateTx || r.state == StateRx
}

// CommandStatus decodes the status word of the most recently submitted
// radio-operation command record.
func (r *Radio) CommandStatus() (kerr.ReturnCode, uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := uint16(commandStatus(r.cmdBuf))
	if status < constants.RadioTerminalStatusFloor {
		return kerr.Busy, status
	}
	switch status & 0x0F00 {
	case 0x0400:
		return kerr.Success, status
	case 0x0800:
		return kerr.Fail, status
	default:
		return kerr.Invalid, status
	}
}

// HandleCPE0 demultiplexes the co-processor's CPE0 interrupt-status word
// per spec.md §4.6's table. RX is processed before TX completion when
// both are set in the same IRQ: frames are time-critical, the TX
// completion is independent of subsequent command dispatch.
func (r *Radio) HandleCPE0(flags CPE0Flags) {
	if flags.has(FlagRxOK) || flags.has(FlagRxNOK) || flags.has(FlagRxEntryDone) || flags.has(FlagRxBufFull) {
		r.deliverRX(flags.has(FlagRxEntryDone))
	}
	if flags.has(FlagCmdDone) || flags.has(FlagLastCmdDone) {
		r.completeCommand()
	}
}

func (r *Radio) deliverRX(multiple bool) {
	for {
		r.mu.Lock()
		entry, idx, ok := r.rxQueue.PopFinished()
		if !ok {
			r.mu.Unlock()
			return
		}
		payload := append([]byte(nil), entry.Payload...)
		crcValid := entry.Status != EntryUnfinished
		r.rxQueue.Reset(idx)
		client := r.rxClient
		r.mu.Unlock()

		if client != nil {
			client.ReceiveEvent(payload, len(payload), crcValid, kerr.Success)
		}
		if !multiple {
			return
		}
	}
}

func (r *Radio) completeCommand() {
	r.mu.Lock()
	buf := r.txInFlight
	r.txInFlight = nil
	if r.state == StateTx {
		r.state = StateIdle
	}
	schedulePowerdown := r.schedulePowerdown
	r.schedulePowerdown = false
	client := r.txClient
	r.mu.Unlock()

	if schedulePowerdown {
		r.PowerDown()
	}
	if buf != nil && client != nil {
		client.TransmitEvent(buf, kerr.Success)
	}
}

// ScheduleShutdown arms a power-down to run as soon as the outstanding
// command completes — the driver's analogue of the original's
// schedule_powerdown flag, set by board code that wants to sleep after one
// transmission.
func (r *Radio) ScheduleShutdown() {
	r.mu.Lock()
	r.schedulePowerdown = true
	r.mu.Unlock()
}
