// Package rtc implements the alarm peripheral driver: a free-running
// counter with a single hardware compare register, turned into an
// unbounded-alarm-count capsule by virtualising that one compare register
// across every process that has an alarm outstanding.
package rtc

import "sync"

// Frequency is the counter's tick rate in Hz. The original nRF5x RTC1
// divides its 32768 Hz crystal by (prescaler+1); this driver always runs
// the prescaler at 0, the value chip.go's rtc1().start() configures.
const Frequency = 32768

// Registers abstracts the free-running counter and its single compare
// channel, so the driver can run against a real peripheral or
// internal/rtchw.Fake identically.
type Registers interface {
	Start()
	Stop()

	// Now returns the current free-running counter value.
	Now() uint32

	// SetCompare arms the compare channel for the given absolute counter
	// value and unmasks its interrupt.
	SetCompare(tics uint32)
	// GetCompare reads back the last value written by SetCompare.
	GetCompare() uint32

	// DisableCompare masks the compare interrupt without clearing the
	// comparator value, matching the original's disable()/is_armed() split.
	DisableCompare()
	IsCompareEnabled() bool

	// ClearCompareEvent performs the write-1-to-clear on the compare
	// event, acknowledging the interrupt at the peripheral.
	ClearCompareEvent()
}

// Client is notified when the armed compare fires.
type Client interface {
	Fired()
}

// Alarm drives one hardware counter/compare channel. At most one absolute
// expiry may be armed in hardware at a time; Driver reprograms it to
// whichever process's alarm expires soonest.
type Alarm struct {
	mu     sync.Mutex
	regs   Registers
	client Client
	armed  bool
}

// New wires an Alarm to its register file. The counter is not started;
// callers must call Start before arming.
func New(regs Registers) *Alarm {
	return &Alarm{regs: regs}
}

// SetClient installs the fired-event callback.
func (a *Alarm) SetClient(c Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = c
}

// Start enables the free-running counter. Idempotent.
func (a *Alarm) Start() {
	a.regs.Start()
}

// Now returns the current counter value.
func (a *Alarm) Now() uint32 {
	return a.regs.Now()
}

// SetAlarm arms the compare channel for the absolute counter value tics,
// overwriting whatever was previously armed. Exactly one expiry may be
// armed at a time; Driver is responsible for always asking for the
// earliest of however many processes have an outstanding request.
func (a *Alarm) SetAlarm(tics uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.regs.SetCompare(tics)
	a.armed = true
}

// GetAlarm returns the currently armed absolute expiry.
func (a *Alarm) GetAlarm() uint32 {
	return a.regs.GetCompare()
}

// Disarm masks the compare interrupt. The counter keeps running.
func (a *Alarm) Disarm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.regs.DisableCompare()
	a.armed = false
}

// IsArmed reports whether a compare expiry is currently live in hardware.
func (a *Alarm) IsArmed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.armed
}

// ServiceInterrupt is the handler the chip service loop calls for this
// peripheral's event priority: it acknowledges the compare event and
// masks it (re-arming, if needed, is the client's job once it has decided
// the next expiry), then invokes the client.
func (a *Alarm) ServiceInterrupt() {
	a.regs.ClearCompareEvent()
	a.regs.DisableCompare()

	a.mu.Lock()
	a.armed = false
	client := a.client
	a.mu.Unlock()

	if client != nil {
		client.Fired()
	}
}
