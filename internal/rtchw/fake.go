// Package rtchw provides an in-memory backend for internal/rtc.Registers:
// a manually-advanced free-running counter standing in for the real
// 32768 Hz crystal-driven RTC, the rtc analogue of internal/uarthw.Fake.
package rtchw

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/rtc"
)

var _ rtc.Registers = (*Fake)(nil)

// Fake is an in-memory Registers implementation. Tests advance the
// counter explicitly with Tick/SetNow rather than relying on wall-clock
// time, so alarm-expiry tests are deterministic.
type Fake struct {
	mu sync.Mutex

	running bool
	now     uint32

	compare      uint32
	compareArmed bool
}

// NewFake returns a stopped fake counter starting at 0.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
}

func (f *Fake) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func (f *Fake) Now() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) SetCompare(tics uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compare = tics
	f.compareArmed = true
}

func (f *Fake) GetCompare() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compare
}

func (f *Fake) DisableCompare() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compareArmed = false
}

func (f *Fake) IsCompareEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compareArmed
}

func (f *Fake) ClearCompareEvent() {}

// Tick advances the counter by n ticks. It does not itself fire any
// interrupt — callers drive the Alarm's ServiceInterrupt once they've
// observed (via Fired, wired through a test's own polling, or Elapsed)
// that the armed compare has been reached, mirroring how a real compare
// event would raise the chip's event line asynchronously.
func (f *Fake) Tick(n uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += n
}

// SetNow forces the counter to an absolute value, for tests that want to
// exercise 32-bit wraparound directly.
func (f *Fake) SetNow(v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = v
}

// Elapsed reports whether the armed compare value has been reached or
// passed, using wraparound-safe signed-difference comparison — the same
// rule Driver uses to decide which of several processes' alarms is
// soonest.
func (f *Fake) Elapsed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.compareArmed {
		return false
	}
	return int32(f.now-f.compare) >= 0
}
