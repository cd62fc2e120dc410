// Package grant implements the per-process, per-driver memory cells
// drivers use to keep state about a calling process: Grant[T] and the
// AppSlice shared-buffer type.
package grant

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/constants"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

// ErrAlreadyBorrowed is returned when Enter is called re-entrantly for a
// process id that is already inside its own Enter closure for this
// Grant.
var ErrAlreadyBorrowed = grantError("grant already borrowed")

type grantError string

func (e grantError) Error() string { return string(e) }

// Grant is a per-process, per-driver region of state lazily initialised
// with T's zero value on first Enter. At most one Enter closure may be
// active per process at a time.
type Grant[T any] struct {
	mu       sync.Mutex
	states   [constants.MaxProcesses]*T
	borrowed [constants.MaxProcesses]bool
}

// Enter runs f with exclusive access to this grant's T for pid, creating
// it on first use. Re-entering the same grant for the same pid from
// within f returns ErrAlreadyBorrowed without running f and without
// corrupting the existing borrow.
func (g *Grant[T]) Enter(pid process.ID, f func(*T)) error {
	idx := int(pid)
	if idx < 0 || idx >= len(g.states) {
		return grantError("grant: process id out of range")
	}

	g.mu.Lock()
	if g.borrowed[idx] {
		g.mu.Unlock()
		return ErrAlreadyBorrowed
	}
	g.borrowed[idx] = true
	if g.states[idx] == nil {
		g.states[idx] = new(T)
	}
	state := g.states[idx]
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.borrowed[idx] = false
		g.mu.Unlock()
	}()

	f(state)
	return nil
}

// AppSlice is a revocable borrow of a byte range inside one process's RAM,
// exposed via the allow syscall. The process retains logical ownership;
// the driver's borrow is revoked the moment the process issues a new
// allow on the same slot.
type AppSlice struct {
	proc   *process.Process
	Base   int
	Length int
}

// NewAppSlice validates that [base, base+length) lies within proc's RAM
// before handing the driver a usable slice, per the allow-syscall
// contract every driver must enforce.
func NewAppSlice(proc *process.Process, base, length int) (AppSlice, bool) {
	if !proc.InBounds(base, length) {
		return AppSlice{}, false
	}
	return AppSlice{proc: proc, Base: base, Length: length}, true
}

// Bytes returns the live, bounds-checked view into the owning process's
// RAM. Valid only until the process issues a new allow on this slot.
func (s AppSlice) Bytes() []byte {
	if s.proc == nil {
		return nil
	}
	return s.proc.RAM[s.Base : s.Base+s.Length]
}
