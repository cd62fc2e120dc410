// Package kernel is the public facade of the embedded sensor-node runtime:
// the event-priority dispatcher, the radio and UART drivers, the
// capsule/grant call gate, and the process kernel loop described in the
// design spec.
package kernel

import "github.com/osprey-embedded/heliumcore/internal/kerr"

// ReturnCode is the closed error taxonomy every kernel API returns
// instead of raising. See internal/kerr for the full doc comment; this is
// a re-export so internal packages can classify errors without importing
// the root package (which would create an import cycle).
type ReturnCode = kerr.ReturnCode

const (
	Success   = kerr.Success
	Fail      = kerr.Fail
	Busy      = kerr.Busy
	Already   = kerr.Already
	Off       = kerr.Off
	Reserve   = kerr.Reserve
	Invalid   = kerr.Invalid
	Size      = kerr.Size
	Cancel    = kerr.Cancel
	NoMem     = kerr.NoMem
	NoSupport = kerr.NoSupport
	NoDevice  = kerr.NoDevice
	NoAck     = kerr.NoAck
)

// Error is a structured kernel error: which operation failed, the
// ReturnCode category, and (if applicable) the wrapped cause.
type Error = kerr.Error

// NewError builds a structured error for the given operation and code.
func NewError(op string, code ReturnCode) *Error {
	return kerr.New(op, code)
}

// WrapError attaches operation context to an underlying cause. Returns
// nil if inner is nil, so call sites can write
// `return WrapError("uart.configure", code, err)` unconditionally.
func WrapError(op string, code ReturnCode, inner error) *Error {
	return kerr.Wrap(op, code, inner)
}

// CodeOf extracts the ReturnCode from err, defaulting to Fail.
func CodeOf(err error) ReturnCode {
	return kerr.CodeOf(err)
}

// IsCode reports whether err classifies as code.
func IsCode(err error, code ReturnCode) bool {
	return kerr.IsCode(err, code)
}
