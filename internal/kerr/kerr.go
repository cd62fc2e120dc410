// Package kerr holds the ReturnCode taxonomy and structured Error type so
// that internal packages needing error classification (capsule, radio,
// uart) don't have to import the root kernel package and create an
// import cycle. The root package re-exports these under kernel.* the same
// way it re-exports internal/constants.
package kerr

import (
	"errors"
	"fmt"
)

// ReturnCode is the closed error taxonomy every kernel API returns instead
// of raising: 0 means success, everything else is one of the named
// failure kinds below. This mirrors the syscall ABI directly — a
// ReturnCode converts to the signed 32-bit status a process receives from
// command/subscribe/allow/yield.
type ReturnCode int32

const (
	Success ReturnCode = 0

	Fail      ReturnCode = -1 // generic failure
	Busy      ReturnCode = -2 // a serialized operation is already in flight
	Already   ReturnCode = -3 // requested state already achieved
	Off       ReturnCode = -4 // device not powered
	Reserve   ReturnCode = -5 // no memory/slot reserved for this operation
	Invalid   ReturnCode = -6 // argument or required buffer missing
	Size      ReturnCode = -7 // length out of range
	Cancel    ReturnCode = -8 // operation cancelled
	NoMem     ReturnCode = -9 // out of static memory
	NoSupport ReturnCode = -10 // operation not supported by this hardware
	NoDevice  ReturnCode = -11 // driver id has no registered driver
	NoAck     ReturnCode = -12 // direct command was not acknowledged
)

var codeNames = map[ReturnCode]string{
	Success:   "success",
	Fail:      "fail",
	Busy:      "busy",
	Already:   "already",
	Off:       "off",
	Reserve:   "reserve",
	Invalid:   "invalid",
	Size:      "size",
	Cancel:    "cancel",
	NoMem:     "nomem",
	NoSupport: "nosupport",
	NoDevice:  "nodevice",
	NoAck:     "noack",
}

// String renders the code the way the syscall taxonomy names it in §7.
func (c ReturnCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("returncode(%d)", int32(c))
}

// Error lets a bare ReturnCode satisfy the error interface so it can be
// returned from ordinary Go functions as well as carried inside *Error.
func (c ReturnCode) Error() string {
	if c == Success {
		return "success"
	}
	return c.String()
}

// Error is a structured kernel error: which operation failed, the
// ReturnCode category, and (if the failure originated elsewhere, e.g. a
// simulated register write) the wrapped cause.
type Error struct {
	Op    string     // operation that failed, e.g. "uart.transmit_buffer"
	Code  ReturnCode // taxonomy category
	Inner error      // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Code.String()
	}
	if e.Inner != nil {
		return fmt.Sprintf("kernel: %s: %s (%s)", e.Op, e.Code, e.Inner)
	}
	return fmt.Sprintf("kernel: %s: %s", e.Op, e.Code)
}

// Unwrap gives errors.Is/errors.As access to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is lets errors.Is(err, kerr.Busy) work directly against a bare
// ReturnCode target, without callers needing to know *Error exists.
func (e *Error) Is(target error) bool {
	if rc, ok := target.(ReturnCode); ok {
		return e.Code == rc
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// New builds a structured error for the given operation and code.
func New(op string, code ReturnCode) *Error {
	return &Error{Op: op, Code: code}
}

// Wrap attaches operation context to an underlying cause, classifying it
// under code. Returns nil if inner is nil, so call sites can write
// `return kerr.Wrap("uart.configure", code, err)` unconditionally.
func Wrap(op string, code ReturnCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Inner: inner}
}

// CodeOf extracts the ReturnCode from err, defaulting to Fail if err is
// not a *Error and not a bare ReturnCode.
func CodeOf(err error) ReturnCode {
	if err == nil {
		return Success
	}
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Code
	}
	if rc, ok := err.(ReturnCode); ok {
		return rc
	}
	return Fail
}

// IsCode reports whether err classifies as code, either directly (a bare
// ReturnCode) or wrapped in *Error.
func IsCode(err error, code ReturnCode) bool {
	return CodeOf(err) == code
}
