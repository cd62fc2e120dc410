package board

import (
	"github.com/osprey-embedded/heliumcore/internal/capsule"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

// Placeholder is a capsule.Driver that answers every syscall with
// NoDevice: the thin adapter spec.md §1 calls for behind driver numbers
// this core reserves but does not implement (LEDs, buttons, RNG, I2C,
// ADC, PWM). A process probing one of these driver numbers sees exactly
// the "driver unavailable" behaviour spec.md §7 specifies — there is
// nothing further to build here without pulling in the vendor-specific
// peripheral configuration spec.md explicitly scopes out.
type Placeholder struct{ Name string }

var _ capsule.Driver = Placeholder{}

func (Placeholder) Allow(pid process.ID, slot uint32, base, length int) kerr.ReturnCode {
	return kerr.NoDevice
}

func (Placeholder) Subscribe(pid process.ID, subNum uint32, callback func(r0, r1, r2 uint32)) kerr.ReturnCode {
	return kerr.NoDevice
}

func (Placeholder) Command(pid process.ID, cmdNum uint32, arg1, arg2 uint32) kerr.ReturnCode {
	return kerr.NoDevice
}

// GPIOPin is the small external contract a real GPIO backend (a Linux
// gpiocdev line in cmd/nodesim's board demo, or real MMIO on target)
// provides; GPIODriver only ever depends on this, never the concrete
// backend, matching spec.md §6's "thin adapter" treatment for pin maps.
type GPIOPin interface {
	Set(bool) error
	Get() (bool, error)
}

// GPIO command numbers.
const (
	GPIOCmdCheck  = 0
	GPIOCmdSet    = 1
	GPIOCmdClear  = 2
	GPIOCmdToggle = 3
)

// GPIODriver fronts a fixed set of named pins. Unwired pin numbers behave
// exactly like Placeholder; this lets a board config that doesn't wire
// any real pins still register driver number constants.DriverGPIO with
// well-defined NoDevice behaviour.
type GPIODriver struct {
	pins map[uint32]GPIOPin
}

var _ capsule.Driver = (*GPIODriver)(nil)

// NewGPIODriver builds a GPIO capsule fronting pins, keyed by the pin
// number processes pass as arg1. A nil or empty map is a valid,
// fully-functional "no pins wired" board configuration.
func NewGPIODriver(pins map[uint32]GPIOPin) *GPIODriver {
	return &GPIODriver{pins: pins}
}

func (d *GPIODriver) Allow(pid process.ID, slot uint32, base, length int) kerr.ReturnCode {
	return kerr.NoSupport
}

func (d *GPIODriver) Subscribe(pid process.ID, subNum uint32, callback func(r0, r1, r2 uint32)) kerr.ReturnCode {
	return kerr.NoSupport
}

func (d *GPIODriver) Command(pid process.ID, cmdNum uint32, arg1, arg2 uint32) kerr.ReturnCode {
	if cmdNum == GPIOCmdCheck {
		return kerr.Success
	}
	pin, ok := d.pins[arg1]
	if !ok {
		return kerr.NoDevice
	}
	switch cmdNum {
	case GPIOCmdSet:
		return toReturnCode(pin.Set(true))
	case GPIOCmdClear:
		return toReturnCode(pin.Set(false))
	case GPIOCmdToggle:
		v, err := pin.Get()
		if err != nil {
			return kerr.Fail
		}
		return toReturnCode(pin.Set(!v))
	default:
		return kerr.NoSupport
	}
}

func toReturnCode(err error) kerr.ReturnCode {
	if err != nil {
		return kerr.Fail
	}
	return kerr.Success
}
