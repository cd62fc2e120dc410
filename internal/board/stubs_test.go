package board_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osprey-embedded/heliumcore/internal/board"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
)

func TestPlaceholderAlwaysReturnsNoDevice(t *testing.T) {
	p := board.Placeholder{Name: "led"}

	assert.Equal(t, kerr.NoDevice, p.Allow(0, 0, 0, 0))
	assert.Equal(t, kerr.NoDevice, p.Subscribe(0, 0, nil))
	assert.Equal(t, kerr.NoDevice, p.Command(0, 0, 0, 0))
}

type fakePin struct {
	value bool
	err   error
}

func (f *fakePin) Set(v bool) error {
	if f.err != nil {
		return f.err
	}
	f.value = v
	return nil
}

func (f *fakePin) Get() (bool, error) {
	return f.value, f.err
}

func TestGPIODriverCheckSucceedsEvenWithNoPins(t *testing.T) {
	d := board.NewGPIODriver(nil)
	assert.Equal(t, kerr.Success, d.Command(0, board.GPIOCmdCheck, 0, 0))
}

func TestGPIODriverUnwiredPinIsNoDevice(t *testing.T) {
	d := board.NewGPIODriver(nil)
	assert.Equal(t, kerr.NoDevice, d.Command(0, board.GPIOCmdSet, 7, 0))
}

func TestGPIODriverSetClearToggle(t *testing.T) {
	pin := &fakePin{}
	d := board.NewGPIODriver(map[uint32]board.GPIOPin{3: pin})

	assert.Equal(t, kerr.Success, d.Command(0, board.GPIOCmdSet, 3, 0))
	assert.True(t, pin.value)

	assert.Equal(t, kerr.Success, d.Command(0, board.GPIOCmdClear, 3, 0))
	assert.False(t, pin.value)

	assert.Equal(t, kerr.Success, d.Command(0, board.GPIOCmdToggle, 3, 0))
	assert.True(t, pin.value)
}

func TestGPIODriverPropagatesPinErrors(t *testing.T) {
	pin := &fakePin{err: errors.New("line busy")}
	d := board.NewGPIODriver(map[uint32]board.GPIOPin{3: pin})

	assert.Equal(t, kerr.Fail, d.Command(0, board.GPIOCmdSet, 3, 0))
	assert.Equal(t, kerr.Fail, d.Command(0, board.GPIOCmdToggle, 3, 0))
}

func TestGPIODriverUnknownCommandIsNoSupport(t *testing.T) {
	pin := &fakePin{}
	d := board.NewGPIODriver(map[uint32]board.GPIOPin{3: pin})
	assert.Equal(t, kerr.NoSupport, d.Command(0, 99, 3, 0))
}

func TestGPIODriverAllowAndSubscribeAreUnsupported(t *testing.T) {
	d := board.NewGPIODriver(nil)
	assert.Equal(t, kerr.NoSupport, d.Allow(0, 0, 0, 0))
	assert.Equal(t, kerr.NoSupport, d.Subscribe(0, 0, nil))
}
