package kernel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osprey-embedded/heliumcore"
)

func TestNewErrorFormatsOpAndCode(t *testing.T) {
	err := kernel.NewError("radio.transmit", kernel.Busy)

	assert.Equal(t, "radio.transmit", err.Op)
	assert.Equal(t, kernel.Busy, err.Code)
	assert.Equal(t, "kernel: radio.transmit: busy", err.Error())
}

func TestWrapErrorCarriesInnerCause(t *testing.T) {
	inner := errors.New("register write timed out")
	err := kernel.WrapError("uart.configure", kernel.Fail, inner)

	assert.Equal(t, "kernel: uart.configure: fail (register write timed out)", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestWrapErrorOnNilInnerReturnsNil(t *testing.T) {
	assert.Nil(t, kernel.WrapError("uart.configure", kernel.Fail, nil))
}

func TestCodeOfExtractsReturnCode(t *testing.T) {
	assert.Equal(t, kernel.NoDevice, kernel.CodeOf(kernel.NewError("command", kernel.NoDevice)))
	assert.Equal(t, kernel.Busy, kernel.CodeOf(kernel.Busy))
	assert.Equal(t, kernel.Success, kernel.CodeOf(nil))
	assert.Equal(t, kernel.Fail, kernel.CodeOf(errors.New("unrelated")))
}

func TestIsCodeMatchesDirectAndWrapped(t *testing.T) {
	err := kernel.NewError("allow", kernel.Invalid)

	assert.True(t, kernel.IsCode(err, kernel.Invalid))
	assert.False(t, kernel.IsCode(err, kernel.Busy))
	assert.True(t, kernel.IsCode(kernel.Off, kernel.Off))
}

func TestErrorsIsAgainstBareReturnCode(t *testing.T) {
	err := kernel.NewError("command", kernel.Busy)
	assert.True(t, errors.Is(err, kernel.Busy))
	assert.False(t, errors.Is(err, kernel.Off))
}

func TestReturnCodeSatisfiesErrorInterface(t *testing.T) {
	var err error = kernel.Busy
	assert.Equal(t, "busy", err.Error())

	var success error = kernel.Success
	assert.Equal(t, "success", success.Error())
}
