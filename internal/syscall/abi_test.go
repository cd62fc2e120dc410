package syscall_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osprey-embedded/heliumcore/internal/capsule"
	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/process"
	syscallabi "github.com/osprey-embedded/heliumcore/internal/syscall"
)

type recordingDriver struct {
	lastCmd           uint32
	lastArg0, lastArg1 uint32
	subCallback       func(r0, r1, r2 uint32)
	allowBase, allowLen int
}

func (d *recordingDriver) Command(pid process.ID, cmdNum uint32, arg0, arg1 uint32) kerr.ReturnCode {
	d.lastCmd, d.lastArg0, d.lastArg1 = cmdNum, arg0, arg1
	return kerr.Success
}

func (d *recordingDriver) Subscribe(pid process.ID, subNum uint32, callback func(r0, r1, r2 uint32)) kerr.ReturnCode {
	d.subCallback = callback
	return kerr.Success
}

func (d *recordingDriver) Allow(pid process.ID, slot uint32, base, length int) kerr.ReturnCode {
	d.allowBase, d.allowLen = base, length
	return kerr.Success
}

const testDriverID = 0x42

func newABI(t *testing.T) (*syscallabi.ABI, *recordingDriver, *process.Table) {
	t.Helper()
	drv := &recordingDriver{}
	platform := capsule.NewPlatform(map[uint32]capsule.Driver{testDriverID: drv})

	var procs process.Table
	require.NoError(t, procs.Install(0, process.New(0, "app0", 64, process.FaultRestart)))

	return syscallabi.New(platform, &procs), drv, &procs
}

func TestCommandDispatchesToRegisteredDriver(t *testing.T) {
	abi, drv, _ := newABI(t)

	got := abi.Command(0, testDriverID, 7, 11, 22)

	assert.Equal(t, int32(kerr.Success), got)
	assert.Equal(t, uint32(7), drv.lastCmd)
	assert.Equal(t, uint32(11), drv.lastArg0)
	assert.Equal(t, uint32(22), drv.lastArg1)
}

func TestCommandOnUnregisteredDriverIsNoDevice(t *testing.T) {
	abi, _, _ := newABI(t)

	got := abi.Command(0, 0xFFFF, 0, 0, 0)

	assert.Equal(t, int32(kerr.NoDevice), got)
}

func TestSubscribeInstallsCallback(t *testing.T) {
	abi, drv, _ := newABI(t)

	var got [3]uint32
	code := abi.Subscribe(0, testDriverID, 1, func(r0, r1, r2 uint32) { got = [3]uint32{r0, r1, r2} })
	require.Equal(t, int32(kerr.Success), code)

	require.NotNil(t, drv.subCallback)
	drv.subCallback(1, 2, 3)
	assert.Equal(t, [3]uint32{1, 2, 3}, got)
}

func TestAllowForwardsBaseAndLength(t *testing.T) {
	abi, drv, _ := newABI(t)

	code := abi.Allow(0, testDriverID, 1, 16, 32)

	assert.Equal(t, int32(kerr.Success), code)
	assert.Equal(t, 16, drv.allowBase)
	assert.Equal(t, 32, drv.allowLen)
}

func TestYieldMarksProcessYielded(t *testing.T) {
	abi, _, procs := newABI(t)

	p := procs.Get(0)
	require.True(t, p.Ready())

	abi.Yield(0)

	assert.False(t, p.Ready())
}

func TestYieldOnUnknownProcessIsNoop(t *testing.T) {
	abi, _, _ := newABI(t)
	abi.Yield(99)
}
