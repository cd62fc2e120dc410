package kernel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kernel "github.com/osprey-embedded/heliumcore"
	"github.com/osprey-embedded/heliumcore/internal/board"
	"github.com/osprey-embedded/heliumcore/internal/process"
	"github.com/osprey-embedded/heliumcore/internal/radiohw"
	"github.com/osprey-embedded/heliumcore/internal/rtchw"
	"github.com/osprey-embedded/heliumcore/internal/uart"
	"github.com/osprey-embedded/heliumcore/internal/uarthw"
)

func oneProcessBoard() *board.Config {
	return &board.Config{
		BoardID: 0x01020304,
		Processes: []board.ProcessConfig{
			{Name: "app0", RAMSize: 64, Slot: 0, Fault: "restart"},
		},
	}
}

func TestNewNodeDefaultsToFakeHardware(t *testing.T) {
	n, err := kernel.NewNode(kernel.Config{})
	require.NoError(t, err)
	assert.Equal(t, kernel.StateCreated, n.State())
}

func TestNewNodeRejectsInvalidBoardConfig(t *testing.T) {
	_, err := kernel.NewNode(kernel.Config{Board: &board.Config{
		Processes: []board.ProcessConfig{{Name: "bad", RAMSize: 0, Slot: 0}},
	}})
	assert.Error(t, err)
}

func TestNodeRunTransitionsToRunningThenStopped(t *testing.T) {
	n, err := kernel.NewNode(kernel.Config{Board: oneProcessBoard()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return n.State() == kernel.StateRunning }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, kernel.StateStopped, n.State())
}

func TestNodeDeliversUARTReadUpcall(t *testing.T) {
	uartFake := uarthw.NewFake()
	n, err := kernel.NewNode(kernel.Config{
		Board:         oneProcessBoard(),
		UARTRegisters: uartFake,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)
	require.Eventually(t, func() bool { return n.State() == kernel.StateRunning }, time.Second, time.Millisecond)

	const pid process.ID = 0

	done := make(chan struct{}, 1)
	code := n.Subscribe(pid, kernel.DriverUART, uart.SubscribeReadDone, func(length, status, _ uint32) {
		done <- struct{}{}
	})
	require.EqualValues(t, kernel.Success, code)

	code = n.Allow(pid, kernel.DriverUART, uart.AllowReadBuffer, 0, 16)
	require.EqualValues(t, kernel.Success, code)

	code = n.Command(pid, kernel.DriverUART, uart.CmdGetNStr, 16, 0)
	require.EqualValues(t, kernel.Success, code)

	uartFake.Feed([]byte("hi\n"))
	n.UARTLine().Fire()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read-done upcall never delivered")
	}

	proc := n.Processes().Get(pid)
	require.NotNil(t, proc)
	assert.Equal(t, byte('h'), proc.RAM[0])
	assert.Equal(t, byte('i'), proc.RAM[1])
	assert.Equal(t, byte('\n'), proc.RAM[2])
}

func TestNodeMetricsTrackSyscalls(t *testing.T) {
	n, err := kernel.NewNode(kernel.Config{Board: oneProcessBoard()})
	require.NoError(t, err)

	n.Yield(0)
	n.Command(0, kernel.DriverLED, 0, 0, 0)

	snap := n.MetricsSnapshot()
	assert.EqualValues(t, 1, snap.YieldCalls)
	assert.EqualValues(t, 1, snap.CommandCalls)
}

func TestNodeExposesHardwareFakesThroughConfig(t *testing.T) {
	radioCo := radiohw.New(nil)
	_ = radioCo // not wired into the node below; radio wiring is covered by the radio tests

	alarmFake := rtchw.NewFake()
	n, err := kernel.NewNode(kernel.Config{
		Board:          oneProcessBoard(),
		AlarmRegisters: alarmFake,
	})
	require.NoError(t, err)
	assert.NotNil(t, n.AlarmLine())
}
