package uarthw_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/uart"
	"github.com/osprey-embedded/heliumcore/internal/uarthw"
)

// TestPTYRoundTrip exercises the UART driver against a real pseudo-tty
// pair: bytes written on the master side (playing the external device)
// must arrive through internal/uart's FIFO-drain logic exactly as they
// would from real silicon.
func TestPTYRoundTrip(t *testing.T) {
	master, regs, err := uarthw.Open()
	require.NoError(t, err)
	defer regs.Close()
	defer master.Close()

	u := uart.New(regs)
	require.Equal(t, kerr.Success, u.Configure(uart.DefaultParameters()))

	fire := make(chan struct{}, 1)
	regs.OnData(func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})

	req := &uart.RxRequest{Buf: make([]byte, 0, 16), Len: 16}
	require.Equal(t, kerr.Success, u.ReceiveBuffer(req))

	_, err = master.Write([]byte("ping\n"))
	require.NoError(t, err)

	select {
	case <-fire:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pty data")
	}
	u.ServiceInterrupt()

	assert.True(t, req.Completed)
	assert.Equal(t, []byte("ping\n\x00"), req.Buf)
}
