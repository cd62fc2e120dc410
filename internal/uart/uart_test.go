package uart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osprey-embedded/heliumcore/internal/kerr"
	"github.com/osprey-embedded/heliumcore/internal/uart"
	"github.com/osprey-embedded/heliumcore/internal/uarthw"
)

func TestTransmitBufferWritesBytesInOrder(t *testing.T) {
	regs := uarthw.NewFake()
	u := uart.New(regs)
	require.Equal(t, kerr.Success, u.Configure(uart.DefaultParameters()))

	req := &uart.TxRequest{Buf: []byte("hi\n")}
	code := u.TransmitBuffer(req)
	require.Equal(t, kerr.Success, code)

	for !req.Completed {
		u.ServiceInterrupt()
	}

	assert.Equal(t, []byte("hi\n"), regs.Written())
}

func TestOverlappedTransmitSecondGetsBusy(t *testing.T) {
	regs := uarthw.NewFake()
	u := uart.New(regs)
	require.Equal(t, kerr.Success, u.Configure(uart.DefaultParameters()))

	first := &uart.TxRequest{Buf: []byte("aaaa")}
	require.Equal(t, kerr.Success, u.TransmitBuffer(first))

	second := &uart.TxRequest{Buf: []byte("bbbb")}
	assert.Equal(t, kerr.Busy, u.TransmitBuffer(second))

	for !first.Completed {
		u.ServiceInterrupt()
	}

	require.Equal(t, kerr.Success, u.TransmitBuffer(second))
}

func TestReceiveBufferCompletesOnNewline(t *testing.T) {
	regs := uarthw.NewFake()
	u := uart.New(regs)
	require.Equal(t, kerr.Success, u.Configure(uart.DefaultParameters()))

	req := &uart.RxRequest{Buf: make([]byte, 0, 16), Len: 16}
	require.Equal(t, kerr.Success, u.ReceiveBuffer(req))

	regs.Feed([]byte("hello\n"))
	u.ServiceInterrupt()

	assert.True(t, req.Completed)
	assert.True(t, req.NewlineTerminated)
	assert.Equal(t, []byte("hello\n\x00"), req.Buf)
}

func TestReceiveBufferCompletesWhenFull(t *testing.T) {
	regs := uarthw.NewFake()
	u := uart.New(regs)
	require.Equal(t, kerr.Success, u.Configure(uart.DefaultParameters()))

	req := &uart.RxRequest{Buf: make([]byte, 0, 3), Len: 3}
	require.Equal(t, kerr.Success, u.ReceiveBuffer(req))

	regs.Feed([]byte("abc"))
	u.ServiceInterrupt()

	assert.True(t, req.Completed)
	assert.False(t, req.NewlineTerminated)
	assert.Equal(t, []byte("abc"), req.Buf)
}

type recordingClient struct {
	txDone int
	rxDone int
}

func (c *recordingClient) TransmitComplete(*uart.TxRequest, kerr.ReturnCode) { c.txDone++ }
func (c *recordingClient) ReceiveComplete(*uart.RxRequest, kerr.ReturnCode)  { c.rxDone++ }

func TestClientsNotifiedOnCompletion(t *testing.T) {
	regs := uarthw.NewFake()
	u := uart.New(regs)
	require.Equal(t, kerr.Success, u.Configure(uart.DefaultParameters()))

	client := &recordingClient{}
	u.SetClients(client, client)

	tx := &uart.TxRequest{Buf: []byte("x")}
	require.Equal(t, kerr.Success, u.TransmitBuffer(tx))
	u.ServiceInterrupt()
	assert.Equal(t, 1, client.txDone)

	rx := &uart.RxRequest{Buf: make([]byte, 0, 4), Len: 4}
	require.Equal(t, kerr.Success, u.ReceiveBuffer(rx))
	regs.Feed([]byte("y\n"))
	u.ServiceInterrupt()
	assert.Equal(t, 1, client.rxDone)
}
