package uart

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/kerr"
)

// DebugClient is a Mux Client carrying the kernel's own debug output
// over the shared UART, alongside whatever app console traffic the
// Driver client is running — the "kernel-debug sink + app console
// sharing one physical UART" case the mux exists for. It satisfies
// io.Writer so it can be handed straight to internal/logging as an
// output backend.
type DebugClient struct {
	mu    sync.Mutex
	queue [][]byte
	mux   *Mux
}

var _ Client = (*DebugClient)(nil)

// NewDebugClient returns an unwired debug sink; call SetMux once its Mux
// exists.
func NewDebugClient() *DebugClient {
	return &DebugClient{}
}

// SetMux installs the Mux this client offers transmissions through.
func (d *DebugClient) SetMux(m *Mux) {
	d.mux = m
}

// Write queues p as one TxRequest, preserving this client's own FIFO
// order across multiple writes, and pokes the mux so it can be armed
// without waiting on an unrelated completion.
func (d *DebugClient) Write(p []byte) (int, error) {
	buf := append([]byte(nil), p...)
	d.mu.Lock()
	d.queue = append(d.queue, buf)
	d.mu.Unlock()
	if d.mux != nil {
		d.mux.Poke()
	}
	return len(p), nil
}

// HasTxRequest implements Client.
func (d *DebugClient) HasTxRequest() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue) > 0
}

// GetTx implements Client, handing over the oldest queued write.
func (d *DebugClient) GetTx() *TxRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	buf := d.queue[0]
	d.queue = d.queue[1:]
	return &TxRequest{Buf: buf}
}

// TransmitComplete implements Client. The kernel debug sink has no
// per-write completion to report back to; it only cares that the bytes
// went out.
func (d *DebugClient) TransmitComplete(*TxRequest, kerr.ReturnCode) {}
