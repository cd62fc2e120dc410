package uart

import (
	"sync"

	"github.com/osprey-embedded/heliumcore/internal/kerr"
)

// Client is one logical user of a physical UART shared through a Mux —
// e.g. the kernel's own debug sink and a process console driver sharing
// one peripheral. HasTxRequest/GetTx must be idempotent and free of side
// effects beyond handing over the request itself: the mux polls them
// speculatively and must be able to call HasTxRequest any number of
// times before (or instead of) calling GetTx.
type Client interface {
	// HasTxRequest reports whether the client currently has a buffer
	// queued for transmission.
	HasTxRequest() bool

	// GetTx hands over the client's next TxRequest to arm, or nil if
	// HasTxRequest was stale by the time the mux polled. The client does
	// not see this request again until TransmitComplete is called with
	// it.
	GetTx() *TxRequest

	// TransmitComplete notifies the client that a TxRequest it supplied
	// has finished transmitting.
	TransmitComplete(req *TxRequest, status kerr.ReturnCode)
}

// Mux fans one physical UART out to a fixed, ordered set of Clients: the
// mux owns the peripheral's TxClient registration, and on every
// completion (a) delivers tx_complete to the client that supplied the
// request and (b) polls the client list in round-robin order for the
// next one to arm. At most one request is ever in flight at a time, so
// fairness is observed one arm per completion rather than concurrently.
type Mux struct {
	uart    *UART
	clients []Client

	mu     sync.Mutex
	cursor int
	owner  Client
	armed  bool
}

var _ TxClient = (*Mux)(nil)

// NewMux builds a Mux fronting u on behalf of clients, in the fixed order
// given — that order is the round-robin polling order. The caller must
// still wire the mux as u's TxClient (u.SetClients(mux, rxClient)); NewMux
// does not do this itself so the RX client — not fanned out, since
// receive ownership stays whatever single owner the board wires directly
// against u — can be set in the same call.
func NewMux(u *UART, clients ...Client) *Mux {
	return &Mux{uart: u, clients: clients}
}

// Poke notifies the mux that a client may have a new pending
// transmission, so it can arm immediately instead of waiting for the
// next unrelated completion to poll again. Safe to call even when a
// transmission is already in flight — it is then a no-op, since the mux
// always re-polls on the next TransmitComplete anyway.
func (m *Mux) Poke() {
	m.arm()
}

// TransmitComplete implements TxClient: it is the UART's completion
// callback, invoked with the request the mux itself armed. It hands the
// request back to its owning client, then polls for the next one.
func (m *Mux) TransmitComplete(req *TxRequest, status kerr.ReturnCode) {
	m.mu.Lock()
	owner := m.owner
	m.owner = nil
	m.armed = false
	m.mu.Unlock()

	if owner != nil {
		owner.TransmitComplete(req, status)
	}
	m.arm()
}

// arm polls the client list starting at the round-robin cursor and arms
// the first one with a pending request, advancing the cursor past
// whichever client it examined last — including clients it skipped —
// so that two always-ready clients alternate turn for turn rather than
// one starving the other.
func (m *Mux) arm() {
	m.mu.Lock()
	if m.armed || len(m.clients) == 0 {
		m.mu.Unlock()
		return
	}
	n := len(m.clients)
	for i := 0; i < n; i++ {
		idx := (m.cursor + i) % n
		c := m.clients[idx]
		if !c.HasTxRequest() {
			continue
		}
		req := c.GetTx()
		if req == nil {
			continue
		}
		m.cursor = (idx + 1) % n
		m.owner = c
		m.armed = true
		m.mu.Unlock()
		m.uart.TransmitBuffer(req)
		return
	}
	m.cursor = (m.cursor + 1) % n
	m.mu.Unlock()
}
