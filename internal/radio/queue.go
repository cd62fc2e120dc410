package radio

import (
	"encoding/binary"

	"github.com/osprey-embedded/heliumcore/internal/constants"
)

// EntryStatus is the ownership state of one RX queue entry.
type EntryStatus uint8

const (
	EntryPending EntryStatus = iota
	EntryActive
	EntryFinished
	EntryUnfinished
)

const entryHeaderSize = 4 // next(u16) + status(u8) + length(u8)
const entrySize = entryHeaderSize + constants.RadioMaxFrameLen

// RXQueueEntry is a decoded view of one ring slot, resolving spec.md §9's
// open question explicitly: the entry is decoded via this typed struct and
// encoding/binary, never via raw pointer-offset arithmetic.
type RXQueueEntry struct {
	Next    uint16
	Status  EntryStatus
	Length  uint8
	Payload []byte
}

func decodeEntry(raw []byte) RXQueueEntry {
	length := raw[3]
	return RXQueueEntry{
		Next:    binary.LittleEndian.Uint16(raw[0:2]),
		Status:  EntryStatus(raw[2]),
		Length:  length,
		Payload: raw[entryHeaderSize : entryHeaderSize+int(length)],
	}
}

func encodeEntry(raw []byte, e RXQueueEntry) {
	binary.LittleEndian.PutUint16(raw[0:2], e.Next)
	raw[2] = byte(e.Status)
	raw[3] = e.Length
	copy(raw[entryHeaderSize:], e.Payload)
}

// RXQueue is a singly-linked ring of entries living in a fixed-size shared
// byte area, the Go analogue of spec.md §3's radio RX data queue. Producer:
// the co-processor (or, in the fake, test code standing in for the RF
// front-end). Consumer: Radio.deliverRX, invoked from the CPE0 handler.
type RXQueue struct {
	slots [][]byte
}

// NewRXQueue allocates a ring of n entries, each entrySize bytes.
func NewRXQueue(n int) *RXQueue {
	q := &RXQueue{slots: make([][]byte, n)}
	for i := range q.slots {
		q.slots[i] = make([]byte, entrySize)
		binary.LittleEndian.PutUint16(q.slots[i][0:2], uint16((i+1)%n))
	}
	return q
}

// Len returns the number of entries in the ring.
func (q *RXQueue) Len() int { return len(q.slots) }

// Entry decodes the entry at ring index i.
func (q *RXQueue) Entry(i int) RXQueueEntry { return decodeEntry(q.slots[i]) }

// SetEntry encodes e into the ring slot at index i.
func (q *RXQueue) SetEntry(i int, e RXQueueEntry) { encodeEntry(q.slots[i], e) }

// PopFinished returns the finished or unfinished entry with the lowest
// slot index. It scans slots from index 0 and does not follow the Next
// linkage, so when several entries are finished at once they come out in
// index order, which is not necessarily the order they arrived in.
func (q *RXQueue) PopFinished() (RXQueueEntry, int, bool) {
	for i := range q.slots {
		e := q.Entry(i)
		if e.Status == EntryFinished || e.Status == EntryUnfinished {
			return e, i, true
		}
	}
	return RXQueueEntry{}, -1, false
}

// Reset returns entry i to pending — must happen before the CPU reads it
// again and before the next power-up of the radio, per spec.md §8's RX
// queue handoff invariant.
func (q *RXQueue) Reset(i int) {
	e := q.Entry(i)
	e.Status = EntryPending
	e.Length = 0
	e.Payload = nil
	q.SetEntry(i, e)
}

// next returns the ring-assigned next-pointer for entry i, preserved across
// Inject/Reset so the linkage set up at construction survives payload
// rewrites.
func (q *RXQueue) next(i int) uint16 {
	return binary.LittleEndian.Uint16(q.slots[i][0:2])
}

// Inject places a received frame into the first pending entry, standing in
// for the RF front-end writing a demodulated frame into shared memory.
// unfinished marks the frame CRC-invalid (the rx_nok path). Test-only: real
// silicon's co-processor firmware does this, not the host driver.
func (q *RXQueue) Inject(payload []byte, unfinished bool) (int, bool) {
	if len(payload) > constants.RadioMaxFrameLen {
		return -1, false
	}
	for i := range q.slots {
		if q.Entry(i).Status == EntryPending {
			status := EntryFinished
			if unfinished {
				status = EntryUnfinished
			}
			q.SetEntry(i, RXQueueEntry{
				Next:    q.next(i),
				Status:  status,
				Length:  uint8(len(payload)),
				Payload: payload,
			})
			return i, true
		}
	}
	return -1, false
}
