package kernel

import (
	"github.com/osprey-embedded/heliumcore/internal/board"
	"github.com/osprey-embedded/heliumcore/internal/radio"
	"github.com/osprey-embedded/heliumcore/internal/radiohw"
	"github.com/osprey-embedded/heliumcore/internal/rtchw"
	"github.com/osprey-embedded/heliumcore/internal/uarthw"
)

// TestHarness bundles a Node together with the fake hardware backends it
// was wired with, so a consumer's test can feed UART bytes, advance the
// alarm counter, and set the co-processor fake's failure flags without
// reaching into internal packages itself.
type TestHarness struct {
	Node  *Node
	UART  *uarthw.Fake
	Radio *radiohw.Fake
	Alarm *rtchw.Fake
}

// NewTestNode builds a Node wired entirely with host-only fakes, for use
// in a consumer's own unit tests. boardCfg may be nil, in which case the
// node is built with an empty process table.
func NewTestNode(boardCfg *board.Config) (*TestHarness, error) {
	uartFake := uarthw.NewFake()
	alarmFake := rtchw.NewFake()
	rxQueue := radio.NewRXQueue(4)
	radioFake := radiohw.New(rxQueue)

	n, err := NewNode(Config{
		Board:            boardCfg,
		UARTRegisters:    uartFake,
		AlarmRegisters:   alarmFake,
		RadioCoprocessor: radioFake,
		RadioRXQueueSize: 4,
	})
	if err != nil {
		return nil, err
	}

	return &TestHarness{
		Node:  n,
		UART:  uartFake,
		Radio: radioFake,
		Alarm: alarmFake,
	}, nil
}
