package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osprey-embedded/heliumcore/internal/board"
)

func TestDeviceIDMasksLowByte(t *testing.T) {
	assert.Equal(t, uint8(0x44), board.DeviceID(0x11223344))
	assert.Equal(t, uint8(0x00), board.DeviceID(0xFFFFFF00))
	assert.Equal(t, uint8(0xFF), board.DeviceID(0x000000FF))
}
