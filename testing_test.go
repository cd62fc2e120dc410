package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kernel "github.com/osprey-embedded/heliumcore"
)

func TestNewTestNodeWiresFakeHardware(t *testing.T) {
	h, err := kernel.NewTestNode(nil)
	require.NoError(t, err)
	assert.NotNil(t, h.Node)
	assert.NotNil(t, h.UART)
	assert.NotNil(t, h.Radio)
	assert.NotNil(t, h.Alarm)
	assert.Equal(t, kernel.StateCreated, h.Node.State())
}

func TestNewTestNodeAcceptsNilBoard(t *testing.T) {
	h, err := kernel.NewTestNode(nil)
	require.NoError(t, err)
	assert.NotNil(t, h.Node.Processes())
}
