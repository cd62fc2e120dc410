package board_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osprey-embedded/heliumcore/internal/board"
)

func TestLoadConfigParsesProcesses(t *testing.T) {
	src := strings.NewReader(`
board_id: 0x11223344
processes:
  - name: sensor
    ram_size: 2048
    slot: -1
    fault: restart
  - name: watchdog
    ram_size: 1024
    slot: 3
    fault: panic
`)

	cfg, err := board.LoadConfig(src)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x11223344), cfg.BoardID)
	require.Len(t, cfg.Processes, 2)
	assert.Equal(t, "sensor", cfg.Processes[0].Name)
	assert.Equal(t, 2048, cfg.Processes[0].RAMSize)
	assert.Equal(t, -1, cfg.Processes[0].Slot)
	assert.Equal(t, "watchdog", cfg.Processes[1].Name)
	assert.Equal(t, 3, cfg.Processes[1].Slot)
	assert.Equal(t, "panic", cfg.Processes[1].Fault)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	src := strings.NewReader(`
board_id: 1
processes:
  - name: sensor
    ram_size: 1024
    sloppy_typo: -1
`)

	_, err := board.LoadConfig(src)
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	src := strings.NewReader("board_id: [1, 2\n")
	_, err := board.LoadConfig(src)
	assert.Error(t, err)
}
