// Package board implements the out-of-core board wiring: the YAML
// configuration that seeds the boot-time process table, device-id
// derivation, and thin placeholder capsules for the peripherals spec.md
// §1 treats as external collaborators (LEDs, buttons, GPIO, RNG, I2C,
// ADC, PWM) rather than core responsibilities.
package board

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config is a board's boot-time description: its numeric identity and
// which process images to mount into which slots, the Go analogue of the
// original's per-board main.rs constructing PROCESSES by hand.
type Config struct {
	BoardID   uint32          `yaml:"board_id"`
	Processes []ProcessConfig `yaml:"processes"`
}

// ProcessConfig describes one process image to install at boot.
type ProcessConfig struct {
	Name string `yaml:"name"`
	// RAMSize is the simulated RAM arena carved out for this process's
	// grants and allowed buffers.
	RAMSize int `yaml:"ram_size"`
	// Slot pins this process to a specific table index. A negative value
	// (board authors write -1) asks InstallProcesses to auto-assign the
	// next free slot instead.
	Slot int `yaml:"slot"`
	// Fault is "restart" (also the default when empty) or "panic";
	// anything else is a config error.
	Fault string `yaml:"fault"`
}

// LoadConfig parses a board configuration file. The decoder rejects
// unknown keys so a typo in a board file fails at boot instead of
// silently doing nothing, the same strictness spec.md expects of a
// statically-allocated system that never discovers its process set at
// runtime.
func LoadConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("board: parse config: %w", err)
	}
	return &cfg, nil
}
