package board

import (
	"fmt"

	"github.com/osprey-embedded/heliumcore/internal/constants"
	"github.com/osprey-embedded/heliumcore/internal/process"
)

func parseFault(s string) (process.FaultResponse, error) {
	switch s {
	case "", "restart":
		return process.FaultRestart, nil
	case "panic":
		return process.FaultPanic, nil
	default:
		return 0, fmt.Errorf("unknown fault response %q", s)
	}
}

// NextFreeSlot returns the lowest unoccupied process-table index, or
// false if the table is full.
func NextFreeSlot(procs *process.Table) (process.ID, bool) {
	for i := process.ID(0); int(i) < constants.MaxProcesses; i++ {
		if procs.Get(i) == nil {
			return i, true
		}
	}
	return 0, false
}

// InstallProcesses carves a simulated RAM arena for each configured
// process and installs it into procs, auto-assigning the next free slot
// for any ProcessConfig with a negative Slot.
func InstallProcesses(cfg *Config, procs *process.Table) error {
	for _, pc := range cfg.Processes {
		fault, err := parseFault(pc.Fault)
		if err != nil {
			return fmt.Errorf("board: process %q: %w", pc.Name, err)
		}
		if pc.RAMSize <= 0 {
			return fmt.Errorf("board: process %q: ram_size must be positive", pc.Name)
		}

		id := process.ID(pc.Slot)
		if pc.Slot < 0 {
			free, ok := NextFreeSlot(procs)
			if !ok {
				return fmt.Errorf("board: process %q: no free process slot", pc.Name)
			}
			id = free
		}

		p := process.New(id, pc.Name, pc.RAMSize, fault)
		if err := procs.Install(id, p); err != nil {
			return fmt.Errorf("board: process %q: %w", pc.Name, err)
		}
	}
	return nil
}
