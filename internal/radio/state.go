package radio

// State is the driver's own state machine, independent of the status word
// the co-processor writes into individual command records:
//
//	Off --power_up--> PoweringUp --setup ok--> Idle
//	Idle --transmit--> Tx --cmd_done--> Idle
//	Idle --receive--> Rx --stop/kill--> Idle
//	any --power_down--> Off
type State int

const (
	StateOff State = iota
	StatePoweringUp
	StateIdle
	StateTx
	StateRx
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StatePoweringUp:
		return "powering_up"
	case StateIdle:
		return "idle"
	case StateTx:
		return "tx"
	case StateRx:
		return "rx"
	default:
		return "unknown"
	}
}

// Mode selects the air protocol a board configures before power-up;
// changing modes requires power-down -> set-mode -> power-up.
type Mode int

const (
	ModeGFSK Mode = iota
	ModeLongRange
	ModeBLE
)

// CPE0Flags is the bitmask the co-processor's CPE0 interrupt-status word
// carries, demultiplexed per spec.md §4.6's table.
type CPE0Flags uint8

const (
	FlagCmdDone CPE0Flags = 1 << iota
	FlagLastCmdDone
	FlagRxOK
	FlagRxNOK
	FlagRxEntryDone
	FlagRxBufFull
)

func (f CPE0Flags) has(bit CPE0Flags) bool { return f&bit != 0 }
