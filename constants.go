package kernel

import "github.com/osprey-embedded/heliumcore/internal/constants"

// Re-exported constants for the public API
const (
	MaxProcesses           = constants.MaxProcesses
	SyscallQuantum         = constants.SyscallQuantum
	MaxEventPriorities     = constants.MaxEventPriorities
	RadioMaxFrameLen       = constants.RadioMaxFrameLen
	RadioCommandRecordSize = constants.RadioCommandRecordSize
	RadioDefaultSyncWord   = constants.RadioDefaultSyncWord
	AutoAssignProcessSlot  = constants.AutoAssignProcessSlot

	DriverUART   = constants.DriverUART
	DriverLED    = constants.DriverLED
	DriverButton = constants.DriverButton
	DriverGPIO   = constants.DriverGPIO
	DriverAlarm  = constants.DriverAlarm
	DriverRNG    = constants.DriverRNG
	DriverI2C    = constants.DriverI2C
	DriverADC    = constants.DriverADC
	DriverPWM    = constants.DriverPWM
	DriverRadio  = constants.DriverRadio
)
