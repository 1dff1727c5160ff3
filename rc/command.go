// Package rc turns raw receiver channel frames into pilot commands. It owns
// the deadband/scaling maths, switch decoding and the signal-loss watchdog;
// it knows nothing about how the frames arrive on the wire.
package rc

import "github.com/mik4rok/plainFlightController/config"

// SwitchPos is a decoded three-position switch.
type SwitchPos int

const (
	SwitchLow SwitchPos = iota
	SwitchMid
	SwitchHigh
)

// Frame is one demultiplexed receiver frame: the calibrated channel values
// plus the link's own validity/failsafe indication. Produced by the receiver
// collaborator at whatever rate the radio link runs.
type Frame struct {
	Ch       [config.NumChannels]uint16
	Failsafe bool
}

// Command is the decoded, mode-independent pilot demand consumed once per
// control tick. Roll/pitch/yaw units depend on the mode the frame was
// decoded for: passthrough units, degrees/second*100 or degrees*100.
// Throttle is already in motor output ticks.
type Command struct {
	Roll     int32
	Pitch    int32
	Yaw      int32
	Throttle uint32

	Armed      bool
	ModeSwitch SwitchPos
	Aux1       SwitchPos
	Aux2       SwitchPos

	Failsafe    bool
	ThrottleLow bool
	HeadingHold bool
	Fresh       bool
}
