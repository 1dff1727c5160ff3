// Package mode implements the flight-mode state machine. The transition is a
// pure function of the previous mode, the decoded pilot command and the
// orientation estimator's calibration flag, evaluated once per control tick.
package mode

import "github.com/mik4rok/plainFlightController/rc"

// FlightMode enumerates the states of the flight controller. Exactly one is
// active at any time.
type FlightMode int

const (
	Calibrating FlightMode = iota
	Disarmed
	PassThrough
	Rate
	AutoLevel
	Failsafe
)

func (m FlightMode) String() string {
	switch m {
	case Calibrating:
		return "calibrating"
	case Disarmed:
		return "disarmed"
	case PassThrough:
		return "pass-through"
	case Rate:
		return "rate"
	case AutoLevel:
		return "auto-level"
	case Failsafe:
		return "failsafe"
	}
	return "unknown"
}

// Active reports whether the mode drives the motors. Calibrating, Disarmed
// and Failsafe all hold the motors at minimum.
func (m FlightMode) Active() bool {
	return m == PassThrough || m == Rate || m == AutoLevel
}

// Levelled reports whether the mode flies against the levelled gain bank.
func (m FlightMode) Levelled() bool {
	return m == AutoLevel || m == Failsafe
}

// Next computes the mode for this tick. Priority order: calibration overrides
// everything, then signal loss, then the arm switch, then the mode switch.
//
// Arming is gated on low throttle: an armed transition out of Disarmed is
// only honoured while the throttle stick is low; otherwise the craft stays
// Disarmed until the throttle is pulled back. Once out of Disarmed, mode
// switching is unrestricted.
func Next(prev FlightMode, cmd rc.Command, calibrated bool) FlightMode {
	switch {
	case !calibrated:
		return Calibrating
	case prev == Calibrating:
		return Disarmed
	case cmd.Failsafe:
		return Failsafe
	case !cmd.Armed:
		return Disarmed
	}

	if prev == Disarmed && !cmd.ThrottleLow {
		return Disarmed
	}

	switch cmd.ModeSwitch {
	case rc.SwitchLow:
		return PassThrough
	case rc.SwitchMid:
		return Rate
	case rc.SwitchHigh:
		return AutoLevel
	}
	// An out-of-range switch decode means the command stream cannot be
	// trusted. Treat it like signal loss.
	return Failsafe
}
