// Package config holds the build-time configuration surface for the flight
// controller. Everything here is fixed for a given firmware image; nothing is
// tunable in flight.
package config

import "fmt"

// Airframe selects the model mixer variant.
type Airframe int

const (
	FlyingWing Airframe = iota // elevons on servo 1/2, rudder on 3
	FullHouse                  // ailerons on 1/2, elevator on 3, rudder on 4
	FullHouseVTail             // ailerons on 1/2, ruddervators on 3/4
	VTail                      // ruddervators on 1/2, no ailerons
	RudderElevator             // rudder on 1, elevator on 2
)

// ThrottleScheme selects how yaw demand reaches the motors.
type ThrottleScheme int

const (
	SingleMotor  ThrottleScheme = iota // both motor outputs follow throttle
	Differential                       // motor1 = throttle+yaw, motor2 = throttle-yaw
)

// HeadingHold selects the yaw hold behaviour. The three options are mutually
// exclusive by construction.
type HeadingHold int

const (
	HeadingHoldOff     HeadingHold = iota
	HeadingHoldAlways              // hold whenever the aux2 switch enables it
	HeadingHoldCentred             // hold only while the yaw stick is inside the deadband
)

// OutputProtocol selects the motor signalling scheme.
type OutputProtocol int

const (
	PWMStandard OutputProtocol = iota
	Oneshot125
)

// --- Receiver channel calibration ---
const (
	ChannelMin    = 172  // minimum calibrated channel value
	ChannelMax    = 1811 // maximum calibrated channel value
	ChannelCentre = 992
	Deadband      = 8 // channel units either side of centre

	// Three-position switch thresholds. Below Low is position low,
	// above High is position high, anything between is mid.
	SwitchLowMax  = 718
	SwitchHighMin = 1265

	ThrottleLowValue = 350 // channel value below which the throttle stick counts as low

	// Fixed channel assignments.
	ChRoll     = 0
	ChPitch    = 1
	ChThrottle = 2
	ChYaw      = 3
	ChArm      = 4
	ChMode     = 5
	ChAux1     = 6
	ChAux2     = 7

	NumChannels = 8
)

// --- Control loop ---
const (
	LoopHz         = 1000
	LoopDT         = 1.0 / LoopHz // seconds per tick
	WatchdogMS     = 20           // receiver signal watchdog
	PassThroughMax = 1000         // passthrough demand span, signed
	SignalLimit    = 1000         // PIDF output clamp, signed
)

// Gains is one {P,I,D,F} coefficient set for a single axis.
type Gains struct {
	P float64
	I float64
	D float64
	F float64
}

// AxisGains carries the rate and levelled gain banks for one axis.
type AxisGains struct {
	Rate     Gains
	Levelled Gains
}

// Config is the whole configuration surface, resolved once at startup and
// treated as immutable afterwards.
type Config struct {
	Airframe    Airframe
	Throttle    ThrottleScheme
	HeadingHold HeadingHold
	FlapMixing  bool // full-house variants only
	LowVoltage  bool // battery throttle governance on/off
	Protocol    OutputProtocol

	// Demand spans. Rates are degrees/second, angles degrees; commands are
	// carried as value*100 fixed point.
	MaxRollRate   int32
	MaxPitchRate  int32
	MaxYawRate    int32
	MaxRollAngle  int32
	MaxPitchAngle int32

	// Failsafe attitude, degrees*100.
	FailsafeRoll  int32
	FailsafePitch int32

	Roll  AxisGains
	Pitch AxisGains
	Yaw   AxisGains

	IntegralLimit float64 // clamp on the accumulated I term

	// Per-servo trim, in microsecond-equivalent units. Scaled by the output
	// protocol's tick resolution before being applied.
	Trim [4]int32

	FlapTravel int32 // full flap deflection, microsecond-equivalent units
}

// Default returns the stock configuration for the reference airframe.
func Default() Config {
	return Config{
		Airframe:    FlyingWing,
		Throttle:    SingleMotor,
		HeadingHold: HeadingHoldCentred,
		FlapMixing:  false,
		LowVoltage:  true,
		Protocol:    PWMStandard,

		MaxRollRate:   240,
		MaxPitchRate:  180,
		MaxYawRate:    180,
		MaxRollAngle:  45,
		MaxPitchAngle: 35,

		FailsafeRoll:  1000, // 10 degrees, gentle circle
		FailsafePitch: 0,

		Roll: AxisGains{
			Rate:     Gains{P: 0.050, I: 0.030, D: 0.0002, F: 0.015},
			Levelled: Gains{P: 0.200, I: 0.050, D: 0.0002, F: 0.0},
		},
		Pitch: AxisGains{
			Rate:     Gains{P: 0.055, I: 0.035, D: 0.0002, F: 0.015},
			Levelled: Gains{P: 0.220, I: 0.060, D: 0.0002, F: 0.0},
		},
		Yaw: AxisGains{
			Rate:     Gains{P: 0.060, I: 0.040, D: 0.0, F: 0.010},
			Levelled: Gains{P: 0.080, I: 0.060, D: 0.0, F: 0.0},
		},

		IntegralLimit: 350,
	}
}

// Validate rejects configurations that cannot fly. Checked once at startup,
// before anything is armed.
func (c Config) Validate() error {
	if c.Airframe < FlyingWing || c.Airframe > RudderElevator {
		return fmt.Errorf("config: unknown airframe variant %d", c.Airframe)
	}
	if c.HeadingHold < HeadingHoldOff || c.HeadingHold > HeadingHoldCentred {
		return fmt.Errorf("config: unknown heading hold mode %d", c.HeadingHold)
	}
	if c.Protocol != PWMStandard && c.Protocol != Oneshot125 {
		return fmt.Errorf("config: unknown output protocol %d", c.Protocol)
	}
	if c.FlapMixing && c.Airframe != FullHouse && c.Airframe != FullHouseVTail {
		return fmt.Errorf("config: flap mixing requires a full-house airframe")
	}
	if c.MaxRollRate <= 0 || c.MaxPitchRate <= 0 || c.MaxYawRate <= 0 {
		return fmt.Errorf("config: rate spans must be positive")
	}
	if c.MaxRollAngle <= 0 || c.MaxPitchAngle <= 0 {
		return fmt.Errorf("config: angle spans must be positive")
	}
	return nil
}
