// Package mixer maps per-axis control signals onto the physical actuators of
// the selected airframe, and throttle/yaw demand onto the motors.
package mixer

import (
	"github.com/mik4rok/plainFlightController/actuator"
	"github.com/mik4rok/plainFlightController/config"
	"github.com/mik4rok/plainFlightController/rc"
)

// Servos are the four signed servo signals produced by the model mixer, in
// the same units as the axis signals fed in. Zero means centre; unused
// outputs stay at zero so spare channels park at centre.
type Servos [4]int32

// Model applies the airframe's fixed mixing formula to the three axis
// signals.
//
//	flying wing:      s1=roll-pitch  s2=roll+pitch  s3=yaw    s4=centre
//	full-house vtail: s1=roll        s2=roll        s3=yaw+pitch  s4=yaw-pitch
//	full house:       s1=roll        s2=roll        s3=pitch  s4=yaw
//	vtail:            s1=roll+pitch  s2=roll-pitch  s3=centre s4=centre
//	rudder+elevator:  s1=roll        s2=pitch       s3=centre s4=centre
func Model(a config.Airframe, roll, pitch, yaw int32) Servos {
	switch a {
	case config.FlyingWing:
		return Servos{roll - pitch, roll + pitch, yaw, 0}
	case config.FullHouseVTail:
		return Servos{roll, roll, yaw + pitch, yaw - pitch}
	case config.FullHouse:
		return Servos{roll, roll, pitch, yaw}
	case config.VTail:
		return Servos{roll + pitch, roll - pitch, 0, 0}
	case config.RudderElevator:
		return Servos{roll, pitch, 0, 0}
	}
	return Servos{}
}

// Motors mixes throttle and yaw into the two motor outputs, both already in
// motor ticks. Failsafe pins both motors at minimum regardless of the
// computed value.
func Motors(scheme config.ThrottleScheme, throttle, yawTicks int32, failsafe bool, t actuator.Timing) [2]int32 {
	if failsafe {
		return [2]int32{int32(t.MotorMin), int32(t.MotorMin)}
	}
	if scheme == config.Differential {
		return [2]int32{throttle + yawTicks, throttle - yawTicks}
	}
	return [2]int32{throttle, throttle}
}

// FlapOffset maps the flap switch position onto a flap deflection: none,
// half travel or full travel. The travel argument is already in output
// ticks, so the offset magnitude is independent of the active flight mode.
func FlapOffset(pos rc.SwitchPos, travel int32) int32 {
	switch pos {
	case rc.SwitchMid:
		return travel / 2
	case rc.SwitchHigh:
		return travel
	}
	return 0
}
