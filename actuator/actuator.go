// Package actuator defines the output side of the control pipeline: the
// per-tick frame of servo and motor values, the physical ranges they are
// clamped to, and the sink interface the hardware driver implements.
package actuator

import "github.com/mik4rok/plainFlightController/config"

// Frame is one complete set of actuator commands, in output timer ticks.
// A fresh Frame is built every control tick.
type Frame struct {
	Servo [4]uint32
	Motor [2]uint32
}

// Output is the write-actuator-ticks sink. Implementations are the PWM
// peripheral driver on hardware and a recorder on the host.
type Output interface {
	Write(Frame)
}

// Timing describes the tick ranges of the selected output protocol.
// Servo values are standard 50 Hz PWM at 1 tick/us for PWMStandard; the
// Oneshot125 build runs the output timers at double resolution and a higher
// servo refresh, so every range scales by two and the motor window shrinks
// to the 125-250 us Oneshot window.
type Timing struct {
	ServoMin    uint32
	ServoCentre uint32
	ServoMax    uint32
	MotorMin    uint32
	MotorMax    uint32

	// TrimScale converts microsecond-denominated offsets (trim, flap
	// travel) into ticks, keeping their physical magnitude independent of
	// the timer resolution.
	TrimScale int32
}

// TimingFor resolves the output timing for a protocol selection.
func TimingFor(p config.OutputProtocol) Timing {
	switch p {
	case config.Oneshot125:
		return Timing{
			ServoMin:    2000,
			ServoCentre: 3000,
			ServoMax:    4000,
			MotorMin:    250, // 125us
			MotorMax:    500, // 250us
			TrimScale:   2,
		}
	default:
		return Timing{
			ServoMin:    1000,
			ServoCentre: 1500,
			ServoMax:    2000,
			MotorMin:    1000,
			MotorMax:    2000,
			TrimScale:   1,
		}
	}
}

// Clamp forces every field of the frame into the physical range for this
// timing. Values outside the range become the nearest boundary.
func (t Timing) Clamp(f Frame) Frame {
	for i := range f.Servo {
		f.Servo[i] = clamp(f.Servo[i], t.ServoMin, t.ServoMax)
	}
	for i := range f.Motor {
		f.Motor[i] = clamp(f.Motor[i], t.MotorMin, t.MotorMax)
	}
	return f
}

// ClampServo converts a signed mixer result into a servo tick value,
// saturating at the physical range.
func (t Timing) ClampServo(v int32) uint32 {
	if v < int32(t.ServoMin) {
		return t.ServoMin
	}
	if v > int32(t.ServoMax) {
		return t.ServoMax
	}
	return uint32(v)
}

// ClampMotor converts a signed throttle result into a motor tick value,
// saturating at the physical range.
func (t Timing) ClampMotor(v int32) uint32 {
	if v < int32(t.MotorMin) {
		return t.MotorMin
	}
	if v > int32(t.MotorMax) {
		return t.MotorMax
	}
	return uint32(v)
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
