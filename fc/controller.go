// Package fc sequences the whole control pipeline: command decode, battery
// filtering, the flight-mode state machine, the control laws, mixing, unit
// conversion and the clamped actuator dispatch. One Tick per 1 kHz period.
package fc

import (
	"time"

	"github.com/mik4rok/plainFlightController/actuator"
	"github.com/mik4rok/plainFlightController/battery"
	"github.com/mik4rok/plainFlightController/config"
	"github.com/mik4rok/plainFlightController/control"
	"github.com/mik4rok/plainFlightController/imu"
	"github.com/mik4rok/plainFlightController/mixer"
	"github.com/mik4rok/plainFlightController/mode"
	"github.com/mik4rok/plainFlightController/rc"
)

// Controller owns every piece of mutable control state. All methods are
// called from the single tick goroutine; frame delivery via Offer is the
// only producer-side entry point.
type Controller struct {
	cfg    config.Config
	timing actuator.Timing

	decoder *rc.Decoder
	axes    *control.AxisSet
	bat     *battery.Monitor
	est     imu.Estimator
	out     actuator.Output

	mode mode.FlightMode
}

// New validates the configuration, primes the battery monitor and returns a
// controller starting in Calibrating.
func New(cfg config.Config, est imu.Estimator, volts battery.Source, out actuator.Output) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timing := actuator.TimingFor(cfg.Protocol)
	return &Controller{
		cfg:     cfg,
		timing:  timing,
		decoder: rc.NewDecoder(cfg, timing),
		axes:    control.NewAxisSet(cfg),
		bat:     battery.NewMonitor(volts, cfg.LowVoltage),
		est:     est,
		out:     out,
		mode:    mode.Calibrating,
	}, nil
}

// Offer hands a captured receiver frame to the command decoder.
func (c *Controller) Offer(f rc.Frame, now time.Time) {
	c.decoder.Offer(f, now)
}

// Mode returns the flight mode selected on the last tick.
func (c *Controller) Mode() mode.FlightMode {
	return c.mode
}

// Battery exposes the monitor for status reporting.
func (c *Controller) Battery() *battery.Monitor {
	return c.bat
}

// Timing returns the resolved output timing.
func (c *Controller) Timing() actuator.Timing {
	return c.timing
}

// Tick runs the control pipeline once and dispatches the resulting frame.
func (c *Controller) Tick(now time.Time) {
	// Command decode uses the spans of the mode selected last tick, so for
	// at most one receiver frame period after a mode change the demand is
	// scaled in the old mode's units; the new mode takes effect on the next
	// fresh frame.
	cmd := c.decoder.Latest(now, c.spans())
	est := c.est.Estimate()
	c.bat.Update()

	next := mode.Next(c.mode, cmd, c.est.Calibrated())
	if next != c.mode {
		c.axes.ResetIntegrals()
		c.mode = next
	}

	roll, pitch, yaw := c.axisSignals(cmd, est)
	servos := mixer.Model(c.cfg.Airframe, roll, pitch, yaw)

	span := c.signalSpan()
	half := int32(c.timing.ServoMax-c.timing.ServoMin) / 2
	var ticks [4]int32
	for i, sig := range servos {
		ticks[i] = int32(c.timing.ServoCentre) + sig*half/span
	}

	// Flap offset lands after unit conversion so its magnitude does not
	// depend on the active mode's demand span.
	if c.flapsFitted() {
		flap := mixer.FlapOffset(cmd.Aux1, c.cfg.FlapTravel*c.timing.TrimScale)
		ticks[0] += flap
		ticks[1] -= flap
	}

	for i := range ticks {
		ticks[i] += c.cfg.Trim[i] * c.timing.TrimScale
	}

	motors := mixer.Motors(c.cfg.Throttle, int32(cmd.Throttle), c.motorYaw(yaw),
		!c.mode.Active(), c.timing)
	if c.bat.Govern(now, cmd.ThrottleLow) {
		motors[0] = int32(c.timing.MotorMin)
		motors[1] = int32(c.timing.MotorMin)
	}

	var frame actuator.Frame
	for i := range ticks {
		frame.Servo[i] = c.timing.ClampServo(ticks[i])
	}
	frame.Motor[0] = c.timing.ClampMotor(motors[0])
	frame.Motor[1] = c.timing.ClampMotor(motors[1])
	c.out.Write(frame)
}

// spans selects the decode range for the active mode: passthrough units for
// the non-stabilised modes, rate units for Rate, angle units for AutoLevel
// (yaw stays a rate demand).
func (c *Controller) spans() rc.Spans {
	switch c.mode {
	case mode.Rate:
		return rc.Spans{
			Roll:  c.cfg.MaxRollRate * 100,
			Pitch: c.cfg.MaxPitchRate * 100,
			Yaw:   c.cfg.MaxYawRate * 100,
		}
	case mode.AutoLevel:
		return rc.Spans{
			Roll:  c.cfg.MaxRollAngle * 100,
			Pitch: c.cfg.MaxPitchAngle * 100,
			Yaw:   c.cfg.MaxYawRate * 100,
		}
	}
	return rc.Spans{
		Roll:  config.PassThroughMax,
		Pitch: config.PassThroughMax,
		Yaw:   config.PassThroughMax,
	}
}

// axisSignals runs the mode's control laws. Non-stabilised modes pass the
// sticks straight through; Failsafe flies the configured safe attitude on
// the levelled bank.
func (c *Controller) axisSignals(cmd rc.Command, est imu.Estimate) (roll, pitch, yaw int32) {
	switch c.mode {
	case mode.Rate:
		roll = c.axes.Rate(control.Roll).Evaluate(cmd.Roll, est.RollRate)
		pitch = c.axes.Rate(control.Pitch).Evaluate(cmd.Pitch, est.PitchRate)
		yaw = c.yawSignal(cmd.Yaw, cmd.HeadingHold, est.YawRate)
	case mode.AutoLevel:
		roll = c.axes.Levelled(control.Roll).Evaluate(cmd.Roll, est.RollAngle)
		pitch = c.axes.Levelled(control.Pitch).Evaluate(cmd.Pitch, est.PitchAngle)
		yaw = c.yawSignal(cmd.Yaw, cmd.HeadingHold, est.YawRate)
	case mode.Failsafe:
		roll = c.axes.Levelled(control.Roll).Evaluate(c.cfg.FailsafeRoll, est.RollAngle)
		pitch = c.axes.Levelled(control.Pitch).Evaluate(c.cfg.FailsafePitch, est.PitchAngle)
		yaw = c.yawSignal(0, false, est.YawRate)
	default:
		roll, pitch, yaw = cmd.Roll, cmd.Pitch, cmd.Yaw
	}
	return roll, pitch, yaw
}

// yawSignal implements heading hold: while the hold is active the levelled
// yaw controller works against the yaw rate and its integral supplies the
// drift correction. While inactive that integral is cleared every tick so
// it cannot wind up, and the rate controller flies the axis.
func (c *Controller) yawSignal(demand int32, hold bool, yawRate int32) int32 {
	if hold {
		return c.axes.Levelled(control.Yaw).Evaluate(demand, yawRate)
	}
	c.axes.Levelled(control.Yaw).ResetIntegral()
	return c.axes.Rate(control.Yaw).Evaluate(demand, yawRate)
}

// signalSpan is the signed range of the servo signals entering unit
// conversion for the active mode.
func (c *Controller) signalSpan() int32 {
	if c.mode == mode.Rate || c.mode.Levelled() {
		return config.SignalLimit
	}
	return config.PassThroughMax
}

// motorYaw converts the yaw signal into a differential-throttle tick offset.
func (c *Controller) motorYaw(yaw int32) int32 {
	if c.cfg.Throttle != config.Differential {
		return 0
	}
	half := int32(c.timing.MotorMax-c.timing.MotorMin) / 2
	return yaw * half / c.signalSpan()
}

func (c *Controller) flapsFitted() bool {
	return c.cfg.FlapMixing &&
		(c.cfg.Airframe == config.FullHouse || c.cfg.Airframe == config.FullHouseVTail)
}
