package rc

import (
	"time"

	"github.com/mik4rok/plainFlightController/actuator"
	"github.com/mik4rok/plainFlightController/config"
)

const watchdogTimeout = config.WatchdogMS * time.Millisecond

// Spans gives the signed output range each axis is scaled into. The
// orchestrator selects the spans for the active flight mode, so the decoder
// itself stays mode-agnostic.
type Spans struct {
	Roll  int32
	Pitch int32
	Yaw   int32
}

// Decoder holds the last received frame and the Command decoded from it.
// Frames arrive asynchronously via Offer; the control tick drains them via
// Latest. Between frames the previous Command is reused (zero-order hold),
// with failsafe driven by a time watchdog rather than frame arrival.
type Decoder struct {
	cfg    config.Config
	timing actuator.Timing

	frame      Frame
	fresh      bool
	haveSignal bool
	lastValid  time.Time

	cmd Command
}

// NewDecoder returns a decoder that reports failsafe until the first valid
// frame arrives.
func NewDecoder(cfg config.Config, t actuator.Timing) *Decoder {
	d := &Decoder{cfg: cfg, timing: t}
	d.cmd.Failsafe = true
	d.cmd.Throttle = t.MotorMin
	return d
}

// Offer hands a freshly captured frame to the decoder. This is the producer
// side of the flag-plus-buffer handoff; it must be called from the same
// goroutine as Latest or from the single receiver goroutine feeding it.
func (d *Decoder) Offer(f Frame, now time.Time) {
	d.frame = f
	d.fresh = true
	if !f.Failsafe {
		d.haveSignal = true
		d.lastValid = now
	}
}

// Latest returns the Command for this tick. A fresh frame is decoded with
// the supplied spans; otherwise the previous Command is returned with its
// fresh flag cleared. The 20 ms watchdog forces the failsafe flag without
// waiting for a new frame.
func (d *Decoder) Latest(now time.Time, spans Spans) Command {
	if d.fresh {
		d.decode(spans)
		d.fresh = false
		d.cmd.Fresh = true
	} else {
		d.cmd.Fresh = false
	}

	if !d.haveSignal || now.Sub(d.lastValid) > watchdogTimeout {
		d.cmd.Failsafe = true
	}
	return d.cmd
}

func (d *Decoder) decode(spans Spans) {
	f := &d.frame

	d.cmd.Roll = scaleStick(f.Ch[config.ChRoll], spans.Roll)
	d.cmd.Pitch = scaleStick(f.Ch[config.ChPitch], spans.Pitch)
	d.cmd.Yaw = scaleStick(f.Ch[config.ChYaw], spans.Yaw)

	// Throttle maps straight into motor ticks, independent of mode.
	d.cmd.Throttle = d.scaleThrottle(f.Ch[config.ChThrottle])
	d.cmd.ThrottleLow = f.Ch[config.ChThrottle] <= config.ThrottleLowValue

	d.cmd.Armed = f.Ch[config.ChArm] >= config.SwitchHighMin
	d.cmd.ModeSwitch = decodeSwitch(f.Ch[config.ChMode])
	d.cmd.Aux1 = decodeSwitch(f.Ch[config.ChAux1])
	d.cmd.Aux2 = decodeSwitch(f.Ch[config.ChAux2])

	d.cmd.Failsafe = f.Failsafe
	d.cmd.HeadingHold = d.headingHold()
}

// headingHold derives the hold flag from the aux2 switch and, for the
// stick-centred build option, from the yaw demand already being inside the
// deadband.
func (d *Decoder) headingHold() bool {
	enabled := d.cmd.Aux2 == SwitchHigh
	switch d.cfg.HeadingHold {
	case config.HeadingHoldAlways:
		return enabled
	case config.HeadingHoldCentred:
		return enabled && d.cmd.Yaw == 0
	}
	return false
}

// scaleStick applies the deadband and maps the raw channel value into the
// signed span for the axis. Inside the deadband the output is exactly zero.
func scaleStick(raw uint16, span int32) int32 {
	dev := int32(raw) - config.ChannelCentre
	if dev >= -config.Deadband && dev <= config.Deadband {
		return 0
	}
	v := constrain(float64(raw), config.ChannelMin, config.ChannelMax)
	return int32(mapRange(v, config.ChannelMin, config.ChannelMax, float64(-span), float64(span)))
}

func (d *Decoder) scaleThrottle(raw uint16) uint32 {
	v := constrain(float64(raw), config.ChannelMin, config.ChannelMax)
	ticks := mapRange(v, config.ChannelMin, config.ChannelMax,
		float64(d.timing.MotorMin), float64(d.timing.MotorMax))
	return uint32(ticks)
}

func decodeSwitch(raw uint16) SwitchPos {
	switch {
	case raw <= config.SwitchLowMax:
		return SwitchLow
	case raw >= config.SwitchHighMin:
		return SwitchHigh
	}
	return SwitchMid
}
